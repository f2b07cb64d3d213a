// Package scene is the frame driver: it owns one reveal sequencer and one
// particle field and steps them together once per frame.
package scene

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/gonewx/shimmer/pkg/config"
	"github.com/gonewx/shimmer/pkg/field"
	"github.com/gonewx/shimmer/pkg/reveal"
	"github.com/gonewx/shimmer/pkg/source"
)

// Stats is a per-frame summary for HUDs, logs and the health endpoint.
type Stats struct {
	Frame    int
	Item     int
	ItemName string
	Entries  int // item entries so far, including loops of a single item
	State    reveal.State
	Opacity  float64
	Field    field.Stats
}

type options struct {
	ctx    context.Context
	rng    *rand.Rand
	logger zerolog.Logger
}

// Option configures a Scene.
type Option func(*options)

// WithLogger sets the logger handed down to the field, sequencer and builder.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRand sets the random source shared by spawning and point sampling.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithContext sets the context passed to the source builder.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// Scene drives a Sequencer and a Field. Like both of them it is not safe for
// concurrent use.
type Scene struct {
	cfg     *config.Scene
	builder source.Builder
	field   *field.Field
	seq     *reveal.Sequencer

	ctx     context.Context
	logger  zerolog.Logger
	frame   int
	entries int
}

// New wires a scene from configuration and starts its first item.
// A nil builder gets a source.DefaultBuilder configured from cfg; images it
// references are preloaded before the first item is built.
func New(cfg *config.Scene, builder source.Builder, opts ...Option) (*Scene, error) {
	o := options{ctx: context.Background(), logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(1))
	}

	fieldCfg, err := cfg.FieldConfig()
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	items, err := cfg.RevealItems()
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}

	s := &Scene{
		cfg:    cfg,
		ctx:    o.ctx,
		logger: o.logger.With().Str("component", "scene").Logger(),
		field:  field.New(fieldCfg, o.rng, field.WithLogger(o.logger)),
	}

	if builder == nil {
		b := source.NewDefaultBuilder(o.rng, o.logger)
		b.Text = cfg.TextOptions()
		b.Image = cfg.ImageOptions()
		b.BaseDir = cfg.BaseDir
		if err := b.Preload(o.ctx, items); err != nil {
			s.logger.Warn().Err(err).Msg("image preload failed")
		}
		builder = b
	}
	s.builder = builder

	seqOpts := append(cfg.RevealOptions(),
		reveal.WithItemChange(s.onItemChange),
		reveal.WithLogger(o.logger))
	if s.seq, err = reveal.New(items, seqOpts...); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	s.seq.Activate()
	return s, nil
}

// onItemChange rebuilds the field's source set for the entering item. A build
// failure leaves the field empty for this item instead of stopping playback.
func (s *Scene) onItemChange(index int, item reveal.Item) {
	points, err := s.builder.Build(s.ctx, item)
	if err != nil {
		s.logger.Error().Err(err).Int("item", index).Str("name", item.Name).Msg("failed to build source points")
		points = nil
	}
	fc := s.field.Config()
	s.field.Configure(points, fc.MaxParticles, fc.SpawnRatePerTick)
	s.entries++
	s.logger.Info().Int("item", index).Str("name", item.Name).Int("points", len(points)).Msg("item entered")
}

// Update advances one frame: the sequencer first, then the field gated and
// dimmed by the opacity the sequencer reached in this same frame.
func (s *Scene) Update(dt float64) error {
	if err := s.seq.Advance(dt); err != nil {
		return err
	}
	s.field.SetGlobalOpacity(s.seq.Opacity())
	if err := s.field.Tick(dt, s.seq.MaySpawn()); err != nil {
		return err
	}
	s.frame++
	return nil
}

// Snapshot returns the renderable particles of the current frame.
func (s *Scene) Snapshot() []field.Sample {
	return s.field.Snapshot()
}

// Stats returns the current frame summary.
func (s *Scene) Stats() Stats {
	return Stats{
		Frame:    s.frame,
		Item:     s.seq.Index(),
		ItemName: s.seq.Item().Name,
		Entries:  s.entries,
		State:    s.seq.State(),
		Opacity:  s.seq.Opacity(),
		Field:    s.field.Stats(),
	}
}

// Skip cuts the current item short.
func (s *Scene) Skip() { s.seq.Skip() }

// Sequencer exposes the reveal state machine.
func (s *Scene) Sequencer() *reveal.Sequencer { return s.seq }

// Field exposes the particle pool.
func (s *Scene) Field() *field.Field { return s.field }

// Config returns the scene configuration.
func (s *Scene) Config() *config.Scene { return s.cfg }

// Close stops the sequence and releases the particle buffers.
func (s *Scene) Close() {
	s.seq.Stop()
	s.field.Release()
}
