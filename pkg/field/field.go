// Package field implements the particle pool that sparks off a reveal item's
// source points.
//
// A Field is driven by exactly one Tick per animation frame. Each tick runs
// four phases in a fixed order:
//  1. Expire    - drop particles whose life ran out during the previous tick
//  2. Spawn     - draw new particles from the source set (gated, capacity bound)
//  3. Advect    - age += dt, position += velocity*dt
//  4. Recompute - opacity/size from age/lifetime
//
// Reordering the phases changes what is visible (spawning before expiring
// would hit the capacity bound one frame early), so the order is part of the
// contract.
package field

import (
	"errors"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/gonewx/shimmer/internal/particle"
	"github.com/gonewx/shimmer/pkg/types"
)

// ErrInvalidDelta is returned by Tick for a negative or non-finite frame delta.
var ErrInvalidDelta = errors.New("field: delta time must be finite and non-negative")

// Default tuning, taken from the text shimmer scenes.
const (
	DefaultMaxParticles     = 5000
	DefaultSpawnRatePerTick = 20
	DefaultLifetimeMin      = 1.0
	DefaultLifetimeMax      = 3.0
	DefaultBaseSize         = 0.05
)

// Config holds the spawn parameters of a Field.
type Config struct {
	MaxParticles     int
	SpawnRatePerTick int

	// Velocity is drawn uniformly per axis from [VelocityMin, VelocityMax].
	// The Y range is asymmetric by default so sparks drift upward.
	VelocityMin types.Vec3
	VelocityMax types.Vec3

	// Lifetime in seconds, drawn uniformly from [LifetimeMin, LifetimeMax].
	LifetimeMin float64
	LifetimeMax float64

	// BaseSize is multiplied by SizeCurve evaluated at age/lifetime.
	// An empty curve keeps the size constant.
	BaseSize   float64
	SizeCurve  []particle.Keyframe
	SizeInterp string
}

// DefaultConfig returns the tuning used when a scene leaves the field section empty.
func DefaultConfig() Config {
	return Config{
		MaxParticles:     DefaultMaxParticles,
		SpawnRatePerTick: DefaultSpawnRatePerTick,
		VelocityMin:      types.Vec3{X: -0.3, Y: -0.1, Z: -0.3},
		VelocityMax:      types.Vec3{X: 0.3, Y: 0.6, Z: 0.3},
		LifetimeMin:      DefaultLifetimeMin,
		LifetimeMax:      DefaultLifetimeMax,
		BaseSize:         DefaultBaseSize,
	}
}

// Particle is one pooled spark.
type Particle struct {
	Position types.Vec3
	Velocity types.Vec3
	Color    types.RGB // copied from the source point at spawn, never mutated

	Age      float64 // seconds alive, always within [0, Lifetime]
	Lifetime float64 // seconds to live

	Opacity float64 // derived from Age/Lifetime every tick
	Size    float64

	// spent is set when integration reached the end of life; the particle is
	// hidden from snapshots and removed by the next Expire phase.
	spent bool
}

// Sample is the renderer-facing view of one alive particle.
type Sample struct {
	Position types.Vec3
	Color    types.RGB
	Opacity  float64
	Size     float64
}

// Stats counts pool activity since the last Configure.
type Stats struct {
	Alive   int
	Spawned int
	Expired int
	Ticks   int
}

// Option configures a Field.
type Option func(*Field)

// WithLogger sets the logger used for configuration events.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Field) { f.logger = l.With().Str("component", "field").Logger() }
}

// Field owns a bounded particle pool and a read-only copy of its source points.
type Field struct {
	cfg    Config
	rng    *rand.Rand
	logger zerolog.Logger

	sources   []types.SourcePoint
	particles []Particle

	globalOpacity float64
	stats         Stats
}

// New creates an empty Field. A nil rng gets a time-independent fixed seed so
// runs are reproducible unless the caller supplies its own source.
func New(cfg Config, rng *rand.Rand, opts ...Option) *Field {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if cfg.LifetimeMax < cfg.LifetimeMin {
		cfg.LifetimeMin, cfg.LifetimeMax = cfg.LifetimeMax, cfg.LifetimeMin
	}
	f := &Field{
		cfg:           cfg,
		rng:           rng,
		logger:        zerolog.Nop(),
		globalOpacity: 1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Configure replaces the source set and resets the pool to empty.
// An empty source set, or non-positive bounds, leave a field that never emits.
func (f *Field) Configure(points []types.SourcePoint, maxParticles, spawnRatePerTick int) {
	f.sources = append(f.sources[:0:0], points...)
	f.cfg.MaxParticles = max(0, maxParticles)
	f.cfg.SpawnRatePerTick = max(0, spawnRatePerTick)

	capacity := f.cfg.MaxParticles
	if len(f.sources) == 0 {
		capacity = 0
	}
	f.particles = make([]Particle, 0, capacity)
	f.stats = Stats{}

	if len(f.sources) == 0 {
		f.logger.Debug().Msg("configured with no source points; field is idle")
		return
	}
	f.logger.Debug().
		Int("sources", len(f.sources)).
		Int("max_particles", f.cfg.MaxParticles).
		Int("spawn_rate", f.cfg.SpawnRatePerTick).
		Msg("field configured")
}

// Tick advances the pool by one frame. It must be called exactly once per frame.
func (f *Field) Tick(dt float64, spawnGate bool) error {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return ErrInvalidDelta
	}

	f.expire()
	if spawnGate {
		f.spawn()
	}
	f.advect(dt)
	f.recompute()

	f.stats.Ticks++
	f.stats.Alive = len(f.particles)
	return nil
}

// expire removes spent particles in place, preserving pool order.
func (f *Field) expire() {
	alive := f.particles[:0]
	for _, p := range f.particles {
		if p.spent || p.Age > p.Lifetime {
			f.stats.Expired++
			continue
		}
		alive = append(alive, p)
	}
	// 清空尾部，避免保留过期粒子
	clear(f.particles[len(alive):])
	f.particles = alive
}

func (f *Field) spawn() {
	if len(f.sources) == 0 {
		return
	}
	n := min(f.cfg.SpawnRatePerTick, f.cfg.MaxParticles-len(f.particles))
	for i := 0; i < n; i++ {
		src := f.sources[f.rng.Intn(len(f.sources))]
		f.particles = append(f.particles, Particle{
			Position: src.Position,
			Velocity: types.Vec3{
				X: particle.RandomInRange(f.rng, f.cfg.VelocityMin.X, f.cfg.VelocityMax.X),
				Y: particle.RandomInRange(f.rng, f.cfg.VelocityMin.Y, f.cfg.VelocityMax.Y),
				Z: particle.RandomInRange(f.rng, f.cfg.VelocityMin.Z, f.cfg.VelocityMax.Z),
			},
			Color:    src.Color,
			Lifetime: particle.RandomInRange(f.rng, f.cfg.LifetimeMin, f.cfg.LifetimeMax),
		})
	}
	if n > 0 {
		f.stats.Spawned += n
	}
}

func (f *Field) advect(dt float64) {
	for i := range f.particles {
		p := &f.particles[i]
		p.Age += dt
		if p.Age > p.Lifetime {
			p.Age = p.Lifetime
			p.spent = true
		}
		p.Position = p.Position.Add(p.Velocity.Scale(dt))
	}
}

func (f *Field) recompute() {
	for i := range f.particles {
		p := &f.particles[i]
		p.Opacity = Envelope(p.Age, p.Lifetime)
		t := 0.0
		if p.Lifetime > 0 {
			t = p.Age / p.Lifetime
		}
		p.Size = f.cfg.BaseSize * particle.EvaluateKeyframes(f.cfg.SizeCurve, t, f.cfg.SizeInterp)
	}
}

// Envelope returns sin(π·age/lifetime): zero at birth and death, one at mid-life.
func Envelope(age, lifetime float64) float64 {
	if lifetime <= 0 {
		return 0
	}
	t := age / lifetime
	if t <= 0 || t >= 1 {
		return 0
	}
	return math.Sin(math.Pi * t)
}

// SetGlobalOpacity sets the multiplier applied to every sample's opacity,
// usually the reveal opacity of the current frame.
func (f *Field) SetGlobalOpacity(v float64) {
	f.globalOpacity = math.Max(0, math.Min(1, v))
}

// Snapshot returns the alive particles in pool order. The slice is freshly
// allocated; renderers may keep it but mutating it does not affect the pool.
func (f *Field) Snapshot() []Sample {
	out := make([]Sample, 0, len(f.particles))
	for _, p := range f.particles {
		if p.spent {
			continue
		}
		out = append(out, Sample{
			Position: p.Position,
			Color:    p.Color,
			Opacity:  p.Opacity * f.globalOpacity,
			Size:     p.Size,
		})
	}
	return out
}

// Particles exposes a copy of the raw pool, including particles that finished
// their life this frame. Intended for diagnostics and tests.
func (f *Field) Particles() []Particle {
	return append([]Particle(nil), f.particles...)
}

// Len returns the number of pooled particles.
func (f *Field) Len() int { return len(f.particles) }

// Capacity returns the hard cap on pooled particles.
func (f *Field) Capacity() int { return f.cfg.MaxParticles }

// Sources returns the number of configured source points.
func (f *Field) Sources() int { return len(f.sources) }

// Config returns the active configuration.
func (f *Field) Config() Config { return f.cfg }

// Stats returns counters since the last Configure.
func (f *Field) Stats() Stats { return f.stats }

// Release drops the pool and source buffers. The field stays usable and
// emits nothing until the next Configure.
func (f *Field) Release() {
	f.particles = nil
	f.sources = nil
	f.stats.Alive = 0
}
