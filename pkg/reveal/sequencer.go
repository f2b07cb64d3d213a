// Package reveal drives the opacity of a sequence of reveal items through
// fade-in, hold and fade-out, and tells the particle field when it may spawn.
package reveal

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/gonewx/shimmer/pkg/types"
)

var (
	// ErrNoItems is returned by New for an empty item list.
	ErrNoItems = errors.New("reveal: sequence has no items")
	// ErrInvalidDelta is returned by Advance for a negative or non-finite frame delta.
	ErrInvalidDelta = errors.New("reveal: delta time must be finite and non-negative")
)

// DefaultSpawnThreshold is the opacity above which particles may spawn.
const DefaultSpawnThreshold = 0.1

// maxTransitionsPerAdvance bounds how many states a single Advance may pass
// through: one full cycle. An item whose durations are all zero would
// otherwise cycle forever within one frame.
const maxTransitionsPerAdvance = 4

// timeEpsilon absorbs rounding in accumulated frame deltas: 60 steps of 1/60
// sum to slightly less than 1.
const timeEpsilon = 1e-9

// State is the phase of the current reveal item.
type State int

const (
	// Idle 未激活，opacity=0，等待 Activate
	Idle State = iota
	// FadingIn 淡入，opacity 从 0 升到 1
	FadingIn
	// Visible 保持，opacity=1
	Visible
	// FadingOut 淡出，opacity 从 1 降到 0
	FadingOut
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case FadingIn:
		return "FadingIn"
	case Visible:
		return "Visible"
	case FadingOut:
		return "FadingOut"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Item is one unit of revealed content with its own timing and color.
// Exactly one of Text, Image or Cloud describes the content; the source
// builder turns it into spawn points.
type Item struct {
	Name string

	// Durations in seconds. A duration <= 0 skips its state instantly.
	FadeIn  float64
	Hold    float64
	FadeOut float64

	Color  types.RGB
	Easing string // applied to both fades, linear when empty

	Text  string // text block rendered into glyph points
	Image string // image path sampled pixel by pixel
	Cloud int    // random point cloud size
}

// CycleDuration is the time one full fade-in/hold/fade-out takes.
func (it Item) CycleDuration() float64 {
	return math.Max(0, it.FadeIn) + math.Max(0, it.Hold) + math.Max(0, it.FadeOut)
}

// ItemChangeFunc is called whenever an item (re)enters FadingIn.
type ItemChangeFunc func(index int, item Item)

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithLoop makes a single-item sequence restart instead of returning to Idle.
// Multi-item sequences always wrap from the last item to the first.
func WithLoop(loop bool) Option {
	return func(s *Sequencer) { s.loop = loop }
}

// WithSpawnThreshold sets the opacity above which MaySpawn reports true.
func WithSpawnThreshold(threshold float64) Option {
	return func(s *Sequencer) { s.threshold = threshold }
}

// WithItemChange registers the hook fired on every item entry.
func WithItemChange(fn ItemChangeFunc) Option {
	return func(s *Sequencer) { s.onItemChange = fn }
}

// WithLogger sets the logger used for state transitions.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Sequencer) { s.logger = l.With().Str("component", "reveal").Logger() }
}

// Sequencer is the fade state machine. It is not safe for concurrent use; the
// frame driver owns it and calls Advance once per frame.
type Sequencer struct {
	items   []Item
	easings []EasingFunc

	index   int
	state   State
	timer   float64
	opacity float64

	loop         bool
	threshold    float64
	onItemChange ItemChangeFunc
	logger       zerolog.Logger
}

// New creates an Idle sequencer positioned at the first item.
func New(items []Item, opts ...Option) (*Sequencer, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	s := &Sequencer{
		items:     append([]Item(nil), items...),
		easings:   make([]EasingFunc, len(items)),
		threshold: DefaultSpawnThreshold,
		logger:    zerolog.Nop(),
	}
	for i, it := range s.items {
		for _, d := range []float64{it.FadeIn, it.Hold, it.FadeOut} {
			if math.IsNaN(d) || math.IsInf(d, 0) {
				return nil, fmt.Errorf("reveal: item %d (%s): duration must be finite", i, it.Name)
			}
		}
		fn, err := LookupEasing(it.Easing)
		if err != nil {
			return nil, fmt.Errorf("reveal: item %d (%s): %w", i, it.Name, err)
		}
		s.easings[i] = fn
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Activate starts the current item's fade-in. It is a no-op unless Idle.
func (s *Sequencer) Activate() {
	if s.state != Idle {
		return
	}
	s.enterItem(s.index)
}

// Advance moves the state machine forward by dt seconds.
func (s *Sequencer) Advance(dt float64) error {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return ErrInvalidDelta
	}
	if s.state == Idle {
		return nil
	}

	s.timer += dt
	for i := 0; i < maxTransitionsPerAdvance; i++ {
		if d := s.stateDuration(); d > 0 && s.timer+timeEpsilon < d {
			break
		}
		s.transition()
		if s.state == Idle {
			break
		}
	}
	s.opacity = s.computeOpacity()
	return nil
}

// Skip cuts the current phase short: FadingIn/Visible jump to FadingOut,
// FadingOut jumps to the next item.
func (s *Sequencer) Skip() {
	switch s.state {
	case FadingIn, Visible:
		s.enter(FadingOut)
	case FadingOut:
		s.transition()
	}
	s.opacity = s.computeOpacity()
}

// Stop returns to Idle on the current item.
func (s *Sequencer) Stop() {
	s.enter(Idle)
}

// State returns the current phase.
func (s *Sequencer) State() State { return s.state }

// Opacity returns the reveal opacity in [0, 1].
func (s *Sequencer) Opacity() float64 { return s.opacity }

// Timer returns seconds spent in the current state.
func (s *Sequencer) Timer() float64 { return s.timer }

// Index returns the current item index.
func (s *Sequencer) Index() int { return s.index }

// Item returns the current item.
func (s *Sequencer) Item() Item { return s.items[s.index] }

// Len returns the number of items.
func (s *Sequencer) Len() int { return len(s.items) }

// MaySpawn reports whether the particle field may spawn this frame.
func (s *Sequencer) MaySpawn() bool { return s.opacity > s.threshold }

func (s *Sequencer) stateDuration() float64 {
	it := s.items[s.index]
	switch s.state {
	case FadingIn:
		return it.FadeIn
	case Visible:
		return it.Hold
	case FadingOut:
		return it.FadeOut
	default:
		return 0
	}
}

func (s *Sequencer) transition() {
	switch s.state {
	case FadingIn:
		s.enter(Visible)
	case Visible:
		s.enter(FadingOut)
	case FadingOut:
		switch {
		case len(s.items) > 1:
			s.enterItem((s.index + 1) % len(s.items))
		case s.loop:
			s.enterItem(s.index)
		default:
			s.enter(Idle)
		}
	}
}

func (s *Sequencer) enter(state State) {
	from := s.state
	s.state = state
	s.timer = 0
	s.opacity = s.computeOpacity()
	s.logger.Debug().
		Int("item", s.index).
		Stringer("from", from).
		Stringer("to", state).
		Msg("reveal transition")
}

// enterItem switches to item i and starts its fade-in.
func (s *Sequencer) enterItem(i int) {
	s.index = i
	s.enter(FadingIn)
	if s.onItemChange != nil {
		s.onItemChange(i, s.items[i])
	}
}

func (s *Sequencer) computeOpacity() float64 {
	it := s.items[s.index]
	ease := s.easings[s.index]
	switch s.state {
	case FadingIn:
		if it.FadeIn <= 0 {
			return 1
		}
		return clamp01(ease(clamp01(s.timer / it.FadeIn)))
	case Visible:
		return 1
	case FadingOut:
		if it.FadeOut <= 0 {
			return 0
		}
		return clamp01(1 - ease(clamp01(s.timer/it.FadeOut)))
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
