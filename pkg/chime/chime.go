// Package chime plays a short tone whenever a new reveal item fades in.
package chime

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog"
)

const (
	sampleRate = beep.SampleRate(44100)
	toneLength = 180 * time.Millisecond
	gain       = 0.3
	baseFreq   = 440.0
)

// pentatonic 五声音阶（相对 A4 的半音数）
var pentatonic = []int{0, 2, 4, 7, 9, 12}

// ItemFreq returns the tone frequency for an item index, walking up a
// pentatonic scale and wrapping.
func ItemFreq(index int) float64 {
	if index < 0 {
		index = -index
	}
	step := pentatonic[index%len(pentatonic)]
	return baseFreq * math.Pow(2, float64(step)/12)
}

// Tone is a sine at freq that fades linearly to silence over d.
func Tone(sr beep.SampleRate, freq float64, d time.Duration) (beep.Streamer, error) {
	sine, err := generators.SineTone(sr, freq)
	if err != nil {
		return nil, err
	}
	total := sr.N(d)
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		k := min(len(samples), total-pos)
		n, ok := sine.Stream(samples[:k])
		for i := 0; i < n; i++ {
			g := gain * (1 - float64(pos+i)/float64(total))
			samples[i][0] *= g
			samples[i][1] *= g
		}
		pos += n
		return n, ok && n > 0
	}), nil
}

// Player owns the speaker. A player whose speaker failed to open stays
// silent; the viewer keeps running without sound.
type Player struct {
	ready  bool
	logger zerolog.Logger
}

// New initializes the speaker.
func New(logger zerolog.Logger) *Player {
	p := &Player{logger: logger.With().Str("component", "chime").Logger()}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		p.logger.Warn().Err(err).Msg("audio initialization failed, chime disabled")
		return p
	}
	p.ready = true
	return p
}

// Ready reports whether the speaker is open.
func (p *Player) Ready() bool { return p != nil && p.ready }

// PlayItem plays the tone for item index. It never blocks.
func (p *Player) PlayItem(index int) {
	if !p.Ready() {
		return
	}
	tone, err := Tone(sampleRate, ItemFreq(index), toneLength)
	if err != nil {
		p.logger.Debug().Err(err).Msg("tone")
		return
	}
	speaker.Play(tone)
}

// Close releases the speaker.
func (p *Player) Close() {
	if p.Ready() {
		speaker.Close()
		p.ready = false
	}
}
