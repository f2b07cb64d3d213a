// Package particle provides the value grammar shared by scene configuration:
// fixed values, random ranges and keyframe curves evaluated over a particle's
// normalized life.
package particle

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// ErrEmptyValue is returned when a required value string is blank.
var ErrEmptyValue = errors.New("empty value")

// Keyframe represents a single point of an animation curve.
type Keyframe struct {
	Time  float64 // Normalized time (0-1)
	Value float64 // Value at this keyframe
}

// Interpolation modes understood by EvaluateKeyframes.
const (
	InterpLinear        = "Linear"
	InterpEaseIn        = "EaseIn"
	InterpEaseOut       = "EaseOut"
	InterpFastInOutWeak = "FastInOutWeak"
)

var interpolationKeywords = []string{InterpLinear, InterpEaseIn, InterpEaseOut, InterpFastInOutWeak}

// ParseValue parses a value string from scene configuration.
// Supports:
//   - Fixed value: "1.5" → min=1.5, max=1.5
//   - Range: "[0.7 0.9]" → min=0.7, max=0.9
//   - Single bracket value: "[2]" → min=max=2
//   - Keyframes: "0,0.5 0.5,1 1,0.2" (time,value pairs, sorted by time)
//   - Keyframes with interpolation: "EaseOut 0,1 1,0"
//
// Malformed input returns an error instead of the silent zero fallback, since
// configuration is validated once at startup.
func ParseValue(s string) (min, max float64, keyframes []Keyframe, interpolation string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil, "", ErrEmptyValue
	}

	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return 0, 0, nil, "", fmt.Errorf("unterminated range %q", s)
		}
		parts := strings.Fields(strings.TrimSuffix(strings.TrimPrefix(s, "["), "]"))
		switch len(parts) {
		case 1:
			v, err := strconv.ParseFloat(parts[0], 64)
			if err != nil {
				return 0, 0, nil, "", fmt.Errorf("invalid value in %q: %w", s, err)
			}
			return v, v, nil, "", nil
		case 2:
			lo, err1 := strconv.ParseFloat(parts[0], 64)
			hi, err2 := strconv.ParseFloat(parts[1], 64)
			if err1 != nil || err2 != nil {
				return 0, 0, nil, "", fmt.Errorf("invalid range %q", s)
			}
			if lo > hi {
				lo, hi = hi, lo
			}
			return lo, hi, nil, "", nil
		default:
			return 0, 0, nil, "", fmt.Errorf("range %q must have one or two values", s)
		}
	}

	for _, keyword := range interpolationKeywords {
		if strings.Contains(s, keyword) {
			interpolation = keyword
			s = strings.TrimSpace(strings.ReplaceAll(s, keyword, ""))
			break
		}
	}

	if strings.Contains(s, ",") {
		parts := strings.Fields(s)
		keyframes = make([]Keyframe, 0, len(parts))
		for _, part := range parts {
			pair := strings.Split(part, ",")
			if len(pair) != 2 {
				return 0, 0, nil, "", fmt.Errorf("invalid keyframe %q", part)
			}
			tm, err1 := strconv.ParseFloat(pair[0], 64)
			val, err2 := strconv.ParseFloat(pair[1], 64)
			if err1 != nil || err2 != nil {
				return 0, 0, nil, "", fmt.Errorf("invalid keyframe %q", part)
			}
			keyframes = append(keyframes, Keyframe{Time: tm, Value: val})
		}
		sort.SliceStable(keyframes, func(i, j int) bool { return keyframes[i].Time < keyframes[j].Time })
		return 0, 0, keyframes, interpolation, nil
	}

	if interpolation != "" {
		return 0, 0, nil, "", fmt.Errorf("interpolation %q without keyframes", interpolation)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, 0, nil, "", fmt.Errorf("invalid value %q: %w", s, err)
	}
	return v, v, nil, "", nil
}

// ParseRange parses a fixed value or "[min max]" range. Keyframe input is rejected.
func ParseRange(s string) (min, max float64, err error) {
	min, max, keyframes, _, err := ParseValue(s)
	if err != nil {
		return 0, 0, err
	}
	if keyframes != nil {
		return 0, 0, fmt.Errorf("expected a value or range, got keyframes %q", s)
	}
	return min, max, nil
}

// ParseCurve parses a keyframe curve. A fixed value becomes a single constant keyframe.
func ParseCurve(s string) ([]Keyframe, string, error) {
	min, max, keyframes, interp, err := ParseValue(s)
	if err != nil {
		return nil, "", err
	}
	if keyframes == nil {
		if min != max {
			return nil, "", fmt.Errorf("expected a curve, got range %q", s)
		}
		keyframes = []Keyframe{{Time: 0, Value: min}}
	}
	return keyframes, interp, nil
}

// EvaluateKeyframes calculates the interpolated value at normalized time t
// using the provided keyframes (sorted by Time) and interpolation mode.
// An empty curve evaluates to 1 so it can be used as a neutral multiplier.
func EvaluateKeyframes(keyframes []Keyframe, t float64, interpolation string) float64 {
	if len(keyframes) == 0 {
		return 1
	}
	if len(keyframes) == 1 {
		return keyframes[0].Value
	}

	t = math.Max(0, math.Min(1, t))

	if t < keyframes[0].Time {
		return keyframes[0].Value
	}

	for i := 0; i < len(keyframes)-1; i++ {
		k0 := keyframes[i]
		k1 := keyframes[i+1]

		if t >= k0.Time && t <= k1.Time {
			duration := k1.Time - k0.Time
			if duration <= 0 {
				return k0.Value
			}
			ratio := (t - k0.Time) / duration

			switch interpolation {
			case InterpEaseIn:
				ratio = ratio * ratio
			case InterpEaseOut:
				ratio = 1 - (1-ratio)*(1-ratio)
			case InterpFastInOutWeak:
				ratio = ratio * ratio * (3 - 2*ratio)
			}
			return k0.Value + ratio*(k1.Value-k0.Value)
		}
	}

	return keyframes[len(keyframes)-1].Value
}

// RandomInRange returns a random float64 in [min, max] drawn from rng.
// A nil rng uses the package-level source.
func RandomInRange(rng *rand.Rand, min, max float64) float64 {
	if min >= max {
		return min
	}
	if rng == nil {
		return min + rand.Float64()*(max-min)
	}
	return min + rng.Float64()*(max-min)
}
