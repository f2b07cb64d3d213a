package particle

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseValue_FixedAndRange tests fixed values and [min max] ranges
func TestParseValue_FixedAndRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMin float64
		wantMax float64
	}{
		{"Integer", "1500", 1500, 1500},
		{"Float", "3.14", 3.14, 3.14},
		{"Negative", "-10.5", -10.5, -10.5},
		{"Float range", "[0.7 0.9]", 0.7, 0.9},
		{"Negative range", "[-5 -2]", -5, -2},
		{"Reversed range", "[3 1]", 1, 3},
		{"Single bracket", "[2]", 2, 2},
		{"Padded", "  [1  3]  ", 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max, keyframes, interp, err := ParseValue(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMin, min)
			assert.Equal(t, tt.wantMax, max)
			assert.Nil(t, keyframes)
			assert.Empty(t, interp)
		})
	}
}

// TestParseValue_Keyframes tests time,value pairs and interpolation keywords
func TestParseValue_Keyframes(t *testing.T) {
	_, _, keyframes, interp, err := ParseValue("1,0.2 0,0.5 0.5,1")
	require.NoError(t, err)
	assert.Empty(t, interp)
	assert.Equal(t, []Keyframe{{0, 0.5}, {0.5, 1}, {1, 0.2}}, keyframes, "keyframes are sorted by time")

	_, _, keyframes, interp, err = ParseValue("EaseOut 0,1 1,0")
	require.NoError(t, err)
	assert.Equal(t, InterpEaseOut, interp)
	assert.Len(t, keyframes, 2)
}

// TestParseValue_Errors tests that malformed configuration is reported
func TestParseValue_Errors(t *testing.T) {
	for _, input := range []string{"", "abc", "[1 2", "[1 2 3]", "[a b]", "0,1 x,2", "0,1,2", "Linear"} {
		t.Run(input, func(t *testing.T) {
			_, _, _, _, err := ParseValue(input)
			assert.Error(t, err)
		})
	}

	_, _, _, _, err := ParseValue("")
	assert.ErrorIs(t, err, ErrEmptyValue)
}

func TestParseRangeRejectsCurves(t *testing.T) {
	_, _, err := ParseRange("0,1 1,0")
	assert.Error(t, err)

	min, max, err := ParseRange("[1 3]")
	require.NoError(t, err)
	assert.Equal(t, 1.0, min)
	assert.Equal(t, 3.0, max)
}

func TestParseCurve(t *testing.T) {
	kf, _, err := ParseCurve("0.8")
	require.NoError(t, err)
	assert.Equal(t, []Keyframe{{0, 0.8}}, kf)

	_, _, err = ParseCurve("[1 2]")
	assert.Error(t, err)
}

// TestEvaluateKeyframes tests interpolation over normalized time
func TestEvaluateKeyframes(t *testing.T) {
	curve := []Keyframe{{0, 0}, {0.5, 1}, {1, 0}}

	tests := []struct {
		name   string
		t      float64
		interp string
		want   float64
	}{
		{"Start", 0, "", 0},
		{"Quarter linear", 0.25, InterpLinear, 0.5},
		{"Peak", 0.5, "", 1},
		{"End", 1, "", 0},
		{"Clamp below", -1, "", 0},
		{"Clamp above", 2, "", 0},
		{"Quarter ease in", 0.25, InterpEaseIn, 0.25},
		{"Quarter ease out", 0.25, InterpEaseOut, 0.75},
		{"Quarter smoothstep", 0.25, InterpFastInOutWeak, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EvaluateKeyframes(curve, tt.t, tt.interp), 1e-9)
		})
	}

	assert.Equal(t, 1.0, EvaluateKeyframes(nil, 0.3, ""), "empty curve is a neutral multiplier")
	assert.Equal(t, 0.4, EvaluateKeyframes([]Keyframe{{0, 0.4}}, 0.9, ""))
	assert.Equal(t, 2.0, EvaluateKeyframes([]Keyframe{{0.2, 2}, {1, 3}}, 0.1, ""))
}

func TestRandomInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		v := RandomInRange(rng, -2, 3)
		assert.GreaterOrEqual(t, v, -2.0)
		assert.LessOrEqual(t, v, 3.0)
	}
	assert.Equal(t, 5.0, RandomInRange(rng, 5, 5))
	assert.Equal(t, 5.0, RandomInRange(nil, 5, 1))
}
