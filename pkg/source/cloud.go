package source

import (
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/gonewx/shimmer/pkg/types"
)

// DefaultCloudExtent is the edge length of the cube a cloud fills.
const DefaultCloudExtent = 10.0

// Cloud places n points uniformly in a cube of the given edge length centered
// on the origin, all with the same color.
func Cloud(n int, extent float64, c types.RGB, rng *rand.Rand) []types.SourcePoint {
	if n <= 0 {
		return nil
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	points := make([]types.SourcePoint, n)
	for i := range points {
		points[i] = types.SourcePoint{Position: randomInCube(rng, extent), Color: c}
	}
	return points
}

// RainbowCloud is Cloud with a random fully saturated hue per point.
func RainbowCloud(n int, extent float64, rng *rand.Rand) []types.SourcePoint {
	if n <= 0 {
		return nil
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	points := make([]types.SourcePoint, n)
	for i := range points {
		pos := randomInCube(rng, extent)
		hue := colorful.Hsv(rng.Float64()*360, 0.7, 1)
		points[i] = types.SourcePoint{Position: pos, Color: types.RGB{R: hue.R, G: hue.G, B: hue.B}}
	}
	return points
}

func randomInCube(rng *rand.Rand, extent float64) types.Vec3 {
	return types.Vec3{
		X: (rng.Float64() - 0.5) * extent,
		Y: (rng.Float64() - 0.5) * extent,
		Z: (rng.Float64() - 0.5) * extent,
	}
}
