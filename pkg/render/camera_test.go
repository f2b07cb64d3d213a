package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonewx/shimmer/pkg/field"
	"github.com/gonewx/shimmer/pkg/types"
)

func TestProjectOriginToCenter(t *testing.T) {
	cam := DefaultCamera()
	x, y, _, ok := cam.Project(types.Vec3{}, 800, 600)
	require.True(t, ok)
	assert.InDelta(t, 400, x, 1e-9)
	assert.InDelta(t, 300, y, 1e-9)
}

func TestProjectAxes(t *testing.T) {
	cam := DefaultCamera()

	x, _, _, ok := cam.Project(types.Vec3{X: 1}, 800, 600)
	require.True(t, ok)
	assert.Greater(t, x, 400.0, "+X is right")

	_, y, _, ok := cam.Project(types.Vec3{Y: 1}, 800, 600)
	require.True(t, ok)
	assert.Less(t, y, 300.0, "+Y is up")

	_, _, near, _ := cam.Project(types.Vec3{Z: 2}, 800, 600)
	_, _, far, _ := cam.Project(types.Vec3{Z: -2}, 800, 600)
	assert.Greater(t, near, far)
}

func TestProjectFieldOfView(t *testing.T) {
	cam := DefaultCamera()
	// 视锥上边缘：y = distance * tan(fov/2)
	top := cam.Distance * math.Tan(cam.FOV*math.Pi/360)
	_, y, _, ok := cam.Project(types.Vec3{Y: top}, 800, 600)
	require.True(t, ok)
	assert.InDelta(t, 0, y, 1e-6)
}

func TestProjectBehindCamera(t *testing.T) {
	cam := DefaultCamera()
	_, _, _, ok := cam.Project(types.Vec3{Z: 5}, 800, 600)
	assert.False(t, ok)
	_, _, _, ok = cam.Project(types.Vec3{Z: 10}, 800, 600)
	assert.False(t, ok)
}

func TestRotation(t *testing.T) {
	cam := DefaultCamera()
	cam.RotationSpeed = math.Pi / 2
	cam.Advance(1)
	assert.InDelta(t, math.Pi/2, cam.Rotation, 1e-9)

	// 旋转 90° 后 +X 上的点转到视线方向上
	x, _, _, ok := cam.Project(types.Vec3{X: 1}, 800, 600)
	require.True(t, ok)
	assert.InDelta(t, 400, x, 1e-9)
}

func TestProjectSamplesFilters(t *testing.T) {
	cam := DefaultCamera()
	samples := []field.Sample{
		{Position: types.Vec3{}, Color: types.White, Opacity: 0.5, Size: 0.05},
		{Position: types.Vec3{}, Opacity: 0},                   // transparent
		{Position: types.Vec3{Z: 6}, Opacity: 1},               // behind
		{Position: types.Vec3{X: 100}, Opacity: 1, Size: 0.05}, // off screen
		{Position: types.Vec3{Y: 1}, Color: types.RGB{R: 1}, Opacity: 2, Size: 0},
	}

	points := cam.ProjectSamples(samples, 800, 600, 1)
	require.Len(t, points, 2)
	assert.Equal(t, 0.5, points[0].Opacity)
	assert.Equal(t, types.White, points[0].Color)
	assert.Equal(t, 5.0, points[0].Depth)
	assert.Equal(t, 1.0, points[1].Opacity, "opacity is clamped")
	assert.Equal(t, 0.5, points[1].Radius, "radius floor")
}
