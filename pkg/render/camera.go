// Package render holds the projection shared by the ebiten, terminal and
// stream front ends. Renderers only read field samples; they never touch the
// particle pool.
package render

import (
	"math"

	"github.com/gonewx/shimmer/pkg/field"
	"github.com/gonewx/shimmer/pkg/types"
)

// 默认相机参数：75° 垂直视角，位于 z=5 看向原点
const (
	DefaultFOV      = 75.0
	DefaultDistance = 5.0
	DefaultNear     = 0.1
)

// Camera is a perspective camera on the +Z axis looking at the origin.
// The scene can spin around the Y axis.
type Camera struct {
	FOV      float64 // vertical field of view, degrees
	Distance float64 // camera z
	Near     float64 // points closer than this are culled

	Rotation      float64 // current Y rotation, radians
	RotationSpeed float64 // radians per second
}

// DefaultCamera returns a still camera with the default parameters.
func DefaultCamera() *Camera {
	return &Camera{FOV: DefaultFOV, Distance: DefaultDistance, Near: DefaultNear}
}

// Advance spins the scene by RotationSpeed*dt.
func (c *Camera) Advance(dt float64) {
	c.Rotation = math.Mod(c.Rotation+c.RotationSpeed*dt, 2*math.Pi)
}

// focal returns the focal length in pixels for a viewport height.
func (c *Camera) focal(height int) float64 {
	return float64(height) / 2 / math.Tan(c.FOV*math.Pi/360)
}

// Project maps a world point onto a width×height viewport. scale is the
// number of pixels one world unit spans at that depth. ok is false for points
// behind the near plane.
func (c *Camera) Project(p types.Vec3, width, height int) (x, y, scale float64, ok bool) {
	if c.Rotation != 0 {
		p = p.RotateY(c.Rotation)
	}
	depth := c.Distance - p.Z
	if depth <= c.Near {
		return 0, 0, 0, false
	}
	scale = c.focal(height) / depth
	x = float64(width)/2 + p.X*scale
	y = float64(height)/2 - p.Y*scale
	return x, y, scale, true
}

// Point is a projected sample in screen space.
type Point struct {
	X, Y    float64
	Radius  float64 // pixels
	Depth   float64
	Color   types.RGB
	Opacity float64
}

// ProjectSamples projects samples in order, dropping invisible ones: fully
// transparent, behind the camera or entirely off screen. pointScale multiplies
// the particle size; radii never drop below half a pixel.
func (c *Camera) ProjectSamples(samples []field.Sample, width, height int, pointScale float64) []Point {
	out := make([]Point, 0, len(samples))
	for _, s := range samples {
		if s.Opacity <= 0 {
			continue
		}
		x, y, scale, ok := c.Project(s.Position, width, height)
		if !ok {
			continue
		}
		r := math.Max(0.5, s.Size*pointScale*scale/2)
		if x+r < 0 || y+r < 0 || x-r > float64(width) || y-r > float64(height) {
			continue
		}
		out = append(out, Point{
			X:       x,
			Y:       y,
			Radius:  r,
			Depth:   c.Distance - s.Position.Z,
			Color:   s.Color,
			Opacity: math.Min(1, s.Opacity),
		})
	}
	return out
}
