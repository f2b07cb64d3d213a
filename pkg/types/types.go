// Package types 定义共享的基础类型
// 这个包不依赖任何其他业务包，field / reveal / source / render 都只依赖它
package types

import "math"

// Vec3 is a world-space position or velocity.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// RotateY rotates v around the Y axis by angle radians.
func (v Vec3) RotateY(angle float64) Vec3 {
	sin, cos := math.Sincos(angle)
	return Vec3{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}

// RGB is a color with channels in [0, 1].
type RGB struct {
	R, G, B float64
}

// White 默认颜色
var White = RGB{1, 1, 1}

// Bytes converts the color to 8-bit channels, clamping out-of-range values.
func (c RGB) Bytes() (r, g, b uint8) {
	return toByte(c.R), toByte(c.G), toByte(c.B)
}

func toByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// SourcePoint is an immutable spawn origin sampled from a glyph, image or point cloud.
type SourcePoint struct {
	Position Vec3
	Color    RGB
}
