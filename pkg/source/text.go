// Package source builds spawn points for reveal items: glyph points from text,
// pixel points from images and random point clouds.
//
// These are the geometry collaborators of the particle field. The field only
// ever sees the resulting []types.SourcePoint.
package source

import (
	"image"
	"math/rand"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gonewx/shimmer/pkg/types"
)

// TextOptions controls glyph rasterization and sampling.
type TextOptions struct {
	Face  font.Face // defaults to the 7x13 bitmap face
	Step  int       // sample every Step pixels (default 1)
	Scale float64   // world units per pixel (default 0.05)
	Depth float64   // z jitter range, centered on 0
	Color types.RGB
	Rng   *rand.Rand // drives depth jitter; no jitter when nil

	// AlphaThreshold is the minimum coverage (0-255) for a pixel to count as lit.
	AlphaThreshold uint8
}

func (o TextOptions) withDefaults() TextOptions {
	if o.Face == nil {
		o.Face = basicfont.Face7x13
	}
	if o.Step <= 0 {
		o.Step = 1
	}
	if o.Scale <= 0 {
		o.Scale = 0.05
	}
	if o.AlphaThreshold == 0 {
		o.AlphaThreshold = 128
	}
	return o
}

// RasterizeText draws text (newline separated lines) into an alpha mask.
// Lines are left aligned; the mask is sized to the widest line.
func RasterizeText(text string, face font.Face) *image.Alpha {
	if face == nil {
		face = basicfont.Face7x13
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	width := 0
	for _, line := range lines {
		width = max(width, font.MeasureString(face, line).Ceil())
	}
	if width == 0 || lineHeight == 0 {
		return image.NewAlpha(image.Rect(0, 0, 0, 0))
	}

	mask := image.NewAlpha(image.Rect(0, 0, width, lineHeight*len(lines)))
	d := &font.Drawer{Dst: mask, Src: image.Opaque, Face: face}
	for i, line := range lines {
		d.Dot = fixed.P(0, i*lineHeight+ascent)
		d.DrawString(line)
	}
	return mask
}

// Text samples the lit pixels of the rendered text into source points centered
// on the origin, +Y up. Empty or whitespace-only text yields no points.
func Text(text string, opts TextOptions) []types.SourcePoint {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	opts = opts.withDefaults()
	mask := RasterizeText(text, opts.Face)
	b := mask.Bounds()

	cx := float64(b.Min.X+b.Max.X) / 2
	cy := float64(b.Min.Y+b.Max.Y) / 2

	var points []types.SourcePoint
	for y := b.Min.Y; y < b.Max.Y; y += opts.Step {
		for x := b.Min.X; x < b.Max.X; x += opts.Step {
			if mask.AlphaAt(x, y).A < opts.AlphaThreshold {
				continue
			}
			points = append(points, types.SourcePoint{
				Position: types.Vec3{
					X: (float64(x) + 0.5 - cx) * opts.Scale,
					Y: (cy - float64(y) - 0.5) * opts.Scale,
					Z: depthJitter(opts.Rng, opts.Depth),
				},
				Color: opts.Color,
			})
		}
	}
	return points
}

func depthJitter(rng *rand.Rand, depth float64) float64 {
	if depth <= 0 || rng == nil {
		return 0
	}
	return (rng.Float64() - 0.5) * depth
}
