// Package term renders particle samples as colored glyphs on a terminal grid.
package term

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/gonewx/shimmer/pkg/field"
	"github.com/gonewx/shimmer/pkg/render"
)

// Canvas is the subset of tcell.Screen the renderer writes to.
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (width, height int)
}

// ramp 按亮度从低到高排列的字符
var ramp = []rune{'.', ':', '+', '*', '#', '@'}

// Glyph picks a character for an accumulated cell intensity. Zero or less is blank.
func Glyph(intensity float64) rune {
	if intensity <= 0 {
		return ' '
	}
	i := int(intensity * float64(len(ramp)))
	return ramp[min(i, len(ramp)-1)]
}

type cell struct {
	r, g, b float64 // opacity-weighted color sums
	a       float64 // summed opacity
}

// Renderer projects samples onto the cell grid. Terminal cells are roughly
// twice as tall as wide, so the projection uses two virtual rows per cell.
type Renderer struct {
	Camera     *render.Camera
	Background tcell.Style

	cells []cell
}

// New creates a renderer. A nil camera uses render.DefaultCamera.
func New(camera *render.Camera) *Renderer {
	if camera == nil {
		camera = render.DefaultCamera()
	}
	return &Renderer{Camera: camera, Background: tcell.StyleDefault.Background(tcell.ColorBlack)}
}

// Draw writes every cell of the canvas: blank cells get the background style,
// lit cells a glyph colored by the blend of the particles that landed in them.
func (r *Renderer) Draw(c Canvas, samples []field.Sample) {
	w, h := c.Size()
	if w <= 0 || h <= 0 {
		return
	}
	if cap(r.cells) < w*h {
		r.cells = make([]cell, w*h)
	}
	r.cells = r.cells[:w*h]
	clear(r.cells)

	for _, p := range r.Camera.ProjectSamples(samples, w, h*2, 1) {
		x, y := int(p.X), int(p.Y/2)
		if x < 0 || y < 0 || x >= w || y >= h {
			continue
		}
		cl := &r.cells[y*w+x]
		cl.r += p.Color.R * p.Opacity
		cl.g += p.Color.G * p.Opacity
		cl.b += p.Color.B * p.Opacity
		cl.a += p.Opacity
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cl := r.cells[y*w+x]
			if cl.a <= 0 {
				c.SetContent(x, y, ' ', nil, r.Background)
				continue
			}
			c.SetContent(x, y, Glyph(cl.a), nil, r.Background.Foreground(cellColor(cl)))
		}
	}
}

// cellColor averages the particle colors and dims the result for faint cells.
func cellColor(cl cell) tcell.Color {
	k := math.Min(1, cl.a) / cl.a
	to8 := func(v float64) int32 {
		return int32(math.Max(0, math.Min(255, v*k*255+0.5)))
	}
	return tcell.NewRGBColor(to8(cl.r), to8(cl.g), to8(cl.b))
}
