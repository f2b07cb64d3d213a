// Package ebitenrender draws particle samples onto an ebiten screen as soft
// round dots, batched into DrawTriangles calls.
package ebitenrender

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gonewx/shimmer/pkg/field"
	"github.com/gonewx/shimmer/pkg/render"
)

// dotSize 圆点贴图边长（像素）
const dotSize = 32

// maxQuadsPerBatch 单次 DrawTriangles 的四边形上限（uint16 索引）
const maxQuadsPerBatch = math.MaxUint16 / 4

// additiveBlend 加法混合（发光叠加）
var additiveBlend = ebiten.Blend{
	BlendFactorSourceRGB:        ebiten.BlendFactorOne,
	BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
	BlendOperationRGB:           ebiten.BlendOperationAdd,
	BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
	BlendFactorDestinationAlpha: ebiten.BlendFactorOne,
	BlendOperationAlpha:         ebiten.BlendOperationAdd,
}

// Renderer owns the dot texture and reusable vertex buffers.
type Renderer struct {
	Camera     *render.Camera
	Additive   bool
	PointScale float64

	dot      *ebiten.Image
	vertices []ebiten.Vertex
	indices  []uint16
}

// New creates a renderer. A nil camera uses render.DefaultCamera.
func New(camera *render.Camera) *Renderer {
	if camera == nil {
		camera = render.DefaultCamera()
	}
	return &Renderer{
		Camera:     camera,
		Additive:   true,
		PointScale: 1,
		dot:        ebiten.NewImageFromImage(DotImage(dotSize)),
	}
}

// DotImage builds a white disc whose alpha falls off quadratically to the edge.
func DotImage(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	c := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := (float64(x) + 0.5 - c) / c
			dy := (float64(y) + 0.5 - c) / c
			d := 1 - (dx*dx + dy*dy)
			if d <= 0 {
				continue
			}
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: uint8(d * d * 255)})
		}
	}
	return img
}

// Draw renders samples in pool order.
func (r *Renderer) Draw(screen *ebiten.Image, samples []field.Sample) {
	if r.dot == nil {
		return
	}
	b := screen.Bounds()
	points := r.Camera.ProjectSamples(samples, b.Dx(), b.Dy(), r.PointScale)

	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	if r.Additive {
		op.Blend = additiveBlend
	}

	for start := 0; start < len(points); start += maxQuadsPerBatch {
		end := min(start+maxQuadsPerBatch, len(points))
		r.vertices, r.indices = AppendQuads(r.vertices[:0], r.indices[:0], points[start:end], dotSize)
		screen.DrawTriangles(r.vertices, r.indices, r.dot, op)
	}
}

// AppendQuads appends one textured quad (4 vertices, 6 indices) per point.
// Vertex colors carry straight alpha.
func AppendQuads(vertices []ebiten.Vertex, indices []uint16, points []render.Point, texSize int) ([]ebiten.Vertex, []uint16) {
	ts := float32(texSize)
	for _, p := range points {
		base := uint16(len(vertices))
		x0, y0 := float32(p.X-p.Radius), float32(p.Y-p.Radius)
		x1, y1 := float32(p.X+p.Radius), float32(p.Y+p.Radius)
		cr, cg, cb := float32(p.Color.R), float32(p.Color.G), float32(p.Color.B)
		ca := float32(p.Opacity)

		// 左上、右上、左下、右下
		vertices = append(vertices,
			ebiten.Vertex{DstX: x0, DstY: y0, SrcX: 0, SrcY: 0, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca},
			ebiten.Vertex{DstX: x1, DstY: y0, SrcX: ts, SrcY: 0, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca},
			ebiten.Vertex{DstX: x0, DstY: y1, SrcX: 0, SrcY: ts, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca},
			ebiten.Vertex{DstX: x1, DstY: y1, SrcX: ts, SrcY: ts, ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca},
		)
		indices = append(indices,
			base+0, base+1, base+2,
			base+1, base+3, base+2,
		)
	}
	return vertices, indices
}

// Dispose frees the dot texture. The renderer draws nothing afterwards.
func (r *Renderer) Dispose() {
	if r.dot != nil {
		r.dot.Deallocate()
		r.dot = nil
	}
}
