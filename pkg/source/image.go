package source

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // 注册 GIF 解码器
	_ "image/jpeg" // 注册 JPEG 解码器
	_ "image/png"  // 注册 PNG 解码器
	"os"

	_ "golang.org/x/image/bmp"  // 注册 BMP 解码器
	_ "golang.org/x/image/webp" // 注册 WebP 解码器

	"github.com/gonewx/shimmer/pkg/types"
)

// ImageOptions controls pixel sampling.
type ImageOptions struct {
	Step  int     // sample every Step pixels (default 2)
	Scale float64 // world units per pixel (default 0.01)

	// Pixels below either threshold are treated as background.
	AlphaThreshold uint8   // default 128
	MinLuminance   float64 // 0-1, default 0.05 (drops black backdrops); negative keeps every pixel
}

func (o ImageOptions) withDefaults() ImageOptions {
	if o.Step <= 0 {
		o.Step = 2
	}
	if o.Scale <= 0 {
		o.Scale = 0.01
	}
	if o.AlphaThreshold == 0 {
		o.AlphaThreshold = 128
	}
	if o.MinLuminance == 0 {
		o.MinLuminance = 0.05
	}
	return o
}

// Image samples img every Step pixels into source points centered on the
// origin, +Y up, colored by the sampled pixel.
func Image(img image.Image, opts ImageOptions) []types.SourcePoint {
	if img == nil {
		return nil
	}
	opts = opts.withDefaults()
	b := img.Bounds()
	cx := float64(b.Min.X+b.Max.X) / 2
	cy := float64(b.Min.Y+b.Max.Y) / 2

	var points []types.SourcePoint
	for y := b.Min.Y; y < b.Max.Y; y += opts.Step {
		for x := b.Min.X; x < b.Max.X; x += opts.Step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A < opts.AlphaThreshold {
				continue
			}
			rgb := types.RGB{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
			if luminance(rgb) < opts.MinLuminance {
				continue
			}
			points = append(points, types.SourcePoint{
				Position: types.Vec3{
					X: (float64(x) + 0.5 - cx) * opts.Scale,
					Y: (cy - float64(y) - 0.5) * opts.Scale,
				},
				Color: rgb,
			})
		}
	}
	return points
}

// Rec. 709 relative luminance.
func luminance(c types.RGB) float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// ImageResult is the outcome of an asynchronous image load.
type ImageResult struct {
	Path  string
	Image image.Image
	Err   error
}

// LoadImageAsync decodes the image at path on its own goroutine. The returned
// channel yields exactly one result and is then closed. Cancelling ctx before
// the decode finishes yields ctx.Err().
func LoadImageAsync(ctx context.Context, path string) <-chan ImageResult {
	out := make(chan ImageResult, 1)
	go func() {
		defer close(out)
		if err := ctx.Err(); err != nil {
			out <- ImageResult{Path: path, Err: err}
			return
		}
		img, err := decodeFile(path)
		if err == nil {
			err = ctx.Err()
		}
		out <- ImageResult{Path: path, Image: img, Err: err}
	}()
	return out
}

// LoadImage waits for LoadImageAsync or for ctx to be done.
func LoadImage(ctx context.Context, path string) (image.Image, error) {
	select {
	case res := <-LoadImageAsync(ctx, path):
		return res.Image, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}
