package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gonewx/shimmer/pkg/reveal"
	"github.com/gonewx/shimmer/pkg/types"
)

// ErrNoContent is returned when an item names no text, image or cloud.
var ErrNoContent = errors.New("source: item has no text, image or cloud")

// Builder turns a reveal item into spawn points.
type Builder interface {
	Build(ctx context.Context, item reveal.Item) ([]types.SourcePoint, error)
}

// DefaultBuilder dispatches on the item's content: Text, then Image, then Cloud.
// Decoded images are cached by path, so Preload keeps Build free of disk IO.
type DefaultBuilder struct {
	Text        TextOptions
	Image       ImageOptions
	CloudExtent float64

	// BaseDir resolves relative image paths, usually the scene file's directory.
	BaseDir string

	rng    *rand.Rand
	logger zerolog.Logger

	mu     sync.Mutex
	images map[string]image.Image
}

// NewDefaultBuilder creates a builder. A nil rng uses a fixed seed.
func NewDefaultBuilder(rng *rand.Rand, logger zerolog.Logger) *DefaultBuilder {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &DefaultBuilder{
		CloudExtent: DefaultCloudExtent,
		rng:         rng,
		logger:      logger.With().Str("component", "source").Logger(),
		images:      make(map[string]image.Image),
	}
}

// Build implements Builder. Text points take the item color; image points keep
// their pixel colors. A cloud with a zero (black) color gets random hues.
func (b *DefaultBuilder) Build(ctx context.Context, item reveal.Item) ([]types.SourcePoint, error) {
	switch {
	case item.Text != "":
		opts := b.Text
		opts.Color = item.Color
		if opts.Rng == nil {
			opts.Rng = b.rng
		}
		return Text(item.Text, opts), nil

	case item.Image != "":
		img, err := b.image(ctx, item.Image)
		if err != nil {
			return nil, err
		}
		return Image(img, b.Image), nil

	case item.Cloud > 0:
		if item.Color == (types.RGB{}) {
			return RainbowCloud(item.Cloud, b.CloudExtent, b.rng), nil
		}
		return Cloud(item.Cloud, b.CloudExtent, item.Color, b.rng), nil
	}
	return nil, fmt.Errorf("item %q: %w", item.Name, ErrNoContent)
}

// Preload decodes every image referenced by items concurrently and caches the
// results. The first decode error is returned after all loads finish.
func (b *DefaultBuilder) Preload(ctx context.Context, items []reveal.Item) error {
	var pending []<-chan ImageResult
	for _, it := range items {
		if it.Image == "" {
			continue
		}
		pending = append(pending, LoadImageAsync(ctx, b.resolve(it.Image)))
	}

	var firstErr error
	for _, ch := range pending {
		res := <-ch
		if res.Err != nil {
			if firstErr == nil {
				firstErr = res.Err
			}
			continue
		}
		b.mu.Lock()
		b.images[res.Path] = res.Image
		b.mu.Unlock()
		b.logger.Debug().Str("path", res.Path).Msg("image preloaded")
	}
	return firstErr
}

func (b *DefaultBuilder) image(ctx context.Context, path string) (image.Image, error) {
	path = b.resolve(path)
	b.mu.Lock()
	img, ok := b.images[path]
	b.mu.Unlock()
	if ok {
		return img, nil
	}

	img, err := LoadImage(ctx, path)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.images[path] = img
	b.mu.Unlock()
	return img, nil
}

func (b *DefaultBuilder) resolve(path string) string {
	if b.BaseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(b.BaseDir, path)
}
