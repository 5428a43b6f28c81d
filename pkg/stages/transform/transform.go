// Package transform applies filter chains and geometric operations to
// images and resolves sizing presets.
package transform

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/user/framekit/pkg/filters"
	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// DefaultPreviewSize bounds the longer side of images transformed without
// keepOriginalSize.
const DefaultPreviewSize = 1024

// Options configures a Transformer.
type Options struct {
	PreviewSize int
	// Background fills the area uncovered by rotation of opaque images.
	Background color.Color
}

// Transformer applies filter chains, rotation, flips and presets.
// It keeps no state between calls and is safe for concurrent use.
type Transformer struct {
	applier  *filters.Applier
	renderer ports.Renderer
	encoder  ports.ImageEncoder
	logger   ports.Logger
	opts     Options
}

// New creates a Transformer. encoder is only needed by FileSizePreset.
func New(applier *filters.Applier, renderer ports.Renderer, encoder ports.ImageEncoder, logger ports.Logger, opts Options) *Transformer {
	if opts.PreviewSize <= 0 {
		opts.PreviewSize = DefaultPreviewSize
	}
	if opts.Background == nil {
		opts.Background = color.White
	}
	return &Transformer{
		applier:  applier,
		renderer: renderer,
		encoder:  encoder,
		logger:   logger.WithComponent("transform"),
		opts:     opts,
	}
}

// Transform applies chain to img in order. Unless keepOriginalSize is set,
// img is first downscaled so its longer side fits PreviewSize.
// The first failing filter aborts the call.
func (t *Transformer) Transform(ctx context.Context, img image.Image, chain []filters.Filter, keepOriginalSize bool) (image.Image, error) {
	if img == nil {
		return nil, pipeline.NewError(pipeline.KindInvalidParameter, "transform", fmt.Errorf("nil image"))
	}
	if !keepOriginalSize {
		img = t.fitLongerSide(img, t.opts.PreviewSize)
	}
	return t.applyChain(ctx, img, chain)
}

// TransformToSize resizes img to size, then applies chain. A zero size
// keeps the image's dimensions.
func (t *Transformer) TransformToSize(ctx context.Context, img image.Image, chain []filters.Filter, size ports.Size) (image.Image, error) {
	if img == nil {
		return nil, pipeline.NewError(pipeline.KindInvalidParameter, "transform", fmt.Errorf("nil image"))
	}
	if size.Width < 0 || size.Height < 0 {
		return nil, pipeline.NewError(pipeline.KindInvalidParameter, "transform", fmt.Errorf("invalid size %dx%d", size.Width, size.Height))
	}
	b := img.Bounds()
	if !size.IsZero() && (b.Dx() != size.Width || b.Dy() != size.Height) {
		if b.Empty() {
			return nil, pipeline.NewError(pipeline.KindInvalidParameter, "transform", fmt.Errorf("cannot resize an empty %dx%d image", b.Dx(), b.Dy()))
		}
		w, h := size.Width, size.Height
		if w == 0 {
			w = max(1, b.Dx()*h/b.Dy())
		}
		if h == 0 {
			h = max(1, b.Dy()*w/b.Dx())
		}
		img = t.renderer.ResizeImage(img, w, h)
	}
	return t.applyChain(ctx, img, chain)
}

func (t *Transformer) applyChain(ctx context.Context, img image.Image, chain []filters.Filter) (image.Image, error) {
	if len(chain) > 0 {
		t.logger.Debug("Applying chain of %d filters", len(chain))
	}
	for i, f := range chain {
		out, err := t.applier.Apply(ctx, f, img)
		if err != nil {
			return nil, pipeline.Wrap(pipeline.KindUnknown, fmt.Sprintf("filter %d", i), err)
		}
		img = out
	}
	return img, nil
}

// fitLongerSide downscales img so neither side exceeds limit.
func (t *Transformer) fitLongerSide(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if limit <= 0 || (w <= limit && h <= limit) {
		return img
	}
	scale := float64(limit) / float64(max(w, h))
	return t.renderer.ResizeImage(img, scaled(w, scale), scaled(h, scale))
}

// Rotate rotates img clockwise by degrees around its centre. The canvas
// grows to the rotated bounding box; uncovered pixels are transparent when
// img has alpha and the background colour otherwise. Non-finite angles
// return img unchanged.
func (t *Transformer) Rotate(img image.Image, degrees float64) image.Image {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		t.logger.Warn("Ignoring rotation by %v degrees", degrees)
		return img
	}
	bg := t.opts.Background
	if hasAlpha(img) {
		bg = color.Transparent
	}
	return t.renderer.RotateImage(img, degrees, bg)
}

// Flip mirrors img left to right when horizontal is set, top to bottom
// otherwise. The result is a new image.
func Flip(img image.Image, horizontal bool) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := x, y
			if horizontal {
				sx = w - 1 - x
			} else {
				sy = h - 1 - y
			}
			out.Set(x, y, img.At(b.Min.X+sx, b.Min.Y+sy))
		}
	}
	return out
}

// hasAlpha reports whether img can carry transparency and actually does.
func hasAlpha(img image.Image) bool {
	switch img.ColorModel() {
	case color.YCbCrModel, color.GrayModel, color.Gray16Model, color.CMYKModel:
		return false
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}

func scaled(v int, s float64) int {
	return max(1, int(math.Round(float64(v)*s)))
}
