package filters

import (
	"context"
	"fmt"
	"image"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// Applier applies single filters to images.
type Applier struct {
	getter ports.ImageGetter
	logger ports.Logger
}

// NewApplier creates an Applier. getter resolves palette references and may be nil,
// in which case palette transfers leave images unchanged.
func NewApplier(getter ports.ImageGetter, logger ports.Logger) *Applier {
	return &Applier{
		getter: getter,
		logger: logger.WithComponent("filters"),
	}
}

// Apply returns a new image with f applied to img. img is never modified.
func (a *Applier) Apply(ctx context.Context, f Filter, img image.Image) (image.Image, error) {
	if img == nil {
		return nil, pipeline.NewError(pipeline.KindInvalidParameter, "apply filter", fmt.Errorf("nil image"))
	}
	if err := Validate(f); err != nil {
		return nil, err
	}
	if err := pipeline.Cancelled(ctx, "apply "+string(f.Kind())); err != nil {
		return nil, err
	}

	a.logger.Debug("Applying %s filter", f.Kind())

	switch v := f.(type) {
	case ColorBalance:
		return applyColorBalance(img, v), nil
	case StrokePixelation:
		return applyStrokePixelation(img, v), nil
	case PaletteTransfer:
		return a.applyPaletteTransfer(ctx, img, v), nil
	case Clahe:
		return applyClahe(img, v), nil
	case Brightness:
		return applyBrightness(img, v), nil
	case Grayscale:
		return applyGrayscale(img), nil
	}
	return nil, pipeline.NewError(pipeline.KindInvalidParameter, "apply filter", fmt.Errorf("unsupported filter %T", f))
}

// applyPaletteTransfer resolves the reference once per call. An unresolvable
// reference yields an unchanged copy of img.
func (a *Applier) applyPaletteTransfer(ctx context.Context, img image.Image, f PaletteTransfer) image.Image {
	if a.getter == nil || f.Reference == "" || f.Intensity == 0 {
		return toNRGBA(img)
	}

	bound := ports.Size{Width: ReferenceBound, Height: ReferenceBound}
	ref, err := a.getter.GetImage(ctx, f.Reference, bound)
	if err != nil || ref == nil {
		a.logger.Warn("Palette reference %s unavailable, image left unchanged", f.Reference)
		return toNRGBA(img)
	}
	return transferPalette(img, ref, f)
}
