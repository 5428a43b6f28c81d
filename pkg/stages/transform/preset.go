package transform

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/docker/go-units"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

const (
	// fileSizeScaleStep shrinks both sides when no quality fits the budget.
	fileSizeScaleStep = 0.85
	fileSizeMaxSteps  = 12
)

// ApplyPresetBy derives the output info for img under preset. The result
// depends only on the arguments. Content-dependent presets return current
// unchanged when img is nil.
func (t *Transformer) ApplyPresetBy(ctx context.Context, img image.Image, preset pipeline.Preset, current pipeline.ImageInfo) (pipeline.ImageInfo, error) {
	if current.Width <= 0 || current.Height <= 0 {
		if img == nil {
			return current, nil
		}
		b := img.Bounds()
		current.Width, current.Height = b.Dx(), b.Dy()
	}

	switch p := preset.(type) {
	case nil, pipeline.NonePreset:
		return current, nil
	case pipeline.PercentagePreset:
		if p.Value <= 0 {
			return current, pipeline.NewError(pipeline.KindInvalidParameter, "preset", fmt.Errorf("percentage must be positive"))
		}
		s := float64(p.Value) / 100
		current.Width, current.Height = scaled(current.Width, s), scaled(current.Height, s)
		return current, nil
	case pipeline.FitPreset:
		if p.Width <= 0 || p.Height <= 0 {
			return current, pipeline.NewError(pipeline.KindInvalidParameter, "preset", fmt.Errorf("fit box must be positive"))
		}
		if current.Width <= p.Width && current.Height <= p.Height {
			return current, nil
		}
		s := math.Min(float64(p.Width)/float64(current.Width), float64(p.Height)/float64(current.Height))
		current.Width, current.Height = scaled(current.Width, s), scaled(current.Height, s)
		return current, nil
	case pipeline.TelegramPreset:
		s := float64(pipeline.TelegramMaxSide) / float64(max(current.Width, current.Height))
		current.Width, current.Height = scaled(current.Width, s), scaled(current.Height, s)
		current.Format = ports.FormatPNG
		current.Quality = ports.LosslessQuality{}
		return current, nil
	case pipeline.FileSizePreset:
		if img == nil {
			return current, nil
		}
		return t.fitFileSize(ctx, img, p.TargetBytes, current)
	}
	return current, pipeline.NewError(pipeline.KindInvalidParameter, "preset", fmt.Errorf("unsupported preset %T", preset))
}

// fitFileSize binary-searches the highest quality whose encoding fits target
// bytes, shrinking the image in fixed steps when even the lowest quality is
// too large. When nothing fits, the smallest candidate tried is returned.
func (t *Transformer) fitFileSize(ctx context.Context, img image.Image, target int64, current pipeline.ImageInfo) (pipeline.ImageInfo, error) {
	if target <= 0 {
		return current, pipeline.NewError(pipeline.KindInvalidParameter, "preset", fmt.Errorf("target size must be positive"))
	}
	if t.encoder == nil {
		return current, pipeline.NewError(pipeline.KindInvalidParameter, "preset", fmt.Errorf("file size preset needs an encoder"))
	}
	format := current.Format
	if format == ports.FormatUnknown {
		format = ports.FormatJPEG
	}

	t.logger.Debug("Searching quality for %s within %s", format, units.HumanSize(float64(target)))

	w, h := current.Width, current.Height
	for step := 0; step <= fileSizeMaxSteps; step++ {
		if step > 0 {
			w, h = scaled(w, fileSizeScaleStep), scaled(h, fileSizeScaleStep)
		}
		candidate := t.renderer.ResizeImage(img, w, h)

		level, ok, err := t.searchQuality(ctx, candidate, format, target)
		if err != nil {
			return current, err
		}
		if ok || step == fileSizeMaxSteps || (w == 1 && h == 1) {
			return pipeline.ImageInfo{
				Width:   w,
				Height:  h,
				Format:  format,
				Quality: ports.QualityFor(format, level, false),
			}, nil
		}
	}
	return current, nil
}

// searchQuality returns the highest quality level in [1, 100] whose encoding
// fits target. ok is false when even level 1 is too large.
func (t *Transformer) searchQuality(ctx context.Context, img image.Image, format ports.ImageFormat, target int64) (int, bool, error) {
	lo, hi := 1, 100
	best, found := 1, false
	for lo <= hi {
		if err := pipeline.Cancelled(ctx, "file size search"); err != nil {
			return 0, false, err
		}
		mid := (lo + hi) / 2
		data, err := t.encoder.Encode(ctx, img, format, ports.QualityFor(format, mid, false))
		if err != nil {
			return 0, false, pipeline.Wrap(pipeline.KindEncodeFailure, "file size search", err)
		}
		if int64(len(data)) <= target {
			best, found = mid, true
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best, found, nil
}
