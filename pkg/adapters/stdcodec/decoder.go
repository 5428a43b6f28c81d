// Package stdcodec provides pure Go still and container codecs for PNG, APNG,
// GIF, JPEG, BMP, TIFF and (decode only) WebP.
package stdcodec

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// DefaultMaxPixels bounds the area of images accepted by the decoder.
const DefaultMaxPixels = 100_000_000

// Decoder decodes still images with the standard library and x/image.
type Decoder struct {
	maxPixels int
}

// NewDecoder creates a Decoder. maxPixels <= 0 selects DefaultMaxPixels.
func NewDecoder(maxPixels int) *Decoder {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Decoder{maxPixels: maxPixels}
}

// Decode decodes data, downscaling the result to fit the constraints.
func (d *Decoder) Decode(ctx context.Context, data []byte, constraints ports.DecodeConstraints) (image.Image, error) {
	if err := pipeline.Cancelled(ctx, "decode"); err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, pipeline.NewError(pipeline.KindDecodeFailure, "decode config", fmt.Errorf("%w: %v", pipeline.ErrDecode, err))
	}
	if cfg.Width*cfg.Height > d.maxPixels {
		return nil, pipeline.NewError(pipeline.KindResourceExhausted, "decode",
			fmt.Errorf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, d.maxPixels))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, pipeline.NewError(pipeline.KindDecodeFailure, "decode", fmt.Errorf("%w: %v", pipeline.ErrDecode, err))
	}
	return fitWithin(img, constraints), nil
}

// fitWithin downscales img to fit the constraints, keeping the aspect ratio.
func fitWithin(img image.Image, c ports.DecodeConstraints) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	scale := 1.0
	if c.MaxWidth > 0 && w > c.MaxWidth {
		scale = float64(c.MaxWidth) / float64(w)
	}
	if c.MaxHeight > 0 && h > c.MaxHeight {
		scale = min(scale, float64(c.MaxHeight)/float64(h))
	}
	if scale >= 1 {
		return img
	}

	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

var _ ports.ImageDecoder = (*Decoder)(nil)
