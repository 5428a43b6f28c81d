package stdcodec

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// Encoder encodes still images with the standard library and x/image.
type Encoder struct{}

// NewEncoder creates an Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Formats returns the formats the encoder can produce.
func (e *Encoder) Formats() []ports.ImageFormat {
	return []ports.ImageFormat{ports.FormatPNG, ports.FormatAPNG, ports.FormatJPEG, ports.FormatGIF, ports.FormatBMP, ports.FormatTIFF}
}

// Encode encodes img. APNG stills are written as plain PNG.
func (e *Encoder) Encode(ctx context.Context, img image.Image, format ports.ImageFormat, quality ports.Quality) ([]byte, error) {
	if err := pipeline.Cancelled(ctx, "encode "+format.String()); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case ports.FormatPNG, ports.FormatAPNG:
		err = png.Encode(&buf, img)
	case ports.FormatJPEG:
		level := 90
		if quality != nil {
			level = quality.Level()
		}
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: level})
	case ports.FormatGIF:
		err = gif.Encode(&buf, quantize(img), nil)
	case ports.FormatBMP:
		err = bmp.Encode(&buf, img)
	case ports.FormatTIFF:
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return nil, pipeline.NewError(pipeline.KindEncodeFailure, "encode",
			fmt.Errorf("%s: %w", format, pipeline.ErrEncode))
	}
	if err != nil {
		return nil, pipeline.NewError(pipeline.KindEncodeFailure, "encode "+format.String(), fmt.Errorf("%w: %v", pipeline.ErrEncode, err))
	}
	return buf.Bytes(), nil
}

// gifPalette is the web-safe palette plus a fully transparent entry.
var gifPalette = append(append(color.Palette{}, palette.WebSafe...), color.Transparent)

// quantize maps img onto gifPalette with Floyd-Steinberg dithering.
func quantize(img image.Image) *image.Paletted {
	if p, ok := img.(*image.Paletted); ok {
		return p
	}
	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), gifPalette)
	draw.FloydSteinberg.Draw(dst, dst.Bounds(), img, b.Min)
	return dst
}

var _ ports.ImageEncoder = (*Encoder)(nil)
