// Package vipscodec encodes and decodes WebP and JPEG XL, still and
// animated, through libvips.
package vipscodec

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"runtime"
	"sync"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// Config configures the libvips backend.
type Config struct {
	MaxWorkers   int
	MaxCacheSize int
	ReportLeaks  bool
}

var startOnce sync.Once

// Backend is a libvips-powered decoder, encoder and container codec for
// WebP and JPEG XL. Safe for concurrent use.
type Backend struct {
	cfg Config
}

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown when the process exits.
func NewBackend(cfg Config) *Backend {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	startOnce.Do(func() {
		govips.Startup(&govips.Config{
			ConcurrencyLevel: cfg.MaxWorkers,
			MaxCacheSize:     cfg.MaxCacheSize,
			ReportLeaks:      cfg.ReportLeaks,
		})
	})
	return &Backend{cfg: cfg}
}

// Shutdown releases all libvips resources.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

// Formats returns the formats handled by the backend.
func (b *Backend) Formats() []ports.ImageFormat {
	return []ports.ImageFormat{ports.FormatWebP, ports.FormatJXL}
}

// Decode decodes the first page of data.
func (b *Backend) Decode(ctx context.Context, data []byte, constraints ports.DecodeConstraints) (image.Image, error) {
	if err := pipeline.Cancelled(ctx, "vips decode"); err != nil {
		return nil, err
	}
	ref, err := govips.NewImageFromBuffer(data)
	if err != nil {
		return nil, decodeError("vips decode", err)
	}
	defer ref.Close()

	if s := fitScale(ref.Width(), ref.PageHeight(), constraints); s < 1 {
		if err := ref.Resize(s, govips.KernelLanczos3); err != nil {
			return nil, decodeError("vips resize", err)
		}
	}
	return toImage(ref)
}

// Encode encodes img as WebP or JPEG XL.
func (b *Backend) Encode(ctx context.Context, img image.Image, format ports.ImageFormat, quality ports.Quality) ([]byte, error) {
	if err := pipeline.Cancelled(ctx, "vips encode"); err != nil {
		return nil, err
	}
	ref, err := fromImage(img)
	if err != nil {
		return nil, err
	}
	defer ref.Close()
	return export(ref, format, quality)
}

// fromImage loads img into libvips through a lossless PNG buffer.
func fromImage(img image.Image) (*govips.ImageRef, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, encodeError("vips load", err)
	}
	ref, err := govips.NewImageFromBuffer(buf.Bytes())
	if err != nil {
		return nil, encodeError("vips load", err)
	}
	return ref, nil
}

// toImage exports ref as PNG and decodes it back into a Go image.
func toImage(ref *govips.ImageRef) (image.Image, error) {
	data, _, err := ref.ExportPng(govips.NewPngExportParams())
	if err != nil {
		return nil, decodeError("vips export", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError("vips export", err)
	}
	return img, nil
}

func export(ref *govips.ImageRef, format ports.ImageFormat, quality ports.Quality) ([]byte, error) {
	switch format {
	case ports.FormatWebP:
		ep := govips.NewWebpExportParams()
		ep.StripMetadata = true
		if quality != nil {
			ep.Quality = quality.Level()
			ep.Lossless = ports.IsLossless(quality)
		}
		data, _, err := ref.ExportWebp(ep)
		if err != nil {
			return nil, encodeError("vips export webp", err)
		}
		return data, nil
	case ports.FormatJXL:
		ep := govips.NewJxlExportParams()
		if quality != nil {
			ep.Quality = quality.Level()
			ep.Lossless = ports.IsLossless(quality)
			if q, ok := quality.(ports.JxlQuality); ok && q.Effort > 0 {
				ep.Effort = q.Effort
			}
		}
		data, _, err := ref.ExportJxl(ep)
		if err != nil {
			return nil, encodeError("vips export jxl", err)
		}
		return data, nil
	}
	return nil, pipeline.NewError(pipeline.KindEncodeFailure, "vips export",
		fmt.Errorf("%w: %s", pipeline.ErrEncode, format))
}

func fitScale(w, h int, c ports.DecodeConstraints) float64 {
	scale := 1.0
	if c.MaxWidth > 0 && w > c.MaxWidth {
		scale = float64(c.MaxWidth) / float64(w)
	}
	if c.MaxHeight > 0 && h > c.MaxHeight {
		scale = min(scale, float64(c.MaxHeight)/float64(h))
	}
	return scale
}

func decodeError(op string, err error) error {
	return pipeline.NewError(pipeline.KindDecodeFailure, op, fmt.Errorf("%w: %v", pipeline.ErrDecode, err))
}

func encodeError(op string, err error) error {
	return pipeline.NewError(pipeline.KindEncodeFailure, op, fmt.Errorf("%w: %v", pipeline.ErrEncode, err))
}

var (
	_ ports.ImageDecoder   = (*Backend)(nil)
	_ ports.ImageEncoder   = (*Backend)(nil)
	_ ports.ContainerCodec = (*Backend)(nil)
)
