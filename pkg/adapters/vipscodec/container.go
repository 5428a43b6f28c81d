package vipscodec

import (
	"context"
	"fmt"
	"image"
	"io"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// NewReader opens every page of an animated WebP or JPEG XL.
func (b *Backend) NewReader(ctx context.Context, data []byte) (ports.ContainerReader, error) {
	if err := pipeline.Cancelled(ctx, "vips open"); err != nil {
		return nil, err
	}
	params := govips.NewImportParams()
	params.NumPages.Set(-1)
	ref, err := govips.LoadImageFromBuffer(data, params)
	if err != nil {
		return nil, decodeError("vips open", err)
	}

	pageHeight := ref.PageHeight()
	if pageHeight <= 0 {
		pageHeight = ref.Height()
	}
	pages := max(1, ref.Height()/pageHeight)
	delays, err := ref.PageDelay()
	if err != nil {
		delays = nil
	}
	return &reader{ref: ref, pages: pages, pageHeight: pageHeight, delays: delays}, nil
}

// NewWriter creates a writer producing an animated WebP or JPEG XL.
func (b *Backend) NewWriter(format ports.ImageFormat, opts ports.ContainerOptions) (ports.ContainerWriter, error) {
	switch format {
	case ports.FormatWebP, ports.FormatJXL:
		return &writer{format: format, quality: opts.Quality}, nil
	}
	return nil, pipeline.NewError(pipeline.KindEncodeFailure, "vips writer",
		fmt.Errorf("%w: %s is not handled", pipeline.ErrEncode, format))
}

// reader extracts pages from a vertically stacked libvips image.
type reader struct {
	ref        *govips.ImageRef
	pages      int
	pageHeight int
	delays     []int
	pos        int
}

func (r *reader) Next() (ports.DecodedFrame, error) {
	if r.ref == nil || r.pos >= r.pages {
		return ports.DecodedFrame{}, io.EOF
	}
	page, err := r.ref.Copy()
	if err != nil {
		return ports.DecodedFrame{}, decodeError("vips page", err)
	}
	defer page.Close()

	if r.pages > 1 {
		if err := page.ExtractArea(0, r.pos*r.pageHeight, page.Width(), r.pageHeight); err != nil {
			return ports.DecodedFrame{}, decodeError("vips page", err)
		}
	}
	img, err := toImage(page)
	if err != nil {
		return ports.DecodedFrame{}, err
	}

	delay := pipeline.DefaultDelayMs
	if r.pos < len(r.delays) && r.delays[r.pos] > 0 {
		delay = r.delays[r.pos]
	}
	r.pos++
	return ports.DecodedFrame{Image: img, DelayMs: delay}, nil
}

func (r *reader) FrameCount() int { return r.pages }

func (r *reader) Close() error {
	if r.ref != nil {
		r.ref.Close()
		r.ref = nil
	}
	return nil
}

// writer loads each frame into libvips and joins them on End.
type writer struct {
	format        ports.ImageFormat
	quality       ports.Quality
	width, height int
	frames        []*govips.ImageRef
	delays        []int
}

func (w *writer) Begin(width, height int) error {
	if width <= 0 || height <= 0 {
		return pipeline.NewError(pipeline.KindInvalidParameter, "vips begin", fmt.Errorf("invalid canvas %dx%d", width, height))
	}
	w.width, w.height = width, height
	return nil
}

func (w *writer) AddFrame(img image.Image, delayMs int) error {
	if w.width == 0 {
		return pipeline.NewError(pipeline.KindEncodeFailure, "vips add frame", fmt.Errorf("%w: writer not started", pipeline.ErrEncode))
	}
	b := img.Bounds()
	if b.Dx() != w.width || b.Dy() != w.height {
		return pipeline.NewError(pipeline.KindEncodeFailure, "vips add frame",
			fmt.Errorf("%w: frame %dx%d does not match canvas %dx%d", pipeline.ErrEncode, b.Dx(), b.Dy(), w.width, w.height))
	}
	ref, err := fromImage(img)
	if err != nil {
		return err
	}
	w.frames = append(w.frames, ref)
	w.delays = append(w.delays, max(delayMs, 0))
	return nil
}

func (w *writer) End() ([]byte, error) {
	defer w.Abort()
	if len(w.frames) == 0 {
		return nil, pipeline.NewError(pipeline.KindEncodeFailure, "vips end", fmt.Errorf("%w: no frames", pipeline.ErrEncode))
	}

	joined, err := w.frames[0].Copy()
	if err != nil {
		return nil, encodeError("vips join", err)
	}
	defer joined.Close()
	if len(w.frames) > 1 {
		if err := joined.ArrayJoin(w.frames[1:], 1); err != nil {
			return nil, encodeError("vips join", err)
		}
		if err := joined.SetPageHeight(w.height); err != nil {
			return nil, encodeError("vips page height", err)
		}
		if err := joined.SetPageDelay(w.delays); err != nil {
			return nil, encodeError("vips page delay", err)
		}
	}
	return export(joined, w.format, w.quality)
}

func (w *writer) Abort() {
	for _, f := range w.frames {
		f.Close()
	}
	w.frames, w.delays = nil, nil
}
