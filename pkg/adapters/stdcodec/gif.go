package stdcodec

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"io"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// gifReader yields composited GIF frames.
type gifReader struct {
	g   *gif.GIF
	c   *compositor
	pos int
}

func newGIFReader(data []byte) (*gifReader, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError("decode gif", err)
	}
	if len(g.Image) == 0 {
		return nil, decodeError("decode gif", fmt.Errorf("no frames"))
	}
	w, h := g.Config.Width, g.Config.Height
	if w == 0 || h == 0 {
		b := g.Image[0].Bounds()
		w, h = b.Max.X, b.Max.Y
	}
	return &gifReader{g: g, c: newCompositor(w, h)}, nil
}

func (r *gifReader) Next() (ports.DecodedFrame, error) {
	if r.g == nil || r.pos >= len(r.g.Image) {
		return ports.DecodedFrame{}, io.EOF
	}
	src := r.g.Image[r.pos]
	dispose := disposeNone
	if r.pos < len(r.g.Disposal) {
		dispose = gifDisposal(r.g.Disposal[r.pos])
	}
	delay := pipeline.DefaultDelayMs
	if r.pos < len(r.g.Delay) {
		delay = r.g.Delay[r.pos] * 10
	}
	img := r.c.apply(src, src.Bounds().Min, dispose, blendOver)
	r.g.Image[r.pos] = nil
	r.pos++
	return ports.DecodedFrame{Image: img, DelayMs: delay}, nil
}

func (r *gifReader) FrameCount() int {
	if r.g == nil {
		return 0
	}
	return len(r.g.Image)
}

func (r *gifReader) Close() error {
	r.g = nil
	return nil
}

func gifDisposal(d byte) int {
	switch d {
	case gif.DisposalBackground:
		return disposeBackground
	case gif.DisposalPrevious:
		return disposePrevious
	}
	return disposeNone
}

// gifLoopCount maps "0 loops forever, n plays n times" onto the GIF
// convention where 0 loops forever and -1 plays once.
func gifLoopCount(n int) int {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return -1
	}
	return n - 1
}

// gifWriter quantizes frames as they arrive and encodes on End.
type gifWriter struct {
	width, height int
	g             *gif.GIF
}

func newGIFWriter(opts ports.ContainerOptions) *gifWriter {
	return &gifWriter{g: &gif.GIF{LoopCount: gifLoopCount(opts.LoopCount)}}
}

func (w *gifWriter) Begin(width, height int) error {
	if width <= 0 || height <= 0 {
		return pipeline.NewError(pipeline.KindInvalidParameter, "gif begin", fmt.Errorf("invalid canvas %dx%d", width, height))
	}
	w.width, w.height = width, height
	w.g.Config = image.Config{ColorModel: gifPalette, Width: width, Height: height}
	return nil
}

func (w *gifWriter) AddFrame(img image.Image, delayMs int) error {
	if w.width == 0 {
		return pipeline.NewError(pipeline.KindEncodeFailure, "gif add frame", fmt.Errorf("%w: writer not started", pipeline.ErrEncode))
	}
	b := img.Bounds()
	if b.Dx() != w.width || b.Dy() != w.height {
		return pipeline.NewError(pipeline.KindEncodeFailure, "gif add frame",
			fmt.Errorf("%w: frame %dx%d does not match canvas %dx%d", pipeline.ErrEncode, b.Dx(), b.Dy(), w.width, w.height))
	}
	w.g.Image = append(w.g.Image, quantize(img))
	w.g.Delay = append(w.g.Delay, max(delayMs, 0)/10)
	w.g.Disposal = append(w.g.Disposal, gif.DisposalBackground)
	return nil
}

func (w *gifWriter) End() ([]byte, error) {
	if len(w.g.Image) == 0 {
		return nil, pipeline.NewError(pipeline.KindEncodeFailure, "gif end", fmt.Errorf("%w: no frames", pipeline.ErrEncode))
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, w.g); err != nil {
		return nil, pipeline.NewError(pipeline.KindEncodeFailure, "gif end", fmt.Errorf("%w: %v", pipeline.ErrEncode, err))
	}
	w.g.Image = nil
	return buf.Bytes(), nil
}

func (w *gifWriter) Abort() {
	w.g.Image, w.g.Delay, w.g.Disposal = nil, nil, nil
	w.width, w.height = 0, 0
}
