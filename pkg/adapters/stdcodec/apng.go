package stdcodec

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/kettek/apng"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// apngReader composites APNG frames one at a time as they are requested.
type apngReader struct {
	src   []apng.Frame
	still image.Image
	c     *compositor
	count int
	pos   int
}

func newAPNGReader(data []byte) (*apngReader, error) {
	a, err := apng.DecodeAll(bytes.NewReader(data))
	if err != nil {
		// Not every PNG parses as APNG; fall back to a single still frame.
		img, perr := png.Decode(bytes.NewReader(data))
		if perr != nil {
			return nil, decodeError("decode apng", err)
		}
		return &apngReader{still: img, count: 1}, nil
	}
	if len(a.Frames) == 0 {
		return nil, decodeError("decode apng", fmt.Errorf("no frames"))
	}

	src := make([]apng.Frame, 0, len(a.Frames))
	for _, f := range a.Frames {
		if !f.IsDefault {
			src = append(src, f)
		}
	}
	if len(src) == 0 {
		// Only the default image is present: a plain PNG.
		return &apngReader{still: a.Frames[0].Image, count: 1}, nil
	}

	cb := a.Frames[0].Image.Bounds()
	return &apngReader{src: src, c: newCompositor(cb.Dx(), cb.Dy()), count: len(src)}, nil
}

func apngDelayMs(num, den uint16) int {
	if den == 0 {
		den = 100
	}
	return int(num) * 1000 / int(den)
}

func (r *apngReader) Next() (ports.DecodedFrame, error) {
	if r.pos >= r.count || (r.src == nil && r.still == nil) {
		return ports.DecodedFrame{}, io.EOF
	}
	if r.still != nil {
		img := toCanvas(r.still)
		r.still = nil
		r.pos++
		return ports.DecodedFrame{Image: img, DelayMs: pipeline.DefaultDelayMs}, nil
	}

	f := r.src[r.pos]
	r.src[r.pos] = apng.Frame{}
	dispose := int(f.DisposeOp)
	if r.pos == 0 && dispose == disposePrevious {
		dispose = disposeBackground
	}
	img := r.c.apply(f.Image, image.Pt(f.XOffset, f.YOffset), dispose, int(f.BlendOp))
	r.pos++
	return ports.DecodedFrame{Image: img, DelayMs: apngDelayMs(f.DelayNumerator, f.DelayDenominator)}, nil
}

func (r *apngReader) FrameCount() int { return r.count }

func (r *apngReader) Close() error {
	r.src, r.still, r.c = nil, nil, nil
	return nil
}

// apngWriter buffers full-canvas frames and encodes them on End.
type apngWriter struct {
	width, height int
	loopCount     int
	frames        []apng.Frame
	begun         bool
}

func newAPNGWriter(opts ports.ContainerOptions) *apngWriter {
	return &apngWriter{loopCount: opts.LoopCount}
}

func (w *apngWriter) Begin(width, height int) error {
	if width <= 0 || height <= 0 {
		return pipeline.NewError(pipeline.KindInvalidParameter, "apng begin", fmt.Errorf("invalid canvas %dx%d", width, height))
	}
	w.width, w.height = width, height
	w.begun = true
	return nil
}

func (w *apngWriter) AddFrame(img image.Image, delayMs int) error {
	if !w.begun {
		return pipeline.NewError(pipeline.KindEncodeFailure, "apng add frame", fmt.Errorf("%w: writer not started", pipeline.ErrEncode))
	}
	frame := toCanvas(img)
	if frame.Rect.Dx() != w.width || frame.Rect.Dy() != w.height {
		return pipeline.NewError(pipeline.KindEncodeFailure, "apng add frame",
			fmt.Errorf("%w: frame %dx%d does not match canvas %dx%d", pipeline.ErrEncode, frame.Rect.Dx(), frame.Rect.Dy(), w.width, w.height))
	}
	if delayMs > 0xffff {
		delayMs = 0xffff
	}
	w.frames = append(w.frames, apng.Frame{
		Image:            frame,
		DelayNumerator:   uint16(max(delayMs, 0)),
		DelayDenominator: 1000,
		DisposeOp:        disposeNone,
		BlendOp:          blendSource,
	})
	return nil
}

func (w *apngWriter) End() ([]byte, error) {
	if len(w.frames) == 0 {
		return nil, pipeline.NewError(pipeline.KindEncodeFailure, "apng end", fmt.Errorf("%w: no frames", pipeline.ErrEncode))
	}
	// The encoder derives the colour type from the first frame.
	if !allOpaque(w.frames) {
		first := w.frames[0].Image.(*image.NRGBA)
		w.frames[0].Image = translucent{first}
	}

	var buf bytes.Buffer
	a := apng.APNG{Frames: w.frames, LoopCount: uint(max(w.loopCount, 0))}
	if err := apng.Encode(&buf, a); err != nil {
		return nil, pipeline.NewError(pipeline.KindEncodeFailure, "apng end", fmt.Errorf("%w: %v", pipeline.ErrEncode, err))
	}
	w.frames = nil
	return buf.Bytes(), nil
}

func (w *apngWriter) Abort() {
	w.frames = nil
	w.begun = false
}

// translucent reports itself as non-opaque so the encoder keeps an alpha channel.
type translucent struct {
	*image.NRGBA
}

func (translucent) Opaque() bool { return false }

func allOpaque(frames []apng.Frame) bool {
	for _, f := range frames {
		if o, ok := f.Image.(interface{ Opaque() bool }); ok && !o.Opaque() {
			return false
		}
	}
	return true
}

func decodeError(op string, err error) error {
	return pipeline.NewError(pipeline.KindDecodeFailure, op, fmt.Errorf("%w: %v", pipeline.ErrDecode, err))
}
