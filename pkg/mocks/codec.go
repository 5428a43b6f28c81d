package mocks

import (
	"context"
	"image"
	"io"
	"sync"

	"github.com/user/framekit/pkg/ports"
)

// Decoder is a mock implementation of ports.ImageDecoder.
type Decoder struct {
	DecodeFunc func(ctx context.Context, data []byte, constraints ports.DecodeConstraints) (image.Image, error)

	mu          sync.Mutex
	DecodeCalls int
}

func (m *Decoder) Decode(ctx context.Context, data []byte, constraints ports.DecodeConstraints) (image.Image, error) {
	m.mu.Lock()
	m.DecodeCalls++
	m.mu.Unlock()
	if m.DecodeFunc != nil {
		return m.DecodeFunc(ctx, data, constraints)
	}
	return image.NewNRGBA(image.Rect(0, 0, 100, 100)), nil
}

var _ ports.ImageDecoder = (*Decoder)(nil)

// Encoder is a mock implementation of ports.ImageEncoder.
type Encoder struct {
	EncodeFunc func(ctx context.Context, img image.Image, format ports.ImageFormat, quality ports.Quality) ([]byte, error)

	mu          sync.Mutex
	EncodeCalls []EncodeCall
}

// EncodeCall records a call to Encode.
type EncodeCall struct {
	Format  ports.ImageFormat
	Quality ports.Quality
	Size    ports.Size
}

func (m *Encoder) Encode(ctx context.Context, img image.Image, format ports.ImageFormat, quality ports.Quality) ([]byte, error) {
	b := img.Bounds()
	m.mu.Lock()
	m.EncodeCalls = append(m.EncodeCalls, EncodeCall{Format: format, Quality: quality, Size: ports.Size{Width: b.Dx(), Height: b.Dy()}})
	m.mu.Unlock()
	if m.EncodeFunc != nil {
		return m.EncodeFunc(ctx, img, format, quality)
	}
	return []byte("encoded"), nil
}

var _ ports.ImageEncoder = (*Encoder)(nil)

// ContainerCodec is a mock implementation of ports.ContainerCodec.
type ContainerCodec struct {
	NewReaderFunc func(ctx context.Context, data []byte) (ports.ContainerReader, error)
	NewWriterFunc func(format ports.ImageFormat, opts ports.ContainerOptions) (ports.ContainerWriter, error)

	mu      sync.Mutex
	Writers []*ContainerWriter
}

func (m *ContainerCodec) NewReader(ctx context.Context, data []byte) (ports.ContainerReader, error) {
	if m.NewReaderFunc != nil {
		return m.NewReaderFunc(ctx, data)
	}
	return &ContainerReader{Frames: []ports.DecodedFrame{{Image: image.NewNRGBA(image.Rect(0, 0, 10, 10)), DelayMs: 100}}}, nil
}

func (m *ContainerCodec) NewWriter(format ports.ImageFormat, opts ports.ContainerOptions) (ports.ContainerWriter, error) {
	if m.NewWriterFunc != nil {
		return m.NewWriterFunc(format, opts)
	}
	w := &ContainerWriter{Format: format, Options: opts}
	m.mu.Lock()
	m.Writers = append(m.Writers, w)
	m.mu.Unlock()
	return w, nil
}

var _ ports.ContainerCodec = (*ContainerCodec)(nil)

// ContainerReader is a mock implementation of ports.ContainerReader that
// yields Frames in order.
type ContainerReader struct {
	Frames []ports.DecodedFrame
	// FailAt makes Next return Err at that index when Err is set.
	FailAt int
	Err    error

	pos    int
	Closed bool
}

func (m *ContainerReader) Next() (ports.DecodedFrame, error) {
	if m.Err != nil && m.pos == m.FailAt {
		return ports.DecodedFrame{}, m.Err
	}
	if m.pos >= len(m.Frames) {
		return ports.DecodedFrame{}, io.EOF
	}
	f := m.Frames[m.pos]
	m.pos++
	return f, nil
}

func (m *ContainerReader) FrameCount() int { return len(m.Frames) }

func (m *ContainerReader) Close() error {
	m.Closed = true
	return nil
}

var _ ports.ContainerReader = (*ContainerReader)(nil)

// ContainerWriter is a mock implementation of ports.ContainerWriter.
type ContainerWriter struct {
	BeginFunc    func(width, height int) error
	AddFrameFunc func(img image.Image, delayMs int) error
	EndFunc      func() ([]byte, error)

	Format  ports.ImageFormat
	Options ports.ContainerOptions

	// Recorded calls for verification
	BeginCalled   bool
	Width, Height int
	AddFrameCalls []AddFrameCall
	EndCalled     bool
	AbortCalled   bool
}

// AddFrameCall records a call to AddFrame.
type AddFrameCall struct {
	Size    ports.Size
	DelayMs int
}

func (m *ContainerWriter) Begin(width, height int) error {
	m.BeginCalled = true
	m.Width, m.Height = width, height
	if m.BeginFunc != nil {
		return m.BeginFunc(width, height)
	}
	return nil
}

func (m *ContainerWriter) AddFrame(img image.Image, delayMs int) error {
	b := img.Bounds()
	m.AddFrameCalls = append(m.AddFrameCalls, AddFrameCall{Size: ports.Size{Width: b.Dx(), Height: b.Dy()}, DelayMs: delayMs})
	if m.AddFrameFunc != nil {
		return m.AddFrameFunc(img, delayMs)
	}
	return nil
}

func (m *ContainerWriter) End() ([]byte, error) {
	m.EndCalled = true
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	return []byte("container"), nil
}

func (m *ContainerWriter) Abort() {
	m.AbortCalled = true
}

var _ ports.ContainerWriter = (*ContainerWriter)(nil)
