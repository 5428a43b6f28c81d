// Package codecs dispatches image and container operations to the adapters
// registered for each format.
package codecs

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sort"
	"sync"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// ErrUnsupportedFormat is returned when no adapter handles a format.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Registry is a thread-safe format-to-adapter table. It implements
// ports.ImageDecoder, ports.ImageEncoder and ports.ContainerCodec.
type Registry struct {
	mu         sync.RWMutex
	decoders   map[ports.ImageFormat]ports.ImageDecoder
	encoders   map[ports.ImageFormat]ports.ImageEncoder
	containers map[ports.ImageFormat]ports.ContainerCodec
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		decoders:   make(map[ports.ImageFormat]ports.ImageDecoder),
		encoders:   make(map[ports.ImageFormat]ports.ImageEncoder),
		containers: make(map[ports.ImageFormat]ports.ContainerCodec),
	}
}

// RegisterDecoder routes decoding of the given formats to d.
func (r *Registry) RegisterDecoder(d ports.ImageDecoder, formats ...ports.ImageFormat) {
	r.mu.Lock()
	for _, f := range formats {
		r.decoders[f] = d
	}
	r.mu.Unlock()
}

// RegisterEncoder routes encoding of the given formats to e.
func (r *Registry) RegisterEncoder(e ports.ImageEncoder, formats ...ports.ImageFormat) {
	r.mu.Lock()
	for _, f := range formats {
		r.encoders[f] = e
	}
	r.mu.Unlock()
}

// RegisterContainer routes multi-frame reading and writing of the given formats to c.
func (r *Registry) RegisterContainer(c ports.ContainerCodec, formats ...ports.ImageFormat) {
	r.mu.Lock()
	for _, f := range formats {
		r.containers[f] = c
	}
	r.mu.Unlock()
}

// DecoderFor returns the decoder registered for f.
func (r *Registry) DecoderFor(f ports.ImageFormat) (ports.ImageDecoder, bool) {
	r.mu.RLock()
	d, ok := r.decoders[f]
	r.mu.RUnlock()
	return d, ok
}

// EncoderFor returns the encoder registered for f.
func (r *Registry) EncoderFor(f ports.ImageFormat) (ports.ImageEncoder, bool) {
	r.mu.RLock()
	e, ok := r.encoders[f]
	r.mu.RUnlock()
	return e, ok
}

// ContainerFor returns the container codec registered for f.
func (r *Registry) ContainerFor(f ports.ImageFormat) (ports.ContainerCodec, bool) {
	r.mu.RLock()
	c, ok := r.containers[f]
	r.mu.RUnlock()
	return c, ok
}

// EncodableFormats returns the formats with a registered encoder, sorted.
func (r *Registry) EncodableFormats() []ports.ImageFormat {
	r.mu.RLock()
	defer r.mu.RUnlock()
	formats := make([]ports.ImageFormat, 0, len(r.encoders))
	for f := range r.encoders {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Decode detects the format of data and decodes it with the matching decoder.
func (r *Registry) Decode(ctx context.Context, data []byte, constraints ports.DecodeConstraints) (image.Image, error) {
	format := DetectFormat(data)
	d, ok := r.DecoderFor(format)
	if !ok && format == ports.FormatAPNG {
		d, ok = r.DecoderFor(ports.FormatPNG)
	}
	if !ok {
		return nil, pipeline.NewError(pipeline.KindDecodeFailure, "decode",
			fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, format, pipeline.ErrDecode))
	}
	return d.Decode(ctx, data, constraints)
}

// Encode encodes img with the encoder registered for format.
func (r *Registry) Encode(ctx context.Context, img image.Image, format ports.ImageFormat, quality ports.Quality) ([]byte, error) {
	e, ok := r.EncoderFor(format)
	if !ok {
		return nil, pipeline.NewError(pipeline.KindEncodeFailure, "encode "+format.String(),
			fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, format, pipeline.ErrEncode))
	}
	return e.Encode(ctx, img, format, quality)
}

// NewReader opens a frame reader over data. Formats without a registered
// container codec are decoded as a single frame.
func (r *Registry) NewReader(ctx context.Context, data []byte) (ports.ContainerReader, error) {
	format := DetectFormat(data)
	if c, ok := r.ContainerFor(format); ok {
		return c.NewReader(ctx, data)
	}
	if format == ports.FormatPNG {
		// Plain PNG is the still form of APNG.
		if c, ok := r.ContainerFor(ports.FormatAPNG); ok {
			return c.NewReader(ctx, data)
		}
	}

	img, err := r.Decode(ctx, data, ports.DecodeConstraints{})
	if err != nil {
		return nil, err
	}
	return &stillReader{img: img}, nil
}

// NewWriter creates a container writer for format.
func (r *Registry) NewWriter(format ports.ImageFormat, opts ports.ContainerOptions) (ports.ContainerWriter, error) {
	c, ok := r.ContainerFor(format)
	if !ok {
		return nil, pipeline.NewError(pipeline.KindEncodeFailure, "new writer",
			fmt.Errorf("%w: %s is not a container format", ErrUnsupportedFormat, format))
	}
	return c.NewWriter(format, opts)
}

// stillReader yields a single decoded image.
type stillReader struct {
	img  image.Image
	done bool
}

func (s *stillReader) Next() (ports.DecodedFrame, error) {
	if s.done {
		return ports.DecodedFrame{}, io.EOF
	}
	s.done = true
	return ports.DecodedFrame{Image: s.img}, nil
}

func (s *stillReader) FrameCount() int { return 1 }

func (s *stillReader) Close() error { return nil }

var (
	_ ports.ImageDecoder   = (*Registry)(nil)
	_ ports.ImageEncoder   = (*Registry)(nil)
	_ ports.ContainerCodec = (*Registry)(nil)
)
