package ports

import (
	"context"
	"image"
)

// DecodeConstraints bounds the size of a decoded image.
// A zero value means no bound; larger images are downscaled to fit.
type DecodeConstraints struct {
	MaxWidth  int
	MaxHeight int
}

// ImageDecoder abstracts decoding a single still image.
type ImageDecoder interface {
	// Decode decodes data into an image, honouring the constraints.
	// Animated inputs yield their first frame.
	Decode(ctx context.Context, data []byte, constraints DecodeConstraints) (image.Image, error)
}

// ImageEncoder abstracts encoding a single still image.
type ImageEncoder interface {
	// Encode encodes img in the given format at the given quality.
	Encode(ctx context.Context, img image.Image, format ImageFormat, quality Quality) ([]byte, error)
}

// DecodedFrame is one fully composited frame read from a container.
type DecodedFrame struct {
	Image   image.Image
	DelayMs int
}

// ContainerReader yields the frames of a multi-frame container in order.
type ContainerReader interface {
	// Next returns the next frame, or io.EOF after the last one.
	Next() (DecodedFrame, error)

	// FrameCount returns the number of frames, or -1 when unknown.
	FrameCount() int

	// Close releases resources held by the reader.
	Close() error
}

// ContainerOptions configures a ContainerWriter.
type ContainerOptions struct {
	Quality   Quality
	LoopCount int // 0 loops forever
}

// ContainerWriter assembles frames into a multi-frame container.
// Nothing is produced until End succeeds.
type ContainerWriter interface {
	// Begin fixes the canvas size of the container.
	Begin(width, height int) error

	// AddFrame appends a frame of the canvas size.
	AddFrame(img image.Image, delayMs int) error

	// End finalizes the container and returns its bytes.
	End() ([]byte, error)

	// Abort discards everything written so far.
	Abort()
}

// ContainerCodec opens readers and writers for multi-frame formats.
type ContainerCodec interface {
	// NewReader opens a reader over container data.
	NewReader(ctx context.Context, data []byte) (ContainerReader, error)

	// NewWriter creates a writer producing the given format.
	NewWriter(format ImageFormat, opts ContainerOptions) (ContainerWriter, error)
}
