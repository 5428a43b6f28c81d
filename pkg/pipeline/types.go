package pipeline

import (
	"image"

	"github.com/user/framekit/pkg/ports"
)

// =============================================================================
// Common Types
// =============================================================================

// ImageInfo describes an image together with its intended encoding.
type ImageInfo struct {
	Width   int
	Height  int
	Format  ports.ImageFormat
	Quality ports.Quality
}

// Size returns the dimensions of the info.
func (i ImageInfo) Size() ports.Size {
	return ports.Size{Width: i.Width, Height: i.Height}
}

// Frame is a decoded frame held in memory.
type Frame struct {
	Index   int
	Image   image.Image
	DelayMs int
}

// FrameRef points at a persisted frame.
type FrameRef struct {
	Index   int
	Ref     string
	DelayMs int
}

// ContainerParams configures the container produced from a frame sequence.
type ContainerParams struct {
	Format    ports.ImageFormat
	Quality   ports.Quality
	DelayMs   int // default delay for frames without their own
	LoopCount int // 0 loops forever

	// Canvas overrides the container size. When nil the first frame's size is used.
	Canvas *ports.Size
}

// DefaultDelayMs is the frame delay used when neither frame nor params carry one.
const DefaultDelayMs = 100

// =============================================================================
// Extract Stage Types
// =============================================================================

// ExtractInput is the input of the frame extraction stage.
type ExtractInput struct {
	SourceRef string
	Format    ports.ImageFormat
	Quality   ports.Quality

	// OnFrame is called after each frame is persisted.
	OnFrame func(frame FrameRef)
}

// ExtractResult lists the persisted frames in container order.
type ExtractResult struct {
	Frames []FrameRef
}

// =============================================================================
// Assemble Stage Types
// =============================================================================

// AssembleInput is the input of the container assembly stage.
type AssembleInput struct {
	Frames []FrameRef
	Params ContainerParams

	// Name is the storage name of the produced artifact.
	Name string

	// OnProgress is called once per appended frame with the number appended so far.
	OnProgress func(done int)

	// OnFailure is called once when assembly fails.
	OnFailure func(err error)
}

// AssembleResult describes a produced container.
type AssembleResult struct {
	Ref        string
	FrameCount int
	Width      int
	Height     int
	Bytes      int
}
