package transform

import (
	"context"
	"fmt"

	"github.com/user/framekit/pkg/filters"
	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// FramesInput is the input of FramesStage.
type FramesInput struct {
	Frames []pipeline.FrameRef
	Chain  []filters.Filter
	// Size resizes every frame before filtering when non-zero.
	Size    ports.Size
	Format  ports.ImageFormat
	Quality ports.Quality
	// Name is the base name of the filtered frames.
	Name string
}

// FramesResult lists the filtered frames in input order.
type FramesResult struct {
	Frames []pipeline.FrameRef
}

// FramesStage applies one chain to every stored frame of a sequence.
// Frames are processed in order; the first failure aborts the stage and
// removes the frames it already wrote.
type FramesStage struct {
	transformer *Transformer
	storage     ports.Storage
	decoder     ports.ImageDecoder
	encoder     ports.ImageEncoder
	logger      ports.Logger
}

// NewFramesStage creates a FramesStage.
func NewFramesStage(transformer *Transformer, storage ports.Storage, decoder ports.ImageDecoder, encoder ports.ImageEncoder, logger ports.Logger) *FramesStage {
	return &FramesStage{
		transformer: transformer,
		storage:     storage,
		decoder:     decoder,
		encoder:     encoder,
		logger:      logger.WithComponent("transform"),
	}
}

// Execute filters all frames.
func (s *FramesStage) Execute(ctx context.Context, input FramesInput) (FramesResult, error) {
	out := make([]pipeline.FrameRef, 0, len(input.Frames))
	if len(input.Chain) == 0 && input.Size.IsZero() {
		return FramesResult{Frames: append(out, input.Frames...)}, nil
	}

	s.logger.Debug("Filtering %d frames with %d filters", len(input.Frames), len(input.Chain))

	for i, f := range input.Frames {
		ref, err := s.filterFrame(ctx, input, i, f)
		if err != nil {
			s.cleanup(out)
			return FramesResult{}, err
		}
		out = append(out, pipeline.FrameRef{Index: f.Index, Ref: ref, DelayMs: f.DelayMs})
	}
	return FramesResult{Frames: out}, nil
}

func (s *FramesStage) filterFrame(ctx context.Context, input FramesInput, i int, f pipeline.FrameRef) (string, error) {
	op := fmt.Sprintf("filter frame %d", f.Index)
	if err := pipeline.Cancelled(ctx, op); err != nil {
		return "", err
	}

	data, err := s.storage.Read(ctx, f.Ref)
	if err != nil {
		return "", pipeline.Wrap(pipeline.KindUnreachableReference, op, err)
	}
	img, err := s.decoder.Decode(ctx, data, ports.DecodeConstraints{})
	if err != nil {
		return "", pipeline.Wrap(pipeline.KindDecodeFailure, op, err)
	}
	img, err = s.transformer.TransformToSize(ctx, img, input.Chain, input.Size)
	if err != nil {
		return "", pipeline.Wrap(pipeline.KindUnknown, op, err)
	}
	encoded, err := s.encoder.Encode(ctx, img, input.Format, input.Quality)
	if err != nil {
		return "", pipeline.Wrap(pipeline.KindEncodeFailure, op, err)
	}
	name := fmt.Sprintf("%s_filtered_%04d%s", input.Name, i+1, input.Format.Extension())
	return s.storage.Write(ctx, name, encoded)
}

func (s *FramesStage) cleanup(frames []pipeline.FrameRef) {
	for _, f := range frames {
		if err := s.storage.Remove(context.Background(), f.Ref); err != nil {
			s.logger.Warn("Failed to remove %s: %v", f.Ref, err)
		}
	}
}

var _ pipeline.Stage[FramesInput, FramesResult] = (*FramesStage)(nil)
