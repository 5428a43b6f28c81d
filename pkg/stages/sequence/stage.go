package sequence

import (
	"context"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// Stage drains an Iterator, adapting the Sequencer to pipeline.Stage.
// On failure the frames already written are removed.
type Stage struct {
	seq *Sequencer
}

// NewStage creates a Stage.
func NewStage(seq *Sequencer) *Stage {
	return &Stage{seq: seq}
}

// Execute extracts every frame of input.SourceRef.
func (s *Stage) Execute(ctx context.Context, input pipeline.ExtractInput) (pipeline.ExtractResult, error) {
	it, err := s.seq.Extract(ctx, input.SourceRef, input.Format, input.Quality)
	if err != nil {
		return pipeline.ExtractResult{}, err
	}
	defer it.Close()

	var frames []pipeline.FrameRef
	if n := it.Total(); n > 0 {
		frames = make([]pipeline.FrameRef, 0, n)
	}
	for it.Next(ctx) {
		f := it.Frame()
		frames = append(frames, f)
		if input.OnFrame != nil {
			input.OnFrame(f)
		}
	}
	if err := it.Err(); err != nil {
		removeFrames(s.seq.storage, s.seq.logger, frames)
		return pipeline.ExtractResult{}, err
	}

	s.seq.logger.Debug("Extracted %d frames", len(frames))
	return pipeline.ExtractResult{Frames: frames}, nil
}

// removeFrames deletes frames from storage, logging failures.
func removeFrames(storage ports.Storage, logger ports.Logger, frames []pipeline.FrameRef) {
	for _, f := range frames {
		if err := storage.Remove(context.Background(), f.Ref); err != nil {
			logger.Warn("Failed to remove %s: %v", f.Ref, err)
		}
	}
}

var _ pipeline.Stage[pipeline.ExtractInput, pipeline.ExtractResult] = (*Stage)(nil)
