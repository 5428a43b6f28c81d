// Package orchestrator coordinates the stages that filter an animated container.
package orchestrator

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/user/framekit/pkg/filters"
	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
	"github.com/user/framekit/pkg/stages/transform"
)

// Config contains all configuration for one run.
type Config struct {
	// Input
	SourceRef string

	// Filtering
	Chain []filters.Filter
	Size  ports.Size // zero keeps the frame size

	// Intermediate frames
	FrameFormat  ports.ImageFormat
	FrameQuality ports.Quality

	// Output
	Params     pipeline.ContainerParams
	OutputName string
	KeepFrames bool

	// Progress
	OnProgress func(stage string, done, total int)
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		FrameFormat:  ports.FormatPNG,
		FrameQuality: ports.LosslessQuality{},
		Params: pipeline.ContainerParams{
			Format:  ports.FormatAPNG,
			Quality: ports.LosslessQuality{},
			DelayMs: pipeline.DefaultDelayMs,
		},
	}
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	extractStage  pipeline.Stage[pipeline.ExtractInput, pipeline.ExtractResult]
	filterStage   pipeline.Stage[transform.FramesInput, transform.FramesResult]
	assembleStage pipeline.Stage[pipeline.AssembleInput, pipeline.AssembleResult]
	storage       ports.Storage
	logger        ports.Logger
}

// New creates a new Orchestrator.
func New(
	extractStage pipeline.Stage[pipeline.ExtractInput, pipeline.ExtractResult],
	filterStage pipeline.Stage[transform.FramesInput, transform.FramesResult],
	assembleStage pipeline.Stage[pipeline.AssembleInput, pipeline.AssembleResult],
	storage ports.Storage,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		extractStage:  extractStage,
		filterStage:   filterStage,
		assembleStage: assembleStage,
		storage:       storage,
		logger:        logger,
	}
}

// Run executes the complete pipeline. Intermediate frames are removed
// afterwards unless config.KeepFrames is set, whether or not the run succeeds.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	start := time.Now()
	o.logger.Info("Starting pipeline")

	if config.OutputName == "" {
		return RunResult{}, pipeline.NewError(pipeline.KindInvalidParameter, "run", fmt.Errorf("output name is required"))
	}
	if config.FrameFormat == ports.FormatUnknown {
		config.FrameFormat = ports.FormatPNG
	}
	if config.FrameQuality == nil {
		config.FrameQuality = ports.LosslessQuality{}
	}

	var intermediates []pipeline.FrameRef
	defer func() {
		if !config.KeepFrames {
			o.removeFrames(intermediates)
		}
	}()

	// 1. Extract frames
	o.logger.Info("Extracting frames from %s", config.SourceRef)
	extracted, err := o.extractStage.Execute(ctx, o.buildExtractInput(config))
	if err != nil {
		o.logger.Error("Failed to extract frames: %s", err)
		return RunResult{}, fmt.Errorf("extract stage: %w", err)
	}
	intermediates = append(intermediates, extracted.Frames...)
	o.logger.Info("Extracted %d frames", len(extracted.Frames))

	// 2. Filter frames
	o.logger.Info("Applying %d filters to %d frames", len(config.Chain), len(extracted.Frames))
	filtered, err := o.filterStage.Execute(ctx, o.buildFramesInput(config, extracted))
	if err != nil {
		o.logger.Error("Failed to filter frames: %s", err)
		return RunResult{}, fmt.Errorf("filter stage: %w", err)
	}
	intermediates = appendNew(intermediates, filtered.Frames)

	// 3. Assemble container
	o.logger.Info("Assembling %s with %d frames", config.Params.Format, len(filtered.Frames))
	assembled, err := o.assembleStage.Execute(ctx, o.buildAssembleInput(config, filtered))
	if err != nil {
		o.logger.Error("Failed to assemble container: %s", err)
		return RunResult{}, fmt.Errorf("assemble stage: %w", err)
	}

	o.logger.Info("Output saved to %s", assembled.Ref)
	o.logger.Info("Pipeline completed successfully")

	return RunResult{
		SourceRef:  config.SourceRef,
		OutputRef:  assembled.Ref,
		Format:     config.Params.Format,
		FrameCount: assembled.FrameCount,
		Width:      assembled.Width,
		Height:     assembled.Height,
		Bytes:      int64(assembled.Bytes),
		Filters:    filterKinds(config.Chain),
		Elapsed:    time.Since(start),
	}, nil
}

func (o *Orchestrator) buildExtractInput(config Config) pipeline.ExtractInput {
	input := pipeline.ExtractInput{
		SourceRef: config.SourceRef,
		Format:    config.FrameFormat,
		Quality:   config.FrameQuality,
	}
	if config.OnProgress != nil {
		n := 0
		input.OnFrame = func(pipeline.FrameRef) {
			n++
			config.OnProgress("extract", n, 0)
		}
	}
	return input
}

func (o *Orchestrator) buildFramesInput(config Config, extracted pipeline.ExtractResult) transform.FramesInput {
	return transform.FramesInput{
		Frames:  extracted.Frames,
		Chain:   config.Chain,
		Size:    config.Size,
		Format:  config.FrameFormat,
		Quality: config.FrameQuality,
		Name:    strings.TrimSuffix(config.OutputName, path.Ext(config.OutputName)),
	}
}

func (o *Orchestrator) buildAssembleInput(config Config, filtered transform.FramesResult) pipeline.AssembleInput {
	input := pipeline.AssembleInput{
		Frames: filtered.Frames,
		Params: config.Params,
		Name:   config.OutputName,
	}
	if config.OnProgress != nil {
		total := len(filtered.Frames)
		input.OnProgress = func(done int) {
			config.OnProgress("assemble", done, total)
		}
	}
	return input
}

// removeFrames deletes intermediate frames, logging failures.
func (o *Orchestrator) removeFrames(frames []pipeline.FrameRef) {
	for _, f := range frames {
		if err := o.storage.Remove(context.Background(), f.Ref); err != nil {
			o.logger.Warn("Failed to remove %s: %v", f.Ref, err)
		}
	}
}

// appendNew appends the frames of add whose refs are not yet in frames.
// An empty chain passes the extracted frames through unchanged.
func appendNew(frames, add []pipeline.FrameRef) []pipeline.FrameRef {
	seen := make(map[string]bool, len(frames))
	for _, f := range frames {
		seen[f.Ref] = true
	}
	for _, f := range add {
		if !seen[f.Ref] {
			frames = append(frames, f)
		}
	}
	return frames
}

func filterKinds(chain []filters.Filter) []string {
	kinds := make([]string, len(chain))
	for i, f := range chain {
		kinds[i] = string(f.Kind())
	}
	return kinds
}

// RunResult contains the results of a pipeline run for summary generation.
type RunResult struct {
	SourceRef string
	OutputRef string
	Format    ports.ImageFormat

	// Container information
	FrameCount int
	Width      int
	Height     int
	Bytes      int64

	// Filter kinds in chain order
	Filters []string

	Elapsed time.Duration
}
