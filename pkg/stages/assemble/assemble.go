// Package assemble builds a multi-frame container from stored frames.
package assemble

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// Stage assembles frames into a container. Frames are appended strictly in
// input order; any failure discards the whole container.
type Stage struct {
	storage  ports.Storage
	decoder  ports.ImageDecoder
	codec    ports.ContainerCodec
	renderer ports.Renderer
	logger   ports.Logger
}

// NewStage creates a new assemble stage.
func NewStage(storage ports.Storage, decoder ports.ImageDecoder, codec ports.ContainerCodec, renderer ports.Renderer, logger ports.Logger) *Stage {
	return &Stage{
		storage:  storage,
		decoder:  decoder,
		codec:    codec,
		renderer: renderer,
		logger:   logger.WithComponent("assemble"),
	}
}

// Execute assembles input.Frames and writes the container to storage under
// input.Name. Nothing is written unless every frame was appended.
func (s *Stage) Execute(ctx context.Context, input pipeline.AssembleInput) (pipeline.AssembleResult, error) {
	var writer ports.ContainerWriter
	fail := func(err error) (pipeline.AssembleResult, error) {
		if writer != nil {
			writer.Abort()
		}
		s.logger.Warn("Container %s aborted: %v", input.Name, err)
		if input.OnFailure != nil {
			input.OnFailure(err)
		}
		return pipeline.AssembleResult{}, err
	}

	if len(input.Frames) == 0 {
		return fail(pipeline.NewError(pipeline.KindInvalidParameter, "assemble", fmt.Errorf("no frames")))
	}
	if input.Name == "" {
		return fail(pipeline.NewError(pipeline.KindInvalidParameter, "assemble", fmt.Errorf("output name required")))
	}
	if c := input.Params.Canvas; c != nil && (c.Width <= 0 || c.Height <= 0) {
		return fail(pipeline.NewError(pipeline.KindInvalidParameter, "assemble", fmt.Errorf("invalid canvas %dx%d", c.Width, c.Height)))
	}

	w, err := s.codec.NewWriter(input.Params.Format, ports.ContainerOptions{
		Quality:   input.Params.Quality,
		LoopCount: input.Params.LoopCount,
	})
	if err != nil {
		return fail(pipeline.Wrap(pipeline.KindEncodeFailure, "assemble", err))
	}
	writer = w

	s.logger.Debug("Assembling %d frames into %s", len(input.Frames), input.Params.Format)

	var canvas ports.Size
	for i, f := range input.Frames {
		op := fmt.Sprintf("frame %d", i)
		if err := pipeline.Cancelled(ctx, op); err != nil {
			return fail(err)
		}

		img, err := s.loadFrame(ctx, f)
		if err != nil {
			return fail(pipeline.Wrap(pipeline.KindDecodeFailure, op, err))
		}

		if i == 0 {
			canvas = s.canvasSize(input.Params, img)
			if err := writer.Begin(canvas.Width, canvas.Height); err != nil {
				return fail(pipeline.Wrap(pipeline.KindEncodeFailure, "begin", err))
			}
		}

		if err := writer.AddFrame(s.fitToCanvas(img, canvas), frameDelay(f, input.Params)); err != nil {
			return fail(pipeline.Wrap(pipeline.KindEncodeFailure, op, err))
		}
		if input.OnProgress != nil {
			input.OnProgress(i + 1)
		}
	}

	if err := pipeline.Cancelled(ctx, "finalize"); err != nil {
		return fail(err)
	}
	data, err := writer.End()
	if err != nil {
		return fail(pipeline.Wrap(pipeline.KindEncodeFailure, "finalize", err))
	}
	ref, err := s.storage.Write(ctx, input.Name, data)
	if err != nil {
		return fail(pipeline.Wrap(pipeline.KindUnknown, "write container", err))
	}

	s.logger.Debug("Container %s written: %d bytes", ref, len(data))
	return pipeline.AssembleResult{
		Ref:        ref,
		FrameCount: len(input.Frames),
		Width:      canvas.Width,
		Height:     canvas.Height,
		Bytes:      len(data),
	}, nil
}

func (s *Stage) loadFrame(ctx context.Context, f pipeline.FrameRef) (image.Image, error) {
	data, err := s.storage.Read(ctx, f.Ref)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.KindUnreachableReference, "read "+f.Ref, err)
	}
	return s.decoder.Decode(ctx, data, ports.DecodeConstraints{})
}

func (s *Stage) canvasSize(params pipeline.ContainerParams, first image.Image) ports.Size {
	if params.Canvas != nil {
		return *params.Canvas
	}
	b := first.Bounds()
	return ports.Size{Width: b.Dx(), Height: b.Dy()}
}

// fitToCanvas scales img to fit the canvas keeping its aspect ratio and
// centres it on a transparent background.
func (s *Stage) fitToCanvas(img image.Image, canvas ports.Size) image.Image {
	b := img.Bounds()
	if b.Dx() == canvas.Width && b.Dy() == canvas.Height {
		return img
	}
	scale := math.Min(float64(canvas.Width)/float64(b.Dx()), float64(canvas.Height)/float64(b.Dy()))
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))

	c := s.renderer.CreateCanvas(canvas.Width, canvas.Height, nil)
	c.DrawImageScaled(img, (canvas.Width-w)/2, (canvas.Height-h)/2, w, h)
	return c.ToImage()
}

func frameDelay(f pipeline.FrameRef, params pipeline.ContainerParams) int {
	switch {
	case f.DelayMs > 0:
		return f.DelayMs
	case params.DelayMs > 0:
		return params.DelayMs
	}
	return pipeline.DefaultDelayMs
}

var _ pipeline.Stage[pipeline.AssembleInput, pipeline.AssembleResult] = (*Stage)(nil)
