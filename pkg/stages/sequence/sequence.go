// Package sequence extracts the frames of a multi-frame container one at a
// time, persisting each before the next is decoded.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// Sequencer opens frame iterators over stored containers.
type Sequencer struct {
	storage ports.Storage
	codec   ports.ContainerCodec
	encoder ports.ImageEncoder
	logger  ports.Logger
}

// New creates a Sequencer.
func New(storage ports.Storage, codec ports.ContainerCodec, encoder ports.ImageEncoder, logger ports.Logger) *Sequencer {
	return &Sequencer{
		storage: storage,
		codec:   codec,
		encoder: encoder,
		logger:  logger.WithComponent("sequence"),
	}
}

// Extract opens containerRef and returns an iterator over its frames.
// Every frame is encoded to format at quality and written to storage as
// <base>_frame_NNNN<ext> when the consumer asks for it.
func (s *Sequencer) Extract(ctx context.Context, containerRef string, format ports.ImageFormat, quality ports.Quality) (*Iterator, error) {
	if format == ports.FormatUnknown {
		return nil, pipeline.NewError(pipeline.KindInvalidParameter, "extract", fmt.Errorf("target format required"))
	}
	if err := pipeline.Cancelled(ctx, "extract"); err != nil {
		return nil, err
	}

	data, err := s.storage.Read(ctx, containerRef)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.KindUnreachableReference, "extract", err)
	}
	reader, err := s.codec.NewReader(ctx, data)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.KindDecodeFailure, "extract", err)
	}

	s.logger.Debug("Extracting frames from %s", containerRef)
	return &Iterator{
		seq:     s,
		reader:  reader,
		base:    baseName(containerRef),
		format:  format,
		quality: quality,
	}, nil
}

// Iterator is a finite, forward-only sequence of persisted frames.
// It is not safe for concurrent use and cannot be restarted.
type Iterator struct {
	seq     *Sequencer
	reader  ports.ContainerReader
	base    string
	format  ports.ImageFormat
	quality ports.Quality

	index int
	frame pipeline.FrameRef
	err   error
	done  bool
}

// Next decodes, encodes and persists the next frame. It returns false at the
// end of the sequence or on error; check Err afterwards. Cancellation is
// observed before any work on the frame starts.
func (it *Iterator) Next(ctx context.Context) bool {
	if it.done {
		return false
	}
	if err := pipeline.Cancelled(ctx, "next frame"); err != nil {
		return it.fail(err)
	}

	decoded, err := it.reader.Next()
	if errors.Is(err, io.EOF) {
		it.finish()
		return false
	}
	if err != nil {
		return it.fail(pipeline.Wrap(pipeline.KindDecodeFailure, fmt.Sprintf("frame %d", it.index), err))
	}

	data, err := it.seq.encoder.Encode(ctx, decoded.Image, it.format, it.quality)
	if err != nil {
		return it.fail(pipeline.Wrap(pipeline.KindEncodeFailure, fmt.Sprintf("frame %d", it.index), err))
	}

	name := fmt.Sprintf("%s_frame_%04d%s", it.base, it.index+1, it.format.Extension())
	ref, err := it.seq.storage.Write(ctx, name, data)
	if err != nil {
		return it.fail(pipeline.Wrap(pipeline.KindUnknown, fmt.Sprintf("frame %d", it.index), err))
	}

	delay := decoded.DelayMs
	if delay <= 0 {
		delay = pipeline.DefaultDelayMs
	}
	it.frame = pipeline.FrameRef{Index: it.index, Ref: ref, DelayMs: delay}
	it.index++
	return true
}

// Frame returns the frame produced by the last successful Next.
func (it *Iterator) Frame() pipeline.FrameRef {
	return it.frame
}

// Err returns the error that stopped the iterator, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Total returns the number of frames in the container, or -1 when unknown.
func (it *Iterator) Total() int {
	if it.reader == nil {
		return -1
	}
	return it.reader.FrameCount()
}

// Close releases the container reader. It is safe to call more than once.
func (it *Iterator) Close() error {
	it.done = true
	if it.reader == nil {
		return nil
	}
	err := it.reader.Close()
	it.reader = nil
	return err
}

func (it *Iterator) fail(err error) bool {
	it.err = err
	it.finish()
	return false
}

func (it *Iterator) finish() {
	if err := it.Close(); err != nil {
		it.seq.logger.Warn("Failed to close container reader: %v", err)
	}
}

func baseName(ref string) string {
	base := path.Base(strings.ReplaceAll(ref, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
