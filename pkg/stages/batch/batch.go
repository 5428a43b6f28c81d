// Package batch converts many containers independently on a worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"runtime"
	"strings"
	"sync"

	"github.com/docker/go-units"
	"github.com/google/uuid"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// Job describes a batch conversion.
type Job struct {
	SourceRefs []string
	Format     ports.ImageFormat
	Quality    ports.Quality
	LoopCount  int
	// DelayMs is used for frames that carry no delay of their own.
	DelayMs int
}

// ItemError records the failure of one item.
type ItemError struct {
	Ref string
	Err error
}

// Report summarizes a finished batch.
type Report struct {
	JobID     string
	Requested int
	Succeeded int
	Failed    []ItemError
	Bytes     int64
}

// Options configures a Converter.
type Options struct {
	Workers       int
	MaxInputBytes int64 // 0 means no limit
}

// Converter runs batch jobs.
type Converter struct {
	storage ports.Storage
	codec   ports.ContainerCodec
	logger  ports.Logger
	opts    Options
}

// NewConverter creates a Converter. Workers defaults to runtime.NumCPU().
func NewConverter(storage ports.Storage, codec ports.ContainerCodec, logger ports.Logger, opts Options) *Converter {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Converter{
		storage: storage,
		codec:   codec,
		logger:  logger.WithComponent("batch"),
		opts:    opts,
	}
}

type itemResult struct {
	index int
	name  string
	data  []byte
	err   error
}

// ConvertMany converts every source of job to job.Format. Items fail
// independently; a failed item is logged and recorded in the report while
// the others continue. onItemDone receives each successful item as soon as
// it completes, from a single goroutine, so calls never overlap. Apart from
// a target format that cannot hold frames, only cancellation is returned as
// an error.
func (c *Converter) ConvertMany(ctx context.Context, job Job, onItemDone func(name string, data []byte)) (Report, error) {
	report := Report{JobID: uuid.NewString(), Requested: len(job.SourceRefs)}
	if !job.Format.Animated() {
		return report, pipeline.NewError(pipeline.KindInvalidParameter, "batch",
			fmt.Errorf("%s is not a container format", job.Format))
	}
	if len(job.SourceRefs) == 0 {
		return report, nil
	}

	numWorkers := min(c.opts.Workers, len(job.SourceRefs))
	c.logger.Debug("Batch %s: converting %d items to %s with %d workers", report.JobID, report.Requested, job.Format, numWorkers)

	jobs := make(chan int, len(job.SourceRefs))
	results := make(chan itemResult, numWorkers)

	// Start workers
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go c.worker(ctx, &wg, job, jobs, results)
	}

	// Send jobs
	for i := range job.SourceRefs {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in completion order
	for r := range results {
		ref := job.SourceRefs[r.index]
		if r.err != nil {
			if !pipeline.IsKind(r.err, pipeline.KindCancelled) {
				c.logger.Warn("Item %s failed: %v", ref, r.err)
			}
			report.Failed = append(report.Failed, ItemError{Ref: ref, Err: r.err})
			continue
		}
		report.Succeeded++
		report.Bytes += int64(len(r.data))
		if onItemDone != nil {
			onItemDone(r.name, r.data)
		}
	}

	if err := pipeline.Cancelled(ctx, "batch"); err != nil {
		return report, err
	}
	c.logger.Debug("Batch %s: %d of %d converted, %s", report.JobID, report.Succeeded, report.Requested, units.HumanSize(float64(report.Bytes)))
	return report, nil
}

// worker converts items from the jobs channel.
func (c *Converter) worker(ctx context.Context, wg *sync.WaitGroup, job Job, jobs <-chan int, results chan<- itemResult) {
	defer wg.Done()

	for idx := range jobs {
		select {
		case <-ctx.Done():
			results <- itemResult{index: idx, err: pipeline.Wrap(pipeline.KindCancelled, "batch item", ctx.Err())}
			continue
		default:
		}

		name, data, err := c.safeConvert(ctx, job, job.SourceRefs[idx])
		results <- itemResult{index: idx, name: name, data: data, err: err}
	}
}

// safeConvert runs convertOne and turns a panic in a codec into a failure of
// that item alone.
func (c *Converter) safeConvert(ctx context.Context, job Job, ref string) (name string, data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			name, data = "", nil
			err = pipeline.NewError(pipeline.KindDecodeFailure, "convert "+ref, fmt.Errorf("%w: panic: %v", pipeline.ErrDecode, r))
		}
	}()
	return c.convertOne(ctx, job, ref)
}

// convertOne re-encodes a single source. Still images yield one frame.
func (c *Converter) convertOne(ctx context.Context, job Job, ref string) (string, []byte, error) {
	data, err := c.storage.Read(ctx, ref)
	if err != nil {
		return "", nil, pipeline.Wrap(pipeline.KindUnreachableReference, "read "+ref, err)
	}
	if c.opts.MaxInputBytes > 0 && int64(len(data)) > c.opts.MaxInputBytes {
		return "", nil, pipeline.NewError(pipeline.KindResourceExhausted, "read "+ref,
			fmt.Errorf("%s exceeds %s", units.HumanSize(float64(len(data))), units.HumanSize(float64(c.opts.MaxInputBytes))))
	}

	reader, err := c.codec.NewReader(ctx, data)
	if err != nil {
		return "", nil, pipeline.Wrap(pipeline.KindDecodeFailure, "open "+ref, err)
	}
	defer reader.Close()

	writer, err := c.codec.NewWriter(job.Format, ports.ContainerOptions{Quality: job.Quality, LoopCount: job.LoopCount})
	if err != nil {
		return "", nil, pipeline.Wrap(pipeline.KindEncodeFailure, "convert "+ref, err)
	}

	done := false
	defer func() {
		if !done {
			writer.Abort()
		}
	}()

	out, err := c.transcode(ctx, job, reader, writer)
	if err != nil {
		return "", nil, pipeline.Wrap(pipeline.KindUnknown, "convert "+ref, err)
	}
	done = true
	return outputName(ref, job.Format), out, nil
}

func (c *Converter) transcode(ctx context.Context, job Job, reader ports.ContainerReader, writer ports.ContainerWriter) ([]byte, error) {
	for i := 0; ; i++ {
		if err := pipeline.Cancelled(ctx, fmt.Sprintf("frame %d", i)); err != nil {
			return nil, err
		}
		frame, err := reader.Next()
		if errors.Is(err, io.EOF) {
			if i == 0 {
				return nil, pipeline.NewError(pipeline.KindDecodeFailure, "read frames", fmt.Errorf("%w: no frames", pipeline.ErrDecode))
			}
			break
		}
		if err != nil {
			return nil, pipeline.Wrap(pipeline.KindDecodeFailure, fmt.Sprintf("frame %d", i), err)
		}

		if i == 0 {
			b := frame.Image.Bounds()
			if err := writer.Begin(b.Dx(), b.Dy()); err != nil {
				return nil, pipeline.Wrap(pipeline.KindEncodeFailure, "begin", err)
			}
		}
		delay := frame.DelayMs
		if delay <= 0 {
			delay = job.DelayMs
		}
		if delay <= 0 {
			delay = pipeline.DefaultDelayMs
		}
		if err := writer.AddFrame(frame.Image, delay); err != nil {
			return nil, pipeline.Wrap(pipeline.KindEncodeFailure, fmt.Sprintf("frame %d", i), err)
		}
	}

	data, err := writer.End()
	if err != nil {
		return nil, pipeline.Wrap(pipeline.KindEncodeFailure, "finalize", err)
	}
	return data, nil
}

func outputName(ref string, format ports.ImageFormat) string {
	base := path.Base(strings.ReplaceAll(ref, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base)) + format.Extension()
}
