package summarizer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/user/framekit/pkg/orchestrator"
	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
	"github.com/user/framekit/pkg/stages/batch"
)

// Summary contains everything reported about one invocation.
type Summary struct {
	// Metadata
	GeneratedAt time.Time
	Version     string

	// Job settings
	Job JobInfo

	// Batch totals
	Totals Totals

	// Failed items in the order they were reported
	Failures []Failure

	// Filtered animations
	Runs []RunInfo
}

// JobInfo describes the requested conversion.
type JobInfo struct {
	ID      string
	Format  string
	Quality string
}

// Totals counts the items of a batch.
type Totals struct {
	Requested int
	Succeeded int
	Failed    int
	Bytes     int64
	Elapsed   time.Duration
}

// Failure describes one failed item.
type Failure struct {
	Ref     string
	Kind    pipeline.ErrorKind
	Message string
}

// RunInfo describes one filtered animation.
type RunInfo struct {
	Source     string
	Output     string
	Format     string
	FrameCount int
	Width      int
	Height     int
	Bytes      int64
	Filters    []string
	Elapsed    time.Duration
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithVersion sets the version of the producing binary.
func (b *Builder) WithVersion(version string) *Builder {
	b.summary.Version = version
	return b
}

// WithJob sets the conversion settings.
func (b *Builder) WithJob(id string, format ports.ImageFormat, quality ports.Quality) *Builder {
	b.summary.Job = JobInfo{
		ID:      id,
		Format:  format.String(),
		Quality: describeQuality(quality),
	}
	return b
}

// WithBatch records the totals and failures of a batch report. messages
// turns failures into user text; when nil the raw error text is used.
func (b *Builder) WithBatch(report batch.Report, elapsed time.Duration, messages ports.Strings) *Builder {
	b.summary.Job.ID = report.JobID
	b.summary.Totals = Totals{
		Requested: report.Requested,
		Succeeded: report.Succeeded,
		Failed:    len(report.Failed),
		Bytes:     report.Bytes,
		Elapsed:   elapsed,
	}
	for _, f := range report.Failed {
		msg := f.Err.Error()
		if messages != nil {
			msg = messages.Message(f.Err)
		}
		b.summary.Failures = append(b.summary.Failures, Failure{
			Ref:     f.Ref,
			Kind:    pipeline.KindOf(f.Err),
			Message: msg,
		})
	}
	return b
}

// AddRun records a filtered animation.
func (b *Builder) AddRun(result orchestrator.RunResult) *Builder {
	b.summary.Runs = append(b.summary.Runs, RunInfo{
		Source:     result.SourceRef,
		Output:     result.OutputRef,
		Format:     result.Format.String(),
		FrameCount: result.FrameCount,
		Width:      result.Width,
		Height:     result.Height,
		Bytes:      result.Bytes,
		Filters:    result.Filters,
		Elapsed:    result.Elapsed,
	})
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}

func describeQuality(q ports.Quality) string {
	switch v := q.(type) {
	case nil:
		return "default"
	case ports.LosslessQuality:
		return "lossless"
	case ports.WebPQuality:
		if v.Lossless {
			return "lossless"
		}
		return strconv.Itoa(v.Value)
	case ports.JxlQuality:
		if v.Lossless {
			return "lossless"
		}
		return fmt.Sprintf("%d (effort %d)", v.Value, v.Effort)
	default:
		return strconv.Itoa(q.Level())
	}
}
