// Package main provides the CLI entry point for framekit.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/framekit/pkg/orchestrator"
	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
	"github.com/user/framekit/pkg/stages/assemble"
	"github.com/user/framekit/pkg/stages/batch"
	"github.com/user/framekit/pkg/stages/cover"
	"github.com/user/framekit/pkg/stages/sequence"
	"github.com/user/framekit/pkg/stages/transform"
	"github.com/user/framekit/pkg/summarizer"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "framekit",
		Usage:   l10n.T("Apply filter chains and convert animated images"),
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("Configuration file (YAML or TOML)"), Category: l10n.T("Configuration")},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"O"}, Usage: l10n.T("Directory for output files"), Category: l10n.T("Output")},
			&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: l10n.T("Number of parallel workers (0 = number of CPUs)"), Category: l10n.T("Configuration")},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T("Logging")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T("Logging")},
		},
		Commands: []*cli.Command{
			filterCommand(),
			extractCommand(),
			coverCommand(),
			assembleCommand(),
			animateCommand(),
			convertCommand(),
			formatsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// encodingFlags are shared by the commands that produce images.
func encodingFlags(defaultFormat string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: defaultFormat, Usage: l10n.T("Output format (png, apng, jpeg, gif, webp, jxl, bmp, tiff)"), Category: l10n.T("Encoding")},
		&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Usage: l10n.T("Lossy quality (1-100)"), Category: l10n.T("Encoding")},
		&cli.IntFlag{Name: "effort", Usage: l10n.T("JPEG XL encoder effort (1-9)"), Category: l10n.T("Encoding")},
		&cli.BoolFlag{Name: "lossless", Usage: l10n.T("Encode losslessly where the format allows it"), Category: l10n.T("Encoding")},
	}
}

func containerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "delay", Usage: l10n.T("Frame delay in milliseconds for frames without one"), Category: l10n.T("Animation")},
		&cli.IntFlag{Name: "loop", Usage: l10n.T("Loop count (0 = forever)"), Category: l10n.T("Animation")},
	}
}

// withSignals returns a context cancelled on SIGINT or SIGTERM.
func withSignals(parent context.Context, log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// encoding resolves the encoding flags against the configuration.
func (r *env) encoding(c *cli.Context) (ports.ImageFormat, ports.Quality, error) {
	format, err := ports.ParseImageFormat(c.String("format"))
	if err != nil {
		return ports.FormatUnknown, nil, err
	}
	value, effort, lossless := r.cfg.Quality.Value, r.cfg.Quality.Effort, r.cfg.Quality.Lossless
	if c.IsSet("quality") {
		value = c.Int("quality")
	}
	if c.IsSet("effort") {
		effort = c.Int("effort")
	}
	if c.IsSet("lossless") {
		lossless = c.Bool("lossless")
	}
	return format, qualityFor(format, value, effort, lossless), nil
}

func (r *env) containerParams(c *cli.Context, format ports.ImageFormat, quality ports.Quality) pipeline.ContainerParams {
	params := pipeline.ContainerParams{
		Format:    format,
		Quality:   quality,
		DelayMs:   r.cfg.Container.DelayMs,
		LoopCount: r.cfg.Container.LoopCount,
	}
	if c.IsSet("delay") {
		params.DelayMs = c.Int("delay")
	}
	if c.IsSet("loop") {
		params.LoopCount = c.Int("loop")
	}
	return params
}

// outputName defaults to the input's base name with the format's extension.
func outputName(c *cli.Context, input string, format ports.ImageFormat) string {
	if name := c.String("output"); name != "" {
		return name
	}
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + format.Extension()
}

func filterCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output file name"), Category: l10n.T("Output")},
		&cli.StringFlag{Name: "chain", Usage: l10n.T("Filter chain file (YAML)"), Category: l10n.T("Filters")},
		&cli.StringFlag{Name: "size", Usage: l10n.T("Resize to WxH, W or xH before filtering"), Category: l10n.T("Filters")},
		&cli.Float64Flag{Name: "rotate", Usage: l10n.T("Rotate clockwise by degrees"), Category: l10n.T("Filters")},
		&cli.StringFlag{Name: "flip", Usage: l10n.T("Flip horizontally (h) or vertically (v)"), Category: l10n.T("Filters")},
		&cli.StringFlag{Name: "preset", Usage: l10n.T("Output preset (none, 50%, 800x600, telegram, 500KB)"), Category: l10n.T("Output")},
	}
	return &cli.Command{
		Name:      "filter",
		Usage:     l10n.T("Apply a filter chain to a still image"),
		ArgsUsage: "<image|url>",
		Flags:     append(flags, encodingFlags("png")...),
		Action:    runFilter,
	}
}

func runFilter(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("Exactly one input is required"), 2)
	}
	r, err := newEnv(c)
	if err != nil {
		return err
	}
	defer r.Close()
	ctx, cancel := withSignals(c.Context, r.log)
	defer cancel()

	input := c.Args().First()
	format, quality, err := r.encoding(c)
	if err != nil {
		return err
	}
	chain, err := r.loadChain(c.String("chain"))
	if err != nil {
		return err
	}
	size, err := parseSize(c.String("size"))
	if err != nil {
		return err
	}
	if deg := c.Float64("rotate"); math.IsNaN(deg) || math.IsInf(deg, 0) {
		return r.fail(pipeline.NewError(pipeline.KindInvalidParameter, "rotate", fmt.Errorf("angle must be finite, got %v", deg)))
	}
	preset, err := pipeline.ParsePreset(c.String("preset"))
	if err != nil {
		return err
	}

	img, err := r.getter.GetImage(ctx, input, ports.Size{})
	if err != nil {
		return r.fail(err)
	}
	img, err = r.transformer.TransformToSize(ctx, img, chain, size)
	if err != nil {
		return r.fail(err)
	}
	if deg := c.Float64("rotate"); deg != 0 {
		img = r.transformer.Rotate(img, deg)
	}
	switch strings.ToLower(c.String("flip")) {
	case "h", "horizontal":
		img = transform.Flip(img, true)
	case "v", "vertical":
		img = transform.Flip(img, false)
	}

	b := img.Bounds()
	info, err := r.transformer.ApplyPresetBy(ctx, img, preset, pipeline.ImageInfo{Width: b.Dx(), Height: b.Dy(), Format: format, Quality: quality})
	if err != nil {
		return r.fail(err)
	}
	if info.Width != b.Dx() || info.Height != b.Dy() {
		img = r.renderer.ResizeImage(img, info.Width, info.Height)
	}
	data, err := r.registry.Encode(ctx, img, info.Format, info.Quality)
	if err != nil {
		return r.fail(err)
	}

	ref, err := r.storage.Write(ctx, outputName(c, input, info.Format), data)
	if err != nil {
		return r.fail(err)
	}
	r.log.Info("Output saved to %s", ref)
	return nil
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     l10n.T("Write every frame of an animated image as a still"),
		ArgsUsage: "<animation>",
		Flags:     encodingFlags("png"),
		Action:    runExtract,
	}
}

func runExtract(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("Exactly one input is required"), 2)
	}
	r, err := newEnv(c)
	if err != nil {
		return err
	}
	defer r.Close()
	ctx, cancel := withSignals(c.Context, r.log)
	defer cancel()

	format, quality, err := r.encoding(c)
	if err != nil {
		return err
	}

	bar := newProgress(c.Bool("quiet"))
	stage := sequence.NewStage(sequence.New(r.storage, r.registry, r.registry, r.log))
	result, err := stage.Execute(ctx, pipeline.ExtractInput{
		SourceRef: c.Args().First(),
		Format:    format,
		Quality:   quality,
		OnFrame: func(f pipeline.FrameRef) {
			bar.Update("Extracting", f.Index+1, 0)
		},
	})
	bar.Done()
	if err != nil {
		return r.fail(err)
	}
	r.log.Info("Extracted %d frames", len(result.Frames))
	return nil
}

func coverCommand() *cli.Command {
	return &cli.Command{
		Name:      "cover",
		Usage:     l10n.T("Save the cover art embedded in audio files as PNG"),
		ArgsUsage: "<audio>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"o"}, Usage: l10n.T("Output file name (single input only)"), Category: l10n.T("Output")},
		},
		Action: runCover,
	}
}

func runCover(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit(l10n.T("At least one input is required"), 2)
	}
	if c.NArg() > 1 && c.String("name") != "" {
		return cli.Exit(l10n.T("--name cannot be used with multiple inputs"), 2)
	}
	r, err := newEnv(c)
	if err != nil {
		return err
	}
	defer r.Close()
	ctx, cancel := withSignals(c.Context, r.log)
	defer cancel()

	extractor := cover.New(r.storage, r.registry, r.registry, r.log)
	var failed error
	for _, ref := range c.Args().Slice() {
		res, err := extractor.Extract(ctx, ref, c.String("name"))
		if err != nil {
			if pipeline.IsKind(err, pipeline.KindCancelled) {
				return r.fail(err)
			}
			r.log.Error("Failed to extract cover from %s: %v", ref, err)
			failed = err
			continue
		}
		r.log.Info("Cover saved to %s (%dx%d)", res.Ref, res.Width, res.Height)
	}
	if failed != nil {
		return r.fail(failed)
	}
	return nil
}

func assembleCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: l10n.T("Output file name"), Category: l10n.T("Output")},
		&cli.StringFlag{Name: "canvas", Usage: l10n.T("Canvas size WxH (default: first frame)"), Category: l10n.T("Animation")},
	}
	flags = append(flags, encodingFlags("apng")...)
	return &cli.Command{
		Name:      "assemble",
		Usage:     l10n.T("Assemble still images into an animated image"),
		ArgsUsage: "<frame> [frame...]",
		Flags:     append(flags, containerFlags()...),
		Action:    runAssemble,
	}
}

func runAssemble(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit(l10n.T("At least one frame is required"), 2)
	}
	r, err := newEnv(c)
	if err != nil {
		return err
	}
	defer r.Close()
	ctx, cancel := withSignals(c.Context, r.log)
	defer cancel()

	format, quality, err := r.encoding(c)
	if err != nil {
		return err
	}
	params := r.containerParams(c, format, quality)
	if c.IsSet("canvas") {
		canvas, err := parseSize(c.String("canvas"))
		if err != nil {
			return err
		}
		params.Canvas = &canvas
	}

	args := c.Args().Slice()
	frames := make([]pipeline.FrameRef, len(args))
	for i, ref := range args {
		frames[i] = pipeline.FrameRef{Index: i, Ref: ref}
	}

	bar := newProgress(c.Bool("quiet"))
	stage := assemble.NewStage(r.storage, r.registry, r.registry, r.renderer, r.log)
	result, err := stage.Execute(ctx, pipeline.AssembleInput{
		Frames: frames,
		Params: params,
		Name:   c.String("output"),
		OnProgress: func(done int) {
			bar.Update("Assembling", done, len(frames))
		},
	})
	bar.Done()
	if err != nil {
		return r.fail(err)
	}
	r.log.Info("Output saved to %s", result.Ref)
	return nil
}

func animateCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output file name"), Category: l10n.T("Output")},
		&cli.StringFlag{Name: "chain", Usage: l10n.T("Filter chain file (YAML)"), Category: l10n.T("Filters")},
		&cli.StringFlag{Name: "size", Usage: l10n.T("Resize to WxH, W or xH before filtering"), Category: l10n.T("Filters")},
		&cli.BoolFlag{Name: "keep-frames", Usage: l10n.T("Keep the intermediate frames"), Category: l10n.T("Output")},
		&cli.StringFlag{Name: "report", Usage: l10n.T("Write a Markdown report to this file"), Category: l10n.T("Output")},
	}
	flags = append(flags, encodingFlags("apng")...)
	return &cli.Command{
		Name:      "animate",
		Usage:     l10n.T("Apply a filter chain to every frame of an animated image"),
		ArgsUsage: "<animation>",
		Flags:     append(flags, containerFlags()...),
		Action:    runAnimate,
	}
}

func runAnimate(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("Exactly one input is required"), 2)
	}
	r, err := newEnv(c)
	if err != nil {
		return err
	}
	defer r.Close()
	ctx, cancel := withSignals(c.Context, r.log)
	defer cancel()

	input := c.Args().First()
	format, quality, err := r.encoding(c)
	if err != nil {
		return err
	}
	chain, err := r.loadChain(c.String("chain"))
	if err != nil {
		return err
	}
	var size ports.Size
	if c.IsSet("size") {
		if size, err = parseSize(c.String("size")); err != nil {
			return err
		}
	}

	orch := orchestrator.New(
		sequence.NewStage(sequence.New(r.storage, r.registry, r.registry, r.log)),
		transform.NewFramesStage(r.transformer, r.storage, r.registry, r.registry, r.log),
		assemble.NewStage(r.storage, r.registry, r.registry, r.renderer, r.log),
		r.storage,
		r.log,
	)

	bar := newProgress(c.Bool("quiet"))
	config := orchestrator.DefaultConfig()
	config.SourceRef = input
	config.Chain = chain
	config.Size = size
	config.Params = r.containerParams(c, format, quality)
	config.OutputName = outputName(c, input, format)
	config.KeepFrames = c.Bool("keep-frames")
	config.OnProgress = func(stage string, done, total int) {
		if stage == "extract" {
			bar.Update("Extracting", done, total)
		} else {
			bar.Update("Assembling", done, total)
		}
	}

	result, err := orch.Run(ctx, config)
	bar.Done()
	if err != nil {
		return r.fail(err)
	}

	if path := c.String("report"); path != "" {
		summary := summarizer.NewBuilder().
			WithVersion(version).
			WithJob("", format, quality).
			AddRun(result).
			Build()
		r.writeReport(path, summary)
	}
	return nil
}

func convertCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "report", Usage: l10n.T("Write a Markdown report to this file"), Category: l10n.T("Output")},
	}
	flags = append(flags, encodingFlags("webp")...)
	return &cli.Command{
		Name:      "convert",
		Usage:     l10n.T("Convert many images to another container format"),
		ArgsUsage: "<image> [image...]",
		Flags:     append(flags, containerFlags()...),
		Action:    runConvert,
	}
}

func runConvert(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit(l10n.T("At least one input is required"), 2)
	}
	r, err := newEnv(c)
	if err != nil {
		return err
	}
	defer r.Close()
	ctx, cancel := withSignals(c.Context, r.log)
	defer cancel()

	format, quality, err := r.encoding(c)
	if err != nil {
		return err
	}
	maxInput, err := r.cfg.MaxInputBytes()
	if err != nil {
		return err
	}
	params := r.containerParams(c, format, quality)

	converter := batch.NewConverter(r.storage, r.registry, r.log, batch.Options{
		Workers:       r.cfg.Workers,
		MaxInputBytes: maxInput,
	})

	inputs := c.Args().Slice()
	bar := newProgress(c.Bool("quiet"))
	start := time.Now()
	done := 0
	report, err := converter.ConvertMany(ctx, batch.Job{
		SourceRefs: inputs,
		Format:     format,
		Quality:    quality,
		LoopCount:  params.LoopCount,
		DelayMs:    params.DelayMs,
	}, func(name string, data []byte) {
		done++
		bar.Update("Converting", done, len(inputs))
		if _, err := r.storage.Write(ctx, name, data); err != nil {
			r.log.Error("Failed to write %s: %s", name, r.strings.Message(err))
		}
	})
	bar.Done()

	for _, f := range report.Failed {
		r.log.Error("%s: %s", f.Ref, r.strings.Message(f.Err))
	}
	r.log.Info("Converted %d of %d images", report.Succeeded, report.Requested)

	if path := c.String("report"); path != "" {
		summary := summarizer.NewBuilder().
			WithVersion(version).
			WithJob(report.JobID, format, quality).
			WithBatch(report, time.Since(start), r.strings).
			Build()
		r.writeReport(path, summary)
	}

	if err != nil {
		return r.fail(err)
	}
	if len(report.Failed) > 0 {
		return cli.Exit(l10n.F("%d of %d images failed", len(report.Failed), report.Requested), 1)
	}
	return nil
}

func formatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "formats",
		Usage: l10n.T("List the formats that can be written"),
		Action: func(c *cli.Context) error {
			r, err := newEnv(c)
			if err != nil {
				return err
			}
			defer r.Close()
			for _, f := range r.registry.EncodableFormats() {
				kind := l10n.T("still")
				if _, ok := r.registry.ContainerFor(f); ok {
					kind = l10n.T("animated")
				}
				fmt.Fprintf(c.App.Writer, "%-6s %-5s %s\n", f, f.Extension(), kind)
			}
			return nil
		},
	}
}

// writeReport writes a Markdown summary, logging failures.
func (r *env) writeReport(path string, summary *summarizer.Summary) {
	w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(), r.fs)
	if err := w.Write(path, summary); err != nil {
		r.log.Error("Failed to write summary: %s", err)
		return
	}
	r.log.Info("Summary saved to %s", path)
}

// fail logs err as user text and turns it into exit status 1.
func (r *env) fail(err error) error {
	r.log.Error("%s", r.strings.Message(err))
	return cli.Exit("", 1)
}
