package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/user/framekit/pkg/adapters/codecs"
	"github.com/user/framekit/pkg/adapters/filestorage"
	"github.com/user/framekit/pkg/adapters/ggrenderer"
	"github.com/user/framekit/pkg/adapters/htmlimage"
	"github.com/user/framekit/pkg/adapters/imagegetter"
	"github.com/user/framekit/pkg/adapters/l10nstrings"
	"github.com/user/framekit/pkg/adapters/logger"
	"github.com/user/framekit/pkg/adapters/osfilesystem"
	"github.com/user/framekit/pkg/adapters/stdcodec"
	"github.com/user/framekit/pkg/adapters/vipscodec"
	"github.com/user/framekit/pkg/config"
	"github.com/user/framekit/pkg/filters"
	"github.com/user/framekit/pkg/ports"
	"github.com/user/framekit/pkg/stages/transform"
)

// env holds the adapters shared by all commands.
type env struct {
	cfg         config.Config
	log         ports.Logger
	fs          ports.FileSystem
	storage     *inputStorage
	registry    *codecs.Registry
	renderer    ports.Renderer
	getter      *imagegetter.Getter
	transformer *transform.Transformer
	strings     ports.Strings
	vips        *vipscodec.Backend
}

// newEnv loads the configuration and wires the adapters.
func newEnv(c *cli.Context) (*env, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("output-dir") {
		cfg.OutputDir = c.String("output-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
	}

	fs := osfilesystem.New()
	if err := fs.MkdirAll(cfg.OutputDir); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	out, err := filestorage.New(cfg.OutputDir, fs)
	if err != nil {
		return nil, err
	}
	storage := &inputStorage{Storage: out, fs: fs}

	vips := vipscodec.NewBackend(vipscodec.Config{MaxWorkers: cfg.Workers})
	registry := newRegistry(vips)

	renderer := ggrenderer.New()
	getter := imagegetter.New(storage, registry, htmlimage.New(), log, imagegetter.Options{})
	transformer := transform.New(filters.NewApplier(getter, log), renderer, registry, log, transform.Options{
		PreviewSize: cfg.PreviewSize,
		Background:  cfg.Background(),
	})

	return &env{
		cfg:         cfg,
		log:         log,
		fs:          fs,
		storage:     storage,
		registry:    registry,
		renderer:    renderer,
		getter:      getter,
		transformer: transformer,
		strings:     l10nstrings.New(),
		vips:        vips,
	}, nil
}

// Close releases native resources.
func (r *env) Close() {
	if r.vips != nil {
		r.vips.Shutdown()
	}
}

// newRegistry registers the pure-Go codecs for everything they handle and
// libvips for WebP and JPEG XL encoding and containers.
func newRegistry(vips *vipscodec.Backend) *codecs.Registry {
	reg := codecs.NewRegistry()

	decoder := stdcodec.NewDecoder(0)
	reg.RegisterDecoder(decoder, ports.FormatPNG, ports.FormatAPNG, ports.FormatJPEG, ports.FormatGIF,
		ports.FormatBMP, ports.FormatTIFF, ports.FormatWebP)

	encoder := stdcodec.NewEncoder()
	reg.RegisterEncoder(encoder, encoder.Formats()...)

	containers := stdcodec.NewCodec()
	reg.RegisterContainer(containers, containers.Formats()...)

	if vips != nil {
		reg.RegisterDecoder(vips, ports.FormatJXL)
		reg.RegisterEncoder(vips, vips.Formats()...)
		reg.RegisterContainer(vips, vips.Formats()...)
	}
	return reg
}

// inputStorage reads references that are not in the output storage from
// the file system, so command-line paths resolve like stored artifacts.
type inputStorage struct {
	ports.Storage
	fs ports.FileSystem
}

func (s *inputStorage) Read(ctx context.Context, ref string) ([]byte, error) {
	data, err := s.Storage.Read(ctx, ref)
	if err == nil {
		return data, nil
	}
	if fileData, ferr := s.fs.ReadFile(ref); ferr == nil {
		return fileData, nil
	}
	return nil, err
}

func (s *inputStorage) Exists(ctx context.Context, ref string) (bool, error) {
	if ok, err := s.Storage.Exists(ctx, ref); err == nil && ok {
		return true, nil
	}
	return s.fs.Exists(ref)
}

// qualityFor builds the quality variant matching format.
func qualityFor(format ports.ImageFormat, value, effort int, lossless bool) ports.Quality {
	switch format {
	case ports.FormatWebP:
		return ports.NewWebPQuality(value, lossless)
	case ports.FormatJXL:
		return ports.NewJxlQuality(value, effort, lossless)
	case ports.FormatPNG, ports.FormatAPNG, ports.FormatBMP, ports.FormatTIFF:
		return ports.LosslessQuality{}
	}
	if lossless {
		return ports.LosslessQuality{}
	}
	return ports.NewBaseQuality(value)
}

// parseSize parses "WxH", "W" or "xH". A missing side is 0.
func parseSize(s string) (ports.Size, error) {
	if s == "" {
		return ports.Size{}, nil
	}
	w, h, found := strings.Cut(strings.ToLower(s), "x")
	var size ports.Size
	var err error
	if w != "" {
		if size.Width, err = strconv.Atoi(w); err != nil {
			return ports.Size{}, fmt.Errorf("invalid size %q", s)
		}
	}
	if found && h != "" {
		if size.Height, err = strconv.Atoi(h); err != nil {
			return ports.Size{}, fmt.Errorf("invalid size %q", s)
		}
	}
	if size.Width < 0 || size.Height < 0 {
		return ports.Size{}, fmt.Errorf("invalid size %q", s)
	}
	if size.IsZero() {
		return ports.Size{}, errors.New("size must not be empty")
	}
	return size, nil
}

// loadChain reads a YAML filter chain file. An empty path yields an empty chain.
func (r *env) loadChain(path string) ([]filters.Filter, error) {
	if path == "" {
		return nil, nil
	}
	data, err := r.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chain: %w", err)
	}
	return filters.ParseChain(data)
}
