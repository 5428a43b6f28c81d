// Package cover extracts the picture embedded in an audio file's tags and
// stores it as a lossless PNG.
package cover

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// ErrNoPicture is returned when the audio file carries no embedded picture.
var ErrNoPicture = errors.New("no embedded picture")

// Result describes a stored cover.
type Result struct {
	Ref      string
	Width    int
	Height   int
	MIMEType string // of the embedded picture
}

// Extractor reads cover art from ID3, MP4, FLAC and Ogg tags.
type Extractor struct {
	storage ports.Storage
	decoder ports.ImageDecoder
	encoder ports.ImageEncoder
	logger  ports.Logger
}

// New creates an Extractor.
func New(storage ports.Storage, decoder ports.ImageDecoder, encoder ports.ImageEncoder, logger ports.Logger) *Extractor {
	return &Extractor{
		storage: storage,
		decoder: decoder,
		encoder: encoder,
		logger:  logger.WithComponent("cover"),
	}
}

// Extract reads audioRef from storage and writes its embedded picture as
// <name>.png. An empty name uses the audio file's base name.
func (e *Extractor) Extract(ctx context.Context, audioRef, name string) (Result, error) {
	if err := pipeline.Cancelled(ctx, "cover"); err != nil {
		return Result{}, err
	}

	data, err := e.storage.Read(ctx, audioRef)
	if err != nil {
		return Result{}, pipeline.Wrap(pipeline.KindUnreachableReference, "cover", err)
	}

	meta, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return Result{}, pipeline.NewError(pipeline.KindDecodeFailure, "read tags",
			fmt.Errorf("%w: %s: %v", pipeline.ErrDecode, audioRef, err))
	}
	pic := meta.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return Result{}, pipeline.NewError(pipeline.KindDecodeFailure, "cover",
			fmt.Errorf("%w: %s: %w", pipeline.ErrDecode, audioRef, ErrNoPicture))
	}
	e.logger.Debug("Found %s cover in %s", pic.MIMEType, audioRef)

	if err := pipeline.Cancelled(ctx, "cover"); err != nil {
		return Result{}, err
	}
	img, err := e.decoder.Decode(ctx, pic.Data, ports.DecodeConstraints{})
	if err != nil {
		return Result{}, pipeline.Wrap(pipeline.KindDecodeFailure, "decode cover", err)
	}
	out, err := e.encoder.Encode(ctx, img, ports.FormatPNG, ports.LosslessQuality{})
	if err != nil {
		return Result{}, pipeline.Wrap(pipeline.KindEncodeFailure, "encode cover", err)
	}

	ref, err := e.storage.Write(ctx, outputName(audioRef, name), out)
	if err != nil {
		return Result{}, pipeline.Wrap(pipeline.KindUnknown, "write cover", err)
	}
	b := img.Bounds()
	return Result{Ref: ref, Width: b.Dx(), Height: b.Dy(), MIMEType: pic.MIMEType}, nil
}

func outputName(audioRef, name string) string {
	if name == "" {
		base := path.Base(strings.ReplaceAll(audioRef, "\\", "/"))
		name = strings.TrimSuffix(base, path.Ext(base))
	}
	if name == "" || name == "." || name == "/" {
		name = fmt.Sprintf("AUDIO_%d", time.Now().UnixMilli())
	}
	if !strings.HasSuffix(strings.ToLower(name), ".png") {
		name += ".png"
	}
	return name
}
