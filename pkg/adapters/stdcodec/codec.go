// Package stdcodec implements still and animated codecs on the Go standard
// library, golang.org/x/image and github.com/kettek/apng.
package stdcodec

import (
	"bytes"
	"context"
	"fmt"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// Codec reads and writes APNG and GIF containers.
type Codec struct{}

// NewCodec creates a Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Formats returns the container formats handled by Codec.
func (c *Codec) Formats() []ports.ImageFormat {
	return []ports.ImageFormat{ports.FormatAPNG, ports.FormatGIF}
}

// NewReader opens data as an APNG or GIF.
func (c *Codec) NewReader(ctx context.Context, data []byte) (ports.ContainerReader, error) {
	if err := pipeline.Cancelled(ctx, "open container"); err != nil {
		return nil, err
	}
	switch {
	case bytes.HasPrefix(data, []byte("GIF8")):
		return newGIFReader(data)
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return newAPNGReader(data)
	}
	return nil, decodeError("open container", fmt.Errorf("not an APNG or GIF"))
}

// NewWriter creates a writer for APNG or GIF.
func (c *Codec) NewWriter(format ports.ImageFormat, opts ports.ContainerOptions) (ports.ContainerWriter, error) {
	switch format {
	case ports.FormatAPNG, ports.FormatPNG:
		return newAPNGWriter(opts), nil
	case ports.FormatGIF:
		return newGIFWriter(opts), nil
	}
	return nil, pipeline.NewError(pipeline.KindEncodeFailure, "new writer",
		fmt.Errorf("%w: %s is not handled", pipeline.ErrEncode, format))
}

var _ ports.ContainerCodec = (*Codec)(nil)
