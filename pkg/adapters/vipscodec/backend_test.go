package vipscodec

import (
	"context"
	"image"
	"image/color"
	"io"
	"os"
	"testing"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// libvips is a system dependency; these tests run only when FRAMEKIT_VIPS is set.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	if os.Getenv("FRAMEKIT_VIPS") == "" {
		t.Skip("FRAMEKIT_VIPS not set")
	}
	return NewBackend(Config{MaxWorkers: 1})
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestStillRoundTrip(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	for _, format := range b.Formats() {
		t.Run(format.String(), func(t *testing.T) {
			data, err := b.Encode(ctx, solid(32, 24, color.NRGBA{0, 128, 255, 255}), format, ports.QualityFor(format, 90, true))
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			img, err := b.Decode(ctx, data, ports.DecodeConstraints{MaxWidth: 16})
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got := img.Bounds().Size(); got.X != 16 || got.Y != 12 {
				t.Errorf("size = %v, want 16x12", got)
			}
		})
	}
}

func TestAnimatedWebPRoundTrip(t *testing.T) {
	b := newTestBackend(t)

	w, err := b.NewWriter(ports.FormatWebP, ports.ContainerOptions{Quality: ports.NewWebPQuality(100, true)})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Begin(8, 8); err != nil {
		t.Fatal(err)
	}
	colors := []color.NRGBA{{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}}
	for _, c := range colors {
		if err := w.AddFrame(solid(8, 8, c), 80); err != nil {
			t.Fatalf("AddFrame() error = %v", err)
		}
	}
	data, err := w.End()
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}

	r, err := b.NewReader(context.Background(), data)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()

	if r.FrameCount() != len(colors) {
		t.Fatalf("FrameCount() = %d, want %d", r.FrameCount(), len(colors))
	}
	for i := range colors {
		f, err := r.Next()
		if err != nil {
			t.Fatalf("Next(%d) error = %v", i, err)
		}
		if f.DelayMs != 80 {
			t.Errorf("frame %d delay = %d, want 80", i, f.DelayMs)
		}
		got := color.NRGBAModel.Convert(f.Image.At(4, 4)).(color.NRGBA)
		if got != colors[i] {
			t.Errorf("frame %d pixel = %v, want %v", i, got, colors[i])
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() after last frame error = %v, want io.EOF", err)
	}
}

func TestWriterRejectsUnknownFormat(t *testing.T) {
	b := &Backend{}
	_, err := b.NewWriter(ports.FormatGIF, ports.ContainerOptions{})
	if !pipeline.IsKind(err, pipeline.KindEncodeFailure) {
		t.Errorf("NewWriter(gif) error = %v, want encode failure", err)
	}
}

func TestFitScale(t *testing.T) {
	tests := []struct {
		w, h int
		c    ports.DecodeConstraints
		want float64
	}{
		{100, 100, ports.DecodeConstraints{}, 1},
		{200, 100, ports.DecodeConstraints{MaxWidth: 100}, 0.5},
		{200, 400, ports.DecodeConstraints{MaxWidth: 100, MaxHeight: 100}, 0.25},
		{50, 50, ports.DecodeConstraints{MaxWidth: 100, MaxHeight: 100}, 1},
	}
	for _, tt := range tests {
		if got := fitScale(tt.w, tt.h, tt.c); got != tt.want {
			t.Errorf("fitScale(%d, %d, %+v) = %v, want %v", tt.w, tt.h, tt.c, got, tt.want)
		}
	}
}
