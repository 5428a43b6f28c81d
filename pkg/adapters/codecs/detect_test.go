package codecs

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/user/framekit/pkg/adapters/stdcodec"
	"github.com/user/framekit/pkg/ports"
)

func encoded(t *testing.T, enc func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := enc(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	pngData := encoded(t, func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) })
	jpegData := encoded(t, func(b *bytes.Buffer, img image.Image) error { return jpeg.Encode(b, img, nil) })
	gifData := encoded(t, func(b *bytes.Buffer, img image.Image) error { return gif.Encode(b, img, nil) })

	tests := []struct {
		name string
		data []byte
		want ports.ImageFormat
	}{
		{"png", pngData, ports.FormatPNG},
		{"jpeg", jpegData, ports.FormatJPEG},
		{"gif", gifData, ports.FormatGIF},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), ports.FormatWebP},
		{"jxl codestream", []byte{0xFF, 0x0A, 0x00, 0x00}, ports.FormatJXL},
		{"jxl container", []byte{0x00, 0x00, 0x00, 0x0C, 'J', 'X', 'L', ' ', 0x0D, 0x0A, 0x87, 0x0A}, ports.FormatJXL},
		{"bmp", []byte("BM\x00\x00\x00\x00"), ports.FormatBMP},
		{"tiff", []byte("II*\x00\x08\x00"), ports.FormatTIFF},
		{"short", []byte{0x89}, ports.FormatUnknown},
		{"text", []byte("hello world"), ports.FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.data); got != tt.want {
				t.Errorf("DetectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectFormatAPNG(t *testing.T) {
	w, err := stdcodec.NewCodec().NewWriter(ports.FormatAPNG, ports.ContainerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	_ = w.Begin(2, 2)
	_ = w.AddFrame(image.NewNRGBA(image.Rect(0, 0, 2, 2)), 100)
	_ = w.AddFrame(image.NewNRGBA(image.Rect(0, 0, 2, 2)), 100)
	data, err := w.End()
	if err != nil {
		t.Fatal(err)
	}

	if got := DetectFormat(data); got != ports.FormatAPNG {
		t.Errorf("DetectFormat() = %v, want APNG", got)
	}
}
