package main

import (
	"context"
	"testing"

	"github.com/user/framekit/pkg/mocks"
	"github.com/user/framekit/pkg/ports"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    ports.Size
		wantErr bool
	}{
		{"", ports.Size{}, false},
		{"800x600", ports.Size{Width: 800, Height: 600}, false},
		{"800", ports.Size{Width: 800}, false},
		{"x600", ports.Size{Height: 600}, false},
		{"800X", ports.Size{Width: 800}, false},
		{"x", ports.Size{}, true},
		{"axb", ports.Size{}, true},
		{"-5x10", ports.Size{}, true},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSize(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestQualityFor(t *testing.T) {
	if q, ok := qualityFor(ports.FormatWebP, 80, 7, true).(ports.WebPQuality); !ok || !q.Lossless || q.Value != 80 {
		t.Errorf("webp quality = %#v", q)
	}
	if q, ok := qualityFor(ports.FormatJXL, 90, 5, false).(ports.JxlQuality); !ok || q.Effort != 5 {
		t.Errorf("jxl quality = %#v", q)
	}
	if _, ok := qualityFor(ports.FormatAPNG, 50, 0, false).(ports.LosslessQuality); !ok {
		t.Error("apng should always be lossless")
	}
	if q, ok := qualityFor(ports.FormatJPEG, 70, 0, false).(ports.BaseQuality); !ok || q.Value != 70 {
		t.Errorf("jpeg quality = %#v", q)
	}
	if _, ok := qualityFor(ports.FormatGIF, 70, 0, true).(ports.LosslessQuality); !ok {
		t.Error("lossless flag ignored for gif")
	}
}

func TestInputStorage_FallsBackToFiles(t *testing.T) {
	store := mocks.NewStorage()
	store.Put("stored.png", []byte("stored"))
	fs := mocks.NewFileSystem()
	if err := fs.WriteFile("/abs/input.gif", []byte("file")); err != nil {
		t.Fatal(err)
	}
	in := &inputStorage{Storage: store, fs: fs}
	ctx := context.Background()

	if data, err := in.Read(ctx, "stored.png"); err != nil || string(data) != "stored" {
		t.Errorf("Read(stored) = %q, %v", data, err)
	}
	if data, err := in.Read(ctx, "/abs/input.gif"); err != nil || string(data) != "file" {
		t.Errorf("Read(file) = %q, %v", data, err)
	}
	if _, err := in.Read(ctx, "missing"); err == nil {
		t.Error("expected error for missing reference")
	}
	if ok, _ := in.Exists(ctx, "/abs/input.gif"); !ok {
		t.Error("Exists(file) = false")
	}

	ref, err := in.Write(ctx, "out.webp", []byte("x"))
	if err != nil || ref != "out.webp" {
		t.Errorf("Write() = %q, %v", ref, err)
	}
	if _, ok := store.Get("out.webp"); !ok {
		t.Error("write did not reach the output storage")
	}
}
