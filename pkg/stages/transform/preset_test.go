package transform

import (
	"context"
	"image"
	"testing"

	"github.com/user/framekit/pkg/mocks"
	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// sizeEncoder produces w*h*quality/100 bytes, so output size grows with
// both area and quality.
func sizeEncoder() *mocks.Encoder {
	return &mocks.Encoder{
		EncodeFunc: func(ctx context.Context, img image.Image, format ports.ImageFormat, quality ports.Quality) ([]byte, error) {
			b := img.Bounds()
			return make([]byte, b.Dx()*b.Dy()*quality.Level()/100), nil
		},
	}
}

func TestApplyPresetBy(t *testing.T) {
	current := pipeline.ImageInfo{Width: 2000, Height: 1000, Format: ports.FormatJPEG, Quality: ports.NewBaseQuality(90)}

	tests := []struct {
		name   string
		preset pipeline.Preset
		want   pipeline.ImageInfo
	}{
		{"none", pipeline.NonePreset{}, current},
		{"nil", nil, current},
		{"percentage", pipeline.PercentagePreset{Value: 50}, pipeline.ImageInfo{Width: 1000, Height: 500, Format: ports.FormatJPEG, Quality: ports.NewBaseQuality(90)}},
		{"fit", pipeline.FitPreset{Width: 800, Height: 600}, pipeline.ImageInfo{Width: 800, Height: 400, Format: ports.FormatJPEG, Quality: ports.NewBaseQuality(90)}},
		{"fit larger box", pipeline.FitPreset{Width: 4000, Height: 4000}, current},
		{"telegram", pipeline.TelegramPreset{}, pipeline.ImageInfo{Width: 512, Height: 256, Format: ports.FormatPNG, Quality: ports.LosslessQuality{}}},
	}

	tr := newTransformer(&mocks.Renderer{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tr.ApplyPresetBy(context.Background(), nil, tt.preset, current)
			if err != nil {
				t.Fatalf("ApplyPresetBy() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ApplyPresetBy() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestApplyPresetByIsStable(t *testing.T) {
	img := gradient(100, 100)
	current := pipeline.ImageInfo{Width: 100, Height: 100, Format: ports.FormatJPEG}
	presets := []pipeline.Preset{
		pipeline.NonePreset{},
		pipeline.PercentagePreset{Value: 33},
		pipeline.FitPreset{Width: 64, Height: 48},
		pipeline.TelegramPreset{},
		pipeline.FileSizePreset{TargetBytes: 5000},
		pipeline.FileSizePreset{TargetBytes: 50},
	}

	tr := newTransformer(&mocks.Renderer{}, sizeEncoder())
	for _, p := range presets {
		first, err1 := tr.ApplyPresetBy(context.Background(), img, p, current)
		second, err2 := tr.ApplyPresetBy(context.Background(), img, p, current)
		if err1 != nil || err2 != nil {
			t.Fatalf("%s: errors %v, %v", p, err1, err2)
		}
		if first != second {
			t.Errorf("%s: %+v != %+v", p, first, second)
		}
	}
}

func TestFileSizePresetQuality(t *testing.T) {
	tr := newTransformer(&mocks.Renderer{}, sizeEncoder())
	current := pipeline.ImageInfo{Width: 100, Height: 100, Format: ports.FormatJPEG}

	got, err := tr.ApplyPresetBy(context.Background(), gradient(100, 100), pipeline.FileSizePreset{TargetBytes: 5000}, current)
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 100 || got.Height != 100 {
		t.Errorf("size = %dx%d, want unchanged", got.Width, got.Height)
	}
	if got.Quality.Level() != 50 {
		t.Errorf("quality = %d, want 50", got.Quality.Level())
	}
}

func TestFileSizePresetScalesDown(t *testing.T) {
	tr := newTransformer(&mocks.Renderer{}, sizeEncoder())
	current := pipeline.ImageInfo{Width: 100, Height: 100, Format: ports.FormatJPEG}

	got, err := tr.ApplyPresetBy(context.Background(), gradient(100, 100), pipeline.FileSizePreset{TargetBytes: 50}, current)
	if err != nil {
		t.Fatal(err)
	}
	if got.Width >= 100 {
		t.Errorf("width = %d, want scaled down", got.Width)
	}
	if size := got.Width * got.Height * got.Quality.Level() / 100; size > 50 {
		t.Errorf("result %+v encodes to %d bytes, over budget", got, size)
	}
}

func TestFileSizePresetNilImage(t *testing.T) {
	tr := newTransformer(&mocks.Renderer{}, sizeEncoder())
	current := pipeline.ImageInfo{Width: 10, Height: 10, Format: ports.FormatJPEG}

	got, err := tr.ApplyPresetBy(context.Background(), nil, pipeline.FileSizePreset{TargetBytes: 1}, current)
	if err != nil || got != current {
		t.Errorf("ApplyPresetBy(nil) = %+v, %v; want current unchanged", got, err)
	}
}

func TestFileSizePresetCancelled(t *testing.T) {
	tr := newTransformer(&mocks.Renderer{}, sizeEncoder())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.ApplyPresetBy(ctx, gradient(10, 10), pipeline.FileSizePreset{TargetBytes: 10}, pipeline.ImageInfo{})
	if !pipeline.IsKind(err, pipeline.KindCancelled) {
		t.Errorf("error = %v, want cancelled", err)
	}
}
