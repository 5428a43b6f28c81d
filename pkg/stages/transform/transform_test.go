package transform

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/user/framekit/pkg/adapters/logger"
	"github.com/user/framekit/pkg/filters"
	"github.com/user/framekit/pkg/mocks"
	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

func newTransformer(renderer ports.Renderer, encoder ports.ImageEncoder) *Transformer {
	log := logger.NewNoop()
	return New(filters.NewApplier(nil, log), renderer, encoder, log, Options{Background: color.NRGBA{10, 20, 30, 255}})
}

// gradient returns an image whose every pixel is distinct.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 7), uint8(y * 11), uint8(x*y + 3), 255})
		}
	}
	return img
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

func TestFlipTwiceIsIdentity(t *testing.T) {
	sizes := [][2]int{{1, 1}, {2, 3}, {7, 5}, {16, 16}}
	for _, s := range sizes {
		img := gradient(s[0], s[1])
		for _, horizontal := range []bool{true, false} {
			got := toNRGBA(Flip(Flip(img, horizontal), horizontal))
			if !bytes.Equal(got.Pix, img.Pix) {
				t.Errorf("Flip twice (%dx%d, horizontal=%v) changed pixels", s[0], s[1], horizontal)
			}
		}
	}
}

func TestFlipMirrors(t *testing.T) {
	img := gradient(4, 3)

	h := Flip(img, true).(*image.NRGBA)
	if h.NRGBAAt(0, 1) != img.NRGBAAt(3, 1) {
		t.Errorf("horizontal flip (0,1) = %v, want %v", h.NRGBAAt(0, 1), img.NRGBAAt(3, 1))
	}
	v := Flip(img, false).(*image.NRGBA)
	if v.NRGBAAt(2, 0) != img.NRGBAAt(2, 2) {
		t.Errorf("vertical flip (2,0) = %v, want %v", v.NRGBAAt(2, 0), img.NRGBAAt(2, 2))
	}
}

func TestFlipDoesNotMutateInput(t *testing.T) {
	img := gradient(5, 5)
	before := append([]byte(nil), img.Pix...)
	Flip(img, true)
	if !bytes.Equal(img.Pix, before) {
		t.Error("Flip modified its input")
	}
}

func TestTransformChainOrderMatters(t *testing.T) {
	tr := newTransformer(&mocks.Renderer{}, nil)
	img := gradient(40, 40)
	balance := filters.NewColorBalance([3]float64{0.8, -0.4, 0.2}, [3]float64{}, [3]float64{-0.6, 0.3, 0.9}, false)
	pixelate := filters.NewStrokePixelation(10, color.Black)

	ab, err := tr.Transform(context.Background(), img, []filters.Filter{balance, pixelate}, true)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := tr.Transform(context.Background(), img, []filters.Filter{pixelate, balance}, true)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(toNRGBA(ab).Pix, toNRGBA(ba).Pix) {
		t.Error("color balance and stroke pixelation should not commute")
	}
}

func TestTransformPreviewSize(t *testing.T) {
	tr := newTransformer(&mocks.Renderer{}, nil)
	img := gradient(2048, 1024)

	out, err := tr.Transform(context.Background(), img, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Bounds().Size(); got.X != 1024 || got.Y != 512 {
		t.Errorf("preview size = %v, want 1024x512", got)
	}

	out, err = tr.Transform(context.Background(), img, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Bounds().Size(); got.X != 2048 {
		t.Errorf("keepOriginalSize width = %d, want 2048", got.X)
	}
}

func TestTransformToSizeResizesFirst(t *testing.T) {
	var resized []ports.Size
	renderer := &mocks.Renderer{}
	renderer.ResizeImageFunc = func(img image.Image, w, h int) image.Image {
		resized = append(resized, ports.Size{Width: w, Height: h})
		return gradient(w, h)
	}
	tr := newTransformer(renderer, nil)

	out, err := tr.TransformToSize(context.Background(), gradient(100, 50), []filters.Filter{filters.Grayscale{}}, ports.Size{Width: 40})
	if err != nil {
		t.Fatal(err)
	}
	if len(resized) != 1 || resized[0] != (ports.Size{Width: 40, Height: 20}) {
		t.Fatalf("resize calls = %v, want one 40x20", resized)
	}
	if got := out.Bounds().Size(); got.X != 40 || got.Y != 20 {
		t.Errorf("size = %v, want 40x20", got)
	}
	if c := color.NRGBAModel.Convert(out.At(5, 5)).(color.NRGBA); c.R != c.G || c.G != c.B {
		t.Errorf("pixel %v is not gray; filters must run after resize", c)
	}
}

func TestTransformFailFast(t *testing.T) {
	tr := newTransformer(&mocks.Renderer{}, nil)
	chain := []filters.Filter{
		filters.Grayscale{},
		filters.StrokePixelation{PixelSize: 1},
		filters.NewBrightness(0.5),
	}

	out, err := tr.Transform(context.Background(), gradient(8, 8), chain, true)
	if out != nil {
		t.Error("failed transform returned an image")
	}
	if !pipeline.IsKind(err, pipeline.KindInvalidParameter) {
		t.Errorf("error = %v, want invalid parameter", err)
	}
}

func TestTransformCancelled(t *testing.T) {
	tr := newTransformer(&mocks.Renderer{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Transform(ctx, gradient(4, 4), []filters.Filter{filters.Grayscale{}}, true)
	if !pipeline.IsKind(err, pipeline.KindCancelled) {
		t.Errorf("error = %v, want cancelled", err)
	}
}

func TestTransformNilImage(t *testing.T) {
	tr := newTransformer(&mocks.Renderer{}, nil)
	if _, err := tr.Transform(context.Background(), nil, nil, false); !pipeline.IsKind(err, pipeline.KindInvalidParameter) {
		t.Errorf("error = %v, want invalid parameter", err)
	}
}

func TestRotateBackground(t *testing.T) {
	var gotBg color.Color
	renderer := &mocks.Renderer{
		RotateImageFunc: func(img image.Image, degrees float64, bg color.Color) image.Image {
			gotBg = bg
			return img
		},
	}
	tr := newTransformer(renderer, nil)

	tr.Rotate(image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio420), 33.5)
	if gotBg != (color.NRGBA{10, 20, 30, 255}) {
		t.Errorf("opaque image background = %v, want configured colour", gotBg)
	}

	transparent := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	tr.Rotate(transparent, 33.5)
	if _, _, _, a := gotBg.RGBA(); a != 0 {
		t.Errorf("alpha image background = %v, want transparent", gotBg)
	}
	if len(renderer.RotateCalls) != 2 || renderer.RotateCalls[0] != 33.5 {
		t.Errorf("RotateCalls = %v", renderer.RotateCalls)
	}
}

func TestRotateIgnoresNonFiniteAngle(t *testing.T) {
	renderer := &mocks.Renderer{}
	tr := newTransformer(renderer, nil)
	img := gradient(4, 4)

	for _, deg := range []float64{math.NaN(), math.Inf(1)} {
		if out := tr.Rotate(img, deg); out != image.Image(img) {
			t.Errorf("Rotate(%v) returned a new image, want the input", deg)
		}
	}
	if len(renderer.RotateCalls) != 0 {
		t.Errorf("RotateCalls = %v, want none", renderer.RotateCalls)
	}
}

func TestTransformToSizeEmptyImage(t *testing.T) {
	renderer := &mocks.Renderer{}
	tr := newTransformer(renderer, nil)

	for _, size := range []ports.Size{{Width: 10}, {Height: 10}, {Width: 10, Height: 10}} {
		_, err := tr.TransformToSize(context.Background(), image.NewNRGBA(image.Rect(0, 0, 0, 0)), nil, size)
		if !pipeline.IsKind(err, pipeline.KindInvalidParameter) {
			t.Errorf("size %v: error kind = %s, want invalid_parameter", size, pipeline.KindOf(err))
		}
	}
}
