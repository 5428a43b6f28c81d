package ggrenderer

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	img := r.CreateCanvas(100, 60, color.White).ToImage()
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 60 {
		t.Errorf("expected 100x60, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
	if _, _, _, a := img.At(10, 10).RGBA(); a != 0xffff {
		t.Errorf("expected opaque background, got alpha %d", a)
	}

	transparent := r.CreateCanvas(10, 10, nil).ToImage()
	if _, _, _, a := transparent.At(5, 5).RGBA(); a != 0 {
		t.Errorf("expected transparent canvas, got alpha %d", a)
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))

	resized := r.ResizeImage(img, 50, 25)
	if resized.Bounds().Dx() != 50 || resized.Bounds().Dy() != 25 {
		t.Errorf("expected 50x25, got %dx%d", resized.Bounds().Dx(), resized.Bounds().Dy())
	}
}

func TestRenderer_RotateImage_QuarterTurns(t *testing.T) {
	r := New()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	red := color.NRGBA{R: 255, A: 255}
	img.SetNRGBA(0, 0, red)

	tests := []struct {
		degrees float64
		w, h    int
		x, y    int
	}{
		{90, 2, 4, 1, 0},
		{180, 4, 2, 3, 1},
		{270, 2, 4, 0, 3},
		{-90, 2, 4, 0, 3},
		{360, 4, 2, 0, 0},
	}

	for _, tt := range tests {
		rotated := r.RotateImage(img, tt.degrees, nil)
		b := rotated.Bounds()
		if b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("%v°: expected %dx%d, got %dx%d", tt.degrees, tt.w, tt.h, b.Dx(), b.Dy())
			continue
		}
		if got := color.NRGBAModel.Convert(rotated.At(tt.x, tt.y)); got != red {
			t.Errorf("%v°: expected red at %d,%d, got %v", tt.degrees, tt.x, tt.y, got)
		}
	}
}

func TestRenderer_RotateImage_NonFinite(t *testing.T) {
	r := New()
	img := image.NewNRGBA(image.Rect(0, 0, 6, 3))

	for _, deg := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		rotated := r.RotateImage(img, deg, color.White)
		if b := rotated.Bounds(); b.Dx() != 6 || b.Dy() != 3 {
			t.Errorf("%v°: expected 6x3, got %dx%d", deg, b.Dx(), b.Dy())
		}
	}
}

func TestRenderer_RotateImage_ExpandsBoundingBox(t *testing.T) {
	r := New()
	img := image.NewNRGBA(image.Rect(0, 0, 100, 50))

	rotated := r.RotateImage(img, 45, color.White)
	b := rotated.Bounds()
	// 100*cos45 + 50*sin45 = 106.07
	if b.Dx() != 107 || b.Dy() != 107 {
		t.Errorf("expected 107x107, got %dx%d", b.Dx(), b.Dy())
	}
	// Corners lie outside the rotated image and keep the background.
	if c := color.NRGBAModel.Convert(rotated.At(0, 0)).(color.NRGBA); c != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("expected background in corner, got %v", c)
	}
}

func TestCanvas_DrawImageScaled(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(20, 20, nil)
	src := image.NewNRGBA(image.Rect(0, 0, 5, 5))
	for i := range src.Pix {
		src.Pix[i] = 255
	}

	canvas.DrawImageScaled(src, 5, 5, 10, 10)
	out := canvas.ToImage()

	if _, _, _, a := out.At(10, 10).RGBA(); a == 0 {
		t.Error("expected drawn pixel inside scaled area")
	}
	if _, _, _, a := out.At(1, 1).RGBA(); a != 0 {
		t.Error("expected transparent pixel outside scaled area")
	}
}
