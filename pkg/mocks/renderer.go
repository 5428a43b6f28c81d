package mocks

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/user/framekit/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
// Without overrides it draws with nearest-neighbour scaling.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	ResizeImageFunc  func(img image.Image, width, height int) image.Image
	RotateImageFunc  func(img image.Image, degrees float64, bg color.Color) image.Image

	// Recorded calls for verification
	Canvases    []*Canvas
	RotateCalls []float64
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	c := NewCanvas(width, height, bg)
	m.Canvases = append(m.Canvases, c)
	return c
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func (m *Renderer) RotateImage(img image.Image, degrees float64, bg color.Color) image.Image {
	m.RotateCalls = append(m.RotateCalls, degrees)
	if m.RotateImageFunc != nil {
		return m.RotateImageFunc(img, degrees, bg)
	}
	return img
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas is a mock implementation of ports.Canvas backed by an NRGBA image.
type Canvas struct {
	img *image.NRGBA

	DrawCalls int
}

// NewCanvas creates a Canvas filled with bg. A nil bg leaves it transparent.
func NewCanvas(width, height int, bg color.Color) *Canvas {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if bg != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	}
	return &Canvas{img: img}
}

func (m *Canvas) DrawImage(img image.Image, x, y int) {
	m.DrawCalls++
	b := img.Bounds()
	draw.Draw(m.img, image.Rect(x, y, x+b.Dx(), y+b.Dy()), img, b.Min, draw.Over)
}

func (m *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	m.DrawCalls++
	xdraw.NearestNeighbor.Scale(m.img, image.Rect(x, y, x+width, y+height), img, img.Bounds(), draw.Over, nil)
}

func (m *Canvas) DrawRect(x, y, w, h int, c color.Color) {
	draw.Draw(m.img, image.Rect(x, y, x+w, y+h), image.NewUniform(c), image.Point{}, draw.Over)
}

func (m *Canvas) ToImage() image.Image {
	return m.img
}

var _ ports.Canvas = (*Canvas)(nil)
