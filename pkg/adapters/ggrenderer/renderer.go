// Package ggrenderer provides a renderer implementation using the gg library.
package ggrenderer

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/framekit/pkg/ports"
)

// Renderer implements ports.Renderer using the gg library.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// CreateCanvas creates a new drawing canvas.
// A nil background leaves the canvas transparent.
func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	if bg != nil {
		dc.SetColor(bg)
		dc.Clear()
	}
	return &Canvas{dc: dc}
}

// ResizeImage resizes an image to the specified dimensions.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// RotateImage rotates img clockwise by degrees onto a canvas sized to the
// rotated bounding box. Quarter turns are pixel exact. A non-finite angle
// leaves the image unrotated.
func (r *Renderer) RotateImage(img image.Image, degrees float64, bg color.Color) image.Image {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return rotateQuarter(img, 0)
	}
	turn := math.Mod(degrees, 360)
	if turn < 0 {
		turn += 360
	}
	if q := turn / 90; q == math.Trunc(q) {
		return rotateQuarter(img, int(q))
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	rad := gg.Radians(turn)
	cos, sin := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
	nw := int(math.Ceil(w*cos + h*sin - 1e-9))
	nh := int(math.Ceil(w*sin + h*cos - 1e-9))

	dc := gg.NewContext(nw, nh)
	if bg != nil {
		dc.SetColor(bg)
		dc.Clear()
	}
	dc.RotateAbout(rad, float64(nw)/2, float64(nh)/2)
	dc.DrawImageAnchored(img, nw/2, nh/2, 0.5, 0.5)
	return dc.Image()
}

// rotateQuarter rotates img clockwise by q quarter turns.
func rotateQuarter(img image.Image, q int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)
	if q%4 == 0 {
		return src
	}

	dw, dh := w, h
	if q%2 == 1 {
		dw, dh = h, w
	}
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch q % 4 {
			case 1:
				dx, dy = h-1-y, x
			case 2:
				dx, dy = w-1-x, h-1-y
			case 3:
				dx, dy = y, w-1-x
			}
			so := src.PixOffset(x, y)
			do := dst.PixOffset(dx, dy)
			copy(dst.Pix[do:do+4], src.Pix[so:so+4])
		}
	}
	return dst
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas using gg.Context.
type Canvas struct {
	dc *gg.Context
}

// DrawImage draws an image at the specified position.
func (c *Canvas) DrawImage(img image.Image, x, y int) {
	c.dc.DrawImage(img, x, y)
}

// DrawImageScaled draws an image scaled to the specified dimensions.
func (c *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		c.dc.DrawImage(img, x, y)
		return
	}

	scaled := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Src, nil)
	c.dc.DrawImage(scaled, x, y)
}

// DrawRect draws a filled rectangle.
func (c *Canvas) DrawRect(x, y, w, h int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Fill()
}

// ToImage returns the canvas as an image.Image.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

// Ensure Canvas implements ports.Canvas
var _ ports.Canvas = (*Canvas)(nil)
