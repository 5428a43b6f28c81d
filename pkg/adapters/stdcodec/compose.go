package stdcodec

import (
	"image"
	"image/draw"
)

// Frame disposal and blending, shared by the APNG and GIF readers.
const (
	disposeNone       = 0
	disposeBackground = 1
	disposePrevious   = 2
)

const (
	blendSource = 0
	blendOver   = 1
)

// compositor keeps the running canvas of an animation.
type compositor struct {
	canvas   *image.NRGBA
	previous *image.NRGBA
	area     image.Rectangle
	dispose  int
}

func newCompositor(width, height int) *compositor {
	return &compositor{canvas: image.NewNRGBA(image.Rect(0, 0, width, height))}
}

// apply disposes the previous frame, draws src at its region and returns a
// snapshot of the canvas.
func (c *compositor) apply(src image.Image, offset image.Point, dispose, blend int) *image.NRGBA {
	switch c.dispose {
	case disposeBackground:
		draw.Draw(c.canvas, c.area, image.Transparent, image.Point{}, draw.Src)
	case disposePrevious:
		if c.previous != nil {
			draw.Draw(c.canvas, c.area, c.previous, c.area.Min, draw.Src)
		}
	}

	b := src.Bounds()
	area := image.Rectangle{Min: offset, Max: offset.Add(b.Size())}.Intersect(c.canvas.Bounds())

	if dispose == disposePrevious {
		c.previous = cloneNRGBA(c.canvas)
	} else {
		c.previous = nil
	}

	switch n, ok := src.(*image.NRGBA); {
	case blend == blendSource && ok:
		copyNRGBA(c.canvas, area, n, b.Min)
	case blend == blendSource:
		draw.Draw(c.canvas, area, src, b.Min, draw.Src)
	default:
		draw.Draw(c.canvas, area, src, b.Min, draw.Over)
	}

	c.area = area
	c.dispose = dispose
	return cloneNRGBA(c.canvas)
}

// copyNRGBA copies src into dst without going through premultiplied alpha,
// so the colour of transparent pixels survives.
func copyNRGBA(dst *image.NRGBA, r image.Rectangle, src *image.NRGBA, sp image.Point) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		d := dst.PixOffset(r.Min.X, y)
		s := src.PixOffset(sp.X, sp.Y+y-r.Min.Y)
		copy(dst.Pix[d:d+4*r.Dx()], src.Pix[s:s+4*r.Dx()])
	}
}

func cloneNRGBA(img *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	return out
}

// toCanvas converts img to an NRGBA image with origin (0,0).
func toCanvas(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
