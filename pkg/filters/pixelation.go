package filters

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// StrokePixelation replaces the image with square cells of their average
// color, separated by a grid stroked in the background color.
type StrokePixelation struct {
	PixelSize  float64
	Background color.NRGBA
}

// NewStrokePixelation returns a StrokePixelation with the size clamped to [5, 75].
func NewStrokePixelation(pixelSize float64, background color.Color) StrokePixelation {
	return StrokePixelation{
		PixelSize:  PixelSizeRange.Clamp(pixelSize),
		Background: color.NRGBAModel.Convert(background).(color.NRGBA),
	}
}

func (f StrokePixelation) Kind() Kind { return KindStrokePixelation }
func (f StrokePixelation) CacheKey() string { return cacheKey(f.Kind(), f.canonical()) }

func (f StrokePixelation) canonical() string {
	bg := f.Background
	return fmt.Sprintf("%s;%02x%02x%02x%02x", formatFloat(f.PixelSize), bg.R, bg.G, bg.B, bg.A)
}

// strokeWidth is the width of the grid line drawn between cells.
func (f StrokePixelation) strokeWidth(cell int) int {
	w := int(math.Round(float64(cell) / 10))
	if w < 1 {
		w = 1
	}
	return w
}

func applyStrokePixelation(img image.Image, f StrokePixelation) image.Image {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewNRGBA(src.Rect)

	bg := f.Background
	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = bg.R, bg.G, bg.B, bg.A
	}

	cell := int(math.Round(f.PixelSize))
	if cell < 1 {
		cell = 1
	}
	stroke := f.strokeWidth(cell)
	lead := stroke / 2
	trail := stroke - lead

	for y0 := 0; y0 < h; y0 += cell {
		y1 := min(y0+cell, h)
		for x0 := 0; x0 < w; x0 += cell {
			x1 := min(x0+cell, w)
			avg := averageNRGBA(src, x0, y0, x1, y1)

			for y := y0 + lead; y < y1-trail; y++ {
				off := dst.PixOffset(x0+lead, y)
				for x := x0 + lead; x < x1-trail; x++ {
					dst.Pix[off], dst.Pix[off+1], dst.Pix[off+2], dst.Pix[off+3] = avg.R, avg.G, avg.B, avg.A
					off += 4
				}
			}
		}
	}
	return dst
}

// averageNRGBA averages the pixels of [x0, x1) x [y0, y1), weighting color by alpha.
func averageNRGBA(img *image.NRGBA, x0, y0, x1, y1 int) color.NRGBA {
	var r, g, b, a uint64
	n := uint64((x1 - x0) * (y1 - y0))
	for y := y0; y < y1; y++ {
		off := img.PixOffset(x0, y)
		for x := x0; x < x1; x++ {
			pa := uint64(img.Pix[off+3])
			r += uint64(img.Pix[off]) * pa
			g += uint64(img.Pix[off+1]) * pa
			b += uint64(img.Pix[off+2]) * pa
			a += pa
			off += 4
		}
	}
	if n == 0 || a == 0 {
		return color.NRGBA{}
	}
	return color.NRGBA{
		R: uint8((r + a/2) / a),
		G: uint8((g + a/2) / a),
		B: uint8((b + a/2) / a),
		A: uint8((a + n/2) / n),
	}
}
