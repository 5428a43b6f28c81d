package filters

import (
	"image"
	"math"
	"strconv"
)

// Clahe applies contrast limited adaptive histogram equalization to the
// lightness of an image. Chroma is preserved.
type Clahe struct {
	Threshold float64
	GridX     int
	GridY     int
	Bins      int
}

// DefaultClahe returns the default equalization parameters.
func DefaultClahe() Clahe {
	return Clahe{Threshold: 0.5, GridX: 8, GridY: 8, Bins: 128}
}

// NewClahe returns a Clahe with every parameter clamped to its range.
func NewClahe(threshold float64, gridX, gridY, bins int) Clahe {
	return Clahe{
		Threshold: ClaheThresholdRange.Clamp(threshold),
		GridX:     int(ClaheGridRange.Clamp(float64(gridX))),
		GridY:     int(ClaheGridRange.Clamp(float64(gridY))),
		Bins:      int(ClaheBinsRange.Clamp(float64(bins))),
	}
}

func (f Clahe) Kind() Kind { return KindClahe }
func (f Clahe) CacheKey() string { return cacheKey(f.Kind(), f.canonical()) }

func (f Clahe) canonical() string {
	return formatFloat(f.Threshold) + ";" + strconv.Itoa(f.GridX) + "x" + strconv.Itoa(f.GridY) + ";" + strconv.Itoa(f.Bins)
}

func applyClahe(img image.Image, f Clahe) image.Image {
	dst := toNRGBA(img)
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	if w == 0 || h == 0 {
		return dst
	}

	gridX := min(f.GridX, w)
	gridY := min(f.GridY, h)
	bins := f.Bins

	// Lightness plane in OKLab, quantized to bins.
	n := w * h
	lab := make([][3]float64, n)
	binOf := make([]int, n)
	for i := 0; i < n; i++ {
		p := dst.Pix[i*4:]
		L, a, b := rgbToOklab(p[0], p[1], p[2])
		lab[i] = [3]float64{L, a, b}
		binOf[i] = int(clamp01(L)*float64(bins-1) + 0.5)
	}

	// Per-tile mapping from bin to equalized lightness.
	tileW := float64(w) / float64(gridX)
	tileH := float64(h) / float64(gridY)
	maps := make([][]float64, gridX*gridY)
	for ty := 0; ty < gridY; ty++ {
		y0, y1 := int(float64(ty)*tileH), int(float64(ty+1)*tileH)
		for tx := 0; tx < gridX; tx++ {
			x0, x1 := int(float64(tx)*tileW), int(float64(tx+1)*tileW)
			maps[ty*gridX+tx] = tileMapping(binOf, w, x0, y0, x1, y1, bins, f.Threshold)
		}
	}

	for y := 0; y < h; y++ {
		// Position relative to tile centers.
		gy := (float64(y)+0.5)/tileH - 0.5
		ty0 := int(math.Floor(gy))
		fy := gy - float64(ty0)
		ty1 := ty0 + 1
		ty0 = clampIndex(ty0, gridY)
		ty1 = clampIndex(ty1, gridY)

		for x := 0; x < w; x++ {
			gx := (float64(x)+0.5)/tileW - 0.5
			tx0 := int(math.Floor(gx))
			fx := gx - float64(tx0)
			tx1 := tx0 + 1
			tx0 = clampIndex(tx0, gridX)
			tx1 = clampIndex(tx1, gridX)

			i := y*w + x
			bin := binOf[i]
			top := maps[ty0*gridX+tx0][bin]*(1-fx) + maps[ty0*gridX+tx1][bin]*fx
			bottom := maps[ty1*gridX+tx0][bin]*(1-fx) + maps[ty1*gridX+tx1][bin]*fx
			L := top*(1-fy) + bottom*fy

			p := dst.Pix[i*4:]
			p[0], p[1], p[2] = oklabToRGB(L, lab[i][1], lab[i][2])
		}
	}
	return dst
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// tileMapping builds the clipped, redistributed cumulative histogram of one tile.
func tileMapping(binOf []int, stride, x0, y0, x1, y1, bins int, threshold float64) []float64 {
	hist := make([]float64, bins)
	area := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[binOf[y*stride+x]]++
			area++
		}
	}

	mapping := make([]float64, bins)
	if area == 0 {
		for b := range mapping {
			mapping[b] = float64(b) / float64(bins-1)
		}
		return mapping
	}

	limit := math.Max(1, threshold*float64(area)/float64(bins))
	excess := 0.0
	for b, c := range hist {
		if c > limit {
			excess += c - limit
			hist[b] = limit
		}
	}
	share := excess / float64(bins)
	for b := range hist {
		hist[b] += share
	}

	cum := 0.0
	for b, c := range hist {
		cum += c
		mapping[b] = cum / float64(area)
	}
	return mapping
}
