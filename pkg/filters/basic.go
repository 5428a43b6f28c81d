package filters

import (
	"image"
	"math"
)

// Brightness adds Value (in [-1, 1]) to every color channel.
type Brightness struct {
	Value float64
}

// NewBrightness returns a Brightness with the value clamped to [-1, 1].
func NewBrightness(value float64) Brightness {
	return Brightness{Value: BrightnessRange.Clamp(value)}
}

func (f Brightness) Kind() Kind { return KindBrightness }
func (f Brightness) CacheKey() string { return cacheKey(f.Kind(), f.canonical()) }
func (f Brightness) canonical() string { return formatFloat(f.Value) }

// Grayscale converts the image to Rec. 601 luma.
type Grayscale struct{}

func (Grayscale) Kind() Kind { return KindGrayscale }
func (f Grayscale) CacheKey() string { return cacheKey(f.Kind(), f.canonical()) }
func (Grayscale) canonical() string { return "" }

func applyBrightness(img image.Image, f Brightness) image.Image {
	dst := toNRGBA(img)
	shift := f.Value * 255
	var lut [256]uint8
	for i := range lut {
		v := math.Round(float64(i) + shift)
		lut[i] = uint8(math.Max(0, math.Min(255, v)))
	}
	pix := dst.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2] = lut[pix[i]], lut[pix[i+1]], lut[pix[i+2]]
	}
	return dst
}

func applyGrayscale(img image.Image) image.Image {
	dst := toNRGBA(img)
	pix := dst.Pix
	for i := 0; i < len(pix); i += 4 {
		y := (299*uint32(pix[i]) + 587*uint32(pix[i+1]) + 114*uint32(pix[i+2]) + 500) / 1000
		pix[i], pix[i+1], pix[i+2] = uint8(y), uint8(y), uint8(y)
	}
	return dst
}
