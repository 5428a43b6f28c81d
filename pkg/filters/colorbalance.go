package filters

import (
	"image"
	"strconv"
)

// ColorBalance shifts the red, green and blue channels separately in the
// shadows, midtones and highlights of an image.
type ColorBalance struct {
	Shadows            [3]float64
	Midtones           [3]float64
	Highlights         [3]float64
	PreserveLuminosity bool
}

// NewColorBalance returns a ColorBalance with every shift clamped to [-1, 1].
func NewColorBalance(shadows, midtones, highlights [3]float64, preserveLuminosity bool) ColorBalance {
	cb := ColorBalance{PreserveLuminosity: preserveLuminosity}
	for i := 0; i < 3; i++ {
		cb.Shadows[i] = BalanceRange.Clamp(shadows[i])
		cb.Midtones[i] = BalanceRange.Clamp(midtones[i])
		cb.Highlights[i] = BalanceRange.Clamp(highlights[i])
	}
	return cb
}

func (f ColorBalance) Kind() Kind { return KindColorBalance }
func (f ColorBalance) CacheKey() string { return cacheKey(f.Kind(), f.canonical()) }

func (f ColorBalance) canonical() string {
	return formatTriple(f.Shadows) + ";" + formatTriple(f.Midtones) + ";" +
		formatTriple(f.Highlights) + ";" + strconv.FormatBool(f.PreserveLuminosity)
}

// Weighting constants of the tonal ranges.
const (
	balanceA     = 0.25
	balanceB     = 0.333
	balanceScale = 0.7
)

func applyColorBalance(img image.Image, f ColorBalance) image.Image {
	dst := toNRGBA(img)
	pix := dst.Pix
	for i := 0; i < len(pix); i += 4 {
		r := float64(pix[i]) / 255
		g := float64(pix[i+1]) / 255
		b := float64(pix[i+2]) / 255
		nr, ng, nb := balancePixel(r, g, b, f)
		pix[i], pix[i+1], pix[i+2] = to8(nr), to8(ng), to8(nb)
	}
	return dst
}

func balancePixel(r, g, b float64, f ColorBalance) (float64, float64, float64) {
	_, _, lightness := rgbToHSL(r, g, b)

	shadowW := clamp01((lightness-balanceB)/-balanceA+0.5) * balanceScale
	midW := clamp01((lightness-balanceB)/balanceA+0.5) *
		clamp01((lightness+balanceB-1)/-balanceA+0.5) * balanceScale
	highW := clamp01((lightness+balanceB-1)/balanceA+0.5) * balanceScale

	c := [3]float64{r, g, b}
	for i := 0; i < 3; i++ {
		c[i] = clamp01(c[i] + f.Shadows[i]*shadowW + f.Midtones[i]*midW + f.Highlights[i]*highW)
	}

	if f.PreserveLuminosity {
		h, s, _ := rgbToHSL(c[0], c[1], c[2])
		return hslToRGB(h, s, lightness)
	}
	return c[0], c[1], c[2]
}
