package filters

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// ColorSpace selects the space in which palette statistics are matched.
type ColorSpace int

const (
	SpaceOKLab ColorSpace = iota
	SpaceLab
	SpaceLinearRGB
)

var colorSpaceNames = map[ColorSpace]string{
	SpaceOKLab:     "oklab",
	SpaceLab:       "lab",
	SpaceLinearRGB: "linear_rgb",
}

// String returns the name of the color space.
func (s ColorSpace) String() string {
	if name, ok := colorSpaceNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseColorSpace parses a color space name.
func ParseColorSpace(s string) (ColorSpace, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SpaceOKLab, nil
	}
	for space, name := range colorSpaceNames {
		if name == s {
			return space, nil
		}
	}
	return SpaceOKLab, fmt.Errorf("unknown color space %q", s)
}

// PaletteTransfer moves the color statistics of the image towards those of a
// reference image. When the reference cannot be resolved the image is
// returned unchanged.
type PaletteTransfer struct {
	Intensity float64
	Space     ColorSpace
	Reference string
}

// ReferenceBound is the size the reference image is loaded at.
const ReferenceBound = 1000

// NewPaletteTransfer returns a PaletteTransfer with intensity clamped to [0, 1].
func NewPaletteTransfer(intensity float64, space ColorSpace, reference string) PaletteTransfer {
	return PaletteTransfer{
		Intensity: IntensityRange.Clamp(intensity),
		Space:     space,
		Reference: reference,
	}
}

func (f PaletteTransfer) Kind() Kind { return KindPaletteTransfer }
func (f PaletteTransfer) CacheKey() string { return cacheKey(f.Kind(), f.canonical()) }

func (f PaletteTransfer) canonical() string {
	return formatFloat(f.Intensity) + ";" + f.Space.String() + ";" + f.Reference
}

// channelStats holds per-channel mean and standard deviation.
type channelStats struct {
	mean [3]float64
	std  [3]float64
}

type toSpaceFunc func(r, g, b uint8) (float64, float64, float64)
type fromSpaceFunc func(x, y, z float64) (uint8, uint8, uint8)

func spaceFuncs(space ColorSpace) (toSpaceFunc, fromSpaceFunc) {
	switch space {
	case SpaceLab:
		return rgbToLab, labToRGB
	case SpaceLinearRGB:
		return func(r, g, b uint8) (float64, float64, float64) {
				return srgbLinearLUT[r], srgbLinearLUT[g], srgbLinearLUT[b]
			}, func(x, y, z float64) (uint8, uint8, uint8) {
				return to8(linearToSrgb(clamp01(x))), to8(linearToSrgb(clamp01(y))), to8(linearToSrgb(clamp01(z)))
			}
	default:
		return rgbToOklab, oklabToRGB
	}
}

func computeStats(img *image.NRGBA, to toSpaceFunc) channelStats {
	var sum, sumSq [3]float64
	var n float64
	pix := img.Pix
	for i := 0; i < len(pix); i += 4 {
		if pix[i+3] == 0 {
			continue
		}
		x, y, z := to(pix[i], pix[i+1], pix[i+2])
		v := [3]float64{x, y, z}
		for c := 0; c < 3; c++ {
			sum[c] += v[c]
			sumSq[c] += v[c] * v[c]
		}
		n++
	}

	var st channelStats
	if n == 0 {
		return st
	}
	for c := 0; c < 3; c++ {
		st.mean[c] = sum[c] / n
		variance := sumSq[c]/n - st.mean[c]*st.mean[c]
		if variance > 0 {
			st.std[c] = math.Sqrt(variance)
		}
	}
	return st
}

// transferPalette applies the Reinhard statistics transfer from ref onto img.
func transferPalette(img, ref image.Image, f PaletteTransfer) image.Image {
	dst := toNRGBA(img)
	to, from := spaceFuncs(f.Space)
	src := computeStats(dst, to)
	target := computeStats(toNRGBA(ref), to)

	var ratio [3]float64
	for c := 0; c < 3; c++ {
		if src.std[c] > 1e-9 {
			ratio[c] = target.std[c] / src.std[c]
		} else {
			ratio[c] = 1
		}
	}

	pix := dst.Pix
	for i := 0; i < len(pix); i += 4 {
		x, y, z := to(pix[i], pix[i+1], pix[i+2])
		v := [3]float64{x, y, z}
		for c := 0; c < 3; c++ {
			moved := (v[c]-src.mean[c])*ratio[c] + target.mean[c]
			v[c] += (moved - v[c]) * f.Intensity
		}
		pix[i], pix[i+1], pix[i+2] = from(v[0], v[1], v[2])
	}
	return dst
}
