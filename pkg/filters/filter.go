// Package filters implements the closed set of image filters and their application.
//
// A Filter is an immutable value. Applying it never mutates the input image and
// always yields the same pixels for the same input and value.
package filters

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/user/framekit/pkg/pipeline"
)

// Kind is the stable tag of a filter variant.
type Kind string

const (
	KindColorBalance     Kind = "color_balance"
	KindStrokePixelation Kind = "stroke_pixelation"
	KindPaletteTransfer  Kind = "palette_transfer"
	KindClahe            Kind = "clahe"
	KindBrightness       Kind = "brightness"
	KindGrayscale        Kind = "grayscale"
)

// Filter is one step of a filter chain.
type Filter interface {
	// Kind returns the variant tag.
	Kind() Kind

	// CacheKey returns a key that is equal for equal kind and value.
	CacheKey() string

	canonical() string
}

// ParamRange is the inclusive valid range of a numeric parameter.
type ParamRange struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the range.
func (r ParamRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp returns v limited to the range.
func (r ParamRange) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Parameter ranges per filter kind.
var (
	BalanceRange        = ParamRange{Min: -1, Max: 1}
	PixelSizeRange      = ParamRange{Min: 5, Max: 75}
	IntensityRange      = ParamRange{Min: 0, Max: 1}
	ClaheThresholdRange = ParamRange{Min: 0.1, Max: 10}
	ClaheGridRange      = ParamRange{Min: 1, Max: 32}
	ClaheBinsRange      = ParamRange{Min: 2, Max: 256}
	BrightnessRange     = ParamRange{Min: -1, Max: 1}
)

// Validate checks that every parameter of f lies within its declared range.
func Validate(f Filter) error {
	var bad []string
	check := func(name string, v float64, r ParamRange) {
		if !r.Contains(v) {
			bad = append(bad, fmt.Sprintf("%s=%v outside [%v, %v]", name, v, r.Min, r.Max))
		}
	}

	switch v := f.(type) {
	case ColorBalance:
		for i := 0; i < 3; i++ {
			check("shadows", v.Shadows[i], BalanceRange)
			check("midtones", v.Midtones[i], BalanceRange)
			check("highlights", v.Highlights[i], BalanceRange)
		}
	case StrokePixelation:
		check("pixel_size", v.PixelSize, PixelSizeRange)
	case PaletteTransfer:
		check("intensity", v.Intensity, IntensityRange)
		if _, ok := colorSpaceNames[v.Space]; !ok {
			bad = append(bad, fmt.Sprintf("space=%d unknown", v.Space))
		}
	case Clahe:
		check("threshold", v.Threshold, ClaheThresholdRange)
		check("grid_x", float64(v.GridX), ClaheGridRange)
		check("grid_y", float64(v.GridY), ClaheGridRange)
		check("bins", float64(v.Bins), ClaheBinsRange)
	case Brightness:
		check("value", v.Value, BrightnessRange)
	case Grayscale:
	case nil:
		return pipeline.NewError(pipeline.KindInvalidParameter, "validate filter", fmt.Errorf("nil filter"))
	default:
		return pipeline.NewError(pipeline.KindInvalidParameter, "validate filter", fmt.Errorf("unsupported filter %T", f))
	}

	if len(bad) > 0 {
		return pipeline.NewError(pipeline.KindInvalidParameter, "validate "+string(f.Kind()),
			fmt.Errorf("%s: %w", strings.Join(bad, ", "), pipeline.ErrInvalidParameter))
	}
	return nil
}

func cacheKey(kind Kind, canonical string) string {
	sum := sha256.Sum256([]byte(string(kind) + "|" + canonical))
	return hex.EncodeToString(sum[:])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatTriple(v [3]float64) string {
	return formatFloat(v[0]) + "," + formatFloat(v[1]) + "," + formatFloat(v[2])
}
