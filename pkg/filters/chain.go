package filters

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/user/framekit/pkg/config"
	"github.com/user/framekit/pkg/pipeline"
)

// chainEntry is the YAML form of a single filter.
type chainEntry struct {
	Kind Kind `yaml:"kind"`

	// color_balance
	Shadows            *[3]float64 `yaml:"shadows"`
	Midtones           *[3]float64 `yaml:"midtones"`
	Highlights         *[3]float64 `yaml:"highlights"`
	PreserveLuminosity *bool       `yaml:"preserve_luminosity"`

	// stroke_pixelation
	PixelSize  *float64 `yaml:"pixel_size"`
	Background string   `yaml:"background"`

	// palette_transfer
	Intensity *float64 `yaml:"intensity"`
	Space     string   `yaml:"space"`
	Reference string   `yaml:"reference"`

	// clahe
	Threshold *float64 `yaml:"threshold"`
	Grid      *[2]int  `yaml:"grid"`
	Bins      *int     `yaml:"bins"`

	// brightness
	Value *float64 `yaml:"value"`
}

// ParseChain parses a YAML list of filters. Omitted parameters take their
// defaults and every value is clamped into its range. Unknown keys are
// rejected.
func ParseChain(data []byte) ([]Filter, error) {
	var entries []chainEntry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return nil, pipeline.NewError(pipeline.KindInvalidParameter, "parse chain", err)
	}

	chain := make([]Filter, 0, len(entries))
	for i, e := range entries {
		f, err := e.toFilter()
		if err != nil {
			return nil, pipeline.NewError(pipeline.KindInvalidParameter, "parse chain",
				fmt.Errorf("entry %d: %w", i, err))
		}
		chain = append(chain, f)
	}
	return chain, nil
}

func (e chainEntry) toFilter() (Filter, error) {
	switch e.Kind {
	case KindColorBalance:
		return NewColorBalance(
			tripleOr(e.Shadows), tripleOr(e.Midtones), tripleOr(e.Highlights),
			e.PreserveLuminosity == nil || *e.PreserveLuminosity,
		), nil
	case KindStrokePixelation:
		var bg color.Color = color.Black
		if e.Background != "" {
			bg = config.ParseColor(e.Background)
		}
		return NewStrokePixelation(floatOr(e.PixelSize, 20), bg), nil
	case KindPaletteTransfer:
		space, err := ParseColorSpace(e.Space)
		if err != nil {
			return nil, err
		}
		return NewPaletteTransfer(floatOr(e.Intensity, 1), space, e.Reference), nil
	case KindClahe:
		d := DefaultClahe()
		gx, gy := d.GridX, d.GridY
		if e.Grid != nil {
			gx, gy = e.Grid[0], e.Grid[1]
		}
		bins := d.Bins
		if e.Bins != nil {
			bins = *e.Bins
		}
		return NewClahe(floatOr(e.Threshold, d.Threshold), gx, gy, bins), nil
	case KindBrightness:
		return NewBrightness(floatOr(e.Value, 0)), nil
	case KindGrayscale:
		return Grayscale{}, nil
	}
	return nil, fmt.Errorf("unknown filter kind %q", e.Kind)
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func tripleOr(v *[3]float64) [3]float64 {
	if v == nil {
		return [3]float64{}
	}
	return *v
}
