package filters

import (
	"image/color"
	"testing"

	"github.com/user/framekit/pkg/pipeline"
)

func TestParseChain(t *testing.T) {
	data := []byte(`
- kind: color_balance
  shadows: [0.2, 0, 0]
  highlights: [0, 0, 3]
- kind: stroke_pixelation
  pixel_size: 12
  background: "#ffffff"
- kind: palette_transfer
  intensity: 0.5
  space: lab
  reference: ref.png
- kind: clahe
  grid: [4, 4]
- kind: brightness
  value: -0.25
- kind: grayscale
`)

	chain, err := ParseChain(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chain) != 6 {
		t.Fatalf("expected 6 filters, got %d", len(chain))
	}

	cb, ok := chain[0].(ColorBalance)
	if !ok {
		t.Fatalf("expected ColorBalance, got %T", chain[0])
	}
	if cb.Shadows != [3]float64{0.2, 0, 0} || cb.Highlights != [3]float64{0, 0, 1} || !cb.PreserveLuminosity {
		t.Errorf("unexpected color balance %+v", cb)
	}

	px := chain[1].(StrokePixelation)
	if px.PixelSize != 12 || px.Background != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("unexpected pixelation %+v", px)
	}

	pt := chain[2].(PaletteTransfer)
	if pt.Intensity != 0.5 || pt.Space != SpaceLab || pt.Reference != "ref.png" {
		t.Errorf("unexpected palette transfer %+v", pt)
	}

	cl := chain[3].(Clahe)
	if cl.GridX != 4 || cl.GridY != 4 || cl.Bins != 128 || cl.Threshold != 0.5 {
		t.Errorf("unexpected clahe %+v", cl)
	}

	if br := chain[4].(Brightness); br.Value != -0.25 {
		t.Errorf("unexpected brightness %+v", br)
	}
	if chain[5].Kind() != KindGrayscale {
		t.Errorf("expected grayscale, got %s", chain[5].Kind())
	}
}

func TestParseChain_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown kind", "- kind: sharpen\n"},
		{"unknown space", "- kind: palette_transfer\n  space: hsv\n"},
		{"not a list", "kind: grayscale\n"},
		{"misspelled key", "- kind: stroke_pixelation\n  pixelsize: 12\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChain([]byte(tt.data))
			if !pipeline.IsKind(err, pipeline.KindInvalidParameter) {
				t.Errorf("expected invalid parameter error, got %v", err)
			}
		})
	}
}

func TestParseChain_Empty(t *testing.T) {
	chain, err := ParseChain(nil)
	if err != nil {
		t.Fatalf("ParseChain(nil) error = %v", err)
	}
	if len(chain) != 0 {
		t.Errorf("expected empty chain, got %d filters", len(chain))
	}
}
