package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/go-units"
)

// Preset is a sizing/quality policy applied to an image.
// The variants are NonePreset, PercentagePreset, FitPreset, TelegramPreset and FileSizePreset.
type Preset interface {
	String() string
	isPreset()
}

// NonePreset leaves the image info unchanged.
type NonePreset struct{}

// PercentagePreset scales both dimensions by Value percent.
type PercentagePreset struct {
	Value int
}

// FitPreset scales the image to fit inside a box, keeping the aspect ratio.
// Images already inside the box are left at their size.
type FitPreset struct {
	Width  int
	Height int
}

// TelegramPreset produces a sticker: longest side 512 pixels, lossless PNG.
type TelegramPreset struct{}

// FileSizePreset searches for the quality and size that fit a byte budget.
type FileSizePreset struct {
	TargetBytes int64
}

// TelegramMaxSide is the longest side of a Telegram sticker.
const TelegramMaxSide = 512

func (NonePreset) String() string { return "none" }
func (p PercentagePreset) String() string { return fmt.Sprintf("%d%%", p.Value) }
func (p FitPreset) String() string { return fmt.Sprintf("%dx%d", p.Width, p.Height) }
func (TelegramPreset) String() string { return "telegram" }
func (p FileSizePreset) String() string { return units.HumanSize(float64(p.TargetBytes)) }

func (NonePreset) isPreset() {}
func (PercentagePreset) isPreset() {}
func (FitPreset) isPreset() {}
func (TelegramPreset) isPreset() {}
func (FileSizePreset) isPreset() {}

// ParsePreset parses the textual forms "none", "50%", "800x600", "telegram"
// and human-readable sizes such as "500KB".
func ParsePreset(s string) (Preset, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch {
	case lower == "" || lower == "none":
		return NonePreset{}, nil
	case lower == "telegram":
		return TelegramPreset{}, nil
	case strings.HasSuffix(lower, "%"):
		v, err := strconv.Atoi(strings.TrimSuffix(lower, "%"))
		if err != nil || v <= 0 {
			return nil, NewError(KindInvalidParameter, "parse preset", fmt.Errorf("bad percentage %q", s))
		}
		return PercentagePreset{Value: v}, nil
	case strings.Contains(lower, "x") && !strings.ContainsAny(lower, "bkmgtp"):
		parts := strings.SplitN(lower, "x", 2)
		w, errW := strconv.Atoi(parts[0])
		h, errH := strconv.Atoi(parts[1])
		if errW != nil || errH != nil || w <= 0 || h <= 0 {
			return nil, NewError(KindInvalidParameter, "parse preset", fmt.Errorf("bad box %q", s))
		}
		return FitPreset{Width: w, Height: h}, nil
	}
	size, err := units.FromHumanSize(s)
	if err != nil || size <= 0 {
		return nil, NewError(KindInvalidParameter, "parse preset", fmt.Errorf("unrecognized preset %q", s))
	}
	return FileSizePreset{TargetBytes: size}, nil
}
