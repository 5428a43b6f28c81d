package ports

import (
	"fmt"
	"strings"
)

// ImageFormat identifies an image or container encoding.
type ImageFormat int

const (
	FormatUnknown ImageFormat = iota
	FormatPNG
	FormatJPEG
	FormatGIF
	FormatWebP
	FormatAPNG
	FormatJXL
	FormatBMP
	FormatTIFF
)

var formatNames = map[ImageFormat]string{
	FormatPNG:  "png",
	FormatJPEG: "jpeg",
	FormatGIF:  "gif",
	FormatWebP: "webp",
	FormatAPNG: "apng",
	FormatJXL:  "jxl",
	FormatBMP:  "bmp",
	FormatTIFF: "tiff",
}

// String returns the lower-case name of the format.
func (f ImageFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// Extension returns the file extension for the format, including the dot.
// APNG files use the .png extension.
func (f ImageFormat) Extension() string {
	switch f {
	case FormatAPNG:
		return ".png"
	case FormatJPEG:
		return ".jpg"
	case FormatUnknown:
		return ""
	default:
		return "." + f.String()
	}
}

// Animated reports whether the format can carry more than one frame.
func (f ImageFormat) Animated() bool {
	switch f {
	case FormatAPNG, FormatGIF, FormatWebP, FormatJXL:
		return true
	}
	return false
}

// ParseImageFormat parses a format name or file extension.
func ParseImageFormat(s string) (ImageFormat, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	switch s {
	case "jpg":
		return FormatJPEG, nil
	case "tif":
		return FormatTIFF, nil
	}
	for f, name := range formatNames {
		if name == s {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown image format %q", s)
}

// Quality is the encoding quality for a target format.
// The concrete variants are BaseQuality, LosslessQuality, WebPQuality and JxlQuality.
type Quality interface {
	// Level returns the nominal quality in [1, 100]. Lossless variants report 100.
	Level() int
	isQuality()
}

// BaseQuality is a plain lossy quality level.
type BaseQuality struct {
	Value int
}

// LosslessQuality requests lossless encoding.
type LosslessQuality struct{}

// WebPQuality configures WebP encoding.
type WebPQuality struct {
	Value    int
	Lossless bool
}

// JxlQuality configures JPEG XL encoding.
type JxlQuality struct {
	Value    int
	Effort   int
	Lossless bool
}

func (q BaseQuality) Level() int { return q.Value }
func (LosslessQuality) Level() int { return 100 }
func (q WebPQuality) Level() int { return q.Value }
func (q JxlQuality) Level() int { return q.Value }
func (BaseQuality) isQuality() {}
func (LosslessQuality) isQuality() {}
func (WebPQuality) isQuality() {}
func (JxlQuality) isQuality() {}

// NewBaseQuality returns a BaseQuality clamped to [1, 100].
func NewBaseQuality(value int) BaseQuality {
	return BaseQuality{Value: clampInt(value, 1, 100)}
}

// NewWebPQuality returns a WebPQuality clamped to [1, 100].
func NewWebPQuality(value int, lossless bool) WebPQuality {
	return WebPQuality{Value: clampInt(value, 1, 100), Lossless: lossless}
}

// NewJxlQuality returns a JxlQuality with value clamped to [1, 100] and effort to [1, 9].
func NewJxlQuality(value, effort int, lossless bool) JxlQuality {
	return JxlQuality{
		Value:    clampInt(value, 1, 100),
		Effort:   clampInt(effort, 1, 9),
		Lossless: lossless,
	}
}

// IsLossless reports whether q requests lossless output.
func IsLossless(q Quality) bool {
	switch v := q.(type) {
	case LosslessQuality:
		return true
	case WebPQuality:
		return v.Lossless
	case JxlQuality:
		return v.Lossless
	}
	return false
}

// QualityFor builds the quality variant matching format from a plain level.
func QualityFor(format ImageFormat, level int, lossless bool) Quality {
	switch format {
	case FormatWebP:
		return NewWebPQuality(level, lossless)
	case FormatJXL:
		return NewJxlQuality(level, 7, lossless)
	case FormatPNG, FormatAPNG, FormatGIF, FormatBMP, FormatTIFF:
		return LosslessQuality{}
	}
	if lossless {
		return LosslessQuality{}
	}
	return NewBaseQuality(level)
}

// Size is a width and height in pixels.
type Size struct {
	Width  int
	Height int
}

// IsZero reports whether both dimensions are zero.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
