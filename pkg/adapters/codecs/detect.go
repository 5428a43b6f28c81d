package codecs

import (
	"bytes"
	"encoding/binary"
	"net/http"

	"github.com/user/framekit/pkg/ports"
)

var (
	pngMagic      = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	jxlCodestream = []byte{0xFF, 0x0A}
	jxlContainer  = []byte{0x00, 0x00, 0x00, 0x0C, 'J', 'X', 'L', ' ', 0x0D, 0x0A, 0x87, 0x0A}
)

// DetectFormat sniffs the leading bytes of data and returns its format.
// PNG files carrying an animation control chunk are reported as APNG.
func DetectFormat(data []byte) ports.ImageFormat {
	switch {
	case len(data) < 4:
		return ports.FormatUnknown
	case bytes.HasPrefix(data, pngMagic):
		if isAnimatedPNG(data) {
			return ports.FormatAPNG
		}
		return ports.FormatPNG
	case data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return ports.FormatJPEG
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return ports.FormatGIF
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return ports.FormatWebP
	case bytes.HasPrefix(data, jxlCodestream), bytes.HasPrefix(data, jxlContainer):
		return ports.FormatJXL
	case bytes.HasPrefix(data, []byte("BM")):
		return ports.FormatBMP
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return ports.FormatTIFF
	}

	switch http.DetectContentType(data) {
	case "image/png":
		return ports.FormatPNG
	case "image/jpeg":
		return ports.FormatJPEG
	case "image/gif":
		return ports.FormatGIF
	case "image/webp":
		return ports.FormatWebP
	case "image/bmp":
		return ports.FormatBMP
	}
	return ports.FormatUnknown
}

// isAnimatedPNG reports whether an acTL chunk precedes the first IDAT chunk.
func isAnimatedPNG(data []byte) bool {
	pos := len(pngMagic)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		kind := string(data[pos+4 : pos+8])
		switch kind {
		case "acTL":
			return true
		case "IDAT", "IEND":
			return false
		}
		pos += 12 + length
	}
	return false
}
