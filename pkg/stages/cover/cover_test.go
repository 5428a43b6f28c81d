package cover

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/user/framekit/pkg/adapters/logger"
	"github.com/user/framekit/pkg/adapters/stdcodec"
	"github.com/user/framekit/pkg/mocks"
	"github.com/user/framekit/pkg/pipeline"
)

// id3Tag builds an ID3v2.3 tag from encoded frames.
func id3Tag(frames ...[]byte) []byte {
	body := bytes.Join(frames, nil)
	n := len(body)
	var out bytes.Buffer
	out.WriteString("ID3")
	out.Write([]byte{3, 0, 0})
	out.Write([]byte{byte(n >> 21 & 0x7f), byte(n >> 14 & 0x7f), byte(n >> 7 & 0x7f), byte(n & 0x7f)})
	out.Write(body)
	return out.Bytes()
}

func id3Frame(id string, body []byte) []byte {
	var frame bytes.Buffer
	frame.WriteString(id)
	_ = binary.Write(&frame, binary.BigEndian, uint32(len(body)))
	frame.Write([]byte{0, 0})
	frame.Write(body)
	return frame.Bytes()
}

// id3WithPicture builds an ID3v2.3 tag holding a single APIC frame.
func id3WithPicture(mime string, pic []byte) []byte {
	var body bytes.Buffer
	body.WriteByte(0) // ISO-8859-1
	body.WriteString(mime)
	body.WriteByte(0)
	body.WriteByte(3) // front cover
	body.WriteByte(0) // empty description
	body.Write(pic)
	return id3Tag(id3Frame("APIC", body.Bytes()))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.SetNRGBA(1, 1, color.NRGBA{200, 100, 50, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newExtractor(store *mocks.Storage) *Extractor {
	return New(store, stdcodec.NewDecoder(0), stdcodec.NewEncoder(), logger.NewNoop())
}

func TestExtractStoresLosslessPNG(t *testing.T) {
	store := mocks.NewStorage()
	store.Put("music/song.mp3", id3WithPicture("image/png", pngBytes(t, 7, 5)))

	res, err := newExtractor(store).Extract(context.Background(), "music/song.mp3", "")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Ref != "song.png" {
		t.Errorf("Ref = %q, want song.png", res.Ref)
	}
	if res.Width != 7 || res.Height != 5 {
		t.Errorf("size = %dx%d, want 7x5", res.Width, res.Height)
	}
	if res.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q", res.MIMEType)
	}

	data, ok := store.Get("song.png")
	if !ok {
		t.Fatal("cover was not stored")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("stored cover is not a PNG: %v", err)
	}
	if got := color.NRGBAModel.Convert(img.At(1, 1)); got != (color.NRGBA{200, 100, 50, 255}) {
		t.Errorf("pixel = %v, want lossless copy", got)
	}
}

func TestExtractCustomName(t *testing.T) {
	store := mocks.NewStorage()
	store.Put("a.mp3", id3WithPicture("image/png", pngBytes(t, 2, 2)))

	res, err := newExtractor(store).Extract(context.Background(), "a.mp3", "art")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.Ref != "art.png" {
		t.Errorf("Ref = %q, want art.png", res.Ref)
	}
}

func TestExtractErrors(t *testing.T) {
	store := mocks.NewStorage()
	store.Put("plain.mp3", id3Tag(id3Frame("TIT2", append([]byte{0}, "Title"...))))
	store.Put("noise.bin", []byte("definitely not an audio file"))

	tests := []struct {
		name string
		ref  string
		kind pipeline.ErrorKind
	}{
		{"missing", "gone.mp3", pipeline.KindUnreachableReference},
		{"no tags", "noise.bin", pipeline.KindDecodeFailure},
		{"no picture", "plain.mp3", pipeline.KindDecodeFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newExtractor(store).Extract(context.Background(), tt.ref, "")
			if !pipeline.IsKind(err, tt.kind) {
				t.Errorf("error kind = %s, want %s (%v)", pipeline.KindOf(err), tt.kind, err)
			}
		})
	}

	_, err := newExtractor(store).Extract(context.Background(), "plain.mp3", "")
	if !errors.Is(err, ErrNoPicture) {
		t.Errorf("error = %v, want ErrNoPicture", err)
	}
	if len(store.Refs()) != 2 {
		t.Errorf("storage refs = %v, want nothing written", store.Refs())
	}
}

func TestExtractCancelled(t *testing.T) {
	store := mocks.NewStorage()
	store.Put("a.mp3", id3WithPicture("image/png", pngBytes(t, 2, 2)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newExtractor(store).Extract(ctx, "a.mp3", "")
	if !pipeline.IsKind(err, pipeline.KindCancelled) {
		t.Errorf("error kind = %s, want cancelled", pipeline.KindOf(err))
	}
}

func TestOutputName(t *testing.T) {
	if got := outputName(`C:\music\track.flac`, ""); got != "track.png" {
		t.Errorf("outputName() = %q, want track.png", got)
	}
	if got := outputName("x.m4a", "cover.PNG"); got != "cover.PNG" {
		t.Errorf("outputName() = %q, want cover.PNG", got)
	}
	if got := outputName("/", ""); !strings.HasPrefix(got, "AUDIO_") {
		t.Errorf("outputName() = %q, want AUDIO_ prefix", got)
	}
}
