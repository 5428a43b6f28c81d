package sequence

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/user/framekit/pkg/adapters/filestorage"
	"github.com/user/framekit/pkg/adapters/logger"
	"github.com/user/framekit/pkg/adapters/osfilesystem"
	"github.com/user/framekit/pkg/adapters/stdcodec"
	"github.com/user/framekit/pkg/mocks"
	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

func frames(n int) []ports.DecodedFrame {
	out := make([]ports.DecodedFrame, n)
	for i := range out {
		out[i] = ports.DecodedFrame{Image: image.NewNRGBA(image.Rect(0, 0, 4, 4)), DelayMs: 10 * (i + 1)}
	}
	return out
}

func newMockSequencer(reader *mocks.ContainerReader) (*Sequencer, *mocks.Storage) {
	store := mocks.NewStorage()
	store.Put("anim/clip.gif", []byte("container"))
	codec := &mocks.ContainerCodec{
		NewReaderFunc: func(ctx context.Context, data []byte) (ports.ContainerReader, error) {
			return reader, nil
		},
	}
	return New(store, codec, &mocks.Encoder{}, logger.NewNoop()), store
}

func TestIteratorYieldsFramesInOrder(t *testing.T) {
	reader := &mocks.ContainerReader{Frames: frames(5)}
	seq, store := newMockSequencer(reader)

	it, err := seq.Extract(context.Background(), "anim/clip.gif", ports.FormatPNG, nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	defer it.Close()

	if it.Total() != 5 {
		t.Errorf("Total() = %d, want 5", it.Total())
	}

	var got []pipeline.FrameRef
	for it.Next(context.Background()) {
		got = append(got, it.Frame())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d frames, want 5", len(got))
	}
	for i, f := range got {
		if f.Index != i {
			t.Errorf("frame %d index = %d", i, f.Index)
		}
		if f.DelayMs != 10*(i+1) {
			t.Errorf("frame %d delay = %d, want %d", i, f.DelayMs, 10*(i+1))
		}
	}
	if got[0].Ref != "clip_frame_0001.png" || got[4].Ref != "clip_frame_0005.png" {
		t.Errorf("refs = %s .. %s", got[0].Ref, got[4].Ref)
	}
	if len(store.WriteCalls) != 5 {
		t.Errorf("WriteCalls = %d, want 5", len(store.WriteCalls))
	}
	if !reader.Closed {
		t.Error("reader not closed at end of sequence")
	}
}

func TestIteratorIsNotRestartable(t *testing.T) {
	seq, _ := newMockSequencer(&mocks.ContainerReader{Frames: frames(1)})
	it, err := seq.Extract(context.Background(), "anim/clip.gif", ports.FormatPNG, nil)
	if err != nil {
		t.Fatal(err)
	}
	for it.Next(context.Background()) {
	}
	if it.Next(context.Background()) {
		t.Error("Next() returned true after the sequence ended")
	}
}

func TestIteratorIsLazy(t *testing.T) {
	seq, store := newMockSequencer(&mocks.ContainerReader{Frames: frames(4)})
	it, err := seq.Extract(context.Background(), "anim/clip.gif", ports.FormatPNG, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	if len(store.WriteCalls) != 0 {
		t.Fatalf("Extract wrote %d frames before any Next", len(store.WriteCalls))
	}
	it.Next(context.Background())
	it.Next(context.Background())
	if len(store.WriteCalls) != 2 {
		t.Errorf("WriteCalls = %d after two Next calls, want 2", len(store.WriteCalls))
	}
}

func TestIteratorDecodeError(t *testing.T) {
	reader := &mocks.ContainerReader{Frames: frames(5), FailAt: 2, Err: errors.New("truncated")}
	seq, _ := newMockSequencer(reader)
	it, err := seq.Extract(context.Background(), "anim/clip.gif", ports.FormatPNG, nil)
	if err != nil {
		t.Fatal(err)
	}

	n := 0
	for it.Next(context.Background()) {
		n++
	}
	if n != 2 {
		t.Errorf("yielded %d frames, want 2", n)
	}
	if !pipeline.IsKind(it.Err(), pipeline.KindDecodeFailure) {
		t.Errorf("Err() = %v, want decode failure", it.Err())
	}
}

func TestExtractRequiresFormat(t *testing.T) {
	seq, _ := newMockSequencer(&mocks.ContainerReader{})
	_, err := seq.Extract(context.Background(), "anim/clip.gif", ports.FormatUnknown, nil)
	if !pipeline.IsKind(err, pipeline.KindInvalidParameter) {
		t.Errorf("Extract() error = %v, want invalid parameter", err)
	}
}

func TestExtractMissingContainer(t *testing.T) {
	seq, _ := newMockSequencer(&mocks.ContainerReader{})
	_, err := seq.Extract(context.Background(), "nowhere.gif", ports.FormatPNG, nil)
	if !pipeline.IsKind(err, pipeline.KindUnreachableReference) {
		t.Errorf("Extract() error = %v, want unreachable", err)
	}
}

// apngFixture writes an n-frame APNG with distinct solid frames to storage.
func apngFixture(t *testing.T, store ports.Storage, n int) []*image.NRGBA {
	t.Helper()
	w, err := stdcodec.NewCodec().NewWriter(ports.FormatAPNG, ports.ContainerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Begin(6, 4); err != nil {
		t.Fatal(err)
	}
	var src []*image.NRGBA
	for i := 0; i < n; i++ {
		img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
		for p := 0; p < len(img.Pix); p += 4 {
			copy(img.Pix[p:], []byte{uint8(40 * i), uint8(255 - 40*i), uint8(p), 255})
		}
		src = append(src, img)
		if err := w.AddFrame(img, 50); err != nil {
			t.Fatal(err)
		}
	}
	data, err := w.End()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Write(context.Background(), "clip.png", data); err != nil {
		t.Fatal(err)
	}
	return src
}

func TestRoundTripLossless(t *testing.T) {
	store := mocks.NewStorage()
	src := apngFixture(t, store, 4)
	seq := New(store, stdcodec.NewCodec(), stdcodec.NewEncoder(), logger.NewNoop())

	res, err := NewStage(seq).Execute(context.Background(), pipeline.ExtractInput{SourceRef: "clip.png", Format: ports.FormatPNG})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Frames) != len(src) {
		t.Fatalf("got %d frames, want %d", len(res.Frames), len(src))
	}

	dec := stdcodec.NewDecoder(0)
	for i, f := range res.Frames {
		data, _ := store.Get(f.Ref)
		img, err := dec.Decode(context.Background(), data, ports.DecodeConstraints{})
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		got := image.NewNRGBA(img.Bounds())
		for y := 0; y < 4; y++ {
			for x := 0; x < 6; x++ {
				got.Set(x, y, img.At(x, y))
			}
		}
		if !bytes.Equal(got.Pix, src[i].Pix) {
			t.Errorf("frame %d differs after round trip", i)
		}
	}
}

func TestCancellationLeavesNoPartialFrame(t *testing.T) {
	root := t.TempDir()
	store, err := filestorage.New(root, osfilesystem.New())
	if err != nil {
		t.Fatal(err)
	}
	apngFixture(t, store, 5)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seq := New(store, stdcodec.NewCodec(), stdcodec.NewEncoder(), logger.NewNoop())
	var seen []pipeline.FrameRef
	_, err = NewStage(seq).Execute(ctx, pipeline.ExtractInput{
		SourceRef: "clip.png",
		Format:    ports.FormatPNG,
		OnFrame: func(f pipeline.FrameRef) {
			seen = append(seen, f)
			if len(seen) == 2 {
				cancel()
			}
		},
	})
	if !pipeline.IsKind(err, pipeline.KindCancelled) {
		t.Fatalf("Execute() error = %v, want cancelled", err)
	}
	if len(seen) != 2 {
		t.Errorf("delivered %d frames, want 2", len(seen))
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, n := range names {
		if strings.HasSuffix(n, ".tmp") || strings.Contains(n, "_frame_0003") {
			t.Errorf("unexpected file %s after cancellation", n)
		}
	}
	if len(names) != 1 || names[0] != "clip.png" {
		t.Errorf("files after failed stage = %v, want only the container", names)
	}
}

func TestIteratorCancellationKeepsDeliveredFrames(t *testing.T) {
	root := t.TempDir()
	store, err := filestorage.New(root, osfilesystem.New())
	if err != nil {
		t.Fatal(err)
	}
	apngFixture(t, store, 5)

	ctx, cancel := context.WithCancel(context.Background())
	seq := New(store, stdcodec.NewCodec(), stdcodec.NewEncoder(), logger.NewNoop())
	it, err := seq.Extract(ctx, "clip.png", ports.FormatPNG, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	it.Next(ctx)
	it.Next(ctx)
	cancel()
	if it.Next(ctx) {
		t.Fatal("Next() succeeded after cancellation")
	}
	if !pipeline.IsKind(it.Err(), pipeline.KindCancelled) {
		t.Errorf("Err() = %v, want cancelled", it.Err())
	}

	for i, name := range []string{"clip_frame_0001.png", "clip_frame_0002.png"} {
		if ok, _ := store.Exists(context.Background(), name); !ok {
			t.Errorf("delivered frame %d (%s) missing", i, name)
		}
	}
	if ok, _ := store.Exists(context.Background(), "clip_frame_0003.png"); ok {
		t.Error("frame 3 written after cancellation")
	}
}
