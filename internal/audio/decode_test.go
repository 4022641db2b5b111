package audio

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, path string, bitDepth int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	enc := wav.NewEncoder(f, 44100, bitDepth, 2, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 44100},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
}

func TestOpenWAVFramesWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	data := make([]int, 1000)
	for i := range data {
		data[i] = i - 500
	}
	writeTestWAV(t, path, 16, data)

	dec, err := Open(path, 400)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dec.Close()

	if got := dec.Format(); got.SampleRate != 44100 || got.Channels != 2 {
		t.Fatalf("unexpected format %+v", got)
	}

	var sizes []int
	var total []int16
	for {
		frame, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if frame.Stream != dec.AudioStream() {
			t.Fatalf("unexpected stream %d", frame.Stream)
		}
		sizes = append(sizes, len(frame.Data))
		dst := make([]float64, len(frame.Data)/2)
		Normalize(dst, frame.Data)
		for _, v := range dst {
			total = append(total, int16(v*32768))
		}
	}

	want := []int{400, 400, 400, 400, 400}
	if len(sizes) != len(want) {
		t.Fatalf("frame sizes=%v want=%v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("frame sizes=%v want=%v", sizes, want)
		}
	}
	for i, v := range total {
		if int(v) != data[i] {
			t.Fatalf("sample %d = %d want %d", i, v, data[i])
		}
	}
}

func TestOpenWAVReturnsShortFinalFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.wav")
	writeTestWAV(t, path, 16, make([]int, 150))

	dec, err := Open(path, 200)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dec.Close()

	first, err := dec.Next()
	if err != nil || len(first.Data) != 200 {
		t.Fatalf("first frame len=%d err=%v", len(first.Data), err)
	}
	second, err := dec.Next()
	if err != nil || len(second.Data) != 100 {
		t.Fatalf("second frame len=%d err=%v", len(second.Data), err)
	}
	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF to be sticky, got %v", err)
	}
}

func TestWAVReaderConverts8And24Bit(t *testing.T) {
	r := &wavReader{src: bytes.NewReader([]byte{128, 255, 0}), bitDepth: 8}
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read 8-bit: %v", err)
	}
	dst := make([]float64, 3)
	if n := Normalize(dst, out); n != 3 {
		t.Fatalf("expected 3 samples, got %d", n)
	}
	if dst[0] != 0 || dst[2] != -1 || dst[1] <= 0.9 {
		t.Fatalf("unexpected 8-bit conversion %v", dst)
	}

	// 0x400000 is half scale in 24-bit.
	r = &wavReader{src: bytes.NewReader([]byte{0x00, 0x00, 0x40}), bitDepth: 24}
	out, err = io.ReadAll(r)
	if err != nil {
		t.Fatalf("read 24-bit: %v", err)
	}
	Normalize(dst[:1], out)
	if dst[0] != 0.5 {
		t.Fatalf("expected 0.5 for half-scale 24-bit sample, got %f", dst[0])
	}
}

func TestOpenRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.xyz")
	if err := os.WriteFile(path, []byte("nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Open(path, 0)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestOpenRejectsCorruptWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("definitely not riff"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path, 0); err == nil {
		t.Fatalf("expected error for corrupt wav")
	}
}

func TestFormatDuration(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 2}
	if got := f.Duration(44100 * 4); got.Seconds() != 1 {
		t.Fatalf("expected 1s, got %v", got)
	}
	if got := (Format{}).Duration(100); got != 0 {
		t.Fatalf("expected 0 for empty format, got %v", got)
	}
}

// flakyReader yields half a frame, fails once, then serves data normally.
type flakyReader struct {
	data   []byte
	failed bool
}

func (r *flakyReader) Read(p []byte) (int, error) {
	if !r.failed && len(r.data) <= 6 {
		r.failed = true
		return 0, errors.New("bad block")
	}
	if !r.failed && len(p) > 2 {
		p = p[:2]
	}
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestNextDropsPartialFrameOnReadError(t *testing.T) {
	src := &flakyReader{data: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}}
	d := &FileDecoder{src: src, buf: make([]byte, 4)}

	frame, err := d.Next()
	if err != nil || !bytes.Equal(frame.Data, []byte{1, 2, 3, 4}) {
		t.Fatalf("first frame: %v %v", frame.Data, err)
	}
	frame, err = d.Next()
	if err == nil {
		t.Fatalf("expected read error, got frame %v", frame.Data)
	}
	if frame.Data != nil {
		t.Fatalf("partial bytes leaked into frame: %v", frame.Data)
	}

	frame, err = d.Next()
	if err != nil || !bytes.Equal(frame.Data, []byte{7, 8, 9, 10}) {
		t.Fatalf("frame after error: %v %v", frame.Data, err)
	}
	frame, err = d.Next()
	if err != nil || !bytes.Equal(frame.Data, []byte{11, 12}) {
		t.Fatalf("short final frame: %v %v", frame.Data, err)
	}
	if _, err := d.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}
