package audio

import (
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestStatusLine(t *testing.T) {
	cases := []struct {
		meta Metadata
		want string
	}{
		{Metadata{Title: "Song", Artist: "Band"}, "Band - Song"},
		{Metadata{Title: "Song"}, "Song"},
		{Metadata{Artist: "Band"}, "Band"},
		{Metadata{}, ""},
	}
	for _, tc := range cases {
		if got := tc.meta.StatusLine(); got != tc.want {
			t.Fatalf("StatusLine(%+v)=%q want=%q", tc.meta, got, tc.want)
		}
	}
}

func TestReadMetadataFallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"My Track.mp3", "My Track.flac", "My Track.wav", "My Track.ogg"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("not tagged"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if got := ReadMetadata(path); got.Title != "My Track" {
			t.Fatalf("%s: expected file name title, got %+v", name, got)
		}
	}
}

func TestReadMetadataWAVInfoChunk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "untitled.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	enc := wav.NewEncoder(f, 44100, 16, 2, 1)
	// Odd-length values keep every INFO entry word aligned.
	enc.Metadata = &wav.Metadata{Artist: "Band!", Title: "Waves"}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 44100},
		Data:           make([]int, 64),
		SourceBitDepth: 16,
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

	got := ReadMetadata(path)
	if got.Title != "Waves" || got.Artist != "Band!" {
		t.Fatalf("unexpected metadata %+v", got)
	}
	if got.StatusLine() != "Band! - Waves" {
		t.Fatalf("status line %q", got.StatusLine())
	}
}

func TestSetCommentIgnoresCaseAndUnknownKeys(t *testing.T) {
	var m Metadata
	m.setComment("title", " Song ")
	m.setComment("ARTIST", "Band")
	m.setComment("Album", "Record")
	m.setComment("GENRE", "Noise")
	want := Metadata{Title: "Song", Artist: "Band", Album: "Record"}
	if m != want {
		t.Fatalf("got %+v want %+v", m, want)
	}
}
