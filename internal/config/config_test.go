package config

import (
	"flag"
	"strings"
	"testing"

	"github.com/guidoenr/fftvis/internal/params"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(&cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Visual != params.Defaults() {
		t.Fatalf("unexpected visual defaults %+v", cfg.Visual)
	}
}

func TestLoadFromReaderEmpty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *cfg != Default() {
		t.Fatalf("empty document should yield defaults, got %+v", cfg)
	}
}

func TestLoadFromReaderOverlay(t *testing.T) {
	doc := `
audio:
  backend: "null"
  realtime: true
analysis:
  window: hann
visual:
  width: 800
  bar_width: 5
beat:
  window_frames: 43
web:
  listen: ":8080"
max_decode_errors: 3
`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Audio.Backend != "null" || !cfg.Audio.Realtime {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Analysis.Window != "hann" || cfg.Analysis.FFTSize != 1024 {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if cfg.Visual.DisplayWidth != 800 || cfg.Visual.BarWidth != 5 || cfg.Visual.DisplayHeight != 480 {
		t.Errorf("visual = %+v", cfg.Visual)
	}
	if cfg.Beat.WindowFrames != 43 || cfg.Web.Listen != ":8080" || cfg.MaxDecodeErrors != 3 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadFromReaderRejectsUnknownKeys(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("visual:\n  colour: red\n"))
	if err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Audio.Backend = "alsa"
	cfg.Analysis.FFTSize = 1023
	cfg.Render.Palette = "rainbow"
	cfg.Visual.BarWidth = 0

	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"audio.backend", "analysis.fft_size", "render.palette", "bar_width"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("render:\n  backend: terminal\nvisual:\n  width: 800\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := BindFlags(fs)
	if err := fs.Parse([]string{"-width", "1024", "-no-audio", "-web", ":9000"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	flags.Apply(cfg)

	if cfg.Visual.DisplayWidth != 1024 {
		t.Errorf("width = %d, want 1024", cfg.Visual.DisplayWidth)
	}
	if cfg.Render.Backend != "terminal" {
		t.Errorf("unset flag overrode file value: render = %q", cfg.Render.Backend)
	}
	if !cfg.Audio.Disabled || cfg.Web.Listen != ":9000" {
		t.Errorf("unexpected overrides %+v %+v", cfg.Audio, cfg.Web)
	}
}
