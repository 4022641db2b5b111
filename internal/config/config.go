// Package config loads fftvis settings from YAML and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/guidoenr/fftvis/internal/analyzer"
	"github.com/guidoenr/fftvis/internal/audio"
	"github.com/guidoenr/fftvis/internal/params"
	"github.com/guidoenr/fftvis/internal/render"
	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration.
type Config struct {
	Audio    AudioConfig       `yaml:"audio"`
	Analysis AnalysisConfig    `yaml:"analysis"`
	Visual   params.Parameters `yaml:"visual"`
	Beat     BeatConfig        `yaml:"beat"`
	Render   RenderConfig      `yaml:"render"`
	Web      WebConfig         `yaml:"web"`
	Log      LogConfig         `yaml:"log"`
	Profile  ProfileConfig     `yaml:"profile"`

	// MaxDecodeErrors stops playback after this many consecutive undecodable
	// frames. Zero disables the limit.
	MaxDecodeErrors int `yaml:"max_decode_errors"`
}

type AudioConfig struct {
	Backend    string `yaml:"backend"`
	Device     string `yaml:"device"`
	FrameBytes int    `yaml:"frame_bytes"`
	// Realtime paces the null backend like a real device.
	Realtime bool `yaml:"realtime"`
	// Disabled replaces the input file with a synthetic tone.
	Disabled bool `yaml:"disabled"`
}

type AnalysisConfig struct {
	FFTSize     int    `yaml:"fft_size"`
	Backend     string `yaml:"backend"`
	Window      string `yaml:"window"`
	PowerMetric string `yaml:"power_metric"`
}

type BeatConfig struct {
	// WindowFrames limits the rolling average to the most recent frames.
	// Zero averages over the whole track.
	WindowFrames int `yaml:"window_frames"`
}

type RenderConfig struct {
	Backend  string `yaml:"backend"`
	Font     string `yaml:"font"`
	FontSize int    `yaml:"font_size"`
	Palette  string `yaml:"palette"`
	Keyboard bool   `yaml:"keyboard"`
}

type WebConfig struct {
	// Listen is the HTTP address; empty disables the web view.
	Listen string `yaml:"listen"`
}

type LogConfig struct {
	Debug bool `yaml:"debug"`
}

type ProfileConfig struct {
	// Path of the per-frame CSV timing log; empty disables it.
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file or flag says otherwise.
func Default() Config {
	return Config{
		Audio: AudioConfig{
			Backend:    "oto",
			FrameBytes: audio.DefaultFrameBytes,
		},
		Analysis: AnalysisConfig{
			FFTSize:     analyzer.DefaultSize,
			Backend:     "gonum",
			Window:      "none",
			PowerMetric: string(analyzer.PowerAbsDecibel),
		},
		Visual: params.Defaults(),
		Render: RenderConfig{
			Backend:  "sdl",
			Font:     "cant.otf",
			FontSize: 12,
			Palette:  "block",
			Keyboard: true,
		},
		MaxDecodeErrors: 50,
	}
}

// Load reads the YAML file at path on top of Default and validates it.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r on top of Default. Unknown keys are
// rejected. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate returns every problem in cfg joined into one error.
func Validate(cfg *Config) error {
	var errs []error

	if !oneOf(cfg.Audio.Backend, audio.SinkNames()) {
		errs = append(errs, fmt.Errorf("audio.backend %q is invalid; valid values: %s", cfg.Audio.Backend, strings.Join(audio.SinkNames(), ", ")))
	}
	if cfg.Audio.FrameBytes <= 0 || cfg.Audio.FrameBytes%audio.BytesPerSample != 0 {
		errs = append(errs, fmt.Errorf("audio.frame_bytes must be a positive multiple of %d (got %d)", audio.BytesPerSample, cfg.Audio.FrameBytes))
	}

	if cfg.Analysis.FFTSize < 2 || cfg.Analysis.FFTSize%2 != 0 {
		errs = append(errs, fmt.Errorf("analysis.fft_size must be an even number >= 2 (got %d)", cfg.Analysis.FFTSize))
	}
	if !oneOf(cfg.Analysis.Backend, analyzer.BackendNames()) {
		errs = append(errs, fmt.Errorf("analysis.backend %q is invalid; valid values: %s", cfg.Analysis.Backend, strings.Join(analyzer.BackendNames(), ", ")))
	}
	if !oneOf(cfg.Analysis.Window, analyzer.WindowNames()) {
		errs = append(errs, fmt.Errorf("analysis.window %q is invalid; valid values: %s", cfg.Analysis.Window, strings.Join(analyzer.WindowNames(), ", ")))
	}
	if !oneOf(cfg.Analysis.PowerMetric, analyzer.PowerMetricNames()) {
		errs = append(errs, fmt.Errorf("analysis.power_metric %q is invalid; valid values: %s", cfg.Analysis.PowerMetric, strings.Join(analyzer.PowerMetricNames(), ", ")))
	}

	if err := cfg.Visual.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("visual: %w", err))
	}
	if cfg.Beat.WindowFrames < 0 {
		errs = append(errs, fmt.Errorf("beat.window_frames must not be negative (got %d)", cfg.Beat.WindowFrames))
	}

	if !oneOf(cfg.Render.Backend, render.BackendNames()) {
		errs = append(errs, fmt.Errorf("render.backend %q is invalid; valid values: %s", cfg.Render.Backend, strings.Join(render.BackendNames(), ", ")))
	}
	if cfg.Render.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("render.font_size must be positive (got %d)", cfg.Render.FontSize))
	}
	if !oneOf(cfg.Render.Palette, render.PaletteNames()) {
		errs = append(errs, fmt.Errorf("render.palette %q is invalid; valid values: %s", cfg.Render.Palette, strings.Join(render.PaletteNames(), ", ")))
	}

	if cfg.MaxDecodeErrors < 0 {
		errs = append(errs, fmt.Errorf("max_decode_errors must not be negative (got %d)", cfg.MaxDecodeErrors))
	}
	return errors.Join(errs...)
}

func oneOf(v string, valid []string) bool {
	return slices.Contains(valid, strings.ToLower(v))
}
