package config

import "flag"

// Flags binds command-line flags that override file values. Only flags
// given explicitly on the command line are applied.
type Flags struct {
	fs   *flag.FlagSet
	vals Config
}

var overrides = map[string]func(dst, src *Config){
	"audio-backend":     func(d, s *Config) { d.Audio.Backend = s.Audio.Backend },
	"audio-device":      func(d, s *Config) { d.Audio.Device = s.Audio.Device },
	"frame-bytes":       func(d, s *Config) { d.Audio.FrameBytes = s.Audio.FrameBytes },
	"realtime":          func(d, s *Config) { d.Audio.Realtime = s.Audio.Realtime },
	"no-audio":          func(d, s *Config) { d.Audio.Disabled = s.Audio.Disabled },
	"fft-size":          func(d, s *Config) { d.Analysis.FFTSize = s.Analysis.FFTSize },
	"fft-backend":       func(d, s *Config) { d.Analysis.Backend = s.Analysis.Backend },
	"window":            func(d, s *Config) { d.Analysis.Window = s.Analysis.Window },
	"power-metric":      func(d, s *Config) { d.Analysis.PowerMetric = s.Analysis.PowerMetric },
	"width":             func(d, s *Config) { d.Visual.DisplayWidth = s.Visual.DisplayWidth },
	"height":            func(d, s *Config) { d.Visual.DisplayHeight = s.Visual.DisplayHeight },
	"bar-width":         func(d, s *Config) { d.Visual.BarWidth = s.Visual.BarWidth },
	"beat-window":       func(d, s *Config) { d.Beat.WindowFrames = s.Beat.WindowFrames },
	"render":            func(d, s *Config) { d.Render.Backend = s.Render.Backend },
	"font":              func(d, s *Config) { d.Render.Font = s.Render.Font },
	"font-size":         func(d, s *Config) { d.Render.FontSize = s.Render.FontSize },
	"palette":           func(d, s *Config) { d.Render.Palette = s.Render.Palette },
	"keyboard":          func(d, s *Config) { d.Render.Keyboard = s.Render.Keyboard },
	"web":               func(d, s *Config) { d.Web.Listen = s.Web.Listen },
	"debug":             func(d, s *Config) { d.Log.Debug = s.Log.Debug },
	"profile":           func(d, s *Config) { d.Profile.Path = s.Profile.Path },
	"max-decode-errors": func(d, s *Config) { d.MaxDecodeErrors = s.MaxDecodeErrors },
}

// BindFlags registers every override flag on fs with the defaults as values.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs, vals: Default()}
	v := &f.vals

	fs.StringVar(&v.Audio.Backend, "audio-backend", v.Audio.Backend, "Playback backend (oto|portaudio|null)")
	fs.StringVar(&v.Audio.Device, "audio-device", v.Audio.Device, "PortAudio output device name (substring match)")
	fs.IntVar(&v.Audio.FrameBytes, "frame-bytes", v.Audio.FrameBytes, "Bytes of s16le PCM per decoded frame")
	fs.BoolVar(&v.Audio.Realtime, "realtime", v.Audio.Realtime, "Pace the null backend at playback speed")
	fs.BoolVar(&v.Audio.Disabled, "no-audio", v.Audio.Disabled, "Visualise a synthetic tone instead of a file")
	fs.IntVar(&v.Analysis.FFTSize, "fft-size", v.Analysis.FFTSize, "FFT window length")
	fs.StringVar(&v.Analysis.Backend, "fft-backend", v.Analysis.Backend, "FFT implementation (gonum|godsp)")
	fs.StringVar(&v.Analysis.Window, "window", v.Analysis.Window, "Window function (none|hann|hamming|blackman)")
	fs.StringVar(&v.Analysis.PowerMetric, "power-metric", v.Analysis.PowerMetric, "Bin value (abs-db|magnitude)")
	fs.IntVar(&v.Visual.DisplayWidth, "width", v.Visual.DisplayWidth, "Display width in pixels")
	fs.IntVar(&v.Visual.DisplayHeight, "height", v.Visual.DisplayHeight, "Display height in pixels")
	fs.IntVar(&v.Visual.BarWidth, "bar-width", v.Visual.BarWidth, "Bar width in pixels")
	fs.IntVar(&v.Beat.WindowFrames, "beat-window", v.Beat.WindowFrames, "Frames in the rolling average (0 = whole track)")
	fs.StringVar(&v.Render.Backend, "render", v.Render.Backend, "Display backend (sdl|terminal|none)")
	fs.StringVar(&v.Render.Font, "font", v.Render.Font, "Status line font file")
	fs.IntVar(&v.Render.FontSize, "font-size", v.Render.FontSize, "Status line font size")
	fs.StringVar(&v.Render.Palette, "palette", v.Render.Palette, "Terminal palette (block|shade|ascii)")
	fs.BoolVar(&v.Render.Keyboard, "keyboard", v.Render.Keyboard, "Quit on q/Esc in the terminal backend")
	fs.StringVar(&v.Web.Listen, "web", v.Web.Listen, "Serve the web view on this address (e.g. :8080)")
	fs.BoolVar(&v.Log.Debug, "debug", v.Log.Debug, "Enable verbose logging")
	fs.StringVar(&v.Profile.Path, "profile", v.Profile.Path, "Append per-frame stage timings to this CSV file")
	fs.IntVar(&v.MaxDecodeErrors, "max-decode-errors", v.MaxDecodeErrors, "Stop after this many consecutive decode errors (0 = never)")
	return f
}

// Apply copies the explicitly set flags into cfg. Call it after fs.Parse.
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		if set, ok := overrides[fl.Name]; ok {
			set(cfg, &f.vals)
		}
	})
}
