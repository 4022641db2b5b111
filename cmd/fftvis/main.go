package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/guidoenr/fftvis/internal/analyzer"
	"github.com/guidoenr/fftvis/internal/app"
	"github.com/guidoenr/fftvis/internal/audio"
	"github.com/guidoenr/fftvis/internal/config"
	"github.com/guidoenr/fftvis/internal/observe"
	"github.com/guidoenr/fftvis/internal/render"
	"github.com/guidoenr/fftvis/internal/web"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func init() {
	// SDL wants every video call on the thread that created the window.
	runtime.LockOSThread()
}

func main() {
	var (
		configPath = flag.String("config", "", "YAML configuration file")
		listDevs   = flag.Bool("list-audio-devices", false, "List available audio output devices and exit")
	)
	flags := config.BindFlags(flag.CommandLine)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: fftvis [flags] <audio file>\n\nsupported formats: %v\n\n", audio.SupportedExts())
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("%v", err)
		}
		cfg = *loaded
	}
	flags.Apply(&cfg)
	if err := config.Validate(&cfg); err != nil {
		log.Fatalf("invalid configuration:\n%v", err)
	}

	logger := log.New(os.Stderr, "[fftvis] ", log.LstdFlags)
	if !cfg.Log.Debug {
		logger.SetFlags(0)
	}

	if *listDevs {
		listDevices(logger)
		return
	}

	if flag.NArg() != 1 && !cfg.Audio.Disabled {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, flag.Arg(0), logger); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "\nExiting...")
			return
		}
		logger.Fatalf("%v", err)
	}
	time.Sleep(50 * time.Millisecond)
}

func run(ctx context.Context, cfg config.Config, path string, logger *log.Logger) error {
	var (
		dec    audio.Decoder
		status string
		title  string
	)
	if cfg.Audio.Disabled {
		dec = audio.NewToneSource(audio.Format{SampleRate: 44100, Channels: 2}, cfg.Audio.FrameBytes, 0, time.Now().UnixNano())
		status = "synthetic tone"
		title = status
		logger.Println("audio disabled, using synthetic tone")
	} else {
		fd, err := audio.Open(path, cfg.Audio.FrameBytes)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		dec = fd
		status = audio.ReadMetadata(path).StatusLine()
		title = filepath.Base(path)
	}
	defer dec.Close()
	format := dec.Format()
	logger.Printf("playing %q (%d Hz, %d channels)", title, format.SampleRate, format.Channels)

	sink, err := audio.NewSink(audio.SinkConfig{
		Backend:    cfg.Audio.Backend,
		DeviceName: cfg.Audio.Device,
		Realtime:   cfg.Audio.Realtime,
	}, format)
	if err != nil {
		return fmt.Errorf("audio output: %w", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Printf("warn: close audio output: %v", err)
		}
	}()

	spectrum, err := analyzer.New(analyzer.Config{
		Size:        cfg.Analysis.FFTSize,
		Backend:     cfg.Analysis.Backend,
		Window:      cfg.Analysis.Window,
		PowerMetric: analyzer.PowerMetric(cfg.Analysis.PowerMetric),
	})
	if err != nil {
		return fmt.Errorf("analyzer: %w", err)
	}

	canvas, err := render.Open(render.Options{
		Backend:  cfg.Render.Backend,
		Width:    cfg.Visual.DisplayWidth,
		Height:   cfg.Visual.DisplayHeight,
		Title:    title,
		FontPath: cfg.Render.Font,
		FontSize: cfg.Render.FontSize,
		Palette:  cfg.Render.Palette,
		Keyboard: cfg.Render.Keyboard,
	})
	if err != nil {
		return fmt.Errorf("display: %w", err)
	}
	defer canvas.Close()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = shutdownMetrics(shutdownCtx)
	}()

	deps := app.Deps{
		Decoder:  dec,
		Sink:     sink,
		Spectrum: spectrum,
		Canvas:   canvas,
		Metrics:  observe.DefaultMetrics(),
	}
	var server *web.Server
	if cfg.Web.Listen != "" {
		server = web.NewServer(cfg.Web.Listen, log.New(logger.Writer(), "[fftvis] [web] ", logger.Flags()))
		deps.Publisher = server
	}

	a, err := app.New(app.Config{
		Params:          cfg.Visual,
		BeatWindow:      cfg.Beat.WindowFrames,
		MaxDecodeErrors: cfg.MaxDecodeErrors,
		Status:          status,
		ProfilePath:     cfg.Profile.Path,
		Log:             logger,
	}, deps)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	defer a.Close()

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)
	if server != nil {
		g.Go(func() error { return server.Run(gctx) })
	}

	// The pipeline stays on the main goroutine; see init.
	runErr := a.Run(gctx)
	stop()
	webErr := g.Wait()

	if webErr != nil && !errors.Is(webErr, context.Canceled) {
		return fmt.Errorf("web: %w", webErr)
	}
	if runErr != nil {
		return runErr
	}
	logger.Printf("done: %d frames, rolling average %.2f", a.FrameCount(), a.Rolling().RollingAverage())
	return nil
}

func listDevices(logger *log.Logger) {
	if err := audio.Initialize(); err != nil {
		logger.Fatalf("failed to initialize PortAudio: %v", err)
	}
	defer audio.Terminate()

	devices, err := audio.ListDevices()
	if err != nil {
		logger.Fatalf("list devices: %v", err)
	}
	fmt.Printf("\n=== Audio Output Devices ===\n\n")
	for _, dev := range devices {
		markers := ""
		if dev.IsDefaultOutput {
			markers += " (default)"
		}
		fmt.Printf("- %s [%s]%s\n    inputs:%d outputs:%d sample:%.0f Hz\n",
			dev.Name, dev.HostAPI, markers, dev.MaxInput, dev.MaxOutput, dev.DefaultSampleHz)
	}
	if dev, err := audio.AutoDetectDevice(); err == nil && dev != nil {
		fmt.Printf("\nAuto-detected output: %s (%.0f Hz, %d channels)\n", dev.Name, dev.DefaultSampleRate, dev.MaxOutputChannels)
	}
}
