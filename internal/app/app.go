package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/guidoenr/fftvis/internal/analyzer"
	"github.com/guidoenr/fftvis/internal/audio"
	"github.com/guidoenr/fftvis/internal/observe"
	"github.com/guidoenr/fftvis/internal/params"
	"github.com/guidoenr/fftvis/internal/render"
	"go.opentelemetry.io/otel/metric/noop"
)

// ErrPersistentDecode is returned by Run when too many consecutive frames
// failed to decode.
var ErrPersistentDecode = errors.New("persistent decode failure")

// State is the pipeline lifecycle.
type State int32

const (
	StateIdle State = iota
	StateStreaming
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config configures the pipeline.
type Config struct {
	Params params.Parameters
	// BeatWindow bounds the rolling average to the last frames; 0 is the whole track.
	BeatWindow      int
	MaxDecodeErrors int
	Status          string
	ProfilePath     string
	Log             *log.Logger
}

// Spectrum turns one frame of s16le PCM into per-bin power values.
type Spectrum interface {
	Analyze(pcm []byte) []float64
}

// Publisher receives a snapshot after every drawn frame. Publish must not block.
type Publisher interface {
	Publish(Snapshot)
}

// Snapshot is the externally visible result of one frame.
type Snapshot struct {
	Frame          int       `json:"frame"`
	State          string    `json:"state"`
	FrameAverage   float64   `json:"frameAverage"`
	RollingAverage float64   `json:"rollingAverage"`
	Beat           bool      `json:"beat"`
	Bars           []float64 `json:"bars"`
	Status         string    `json:"status"`
	Time           time.Time `json:"time"`
}

// Deps are the collaborators the pipeline drives. Metrics and Publisher are optional.
type Deps struct {
	Decoder   audio.Decoder
	Sink      audio.Sink
	Spectrum  Spectrum
	Canvas    render.Canvas
	Metrics   *observe.Metrics
	Publisher Publisher
}

// App is the frame pipeline: decode, play, analyse, map, detect beats and
// draw, one frame at a time.
type App struct {
	cfg     Config
	deps    Deps
	log     *log.Logger
	mapper  *render.Mapper
	rolling *analyzer.RollingState
	metrics *observe.Metrics
	prof    *profiler

	state        atomic.Int32
	frames       atomic.Int64
	decodeErrors int
}

// New validates cfg and wires the pipeline. It does not take ownership of deps.
func New(cfg Config, deps Deps) (*App, error) {
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stderr, "", log.LstdFlags)
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.BeatWindow < 0 || cfg.MaxDecodeErrors < 0 {
		return nil, fmt.Errorf("invalid limits: beat window=%d max decode errors=%d", cfg.BeatWindow, cfg.MaxDecodeErrors)
	}
	switch {
	case deps.Decoder == nil:
		return nil, errors.New("app: decoder is required")
	case deps.Sink == nil:
		return nil, errors.New("app: sink is required")
	case deps.Spectrum == nil:
		return nil, errors.New("app: spectrum is required")
	case deps.Canvas == nil:
		return nil, errors.New("app: canvas is required")
	}

	metrics := deps.Metrics
	if metrics == nil {
		var err error
		if metrics, err = observe.NewMetrics(noop.NewMeterProvider()); err != nil {
			return nil, err
		}
	}

	return &App{
		cfg:     cfg,
		deps:    deps,
		log:     cfg.Log,
		mapper:  render.NewMapper(cfg.Params),
		rolling: analyzer.NewRollingState(cfg.Params.LowBandBins, cfg.BeatWindow),
		metrics: metrics,
		prof:    newProfiler(cfg.ProfilePath, cfg.Log),
	}, nil
}

// State reports where the pipeline is in its lifecycle.
func (a *App) State() State { return State(a.state.Load()) }

// FrameCount returns the number of frames fully processed so far.
func (a *App) FrameCount() int { return int(a.frames.Load()) }

// Rolling exposes the beat state. Only read it once Run has returned.
func (a *App) Rolling() *analyzer.RollingState { return a.rolling }

// Run processes frames until end of stream, the display is closed, ctx is
// cancelled or decoding keeps failing. End of stream and a closed display
// return nil. Cancellation is only observed between frames.
func (a *App) Run(ctx context.Context) error {
	a.state.Store(int32(StateStreaming))
	defer a.state.Store(int32(StateDone))

	stream := a.deps.Decoder.AudioStream()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		frame, err := a.deps.Decoder.Next()
		if errors.Is(err, io.EOF) {
			a.log.Printf("end of stream after %d frames", a.FrameCount())
			return nil
		}
		if err != nil {
			a.decodeErrors++
			a.metrics.RecordSkip(ctx, observe.ReasonDecodeError)
			a.log.Printf("warn: skipping frame: %v", err)
			if a.cfg.MaxDecodeErrors > 0 && a.decodeErrors >= a.cfg.MaxDecodeErrors {
				return fmt.Errorf("%w: %d consecutive frames: %v", ErrPersistentDecode, a.decodeErrors, err)
			}
			continue
		}
		a.decodeErrors = 0

		if frame.Stream != stream {
			a.metrics.RecordSkip(ctx, observe.ReasonOtherStream)
			a.log.Printf("warn: discarding frame from stream %d (playing %d)", frame.Stream, stream)
			continue
		}

		if err := a.step(ctx, frame, start); err != nil {
			if errors.Is(err, render.ErrRendererQuit) {
				a.log.Printf("display closed after %d frames", a.FrameCount())
				return nil
			}
			return err
		}
	}
}

// Close releases the profiler. The collaborators in Deps belong to the caller.
func (a *App) Close() error {
	return a.prof.Close()
}

func (a *App) step(ctx context.Context, frame audio.Frame, start time.Time) error {
	n := a.FrameCount() + 1
	a.prof.beginFrame()
	last := start
	mark := func(stage string) {
		now := time.Now()
		d := now.Sub(last)
		last = now
		a.metrics.RecordStage(ctx, stage, d)
		a.prof.markSection(n, stage, d)
	}
	mark(observe.StageDecode)

	if err := a.deps.Sink.Play(frame.Data); err != nil {
		a.log.Printf("warn: playback: %v", err)
	}
	mark(observe.StagePlay)

	power := a.deps.Spectrum.Analyze(frame.Data)
	mark(observe.StageAnalyze)

	layout := a.mapper.Map(power)
	beat := a.rolling.Observe(layout.Accumulator)
	mark(observe.StageMap)

	drawErr := a.mapper.Draw(a.deps.Canvas, layout, beat.High, a.cfg.Status)
	mark(observe.StageDraw)

	a.frames.Add(1)
	a.metrics.RecordFrame(ctx, beat.High, beat.RollingAverage)
	a.prof.endFrame(n)
	a.publish(n, layout, beat)

	if drawErr != nil && !errors.Is(drawErr, render.ErrRendererQuit) {
		return fmt.Errorf("draw frame %d: %w", n, drawErr)
	}
	return drawErr
}

func (a *App) publish(n int, layout render.Layout, beat analyzer.Beat) {
	if a.deps.Publisher == nil {
		return
	}
	bars := make([]float64, len(layout.Bars))
	for i, b := range layout.Bars {
		bars[i] = b.Value
	}
	a.deps.Publisher.Publish(Snapshot{
		Frame:          n,
		State:          a.State().String(),
		FrameAverage:   beat.FrameAverage,
		RollingAverage: beat.RollingAverage,
		Beat:           beat.High,
		Bars:           bars,
		Status:         a.cfg.Status,
		Time:           time.Now(),
	})
}
