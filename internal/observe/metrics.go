// Package observe holds the OpenTelemetry instruments recorded by the frame
// pipeline and the provider setup that exports them to Prometheus.
//
// Tests should build their own [Metrics] with [NewMetrics] over a
// [sdkmetric.ManualReader]-backed provider instead of the global one.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/guidoenr/fftvis"

// Skip reasons reported on fftvis.frames.skipped.
const (
	ReasonDecodeError = "decode_error"
	ReasonOtherStream = "other_stream"
)

// Pipeline stages reported on fftvis.stage.duration.
const (
	StageDecode  = "decode"
	StagePlay    = "play"
	StageAnalyze = "analyze"
	StageMap     = "map"
	StageDraw    = "draw"
)

// Metrics holds the pipeline instruments. The OTel types are safe for
// concurrent use.
type Metrics struct {
	FramesProcessed metric.Int64Counter

	// FramesSkipped uses attribute.String("reason", ...).
	FramesSkipped metric.Int64Counter

	Beats metric.Int64Counter

	// StageDuration uses attribute.String("stage", ...).
	StageDuration metric.Float64Histogram

	RollingAverage metric.Float64Gauge
}

// stageBuckets are histogram boundaries in seconds; a 44.1kHz stereo frame
// lasts about 26ms.
var stageBuckets = []float64{
	0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// NewMetrics creates every instrument on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FramesProcessed, err = m.Int64Counter("fftvis.frames.processed",
		metric.WithDescription("Frames played, analysed and drawn."),
	); err != nil {
		return nil, err
	}
	if met.FramesSkipped, err = m.Int64Counter("fftvis.frames.skipped",
		metric.WithDescription("Frames dropped before analysis, by reason."),
	); err != nil {
		return nil, err
	}
	if met.Beats, err = m.Int64Counter("fftvis.beats",
		metric.WithDescription("Frames whose low band exceeded the rolling average."),
	); err != nil {
		return nil, err
	}
	if met.StageDuration, err = m.Float64Histogram("fftvis.stage.duration",
		metric.WithDescription("Time spent in each pipeline stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RollingAverage, err = m.Float64Gauge("fftvis.rolling_average",
		metric.WithDescription("Current rolling low-band average."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level instance built on the global
// meter provider. Call it after InitProvider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func (m *Metrics) RecordSkip(ctx context.Context, reason string) {
	m.FramesSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	m.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordFrame counts a processed frame and its beat outcome.
func (m *Metrics) RecordFrame(ctx context.Context, beat bool, rolling float64) {
	m.FramesProcessed.Add(ctx, 1)
	if beat {
		m.Beats.Add(ctx, 1)
	}
	m.RollingAverage.Record(ctx, rolling)
}
