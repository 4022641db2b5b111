package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/guidoenr/fftvis/internal/audio"
	"github.com/mjibson/go-dsp/window"
)

const (
	// DefaultSize is the analysis window length.
	DefaultSize = 1024

	// minPower floors mag² before the log so silent bins stay finite (|dB| <= 200).
	minPower = 1e-10
)

// PowerMetric selects how a complex bin becomes a bar value.
type PowerMetric string

const (
	// PowerAbsDecibel is |20·log10(mag²)|. Loud and near-silent bins both read high.
	PowerAbsDecibel PowerMetric = "abs-db"
	// PowerMagnitude is the linear magnitude sqrt(re²+im²).
	PowerMagnitude PowerMetric = "magnitude"
)

// PowerMetricNames lists the supported metrics.
func PowerMetricNames() []string {
	return []string{string(PowerAbsDecibel), string(PowerMagnitude)}
}

// WindowNames lists the supported window functions.
func WindowNames() []string {
	return []string{"none", "hann", "hamming", "blackman"}
}

// Config controls Analyzer behavior.
type Config struct {
	Size        int
	Backend     string
	Window      string
	PowerMetric PowerMetric
}

// Analyzer turns one frame of PCM into a power spectrum of Size/2+1 bins.
// Its buffers are allocated once and reused for every frame.
type Analyzer struct {
	size   int
	metric PowerMetric
	plan   transform

	samples []float64
	taper   []float64
	coeffs  []complex128
	power   []float64
}

// New builds the transform plan and scratch buffers.
func New(cfg Config) (*Analyzer, error) {
	if cfg.Size == 0 {
		cfg.Size = DefaultSize
	}
	if cfg.Size < 2 || cfg.Size%2 != 0 {
		return nil, fmt.Errorf("fft size must be an even number >= 2 (got %d)", cfg.Size)
	}
	if cfg.PowerMetric == "" {
		cfg.PowerMetric = PowerAbsDecibel
	}
	if cfg.PowerMetric != PowerAbsDecibel && cfg.PowerMetric != PowerMagnitude {
		return nil, fmt.Errorf("unknown power metric %q", cfg.PowerMetric)
	}

	plan, err := newTransform(cfg.Backend, cfg.Size)
	if err != nil {
		return nil, err
	}
	taper, err := windowCoefficients(cfg.Window, cfg.Size)
	if err != nil {
		return nil, err
	}

	bins := cfg.Size/2 + 1
	return &Analyzer{
		size:    cfg.Size,
		metric:  cfg.PowerMetric,
		plan:    plan,
		samples: make([]float64, cfg.Size),
		taper:   taper,
		coeffs:  make([]complex128, bins),
		power:   make([]float64, bins),
	}, nil
}

// Size returns the analysis window length.
func (a *Analyzer) Size() int { return a.size }

// Bins returns the number of values Analyze produces.
func (a *Analyzer) Bins() int { return len(a.power) }

// Analyze normalizes pcm into the analysis window and returns its power
// spectrum. The result is owned by the Analyzer and overwritten by the next call.
func (a *Analyzer) Analyze(pcm []byte) []float64 {
	audio.Normalize(a.samples, pcm)
	return a.spectrum()
}

// AnalyzeSamples is Analyze for an already normalized window; short input is zero padded.
func (a *Analyzer) AnalyzeSamples(samples []float64) []float64 {
	n := copy(a.samples, samples)
	for i := n; i < len(a.samples); i++ {
		a.samples[i] = 0
	}
	return a.spectrum()
}

func (a *Analyzer) spectrum() []float64 {
	if a.taper != nil {
		for i, w := range a.taper {
			a.samples[i] *= w
		}
	}

	a.plan.coefficients(a.coeffs, a.samples)

	for i, c := range a.coeffs {
		re, im := real(c), imag(c)
		mag := math.Sqrt(re*re + im*im)
		if a.metric == PowerMagnitude {
			a.power[i] = mag
			continue
		}
		a.power[i] = absDecibel(mag)
	}
	return a.power
}

// absDecibel returns |20·log10(mag²)| with mag² floored at minPower.
func absDecibel(mag float64) float64 {
	p := mag * mag
	if p < minPower || math.IsNaN(p) {
		p = minPower
	}
	return math.Abs(20 * math.Log10(p))
}

func windowCoefficients(name string, size int) ([]float64, error) {
	switch strings.ToLower(name) {
	case "", "none", "rect", "rectangular":
		return nil, nil
	case "hann", "hanning":
		return window.Hann(size), nil
	case "hamming":
		return window.Hamming(size), nil
	case "blackman":
		return window.Blackman(size), nil
	default:
		return nil, fmt.Errorf("unknown window function %q", name)
	}
}
