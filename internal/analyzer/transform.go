package analyzer

import (
	"fmt"
	"strings"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// transform computes the first n/2+1 coefficients of a real-input DFT.
type transform interface {
	coefficients(dst []complex128, src []float64)
}

// BackendNames lists the supported transform implementations.
func BackendNames() []string {
	return []string{"gonum", "godsp"}
}

func newTransform(backend string, size int) (transform, error) {
	switch strings.ToLower(backend) {
	case "", "gonum":
		return &gonumTransform{plan: fourier.NewFFT(size)}, nil
	case "godsp", "go-dsp":
		return godspTransform{}, nil
	default:
		return nil, fmt.Errorf("unknown transform backend %q", backend)
	}
}

// gonumTransform holds a precomputed plan and writes into dst without allocating.
type gonumTransform struct {
	plan *fourier.FFT
}

func (t *gonumTransform) coefficients(dst []complex128, src []float64) {
	t.plan.Coefficients(dst, src)
}

type godspTransform struct{}

func (godspTransform) coefficients(dst []complex128, src []float64) {
	copy(dst, fft.FFTReal(src))
}
