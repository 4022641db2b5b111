package render

import (
	"image/color"

	"github.com/guidoenr/fftvis/internal/params"
)

// Bar is one visible spectrum bin laid out on the display.
type Bar struct {
	Bin   int
	Value float64
	Rect  Rect
	Color color.RGBA
}

// Layout is the mapped result of one power spectrum.
type Layout struct {
	Bars []Bar
	// Accumulator sums the scaled values of the low-frequency band.
	Accumulator float64
}

// Mapper applies the low-frequency emphasis curve and lays bins out as bars.
type Mapper struct {
	p    params.Parameters
	bars []Bar
}

// NewMapper returns a Mapper for the given display parameters.
func NewMapper(p params.Parameters) *Mapper {
	return &Mapper{
		p:    p,
		bars: make([]Bar, 0, p.MaxVisibleBins()),
	}
}

// Parameters returns the display parameters in use.
func (m *Mapper) Parameters() params.Parameters { return m.p }

// Map scales every bin, sums the low band and builds the visible bars. The
// scale curve restarts at ScaleStart on every call. The returned Bars slice
// is reused by the next call.
func (m *Mapper) Map(power []float64) Layout {
	p := m.p
	bars := m.bars[:0]
	accum := 0.0

	for bin, pw := range power {
		value := pw * p.ScaleAt(bin)

		if bin < p.LowBandBins {
			accum += value
		}

		x := bin * p.BarWidth
		if x > p.DisplayWidth {
			continue
		}

		h := 0
		if value > 0 {
			h = int(value)
		}
		bars = append(bars, Bar{
			Bin:   bin,
			Value: value,
			Rect:  Rect{X: x, Y: p.DisplayHeight - h, W: p.BarWidth, H: h},
			Color: color.RGBA{R: 0, G: Shade(value), B: 0, A: 255},
		})
	}

	m.bars = bars
	return Layout{Bars: bars, Accumulator: accum}
}

// Shade is the green intensity for a bar: 255·(255/value), clamped to a byte.
// Values at or below zero get the minimum intensity.
func Shade(value float64) uint8 {
	if value <= 0 {
		return 0
	}
	return uint8(clampFloat(255*(255/value), 0, 255))
}

// Draw issues one frame to c in a fixed order: clear, bars, beat indicator,
// status text, present.
func (m *Mapper) Draw(c Canvas, layout Layout, beat bool, status string) error {
	if err := c.Clear(); err != nil {
		return err
	}
	for _, bar := range layout.Bars {
		if err := c.FillRect(bar.Rect, bar.Color); err != nil {
			return err
		}
	}
	if beat {
		size := m.p.IndicatorSize
		if err := c.FillRect(Rect{X: m.p.IndicatorX, Y: m.p.IndicatorY, W: size, H: size}, Red); err != nil {
			return err
		}
	}
	if status != "" {
		if err := c.DrawText(m.p.StatusX, m.p.StatusY, status, White); err != nil {
			return err
		}
	}
	return c.Present()
}
