package params

import "fmt"

// Parameters models the virtual display and the bar-graph scaling curve.
type Parameters struct {
	DisplayWidth  int     `yaml:"width" json:"width"`
	DisplayHeight int     `yaml:"height" json:"height"`
	BarWidth      int     `yaml:"bar_width" json:"barWidth"`
	ScaleStart    float64 `yaml:"scale_start" json:"scaleStart"`
	ScaleStep     float64 `yaml:"scale_step" json:"scaleStep"`
	LowBandBins   int     `yaml:"low_band_bins" json:"lowBandBins"`

	// Beat indicator drawn when a frame is louder than the running average.
	IndicatorX    int `yaml:"indicator_x" json:"indicatorX"`
	IndicatorY    int `yaml:"indicator_y" json:"indicatorY"`
	IndicatorSize int `yaml:"indicator_size" json:"indicatorSize"`

	// Status line origin.
	StatusX int `yaml:"status_x" json:"statusX"`
	StatusY int `yaml:"status_y" json:"statusY"`
}

// Defaults returns the classic 640x480 layout with 4px bars.
func Defaults() Parameters {
	return Parameters{
		DisplayWidth:  640,
		DisplayHeight: 480,
		BarWidth:      4,
		ScaleStart:    6.0,
		ScaleStep:     0.02,
		LowBandBins:   40,
		IndicatorX:    1,
		IndicatorY:    1,
		IndicatorSize: 5,
		StatusX:       5,
		StatusY:       5,
	}
}

// ScaleAt returns the emphasis factor applied to the given bin.
func (p Parameters) ScaleAt(bin int) float64 {
	return p.ScaleStart - p.ScaleStep*float64(bin)
}

// MaxVisibleBins is the number of bins whose bar starts inside the display.
func (p Parameters) MaxVisibleBins() int {
	if p.BarWidth <= 0 || p.DisplayWidth < 0 {
		return 0
	}
	return p.DisplayWidth/p.BarWidth + 1
}

// Validate reports the first inconsistent value.
func (p Parameters) Validate() error {
	switch {
	case p.DisplayWidth <= 0 || p.DisplayHeight <= 0:
		return fmt.Errorf("invalid dimensions: width=%d height=%d", p.DisplayWidth, p.DisplayHeight)
	case p.BarWidth <= 0:
		return fmt.Errorf("bar_width must be positive (got %d)", p.BarWidth)
	case p.LowBandBins <= 0:
		return fmt.Errorf("low_band_bins must be positive (got %d)", p.LowBandBins)
	case p.IndicatorSize < 0:
		return fmt.Errorf("indicator_size must not be negative (got %d)", p.IndicatorSize)
	}
	return nil
}
