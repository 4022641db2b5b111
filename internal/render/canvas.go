package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strings"
)

// ErrRendererQuit is returned by Present when the user closed the display.
var ErrRendererQuit = errors.New("renderer quit")

// Rect is an axis-aligned rectangle in display pixels.
type Rect struct {
	X, Y, W, H int
}

// Canvas is the drawing surface the pipeline talks to.
type Canvas interface {
	Clear() error
	FillRect(r Rect, c color.RGBA) error
	DrawText(x, y int, text string, c color.RGBA) error
	Present() error
	Close() error
}

var (
	Black = color.RGBA{0, 0, 0, 255}
	White = color.RGBA{255, 255, 255, 255}
	Red   = color.RGBA{255, 0, 0, 255}
)

// Options selects and configures a Canvas backend.
type Options struct {
	Backend  string
	Width    int
	Height   int
	Title    string
	FontPath string
	FontSize int
	Palette  string

	// Terminal backend.
	Out      io.Writer
	Columns  int
	Rows     int
	Keyboard bool
}

// BackendNames returns the canvas backends known to Open.
func BackendNames() []string {
	return []string{"sdl", "terminal", "none"}
}

// Open creates the configured backend.
func Open(opts Options) (Canvas, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d height=%d", opts.Width, opts.Height)
	}
	switch strings.ToLower(opts.Backend) {
	case "", "sdl":
		return newSDLCanvas(opts)
	case "terminal", "term", "ansi":
		return NewTerminal(opts)
	case "none", "headless":
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("unknown render backend %q", opts.Backend)
	}
}

// Discard is a Canvas that draws nothing.
type Discard struct{}

func (Discard) Clear() error                                { return nil }
func (Discard) FillRect(Rect, color.RGBA) error             { return nil }
func (Discard) DrawText(int, int, string, color.RGBA) error { return nil }
func (Discard) Present() error                              { return nil }
func (Discard) Close() error                                { return nil }
