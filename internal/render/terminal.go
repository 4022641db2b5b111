package render

import (
	"bufio"
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/eiannone/keyboard"
	"golang.org/x/term"
)

var (
	resetANSI       = "\x1b[0m"
	precomputedANSI [256]string
)

func init() {
	for i := range precomputedANSI {
		precomputedANSI[i] = "\x1b[38;5;" + strconv.Itoa(i) + "m"
	}
}

type cell struct {
	ch rune
	fg int
}

// Terminal rasterizes the virtual display into an ANSI 256-color character
// grid. The status text gets its own line under the grid.
type Terminal struct {
	width   int
	height  int
	cols    int
	rows    int
	palette []rune

	out    *bufio.Writer
	sizeFn func() (int, int, error)
	fixed  bool
	cells  []cell

	status      string
	statusColor color.RGBA
	builder     strings.Builder

	started       bool
	quit          chan struct{}
	closeKeyboard func()
}

// NewTerminal creates a terminal canvas for a width x height virtual display.
// opts.Columns and opts.Rows fix the grid size; otherwise it follows the
// terminal attached to stdout.
func NewTerminal(opts Options) (*Terminal, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d height=%d", opts.Width, opts.Height)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	t := &Terminal{
		width:   opts.Width,
		height:  opts.Height,
		palette: Palette(opts.Palette),
		out:     bufio.NewWriter(out),
		cols:    80,
		rows:    23,
	}
	if opts.Columns > 0 && opts.Rows > 1 {
		t.cols = opts.Columns
		t.rows = opts.Rows - 1
		t.fixed = true
	} else {
		fd := int(os.Stdout.Fd())
		t.sizeFn = func() (int, int, error) { return term.GetSize(fd) }
	}
	t.ensureDimensions()

	if opts.Keyboard {
		t.startKeyboard()
	}
	return t, nil
}

func (t *Terminal) ensureDimensions() {
	if t.fixed || t.sizeFn == nil {
		t.resize(t.cols, t.rows)
		return
	}
	w, h, err := t.sizeFn()
	if err != nil || w <= 0 || h <= 1 {
		t.resize(t.cols, t.rows)
		return
	}
	t.resize(w, h-1)
}

func (t *Terminal) resize(cols, rows int) {
	if cols == t.cols && rows == t.rows && len(t.cells) == cols*rows {
		return
	}
	t.cols = cols
	t.rows = rows
	t.cells = make([]cell, cols*rows)
	t.clearCells()
}

func (t *Terminal) clearCells() {
	for i := range t.cells {
		t.cells[i] = cell{ch: ' ', fg: 16}
	}
}

func (t *Terminal) Clear() error {
	t.ensureDimensions()
	t.clearCells()
	t.status = ""
	return nil
}

// FillRect paints every cell the clipped rectangle touches.
func (t *Terminal) FillRect(r Rect, c color.RGBA) error {
	x0 := clampInt(r.X, 0, t.width)
	y0 := clampInt(r.Y, 0, t.height)
	x1 := clampInt(r.X+r.W, 0, t.width)
	y1 := clampInt(r.Y+r.H, 0, t.height)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	c0 := x0 * t.cols / t.width
	c1 := ceilDiv(x1*t.cols, t.width)
	r0 := y0 * t.rows / t.height
	r1 := ceilDiv(y1*t.rows, t.height)
	partialTop := (y0*t.rows)%t.height != 0

	fg := rgbToANSI(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255)
	for row := r0; row < r1 && row < t.rows; row++ {
		glyph := t.palette[0]
		if row == r0 && partialTop && len(t.palette) > 1 {
			glyph = t.palette[1]
		}
		for col := c0; col < c1 && col < t.cols; col++ {
			t.cells[row*t.cols+col] = cell{ch: glyph, fg: fg}
		}
	}
	return nil
}

// DrawText sets the status line; the position is ignored since the status
// line is rendered below the grid.
func (t *Terminal) DrawText(_, _ int, text string, c color.RGBA) error {
	t.status = text
	t.statusColor = c
	return nil
}

func (t *Terminal) Present() error {
	if !t.started {
		t.started = true
		t.out.WriteString("\x1b[?1049h\x1b[2J\x1b[?25l")
	}
	t.out.WriteString("\x1b[H")

	for row := 0; row < t.rows; row++ {
		b := &t.builder
		b.Reset()
		b.Grow(t.cols * 8)
		lastColor := -1
		for col := 0; col < t.cols; col++ {
			cl := t.cells[row*t.cols+col]
			if cl.fg != lastColor {
				b.WriteString(colorCode(cl.fg))
				lastColor = cl.fg
			}
			b.WriteRune(cl.ch)
		}
		b.WriteString(resetANSI)
		b.WriteByte('\n')
		t.out.WriteString(b.String())
	}

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", t.statusColor.R, t.statusColor.G, t.statusColor.B)))
	t.out.WriteString(style.Render(statusBar(t.status, t.cols)))

	if err := t.out.Flush(); err != nil {
		return err
	}

	select {
	case <-t.quit:
		return ErrRendererQuit
	default:
	}
	return nil
}

// Close restores the terminal and stops the keyboard listener.
func (t *Terminal) Close() error {
	if t.closeKeyboard != nil {
		t.closeKeyboard()
	}
	if t.started {
		t.out.WriteString("\x1b[?25h\x1b[?1049l" + resetANSI)
	}
	return t.out.Flush()
}

func (t *Terminal) startKeyboard() {
	if err := keyboard.Open(); err != nil {
		return
	}
	t.quit = make(chan struct{})
	done := make(chan struct{})
	t.closeKeyboard = func() {
		close(done)
		_ = keyboard.Close()
	}

	go func() {
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			switch {
			case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC, char == 'q' || char == 'Q':
				select {
				case <-done:
				default:
					close(t.quit)
				}
				return
			}
		}
	}()
}

func statusBar(text string, width int) string {
	if width <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return text + strings.Repeat(" ", width-len(runes))
}

func colorCode(index int) string {
	if index < 0 {
		index = 0
	} else if index >= len(precomputedANSI) {
		index = len(precomputedANSI) - 1
	}
	return precomputedANSI[index]
}

func rgbToANSI(r, g, b float64) int {
	r = clamp01(r)
	g = clamp01(g)
	b = clamp01(b)

	// Grayscale ramp when the channels are (nearly) equal.
	if math.Abs(r-g) < 0.02 && math.Abs(g-b) < 0.02 {
		gray := int(clampFloat(math.Round(r*23), 0, 23))
		return 232 + gray
	}

	ri := int(clampFloat(r*5+0.5, 0, 5))
	gi := int(clampFloat(g*5+0.5, 0, 5))
	bi := int(clampFloat(b*5+0.5, 0, 5))

	return 16 + 36*ri + 6*gi + bi
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
