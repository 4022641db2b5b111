package render

import "image/color"

// Op names one Canvas call captured by a Recorder.
type Op string

const (
	OpClear   Op = "clear"
	OpRect    Op = "rect"
	OpText    Op = "text"
	OpPresent Op = "present"
)

// Call is one recorded Canvas call.
type Call struct {
	Op    Op
	Rect  Rect
	Color color.RGBA
	Text  string
}

// Recorder is a Canvas that remembers every call. Present returns QuitAfter's
// error once that many frames have been presented, when QuitAfter > 0.
type Recorder struct {
	Calls     []Call
	Frames    int
	QuitAfter int
	Closed    bool
}

func (r *Recorder) Clear() error {
	r.Calls = append(r.Calls, Call{Op: OpClear})
	return nil
}

func (r *Recorder) FillRect(rect Rect, c color.RGBA) error {
	r.Calls = append(r.Calls, Call{Op: OpRect, Rect: rect, Color: c})
	return nil
}

func (r *Recorder) DrawText(x, y int, text string, c color.RGBA) error {
	r.Calls = append(r.Calls, Call{Op: OpText, Rect: Rect{X: x, Y: y}, Color: c, Text: text})
	return nil
}

func (r *Recorder) Present() error {
	r.Calls = append(r.Calls, Call{Op: OpPresent})
	r.Frames++
	if r.QuitAfter > 0 && r.Frames >= r.QuitAfter {
		return ErrRendererQuit
	}
	return nil
}

func (r *Recorder) Close() error {
	r.Closed = true
	return nil
}

// LastFrame returns the calls of the most recently presented frame.
func (r *Recorder) LastFrame() []Call {
	end := len(r.Calls)
	start := 0
	for i := end - 2; i >= 0; i-- {
		if r.Calls[i].Op == OpPresent {
			start = i + 1
			break
		}
	}
	return r.Calls[start:end]
}

// Count returns how many calls of the given op were recorded in calls.
func Count(calls []Call, op Op) int {
	n := 0
	for _, c := range calls {
		if c.Op == op {
			n++
		}
	}
	return n
}
