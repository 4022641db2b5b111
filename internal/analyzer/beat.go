package analyzer

import "math"

// DefaultLowBandBins is the width of the low-frequency band used for loudness.
const DefaultLowBandBins = 40

// Beat is the outcome of comparing one frame against the running average.
type Beat struct {
	FrameAverage   float64
	RollingAverage float64
	High           bool
}

// tieTolerance is the relative slack under which a frame counts as equal to
// the running average. Rounding in the running sum stays far below it.
const tieTolerance = 1e-9

// RollingState tracks low-band loudness across the whole song. It has a
// single writer: the pipeline calls Observe once per processed frame, in
// arrival order.
type RollingState struct {
	bands int

	total      kahanSum
	frameCount int

	// windowed mode keeps the last len(history) accumulators.
	history []float64
	next    int
	filled  int
}

// NewRollingState returns state for a band of the given width. A window of 0
// averages over every frame seen so far; window > 0 averages only the most
// recent window frames.
func NewRollingState(bands, window int) *RollingState {
	if bands <= 0 {
		bands = DefaultLowBandBins
	}
	s := &RollingState{bands: bands}
	if window > 0 {
		s.history = make([]float64, window)
	}
	return s
}

// Observe folds one frame's low-band accumulator into the state and reports
// whether the frame is above the running average. The frame counts toward its
// own average, so a tie is not a beat, including for steady input whose sum
// does not round exactly.
func (s *RollingState) Observe(accum float64) Beat {
	s.total.add(accum)
	s.frameCount++

	sum, count := s.total.value(), s.frameCount
	if s.history != nil {
		if s.filled < len(s.history) {
			s.filled++
		}
		s.history[s.next] = accum
		s.next = (s.next + 1) % len(s.history)
		sum, count = s.windowSum(), s.filled
	}

	bands := float64(s.bands)
	// accum/bands > sum/count/bands, compared without the divisions.
	scaled := accum * float64(count)
	high := scaled-sum > tieTolerance*math.Max(math.Abs(scaled), math.Abs(sum))

	return Beat{
		FrameAverage:   accum / bands,
		RollingAverage: sum / float64(count) / bands,
		High:           high,
	}
}

// windowSum recomputes the window total so removed frames leave no residue.
func (s *RollingState) windowSum() float64 {
	var k kahanSum
	for _, v := range s.history[:s.filled] {
		k.add(v)
	}
	return k.value()
}

// FrameCount is the number of frames observed so far.
func (s *RollingState) FrameCount() int { return s.frameCount }

// RunningTotal is the sum of every accumulator observed.
func (s *RollingState) RunningTotal() float64 { return s.total.value() }

// RollingAverage is the current per-bin running average, 0 before the first frame.
func (s *RollingState) RollingAverage() float64 {
	if s.frameCount == 0 {
		return 0
	}
	if s.history == nil {
		return s.total.value() / float64(s.frameCount) / float64(s.bands)
	}
	return s.windowSum() / float64(s.filled) / float64(s.bands)
}

// kahanSum is a Neumaier compensated sum.
type kahanSum struct {
	sum, c float64
}

func (k *kahanSum) add(v float64) {
	t := k.sum + v
	if math.Abs(k.sum) >= math.Abs(v) {
		k.c += (k.sum - t) + v
	} else {
		k.c += (v - t) + k.sum
	}
	k.sum = t
}

func (k kahanSum) value() float64 { return k.sum + k.c }
