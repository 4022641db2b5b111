package audio

import (
	"encoding/binary"
	"io"
	"math"
	"math/rand"
	"time"
)

// ToneSource is a synthetic Decoder: a slowly sweeping sine with a kick-like
// low pulse every half second and a little noise on top. It stands in for a
// file when audio is disabled.
type ToneSource struct {
	format     Format
	frameBytes int
	limit      int64 // total sample frames; 0 means endless
	produced   int64

	rng       *rand.Rand
	phaseTone float64
	phaseKick float64
	phaseLFO  float64
	buf       []byte
}

// NewToneSource returns a source producing duration worth of PCM in chunks of
// frameBytes. A zero duration never ends.
func NewToneSource(format Format, frameBytes int, duration time.Duration, seed int64) *ToneSource {
	if format.SampleRate <= 0 {
		format.SampleRate = 44100
	}
	if format.Channels <= 0 {
		format.Channels = 2
	}
	if frameBytes <= 0 {
		frameBytes = DefaultFrameBytes
	}
	stride := format.Channels * BytesPerSample
	frameBytes -= frameBytes % stride
	if frameBytes == 0 {
		frameBytes = stride
	}
	return &ToneSource{
		format:     format,
		frameBytes: frameBytes,
		limit:      int64(duration.Seconds() * float64(format.SampleRate)),
		rng:        rand.New(rand.NewSource(seed)),
		buf:        make([]byte, frameBytes),
	}
}

func (s *ToneSource) Next() (Frame, error) {
	stride := s.format.Channels * BytesPerSample
	frames := s.frameBytes / stride
	if s.limit > 0 {
		remaining := s.limit - s.produced
		if remaining <= 0 {
			return Frame{}, io.EOF
		}
		if int64(frames) > remaining {
			frames = int(remaining)
		}
	}

	rate := float64(s.format.SampleRate)
	step := 1.0 / rate
	for i := 0; i < frames; i++ {
		s.phaseLFO += step * 0.2
		freq := 220 + 660*(0.5+0.5*math.Sin(2*math.Pi*s.phaseLFO))
		s.phaseTone += freq * step
		s.phaseKick += step

		tone := 0.25 * math.Sin(2*math.Pi*s.phaseTone)

		kickT := math.Mod(s.phaseKick, 0.5)
		kick := 0.6 * math.Exp(-kickT*18) * math.Sin(2*math.Pi*55*kickT)

		noise := (s.rng.Float64()*2 - 1) * 0.02
		v := clampSample(int((tone + kick + noise) * 32767))

		for ch := 0; ch < s.format.Channels; ch++ {
			off := i*stride + ch*BytesPerSample
			binary.LittleEndian.PutUint16(s.buf[off:], uint16(v))
		}
	}
	s.produced += int64(frames)
	return Frame{Stream: 0, Data: s.buf[:frames*stride]}, nil
}

func (s *ToneSource) Format() Format { return s.format }

func (s *ToneSource) AudioStream() int { return 0 }

func (s *ToneSource) Close() error { return nil }
