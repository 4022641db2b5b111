package audio

import "time"

// DefaultFrameBytes is one stereo MP3 frame worth of s16le PCM (1152 samples x 2 channels).
const DefaultFrameBytes = 1152 * 2 * BytesPerSample

// Frame is one decoded unit of interleaved s16le PCM.
type Frame struct {
	Stream int
	Data   []byte
}

// Format describes the PCM layout produced by a decoder.
type Format struct {
	SampleRate int
	Channels   int
}

// Duration returns how long n bytes of PCM take to play.
func (f Format) Duration(n int) time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := n / (f.Channels * BytesPerSample)
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Decoder yields frames until it returns io.EOF. Any other error refers to a
// single frame; callers may keep calling Next after it.
type Decoder interface {
	Next() (Frame, error)
	Format() Format
	AudioStream() int
	Close() error
}
