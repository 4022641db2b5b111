package audio

import (
	"fmt"
	"strings"
	"time"
)

// Sink plays s16le PCM. Play may block while the device buffers are full.
type Sink interface {
	Play(pcm []byte) error
	Close() error
}

// SinkConfig selects and configures a playback backend.
type SinkConfig struct {
	Backend    string
	DeviceName string
	// Realtime makes the null sink sleep for the duration of each buffer.
	Realtime bool
}

// SinkNames returns the supported playback backends.
func SinkNames() []string {
	return []string{"oto", "portaudio", "null"}
}

// NewSink opens the configured backend for the given PCM format.
func NewSink(cfg SinkConfig, format Format) (Sink, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "oto":
		return NewOtoSink(format)
	case "portaudio":
		return NewPortAudioSink(cfg.DeviceName, format)
	case "null", "none":
		return NewNullSink(format, cfg.Realtime), nil
	default:
		return nil, fmt.Errorf("unknown playback backend %q", cfg.Backend)
	}
}

// NullSink discards audio, optionally pacing the caller like a real device.
type NullSink struct {
	format   Format
	realtime bool
	sleep    func(time.Duration)
	played   int64
}

// NewNullSink returns a sink that drops every buffer.
func NewNullSink(format Format, realtime bool) *NullSink {
	return &NullSink{format: format, realtime: realtime, sleep: time.Sleep}
}

func (s *NullSink) Play(pcm []byte) error {
	s.played += int64(len(pcm))
	if s.realtime {
		s.sleep(s.format.Duration(len(pcm)))
	}
	return nil
}

// Played returns the total number of bytes accepted.
func (s *NullSink) Played() int64 { return s.played }

func (s *NullSink) Close() error { return nil }
