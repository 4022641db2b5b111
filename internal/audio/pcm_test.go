package audio

import (
	"io"
	"math"
	"testing"
	"time"
)

func TestNormalizeScalesByInt16Range(t *testing.T) {
	pcm := SamplesToPCM([]int16{0, 16384, -32768, 32767})
	dst := make([]float64, 4)
	if n := Normalize(dst, pcm); n != 4 {
		t.Fatalf("expected 4 samples, got %d", n)
	}
	want := []float64{0, 0.5, -1, 32767.0 / 32768.0}
	for i := range want {
		if math.Abs(dst[i]-want[i]) > 1e-12 {
			t.Fatalf("dst[%d]=%f want=%f", i, dst[i], want[i])
		}
	}
}

func TestNormalizeZeroFillsShortInput(t *testing.T) {
	dst := []float64{9, 9, 9, 9, 9}
	n := Normalize(dst, SamplesToPCM([]int16{32767, -32768}))
	if n != 2 {
		t.Fatalf("expected 2 samples, got %d", n)
	}
	for i := 2; i < len(dst); i++ {
		if dst[i] != 0 {
			t.Fatalf("expected zero padding at %d, got %f", i, dst[i])
		}
	}
}

func TestNormalizeTruncatesLongInput(t *testing.T) {
	samples := make([]int16, 10)
	for i := range samples {
		samples[i] = int16(i * 1000)
	}
	dst := make([]float64, 4)
	if n := Normalize(dst, SamplesToPCM(samples)); n != 4 {
		t.Fatalf("expected truncation to 4, got %d", n)
	}
	if math.Abs(dst[3]-3000.0/32768.0) > 1e-12 {
		t.Fatalf("unexpected last sample %f", dst[3])
	}
}

func TestNormalizeIgnoresOddTrailingByte(t *testing.T) {
	pcm := append(SamplesToPCM([]int16{100}), 0x7f)
	dst := make([]float64, 2)
	if n := Normalize(dst, pcm); n != 1 {
		t.Fatalf("expected 1 whole sample, got %d", n)
	}
	if dst[1] != 0 {
		t.Fatalf("expected padding after odd byte, got %f", dst[1])
	}
}

func TestClampSample(t *testing.T) {
	if clampSample(40000) != 32767 {
		t.Fatalf("expected clamp high")
	}
	if clampSample(-40000) != -32768 {
		t.Fatalf("expected clamp low")
	}
	if clampSample(12) != 12 {
		t.Fatalf("expected passthrough")
	}
}

func TestToneSourceEndsAfterDuration(t *testing.T) {
	format := Format{SampleRate: 1000, Channels: 2}
	src := NewToneSource(format, 400, time.Second, 1)

	total := 0
	frames := 0
	for {
		frame, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if frame.Stream != src.AudioStream() {
			t.Fatalf("unexpected stream %d", frame.Stream)
		}
		total += len(frame.Data)
		frames++
	}
	// 1000 sample frames x 4 bytes, in chunks of 400 bytes.
	if total != 4000 || frames != 10 {
		t.Fatalf("got %d bytes in %d frames", total, frames)
	}
	if _, err := src.Next(); err != io.EOF {
		t.Fatalf("EOF should be sticky, got %v", err)
	}
}

func TestToneSourceIsNotSilent(t *testing.T) {
	src := NewToneSource(Format{}, 0, 0, 7)
	frame, err := src.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if len(frame.Data) != DefaultFrameBytes {
		t.Fatalf("frame size %d", len(frame.Data))
	}
	samples := make([]float64, len(frame.Data)/2)
	Normalize(samples, frame.Data)
	peak := 0.0
	for _, s := range samples {
		if s > peak {
			peak = s
		}
	}
	if peak < 0.1 {
		t.Fatalf("expected audible signal, peak %f", peak)
	}
}
