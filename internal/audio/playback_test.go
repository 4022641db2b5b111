package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
)

func TestNullSinkPacesWhenRealtime(t *testing.T) {
	format := Format{SampleRate: 1000, Channels: 1}
	sink := NewNullSink(format, true)
	var slept time.Duration
	sink.sleep = func(d time.Duration) { slept += d }

	if err := sink.Play(make([]byte, 200)); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if slept != 100*time.Millisecond {
		t.Fatalf("expected 100ms of pacing, got %v", slept)
	}
	if sink.Played() != 200 {
		t.Fatalf("expected 200 bytes accounted, got %d", sink.Played())
	}
}

func TestNullSinkDoesNotSleepByDefault(t *testing.T) {
	sink := NewNullSink(Format{SampleRate: 44100, Channels: 2}, false)
	sink.sleep = func(time.Duration) { t.Fatalf("unexpected sleep") }
	if err := sink.Play(make([]byte, 4096)); err != nil {
		t.Fatalf("Play: %v", err)
	}
}

func TestNewSinkRejectsUnknownBackend(t *testing.T) {
	if _, err := NewSink(SinkConfig{Backend: "cassette"}, Format{SampleRate: 44100, Channels: 2}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	sink, err := NewSink(SinkConfig{Backend: "null"}, Format{SampleRate: 44100, Channels: 2})
	if err != nil {
		t.Fatalf("null backend: %v", err)
	}
	if _, ok := sink.(*NullSink); !ok {
		t.Fatalf("expected *NullSink, got %T", sink)
	}
}

func TestOutputDevicesFiltersAndSorts(t *testing.T) {
	got := outputDevices([]Device{
		{Name: "mic", HostAPI: "ALSA", MaxInput: 2},
		{Name: "speakers", HostAPI: "ALSA", MaxOutput: 2},
		{Name: "hdmi", HostAPI: "ALSA", MaxOutput: 8},
		{Name: "default", HostAPI: "JACK", MaxOutput: 2},
	})
	want := []string{"hdmi", "speakers", "default"}
	if len(got) != len(want) {
		t.Fatalf("got %d devices, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("device %d = %q want %q", i, got[i].Name, name)
		}
	}
}

func TestPortAudioSinkTerminatesOnDeviceError(t *testing.T) {
	origInit, origTerm, origDevice := paInitialize, paTerminate, paOutputDevice
	t.Cleanup(func() { paInitialize, paTerminate, paOutputDevice = origInit, origTerm, origDevice })

	terminated := 0
	paInitialize = func() error { return nil }
	paTerminate = func() { terminated++ }
	paOutputDevice = func(string) (*portaudio.DeviceInfo, error) {
		return nil, errors.New("no output device")
	}

	if _, err := NewPortAudioSink("", Format{SampleRate: 44100, Channels: 2}); err == nil {
		t.Fatalf("expected device error")
	}
	if terminated != 1 {
		t.Fatalf("expected PortAudio to be terminated once, got %d", terminated)
	}
}

func TestPortAudioSinkSkipsTerminateWhenInitFails(t *testing.T) {
	origInit, origTerm := paInitialize, paTerminate
	t.Cleanup(func() { paInitialize, paTerminate = origInit, origTerm })

	paInitialize = func() error { return errors.New("no host api") }
	paTerminate = func() { t.Fatalf("terminate without a successful initialize") }

	if _, err := NewPortAudioSink("", Format{SampleRate: 44100, Channels: 2}); err == nil {
		t.Fatalf("expected init error")
	}
}
