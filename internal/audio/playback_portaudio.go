package audio

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/gordonklaus/portaudio"
)

const portAudioFramesPerBuffer = 1024

// Replaced in tests.
var (
	paInitialize   = Initialize
	paTerminate    = Terminate
	paOutputDevice = findOutputDevice
)

// PortAudioSink writes PCM to a blocking PortAudio output stream.
type PortAudioSink struct {
	stream   *portaudio.Stream
	device   *portaudio.DeviceInfo
	channels int

	out    []int16
	filled int
}

// NewPortAudioSink opens a blocking output stream on the named device
// (substring match) or the best default output.
func NewPortAudioSink(deviceName string, format Format) (_ *PortAudioSink, err error) {
	if format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid output format %+v", format)
	}
	if err := paInitialize(); err != nil {
		return nil, fmt.Errorf("initialize PortAudio: %w", err)
	}
	defer func() {
		if err != nil {
			paTerminate()
		}
	}()

	device, err := paOutputDevice(deviceName)
	if err != nil {
		return nil, err
	}

	sink := &PortAudioSink{
		device:   device,
		channels: format.Channels,
		out:      make([]int16, portAudioFramesPerBuffer*format.Channels),
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: format.Channels,
			Latency:  device.DefaultHighOutputLatency,
		},
		SampleRate:      float64(format.SampleRate),
		FramesPerBuffer: portAudioFramesPerBuffer,
	}, &sink.out)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	sink.stream = stream

	if err := sink.stream.Start(); err != nil {
		_ = sink.stream.Close()
		return nil, fmt.Errorf("start stream: %w", err)
	}
	return sink, nil
}

// Device returns the PortAudio device the stream plays on.
func (s *PortAudioSink) Device() *portaudio.DeviceInfo {
	return s.device
}

// Play converts pcm into the stream buffer and writes every full buffer.
// A partial buffer is kept for the next call.
func (s *PortAudioSink) Play(pcm []byte) error {
	for i := 0; i+BytesPerSample <= len(pcm); i += BytesPerSample {
		s.out[s.filled] = int16(binary.LittleEndian.Uint16(pcm[i:]))
		s.filled++
		if s.filled == len(s.out) {
			if err := s.write(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *PortAudioSink) write() error {
	s.filled = 0
	err := s.stream.Write()
	if err == portaudio.OutputUnderflowed {
		return nil
	}
	return err
}

// Close flushes the pending partial buffer padded with silence and closes the stream.
func (s *PortAudioSink) Close() error {
	if s.stream == nil {
		return nil
	}
	if s.filled > 0 {
		for i := s.filled; i < len(s.out); i++ {
			s.out[i] = 0
		}
		_ = s.write()
	}
	if err := s.stream.Stop(); err != nil && !errorsIsInvalidStreamState(err) {
		_ = s.stream.Close()
		return err
	}
	err := s.stream.Close()
	s.stream = nil
	paTerminate()
	return err
}

func findOutputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name != "" {
		return findDeviceByName(name)
	}

	if dev, err := portaudio.DefaultOutputDevice(); err == nil && dev != nil && dev.MaxOutputChannels > 0 {
		return dev, nil
	}

	if host, err := portaudio.DefaultHostApi(); err == nil {
		if host != nil && host.DefaultOutputDevice != nil && host.DefaultOutputDevice.MaxOutputChannels > 0 {
			return host.DefaultOutputDevice, nil
		}
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}

	candidate := pickBestDevice(devices)
	if candidate != nil {
		return candidate, nil
	}

	return nil, fmt.Errorf("no suitable audio output device found")
}

func findDeviceByName(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}

	name = strings.ToLower(name)
	for _, device := range devices {
		if device.MaxOutputChannels == 0 {
			continue
		}
		if strings.Contains(strings.ToLower(device.Name), name) {
			return device, nil
		}
	}

	return nil, fmt.Errorf("audio device %q not found", name)
}

func pickBestDevice(devices []*portaudio.DeviceInfo) *portaudio.DeviceInfo {
	type scored struct {
		dev   *portaudio.DeviceInfo
		score int
	}

	var (
		results  []scored
		keywords = []string{"speaker", "headphone", "output", "pulse", "pipewire"}
	)

	var defaultOutputIndex = -1
	if def, err := portaudio.DefaultOutputDevice(); err == nil && def != nil {
		defaultOutputIndex = def.Index
	}

	for _, d := range devices {
		if d == nil || d.MaxOutputChannels <= 0 {
			continue
		}

		score := d.MaxOutputChannels
		if d.Index == defaultOutputIndex {
			score += 50
		}

		lower := strings.ToLower(d.Name)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score += 20
				break
			}
		}
		if strings.Contains(lower, "default") {
			score += 10
		}

		results = append(results, scored{dev: d, score: score})
	}

	if len(results) == 0 {
		return nil
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return strings.ToLower(results[i].dev.Name) < strings.ToLower(results[j].dev.Name)
		}
		return results[i].score > results[j].score
	})

	return results[0].dev
}

// errorsIsInvalidStreamState checks if the provided error stems from stopping an already stopped stream.
func errorsIsInvalidStreamState(err error) bool {
	if err == nil {
		return false
	}
	const invalidStateMsg = "PaErrorCode -9986"
	return strings.Contains(err.Error(), invalidStateMsg)
}

// AutoDetectDevice returns the best available output device PortAudio can find.
func AutoDetectDevice() (*portaudio.DeviceInfo, error) {
	return findOutputDevice("")
}
