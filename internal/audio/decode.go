package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// ErrUnsupportedFormat is returned by Open for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// SupportedExts lists the extensions Open understands.
func SupportedExts() []string {
	return []string{".mp3", ".wav", ".flac", ".ogg"}
}

// FileDecoder splits a decoded audio file into fixed-size PCM frames.
// Every format is converted to interleaved s16le before framing.
type FileDecoder struct {
	file       *os.File
	src        io.Reader
	format     Format
	buf        []byte
	frames     int
	exhausted  bool
	closeExtra func() error
}

// Open detects the format by extension and prepares a decoder producing frames
// of frameBytes bytes (DefaultFrameBytes when <= 0).
func Open(path string, frameBytes int) (*FileDecoder, error) {
	if frameBytes <= 0 {
		frameBytes = DefaultFrameBytes
	}
	frameBytes -= frameBytes % BytesPerSample
	if frameBytes == 0 {
		frameBytes = BytesPerSample
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	d := &FileDecoder{file: f, buf: make([]byte, frameBytes)}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		err = d.openMP3()
	case ".wav":
		err = d.openWAV()
	case ".flac":
		err = d.openFLAC()
	case ".ogg":
		err = d.openOGG()
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

// Next returns the next frame. The returned Data is only valid until the
// following call. A short final frame is returned as is; after it Next
// reports io.EOF. On any other read error the bytes read so far for that
// frame are dropped with it, and the next call resumes from the source's
// current position.
func (d *FileDecoder) Next() (Frame, error) {
	if d.exhausted {
		return Frame{}, io.EOF
	}
	n, err := io.ReadFull(d.src, d.buf)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		d.exhausted = true
		return Frame{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		d.exhausted = true
		n -= n % BytesPerSample
		if n == 0 {
			return Frame{}, io.EOF
		}
	default:
		d.frames++
		return Frame{}, fmt.Errorf("decode frame %d: %w", d.frames, err)
	}
	d.frames++
	return Frame{Stream: d.AudioStream(), Data: d.buf[:n]}, nil
}

// Format reports the sample rate and channel count of the PCM output.
func (d *FileDecoder) Format() Format { return d.format }

// AudioStream is the stream index carrying audio; single-stream files always use 0.
func (d *FileDecoder) AudioStream() int { return 0 }

// Close releases the underlying file.
func (d *FileDecoder) Close() error {
	var errs []error
	if d.closeExtra != nil {
		errs = append(errs, d.closeExtra())
	}
	errs = append(errs, d.file.Close())
	return errors.Join(errs...)
}

func (d *FileDecoder) openMP3() error {
	dec, err := mp3.NewDecoder(d.file)
	if err != nil {
		return fmt.Errorf("decoding MP3: %w", err)
	}
	// go-mp3 always emits 16-bit stereo.
	d.src = dec
	d.format = Format{SampleRate: dec.SampleRate(), Channels: 2}
	return nil
}

func (d *FileDecoder) openWAV() error {
	dec := wav.NewDecoder(d.file)
	if !dec.IsValidFile() {
		return fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return fmt.Errorf("reading WAV PCM data: %w", err)
	}
	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}
	d.src = &wavReader{
		src:      io.LimitReader(d.file, dec.PCMLen()),
		bitDepth: bitDepth,
	}
	d.format = Format{SampleRate: int(dec.SampleRate), Channels: int(dec.NumChans)}
	return nil
}

func (d *FileDecoder) openFLAC() error {
	stream, err := flac.New(d.file)
	if err != nil {
		return fmt.Errorf("decoding FLAC: %w", err)
	}
	d.src = &flacReader{
		stream:   stream,
		channels: int(stream.Info.NChannels),
		bps:      int(stream.Info.BitsPerSample),
	}
	d.format = Format{SampleRate: int(stream.Info.SampleRate), Channels: int(stream.Info.NChannels)}
	d.closeExtra = stream.Close
	return nil
}

func (d *FileDecoder) openOGG() error {
	reader, err := oggvorbis.NewReader(d.file)
	if err != nil {
		return fmt.Errorf("decoding OGG: %w", err)
	}
	d.src = &oggReader{reader: reader}
	d.format = Format{SampleRate: reader.SampleRate(), Channels: reader.Channels()}
	return nil
}

// wavReader converts 8/24/32-bit WAV PCM into 16-bit.
type wavReader struct {
	src      io.Reader
	bitDepth int
	scratch  []byte
	pending  []byte
}

func (r *wavReader) Read(p []byte) (int, error) {
	if len(r.pending) > 0 {
		n := copy(p, r.pending)
		r.pending = r.pending[n:]
		return n, nil
	}
	width := r.bitDepth / 8
	count := len(p) / BytesPerSample
	if count == 0 {
		count = 1
	}
	if cap(r.scratch) < count*width {
		r.scratch = make([]byte, count*width)
	}
	src := r.scratch[:count*width]
	n, err := io.ReadFull(r.src, src)
	samples := n / width
	if samples == 0 {
		if err == nil || errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, samples*BytesPerSample)
	for i := 0; i < samples; i++ {
		off := i * width
		var v int
		switch r.bitDepth {
		case 8:
			v = (int(src[off]) - 128) << 8
		case 16:
			v = int(int16(binary.LittleEndian.Uint16(src[off:])))
		case 24:
			s := int32(src[off]) | int32(src[off+1])<<8 | int32(src[off+2])<<16
			if s&0x800000 != 0 {
				s |= ^0xFFFFFF
			}
			v = int(s >> 8)
		case 32:
			v = int(int32(binary.LittleEndian.Uint32(src[off:])) >> 16)
		}
		binary.LittleEndian.PutUint16(raw[i*BytesPerSample:], uint16(clampSample(v)))
	}

	written := copy(p, raw)
	r.pending = raw[written:]
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	return written, err
}

// flacReader interleaves FLAC subframes into 16-bit PCM.
type flacReader struct {
	stream   *flac.Stream
	channels int
	bps      int
	pending  []byte
}

func (r *flacReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		frame, err := r.stream.ParseNext()
		if err != nil {
			return 0, err
		}
		nSamples := int(frame.Subframes[0].NSamples)
		raw := make([]byte, nSamples*r.channels*BytesPerSample)
		for i := 0; i < nSamples; i++ {
			for ch := 0; ch < r.channels; ch++ {
				v := int(frame.Subframes[ch].Samples[i])
				switch {
				case r.bps > 16:
					v >>= r.bps - 16
				case r.bps < 16:
					v <<= 16 - r.bps
				}
				off := (i*r.channels + ch) * BytesPerSample
				binary.LittleEndian.PutUint16(raw[off:], uint16(clampSample(v)))
			}
		}
		r.pending = raw
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// oggReader converts interleaved float32 Vorbis output into 16-bit PCM.
type oggReader struct {
	reader  *oggvorbis.Reader
	samples []float32
	pending []byte
}

func (r *oggReader) Read(p []byte) (int, error) {
	if len(r.pending) > 0 {
		n := copy(p, r.pending)
		r.pending = r.pending[n:]
		return n, nil
	}
	count := len(p) / BytesPerSample
	if count == 0 {
		count = 1
	}
	if cap(r.samples) < count {
		r.samples = make([]float32, count)
	}
	n, err := r.reader.Read(r.samples[:count])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	raw := make([]byte, n*BytesPerSample)
	for i, s := range r.samples[:n] {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(raw[i*BytesPerSample:], uint16(int16(s*32767)))
	}
	written := copy(p, raw)
	r.pending = raw[written:]
	if errors.Is(err, io.EOF) && len(r.pending) > 0 {
		err = nil
	}
	return written, err
}
