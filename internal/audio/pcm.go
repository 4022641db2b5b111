package audio

import "encoding/binary"

// BytesPerSample is the size of one signed 16-bit little-endian sample.
const BytesPerSample = 2

// Normalize converts s16le PCM into amplitudes in [-1, 1) and writes them to dst.
// At most len(dst) samples are consumed; positions of dst past the available
// input are zero-filled. A trailing odd byte is ignored. It returns the number
// of samples taken from pcm.
func Normalize(dst []float64, pcm []byte) int {
	n := len(pcm) / BytesPerSample
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[i*BytesPerSample:]))
		dst[i] = float64(s) / 32768.0
	}
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return n
}

// SamplesToPCM encodes samples as s16le bytes.
func SamplesToPCM(samples []int16) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*BytesPerSample:], uint16(s))
	}
	return out
}

func clampSample(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
