// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats and the pull-based sample source contract
package audio

// Format describes a PCM stream format
type Format struct {
	Codec      string // codec tag of the originating stream ("pcm", "mp3", ...)
	SampleRate int
	Channels   int
}

// Source delivers interleaved float32 PCM samples in [-1, 1].
//
// Read must fill dst completely on every call, zero-padding whatever the
// underlying stream cannot deliver. It returns the number of real (non
// padding) samples written and a sticky terminal error: io.EOF once the
// stream is exhausted, after which every call keeps returning a fully
// silence-padded buffer.
type Source interface {
	Format() Format
	Read(dst []float32) (int, error)
}

// SampleFromInt16 converts a 16-bit PCM sample to float32 in [-1, 1)
func SampleFromInt16(s int16) float32 {
	return float32(s) / 32768.0
}

// SampleToInt16 converts a float32 sample to 16-bit PCM, clamping to range
func SampleToInt16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(s * 32767.0)
}

// SampleFromInt converts an integer PCM sample of the given bit depth to
// float32 in [-1, 1)
func SampleFromInt(s int, bitDepth int) float32 {
	scale := float32(int64(1) << uint(bitDepth-1))
	return float32(s) / scale
}
