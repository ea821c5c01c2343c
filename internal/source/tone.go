// ABOUTME: Test tone generator implementing the audio.Source contract
// ABOUTME: Endless sine wave for wiring checks and tests
package source

import (
	"math"
	"sync"

	"github.com/chrisuthe/sendspin-audio/pkg/audio"
)

// Tone generates an endless sine wave at a fixed frequency, duplicated
// across all channels.
type Tone struct {
	mu     sync.Mutex
	format audio.Format
	freq   float64
	amp    float64
	idx    uint64
}

// NewTone creates a tone generator. Amplitude is fixed at 0.5 to leave
// headroom for volume scaling.
func NewTone(freq float64, format audio.Format) *Tone {
	format.Codec = "pcm"
	return &Tone{
		format: format,
		freq:   freq,
		amp:    0.5,
	}
}

func (t *Tone) Format() audio.Format { return t.format }

// Read fills dst with the next block of the sine wave. Never runs out.
func (t *Tone) Read(dst []float32) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := t.format.Channels
	frames := len(dst) / ch
	for f := 0; f < frames; f++ {
		ts := float64(t.idx+uint64(f)) / float64(t.format.SampleRate)
		v := float32(t.amp * math.Sin(2*math.Pi*t.freq*ts))
		for c := 0; c < ch; c++ {
			dst[f*ch+c] = v
		}
	}
	t.idx += uint64(frames)
	for i := frames * ch; i < len(dst); i++ {
		dst[i] = 0
	}
	return len(dst), nil
}
