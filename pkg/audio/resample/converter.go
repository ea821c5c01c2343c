// ABOUTME: Streaming sample rate converter implementing the audio.Source contract
// ABOUTME: Polyphase path for integer upsampling, windowed-sinc interpolation otherwise
package resample

import (
	"fmt"
	"math"

	"github.com/chrisuthe/sendspin-audio/pkg/audio"
)

const (
	// DefaultTaps is the default filter length. More taps buy a sharper
	// transition band at higher per-sample cost.
	DefaultTaps = 32

	// maxPolyphaseUp bounds the phase bank size; integer ratios above this
	// fall through to the arbitrary-ratio path.
	maxPolyphaseUp = 16

	// maxChunkFrames bounds how many output frames a single internal pass
	// produces. Working buffers are sized against it at construction so
	// Read never allocates.
	maxChunkFrames = 4096
)

type pathKind int

const (
	pathPolyphase pathKind = iota
	pathArbitrary
)

// Converter resamples an upstream Source to a new sample rate. It implements
// audio.Source itself, so it slots between any source and the player without
// either side knowing.
//
// The resample ratio is fixed for the lifetime of the converter. The last
// filter-length worth of input frames is retained across Read calls so
// convolution windows stay continuous at block boundaries.
type Converter struct {
	src      audio.Source
	format   audio.Format
	channels int
	taps     int
	half     int
	ratio    float64 // outputRate / inputRate
	step     float64 // input frames consumed per output frame
	path     pathKind

	// polyphase state
	up     int
	phases [][]float64
	phase  int
	idx    int // input-frame index in buf of the current anchor sample

	// arbitrary-ratio state
	cutoff float64 // anti-alias cutoff in input-frame units
	pos    float64 // fractional input-frame position in buf of the next output

	// streaming buffers, allocated once
	buf       []float32 // interleaved input: retained history + lookahead
	bufFrames int
	acc       []float64 // per-channel convolution accumulator

	srcErr error
}

// New creates a converter from the source's native rate to outputRate using
// the default filter length.
func New(src audio.Source, outputRate int) (*Converter, error) {
	return NewWithTaps(src, outputRate, DefaultTaps)
}

// NewWithTaps creates a converter with an explicit filter length. taps must
// be even and at least 4.
func NewWithTaps(src audio.Source, outputRate, taps int) (*Converter, error) {
	if src == nil {
		return nil, fmt.Errorf("resample: nil source")
	}
	f := src.Format()
	if f.SampleRate <= 0 {
		return nil, fmt.Errorf("resample: invalid source rate %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return nil, fmt.Errorf("resample: invalid channel count %d", f.Channels)
	}
	if outputRate <= 0 {
		return nil, fmt.Errorf("resample: invalid output rate %d", outputRate)
	}
	if taps < 4 || taps%2 != 0 {
		return nil, fmt.Errorf("resample: taps must be even and >= 4, got %d", taps)
	}

	c := &Converter{
		src:      src,
		channels: f.Channels,
		taps:     taps,
		half:     taps / 2,
		ratio:    float64(outputRate) / float64(f.SampleRate),
		step:     float64(f.SampleRate) / float64(outputRate),
		format: audio.Format{
			Codec:      f.Codec,
			SampleRate: outputRate,
			Channels:   f.Channels,
		},
	}

	g := gcd(f.SampleRate, outputRate)
	up := outputRate / g
	down := f.SampleRate / g

	if down == 1 && up <= maxPolyphaseUp {
		// Pure integer upsampling: decompose one master filter designed at
		// the output rate (cutoff at the input Nyquist) into up phase
		// filters, each taking every up-th coefficient, scaled by up to
		// restore gain.
		c.path = pathPolyphase
		c.up = up
		master := designLowpass(taps, 1/float64(up))
		phaseLen := (taps + up - 1) / up
		c.phases = make([][]float64, up)
		for p := 0; p < up; p++ {
			ph := make([]float64, 0, phaseLen)
			for j := p; j < taps; j += up {
				ph = append(ph, master[j]*float64(up))
			}
			c.phases[p] = ph
		}
	} else {
		c.path = pathArbitrary
		c.cutoff = math.Min(c.ratio, 1)
	}

	// History of taps zero frames primes the backward half of the first
	// convolution window; capacity covers the deepest lookahead a full
	// chunk can require before trimming.
	capFrames := taps + c.half + int(float64(maxChunkFrames)*c.step) + 8
	c.buf = make([]float32, capFrames*c.channels)
	c.bufFrames = taps
	c.pos = float64(taps)
	c.idx = taps
	c.acc = make([]float64, c.channels)

	return c, nil
}

// Format returns the upstream format with the sample rate replaced by the
// converter's output rate.
func (c *Converter) Format() audio.Format { return c.format }

// Ratio returns outputRate/inputRate.
func (c *Converter) Ratio() float64 { return c.ratio }

// Taps returns the filter length.
func (c *Converter) Taps() int { return c.taps }

// Read fills dst completely with resampled output. Once the upstream source
// is exhausted the converter keeps producing its filter tail and then
// silence, returning the upstream error alongside a fully written buffer.
func (c *Converter) Read(dst []float32) (int, error) {
	frames := len(dst) / c.channels
	for done := 0; done < frames; {
		n := frames - done
		if n > maxChunkFrames {
			n = maxChunkFrames
		}
		c.produce(dst[done*c.channels:(done+n)*c.channels], n)
		done += n
	}
	// A trailing partial frame can only appear if the caller sized dst off
	// a frame boundary; it is padded with silence.
	for i := frames * c.channels; i < len(dst); i++ {
		dst[i] = 0
	}
	return len(dst), c.srcErr
}

// produce writes outFrames resampled frames into dst.
func (c *Converter) produce(dst []float32, outFrames int) {
	if c.path == pathPolyphase {
		c.producePolyphase(dst, outFrames)
	} else {
		c.produceArbitrary(dst, outFrames)
	}
}

func (c *Converter) producePolyphase(dst []float32, outFrames int) {
	// The anchor advances once per full phase rotation.
	maxIdx := c.idx + (c.phase+outFrames-1)/c.up
	c.ensure(maxIdx + 1)

	ch := c.channels
	for k := 0; k < outFrames; k++ {
		h := c.phases[c.phase]
		base := c.idx * ch
		for i := range c.acc {
			c.acc[i] = 0
		}
		for j, w := range h {
			b := base - j*ch
			for i := 0; i < ch; i++ {
				c.acc[i] += w * float64(c.buf[b+i])
			}
		}
		for i := 0; i < ch; i++ {
			dst[k*ch+i] = float32(c.acc[i])
		}
		c.phase++
		if c.phase == c.up {
			c.phase = 0
			c.idx++
		}
	}

	if keep := c.idx - c.taps; keep > 0 {
		copy(c.buf, c.buf[keep*ch:c.bufFrames*ch])
		c.bufFrames -= keep
		c.idx -= keep
	}
}

func (c *Converter) produceArbitrary(dst []float32, outFrames int) {
	lastPos := c.pos + float64(outFrames-1)*c.step
	c.ensure(int(lastPos) + c.half + 2)

	ch := c.channels
	halfF := float64(c.half)
	for k := 0; k < outFrames; k++ {
		ip := int(c.pos)
		frac := c.pos - float64(ip)
		for i := range c.acc {
			c.acc[i] = 0
		}
		wsum := 0.0
		for t := -c.half + 1; t <= c.half; t++ {
			d := float64(t) - frac
			w := sinc(math.Pi*c.cutoff*d) * kaiser(d/halfF, kaiserBeta)
			wsum += w
			b := (ip + t) * ch
			for i := 0; i < ch; i++ {
				c.acc[i] += w * float64(c.buf[b+i])
			}
		}
		for i := 0; i < ch; i++ {
			dst[k*ch+i] = float32(c.acc[i] / wsum)
		}
		c.pos += c.step
	}

	if keep := int(c.pos) - c.taps; keep > 0 {
		copy(c.buf, c.buf[keep*ch:c.bufFrames*ch])
		c.bufFrames -= keep
		c.pos -= float64(keep)
	}
}

// ensure pulls from upstream until buf holds at least frames frames. The
// upstream contract guarantees a full buffer; the tail past its real-sample
// count is zeroed regardless, so a misbehaving source still yields silence
// rather than stale data.
func (c *Converter) ensure(frames int) {
	if frames <= c.bufFrames {
		return
	}
	seg := c.buf[c.bufFrames*c.channels : frames*c.channels]
	n, err := c.src.Read(seg)
	if err != nil && c.srcErr == nil {
		c.srcErr = err
	}
	if n < 0 {
		n = 0
	}
	for i := n; i < len(seg); i++ {
		seg[i] = 0
	}
	c.bufFrames = frames
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
