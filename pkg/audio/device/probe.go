// ABOUTME: Hardware capability probing for output devices
// ABOUTME: Tests candidate sample rates and formats without opening a stream
package device

import (
	"fmt"
	"log"
	"sort"

	"github.com/gordonklaus/portaudio"
)

// Capabilities summarizes what an output device supports. Results are
// derived per probe and must not be cached across device changes: once a
// device is physically disconnected a fresh Probe is required.
type Capabilities struct {
	SampleRates         []int // ascending
	BitDepths           []int // descending
	MinChannels         int
	MaxChannels         int
	PreferredSampleRate int // highest supported rate
	PreferredBitDepth   int // highest supported depth
}

// candidateRates are the common rates tested for exact-match support.
var candidateRates = []int{44100, 48000, 88200, 96000, 176400, 192000}

// formatProbes are the candidate sample formats in descending quality order.
// The format is conveyed to PortAudio through the callback buffer type.
var formatProbes = []struct {
	depth int
	cb    interface{}
}{
	{32, func([]float32) {}},
	{32, func([]int32) {}},
	{24, func([]portaudio.Int24) {}},
	{16, func([]int16) {}},
}

// Probe queries an output device for supported sample rates, bit depths and
// channel range. The checks are probe-only: no stream is ever opened, so a
// busy device can still be inspected. A total failure (no rates and no
// formats) is logged and returns an error; partial failures fail closed,
// defaulting the channel range to stereo.
func Probe(id string) (*Capabilities, error) {
	if err := ensureHost(); err != nil {
		return nil, err
	}
	info, _, err := Resolve(id)
	if err != nil {
		log.Printf("probe: cannot resolve device %q: %v", id, err)
		return nil, err
	}
	if info.MaxOutputChannels < 1 {
		err := fmt.Errorf("device %q has no output channels", info.Name)
		log.Printf("probe: %v", err)
		return nil, err
	}

	caps := &Capabilities{
		MinChannels: 1,
		MaxChannels: info.MaxOutputChannels,
	}

	testChannels := 2
	if info.MaxOutputChannels < 2 {
		testChannels = info.MaxOutputChannels
	}

	for _, rate := range candidateRates {
		if supportsFormat(info, testChannels, rate, func([]float32) {}) {
			caps.SampleRates = append(caps.SampleRates, rate)
		}
	}
	sort.Ints(caps.SampleRates)

	defaultRate := int(info.DefaultSampleRate)
	depths := make([]int, 0, len(formatProbes))
	for _, fp := range formatProbes {
		if supportsFormat(info, testChannels, defaultRate, fp.cb) {
			depths = append(depths, fp.depth)
		}
	}
	caps.BitDepths = distinctDescending(depths)

	if len(caps.SampleRates) == 0 && len(caps.BitDepths) == 0 {
		err := fmt.Errorf("device %q answered no capability queries", info.Name)
		log.Printf("probe: %v", err)
		return nil, err
	}

	if n := len(caps.SampleRates); n > 0 {
		caps.PreferredSampleRate = caps.SampleRates[n-1]
	}
	if len(caps.BitDepths) > 0 {
		caps.PreferredBitDepth = caps.BitDepths[0]
	}
	return caps, nil
}

// supportsFormat asks PortAudio whether the device accepts the combination
// without committing to it. Any native failure counts as unsupported.
func supportsFormat(info *portaudio.DeviceInfo, channels, rate int, cb interface{}) bool {
	if channels < 1 || rate <= 0 {
		return false
	}
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: channels,
			Latency:  info.DefaultLowOutputLatency,
		},
		SampleRate:      float64(rate),
		FramesPerBuffer: portaudio.FramesPerBufferUnspecified,
	}
	return portaudio.IsFormatSupported(params, cb) == nil
}

// distinctDescending deduplicates depths preserving highest-first order.
func distinctDescending(depths []int) []int {
	sort.Sort(sort.Reverse(sort.IntSlice(depths)))
	out := depths[:0]
	for i, d := range depths {
		if i == 0 || d != depths[i-1] {
			out = append(out, d)
		}
	}
	return out
}
