// ABOUTME: WAV file source decoding PCM to float32 samples
// ABOUTME: Streams via go-audio/wav, silence-padding after EOF
package source

import (
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/chrisuthe/sendspin-audio/pkg/audio"
)

const wavChunkSamples = 4096

// WAVFile streams PCM from a RIFF/WAVE file.
type WAVFile struct {
	f        *os.File
	dec      *wav.Decoder
	format   audio.Format
	bitDepth int
	chunk    *gaudio.IntBuffer
	eof      bool
}

// OpenWAV opens a WAV file for streaming playback.
func OpenWAV(path string) (*WAVFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("source: %s is not a valid wav file", path)
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("source: seek pcm data in %s: %w", path, err)
	}
	return &WAVFile{
		f:   f,
		dec: dec,
		format: audio.Format{
			Codec:      "pcm",
			SampleRate: int(dec.SampleRate),
			Channels:   int(dec.NumChans),
		},
		bitDepth: int(dec.BitDepth),
		chunk: &gaudio.IntBuffer{
			Format: &gaudio.Format{
				NumChannels: int(dec.NumChans),
				SampleRate:  int(dec.SampleRate),
			},
			Data: make([]int, wavChunkSamples),
		},
	}, nil
}

func (w *WAVFile) Format() audio.Format { return w.format }

// Read fills dst with decoded samples, zero-padding past end of file.
func (w *WAVFile) Read(dst []float32) (int, error) {
	written := 0
	for written < len(dst) && !w.eof {
		want := len(dst) - written
		if want > wavChunkSamples {
			want = wavChunkSamples
		}
		w.chunk.Data = w.chunk.Data[:want]
		n, err := w.dec.PCMBuffer(w.chunk)
		if err != nil && err != io.EOF {
			w.eof = true
			pad(dst, written)
			return written, fmt.Errorf("source: wav decode: %w", err)
		}
		for i := 0; i < n; i++ {
			dst[written+i] = audio.SampleFromInt(w.chunk.Data[i], w.bitDepth)
		}
		written += n
		if n < want {
			w.eof = true
		}
	}
	pad(dst, written)
	if w.eof {
		return written, io.EOF
	}
	return written, nil
}

// Close releases the underlying file.
func (w *WAVFile) Close() error { return w.f.Close() }

// pad zeroes dst from n onward.
func pad(dst []float32, n int) {
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}
