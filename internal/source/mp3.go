// ABOUTME: MP3 file source decoding to float32 samples
// ABOUTME: go-mp3 emits 16-bit LE stereo; converted and silence-padded after EOF
package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/chrisuthe/sendspin-audio/pkg/audio"
)

// MP3File streams PCM decoded from an MP3 file. go-mp3 always produces
// 16-bit little-endian stereo at the file's sample rate.
type MP3File struct {
	f      *os.File
	dec    *mp3.Decoder
	format audio.Format
	buf    []byte
	eof    bool
}

// OpenMP3 opens an MP3 file for streaming playback.
func OpenMP3(path string) (*MP3File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("source: mp3 decoder for %s: %w", path, err)
	}
	return &MP3File{
		f:   f,
		dec: dec,
		format: audio.Format{
			Codec:      "mp3",
			SampleRate: dec.SampleRate(),
			Channels:   2,
		},
		buf: make([]byte, 8192),
	}, nil
}

func (m *MP3File) Format() audio.Format { return m.format }

// Read fills dst with decoded samples, zero-padding past end of stream.
func (m *MP3File) Read(dst []float32) (int, error) {
	written := 0
	for written < len(dst) && !m.eof {
		want := (len(dst) - written) * 2
		if want > len(m.buf) {
			want = len(m.buf)
		}
		n, err := io.ReadFull(m.dec, m.buf[:want])
		samples := n / 2
		for i := 0; i < samples; i++ {
			s := int16(binary.LittleEndian.Uint16(m.buf[i*2:]))
			dst[written+i] = audio.SampleFromInt16(s)
		}
		written += samples
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			m.eof = true
		} else if err != nil {
			m.eof = true
			pad(dst, written)
			return written, fmt.Errorf("source: mp3 decode: %w", err)
		}
	}
	pad(dst, written)
	if m.eof {
		return written, io.EOF
	}
	return written, nil
}

// Close releases the underlying file.
func (m *MP3File) Close() error { return m.f.Close() }
