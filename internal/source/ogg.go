// ABOUTME: Ogg Vorbis file source
// ABOUTME: jfreymuth/oggvorbis decodes straight to float32
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"

	"github.com/chrisuthe/sendspin-audio/pkg/audio"
)

// OggFile streams PCM decoded from an Ogg Vorbis file.
type OggFile struct {
	f      *os.File
	dec    *oggvorbis.Reader
	format audio.Format
	eof    bool
}

// OpenOgg opens an Ogg Vorbis file for streaming playback.
func OpenOgg(path string) (*OggFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("source: vorbis reader for %s: %w", path, err)
	}
	return &OggFile{
		f:   f,
		dec: dec,
		format: audio.Format{
			Codec:      "vorbis",
			SampleRate: dec.SampleRate(),
			Channels:   dec.Channels(),
		},
	}, nil
}

func (o *OggFile) Format() audio.Format { return o.format }

// Read fills dst with decoded samples, zero-padding past end of stream.
func (o *OggFile) Read(dst []float32) (int, error) {
	written := 0
	for written < len(dst) && !o.eof {
		n, err := o.dec.Read(dst[written:])
		written += n
		if err == io.EOF {
			o.eof = true
		} else if err != nil {
			o.eof = true
			pad(dst, written)
			return written, fmt.Errorf("source: vorbis decode: %w", err)
		} else if n == 0 {
			o.eof = true
		}
	}
	pad(dst, written)
	if o.eof {
		return written, io.EOF
	}
	return written, nil
}

// Close releases the underlying file.
func (o *OggFile) Close() error { return o.f.Close() }
