// ABOUTME: Tests for the streaming sample rate converter
// ABOUTME: Path selection, exact-count reads, continuity and signal quality
package resample

import (
	"io"
	"math"
	"testing"

	"github.com/chrisuthe/sendspin-audio/pkg/audio"
)

// sliceSource serves a fixed sample slice, then pads silence forever.
type sliceSource struct {
	format audio.Format
	data   []float32
	pos    int
}

func (s *sliceSource) Format() audio.Format { return s.format }

func (s *sliceSource) Read(dst []float32) (int, error) {
	n := copy(dst, s.data[s.pos:])
	s.pos += n
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	if s.pos >= len(s.data) {
		return n, io.EOF
	}
	return n, nil
}

// sineSource is an endless mono sine wave.
type sineSource struct {
	format audio.Format
	freq   float64
	amp    float64
	idx    uint64
}

func (s *sineSource) Format() audio.Format { return s.format }

func (s *sineSource) Read(dst []float32) (int, error) {
	for i := range dst {
		ts := float64(s.idx+uint64(i)) / float64(s.format.SampleRate)
		dst[i] = float32(s.amp * math.Sin(2*math.Pi*s.freq*ts))
	}
	s.idx += uint64(len(dst))
	return len(dst), nil
}

// constSource repeats fixed per-channel values forever.
type constSource struct {
	format audio.Format
	values []float32
}

func (s *constSource) Format() audio.Format { return s.format }

func (s *constSource) Read(dst []float32) (int, error) {
	ch := len(s.values)
	for i := range dst {
		dst[i] = s.values[i%ch]
	}
	return len(dst), nil
}

func monoFormat(rate int) audio.Format {
	return audio.Format{Codec: "pcm", SampleRate: rate, Channels: 1}
}

func TestPathSelection(t *testing.T) {
	tests := []struct {
		name     string
		in, out  int
		wantPoly bool
		wantUp   int
	}{
		{"integer upsample x2", 48000, 96000, true, 2},
		{"integer upsample x3", 48000, 144000, true, 3},
		{"same rate", 44100, 44100, true, 1},
		{"cd to dat", 44100, 48000, false, 0},
		{"downsample", 48000, 44100, false, 0},
		{"integer downsample", 96000, 48000, false, 0},
		{"upsample factor too large", 8000, 192000, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(&sliceSource{format: monoFormat(tt.in)}, tt.out)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			gotPoly := c.path == pathPolyphase
			if gotPoly != tt.wantPoly {
				t.Fatalf("polyphase = %v, want %v", gotPoly, tt.wantPoly)
			}
			if tt.wantPoly {
				if c.up != tt.wantUp {
					t.Errorf("up = %d, want %d", c.up, tt.wantUp)
				}
				if len(c.phases) != tt.wantUp {
					t.Errorf("phase bank size = %d, want %d", len(c.phases), tt.wantUp)
				}
			}
		})
	}
}

func TestReadExactCountFromEmptyUpstream(t *testing.T) {
	c, err := New(&sliceSource{format: monoFormat(48000)}, 96000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dst := make([]float32, 2048)
	for i := range dst {
		dst[i] = 99 // poison to catch unwritten samples
	}
	n, err := c.Read(dst)
	if n != len(dst) {
		t.Errorf("Read returned %d, want %d", n, len(dst))
	}
	if err != io.EOF {
		t.Errorf("Read error = %v, want io.EOF", err)
	}
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("sample %d = %v, want silence", i, v)
		}
	}
}

func TestScenarioMonoUpsampleShortSource(t *testing.T) {
	// 48000 Hz mono source with fewer frames than the request needs,
	// resampled to a 96000 Hz device: ratio 2, polyphase, 2 phases.
	src := &sliceSource{format: monoFormat(48000), data: make([]float32, 100)}
	for i := range src.data {
		src.data[i] = 0.25
	}
	c, err := NewWithTaps(src, 96000, 32)
	if err != nil {
		t.Fatalf("NewWithTaps: %v", err)
	}
	if c.Ratio() != 2.0 {
		t.Errorf("Ratio = %v, want 2.0", c.Ratio())
	}
	if c.path != pathPolyphase {
		t.Error("expected polyphase path")
	}
	if len(c.phases) != 2 {
		t.Errorf("phase count = %d, want 2", len(c.phases))
	}
	if c.Taps() != 32 {
		t.Errorf("taps = %d, want 32", c.Taps())
	}

	dst := make([]float32, 2048)
	n, _ := c.Read(dst)
	if n != 2048 {
		t.Fatalf("Read returned %d, want 2048", n)
	}
}

func TestChunkedReadsMatchSingleRead(t *testing.T) {
	mkSource := func() *sliceSource {
		data := make([]float32, 4000)
		for i := range data {
			data[i] = float32(0.4 * math.Sin(2*math.Pi*997*float64(i)/44100))
		}
		return &sliceSource{format: monoFormat(44100), data: data}
	}

	for _, tt := range []struct {
		name string
		out  int
	}{
		{"arbitrary path", 48000},
		{"polyphase path", 88200},
	} {
		t.Run(tt.name, func(t *testing.T) {
			whole, err := New(mkSource(), tt.out)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			want := make([]float32, 3000)
			whole.Read(want)

			chunked, err := New(mkSource(), tt.out)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			got := make([]float32, 3000)
			for done, sizes := 0, []int{7, 64, 129, 500, 2300}; done < len(got); {
				n := sizes[0]
				sizes = sizes[1:]
				chunked.Read(got[done : done+n])
				done += n
			}

			for i := range want {
				if math.Abs(float64(want[i]-got[i])) > 1e-6 {
					t.Fatalf("sample %d differs across block boundaries: %v vs %v", i, want[i], got[i])
				}
			}
		})
	}
}

func TestRoundTripPreservesRMS(t *testing.T) {
	const amp = 0.5
	src := &sineSource{format: monoFormat(48000), freq: 440, amp: amp}
	up, err := New(src, 96000)
	if err != nil {
		t.Fatalf("up: %v", err)
	}
	down, err := New(up, 48000)
	if err != nil {
		t.Fatalf("down: %v", err)
	}

	out := make([]float32, 8192)
	down.Read(out)

	// Skip the filter warmup, measure the steady state.
	sum := 0.0
	region := out[2000:8000]
	for _, v := range region {
		sum += float64(v) * float64(v)
	}
	rms := math.Sqrt(sum / float64(len(region)))
	want := amp / math.Sqrt2
	if math.Abs(rms-want) > 0.1*want {
		t.Errorf("round-trip RMS = %v, want %v within 10%%", rms, want)
	}
}

func TestArbitraryPathPreservesDC(t *testing.T) {
	src := &constSource{format: monoFormat(44100), values: []float32{0.7}}
	c, err := New(src, 48000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out := make([]float32, 4096)
	c.Read(out)
	for i, v := range out[512:] {
		if math.Abs(float64(v)-0.7) > 0.02 {
			t.Fatalf("steady-state sample %d = %v, want ~0.7", i+512, v)
		}
	}
}

func TestStereoChannelsStayIndependent(t *testing.T) {
	src := &constSource{
		format: audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2},
		values: []float32{0.8, -0.4},
	}
	c, err := New(src, 96000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out := make([]float32, 4096)
	c.Read(out)
	for f := 128; f < 2048; f++ {
		l, r := float64(out[f*2]), float64(out[f*2+1])
		if math.Abs(l-0.8) > 0.05 {
			t.Fatalf("frame %d left = %v, want ~0.8", f, l)
		}
		if math.Abs(r+0.4) > 0.05 {
			t.Fatalf("frame %d right = %v, want ~-0.4", f, r)
		}
	}
}

func TestFormatReportsOutputRate(t *testing.T) {
	src := &sliceSource{format: audio.Format{Codec: "mp3", SampleRate: 44100, Channels: 2}}
	c, err := New(src, 48000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f := c.Format()
	if f.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", f.SampleRate)
	}
	if f.Channels != 2 || f.Codec != "mp3" {
		t.Errorf("channels/codec not preserved: %+v", f)
	}
}

func TestConstructorValidation(t *testing.T) {
	valid := &sliceSource{format: monoFormat(48000)}
	tests := []struct {
		name string
		src  audio.Source
		out  int
		taps int
	}{
		{"nil source", nil, 48000, 32},
		{"zero output rate", valid, 0, 32},
		{"negative output rate", valid, -1, 32},
		{"odd taps", valid, 96000, 31},
		{"too few taps", valid, 96000, 2},
		{"zero source rate", &sliceSource{format: monoFormat(0)}, 48000, 32},
		{"zero channels", &sliceSource{format: audio.Format{SampleRate: 48000}}, 96000, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWithTaps(tt.src, tt.out, tt.taps); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReadPadsTrailingPartialFrame(t *testing.T) {
	src := &constSource{
		format: audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2},
		values: []float32{0.5, 0.5},
	}
	c, err := New(src, 96000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dst := make([]float32, 7)
	dst[6] = 99
	n, _ := c.Read(dst)
	if n != 7 {
		t.Errorf("Read returned %d, want 7", n)
	}
	if dst[6] != 0 {
		t.Errorf("trailing partial-frame sample = %v, want 0", dst[6])
	}
}
