// ABOUTME: Tests for capability probing helpers
// ABOUTME: Depth derivation and candidate ordering
package device

import (
	"reflect"
	"testing"
)

func TestDistinctDescending(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"all formats", []int{32, 32, 24, 16}, []int{32, 24, 16}},
		{"unordered", []int{16, 32, 24}, []int{32, 24, 16}},
		{"single", []int{16}, []int{16}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := distinctDescending(append([]int(nil), tt.in...))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("distinctDescending(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCandidateRatesAscending(t *testing.T) {
	for i := 1; i < len(candidateRates); i++ {
		if candidateRates[i] <= candidateRates[i-1] {
			t.Fatalf("candidate rates not ascending at %d: %v", i, candidateRates)
		}
	}
}

func TestFormatProbesDescendingQuality(t *testing.T) {
	for i := 1; i < len(formatProbes); i++ {
		if formatProbes[i].depth > formatProbes[i-1].depth {
			t.Fatalf("format probes not in descending quality order at %d", i)
		}
	}
}

func TestProbeAgainstHost(t *testing.T) {
	caps, err := Probe("")
	if err != nil {
		t.Skipf("no probeable output device: %v", err)
	}
	for i := 1; i < len(caps.SampleRates); i++ {
		if caps.SampleRates[i] <= caps.SampleRates[i-1] {
			t.Errorf("sample rates not ascending: %v", caps.SampleRates)
		}
	}
	for i := 1; i < len(caps.BitDepths); i++ {
		if caps.BitDepths[i] >= caps.BitDepths[i-1] {
			t.Errorf("bit depths not descending: %v", caps.BitDepths)
		}
	}
	if n := len(caps.SampleRates); n > 0 && caps.PreferredSampleRate != caps.SampleRates[n-1] {
		t.Errorf("preferred rate %d is not the max supported %d", caps.PreferredSampleRate, caps.SampleRates[n-1])
	}
	if len(caps.BitDepths) > 0 && caps.PreferredBitDepth != caps.BitDepths[0] {
		t.Errorf("preferred depth %d is not the max supported %d", caps.PreferredBitDepth, caps.BitDepths[0])
	}
	if caps.MinChannels < 1 || caps.MaxChannels < caps.MinChannels {
		t.Errorf("bad channel range %d..%d", caps.MinChannels, caps.MaxChannels)
	}
}
