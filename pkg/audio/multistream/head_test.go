// ABOUTME: Tests for OpusHead parsing and building
// ABOUTME: Covers mapping families, validation errors and channel sources
package multistream

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

func TestHeadRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		family   int
		channels int
		streams  int
		coupled  int
		mapping  []byte
	}{
		{"mono", FamilyRTP, 1, 1, 0, []byte{0}},
		{"stereo", FamilyRTP, 2, 1, 1, []byte{0, 1}},
		{"quad", FamilyVorbis, 4, 2, 2, []byte{0, 1, 2, 3}},
		{"5.1", FamilyVorbis, 6, 4, 2, []byte{0, 4, 1, 2, 3, 5}},
		{"first order ambisonics", FamilyAmbisonics, 4, 4, 0, []byte{0, 1, 2, 3}},
		{"8.2", FamilyUndefined, 10, 10, 0, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHead(tt.family, tt.channels, 312, 44100)
			if err != nil {
				t.Fatalf("NewHead failed: %v", err)
			}
			if h.Streams != tt.streams || h.Coupled != tt.coupled {
				t.Errorf("expected %d streams %d coupled, got %d and %d", tt.streams, tt.coupled, h.Streams, h.Coupled)
			}

			parsed, err := ParseHead(h.Bytes())
			if err != nil {
				t.Fatalf("ParseHead failed: %v", err)
			}
			if diff := cmp.Diff(h, parsed); diff != "" {
				t.Errorf("head mismatch (-built +parsed):\n%s", diff)
			}
			if diff := cmp.Diff(tt.mapping, parsed.Mapping); diff != "" {
				t.Errorf("mapping mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFamilyZeroHeaderIsNineteenBytes(t *testing.T) {
	h, err := NewHead(FamilyRTP, 2, 0, 48000)
	if err != nil {
		t.Fatalf("NewHead failed: %v", err)
	}
	if got := len(h.Bytes()); got != 19 {
		t.Errorf("expected 19 bytes, got %d", got)
	}
}

func TestParseHeadErrors(t *testing.T) {
	valid := func(mutate func(b []byte) []byte) []byte {
		h, _ := NewHead(FamilyAmbisonics, 4, 0, 48000)
		return mutate(h.Bytes())
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short", []byte("OpusHead"), audio.ErrInvalidHeader},
		{"bad magic", valid(func(b []byte) []byte { b[0] = 'X'; return b }), audio.ErrInvalidHeader},
		{"major version", valid(func(b []byte) []byte { b[8] = 0x10; return b }), audio.ErrNotSupported},
		{"no channels", valid(func(b []byte) []byte { b[9] = 0; return b }), audio.ErrInvalidChannelCount},
		{"projection family", valid(func(b []byte) []byte { b[18] = 3; return b }), audio.ErrNotSupported},
		{"family zero multichannel", valid(func(b []byte) []byte { b[18] = 0; return b }), audio.ErrInvalidChannelCount},
		{"truncated mapping", valid(func(b []byte) []byte { return b[:22] }), audio.ErrInvalidHeader},
		{"no streams", valid(func(b []byte) []byte { b[19] = 0; return b }), audio.ErrInvalidHeader},
		{"more coupled than streams", valid(func(b []byte) []byte { b[20] = 5; return b }), audio.ErrInvalidHeader},
		{"mapping out of range", valid(func(b []byte) []byte { b[22] = 9; return b }), audio.ErrInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseHead(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewHeadErrors(t *testing.T) {
	if _, err := NewHead(FamilyRTP, 3, 0, 48000); !errors.Is(err, audio.ErrInvalidChannelCount) {
		t.Errorf("family 0 with 3 channels: got %v", err)
	}
	if _, err := NewHead(FamilyVorbis, 9, 0, 48000); !errors.Is(err, audio.ErrInvalidChannelCount) {
		t.Errorf("family 1 with 9 channels: got %v", err)
	}
	if _, err := NewHead(3, 4, 0, 48000); !errors.Is(err, audio.ErrNotSupported) {
		t.Errorf("family 3: got %v", err)
	}
}

func TestSource(t *testing.T) {
	h := Head{Channels: 5, Streams: 3, Coupled: 2, Mapping: []byte{0, 1, 2, 4, Silent}}

	tests := []struct {
		channel        int
		stream, within int
		ok             bool
	}{
		{0, 0, 0, true},
		{1, 0, 1, true},
		{2, 1, 0, true},
		{3, 2, 0, true},
		{4, 0, 0, false},
	}
	for _, tt := range tests {
		stream, within, ok := h.Source(tt.channel)
		if stream != tt.stream || within != tt.within || ok != tt.ok {
			t.Errorf("Source(%d) = %d, %d, %v; want %d, %d, %v",
				tt.channel, stream, within, ok, tt.stream, tt.within, tt.ok)
		}
	}

	if h.StreamChannels(1) != 2 || h.StreamChannels(2) != 1 {
		t.Error("expected coupled streams to be stereo and the rest mono")
	}
}
