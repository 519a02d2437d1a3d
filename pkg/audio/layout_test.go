// ABOUTME: Tests for channel layouts
// ABOUTME: Channel counts, head-locked pairs and name parsing
package audio

import "testing"

func TestLayoutChannels(t *testing.T) {
	tests := []struct {
		layout   ChannelLayout
		expected int
	}{
		{LayoutTBE8_2, 10},
		{LayoutTBE8, 8},
		{LayoutTBE6_2, 8},
		{LayoutTBE6, 6},
		{LayoutTBE4_2, 6},
		{LayoutAmbiX4_2, 6},
		{LayoutTBE4, 4},
		{LayoutAmbiX4, 4},
		{LayoutTBE8Pair2, 2},
		{LayoutHeadlockedStereo, 2},
		{LayoutStereo, 2},
		{LayoutTBEChannel5, 1},
		{LayoutHeadlockedChannel1, 1},
		{LayoutMono, 1},
		{LayoutAmbiX9, 9},
		{LayoutAmbiX9_2, 11},
		{LayoutAmbiX16, 16},
		{LayoutAmbiX16_2, 18},
		{LayoutUnknown, 0},
		{LayoutInvalid, 0},
	}

	for _, tt := range tests {
		t.Run(tt.layout.String(), func(t *testing.T) {
			if got := tt.layout.Channels(); got != tt.expected {
				t.Errorf("expected %d channels, got %d", tt.expected, got)
			}
		})
	}
}

func TestHeadLockedPair(t *testing.T) {
	for _, l := range []ChannelLayout{LayoutTBE8_2, LayoutAmbiX4_2, LayoutHeadlockedStereo} {
		if !l.HasHeadLockedPair() {
			t.Errorf("expected %s to carry a head-locked pair", l)
		}
	}
	for _, l := range []ChannelLayout{LayoutTBE8, LayoutStereo, LayoutMono} {
		if l.HasHeadLockedPair() {
			t.Errorf("expected %s to have no head-locked pair", l)
		}
	}
}

func TestParseChannelLayout(t *testing.T) {
	tests := []struct {
		input    string
		expected ChannelLayout
	}{
		{"tbe_8_2", LayoutTBE8_2},
		{"AMBIX_4", LayoutAmbiX4},
		{" stereo ", LayoutStereo},
		{"headlocked_channel0", LayoutHeadlockedChannel0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseChannelLayout(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}

	if _, err := ParseChannelLayout("surround_7_1"); err == nil {
		t.Error("expected error for unknown layout")
	}
	if _, err := ParseChannelLayout("invalid"); err == nil {
		t.Error("expected error when parsing the invalid sentinel")
	}
}

func TestLayoutTextRoundTrip(t *testing.T) {
	text, err := LayoutAmbiX9_2.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var l ChannelLayout
	if err := l.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if l != LayoutAmbiX9_2 {
		t.Errorf("expected ambix_9_2, got %s", l)
	}
}
