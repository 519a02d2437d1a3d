// ABOUTME: Channel layouts for spatial and head-locked audio
// ABOUTME: Maps each layout to its channel count and a parseable name
package audio

import (
	"fmt"
	"strings"
)

// ChannelLayout describes how the channels of a stream are ordered
type ChannelLayout int

const (
	LayoutInvalid ChannelLayout = iota
	LayoutUnknown

	// Two Big Ears spatial layouts, optionally followed by a head-locked stereo pair
	LayoutTBE8_2
	LayoutTBE8
	LayoutTBE6_2
	LayoutTBE6
	LayoutTBE4_2
	LayoutTBE4

	// Single pairs and channels of an 8 channel TBE stream
	LayoutTBE8Pair0
	LayoutTBE8Pair1
	LayoutTBE8Pair2
	LayoutTBE8Pair3
	LayoutTBEChannel0
	LayoutTBEChannel1
	LayoutTBEChannel2
	LayoutTBEChannel3
	LayoutTBEChannel4
	LayoutTBEChannel5
	LayoutTBEChannel6
	LayoutTBEChannel7

	LayoutHeadlockedStereo
	LayoutHeadlockedChannel0
	LayoutHeadlockedChannel1

	// Ambisonic ACN/SN3D layouts, optionally followed by a head-locked stereo pair
	LayoutAmbiX4
	LayoutAmbiX4_2
	LayoutAmbiX9
	LayoutAmbiX9_2
	LayoutAmbiX16
	LayoutAmbiX16_2

	LayoutStereo
	LayoutMono
)

var layoutNames = map[ChannelLayout]string{
	LayoutInvalid:            "invalid",
	LayoutUnknown:            "unknown",
	LayoutTBE8_2:             "tbe_8_2",
	LayoutTBE8:               "tbe_8",
	LayoutTBE6_2:             "tbe_6_2",
	LayoutTBE6:               "tbe_6",
	LayoutTBE4_2:             "tbe_4_2",
	LayoutTBE4:               "tbe_4",
	LayoutTBE8Pair0:          "tbe_8_pair0",
	LayoutTBE8Pair1:          "tbe_8_pair1",
	LayoutTBE8Pair2:          "tbe_8_pair2",
	LayoutTBE8Pair3:          "tbe_8_pair3",
	LayoutTBEChannel0:        "tbe_channel0",
	LayoutTBEChannel1:        "tbe_channel1",
	LayoutTBEChannel2:        "tbe_channel2",
	LayoutTBEChannel3:        "tbe_channel3",
	LayoutTBEChannel4:        "tbe_channel4",
	LayoutTBEChannel5:        "tbe_channel5",
	LayoutTBEChannel6:        "tbe_channel6",
	LayoutTBEChannel7:        "tbe_channel7",
	LayoutHeadlockedStereo:   "headlocked_stereo",
	LayoutHeadlockedChannel0: "headlocked_channel0",
	LayoutHeadlockedChannel1: "headlocked_channel1",
	LayoutAmbiX4:             "ambix_4",
	LayoutAmbiX4_2:           "ambix_4_2",
	LayoutAmbiX9:             "ambix_9",
	LayoutAmbiX9_2:           "ambix_9_2",
	LayoutAmbiX16:            "ambix_16",
	LayoutAmbiX16_2:          "ambix_16_2",
	LayoutStereo:             "stereo",
	LayoutMono:               "mono",
}

// Channels returns the channel count implied by the layout, 0 for invalid or unknown
func (l ChannelLayout) Channels() int {
	switch l {
	case LayoutTBE8_2:
		return 10
	case LayoutTBE6_2, LayoutTBE8:
		return 8
	case LayoutTBE6, LayoutTBE4_2, LayoutAmbiX4_2:
		return 6
	case LayoutTBE4, LayoutAmbiX4:
		return 4
	case LayoutTBE8Pair0, LayoutTBE8Pair1, LayoutTBE8Pair2, LayoutTBE8Pair3,
		LayoutHeadlockedStereo, LayoutStereo:
		return 2
	case LayoutTBEChannel0, LayoutTBEChannel1, LayoutTBEChannel2, LayoutTBEChannel3,
		LayoutTBEChannel4, LayoutTBEChannel5, LayoutTBEChannel6, LayoutTBEChannel7,
		LayoutHeadlockedChannel0, LayoutHeadlockedChannel1, LayoutMono:
		return 1
	case LayoutAmbiX9:
		return 9
	case LayoutAmbiX9_2:
		return 11
	case LayoutAmbiX16:
		return 16
	case LayoutAmbiX16_2:
		return 18
	default:
		return 0
	}
}

// HasHeadLockedPair reports whether the last two channels are a head-locked stereo pair
func (l ChannelLayout) HasHeadLockedPair() bool {
	switch l {
	case LayoutTBE8_2, LayoutTBE6_2, LayoutTBE4_2, LayoutAmbiX4_2, LayoutAmbiX9_2, LayoutAmbiX16_2,
		LayoutHeadlockedStereo:
		return true
	}
	return false
}

// IsSpatial reports whether the layout carries a rotatable sound field
func (l ChannelLayout) IsSpatial() bool {
	switch l {
	case LayoutTBE8_2, LayoutTBE8, LayoutTBE6_2, LayoutTBE6, LayoutTBE4_2, LayoutTBE4,
		LayoutAmbiX4, LayoutAmbiX4_2, LayoutAmbiX9, LayoutAmbiX9_2, LayoutAmbiX16, LayoutAmbiX16_2:
		return true
	}
	return false
}

// String returns the layout name
func (l ChannelLayout) String() string {
	if name, ok := layoutNames[l]; ok {
		return name
	}
	return fmt.Sprintf("layout(%d)", int(l))
}

// ParseChannelLayout parses a layout name such as "tbe_8_2" or "AMBIX_4"
func ParseChannelLayout(name string) (ChannelLayout, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for layout, n := range layoutNames {
		if n == key && layout != LayoutInvalid {
			return layout, nil
		}
	}
	return LayoutInvalid, fmt.Errorf("unknown channel layout: %q", name)
}

// Set implements pflag.Value
func (l *ChannelLayout) Set(name string) error {
	parsed, err := ParseChannelLayout(name)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Type implements pflag.Value
func (l *ChannelLayout) Type() string {
	return "layout"
}

// UnmarshalText lets env and JSON decoders read layout names
func (l *ChannelLayout) UnmarshalText(text []byte) error {
	return l.Set(string(text))
}

// MarshalText writes the layout name
func (l ChannelLayout) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}
