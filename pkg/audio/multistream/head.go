// ABOUTME: OpusHead identification header with channel mapping table
// ABOUTME: Parses and builds headers for mapping families 0, 1, 2 and 255
package multistream

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

// Mapping families
const (
	FamilyRTP        = 0   // mono or stereo, one stream
	FamilyVorbis     = 1   // up to 8 channels in Vorbis order
	FamilyAmbisonics = 2   // ambisonics, one channel per stream or coupled non-diegetic pair
	FamilyUndefined  = 255 // any channel count, application defined order
)

// Silent marks an output channel that carries no stream
const Silent = 255

// Head is a parsed OpusHead packet
type Head struct {
	Channels   int
	PreSkip    int
	InputRate  int
	OutputGain int16 // Q7.8 dB
	Family     int

	// Streams and Coupled count the elementary streams; the first Coupled are stereo
	Streams int
	Coupled int

	// Mapping gives, per output channel, the decoded channel index or Silent
	Mapping []byte
}

// vorbisLayouts holds streams, coupled streams and mapping per channel count for family 1
var vorbisLayouts = [8]struct {
	streams, coupled int
	mapping          []byte
}{
	{1, 0, []byte{0}},
	{1, 1, []byte{0, 1}},
	{2, 1, []byte{0, 2, 1}},
	{2, 2, []byte{0, 1, 2, 3}},
	{3, 2, []byte{0, 4, 1, 2, 3}},
	{4, 2, []byte{0, 4, 1, 2, 3, 5}},
	{4, 3, []byte{0, 4, 1, 2, 3, 5, 6}},
	{5, 3, []byte{0, 6, 1, 2, 3, 4, 5, 7}},
}

// NewHead returns a header for channels with the default layout of family.
// Family 0 takes 1 or 2 channels, family 1 up to 8 in Vorbis order, and
// families 2 and 255 one mono stream per channel.
func NewHead(family, channels, preSkip, inputRate int) (Head, error) {
	h := Head{
		Channels:  channels,
		PreSkip:   preSkip,
		InputRate: inputRate,
		Family:    family,
	}

	switch family {
	case FamilyRTP:
		if channels < 1 || channels > 2 {
			return Head{}, fmt.Errorf("mapping family 0 with %d channels: %w", channels, audio.ErrInvalidChannelCount)
		}
		h.Streams, h.Coupled = 1, channels-1
	case FamilyVorbis:
		if channels < 1 || channels > 8 {
			return Head{}, fmt.Errorf("mapping family 1 with %d channels: %w", channels, audio.ErrInvalidChannelCount)
		}
		layout := vorbisLayouts[channels-1]
		h.Streams, h.Coupled = layout.streams, layout.coupled
		h.Mapping = append([]byte(nil), layout.mapping...)
		return h, nil
	case FamilyAmbisonics, FamilyUndefined:
		if channels < 1 || channels > 254 {
			return Head{}, fmt.Errorf("mapping family %d with %d channels: %w", family, channels, audio.ErrInvalidChannelCount)
		}
		h.Streams = channels
	default:
		return Head{}, fmt.Errorf("mapping family %d: %w", family, audio.ErrNotSupported)
	}

	h.Mapping = make([]byte, channels)
	for i := range h.Mapping {
		h.Mapping[i] = byte(i)
	}
	return h, nil
}

// ParseHead parses and validates an OpusHead packet
func ParseHead(b []byte) (Head, error) {
	if len(b) < 19 || !bytes.HasPrefix(b, []byte("OpusHead")) {
		return Head{}, fmt.Errorf("not an OpusHead packet: %w", audio.ErrInvalidHeader)
	}
	if b[8]>>4 != 0 {
		return Head{}, fmt.Errorf("OpusHead version %d: %w", b[8], audio.ErrNotSupported)
	}

	h := Head{
		Channels:   int(b[9]),
		PreSkip:    int(binary.LittleEndian.Uint16(b[10:12])),
		InputRate:  int(binary.LittleEndian.Uint32(b[12:16])),
		OutputGain: int16(binary.LittleEndian.Uint16(b[16:18])),
		Family:     int(b[18]),
	}
	if h.Channels < 1 {
		return Head{}, fmt.Errorf("OpusHead has no channels: %w", audio.ErrInvalidChannelCount)
	}

	switch h.Family {
	case FamilyRTP:
		if h.Channels > 2 {
			return Head{}, fmt.Errorf("mapping family 0 with %d channels: %w", h.Channels, audio.ErrInvalidChannelCount)
		}
		h.Streams, h.Coupled = 1, h.Channels-1
		h.Mapping = []byte{0, 1}[:h.Channels]
		return h, nil
	case FamilyVorbis, FamilyAmbisonics, FamilyUndefined:
	default:
		return Head{}, fmt.Errorf("mapping family %d: %w", h.Family, audio.ErrNotSupported)
	}

	if len(b) < 21+h.Channels {
		return Head{}, fmt.Errorf("OpusHead mapping table truncated: %w", audio.ErrInvalidHeader)
	}
	if h.Family == FamilyVorbis && h.Channels > 8 {
		return Head{}, fmt.Errorf("mapping family 1 with %d channels: %w", h.Channels, audio.ErrInvalidChannelCount)
	}
	h.Streams = int(b[19])
	h.Coupled = int(b[20])
	if h.Streams < 1 || h.Coupled > h.Streams || h.Streams+h.Coupled > 255 {
		return Head{}, fmt.Errorf("OpusHead with %d streams, %d coupled: %w", h.Streams, h.Coupled, audio.ErrInvalidHeader)
	}

	h.Mapping = append([]byte(nil), b[21:21+h.Channels]...)
	decoded := h.Streams + h.Coupled
	for c, m := range h.Mapping {
		if m != Silent && int(m) >= decoded {
			return Head{}, fmt.Errorf("channel %d maps to %d of %d decoded channels: %w", c, m, decoded, audio.ErrInvalidHeader)
		}
	}
	return h, nil
}

// Bytes encodes the header; family 0 omits the mapping table
func (h Head) Bytes() []byte {
	size := 19
	if h.Family != FamilyRTP {
		size += 2 + len(h.Mapping)
	}

	b := make([]byte, size)
	copy(b, "OpusHead")
	b[8] = 1 // version
	b[9] = byte(h.Channels)
	binary.LittleEndian.PutUint16(b[10:], uint16(h.PreSkip))
	binary.LittleEndian.PutUint32(b[12:], uint32(h.InputRate))
	binary.LittleEndian.PutUint16(b[16:], uint16(h.OutputGain))
	b[18] = byte(h.Family)
	if h.Family != FamilyRTP {
		b[19] = byte(h.Streams)
		b[20] = byte(h.Coupled)
		copy(b[21:], h.Mapping)
	}
	return b
}

// StreamChannels returns the channel count of stream i
func (h Head) StreamChannels(i int) int {
	if i < h.Coupled {
		return 2
	}
	return 1
}

// Source locates the stream and channel within it that output channel c decodes from.
// ok is false for silent channels.
func (h Head) Source(c int) (stream, channel int, ok bool) {
	m := int(h.Mapping[c])
	switch {
	case m == Silent:
		return 0, 0, false
	case m < 2*h.Coupled:
		return m / 2, m % 2, true
	default:
		return m - h.Coupled, 0, true
	}
}
