// ABOUTME: Demuxer contract, stream descriptions and time base arithmetic
// ABOUTME: Shared by every container implementation
package container

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

var (
	ErrNoAudioStream     = errors.New("no audio stream")
	ErrUnsupportedFormat = errors.New("unsupported container format")
)

// MediaType classifies a stream
type MediaType int

const (
	MediaAudio MediaType = iota
	MediaOther
)

// Rational is a time base: one tick lasts Num/Den seconds
type Rational struct {
	Num int64
	Den int64
}

// Milliseconds converts ticks to milliseconds
func (r Rational) Milliseconds(ticks int64) float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(ticks) * float64(r.Num) * 1000 / float64(r.Den)
}

// FromMilliseconds converts milliseconds to ticks, rounding down
func (r Rational) FromMilliseconds(ms float64) int64 {
	if r.Num == 0 {
		return 0
	}
	return int64(math.Floor(ms * float64(r.Den) / (1000 * float64(r.Num))))
}

// String formats the time base as num/den
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// StreamInfo describes one stream of a container
type StreamInfo struct {
	Index    int
	Type     MediaType
	Format   audio.Format
	TimeBase Rational
	Duration int64 // in TimeBase ticks, -1 when unknown
}

// Packet is one unit of coded data
type Packet struct {
	StreamIndex int
	PTS         int64 // presentation timestamp in the stream's TimeBase
	Data        []byte
}

// Demuxer splits a container into packets
type Demuxer interface {
	// Streams lists the streams found in the container
	Streams() []StreamInfo

	// ReadPacket returns the next packet, io.EOF at the end of the container
	ReadPacket() (Packet, error)

	// Seek positions the demuxer at or before ts (in the audio stream time base)
	Seek(ts int64) error

	// Close releases the demuxer and the underlying source
	Close() error
}

// FirstAudioStream returns the first audio stream in streams
func FirstAudioStream(streams []StreamInfo) (StreamInfo, error) {
	for _, s := range streams {
		if s.Type == MediaAudio {
			return s, nil
		}
	}
	return StreamInfo{}, ErrNoAudioStream
}

// closeSource closes src when it owns a resource
func closeSource(src io.ReadSeeker) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
