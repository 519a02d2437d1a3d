// ABOUTME: Ogg Vorbis demuxer
// ABOUTME: Decodes Vorbis with oggvorbis and emits float PCM packets
package container

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/jfreymuth/oggvorbis"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

// vorbisPacketFrames is the frame count of one emitted packet
const vorbisPacketFrames = 1024

// Vorbis exposes oggvorbis output as 32-bit float packets
type Vorbis struct {
	src      io.ReadSeeker
	reader   *oggvorbis.Reader
	info     StreamInfo
	channels int
	buf      []float32
}

// NewVorbis reads the Vorbis headers of src
func NewVorbis(src io.ReadSeeker) (*Vorbis, error) {
	reader, err := oggvorbis.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to decode vorbis: %w", err)
	}

	channels := reader.Channels()
	duration := reader.Length()
	if duration <= 0 {
		duration = -1
	}

	return &Vorbis{
		src:    src,
		reader: reader,
		info: StreamInfo{
			Index: 0,
			Type:  MediaAudio,
			Format: audio.Format{
				Codec:              audio.CodecPCMFloat,
				SampleRate:         reader.SampleRate(),
				Channels:           channels,
				BitDepth:           32,
				MaxFramesPerPacket: vorbisPacketFrames,
			},
			TimeBase: Rational{Num: 1, Den: int64(reader.SampleRate())},
			Duration: duration,
		},
		channels: channels,
		buf:      make([]float32, vorbisPacketFrames*channels),
	}, nil
}

func openVorbis(src io.ReadSeeker) (Demuxer, error) {
	return NewVorbis(src)
}

// Streams returns the decoded PCM stream
func (d *Vorbis) Streams() []StreamInfo {
	return []StreamInfo{d.info}
}

// ReadPacket returns the next block of decoded frames
func (d *Vorbis) ReadPacket() (Packet, error) {
	pts := d.reader.Position()

	// Read reports values, not frames
	n, err := d.reader.Read(d.buf)
	n -= n % d.channels
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		if err != io.EOF {
			err = fmt.Errorf("failed to read vorbis: %w", err)
		}
		return Packet{}, err
	}

	data := make([]byte, n*4)
	for i, v := range d.buf[:n] {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}

	return Packet{StreamIndex: 0, PTS: pts, Data: data}, nil
}

// Seek moves to frame ts
func (d *Vorbis) Seek(ts int64) error {
	if ts < 0 {
		ts = 0
	}
	if err := d.reader.SetPosition(ts); err != nil {
		return fmt.Errorf("failed to seek vorbis: %w", err)
	}
	return nil
}

// Close closes the underlying source
func (d *Vorbis) Close() error {
	return closeSource(d.src)
}
