// ABOUTME: MP3 demuxer
// ABOUTME: Decodes MP3 with go-mp3 and emits 16-bit stereo PCM packets
package container

import (
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

const (
	// go-mp3 always produces 16-bit stereo
	mp3BytesPerFrame = 4
	mp3PacketFrames  = 1152
)

// MP3 exposes go-mp3 output as PCM packets
type MP3 struct {
	src      io.ReadSeeker
	dec      *mp3.Decoder
	info     StreamInfo
	position int64
	buf      []byte
}

// NewMP3 creates an MP3 demuxer over src
func NewMP3(src io.ReadSeeker) (*MP3, error) {
	dec, err := mp3.NewDecoder(src)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3: %w", err)
	}

	duration := int64(-1)
	if length := dec.Length(); length > 0 {
		duration = length / mp3BytesPerFrame
	}

	return &MP3{
		src: src,
		dec: dec,
		info: StreamInfo{
			Index: 0,
			Type:  MediaAudio,
			Format: audio.Format{
				Codec:              audio.CodecPCM,
				SampleRate:         dec.SampleRate(),
				Channels:           2,
				BitDepth:           16,
				MaxFramesPerPacket: mp3PacketFrames,
			},
			TimeBase: Rational{Num: 1, Den: int64(dec.SampleRate())},
			Duration: duration,
		},
		buf: make([]byte, mp3PacketFrames*mp3BytesPerFrame),
	}, nil
}

func openMP3(src io.ReadSeeker) (Demuxer, error) {
	return NewMP3(src)
}

// Streams returns the decoded PCM stream
func (d *MP3) Streams() []StreamInfo {
	return []StreamInfo{d.info}
}

// ReadPacket returns the next block of decoded frames
func (d *MP3) ReadPacket() (Packet, error) {
	n, err := io.ReadFull(d.dec, d.buf)
	n -= n % mp3BytesPerFrame
	if n == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != io.EOF {
			err = fmt.Errorf("failed to read mp3: %w", err)
		}
		return Packet{}, err
	}

	pkt := Packet{
		StreamIndex: 0,
		PTS:         d.position,
		Data:        append([]byte(nil), d.buf[:n]...),
	}
	d.position += int64(n / mp3BytesPerFrame)
	return pkt, nil
}

// Seek moves to frame ts
func (d *MP3) Seek(ts int64) error {
	if ts < 0 {
		ts = 0
	}
	if _, err := d.dec.Seek(ts*mp3BytesPerFrame, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek mp3: %w", err)
	}
	d.position = ts
	return nil
}

// Close closes the underlying source
func (d *MP3) Close() error {
	return closeSource(d.src)
}
