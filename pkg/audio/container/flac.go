// ABOUTME: FLAC demuxer
// ABOUTME: Decodes FLAC frames with mewkiz/flac and emits interleaved PCM packets
package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

// FLAC exposes each FLAC frame as one PCM packet.
// 16-bit streams stay 16-bit; deeper streams are carried as 24-bit.
type FLAC struct {
	src      io.ReadSeeker
	stream   *flac.Stream
	info     StreamInfo
	srcBits  int
	outBits  int
	position int64
}

// NewFLAC parses the FLAC metadata blocks of src
func NewFLAC(src io.ReadSeeker) (*FLAC, error) {
	stream, err := flac.NewSeek(src)
	if err != nil {
		return nil, fmt.Errorf("failed to decode flac: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	srcBits := int(info.BitsPerSample)
	outBits := 24
	if srcBits <= 16 {
		outBits = 16
	}

	duration := int64(-1)
	if info.NSamples > 0 {
		duration = int64(info.NSamples)
	}

	return &FLAC{
		src:    src,
		stream: stream,
		info: StreamInfo{
			Index: 0,
			Type:  MediaAudio,
			Format: audio.Format{
				Codec:              audio.CodecPCM,
				SampleRate:         int(info.SampleRate),
				Channels:           channels,
				BitDepth:           outBits,
				MaxFramesPerPacket: int(info.BlockSizeMax),
			},
			TimeBase: Rational{Num: 1, Den: int64(info.SampleRate)},
			Duration: duration,
		},
		srcBits: srcBits,
		outBits: outBits,
	}, nil
}

func openFLAC(src io.ReadSeeker) (Demuxer, error) {
	return NewFLAC(src)
}

// Streams returns the decoded PCM stream
func (d *FLAC) Streams() []StreamInfo {
	return []StreamInfo{d.info}
}

// ReadPacket decodes the next FLAC frame
func (d *FLAC) ReadPacket() (Packet, error) {
	frame, err := d.stream.ParseNext()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Packet{}, io.EOF
		}
		return Packet{}, fmt.Errorf("failed to parse flac frame: %w", err)
	}

	channels := d.info.Format.Channels
	blockSize := int(frame.BlockSize)
	bytesPer := d.outBits / 8
	data := make([]byte, blockSize*channels*bytesPer)

	pos := 0
	for i := 0; i < blockSize; i++ {
		for ch := 0; ch < channels; ch++ {
			sample := d.scale(frame.Subframes[ch].Samples[i])
			if bytesPer == 2 {
				binary.LittleEndian.PutUint16(data[pos:], uint16(int16(sample)))
			} else {
				b := audio.SampleTo24Bit(sample)
				copy(data[pos:], b[:])
			}
			pos += bytesPer
		}
	}

	pkt := Packet{
		StreamIndex: 0,
		PTS:         d.position,
		Data:        data,
	}
	d.position += int64(blockSize)
	return pkt, nil
}

// scale moves a sample from the stream bit depth to the packet bit depth
func (d *FLAC) scale(sample int32) int32 {
	shift := d.outBits - d.srcBits
	if shift >= 0 {
		return sample << shift
	}
	return sample >> -shift
}

// Seek moves to the frame containing sample ts
func (d *FLAC) Seek(ts int64) error {
	if ts < 0 {
		ts = 0
	}
	pos, err := d.stream.Seek(uint64(ts))
	if err != nil {
		return fmt.Errorf("failed to seek flac: %w", err)
	}
	d.position = int64(pos)
	return nil
}

// Close closes the underlying source
func (d *FLAC) Close() error {
	d.stream.Close()
	return closeSource(d.src)
}
