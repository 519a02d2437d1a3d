// ABOUTME: WAV demuxer
// ABOUTME: Parses the RIFF header with go-audio/wav and slices the data chunk into PCM packets
package container

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

// wavPacketFrames is the frame count of one WAV packet
const wavPacketFrames = 1024

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// WAV demuxes a RIFF WAVE file into raw PCM packets
type WAV struct {
	src        io.ReadSeeker
	info       StreamInfo
	dataOffset int64
	blockAlign int64
	frames     int64
	position   int64
	buf        []byte
}

// NewWAV reads the WAV header and positions src at the data chunk
func NewWAV(src io.ReadSeeker) (*WAV, error) {
	dec := wav.NewDecoder(src)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("not a valid wav file: %v: %w", err, audio.ErrInvalidHeader)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to find wav data chunk: %w", err)
	}

	offset, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to locate wav data: %w", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if channels < 1 {
		return nil, fmt.Errorf("wav has %d channels: %w", channels, audio.ErrInvalidChannelCount)
	}

	var codec string
	switch {
	case (dec.WavAudioFormat == wavFormatFloat || dec.WavAudioFormat == wavFormatExtensible) && bitDepth == 32:
		codec = audio.CodecPCMFloat
	case (dec.WavAudioFormat == wavFormatPCM || dec.WavAudioFormat == wavFormatExtensible) && (bitDepth == 16 || bitDepth == 24):
		codec = audio.CodecPCM
	default:
		return nil, fmt.Errorf("wav format %d with %d-bit samples: %w", dec.WavAudioFormat, bitDepth, audio.ErrNotSupported)
	}

	blockAlign := int64(channels * bitDepth / 8)
	frames := dec.PCMLen() / blockAlign

	return &WAV{
		src: src,
		info: StreamInfo{
			Index: 0,
			Type:  MediaAudio,
			Format: audio.Format{
				Codec:              codec,
				SampleRate:         int(dec.SampleRate),
				Channels:           channels,
				BitDepth:           bitDepth,
				MaxFramesPerPacket: wavPacketFrames,
			},
			TimeBase: Rational{Num: 1, Den: int64(dec.SampleRate)},
			Duration: frames,
		},
		dataOffset: offset,
		blockAlign: blockAlign,
		frames:     frames,
		buf:        make([]byte, wavPacketFrames*blockAlign),
	}, nil
}

func openWAV(src io.ReadSeeker) (Demuxer, error) {
	return NewWAV(src)
}

// Streams returns the single PCM stream
func (d *WAV) Streams() []StreamInfo {
	return []StreamInfo{d.info}
}

// ReadPacket returns up to wavPacketFrames frames of raw PCM
func (d *WAV) ReadPacket() (Packet, error) {
	remaining := d.frames - d.position
	if remaining <= 0 {
		return Packet{}, io.EOF
	}

	frames := int64(wavPacketFrames)
	if remaining < frames {
		frames = remaining
	}

	n, err := io.ReadFull(d.src, d.buf[:frames*d.blockAlign])
	n -= n % int(d.blockAlign)
	if n == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return Packet{}, err
	}

	pkt := Packet{
		StreamIndex: 0,
		PTS:         d.position,
		Data:        append([]byte(nil), d.buf[:n]...),
	}
	d.position += int64(n) / d.blockAlign
	return pkt, nil
}

// Seek moves to frame ts, clamped to the data chunk
func (d *WAV) Seek(ts int64) error {
	if ts < 0 {
		ts = 0
	}
	if ts > d.frames {
		ts = d.frames
	}
	if _, err := d.src.Seek(d.dataOffset+ts*d.blockAlign, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek wav: %w", err)
	}
	d.position = ts
	return nil
}

// Close closes the underlying source
func (d *WAV) Close() error {
	return closeSource(d.src)
}
