// ABOUTME: AIFF demuxer
// ABOUTME: Decodes AIFF with go-audio/aiff and emits little-endian PCM packets
package container

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

// aiffPacketFrames is the frame count of one AIFF packet
const aiffPacketFrames = 1024

// aiffReader is the part of aiff.Decoder the demuxer reads through
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// AIFF exposes big-endian AIFF samples as little-endian PCM packets
type AIFF struct {
	src      io.ReadSeeker
	dec      aiffReader
	reopen   func() (aiffReader, error)
	info     StreamInfo
	bytesPer int
	position int64
	ints     *goaudio.IntBuffer
}

// NewAIFF reads the AIFF header from src
func NewAIFF(src io.ReadSeeker) (*AIFF, error) {
	dec, err := openAIFFDecoder(src)
	if err != nil {
		return nil, err
	}
	reopen := func() (aiffReader, error) {
		dec, err := openAIFFDecoder(src)
		if err != nil {
			return nil, err
		}
		return dec, nil
	}

	d, err := newAIFF(dec, int(dec.BitDepth), reopen)
	if err != nil {
		return nil, err
	}
	d.src = src
	return d, nil
}

// openAIFFDecoder rewinds src and validates the header
func openAIFFDecoder(src io.ReadSeeker) (*aiff.Decoder, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind aiff: %w", err)
	}
	dec := aiff.NewDecoder(src)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid aiff file: %w", audio.ErrInvalidHeader)
	}
	dec.ReadInfo()
	if dec.BitDepth != 16 && dec.BitDepth != 24 {
		return nil, fmt.Errorf("aiff with %d-bit samples: %w", dec.BitDepth, audio.ErrNotSupported)
	}
	return dec, nil
}

// newAIFF builds the demuxer around an already validated reader
func newAIFF(dec aiffReader, bitDepth int, reopen func() (aiffReader, error)) (*AIFF, error) {
	format := dec.Format()
	if format == nil || format.NumChannels < 1 {
		return nil, fmt.Errorf("aiff has no channels: %w", audio.ErrInvalidChannelCount)
	}

	return &AIFF{
		dec:    dec,
		reopen: reopen,
		info: StreamInfo{
			Index: 0,
			Type:  MediaAudio,
			Format: audio.Format{
				Codec:              audio.CodecPCM,
				SampleRate:         format.SampleRate,
				Channels:           format.NumChannels,
				BitDepth:           bitDepth,
				MaxFramesPerPacket: aiffPacketFrames,
			},
			TimeBase: Rational{Num: 1, Den: int64(format.SampleRate)},
			Duration: -1,
		},
		bytesPer: bitDepth / 8,
		ints: &goaudio.IntBuffer{
			Data:   make([]int, aiffPacketFrames*format.NumChannels),
			Format: format,
		},
	}, nil
}

func openAIFF(src io.ReadSeeker) (Demuxer, error) {
	return NewAIFF(src)
}

// Streams returns the single PCM stream
func (d *AIFF) Streams() []StreamInfo {
	return []StreamInfo{d.info}
}

// read decodes the next block of whole frames into d.ints
func (d *AIFF) read() (int, error) {
	channels := d.info.Format.Channels
	d.ints.Data = d.ints.Data[:cap(d.ints.Data)]

	n, err := d.dec.PCMBuffer(d.ints)
	n -= n % channels
	if n == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != io.EOF {
			err = fmt.Errorf("failed to read aiff: %w", err)
		}
		return 0, err
	}
	return n, nil
}

// ReadPacket returns up to aiffPacketFrames frames of little-endian PCM
func (d *AIFF) ReadPacket() (Packet, error) {
	n, err := d.read()
	if err != nil {
		return Packet{}, err
	}

	data := make([]byte, n*d.bytesPer)
	for i, v := range d.ints.Data[:n] {
		if d.bytesPer == 3 {
			b := audio.SampleTo24Bit(int32(v))
			copy(data[i*3:], b[:])
		} else {
			binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(v)))
		}
	}

	pkt := Packet{
		StreamIndex: 0,
		PTS:         d.position,
		Data:        data,
	}
	d.position += int64(n / d.info.Format.Channels)
	return pkt, nil
}

// Seek restarts decoding and skips forward to frame ts.
// go-audio/aiff cannot seek, so the cost grows with ts.
func (d *AIFF) Seek(ts int64) error {
	if ts < 0 {
		ts = 0
	}

	dec, err := d.reopen()
	if err != nil {
		return err
	}
	d.dec = dec
	d.position = 0

	channels := int64(d.info.Format.Channels)
	for d.position < ts {
		want := (ts - d.position) * channels
		if want < int64(cap(d.ints.Data)) {
			d.ints.Data = d.ints.Data[:want]
		} else {
			d.ints.Data = d.ints.Data[:cap(d.ints.Data)]
		}
		n, err := d.dec.PCMBuffer(d.ints)
		if n == 0 || err != nil {
			// Past the end: the next ReadPacket reports EOF
			break
		}
		d.position += int64(n) / channels
	}
	return nil
}

// Close closes the underlying source
func (d *AIFF) Close() error {
	if d.src == nil {
		return nil
	}
	return closeSource(d.src)
}
