// ABOUTME: Opus audio decoder
// ABOUTME: Decodes mono, stereo and multistream Opus packets to float32 and trims the pre-skip
package decode

import (
	"fmt"
	"log"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/multistream"
	"gopkg.in/hraban/opus.v2"
)

// opusMaxFrames is the longest Opus packet (120 ms) at 48 kHz
const opusMaxFrames = 5760

// OpusDecoder decodes Opus audio. Streams with more than two channels are
// split into their elementary streams, each with its own libopus decoder.
type OpusDecoder struct {
	decoders []*opus.Decoder
	head     multistream.Head
	format   audio.Format
	skip     int // frames still to drop after a reset to zero
	scratch  [][]float32
}

// NewOpus creates a new Opus decoder. The channel mapping comes from the
// OpusHead in format.CodecHeader; without one the stream must be mono or stereo.
func NewOpus(format audio.Format) (Decoder, error) {
	if format.Codec != audio.CodecOpus {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	var head multistream.Head
	var err error
	if len(format.CodecHeader) > 0 {
		head, err = multistream.ParseHead(format.CodecHeader)
		if err != nil {
			return nil, fmt.Errorf("bad opus header: %w", err)
		}
		if head.Channels != format.Channels {
			return nil, fmt.Errorf("opus header has %d channels, stream %d: %w",
				head.Channels, format.Channels, audio.ErrInvalidChannelCount)
		}
	} else {
		head, err = multistream.NewHead(multistream.FamilyRTP, format.Channels, 0, format.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("opus stream without header: %w", err)
		}
	}

	d := &OpusDecoder{
		head:    head,
		format:  format,
		skip:    head.PreSkip,
		scratch: make([][]float32, head.Streams),
	}
	if err := d.reset(); err != nil {
		return nil, err
	}
	for i := range d.scratch {
		d.scratch[i] = make([]float32, opusMaxFrames*head.StreamChannels(i))
	}
	return d, nil
}

// reset creates a fresh libopus decoder per elementary stream
func (d *OpusDecoder) reset() error {
	decoders := make([]*opus.Decoder, d.head.Streams)
	for i := range decoders {
		dec, err := opus.NewDecoder(d.format.SampleRate, d.head.StreamChannels(i))
		if err != nil {
			return fmt.Errorf("failed to create opus decoder for stream %d: %w", i, err)
		}
		decoders[i] = dec
	}
	d.decoders = decoders
	return nil
}

// Decode converts one Opus packet to float32 samples
func (d *OpusDecoder) Decode(packet []byte, out []float32) (int, error) {
	packets, err := multistream.Split(packet, d.head.Streams)
	if err != nil {
		return 0, fmt.Errorf("bad multistream packet: %w", err)
	}

	frames := -1
	for i, p := range packets {
		n, err := d.decoders[i].DecodeFloat32(p, d.scratch[i])
		if err != nil {
			return 0, fmt.Errorf("opus decode of stream %d failed: %w", i, err)
		}
		if frames >= 0 && n != frames {
			return 0, fmt.Errorf("stream %d decoded %d frames, stream 0 %d: %w", i, n, frames, audio.ErrDecoderFail)
		}
		frames = n
	}

	start := 0
	if d.skip > 0 {
		start = min(d.skip, frames)
		d.skip -= start
	}

	channels := d.format.Channels
	n := (frames - start) * channels
	if n > len(out) {
		return 0, fmt.Errorf("opus decode needs %d samples, buffer holds %d: %w", n, len(out), audio.ErrInvalidBufferSize)
	}

	for c := 0; c < channels; c++ {
		stream, within, ok := d.head.Source(c)
		if !ok {
			for f := 0; f < frames-start; f++ {
				out[f*channels+c] = 0
			}
			continue
		}
		src, stride := d.scratch[stream], d.head.StreamChannels(stream)
		for f := 0; f < frames-start; f++ {
			out[f*channels+c] = src[(start+f)*stride+within]
		}
	}
	return n, nil
}

// Flush resets the decoder state. libopus has no reset call exposed, so the decoder is recreated.
func (d *OpusDecoder) Flush(resetToZero bool) {
	if err := d.reset(); err != nil {
		log.Printf("Opus decoder reset failed, keeping old state: %v", err)
	}
	if resetToZero {
		d.skip = d.head.PreSkip
	} else {
		d.skip = 0
	}
}

// SampleRate returns the output sample rate
func (d *OpusDecoder) SampleRate() int {
	return d.format.SampleRate
}

// Channels returns the output channel count
func (d *OpusDecoder) Channels() int {
	return d.format.Channels
}

// MaxBufferSizePerChannel returns the frames of the longest Opus packet
func (d *OpusDecoder) MaxBufferSizePerChannel() int {
	return opusMaxFrames * d.format.SampleRate / 48000
}

// Name identifies the decoder
func (d *OpusDecoder) Name() string {
	return "opus"
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return nil
}
