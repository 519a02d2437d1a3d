// ABOUTME: Opus audio encoder
// ABOUTME: Encodes 20 ms float32 frames to Opus packets and builds OpusHead
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/multistream"
	"gopkg.in/hraban/opus.v2"
)

// MaxOpusPacket is the largest packet Encode produces
const MaxOpusPacket = 4000

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder   *opus.Encoder
	channels  int
	frameSize int
}

// NewOpus creates a new Opus encoder
func NewOpus(format audio.Format) (*OpusEncoder, error) {
	if format.Codec != audio.CodecOpus {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}
	if format.Channels < 1 || format.Channels > 2 {
		return nil, fmt.Errorf("opus encoder channels %d: %w", format.Channels, audio.ErrInvalidChannelCount)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	return &OpusEncoder{
		encoder:   encoder,
		channels:  format.Channels,
		frameSize: format.SampleRate / 50, // 20ms frame
	}, nil
}

// FrameSize returns the frames per channel each Encode call expects
func (e *OpusEncoder) FrameSize() int {
	return e.frameSize
}

// Encode converts exactly one frame of float32 samples to an Opus packet
func (e *OpusEncoder) Encode(samples []float32, out []byte) (int, error) {
	if len(samples) != e.frameSize*e.channels {
		return 0, fmt.Errorf("opus frame has %d samples, want %d: %w",
			len(samples), e.frameSize*e.channels, audio.ErrInvalidBufferSize)
	}

	n, err := e.encoder.EncodeFloat32(samples, out)
	if err != nil {
		return 0, fmt.Errorf("opus encode error: %w", err)
	}
	return n, nil
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	return nil
}

// OpusHead builds the identification header for a mapping family 0 stream
func OpusHead(channels, preSkip, inputRate int) []byte {
	h := multistream.Head{
		Channels:  channels,
		PreSkip:   preSkip,
		InputRate: inputRate,
		Family:    multistream.FamilyRTP,
	}
	return h.Bytes()
}

// MultistreamOpusEncoder encodes any channel count as one Opus stream per
// coupled pair or mono channel of a channel mapping
type MultistreamOpusEncoder struct {
	head     multistream.Head
	encoders []*OpusEncoder
	frame    int

	// sources holds, per stream channel, the input channel feeding it or -1
	sources [][]int
	inputs  [][]float32
	packets [][]byte
}

// NewMultistreamOpus creates an encoder for the streams and mapping of head
func NewMultistreamOpus(format audio.Format, head multistream.Head) (*MultistreamOpusEncoder, error) {
	if format.Channels != head.Channels {
		return nil, fmt.Errorf("stream has %d channels, header %d: %w", format.Channels, head.Channels, audio.ErrInvalidChannelCount)
	}

	e := &MultistreamOpusEncoder{head: head}
	for i := 0; i < head.Streams; i++ {
		channels := head.StreamChannels(i)
		enc, err := NewOpus(audio.Format{Codec: audio.CodecOpus, SampleRate: format.SampleRate, Channels: channels})
		if err != nil {
			return nil, fmt.Errorf("stream %d: %w", i, err)
		}
		e.encoders = append(e.encoders, enc)
		e.frame = enc.FrameSize()

		sources := make([]int, channels)
		for j := range sources {
			sources[j] = -1
		}
		e.sources = append(e.sources, sources)
		e.inputs = append(e.inputs, make([]float32, enc.FrameSize()*channels))
		e.packets = append(e.packets, make([]byte, MaxOpusPacket))
	}

	for c := 0; c < head.Channels; c++ {
		if stream, within, ok := head.Source(c); ok && e.sources[stream][within] < 0 {
			e.sources[stream][within] = c
		}
	}
	return e, nil
}

// FrameSize returns the frames per channel each Encode call expects
func (e *MultistreamOpusEncoder) FrameSize() int {
	return e.frame
}

// Encode converts exactly one frame of interleaved samples to a multistream packet
func (e *MultistreamOpusEncoder) Encode(samples []float32, out []byte) (int, error) {
	channels := e.head.Channels
	if len(samples) != e.frame*channels {
		return 0, fmt.Errorf("opus frame has %d samples, want %d: %w",
			len(samples), e.frame*channels, audio.ErrInvalidBufferSize)
	}

	packets := make([][]byte, len(e.encoders))
	for i, enc := range e.encoders {
		input, sources := e.inputs[i], e.sources[i]
		for f := 0; f < e.frame; f++ {
			for j, c := range sources {
				if c < 0 {
					input[f*len(sources)+j] = 0
				} else {
					input[f*len(sources)+j] = samples[f*channels+c]
				}
			}
		}

		n, err := enc.Encode(input, e.packets[i])
		if err != nil {
			return 0, fmt.Errorf("stream %d: %w", i, err)
		}
		packets[i] = e.packets[i][:n]
	}

	joined, err := multistream.Join(packets)
	if err != nil {
		return 0, err
	}
	if len(joined) > len(out) {
		return 0, fmt.Errorf("multistream packet of %d bytes, buffer holds %d: %w", len(joined), len(out), audio.ErrInvalidBufferSize)
	}
	return copy(out, joined), nil
}

// Close releases resources
func (e *MultistreamOpusEncoder) Close() error {
	return nil
}
