// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 16-bit, 24-bit and float PCM packets to float32 samples
package decode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

// defaultPCMFrames is the packet bound used when the demuxer does not report one
const defaultPCMFrames = 4096

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	format    audio.Format
	bytesPer  int
	maxFrames int
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (Decoder, error) {
	var bytesPer int
	switch format.Codec {
	case audio.CodecPCM:
		if format.BitDepth != 16 && format.BitDepth != 24 {
			return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
		}
		bytesPer = format.BitDepth / 8
	case audio.CodecPCMFloat:
		bytesPer = 4
	default:
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.Channels < 1 {
		return nil, fmt.Errorf("invalid channel count %d: %w", format.Channels, audio.ErrInvalidChannelCount)
	}

	maxFrames := format.MaxFramesPerPacket
	if maxFrames <= 0 {
		maxFrames = defaultPCMFrames
	}

	return &PCMDecoder{
		format:    format,
		bytesPer:  bytesPer,
		maxFrames: maxFrames,
	}, nil
}

// Decode converts PCM bytes to float32 samples
func (d *PCMDecoder) Decode(packet []byte, out []float32) (int, error) {
	numSamples := len(packet) / d.bytesPer
	numSamples -= numSamples % d.format.Channels
	if numSamples > len(out) {
		return 0, fmt.Errorf("pcm packet has %d samples, buffer holds %d: %w", numSamples, len(out), audio.ErrInvalidBufferSize)
	}

	switch {
	case d.format.Codec == audio.CodecPCMFloat:
		for i := 0; i < numSamples; i++ {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(packet[i*4:]))
		}
	case d.bytesPer == 3:
		// 24-bit PCM: 3 bytes per sample
		for i := 0; i < numSamples; i++ {
			b := [3]byte{packet[i*3], packet[i*3+1], packet[i*3+2]}
			out[i] = audio.Int24ToFloat(audio.SampleFrom24Bit(b))
		}
	default:
		for i := 0; i < numSamples; i++ {
			out[i] = audio.Int16ToFloat(int16(binary.LittleEndian.Uint16(packet[i*2:])))
		}
	}
	return numSamples, nil
}

// Flush is a no-op: PCM carries no state between packets
func (d *PCMDecoder) Flush(resetToZero bool) {}

// SampleRate returns the stream sample rate
func (d *PCMDecoder) SampleRate() int {
	return d.format.SampleRate
}

// Channels returns the stream channel count
func (d *PCMDecoder) Channels() int {
	return d.format.Channels
}

// MaxBufferSizePerChannel returns the largest packet in frames
func (d *PCMDecoder) MaxBufferSizePerChannel() int {
	return d.maxFrames
}

// Name identifies the decoder
func (d *PCMDecoder) Name() string {
	if d.format.Codec == audio.CodecPCMFloat {
		return "pcm_f32le"
	}
	return fmt.Sprintf("pcm_s%dle", d.format.BitDepth)
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
