// ABOUTME: PCM audio encoder
// ABOUTME: Encodes float32 samples to 16-bit, 24-bit or float little-endian bytes
package encode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	float    bool
	bytesPer int
}

// PCMFormat describes raw output at bitDepth; 32 selects float samples
func PCMFormat(sampleRate, channels, bitDepth int) audio.Format {
	codec := audio.CodecPCM
	if bitDepth == 32 {
		codec = audio.CodecPCMFloat
	}
	return audio.Format{
		Codec:      codec,
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
	}
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (*PCMEncoder, error) {
	switch format.Codec {
	case audio.CodecPCM:
		if format.BitDepth != 16 && format.BitDepth != 24 {
			return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
		}
		return &PCMEncoder{bytesPer: format.BitDepth / 8}, nil
	case audio.CodecPCMFloat:
		return &PCMEncoder{float: true, bytesPer: 4}, nil
	default:
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}
}

// BytesPerSample returns the encoded size of one sample
func (e *PCMEncoder) BytesPerSample() int {
	return e.bytesPer
}

// Encode converts float32 samples to PCM bytes
func (e *PCMEncoder) Encode(samples []float32, out []byte) (int, error) {
	size := len(samples) * e.bytesPer
	if len(out) < size {
		return 0, fmt.Errorf("pcm needs %d bytes, buffer holds %d: %w", size, len(out), audio.ErrInvalidBufferSize)
	}

	switch {
	case e.float:
		for i, sample := range samples {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(sample))
		}
	case e.bytesPer == 3:
		// 24-bit PCM: 3 bytes per sample
		for i, sample := range samples {
			b := audio.SampleTo24Bit(audio.FloatToInt24(sample))
			copy(out[i*3:], b[:])
		}
	default:
		for i, sample := range samples {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(audio.FloatToInt16(sample)))
		}
	}
	return size, nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
