// ABOUTME: Decoder interface definition
// ABOUTME: Common contract for all packet decoders plus a codec dispatcher
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

// Decoder decodes one packet at a time to interleaved float32 samples
type Decoder interface {
	// Decode decodes packet into out and returns the number of samples written
	Decode(packet []byte, out []float32) (int, error)

	// Flush drops internal state; resetToZero also rewinds to the stream start
	Flush(resetToZero bool)

	SampleRate() int
	Channels() int

	// MaxBufferSizePerChannel is the most frames one Decode call can produce
	MaxBufferSizePerChannel() int

	// Name identifies the decoder in logs
	Name() string

	// Close releases decoder resources
	Close() error
}

// New creates the decoder for format.Codec
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case audio.CodecOpus:
		return NewOpus(format)
	case audio.CodecPCM, audio.CodecPCMFloat:
		return NewPCM(format)
	default:
		return nil, fmt.Errorf("unsupported codec %q: %w", format.Codec, audio.ErrCannotInitDecoder)
	}
}
