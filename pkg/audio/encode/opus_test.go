// ABOUTME: Unit tests for Opus encoder
// ABOUTME: Tests Opus encoding and OpusHead layout
package encode

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

func TestNewOpus(t *testing.T) {
	tests := []struct {
		name    string
		format  audio.Format
		wantErr bool
	}{
		{"valid Opus 48kHz stereo", audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 2}, false},
		{"valid Opus 48kHz mono", audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 1}, false},
		{"invalid codec", audio.Format{Codec: audio.CodecPCM, SampleRate: 48000, Channels: 2}, true},
		{"too many channels", audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 4}, true},
		{"unsupported rate", audio.Format{Codec: audio.CodecOpus, SampleRate: 44100, Channels: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewOpus(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewOpus() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewOpus() unexpected error = %v", err)
			}
			if encoder.FrameSize() != 960 {
				t.Errorf("FrameSize() = %d, want 960", encoder.FrameSize())
			}
			encoder.Close()
		})
	}
}

func TestOpusEncoder_Encode(t *testing.T) {
	encoder, err := NewOpus(audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 2})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	samples := make([]float32, encoder.FrameSize()*2)
	for i := 0; i < encoder.FrameSize(); i++ {
		v := float32(0.3 * math.Sin(2*math.Pi*440*float64(i)/48000))
		samples[i*2] = v
		samples[i*2+1] = v
	}

	out := make([]byte, MaxOpusPacket)
	n, err := encoder.Encode(samples, out)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if n == 0 || n > MaxOpusPacket {
		t.Errorf("Encode() returned %d bytes", n)
	}
}

func TestOpusEncoder_EncodeSilence(t *testing.T) {
	encoder, err := NewOpus(audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 1})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}

	n, err := encoder.Encode(make([]float32, encoder.FrameSize()), make([]byte, MaxOpusPacket))
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if n == 0 {
		t.Errorf("Encode() returned empty output for silence")
	}
}

func TestOpusEncoder_WrongFrameSize(t *testing.T) {
	encoder, err := NewOpus(audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 2})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}

	_, err = encoder.Encode(make([]float32, 100), make([]byte, MaxOpusPacket))
	if !errors.Is(err, audio.ErrInvalidBufferSize) {
		t.Errorf("expected ErrInvalidBufferSize, got %v", err)
	}
}

func TestOpusHead(t *testing.T) {
	head := OpusHead(2, 312, 44100)

	if len(head) != 19 {
		t.Fatalf("expected 19 bytes, got %d", len(head))
	}
	if string(head[:8]) != "OpusHead" {
		t.Errorf("bad magic %q", head[:8])
	}
	if head[8] != 1 || head[9] != 2 {
		t.Errorf("version %d channels %d", head[8], head[9])
	}
	if got := binary.LittleEndian.Uint16(head[10:]); got != 312 {
		t.Errorf("pre-skip = %d, want 312", got)
	}
	if got := binary.LittleEndian.Uint32(head[12:]); got != 44100 {
		t.Errorf("input rate = %d, want 44100", got)
	}
	if head[18] != 0 {
		t.Errorf("mapping family = %d, want 0", head[18])
	}
}
