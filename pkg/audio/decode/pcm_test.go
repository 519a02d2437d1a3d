// ABOUTME: Tests for PCM decoder
// ABOUTME: Tests 16-bit, 24-bit and float PCM decoding into float32
package decode

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
	"github.com/google/go-cmp/cmp"
)

func TestNewPCM(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
	if decoder.MaxBufferSizePerChannel() != defaultPCMFrames {
		t.Errorf("expected default packet bound %d, got %d", defaultPCMFrames, decoder.MaxBufferSizePerChannel())
	}
	if decoder.Name() != "pcm_s16le" {
		t.Errorf("expected name pcm_s16le, got %s", decoder.Name())
	}
}

func TestPCMDecode16Bit(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// 0x4000 = 16384 -> 0.5, 0xC000 = -16384 -> -0.5
	input := []byte{0x00, 0x40, 0x00, 0xC0}
	out := make([]float32, 8)
	n, err := decoder.Decode(input, out)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if n != 2 {
		t.Fatalf("expected 2 samples, got %d", n)
	}
	if diff := cmp.Diff([]float32{0.5, -0.5}, out[:n]); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestPCMDecode24Bit(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 96000,
		Channels:   1,
		BitDepth:   24,
	}

	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// 0x400000 = 4194304 -> 0.5, 0xC00000 -> -0.5
	input := []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0xC0}
	out := make([]float32, 2)
	n, err := decoder.Decode(input, out)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if diff := cmp.Diff([]float32{0.5, -0.5}, out[:n]); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestPCMDecodeFloat(t *testing.T) {
	format := audio.Format{
		Codec:              "pcm_float",
		SampleRate:         44100,
		Channels:           2,
		BitDepth:           32,
		MaxFramesPerPacket: 1024,
	}

	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	if decoder.MaxBufferSizePerChannel() != 1024 {
		t.Errorf("expected packet bound 1024, got %d", decoder.MaxBufferSizePerChannel())
	}

	want := []float32{0.25, -0.75, 1, 0}
	input := make([]byte, 16)
	for i, v := range want {
		binary.LittleEndian.PutUint32(input[i*4:], math.Float32bits(v))
	}

	out := make([]float32, 4)
	n, err := decoder.Decode(input, out)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if diff := cmp.Diff(want, out[:n]); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestPCMDecode_BufferTooSmall(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 1, BitDepth: 16})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	_, err = decoder.Decode(make([]byte, 8), make([]float32, 2))
	if !errors.Is(err, audio.ErrInvalidBufferSize) {
		t.Errorf("expected ErrInvalidBufferSize, got %v", err)
	}
}

func TestNewPCM_InvalidCodec(t *testing.T) {
	format := audio.Format{
		Codec:      "opus",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewPCM(format)
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}

	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}

	expectedError := "invalid codec for PCM decoder: opus"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestNewPCM_UnsupportedBitDepth(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   32,
	}

	decoder, err := NewPCM(format)
	if err == nil {
		t.Fatal("expected error for unsupported bit depth, got nil")
	}

	if decoder != nil {
		t.Fatal("expected decoder to be nil for unsupported bit depth")
	}

	expectedError := "unsupported bit depth: 32 (supported: 16, 24)"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestPCMDecode_EmptyInput(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	n, err := decoder.Decode([]byte{}, make([]float32, 4))
	if err != nil {
		t.Fatalf("decode failed with empty input: %v", err)
	}

	if n != 0 {
		t.Errorf("expected 0 samples from empty input, got %d", n)
	}
}

func TestNewDispatch(t *testing.T) {
	if _, err := New(audio.Format{Codec: "aac", SampleRate: 48000, Channels: 2}); !errors.Is(err, audio.ErrCannotInitDecoder) {
		t.Errorf("expected ErrCannotInitDecoder, got %v", err)
	}

	decoder, err := New(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 24})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	if _, ok := decoder.(*PCMDecoder); !ok {
		t.Errorf("expected *PCMDecoder, got %T", decoder)
	}
}
