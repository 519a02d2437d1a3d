// ABOUTME: Audio decoder package for packet based decoding
// ABOUTME: Provides the Decoder contract and Opus and PCM implementations
// Package decode turns demuxed packets into interleaved float32 PCM.
//
// Supports: Opus (via libopus), integer PCM (16 and 24 bit) and float PCM.
//
// A Decoder decodes exactly one packet per call into a caller-owned buffer.
// MaxBufferSizePerChannel bounds how many frames a single call can produce,
// which is what the decode loop uses as its backpressure unit.
//
// Example:
//
//	decoder, err := decode.New(format)
//	out := make([]float32, decoder.MaxBufferSizePerChannel()*decoder.Channels())
//	n, err := decoder.Decode(packet, out)
package decode
