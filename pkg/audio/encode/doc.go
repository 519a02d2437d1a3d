// ABOUTME: Audio encoder package for converting float samples to coded bytes
// ABOUTME: Provides Encoder interface and implementations for PCM, Opus
// Package encode provides audio encoders for various codecs.
//
// Supports: PCM (16-bit, 24-bit and float), Opus
//
// All encoders accept interleaved float32 samples in [-1, 1] and write
// into a caller supplied buffer, so they can run inside device callbacks.
//
// Example:
//
//	encoder, err := encode.NewPCM(encode.PCMFormat(48000, 2, 24))
//	n, err := encoder.Encode(samples, out)
package encode
