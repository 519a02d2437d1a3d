// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, ChannelLayout, engine error codes and sample conversions
// Package audio provides the audio types shared by the decode pipeline.
//
// This package defines core types used throughout the module:
//   - Format: describes a coded audio stream (codec, sample rate, channels, bit depth)
//   - ChannelLayout: the number and ordering of channels in a spatial stream
//   - EngineError: the error enumeration shared by the queue, renderer and controller
//   - PlayState: transport state of a playback queue
//
// Samples travel through the pipeline as interleaved float32 in [-1, 1].
// Conversion helpers cover 16-bit and packed 24-bit integer PCM.
//
// Example:
//
//	layout, err := audio.ParseChannelLayout("tbe_8_2")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(layout.Channels()) // 10
package audio
