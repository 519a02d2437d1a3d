// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts float32 audio between different sample rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates and keeps
// the tail of each input block so consecutive calls join without clicks.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	n := r.Resample(input, output[:r.OutputSamplesNeeded(len(input))])
package resample
