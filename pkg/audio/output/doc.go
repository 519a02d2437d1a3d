// ABOUTME: Audio output package for device playback
// ABOUTME: Provides the pull-based Output interface with malgo and oto backends
// Package output drives an audio device from a pull Source.
//
// The device asks for samples from its own thread: malgo through a data
// callback, oto through a player reading an io.Reader. Both call
// Source.Read, which must never block and must zero whatever it cannot fill.
//
// Example:
//
//	out, err := output.New(output.KindMalgo)
//	err = out.Open(48000, 2, 16, sink)
//	err = out.Start()
package output
