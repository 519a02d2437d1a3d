// ABOUTME: Package multistream handles Opus streams with more than two channels
// ABOUTME: Parses OpusHead channel mappings and splits packets into elementary streams

// Package multistream implements the parts of Ogg Opus that libopus bindings
// leave to the caller for multichannel audio: the OpusHead channel mapping
// table (families 0, 1, 2 and 255) and the self-delimiting packet framing
// that packs one packet per elementary stream into a single Ogg packet.
//
// Ambisonic and 8.2 spatial mixes are carried this way, with each output
// channel mapped to one channel of a coupled (stereo) or uncoupled (mono)
// stream.
package multistream
