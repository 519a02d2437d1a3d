// ABOUTME: Container demuxers feeding the decode pipeline
// ABOUTME: Ogg Opus, Ogg Vorbis, WAV, AIFF, MP3 and FLAC behind one Demuxer contract
// Package container reads media files as a sequence of timestamped packets.
//
// Every Demuxer reports its streams with a rational time base, returns
// packets in presentation order, and can reposition itself at or before a
// timestamp expressed in that time base. ReadPacket returns io.EOF once the
// stream is exhausted.
//
// Opus-in-Ogg packets are handed to the Opus decoder untouched. The other
// formats are decoded by their libraries here and leave as PCM packets, so
// the decode stage only has to convert sample formats.
//
// Example:
//
//	demuxer, err := container.Open("ambisonic.wav")
//	info, err := container.FirstAudioStream(demuxer.Streams())
//	pkt, err := demuxer.ReadPacket()
package container
