// ABOUTME: Render sink that owns the playback queue and listener state
// ABOUTME: Feeds a device output or a caller-pulled stereo preview
// Package render is the sink side of the decode pipeline.
//
// An Engine owns the playback queue the decoder fills, the listener
// rotation and focus settings, and optionally an audio device that pulls
// from it. Callers use the narrow capability interfaces (Transport,
// SpatialSource, QueueSource) rather than the Engine itself.
//
// The device or the caller pulls a stereo preview with Mix:
//
//	engine, err := render.New(render.Config{Layout: audio.LayoutStereo, SampleRate: 48000})
//	engine.Queue().Play()
//	n, err := engine.Mix(out)
package render
