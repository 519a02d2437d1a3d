// ABOUTME: Streaming decode controller
// ABOUTME: Drives demux, decode and enqueue against a bounded playback queue
// Package stream turns a media file into queued audio for a render sink.
//
// A Controller is driven from outside: some goroutine calls Decode
// repeatedly, and each call does a bounded amount of work until the queue
// has no room for another decode unit. Seek may be called from any
// goroutine; the request is parked in a single-slot mailbox and carried out
// at the top of the next Decode call. A newer request replaces an older one.
//
// Example:
//
//	c := stream.New(stream.Options{})
//	err := c.Open("mix.opus", true, audio.LayoutTBE8_2)
//	c.Play()
//	for {
//		status, err := c.Decode()
//		if status != stream.StatusOK {
//			break
//		}
//		time.Sleep(10 * time.Millisecond)
//	}
package stream
