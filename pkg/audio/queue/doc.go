// ABOUTME: Bounded single-producer single-consumer playback queue
// ABOUTME: Carries interleaved float32 samples from the decoder to the audio callback
// Package queue provides the playback queue between the decode loop and the renderer.
//
// Exactly one goroutine may write (Enqueue*, Flush, SetEndOfStream) and exactly
// one may read (Dequeue). Transport calls (Play, Pause) may come from anywhere.
// The queue uses atomics only, so Dequeue is safe to call from a real-time
// device callback.
//
// Example:
//
//	q, err := queue.New(audio.LayoutStereo, 4096)
//	q.Play()
//	n, err := q.Enqueue(samples, audio.LayoutStereo) // producer
//	got := q.Dequeue(out)                            // consumer
package queue
