// ABOUTME: Lock-free ring buffer with transport state and end-of-stream flag
// ABOUTME: Producer enqueues decoded PCM, consumer dequeues whole buffers
package queue

import (
	"fmt"
	"sync/atomic"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

// DefaultFramesPerChannel is the default queue depth per channel
const DefaultFramesPerChannel = 4096

// Queue is a bounded SPSC ring of interleaved float32 samples
type Queue struct {
	layout   audio.ChannelLayout
	channels int
	buf      []float32
	capacity uint64

	// Monotonic sample positions; used = tail - head
	head atomic.Uint64
	tail atomic.Uint64

	// flushBase is the head position of the last flush; head - flushBase was consumed since
	flushBase atomic.Uint64

	eos   atomic.Bool
	state atomic.Int32
}

// New creates a queue holding framesPerChannel frames of the given layout
func New(layout audio.ChannelLayout, framesPerChannel int) (*Queue, error) {
	channels := layout.Channels()
	if channels == 0 {
		return nil, fmt.Errorf("queue layout %s: %w", layout, audio.ErrInvalidChannelMap)
	}
	if framesPerChannel <= 0 {
		return nil, fmt.Errorf("queue size %d: %w", framesPerChannel, audio.ErrInvalidBufferSize)
	}

	capacity := framesPerChannel * channels
	q := &Queue{
		layout:   layout,
		channels: channels,
		buf:      make([]float32, capacity),
		capacity: uint64(capacity),
	}
	q.state.Store(int32(audio.PlayStateStopped))
	return q, nil
}

// Layout returns the layout the queue was created with
func (q *Queue) Layout() audio.ChannelLayout {
	return q.layout
}

// Channels returns the number of interleaved channels
func (q *Queue) Channels() int {
	return q.channels
}

// Capacity returns the total capacity in samples
func (q *Queue) Capacity() int {
	return int(q.capacity)
}

// Size returns the number of queued samples, 0 if layout does not match
func (q *Queue) Size(layout audio.ChannelLayout) int {
	if layout != q.layout {
		return 0
	}
	return int(q.tail.Load() - q.head.Load())
}

// FreeSpace returns how many samples can be enqueued, 0 if layout does not match
func (q *Queue) FreeSpace(layout audio.ChannelLayout) int {
	if layout != q.layout {
		return 0
	}
	used := q.tail.Load() - q.head.Load()
	return int(q.capacity - used)
}

// writable returns the whole-frame sample count that fits, producer side
func (q *Queue) writable(n int) int {
	free := int(q.capacity - (q.tail.Load() - q.head.Load()))
	if n > free {
		n = free
	}
	return n - n%q.channels
}

// Enqueue copies samples into the queue and returns how many were accepted.
// A short write returns audio.ErrQueueFull with the accepted count.
func (q *Queue) Enqueue(samples []float32, layout audio.ChannelLayout) (int, error) {
	if layout != q.layout {
		return 0, audio.ErrInvalidChannelMap
	}

	n := q.writable(len(samples))
	tail := q.tail.Load()
	for i := 0; i < n; i++ {
		q.buf[(tail+uint64(i))%q.capacity] = samples[i]
	}
	q.tail.Store(tail + uint64(n))

	if n < len(samples) {
		return n, audio.ErrQueueFull
	}
	return n, nil
}

// EnqueueInt16 converts 16-bit samples while copying them into the queue
func (q *Queue) EnqueueInt16(samples []int16, layout audio.ChannelLayout) (int, error) {
	if layout != q.layout {
		return 0, audio.ErrInvalidChannelMap
	}

	n := q.writable(len(samples))
	tail := q.tail.Load()
	for i := 0; i < n; i++ {
		q.buf[(tail+uint64(i))%q.capacity] = audio.Int16ToFloat(samples[i])
	}
	q.tail.Store(tail + uint64(n))

	if n < len(samples) {
		return n, audio.ErrQueueFull
	}
	return n, nil
}

// EnqueueSilence queues n zero samples
func (q *Queue) EnqueueSilence(n int, layout audio.ChannelLayout) (int, error) {
	if layout != q.layout {
		return 0, audio.ErrInvalidChannelMap
	}

	accepted := q.writable(n)
	tail := q.tail.Load()
	for i := 0; i < accepted; i++ {
		q.buf[(tail+uint64(i))%q.capacity] = 0
	}
	q.tail.Store(tail + uint64(accepted))

	if accepted < n {
		return accepted, audio.ErrQueueFull
	}
	return accepted, nil
}

// Dequeue fills out with queued samples and returns how many were real audio.
// The remainder of out is zeroed. Nothing is consumed while the transport is not
// playing, or while less than a full buffer is queued unless end of stream is set.
func (q *Queue) Dequeue(out []float32) int {
	want := len(out) - len(out)%q.channels

	if audio.PlayState(q.state.Load()) != audio.PlayStatePlaying {
		clear(out)
		return 0
	}

	head := q.head.Load()
	available := int(q.tail.Load() - head)

	n := want
	if available < want {
		if !q.eos.Load() {
			clear(out)
			return 0
		}
		n = available
	}

	for i := 0; i < n; i++ {
		out[i] = q.buf[(head+uint64(i))%q.capacity]
	}

	// A flush moved head while we were copying; what we read is stale
	if !q.head.CompareAndSwap(head, head+uint64(n)) {
		clear(out)
		return 0
	}

	clear(out[n:])
	return n
}

// Flush discards queued samples, clears end of stream and resets the dequeue counter.
// It must be called from the producer side.
func (q *Queue) Flush() {
	tail := q.tail.Load()
	q.flushBase.Store(tail)
	for {
		head := q.head.Load()
		if q.head.CompareAndSwap(head, tail) {
			break
		}
	}
	q.eos.Store(false)
}

// SetEndOfStream marks that no more samples will be enqueued
func (q *Queue) SetEndOfStream(eos bool) {
	q.eos.Store(eos)
}

// EndOfStream reports the end of stream flag
func (q *Queue) EndOfStream() bool {
	return q.eos.Load()
}

// Drained reports whether end of stream is set and every sample was consumed
func (q *Queue) Drained() bool {
	return q.eos.Load() && q.tail.Load() == q.head.Load()
}

// DequeuedPerChannel returns the frames consumed since the last flush
func (q *Queue) DequeuedPerChannel() int64 {
	base := q.flushBase.Load()
	head := q.head.Load()
	if head < base {
		// Flush is moving head
		return 0
	}
	return int64(head-base) / int64(q.channels)
}

// Play starts handing samples to the consumer
func (q *Queue) Play() error {
	q.state.Store(int32(audio.PlayStatePlaying))
	return nil
}

// Pause stops consumption; queued samples are kept
func (q *Queue) Pause() error {
	q.state.Store(int32(audio.PlayStatePaused))
	return nil
}

// Stop stops consumption
func (q *Queue) Stop() error {
	q.state.Store(int32(audio.PlayStateStopped))
	return nil
}

// PlayState returns the transport state
func (q *Queue) PlayState() audio.PlayState {
	return audio.PlayState(q.state.Load())
}
