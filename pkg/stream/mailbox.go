// ABOUTME: Single-slot seek mailbox shared between any goroutine and the decode loop
// ABOUTME: The latest stored request wins; the decode loop takes it atomically
package stream

import "sync/atomic"

type seekRequest struct {
	gen uint64
	ms  float64
}

// seekMailbox holds at most one pending seek
type seekMailbox struct {
	slot atomic.Pointer[seekRequest]
	gen  atomic.Uint64
}

// post replaces any pending request and returns its generation
func (m *seekMailbox) post(ms float64) uint64 {
	req := &seekRequest{gen: m.gen.Add(1), ms: ms}
	m.slot.Store(req)
	return req.gen
}

// take removes and returns the pending request, nil if none
func (m *seekMailbox) take() *seekRequest {
	return m.slot.Swap(nil)
}

// pending reports whether a request is waiting
func (m *seekMailbox) pending() bool {
	return m.slot.Load() != nil
}

// clear drops any pending request
func (m *seekMailbox) clear() {
	m.slot.Store(nil)
}
