// ABOUTME: Controller lifecycle states and decode step results
// ABOUTME: Both are small enums with readable names for logs and the UI
package stream

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned when an operation needs an open stream
var ErrNotReady = errors.New("stream not ready")

// State is the controller lifecycle state
type State int32

const (
	StateClosed State = iota
	StateOpening
	StateReady
	StateDecoding
	StateSeeking
	StateEndOfStream
	StateError
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateReady:
		return "ready"
	case StateDecoding:
		return "decoding"
	case StateSeeking:
		return "seeking"
	case StateEndOfStream:
		return "end of stream"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Status is the result of one Decode step
type Status int

const (
	StatusOK Status = iota
	StatusEndOfStream
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEndOfStream:
		return "end of stream"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}
