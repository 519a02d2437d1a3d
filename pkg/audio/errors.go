// ABOUTME: Engine error codes shared by the queue, renderer and decode controller
// ABOUTME: Each code is an error value usable with errors.Is
package audio

import (
	"errors"
	"fmt"
)

// EngineError is a numeric status code that also implements error
type EngineError int

const (
	OK      EngineError = 0
	Pending EngineError = 1

	ErrFail                    EngineError = -1
	ErrInvalidSampleRate       EngineError = -3
	ErrInvalidBufferSize       EngineError = -4
	ErrCannotCreateAudioDevice EngineError = -6
	ErrOpeningFile             EngineError = -9
	ErrCannotInitDecoder       EngineError = -10
	ErrInvalidChannelCount     EngineError = -11
	ErrInvalidHeader           EngineError = -13
	ErrNoAudioDevice           EngineError = -18
	ErrNotSupported            EngineError = -19
	ErrQueueFull               EngineError = -21
	ErrInvalidParam            EngineError = -23
	ErrNotInitialised          EngineError = -24
	ErrInvalidChannelMap       EngineError = -25
	ErrDecoderFail             EngineError = -26
)

var engineErrorText = map[EngineError]string{
	OK:                         "ok",
	Pending:                    "pending",
	ErrFail:                    "fail",
	ErrInvalidSampleRate:       "invalid sample rate",
	ErrInvalidBufferSize:       "invalid buffer size",
	ErrCannotCreateAudioDevice: "cannot create audio device",
	ErrOpeningFile:             "error opening file",
	ErrCannotInitDecoder:       "cannot init decoder",
	ErrInvalidChannelCount:     "invalid channel count",
	ErrInvalidHeader:           "invalid header",
	ErrNoAudioDevice:           "no audio device",
	ErrNotSupported:            "not supported",
	ErrQueueFull:               "queue full",
	ErrInvalidParam:            "invalid param",
	ErrNotInitialised:          "not initialised",
	ErrInvalidChannelMap:       "invalid channel map",
	ErrDecoderFail:             "decoder fail",
}

// Error returns a readable description of the code
func (e EngineError) Error() string {
	if text, ok := engineErrorText[e]; ok {
		return text
	}
	return fmt.Sprintf("engine error %d", int(e))
}

// Code extracts the EngineError carried by err.
// nil maps to OK and errors without a code map to ErrFail.
func Code(err error) EngineError {
	if err == nil {
		return OK
	}
	var code EngineError
	if errors.As(err, &code) {
		return code
	}
	return ErrFail
}

// PlayState is the transport state of a playback queue
type PlayState int

const (
	PlayStateStopped PlayState = iota
	PlayStatePlaying
	PlayStatePaused
	PlayStateInvalid
)

// String returns the state name
func (s PlayState) String() string {
	switch s {
	case PlayStatePlaying:
		return "playing"
	case PlayStatePaused:
		return "paused"
	case PlayStateStopped:
		return "stopped"
	default:
		return "invalid"
	}
}
