// ABOUTME: Tests for engine error codes
// ABOUTME: Verifies wrapping, code extraction and messages
package audio

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("open stream: %w", ErrInvalidChannelCount)

	if !errors.Is(wrapped, ErrInvalidChannelCount) {
		t.Error("expected errors.Is to find the code")
	}
	if got := Code(wrapped); got != ErrInvalidChannelCount {
		t.Errorf("expected %d, got %d", ErrInvalidChannelCount, got)
	}
}

func TestCodeDefaults(t *testing.T) {
	if got := Code(nil); got != OK {
		t.Errorf("expected OK for nil, got %v", got)
	}
	if got := Code(errors.New("boom")); got != ErrFail {
		t.Errorf("expected ErrFail for plain error, got %v", got)
	}
}

func TestEngineErrorValues(t *testing.T) {
	// Values are part of the contract with callers that log raw codes
	tests := []struct {
		err      EngineError
		expected int
	}{
		{OK, 0},
		{Pending, 1},
		{ErrFail, -1},
		{ErrInvalidBufferSize, -4},
		{ErrCannotInitDecoder, -10},
		{ErrInvalidChannelCount, -11},
		{ErrQueueFull, -21},
		{ErrInvalidParam, -23},
		{ErrNotInitialised, -24},
		{ErrInvalidChannelMap, -25},
		{ErrDecoderFail, -26},
	}

	for _, tt := range tests {
		if int(tt.err) != tt.expected {
			t.Errorf("%s: expected %d, got %d", tt.err.Error(), tt.expected, int(tt.err))
		}
	}
}

func TestEngineErrorMessage(t *testing.T) {
	if ErrNotInitialised.Error() != "not initialised" {
		t.Errorf("unexpected message %q", ErrNotInitialised.Error())
	}
	if EngineError(-99).Error() != "engine error -99" {
		t.Errorf("unexpected message %q", EngineError(-99).Error())
	}
}
