// ABOUTME: Tests for remote control command parsing
// ABOUTME: Covers positions, angles and state formatting
package main

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Resonate-Protocol/spatial-go/internal/control"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

func ptr(v float64) *float64 { return &v }

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want command
	}{
		{"default is status", nil, command{Type: control.TypeStatus}},
		{"status", []string{"status"}, command{Type: control.TypeStatus}},
		{"play", []string{"play"}, command{Type: control.TypePlay}},
		{"pause", []string{"pause"}, command{Type: control.TypePause}},
		{"seek seconds", []string{"seek", "90"}, command{Type: control.TypeSeek, Payload: control.Seek{Ms: 90000}}},
		{"seek clock", []string{"seek", "1:30.5"}, command{Type: control.TypeSeek, Payload: control.Seek{Ms: 90500}}},
		{"seek duration", []string{"seek", "2m5s"}, command{Type: control.TypeSeek, Payload: control.Seek{Ms: 125000}}},
		{"face yaw", []string{"face", "45"}, command{Type: control.TypeOrientation, Payload: control.Orientation{Yaw: ptr(45)}}},
		{
			"face yaw pitch roll",
			[]string{"face", "-30", "10", "5"},
			command{Type: control.TypeOrientation, Payload: control.Orientation{Yaw: ptr(-30), Pitch: ptr(10), Roll: ptr(5)}},
		},
		{"reset", []string{"reset"}, command{Type: control.TypeOrientation, Payload: control.Orientation{Yaw: ptr(0), Pitch: ptr(0), Roll: ptr(0)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommand(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("command mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want audio.EngineError
	}{
		{"unknown", []string{"rewind"}, audio.ErrNotSupported},
		{"seek without position", []string{"seek"}, audio.ErrInvalidParam},
		{"negative seek", []string{"seek", "-5"}, audio.ErrInvalidParam},
		{"bad clock", []string{"seek", "1:75"}, audio.ErrInvalidParam},
		{"bad position", []string{"seek", "soon"}, audio.ErrInvalidParam},
		{"face without angle", []string{"face"}, audio.ErrInvalidParam},
		{"face with junk", []string{"face", "left"}, audio.ErrInvalidParam},
		{"face with too many", []string{"face", "1", "2", "3", "4"}, audio.ErrInvalidParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCommand(tt.args)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFormatState(t *testing.T) {
	state := control.State{
		Stream:     "decoding",
		Playback:   "playing",
		ElapsedMs:  65000,
		DurationMs: 180000,
		Layout:     "stereo",
		Heading:    control.Heading{Azimuth: 45, Elevation: -10},
	}
	want := "decoding/playing 1:05 / 3:00  stereo  az 45° el -10°"
	if got := formatState(state); got != want {
		t.Errorf("formatState() = %q, want %q", got, want)
	}

	state.DurationMs = -1
	want = "decoding/playing 1:05 / --:--  stereo  az 45° el -10°"
	if got := formatState(state); got != want {
		t.Errorf("formatState() = %q, want %q", got, want)
	}
}
