// ABOUTME: Command line parsing for the remote control tool
// ABOUTME: Maps words like "seek 1:30" onto control protocol messages
package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Resonate-Protocol/spatial-go/internal/control"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

// command is one control message ready to send
type command struct {
	Type    string
	Payload interface{}
}

// parseCommand turns the positional arguments into a command.
// Angles are degrees, positions are seconds, m:ss or a Go duration.
func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{Type: control.TypeStatus}, nil
	}

	name, rest := args[0], args[1:]
	switch name {
	case "status":
		return command{Type: control.TypeStatus}, nil
	case "play":
		return command{Type: control.TypePlay}, nil
	case "pause":
		return command{Type: control.TypePause}, nil

	case "seek":
		if len(rest) != 1 {
			return command{}, fmt.Errorf("seek takes one position: %w", audio.ErrInvalidParam)
		}
		ms, err := parsePosition(rest[0])
		if err != nil {
			return command{}, err
		}
		return command{Type: control.TypeSeek, Payload: control.Seek{Ms: ms}}, nil

	case "face":
		if len(rest) < 1 || len(rest) > 3 {
			return command{}, fmt.Errorf("face takes yaw [pitch [roll]]: %w", audio.ErrInvalidParam)
		}
		angles := make([]*float64, 3)
		for i, arg := range rest {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return command{}, fmt.Errorf("angle %q: %w", arg, audio.ErrInvalidParam)
			}
			angles[i] = &v
		}
		return command{
			Type:    control.TypeOrientation,
			Payload: control.Orientation{Yaw: angles[0], Pitch: angles[1], Roll: angles[2]},
		}, nil

	case "reset":
		zero := 0.0
		return command{
			Type:    control.TypeOrientation,
			Payload: control.Orientation{Yaw: &zero, Pitch: &zero, Roll: &zero},
		}, nil
	}
	return command{}, fmt.Errorf("unknown command %q: %w", name, audio.ErrNotSupported)
}

// parsePosition reads "90", "1:30" or "1m30s" as milliseconds
func parsePosition(s string) (float64, error) {
	if minutes, seconds, ok := strings.Cut(s, ":"); ok {
		m, err1 := strconv.Atoi(minutes)
		sec, err2 := strconv.ParseFloat(seconds, 64)
		if err1 != nil || err2 != nil || m < 0 || sec < 0 || sec >= 60 {
			return 0, fmt.Errorf("position %q: %w", s, audio.ErrInvalidParam)
		}
		return float64(m)*60000 + sec*1000, nil
	}
	if sec, err := strconv.ParseFloat(s, 64); err == nil {
		if sec < 0 {
			return 0, fmt.Errorf("position %q: %w", s, audio.ErrInvalidParam)
		}
		return sec * 1000, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("position %q: %w", s, audio.ErrInvalidParam)
	}
	return float64(d) / float64(time.Millisecond), nil
}

// formatState renders a state on one line
func formatState(s control.State) string {
	duration := "--:--"
	if s.DurationMs >= 0 {
		duration = clock(s.DurationMs)
	}
	return fmt.Sprintf("%s/%s %s / %s  %s  az %.0f° el %.0f°",
		s.Stream, s.Playback, clock(s.ElapsedMs), duration, s.Layout,
		s.Heading.Azimuth, s.Heading.Elevation)
}

func clock(ms float64) string {
	total := int(ms / 1000)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
