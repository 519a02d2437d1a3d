// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program and the channels back to the player
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// CommandKind identifies what a key press asks the player to do
type CommandKind int

const (
	CommandTogglePlay CommandKind = iota
	CommandSeek
	CommandOrientation
	CommandVolume
)

// Command is sent to the player when a key is pressed
type Command struct {
	Kind       CommandKind
	SeekMs     float64
	Yaw, Pitch float64 // degrees
	Volume     int
	Muted      bool
}

// QuitMsg signals that the user quit the TUI
type QuitMsg struct{}

// Controls holds channels for communication from the TUI to the player
type Controls struct {
	Commands chan Command
	Quit     chan QuitMsg
}

// NewControls creates a new controls handler
func NewControls() *Controls {
	return &Controls{
		Commands: make(chan Command, 10),
		Quit:     make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls) Model {
	return Model{
		stream:     "closed",
		playback:   "stopped",
		durationMs: -1,
		volume:     100,
		controls:   controls,
	}
}

// Run creates the TUI program; the caller runs it
func Run(controls *Controls) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(controls), tea.WithAltScreen())
	return p, nil
}
