// ABOUTME: Bubbletea model for the spatial player TUI
// ABOUTME: Defines application state, key handling and rendering
package ui

import (
	"fmt"
	"math"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	// SeekStepMs is how far the arrow keys jump
	SeekStepMs = 5000

	// RotateStepDegrees is how far a/d and w/s turn the listener
	RotateStepDegrees = 15

	volumeStep = 5
)

// Model represents the TUI state
type Model struct {
	// Source
	source     string
	codec      string
	sampleRate int
	channels   int
	layout     string
	device     string

	// Playback
	stream     string
	playback   string
	elapsedMs  float64
	durationMs float64
	volume     int
	muted      bool

	// Listener, degrees
	yaw   float64
	pitch float64

	// Remote control
	controlAddr string
	remotes     int

	// Debug
	showDebug  bool
	goroutines int
	memAlloc   uint64
	memSys     uint64

	// Dimensions
	width  int
	height int

	controls *Controls
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderStreamInfo()
	s += m.renderListener()
	s += m.renderControls()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders stream and transport state
func (m Model) renderHeader() string {
	status := fmt.Sprintf("%s, %s", m.stream, m.playback)

	remote := "disabled"
	if m.controlAddr != "" {
		remote = fmt.Sprintf("%s (%d connected)", m.controlAddr, m.remotes)
	}

	return fmt.Sprintf(`┌─ Spatial Player ─────────────────────────────────────┐
│ Status: %-44s │
│ Remote: %-44s │
├──────────────────────────────────────────────────────┤
`, truncate(status, 44), truncate(remote, 44))
}

// renderStreamInfo renders the open source and its position
func (m Model) renderStreamInfo() string {
	if m.source == "" {
		return "│ No stream                                            │\n"
	}

	s := fmt.Sprintf("│ File:     %-42s │\n", truncate(filepath.Base(m.source), 42))
	s += fmt.Sprintf("│ Format:   %-42s │\n",
		fmt.Sprintf("%s %dHz %d ch, layout %s", m.codec, m.sampleRate, m.channels, m.layout))
	s += fmt.Sprintf("│ Position: %-42s │\n", formatPosition(m.elapsedMs, m.durationMs))
	s += fmt.Sprintf("│           [%s] │\n", renderBar(int(m.elapsedMs), int(m.durationMs), 40))
	return s
}

// renderListener renders the listener orientation
func (m Model) renderListener() string {
	return fmt.Sprintf("│                                                      │\n"+
		"│ Listener: %-42s │\n",
		fmt.Sprintf("yaw %+6.1f°  pitch %+5.1f°", m.yaw, m.pitch))
}

// renderControls renders volume and output device
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " 🔇"
	}

	volumeBar := renderBar(m.volume, 100, 10)

	return fmt.Sprintf("│ Volume:   [%s] %3d%%%-26s │\n"+
		"│ Device:   %-42s │\n",
		volumeBar, m.volume, muteIcon, m.device)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `├──────────────────────────────────────────────────────┤
│ space:Play/Pause  ←/→:Seek  a/d:Yaw  w/s:Pitch       │
│ r:Reset  ↑/↓:Volume  m:Mute  i:Debug  q:Quit         │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders runtime information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Goroutines: %-38d │
│   Memory:     %-38s │
`, m.goroutines, fmt.Sprintf("%.1f MiB alloc, %.1f MiB sys",
		float64(m.memAlloc)/(1<<20), float64(m.memSys)/(1<<20)))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.controls != nil {
			select {
			case m.controls.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case " ":
		m.send(Command{Kind: CommandTogglePlay})
	case "left":
		m.send(Command{Kind: CommandSeek, SeekMs: math.Max(0, m.elapsedMs-SeekStepMs)})
	case "right":
		m.send(Command{Kind: CommandSeek, SeekMs: m.elapsedMs + SeekStepMs})
	case "a":
		m.yaw = wrapDegrees(m.yaw - RotateStepDegrees)
		m.sendOrientation()
	case "d":
		m.yaw = wrapDegrees(m.yaw + RotateStepDegrees)
		m.sendOrientation()
	case "w":
		m.pitch = math.Min(90, m.pitch+RotateStepDegrees)
		m.sendOrientation()
	case "s":
		m.pitch = math.Max(-90, m.pitch-RotateStepDegrees)
		m.sendOrientation()
	case "r":
		m.yaw, m.pitch = 0, 0
		m.sendOrientation()
	case "up":
		m.volume = min(100, m.volume+volumeStep)
		m.send(Command{Kind: CommandVolume, Volume: m.volume, Muted: m.muted})
	case "down":
		m.volume = max(0, m.volume-volumeStep)
		m.send(Command{Kind: CommandVolume, Volume: m.volume, Muted: m.muted})
	case "m":
		m.muted = !m.muted
		m.send(Command{Kind: CommandVolume, Volume: m.volume, Muted: m.muted})
	case "i":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) sendOrientation() {
	m.send(Command{Kind: CommandOrientation, Yaw: m.yaw, Pitch: m.pitch})
}

// send forwards a command without blocking the UI
func (m Model) send(cmd Command) {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Commands <- cmd:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Source != "" {
		m.source = msg.Source
		m.codec = msg.Codec
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.layout = msg.Layout
	}
	if msg.Device != "" {
		m.device = msg.Device
	}
	if msg.Stream != "" {
		m.stream = msg.Stream
		m.playback = msg.Playback
		m.elapsedMs = msg.ElapsedMs
		m.durationMs = msg.DurationMs
	}
	if msg.Orientation != nil {
		m.yaw = msg.Orientation.Yaw
		m.pitch = msg.Orientation.Pitch
	}
	if msg.ControlAddr != "" {
		m.controlAddr = msg.ControlAddr
	}
	if msg.Remotes != nil {
		m.remotes = *msg.Remotes
	}
	if msg.Goroutines != 0 {
		m.goroutines = msg.Goroutines
		m.memAlloc = msg.MemAlloc
		m.memSys = msg.MemSys
	}
}

// Orientation is the listener heading shown in the TUI, degrees
type Orientation struct {
	Yaw   float64
	Pitch float64
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Source      string
	Codec       string
	SampleRate  int
	Channels    int
	Layout      string
	Device      string
	Stream      string
	Playback    string
	ElapsedMs   float64
	DurationMs  float64
	Orientation *Orientation // set when a remote turned the listener
	ControlAddr string
	Remotes     *int
	Goroutines  int
	MemAlloc    uint64
	MemSys      uint64
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := 0
	if max > 0 {
		filled = min(width, max0(value)*width/max)
	}
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

// formatPosition renders elapsed / duration as m:ss
func formatPosition(elapsedMs, durationMs float64) string {
	if durationMs < 0 {
		return formatClock(elapsedMs)
	}
	return formatClock(elapsedMs) + " / " + formatClock(durationMs)
}

func formatClock(ms float64) string {
	total := int(ms / 1000)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// wrapDegrees maps an angle to (-180, 180]
func wrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}
