// ABOUTME: JSON message definitions for the remote control protocol
// ABOUTME: Commands from remotes and state replies from the player
package control

import (
	"encoding/json"
)

// Message types
const (
	TypePlay        = "player/play"
	TypePause       = "player/pause"
	TypeSeek        = "player/seek"
	TypeOrientation = "player/orientation"
	TypeStatus      = "player/status"
	TypeState       = "player/state"
	TypeError       = "error"
)

// Message is the top-level wrapper for all control messages.
// A reply carries the ID of the command it answers; pushes have no ID.
type Message struct {
	Type    string      `json:"type"`
	ID      uint64      `json:"id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// inbound is a Message whose payload is decoded once the type is known
type inbound struct {
	Type    string          `json:"type"`
	ID      uint64          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Seek moves playback to a position in milliseconds
type Seek struct {
	Ms float64 `json:"ms"`
}

// Quat is a rotation quaternion on the wire
type Quat struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Orientation sets the listener rotation. Exactly one form is used, in order
// of precedence: Quat, Forward with Up, or Yaw/Pitch/Roll in degrees.
type Orientation struct {
	Quat    *Quat       `json:"quat,omitempty"`
	Forward *[3]float64 `json:"forward,omitempty"`
	Up      *[3]float64 `json:"up,omitempty"`
	Yaw     *float64    `json:"yaw,omitempty"`
	Pitch   *float64    `json:"pitch,omitempty"`
	Roll    *float64    `json:"roll,omitempty"`
}

// Heading is where the listener faces, in degrees
type Heading struct {
	Azimuth   float64 `json:"azimuth"`
	Elevation float64 `json:"elevation"`
}

// State reports the player's current state
type State struct {
	Stream     string  `json:"stream"`
	Playback   string  `json:"playback"`
	ElapsedMs  float64 `json:"elapsed_ms"`
	DurationMs float64 `json:"duration_ms"` // -1 when unknown
	Layout     string  `json:"layout"`
	Rotation   Quat    `json:"rotation"`
	Heading    Heading `json:"heading"`
}

// Error describes a rejected command
type Error struct {
	Command string `json:"command,omitempty"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
