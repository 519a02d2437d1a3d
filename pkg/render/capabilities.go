// ABOUTME: Capability interfaces exposed by the render sink
// ABOUTME: The decode controller depends on these instead of the concrete Engine
package render

import (
	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/queue"
	"github.com/Resonate-Protocol/spatial-go/pkg/geom"
)

// Transport controls playback of queued audio
type Transport interface {
	Play() error
	Pause() error
	PlayState() audio.PlayState
}

// SpatialSource holds the listener orientation and focus settings
type SpatialSource interface {
	SetListenerRotation(q geom.Quat)
	ListenerRotation() geom.Quat
	SetFocus(enabled, followListener bool)
	SetFocusProperties(offFocusLevelDB, focusWidthDegrees float64)
	SetFocusOrientation(q geom.Quat)
	Focus() Focus
}

// QueueSource exposes the queue the decoder writes into
type QueueSource interface {
	Queue() *queue.Queue
}

// Device controls the output device behind a sink
type Device interface {
	StartDevice() error
	SuspendDevice() error
	SetVolume(volume int) error
	SetMuted(muted bool) error

	// HasDevice reports whether a device pulls from the sink
	HasDevice() bool
}

// Sink is everything the decode controller needs from a renderer
type Sink interface {
	Transport
	SpatialSource
	QueueSource
	Device

	// Mix pulls a stereo preview when no device is attached
	Mix(out []float32) (int, error)

	Close() error
}

// NewSink creates an Engine behind the Sink interface
func NewSink(config Config) (Sink, error) {
	e, err := New(config)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Focus describes the focus effect settings
type Focus struct {
	Enabled         bool
	FollowListener  bool
	OffFocusLevelDB float64   // attenuation outside the focus area, -24 to 0
	WidthDegrees    float64   // 40 to 120
	Orientation     geom.Quat // listener-relative, used when not following the listener
}
