// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for pull-based playback backends
package output

import (
	"fmt"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

// Backend names accepted by New
const (
	KindMalgo = "malgo"
	KindOto   = "oto"
	KindNone  = "none"
)

// Source supplies interleaved samples when the device needs them
type Source interface {
	// Read fills out and returns the number of real samples; the rest is silence
	Read(out []float32) int
}

// Output represents an audio output device
type Output interface {
	// Open initializes the device; bitDepth 32 selects float output
	Open(sampleRate, channels, bitDepth int, src Source) error

	// Start begins pulling from the source
	Start() error

	// Suspend stops pulling without releasing the device
	Suspend() error

	// Close releases output resources
	Close() error

	SetVolume(volume int)
	GetVolume() int
	SetMuted(muted bool)
	IsMuted() bool

	// Name identifies the backend in logs
	Name() string
}

// New creates the output backend named kind
func New(kind string) (Output, error) {
	switch kind {
	case KindMalgo:
		return NewMalgo(), nil
	case KindOto:
		return NewOto(), nil
	default:
		return nil, fmt.Errorf("output backend %q: %w", kind, audio.ErrNoAudioDevice)
	}
}

// applyVolume scales samples in place with clipping protection
func applyVolume(samples []float32, volume int, muted bool) {
	multiplier := getVolumeMultiplier(volume, muted)
	if multiplier == 1 {
		return
	}

	for i, sample := range samples {
		scaled := sample * multiplier
		if scaled > 1 {
			scaled = 1
		} else if scaled < -1 {
			scaled = -1
		}
		samples[i] = scaled
	}
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float32 {
	if muted {
		return 0
	}
	return float32(volume) / 100
}

// clampVolume limits volume to 0-100
func clampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}
