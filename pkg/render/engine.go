// ABOUTME: Render engine owning the playback queue, listener rotation and device
// ABOUTME: Mixes queued spatial audio down to a stereo preview on demand
package render

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/output"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/queue"
	"github.com/Resonate-Protocol/spatial-go/pkg/geom"
)

// Focus limits; values outside are clamped
const (
	MinFocusWidth   = 40.0
	MaxFocusWidth   = 120.0
	MinOffFocusDB   = -24.0
	MaxOffFocusDB   = 0.0
	defaultFocusDB  = 0.0
	defaultFocusDeg = 90.0
)

// Config holds engine configuration
type Config struct {
	Layout     audio.ChannelLayout
	SampleRate int

	// FramesPerChannel sizes the queue; 0 selects queue.DefaultFramesPerChannel
	FramesPerChannel int

	// Output is pulled by the device thread; nil means the caller pulls with Mix
	Output output.Output

	// BitDepth of the device stream, 16 by default
	BitDepth int
}

// Engine is the render sink
type Engine struct {
	config Config
	queue  *queue.Queue
	output output.Output

	rotation atomic.Pointer[geom.Quat]

	focusMu sync.Mutex
	focus   Focus

	// scratch is only touched by the single consumer
	scratch []float32
	closed  atomic.Bool
}

// New creates an engine and, when an output is configured, opens the device
func New(config Config) (*Engine, error) {
	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %d: %w", config.SampleRate, audio.ErrInvalidSampleRate)
	}
	if config.FramesPerChannel == 0 {
		config.FramesPerChannel = queue.DefaultFramesPerChannel
	}
	if config.BitDepth == 0 {
		config.BitDepth = 16
	}

	q, err := queue.New(config.Layout, config.FramesPerChannel)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue: %w", err)
	}

	e := &Engine{
		config: config,
		queue:  q,
		output: config.Output,
		focus: Focus{
			OffFocusLevelDB: defaultFocusDB,
			WidthDegrees:    defaultFocusDeg,
			Orientation:     geom.Identity(),
		},
	}
	identity := geom.Identity()
	e.rotation.Store(&identity)

	if e.output != nil {
		if err := e.output.Open(config.SampleRate, 2, config.BitDepth, e); err != nil {
			return nil, fmt.Errorf("failed to open %s output: %v: %w", e.output.Name(), err, audio.ErrCannotCreateAudioDevice)
		}
	}

	log.Printf("Render engine ready: layout %s, %d Hz, queue %d frames/channel, device %s",
		config.Layout, config.SampleRate, config.FramesPerChannel, e.deviceName())
	return e, nil
}

func (e *Engine) deviceName() string {
	if e.output == nil {
		return "none"
	}
	return e.output.Name()
}

// Queue returns the playback queue
func (e *Engine) Queue() *queue.Queue {
	return e.queue
}

// Layout returns the channel layout of the queue
func (e *Engine) Layout() audio.ChannelLayout {
	return e.config.Layout
}

// SampleRate returns the engine sample rate
func (e *Engine) SampleRate() int {
	return e.config.SampleRate
}

// HasDevice reports whether a device pulls from the engine
func (e *Engine) HasDevice() bool {
	return e.output != nil
}

// Play starts the transport
func (e *Engine) Play() error {
	return e.queue.Play()
}

// Pause pauses the transport
func (e *Engine) Pause() error {
	return e.queue.Pause()
}

// PlayState returns the transport state
func (e *Engine) PlayState() audio.PlayState {
	return e.queue.PlayState()
}

// StartDevice starts the device pulling audio
func (e *Engine) StartDevice() error {
	if e.output == nil {
		return fmt.Errorf("no device attached: %w", audio.ErrNoAudioDevice)
	}
	return e.output.Start()
}

// SuspendDevice stops the device pulling audio
func (e *Engine) SuspendDevice() error {
	if e.output == nil {
		return fmt.Errorf("no device attached: %w", audio.ErrNoAudioDevice)
	}
	return e.output.Suspend()
}

// SetVolume sets the device volume, 0-100
func (e *Engine) SetVolume(volume int) error {
	if e.output == nil {
		return fmt.Errorf("no device attached: %w", audio.ErrNoAudioDevice)
	}
	e.output.SetVolume(volume)
	return nil
}

// SetMuted mutes or unmutes the device
func (e *Engine) SetMuted(muted bool) error {
	if e.output == nil {
		return fmt.Errorf("no device attached: %w", audio.ErrNoAudioDevice)
	}
	e.output.SetMuted(muted)
	return nil
}

// SetListenerRotation sets the listener orientation
func (e *Engine) SetListenerRotation(q geom.Quat) {
	q = q.Normalized()
	e.rotation.Store(&q)
}

// ListenerRotation returns the listener orientation
func (e *Engine) ListenerRotation() geom.Quat {
	return *e.rotation.Load()
}

// SetFocus enables the focus effect and chooses whether it follows the listener
func (e *Engine) SetFocus(enabled, followListener bool) {
	e.focusMu.Lock()
	defer e.focusMu.Unlock()
	e.focus.Enabled = enabled
	e.focus.FollowListener = followListener
}

// SetFocusProperties sets the off-focus attenuation and the focus width
func (e *Engine) SetFocusProperties(offFocusLevelDB, focusWidthDegrees float64) {
	e.focusMu.Lock()
	defer e.focusMu.Unlock()
	e.focus.OffFocusLevelDB = clamp(offFocusLevelDB, MinOffFocusDB, MaxOffFocusDB)
	e.focus.WidthDegrees = clamp(focusWidthDegrees, MinFocusWidth, MaxFocusWidth)
}

// SetFocusOrientation points the focus area relative to the listener
func (e *Engine) SetFocusOrientation(q geom.Quat) {
	e.focusMu.Lock()
	defer e.focusMu.Unlock()
	e.focus.Orientation = q.Normalized()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Focus returns the focus settings
func (e *Engine) Focus() Focus {
	e.focusMu.Lock()
	defer e.focusMu.Unlock()
	return e.focus
}

// Read implements output.Source for the device thread
func (e *Engine) Read(out []float32) int {
	n, _ := e.Mix(out)
	return n
}

// Mix pulls one stereo buffer from the queue into out.
// It returns the number of stereo samples carrying audio; the rest is silence.
func (e *Engine) Mix(out []float32) (int, error) {
	if e.closed.Load() {
		clear(out)
		return 0, fmt.Errorf("engine closed: %w", audio.ErrNotInitialised)
	}

	frames := len(out) / 2
	channels := e.queue.Channels()
	need := frames * channels
	if cap(e.scratch) < need {
		e.scratch = make([]float32, need)
	}
	in := e.scratch[:need]

	got := e.queue.Dequeue(in) / channels
	downmix(e.config.Layout, in, channels, out[:frames*2], got)
	clear(out[got*2:])
	return got * 2, nil
}

// downmix folds frames of the given layout into interleaved stereo
func downmix(layout audio.ChannelLayout, in []float32, channels int, out []float32, frames int) {
	switch {
	case channels == 2:
		copy(out, in[:frames*2])
	case channels == 1:
		for i := 0; i < frames; i++ {
			out[i*2] = in[i]
			out[i*2+1] = in[i]
		}
	case layout.HasHeadLockedPair():
		// Trailing head-locked pair
		for i := 0; i < frames; i++ {
			frame := in[i*channels : (i+1)*channels]
			out[i*2] = frame[channels-2]
			out[i*2+1] = frame[channels-1]
		}
	default:
		// Channel 0 is the omnidirectional component
		for i := 0; i < frames; i++ {
			out[i*2] = in[i*channels]
			out[i*2+1] = in[i*channels]
		}
	}
}

// Close stops the transport and releases the device
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.queue.Stop()
	e.queue.Flush()

	if e.output != nil {
		if err := e.output.Suspend(); err != nil {
			log.Printf("Warning: failed to suspend %s output: %v", e.output.Name(), err)
		}
		if err := e.output.Close(); err != nil {
			return fmt.Errorf("failed to close %s output: %w", e.output.Name(), err)
		}
	}
	return nil
}
