// ABOUTME: Oto-based audio output implementation
// ABOUTME: An oto player reads the source through an io.Reader adapter
package output

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio/encode"
)

// oto allows one context per process
var (
	otoCtx      *oto.Context
	otoRate     int
	otoChannels int
	otoMu       sync.Mutex
)

// Oto output implementation using oto library
type Oto struct {
	player   *oto.Player
	reader   *sourceReader
	channels int
	volume   atomic.Int32
	muted    atomic.Bool
	mu       sync.Mutex
}

// NewOto creates a new Oto output
func NewOto() Output {
	o := &Oto{}
	o.volume.Store(100)
	return o
}

// Name returns the backend name
func (o *Oto) Name() string {
	return KindOto
}

// Open creates the shared oto context on first use and a player for src.
// oto renders float samples, so bitDepth only affects logging.
func (o *Oto) Open(sampleRate, channels, bitDepth int, src Source) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if src == nil {
		return fmt.Errorf("oto output needs a source")
	}

	otoMu.Lock()
	if otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatFloat32LE,
		}
		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			otoMu.Unlock()
			return fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan
		otoCtx = ctx
		otoRate = sampleRate
		otoChannels = channels
	} else if otoRate != sampleRate || otoChannels != channels {
		otoMu.Unlock()
		return fmt.Errorf("oto context is %dHz %dch, cannot reopen as %dHz %dch",
			otoRate, otoChannels, sampleRate, channels)
	}
	ctx := otoCtx
	otoMu.Unlock()

	if o.player != nil {
		o.player.Close()
	}

	encoder, err := encode.NewPCM(encode.PCMFormat(sampleRate, channels, 32))
	if err != nil {
		return err
	}

	o.reader = &sourceReader{src: src, channels: channels, out: o, encoder: encoder}
	o.player = ctx.NewPlayer(o.reader)
	o.channels = channels

	log.Printf("Audio output initialized: %dHz, %d channels, requested %d-bit (oto/F32)", sampleRate, channels, bitDepth)
	return nil
}

// Start resumes the player
func (o *Oto) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return fmt.Errorf("output not initialized")
	}
	o.player.Play()
	return nil
}

// Suspend pauses the player
func (o *Oto) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		o.player.Pause()
	}
	return nil
}

// Close releases the player; the process-wide context stays alive
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Printf("Warning: oto player close error: %v", err)
		}
		o.player = nil
	}
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	volume = clampVolume(volume)
	o.volume.Store(int32(volume))
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.muted.Store(muted)
	log.Printf("Muted: %v", muted)
}

// GetVolume returns current volume
func (o *Oto) GetVolume() int {
	return int(o.volume.Load())
}

// IsMuted returns mute state
func (o *Oto) IsMuted() bool {
	return o.muted.Load()
}

// sourceReader turns a pull Source into the byte stream oto consumes.
// It never returns EOF so the player keeps running through silence.
type sourceReader struct {
	src      Source
	channels int
	out      *Oto
	encoder  *encode.PCMEncoder
	scratch  []float32
}

func (r *sourceReader) Read(p []byte) (int, error) {
	samples := len(p) / 4
	samples -= samples % r.channels
	if samples == 0 {
		return 0, nil
	}

	if cap(r.scratch) < samples {
		r.scratch = make([]float32, samples)
	}
	buf := r.scratch[:samples]

	r.src.Read(buf)
	applyVolume(buf, int(r.out.volume.Load()), r.out.muted.Load())
	return r.encoder.Encode(buf, p)
}
