// ABOUTME: Decode controller owning the demuxer, decoder and render sink of one stream
// ABOUTME: Non-blocking Decode steps with backpressure, mailbox seeks and end-of-stream signalling
package stream

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/container"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/output"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/queue"
	"github.com/Resonate-Protocol/spatial-go/pkg/geom"
	"github.com/Resonate-Protocol/spatial-go/pkg/render"
)

// Options holds controller configuration
type Options struct {
	// OpenDemuxer opens a source; defaults to container.Open
	OpenDemuxer func(source string) (container.Demuxer, error)

	// NewDecoder creates the decoder for a stream; defaults to decode.New
	NewDecoder func(format audio.Format) (decode.Decoder, error)

	// NewSink creates the render sink the queue lives in; defaults to render.NewSink
	NewSink func(config render.Config) (render.Sink, error)

	// NewOutput creates the device used when Open is asked for one; defaults to output.New(DeviceKind)
	NewOutput func() (output.Output, error)

	// DeviceKind selects the default output backend
	DeviceKind string

	// QueueFramesPerChannel sizes the playback queue, raised to two decode units if smaller
	QueueFramesPerChannel int

	// BitDepth of the device stream
	BitDepth int
}

// session is the state of one open stream
type session struct {
	id      string
	demuxer container.Demuxer
	decoder decode.Decoder
	sink    render.Sink
	info    container.StreamInfo
	layout  audio.ChannelLayout

	pcm        []float32
	unit       int // samples produced by one decode call at most
	sampleRate int

	// captureBaseline is only touched by the decode goroutine
	captureBaseline bool
	baselineMs      atomic.Uint64 // float64 bits
	enqueued        atomic.Int64  // samples since the last seek
}

func (s *session) setBaseline(ms float64) {
	s.baselineMs.Store(math.Float64bits(ms))
}

func (s *session) baseline() float64 {
	return math.Float64frombits(s.baselineMs.Load())
}

// Controller drives one stream at a time
type Controller struct {
	opts    Options
	state   atomic.Int32
	session atomic.Pointer[session]
	seeks   seekMailbox

	// rotation, volume and muted survive reopening
	rotation atomic.Pointer[geom.Quat]
	volume   atomic.Int32
	muted    atomic.Bool

	// mu serializes Open and Close
	mu sync.Mutex
}

// New creates a closed controller
func New(opts Options) *Controller {
	if opts.OpenDemuxer == nil {
		opts.OpenDemuxer = container.Open
	}
	if opts.NewDecoder == nil {
		opts.NewDecoder = decode.New
	}
	if opts.NewSink == nil {
		opts.NewSink = render.NewSink
	}
	if opts.DeviceKind == "" {
		opts.DeviceKind = output.KindMalgo
	}
	if opts.NewOutput == nil {
		kind := opts.DeviceKind
		opts.NewOutput = func() (output.Output, error) {
			return output.New(kind)
		}
	}
	if opts.QueueFramesPerChannel == 0 {
		opts.QueueFramesPerChannel = queue.DefaultFramesPerChannel
	}

	c := &Controller{opts: opts}
	identity := geom.Identity()
	c.rotation.Store(&identity)
	c.volume.Store(100)
	return c
}

// State returns the lifecycle state; safe from any goroutine
func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) setState(s State) {
	c.state.Store(int32(s))
}

// Open opens source and prepares decoding into a queue of the given layout.
// Any open stream is closed first. On failure nothing is retained and the
// controller is Closed.
func (c *Controller) Open(source string, useDevice bool, layout audio.ChannelLayout) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != StateClosed {
		c.closeLocked()
	}

	c.setState(StateOpening)
	s, err := c.open(source, useDevice, layout)
	if err != nil {
		c.setState(StateClosed)
		return err
	}

	c.session.Store(s)
	c.setState(StateReady)

	log.Printf("Stream %s opened: %s, %s %d Hz %d ch, layout %s, decode unit %d samples",
		s.id, source, s.decoder.Name(), s.sampleRate, s.info.Format.Channels, layout, s.unit)
	return nil
}

// open builds a session and releases everything it created on failure
func (c *Controller) open(source string, useDevice bool, layout audio.ChannelLayout) (s *session, err error) {
	if layout.Channels() == 0 {
		return nil, fmt.Errorf("layout %s: %w", layout, audio.ErrInvalidChannelMap)
	}

	s = &session{id: uuid.NewString(), layout: layout}
	defer func() {
		if err != nil {
			s.release()
			s = nil
		}
	}()

	s.demuxer, err = c.opts.OpenDemuxer(source)
	if err != nil {
		return s, fmt.Errorf("failed to open %s: %w", source, err)
	}

	s.info, err = container.FirstAudioStream(s.demuxer.Streams())
	if err != nil {
		return s, fmt.Errorf("%s: %w", source, err)
	}

	if got, want := s.info.Format.Channels, layout.Channels(); got != want {
		return s, fmt.Errorf("stream has %d channels, layout %s needs %d: %w",
			got, layout, want, audio.ErrInvalidChannelCount)
	}

	s.decoder, err = c.opts.NewDecoder(s.info.Format)
	if err != nil {
		return s, fmt.Errorf("failed to create %s decoder: %v: %w", s.info.Format.Codec, err, audio.ErrCannotInitDecoder)
	}
	if s.decoder.Channels() != layout.Channels() {
		return s, fmt.Errorf("decoder outputs %d channels, layout %s needs %d: %w",
			s.decoder.Channels(), layout, layout.Channels(), audio.ErrInvalidChannelCount)
	}

	perChannel := s.decoder.MaxBufferSizePerChannel()
	s.unit = perChannel * s.decoder.Channels()
	s.pcm = make([]float32, s.unit)
	s.sampleRate = s.decoder.SampleRate()

	frames := c.opts.QueueFramesPerChannel
	if frames < 2*perChannel {
		log.Printf("Queue of %d frames/channel is below two decode units, using %d", frames, 2*perChannel)
		frames = 2 * perChannel
	}

	var out output.Output
	if useDevice {
		out, err = c.opts.NewOutput()
		if err != nil {
			return s, fmt.Errorf("failed to create output: %w", err)
		}
	}

	s.sink, err = c.opts.NewSink(render.Config{
		Layout:           layout,
		SampleRate:       s.sampleRate,
		FramesPerChannel: frames,
		Output:           out,
		BitDepth:         c.opts.BitDepth,
	})
	if err != nil {
		if out != nil {
			out.Close()
		}
		return s, fmt.Errorf("failed to create render sink: %w", err)
	}
	s.sink.SetListenerRotation(*c.rotation.Load())
	if out != nil {
		s.sink.SetVolume(int(c.volume.Load()))
		s.sink.SetMuted(c.muted.Load())
	}

	return s, nil
}

// release closes whatever the session holds
func (s *session) release() error {
	var errs []error
	if s.sink != nil {
		errs = append(errs, s.sink.Close())
		s.sink = nil
	}
	if s.decoder != nil {
		errs = append(errs, s.decoder.Close())
		s.decoder = nil
	}
	if s.demuxer != nil {
		errs = append(errs, s.demuxer.Close())
		s.demuxer = nil
	}
	return errors.Join(errs...)
}

// Close tears down the open stream; safe in any state and when already closed
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Controller) closeLocked() error {
	c.seeks.clear()
	s := c.session.Swap(nil)
	c.setState(StateClosed)
	if s == nil {
		return nil
	}

	err := s.release()
	if err != nil {
		log.Printf("Stream %s closed with error: %v", s.id, err)
	} else {
		log.Printf("Stream %s closed", s.id)
	}
	return err
}

// Decode runs one non-blocking step of the pipeline
func (c *Controller) Decode() (Status, error) {
	s := c.session.Load()
	if s == nil {
		return StatusError, ErrNotReady
	}

	switch c.State() {
	case StateError:
		return StatusError, fmt.Errorf("stream %s failed earlier: %w", s.id, ErrNotReady)
	case StateReady, StateDecoding, StateSeeking, StateEndOfStream:
	default:
		return StatusError, ErrNotReady
	}

	if req := c.seeks.take(); req != nil {
		c.performSeek(s, req)
	}

	if c.State() == StateEndOfStream {
		return StatusEndOfStream, nil
	}

	q := s.sink.Queue()
	if q.FreeSpace(s.layout) < s.unit {
		return StatusOK, nil
	}

	c.setState(StateDecoding)
	for q.FreeSpace(s.layout) >= s.unit {
		status, err := c.enqueueNextPacket(s, q)
		if status != StatusOK || err != nil {
			return status, err
		}
	}
	return StatusOK, nil
}

// performSeek repositions the stream; a failed demuxer seek is logged and dropped
func (c *Controller) performSeek(s *session, req *seekRequest) {
	prev := c.State()
	c.setState(StateSeeking)

	ts := s.info.TimeBase.FromMilliseconds(req.ms)
	if err := s.demuxer.Seek(ts); err != nil {
		log.Printf("Stream %s: seek #%d to %.0f ms failed: %v", s.id, req.gen, req.ms, err)
		c.setState(prev)
		return
	}

	s.decoder.Flush(req.ms == 0)
	s.sink.Queue().Flush()
	s.captureBaseline = true
	s.setBaseline(req.ms)
	s.enqueued.Store(0)

	c.setState(StateDecoding)
	log.Printf("Stream %s: seek #%d to %.0f ms (ts %d)", s.id, req.gen, req.ms, ts)
}

// enqueueNextPacket demuxes, decodes and enqueues one packet
func (c *Controller) enqueueNextPacket(s *session, q *queue.Queue) (Status, error) {
	pkt, err := s.demuxer.ReadPacket()
	if err == io.EOF {
		q.SetEndOfStream(true)
		c.setState(StateEndOfStream)
		log.Printf("Stream %s: end of stream after %d samples", s.id, s.enqueued.Load())
		return StatusEndOfStream, nil
	}
	if err != nil {
		return c.fail(s, fmt.Errorf("failed to read packet: %w", err))
	}

	if pkt.StreamIndex != s.info.Index {
		return StatusOK, nil
	}

	if s.captureBaseline {
		s.setBaseline(s.info.TimeBase.Milliseconds(max(0, pkt.PTS)))
		s.captureBaseline = false
	}

	n, err := s.decoder.Decode(pkt.Data, s.pcm)
	if err != nil {
		return c.fail(s, fmt.Errorf("failed to decode packet at pts %d: %v: %w", pkt.PTS, err, audio.ErrDecoderFail))
	}
	if n == 0 {
		return StatusOK, nil
	}

	enq, err := q.Enqueue(s.pcm[:n], s.layout)
	s.enqueued.Add(int64(enq))
	if err != nil || enq != n {
		return c.fail(s, fmt.Errorf("enqueued %d of %d samples: %w", enq, n, audio.ErrQueueFull))
	}
	return StatusOK, nil
}

func (c *Controller) fail(s *session, err error) (Status, error) {
	c.setState(StateError)
	log.Printf("Stream %s: %v", s.id, err)
	return StatusError, err
}

// Seek requests a jump to ms; the next Decode call performs it
func (c *Controller) Seek(ms float64) error {
	if c.session.Load() == nil {
		return ErrNotReady
	}
	if ms < 0 {
		ms = 0
	}
	c.seeks.post(ms)
	return nil
}

// SeekPending reports whether a seek waits for the next Decode call
func (c *Controller) SeekPending() bool {
	return c.seeks.pending()
}

// controlled returns the sink when the state allows it to be controlled
func (c *Controller) controlled() (render.Sink, error) {
	s := c.session.Load()
	if s == nil {
		return nil, fmt.Errorf("no open stream: %w", audio.ErrNotInitialised)
	}
	switch c.State() {
	case StateReady, StateDecoding, StateSeeking, StateEndOfStream:
		return s.sink, nil
	default:
		return nil, fmt.Errorf("stream is %s: %w", c.State(), audio.ErrNotInitialised)
	}
}

// transport returns the sink transport when the state allows transport control
func (c *Controller) transport() (render.Transport, error) {
	return c.controlled()
}

// Play starts playback of queued audio
func (c *Controller) Play() error {
	sink, err := c.transport()
	if err != nil {
		return err
	}
	return sink.Play()
}

// Pause pauses playback; queued audio is kept
func (c *Controller) Pause() error {
	sink, err := c.transport()
	if err != nil {
		return err
	}
	return sink.Pause()
}

// PlayState returns the queue transport state
func (c *Controller) PlayState() audio.PlayState {
	s := c.session.Load()
	if s == nil {
		return audio.PlayStateStopped
	}
	return s.sink.PlayState()
}

// ElapsedTimeMs is the seek baseline plus what the consumer has dequeued
func (c *Controller) ElapsedTimeMs() float64 {
	s := c.session.Load()
	if s == nil || s.sampleRate == 0 {
		return 0
	}
	heard := float64(s.sink.Queue().DequeuedPerChannel()) / float64(s.sampleRate) * 1000
	return s.baseline() + heard
}

// DurationMs returns the stream duration, -1 when unknown
func (c *Controller) DurationMs() float64 {
	s := c.session.Load()
	if s == nil || s.info.Duration < 0 {
		return -1
	}
	return s.info.TimeBase.Milliseconds(s.info.Duration)
}

// EnqueuedSamples returns the samples enqueued since open or the last seek
func (c *Controller) EnqueuedSamples() int64 {
	s := c.session.Load()
	if s == nil {
		return 0
	}
	return s.enqueued.Load()
}

// SetListenerRotation sets the listener orientation
func (c *Controller) SetListenerRotation(q geom.Quat) {
	q = q.Normalized()
	c.rotation.Store(&q)
	if s := c.session.Load(); s != nil {
		s.sink.SetListenerRotation(q)
	}
}

// SetListenerRotationVectors sets the orientation from forward and up vectors
func (c *Controller) SetListenerRotationVectors(forward, up geom.Vector3) {
	c.SetListenerRotation(geom.QuatFromForwardUp(forward.Normalized(), up.Normalized()))
}

// SetListenerRotationEuler sets the orientation from yaw, pitch and roll in radians
func (c *Controller) SetListenerRotationEuler(yaw, pitch, roll float64) {
	c.SetListenerRotation(geom.QuatFromEuler(pitch, yaw, roll))
}

// ListenerRotation returns the listener orientation
func (c *Controller) ListenerRotation() geom.Quat {
	return *c.rotation.Load()
}

// SetFocus enables the focus effect, following the listener or a fixed orientation
func (c *Controller) SetFocus(enabled, followListener bool) error {
	sink, err := c.controlled()
	if err != nil {
		return err
	}
	sink.SetFocus(enabled, followListener)
	return nil
}

// SetFocusProperties sets the off-focus attenuation in dB and the focus width in degrees
func (c *Controller) SetFocusProperties(offFocusLevelDB, focusWidthDegrees float64) error {
	sink, err := c.controlled()
	if err != nil {
		return err
	}
	sink.SetFocusProperties(offFocusLevelDB, focusWidthDegrees)
	return nil
}

// Focus returns the focus settings of the open stream
func (c *Controller) Focus() (render.Focus, error) {
	sink, err := c.controlled()
	if err != nil {
		return render.Focus{}, err
	}
	return sink.Focus(), nil
}

// StartDevice starts the output device
func (c *Controller) StartDevice() error {
	sink, err := c.controlled()
	if err != nil {
		return err
	}
	return sink.StartDevice()
}

// SuspendDevice suspends the output device
func (c *Controller) SuspendDevice() error {
	sink, err := c.controlled()
	if err != nil {
		return err
	}
	return sink.SuspendDevice()
}

// SetVolume sets the device volume, 0-100. Streams without a device ignore it.
func (c *Controller) SetVolume(volume int) {
	volume = max(0, min(100, volume))
	c.volume.Store(int32(volume))
	if s := c.session.Load(); s != nil && s.sink.HasDevice() {
		s.sink.SetVolume(volume)
	}
}

// Volume returns the device volume
func (c *Controller) Volume() int {
	return int(c.volume.Load())
}

// SetMuted mutes or unmutes the device
func (c *Controller) SetMuted(muted bool) {
	c.muted.Store(muted)
	if s := c.session.Load(); s != nil && s.sink.HasDevice() {
		s.sink.SetMuted(muted)
	}
}

// Muted reports whether the device is muted
func (c *Controller) Muted() bool {
	return c.muted.Load()
}

// Mix pulls a stereo preview when the stream was opened without a device
func (c *Controller) Mix(out []float32) (int, error) {
	s := c.session.Load()
	if s == nil {
		clear(out)
		return 0, fmt.Errorf("no open stream: %w", audio.ErrNotInitialised)
	}
	return s.sink.Mix(out)
}

// Drained reports whether end of stream was reached and the queue is empty
func (c *Controller) Drained() bool {
	s := c.session.Load()
	return s != nil && s.sink.Queue().Drained()
}

// Info returns the audio stream being decoded
func (c *Controller) Info() (container.StreamInfo, error) {
	s := c.session.Load()
	if s == nil {
		return container.StreamInfo{}, ErrNotReady
	}
	return s.info, nil
}

// Layout returns the layout of the open stream
func (c *Controller) Layout() audio.ChannelLayout {
	s := c.session.Load()
	if s == nil {
		return audio.LayoutInvalid
	}
	return s.layout
}

// SampleRate returns the decoder sample rate, 0 when closed
func (c *Controller) SampleRate() int {
	s := c.session.Load()
	if s == nil {
		return 0
	}
	return s.sampleRate
}

// SessionID identifies the open stream in logs, empty when closed
func (c *Controller) SessionID() string {
	s := c.session.Load()
	if s == nil {
		return ""
	}
	return s.id
}
