// ABOUTME: Fake demuxer, decoder and output for controller tests
// ABOUTME: Packets carry their index so tests can tell which packet was decoded
package stream

import (
	"errors"
	"io"
	"sync"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/container"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/output"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/queue"
	"github.com/Resonate-Protocol/spatial-go/pkg/geom"
	"github.com/Resonate-Protocol/spatial-go/pkg/render"
)

var errBoom = errors.New("boom")

// fakeDemuxer produces packets of a fixed frame count at a 48 kHz time base
type fakeDemuxer struct {
	channels        int
	framesPerPacket int
	packets         int
	streams         []container.StreamInfo

	// otherEvery inserts a non-audio packet before every n-th audio packet
	otherEvery int
	readErrAt  int // packet index that fails to read, -1 for none
	seekErr    error

	next      int
	sentOther bool
	seeks     []int64
	reads     int
	closed    bool
}

func newFakeDemuxer(channels, framesPerPacket, packets int) *fakeDemuxer {
	return &fakeDemuxer{
		channels:        channels,
		framesPerPacket: framesPerPacket,
		packets:         packets,
		readErrAt:       -1,
		streams: []container.StreamInfo{{
			Index: 0,
			Type:  container.MediaAudio,
			Format: audio.Format{
				Codec:              "fake",
				SampleRate:         48000,
				Channels:           channels,
				MaxFramesPerPacket: framesPerPacket,
			},
			TimeBase: container.Rational{Num: 1, Den: 48000},
			Duration: int64(framesPerPacket * packets),
		}},
	}
}

func (d *fakeDemuxer) Streams() []container.StreamInfo {
	return d.streams
}

func (d *fakeDemuxer) ReadPacket() (container.Packet, error) {
	d.reads++
	if d.next >= d.packets {
		return container.Packet{}, io.EOF
	}
	if d.next == d.readErrAt {
		return container.Packet{}, errBoom
	}
	if d.otherEvery > 0 && d.next%d.otherEvery == 0 && !d.sentOther {
		d.sentOther = true
		return container.Packet{StreamIndex: 7, PTS: 0, Data: []byte{0xFF}}, nil
	}
	d.sentOther = false

	pkt := container.Packet{
		StreamIndex: 0,
		PTS:         int64(d.next * d.framesPerPacket),
		Data:        []byte{byte(d.next), byte(d.next >> 8)},
	}
	d.next++
	return pkt, nil
}

func (d *fakeDemuxer) Seek(ts int64) error {
	if d.seekErr != nil {
		return d.seekErr
	}
	d.seeks = append(d.seeks, ts)
	if ts < 0 {
		ts = 0
	}
	d.next = int(ts) / d.framesPerPacket
	d.sentOther = false
	return nil
}

func (d *fakeDemuxer) Close() error {
	d.closed = true
	return nil
}

// fakeDecoder writes the packet index into every sample of a full packet
type fakeDecoder struct {
	channels        int
	framesPerPacket int
	decodeErrAt     int // packet index that fails, -1 for none
	emptyAt         int // packet index that decodes to nothing, -1 for none

	flushes []bool
	closed  bool
}

func (d *fakeDecoder) Decode(packet []byte, out []float32) (int, error) {
	index := int(packet[0]) | int(packet[1])<<8
	if index == d.decodeErrAt {
		return 0, errBoom
	}
	if index == d.emptyAt {
		return 0, nil
	}
	n := d.framesPerPacket * d.channels
	for i := 0; i < n; i++ {
		out[i] = float32(index)
	}
	return n, nil
}

func (d *fakeDecoder) Flush(resetToZero bool) {
	d.flushes = append(d.flushes, resetToZero)
}

func (d *fakeDecoder) SampleRate() int {
	return 48000
}

func (d *fakeDecoder) Channels() int {
	return d.channels
}

func (d *fakeDecoder) MaxBufferSizePerChannel() int {
	return d.framesPerPacket
}

func (d *fakeDecoder) Name() string {
	return "fake"
}

func (d *fakeDecoder) Close() error {
	d.closed = true
	return nil
}

// fixture wires a fake demuxer and decoder into controller options
type fixture struct {
	demuxer *fakeDemuxer
	decoder *fakeDecoder
	opts    Options
}

func newFixture(channels, framesPerPacket, packets, queueFrames int) *fixture {
	f := &fixture{
		demuxer: newFakeDemuxer(channels, framesPerPacket, packets),
		decoder: &fakeDecoder{
			channels:        channels,
			framesPerPacket: framesPerPacket,
			decodeErrAt:     -1,
			emptyAt:         -1,
		},
	}
	f.opts = Options{
		OpenDemuxer: func(string) (container.Demuxer, error) {
			return f.demuxer, nil
		},
		NewDecoder: func(audio.Format) (decode.Decoder, error) {
			return f.decoder, nil
		},
		NewOutput: func() (output.Output, error) {
			return nil, errors.New("no device in tests")
		},
		QueueFramesPerChannel: queueFrames,
	}
	return f
}

// fakeOutput is a device that never runs a callback
type fakeOutput struct {
	mu      sync.Mutex
	started bool
	closed  bool
	volume  int
	muted   bool
}

func (o *fakeOutput) Open(sampleRate, channels, bitDepth int, src output.Source) error {
	return nil
}

func (o *fakeOutput) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = true
	return nil
}

func (o *fakeOutput) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = false
	return nil
}

func (o *fakeOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

func (o *fakeOutput) SetVolume(v int) { o.volume = v }
func (o *fakeOutput) GetVolume() int  { return o.volume }
func (o *fakeOutput) SetMuted(m bool) { o.muted = m }
func (o *fakeOutput) IsMuted() bool   { return o.muted }
func (o *fakeOutput) Name() string    { return "fake" }

// fakeSink records what the controller asks of the renderer
type fakeSink struct {
	config   render.Config
	queue    *queue.Queue
	rotation geom.Quat
	focus    render.Focus
	plays    int
	pauses   int
	starts   int
	closed   bool
}

func newFakeSink(config render.Config) (*fakeSink, error) {
	q, err := queue.New(config.Layout, config.FramesPerChannel)
	if err != nil {
		return nil, err
	}
	return &fakeSink{config: config, queue: q, rotation: geom.Identity()}, nil
}

func (s *fakeSink) Play() error {
	s.plays++
	return s.queue.Play()
}

func (s *fakeSink) Pause() error {
	s.pauses++
	return s.queue.Pause()
}

func (s *fakeSink) PlayState() audio.PlayState      { return s.queue.PlayState() }
func (s *fakeSink) SetListenerRotation(q geom.Quat) { s.rotation = q }
func (s *fakeSink) ListenerRotation() geom.Quat     { return s.rotation }
func (s *fakeSink) SetFocusOrientation(q geom.Quat) { s.focus.Orientation = q }
func (s *fakeSink) Focus() render.Focus             { return s.focus }
func (s *fakeSink) Queue() *queue.Queue             { return s.queue }
func (s *fakeSink) SuspendDevice() error            { return nil }
func (s *fakeSink) SetVolume(volume int) error      { return nil }
func (s *fakeSink) SetMuted(muted bool) error       { return nil }
func (s *fakeSink) HasDevice() bool                 { return s.config.Output != nil }
func (s *fakeSink) Mix(out []float32) (int, error)  { return s.queue.Dequeue(out), nil }

func (s *fakeSink) SetFocus(enabled, followListener bool) {
	s.focus.Enabled = enabled
	s.focus.FollowListener = followListener
}

func (s *fakeSink) SetFocusProperties(offFocusLevelDB, focusWidthDegrees float64) {
	s.focus.OffFocusLevelDB = offFocusLevelDB
	s.focus.WidthDegrees = focusWidthDegrees
}

func (s *fakeSink) StartDevice() error {
	s.starts++
	return nil
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}
