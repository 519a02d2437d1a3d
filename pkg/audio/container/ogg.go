// ABOUTME: Ogg Opus demuxer
// ABOUTME: Extracts mono, stereo and multistream Opus packets with timestamps from packet TOC bytes
package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/jonas747/ogg"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/multistream"
)

// opusTimeBase is fixed by the Ogg Opus mapping
var opusTimeBase = Rational{Num: 1, Den: 48000}

// opusMaxFrames is 120 ms at 48 kHz, the longest Opus packet
const opusMaxFrames = 5760

// oggMaxPage is the largest possible Ogg page
const oggMaxPage = ogg.HeaderSize + ogg.MaxSegmentSize + ogg.MaxPacketSize

// OggOpus demuxes Opus packets from an Ogg stream.
// Seeking bisects on page granule positions, then skips forward packet by packet.
type OggOpus struct {
	src     io.ReadSeeker
	dec     *ogg.PacketDecoder
	info    StreamInfo
	head    multistream.Head
	preSkip int64

	// dataStart is the offset of the first page after the headers
	dataStart int64
	size      int64

	// granule counts 48 kHz samples of every packet handed out so far
	granule int64
	pending *Packet
}

// countingReader tracks how far the ogg decoder has read
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// NewOggOpus parses the OpusHead and OpusTags headers of src and reads the
// duration from the last page
func NewOggOpus(src io.ReadSeeker) (*OggOpus, error) {
	d := &OggOpus{src: src}
	raw, err := d.rewind()
	if err != nil {
		return nil, err
	}

	d.head, err = multistream.ParseHead(raw)
	if err != nil {
		return nil, fmt.Errorf("bad OpusHead: %w", err)
	}
	d.preSkip = int64(d.head.PreSkip)

	d.info = StreamInfo{
		Index: 0,
		Type:  MediaAudio,
		Format: audio.Format{
			Codec:              audio.CodecOpus,
			SampleRate:         48000,
			Channels:           d.head.Channels,
			CodecHeader:        raw,
			MaxFramesPerPacket: opusMaxFrames,
		},
		TimeBase: opusTimeBase,
		Duration: -1,
	}

	if d.size, err = src.Seek(0, io.SeekEnd); err != nil {
		return nil, fmt.Errorf("failed to size ogg stream: %w", err)
	}
	if last := d.lastGranule(); last > d.preSkip {
		d.info.Duration = last - d.preSkip
	}
	if _, err := src.Seek(d.dataStart, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to return to the first ogg page: %w", err)
	}
	return d, nil
}

func openOggOpus(src io.ReadSeeker) (Demuxer, error) {
	return NewOggOpus(src)
}

// rewind restarts the packet reader and consumes both header packets
func (d *OggOpus) rewind() ([]byte, error) {
	if _, err := d.src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind ogg stream: %w", err)
	}
	counter := &countingReader{r: d.src}
	d.dec = ogg.NewPacketDecoder(ogg.NewDecoder(counter))
	d.granule = 0
	d.pending = nil

	head, _, err := d.dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to read OpusHead: %w", err)
	}
	if len(head) < 19 || !bytes.HasPrefix(head, []byte("OpusHead")) {
		return nil, fmt.Errorf("first ogg packet is not OpusHead: %w", audio.ErrInvalidHeader)
	}

	tags, _, err := d.dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to read OpusTags: %w", err)
	}
	if !bytes.HasPrefix(tags, []byte("OpusTags")) {
		return nil, fmt.Errorf("second ogg packet is not OpusTags: %w", audio.ErrInvalidHeader)
	}
	d.dataStart = counter.n

	// Copy so later page reads cannot alias the header
	return append([]byte(nil), head...), nil
}

// pageAt returns the first intact page starting at or after off with its byte range
func (d *OggOpus) pageAt(off int64) (page ogg.Page, start, end int64, err error) {
	if _, err = d.src.Seek(off, io.SeekStart); err != nil {
		return page, 0, 0, err
	}
	counter := &countingReader{r: d.src}
	dec := ogg.NewDecoder(counter)
	for {
		page, err = dec.Decode()
		var crcErr ogg.ErrBadCrc
		if errors.As(err, &crcErr) {
			// Capture pattern inside packet data, keep looking
			continue
		}
		if err != nil {
			return page, 0, 0, err
		}
		end = off + counter.n
		start = end - int64(ogg.HeaderSize+len(page.SegTbl)+len(page.Data))
		return page, start, end, nil
	}
}

// lastGranule returns the highest granule position among the final pages, -1 if none
func (d *OggOpus) lastGranule() int64 {
	last := int64(-1)
	off := max(d.dataStart, d.size-oggMaxPage)
	for {
		page, _, end, err := d.pageAt(off)
		if err != nil {
			return last
		}
		last = max(last, page.Granule)
		off = end
	}
}

// Streams returns the single Opus stream
func (d *OggOpus) Streams() []StreamInfo {
	return []StreamInfo{d.info}
}

// ReadPacket returns the next Opus packet with its presentation timestamp
func (d *OggOpus) ReadPacket() (Packet, error) {
	if d.pending != nil {
		pkt := *d.pending
		d.pending = nil
		return pkt, nil
	}

	for {
		data, _, err := d.dec.Decode()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return Packet{}, io.EOF
			}
			return Packet{}, fmt.Errorf("failed to read ogg packet: %w", err)
		}
		if len(data) == 0 {
			// Empty end-of-stream packets carry no audio
			continue
		}

		pkt := Packet{
			StreamIndex: 0,
			PTS:         d.granule - d.preSkip,
			Data:        append([]byte(nil), data...),
		}
		d.granule += int64(opusPacketFrames(data))
		return pkt, nil
	}
}

// Seek positions the demuxer on the packet that contains ts
func (d *OggOpus) Seek(ts int64) error {
	if ts <= -d.preSkip {
		_, err := d.rewind()
		return err
	}

	found, err := d.bisect(ts + d.preSkip)
	if err != nil {
		return err
	}
	if !found {
		if _, err := d.rewind(); err != nil {
			return err
		}
	}

	for {
		pkt, err := d.ReadPacket()
		if err == io.EOF {
			// Past the end: the next read reports EOF
			return nil
		}
		if err != nil {
			return err
		}
		if pkt.PTS+int64(opusPacketFrames(pkt.Data)) > ts {
			d.pending = &pkt
			return nil
		}
	}
}

// bisect positions the reader after the last page whose granule position is
// at most target. It reports false when no such page can be used, in which
// case the caller reads from the start.
func (d *OggOpus) bisect(target int64) (bool, error) {
	var found bool
	var resume, granule int64

	lo, hi := d.dataStart, d.size
	for lo < hi {
		mid := lo + (hi-lo)/2
		page, start, end, err := d.pageAt(mid)
		switch {
		case err != nil || start >= hi:
			hi = mid
		case page.Granule < 0 || len(page.Data) == 0 || page.Granule > target:
			// Pages that finish no packet do not tell where they are
			hi = mid
		default:
			found, resume, granule = true, end, page.Granule
			lo = end
		}
	}
	if !found {
		return false, nil
	}

	// A packet continued from the previous page started before granule
	if next, _, _, err := d.pageAt(resume); err == nil && next.Type&ogg.COP != 0 {
		return false, nil
	}

	if _, err := d.src.Seek(resume, io.SeekStart); err != nil {
		return false, fmt.Errorf("failed to seek ogg stream: %w", err)
	}
	d.dec = ogg.NewPacketDecoder(ogg.NewDecoder(d.src))
	d.granule = granule
	d.pending = nil
	return true, nil
}

// Close closes the underlying source
func (d *OggOpus) Close() error {
	return closeSource(d.src)
}

// opusPacketFrames returns the 48 kHz sample count of an Opus packet from its TOC byte
func opusPacketFrames(packet []byte) int {
	if len(packet) == 0 {
		return 0
	}
	toc := packet[0]
	config := toc >> 3

	var frameSize int
	switch {
	case config < 12: // SILK: 10, 20, 40, 60 ms
		frameSize = [4]int{480, 960, 1920, 2880}[config&3]
	case config < 16: // hybrid: 10, 20 ms
		frameSize = [2]int{480, 960}[config&1]
	default: // CELT: 2.5, 5, 10, 20 ms
		frameSize = [4]int{120, 240, 480, 960}[config&3]
	}

	switch toc & 3 {
	case 0:
		return frameSize
	case 1, 2:
		return 2 * frameSize
	default:
		if len(packet) < 2 {
			return 0
		}
		return int(packet[1]&0x3f) * frameSize
	}
}
