// ABOUTME: Self-delimiting Opus packet framing
// ABOUTME: Splits a multistream packet into per-stream packets and joins them back
package multistream

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

// maxFrameLength is the largest length a frame length field can hold
const maxFrameLength = 1275

var errTruncated = errors.New("opus packet truncated")

// packet is one Opus packet broken into its parts
type packet struct {
	toc     byte
	count   byte   // code 3 frame count byte
	padLens []byte // code 3 padding length bytes
	padding []byte
	frames  [][]byte
}

func (p *packet) code() byte {
	return p.toc & 3
}

func (p *packet) vbr() bool {
	return p.count&0x80 != 0
}

// readLength decodes a one or two byte frame length
func readLength(b []byte) (n, size int, err error) {
	if len(b) < 1 {
		return 0, 0, errTruncated
	}
	if b[0] < 252 {
		return int(b[0]), 1, nil
	}
	if len(b) < 2 {
		return 0, 0, errTruncated
	}
	return int(b[1])*4 + int(b[0]), 2, nil
}

func appendLength(dst []byte, n int) []byte {
	if n < 252 {
		return append(dst, byte(n))
	}
	first := 252 + (n-252)%4
	return append(dst, byte(first), byte((n-first)/4))
}

// parse reads one packet from the front of b and returns it with the bytes it used.
// A self-delimited packet carries the length of its last frame; otherwise the
// packet runs to the end of b.
func parse(b []byte, selfDelimited bool) (p packet, used int, err error) {
	if len(b) < 1 {
		return p, 0, errTruncated
	}
	p.toc = b[0]
	pos := 1

	// take slices n bytes of frame data
	take := func(n int) ([]byte, error) {
		if n < 0 || n > maxFrameLength || pos+n > len(b) {
			return nil, errTruncated
		}
		f := b[pos : pos+n]
		pos += n
		return f, nil
	}
	length := func() (int, error) {
		n, size, err := readLength(b[pos:])
		pos += size
		return n, err
	}

	var lengths []int
	switch p.code() {
	case 0:
		n := len(b) - pos
		if selfDelimited {
			if n, err = length(); err != nil {
				return p, 0, err
			}
		}
		lengths = []int{n}

	case 1:
		var n int
		if selfDelimited {
			if n, err = length(); err != nil {
				return p, 0, err
			}
		} else {
			if (len(b)-pos)%2 != 0 {
				return p, 0, fmt.Errorf("code 1 packet with odd payload: %w", audio.ErrDecoderFail)
			}
			n = (len(b) - pos) / 2
		}
		lengths = []int{n, n}

	case 2:
		first, err := length()
		if err != nil {
			return p, 0, err
		}
		second := len(b) - pos - first
		if selfDelimited {
			if second, err = length(); err != nil {
				return p, 0, err
			}
		}
		lengths = []int{first, second}

	case 3:
		if pos >= len(b) {
			return p, 0, errTruncated
		}
		p.count = b[pos]
		pos++
		frames := int(p.count & 0x3f)
		if frames == 0 {
			return p, 0, fmt.Errorf("code 3 packet without frames: %w", audio.ErrDecoderFail)
		}

		padding := 0
		if p.count&0x40 != 0 {
			start := pos
			for {
				if pos >= len(b) {
					return p, 0, errTruncated
				}
				v := int(b[pos])
				pos++
				if v == 255 {
					padding += 254
					continue
				}
				padding += v
				break
			}
			p.padLens = b[start:pos]
		}

		lengths = make([]int, frames)
		if p.vbr() {
			total := 0
			for i := 0; i < frames-1; i++ {
				if lengths[i], err = length(); err != nil {
					return p, 0, err
				}
				total += lengths[i]
			}
			last := len(b) - pos - padding - total
			if selfDelimited {
				if last, err = length(); err != nil {
					return p, 0, err
				}
			}
			lengths[frames-1] = last
		} else {
			var each int
			if selfDelimited {
				if each, err = length(); err != nil {
					return p, 0, err
				}
			} else {
				rest := len(b) - pos - padding
				if rest < 0 || rest%frames != 0 {
					return p, 0, fmt.Errorf("code 3 CBR payload of %d bytes for %d frames: %w", rest, frames, audio.ErrDecoderFail)
				}
				each = rest / frames
			}
			for i := range lengths {
				lengths[i] = each
			}
		}

		defer func() {
			if err == nil {
				if pos+padding > len(b) {
					err = errTruncated
					return
				}
				p.padding = b[pos : pos+padding]
				used = pos + padding
			}
		}()
	}

	for _, n := range lengths {
		f, err := take(n)
		if err != nil {
			return p, 0, err
		}
		p.frames = append(p.frames, f)
	}
	return p, pos, nil
}

// marshal writes the packet, with the extra length field when selfDelimited
func (p *packet) marshal(selfDelimited bool) []byte {
	out := []byte{p.toc}
	last := p.frames[len(p.frames)-1]

	switch p.code() {
	case 0, 1:
		if selfDelimited {
			out = appendLength(out, len(p.frames[0]))
		}
	case 2:
		out = appendLength(out, len(p.frames[0]))
		if selfDelimited {
			out = appendLength(out, len(last))
		}
	case 3:
		out = append(out, p.count)
		out = append(out, p.padLens...)
		if p.vbr() {
			for _, f := range p.frames[:len(p.frames)-1] {
				out = appendLength(out, len(f))
			}
		}
		if selfDelimited {
			out = appendLength(out, len(last))
		}
	}

	for _, f := range p.frames {
		out = append(out, f...)
	}
	return append(out, p.padding...)
}

// Split breaks a multistream packet into one standard packet per stream
func Split(data []byte, streams int) ([][]byte, error) {
	if streams < 1 {
		return nil, fmt.Errorf("split into %d streams: %w", streams, audio.ErrInvalidParam)
	}

	out := make([][]byte, streams)
	for i := 0; i < streams-1; i++ {
		p, used, err := parse(data, true)
		if err != nil {
			return nil, fmt.Errorf("stream %d of %d: %w", i, streams, err)
		}
		out[i] = p.marshal(false)
		data = data[used:]
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("stream %d of %d: %w", streams-1, streams, errTruncated)
	}
	out[streams-1] = data
	return out, nil
}

// Join packs one standard packet per stream into a multistream packet
func Join(packets [][]byte) ([]byte, error) {
	if len(packets) == 0 {
		return nil, fmt.Errorf("join without packets: %w", audio.ErrInvalidParam)
	}

	var out []byte
	for i, data := range packets[:len(packets)-1] {
		p, _, err := parse(data, false)
		if err != nil {
			return nil, fmt.Errorf("stream %d: %w", i, err)
		}
		out = append(out, p.marshal(true)...)
	}
	return append(out, packets[len(packets)-1]...), nil
}
