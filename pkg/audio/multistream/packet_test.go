// ABOUTME: Tests for multistream packet framing
// ABOUTME: Joins and splits packets of every frame packing code
package multistream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func frame(n int, fill byte) []byte {
	return bytes.Repeat([]byte{fill}, n)
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func TestLengthEncoding(t *testing.T) {
	for _, n := range []int{0, 1, 251, 252, 253, 300, 1000, 1275} {
		b := appendLength(nil, n)
		got, size, err := readLength(b)
		if err != nil {
			t.Fatalf("length %d: %v", n, err)
		}
		if got != n || size != len(b) {
			t.Errorf("length %d decoded as %d using %d of %d bytes", n, got, size, len(b))
		}
	}
}

func TestSplitJoinCodes(t *testing.T) {
	packets := map[string][]byte{
		"code 0":          concat([]byte{0xF8}, frame(40, 1)),
		"code 0 long":     concat([]byte{0xF8}, frame(400, 2)),
		"code 0 empty":    {0xF8},
		"code 1":          concat([]byte{0xF9}, frame(30, 3), frame(30, 4)),
		"code 2":          concat([]byte{0xFA, 20}, frame(20, 5), frame(33, 6)),
		"code 3 cbr":      concat([]byte{0xFB, 0x03}, frame(10, 7), frame(10, 8), frame(10, 9)),
		"code 3 vbr":      concat([]byte{0xFB, 0x83, 5, 252, 2}, frame(5, 1), frame(260, 2), frame(7, 3)),
		"code 3 padded":   concat([]byte{0xFB, 0x42, 255, 3}, frame(8, 1), frame(8, 2), frame(257, 0)),
		"code 3 vbr pad":  concat([]byte{0xFB, 0xC2, 2, 4}, frame(4, 1), frame(6, 2), frame(2, 0)),
		"silk mono 60 ms": concat([]byte{0x18}, frame(12, 9)),
	}

	for name, first := range packets {
		t.Run(name, func(t *testing.T) {
			last := concat([]byte{0xF8}, frame(17, 0xEE))
			streams := [][]byte{first, first, last}

			joined, err := Join(streams)
			if err != nil {
				t.Fatalf("join failed: %v", err)
			}
			split, err := Split(joined, len(streams))
			if err != nil {
				t.Fatalf("split failed: %v", err)
			}
			if diff := cmp.Diff(streams, split); diff != "" {
				t.Errorf("streams mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitSingleStreamIsIdentity(t *testing.T) {
	data := concat([]byte{0xF8}, frame(50, 1))
	split, err := Split(data, 1)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(split) != 1 || !bytes.Equal(split[0], data) {
		t.Errorf("expected the packet back unchanged, got %x", split)
	}
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		streams int
	}{
		{"no streams", []byte{0xF8}, 0},
		{"empty", nil, 2},
		{"length past end", []byte{0xF8, 10, 1, 2}, 2},
		{"missing last stream", concat([]byte{0xF8, 2}, frame(2, 1)), 2},
		{"code 3 without frames", []byte{0xFB, 0x00, 0}, 2},
		{"padding past end", []byte{0xFB, 0x41, 200, 1, 0}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Split(tt.data, tt.streams); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestJoinRejectsMalformedPackets(t *testing.T) {
	_, err := Join([][]byte{{0xF9, 1, 2, 3}, {0xF8}})
	if err == nil {
		t.Fatal("expected odd code 1 payload to fail")
	}
	if _, err := Join(nil); err == nil {
		t.Error("expected join without packets to fail")
	}
	if _, err := Join([][]byte{nil, {0xF8}}); !errors.Is(err, errTruncated) {
		t.Errorf("expected truncated error, got %v", err)
	}
}
