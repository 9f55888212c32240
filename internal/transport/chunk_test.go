package transport

import (
	"bytes"
	"errors"
	"testing"

	"github.com/junsooki/glimshow/internal/codec"
)

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		max       int
		wantCount int
	}{
		{"empty", 0, 10, 1},
		{"exact", 30, 10, 3},
		{"remainder", 31, 10, 4},
		{"single", 5, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Split(9, codec.PNG, payload(tt.size), tt.max)
			if err != nil {
				t.Fatal(err)
			}
			if len(chunks) != tt.wantCount {
				t.Fatalf("len(chunks) = %d, want %d", len(chunks), tt.wantCount)
			}
			for i, c := range chunks {
				h, p, err := ParseChunk(c)
				if err != nil {
					t.Fatal(err)
				}
				if h.Seq != 9 || h.Index != uint16(i) || h.Count != uint16(tt.wantCount) || h.Codec != codec.PNG {
					t.Errorf("chunk %d header = %+v", i, h)
				}
				if len(p) > tt.max {
					t.Errorf("chunk %d payload %d > %d", i, len(p), tt.max)
				}
			}
		})
	}
}

func TestSplit_TooLarge(t *testing.T) {
	if _, err := Split(1, codec.Raw, make([]byte, 70000), 1); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("Split() error = %v, want ErrFrameTooLarge", err)
	}
}

func TestParseChunk_Invalid(t *testing.T) {
	bad := make([]byte, HeaderLen)
	putHeader(bad, Header{Seq: 1, Index: 2, Count: 2})
	for name, b := range map[string][]byte{
		"short":        {1, 2, 3},
		"index>=count": bad,
		"zero count":   make([]byte, HeaderLen),
	} {
		if _, _, err := ParseChunk(b); !errors.Is(err, ErrChunkHeader) {
			t.Errorf("%s: error = %v, want ErrChunkHeader", name, err)
		}
	}
}

func TestAssembler_OutOfOrderAndDuplicates(t *testing.T) {
	data := payload(95)
	chunks, _ := Split(3, codec.Raw, data, 10)
	order := []int{9, 0, 5, 5, 1, 2, 3, 4, 6, 7, 8}

	var a Assembler
	var got Frame
	done := 0
	for _, i := range order {
		f, ok, err := a.Add(chunks[i])
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			got = f
			done++
		}
	}
	if done != 1 {
		t.Fatalf("completed %d frames, want 1", done)
	}
	if got.Seq != 3 || got.Codec != codec.Raw || !bytes.Equal(got.Data, data) {
		t.Errorf("frame = seq %d codec %v len %d", got.Seq, got.Codec, len(got.Data))
	}
}

func TestAssembler_DropsStale(t *testing.T) {
	old, _ := Split(1, codec.Raw, payload(20), 10)
	cur, _ := Split(2, codec.Raw, payload(20), 10)

	var a Assembler
	a.Add(old[0])
	// A newer frame abandons the partial one.
	a.Add(cur[0])
	if _, ok, _ := a.Add(old[1]); ok {
		t.Fatal("stale frame completed")
	}
	f, ok, err := a.Add(cur[1])
	if err != nil || !ok || f.Seq != 2 {
		t.Fatalf("Add() = %v, %v, %v", f.Seq, ok, err)
	}
	if a.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", a.Dropped())
	}
	// Replays of a completed frame are ignored.
	if _, ok, _ := a.Add(cur[0]); ok {
		t.Error("replayed chunk started a new frame")
	}
}

func TestAssembler_Wraparound(t *testing.T) {
	var a Assembler
	for _, seq := range []uint32{0xfffffffe, 0xffffffff, 0, 1} {
		c, _ := Split(seq, codec.Raw, payload(4), 10)
		if _, ok, err := a.Add(c[0]); err != nil || !ok {
			t.Fatalf("seq %#x: ok=%v err=%v", seq, ok, err)
		}
	}
}

func TestAssembler_CountChange(t *testing.T) {
	a3, _ := Split(5, codec.Raw, payload(30), 10)
	a2, _ := Split(5, codec.Raw, payload(20), 10)
	var a Assembler
	a.Add(a3[0])
	if _, _, err := a.Add(a2[1]); !errors.Is(err, ErrChunkCount) {
		t.Errorf("Add() error = %v, want ErrChunkCount", err)
	}
}
