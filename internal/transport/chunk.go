package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/junsooki/glimshow/internal/codec"
)

// HeaderLen is the size of the header in front of every chunk:
// seq u32, index u16, count u16, codec u8, 3 reserved bytes.
const HeaderLen = 12

// MaxChunkPayload keeps each data channel message under the 64 KiB SCTP
// message limit.
const MaxChunkPayload = 60 * 1024

var (
	ErrChunkHeader   = errors.New("transport: malformed chunk header")
	ErrChunkCount    = errors.New("transport: chunk count changed within a frame")
	ErrFrameTooLarge = errors.New("transport: frame needs more than 65535 chunks")
)

// Header describes one chunk of a frame.
type Header struct {
	Seq   uint32
	Index uint16
	Count uint16
	Codec codec.ID
}

// Frame is a reassembled encoded frame.
type Frame struct {
	Seq   uint32
	Codec codec.ID
	Data  []byte
}

func putHeader(b []byte, h Header) {
	binary.BigEndian.PutUint32(b[0:4], h.Seq)
	binary.BigEndian.PutUint16(b[4:6], h.Index)
	binary.BigEndian.PutUint16(b[6:8], h.Count)
	b[8] = byte(h.Codec)
	b[9], b[10], b[11] = 0, 0, 0
}

// ParseChunk splits a chunk into its header and payload. The payload
// aliases b.
func ParseChunk(b []byte) (Header, []byte, error) {
	if len(b) < HeaderLen {
		return Header{}, nil, fmt.Errorf("%w: %d bytes", ErrChunkHeader, len(b))
	}
	h := Header{
		Seq:   binary.BigEndian.Uint32(b[0:4]),
		Index: binary.BigEndian.Uint16(b[4:6]),
		Count: binary.BigEndian.Uint16(b[6:8]),
		Codec: codec.ID(b[8]),
	}
	if h.Count == 0 || h.Index >= h.Count {
		return Header{}, nil, fmt.Errorf("%w: index %d of %d", ErrChunkHeader, h.Index, h.Count)
	}
	return h, b[HeaderLen:], nil
}

// Split cuts an encoded frame into chunks of at most maxPayload bytes
// each. An empty frame still produces one chunk.
func Split(seq uint32, id codec.ID, data []byte, maxPayload int) ([][]byte, error) {
	if maxPayload <= 0 {
		maxPayload = MaxChunkPayload
	}
	count := (len(data) + maxPayload - 1) / maxPayload
	if count == 0 {
		count = 1
	}
	if count > math.MaxUint16 {
		return nil, ErrFrameTooLarge
	}
	chunks := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		start := i * maxPayload
		end := min(start+maxPayload, len(data))
		b := make([]byte, HeaderLen+end-start)
		putHeader(b, Header{Seq: seq, Index: uint16(i), Count: uint16(count), Codec: id})
		copy(b[HeaderLen:], data[start:end])
		chunks = append(chunks, b)
	}
	return chunks, nil
}

// newer reports whether sequence a comes after b, allowing wraparound.
func newer(a, b uint32) bool {
	return int32(a-b) > 0
}

// Assembler rebuilds frames from chunks. Only one frame is assembled at a
// time: a chunk of a newer frame abandons the partial one, and chunks of
// frames older than the last completed or current one are dropped.
type Assembler struct {
	active bool
	seq    uint32
	codec  codec.ID
	parts  [][]byte
	got    int

	hasLast bool
	last    uint32

	dropped int
}

// Add feeds one chunk. It returns the frame and true once all of its
// chunks have arrived.
func (a *Assembler) Add(chunk []byte) (Frame, bool, error) {
	h, payload, err := ParseChunk(chunk)
	if err != nil {
		return Frame{}, false, err
	}
	if a.hasLast && !newer(h.Seq, a.last) {
		return Frame{}, false, nil
	}
	if a.active && h.Seq != a.seq {
		if !newer(h.Seq, a.seq) {
			return Frame{}, false, nil
		}
		a.dropped++
		a.active = false
	}
	if !a.active {
		a.active = true
		a.seq = h.Seq
		a.codec = h.Codec
		a.parts = make([][]byte, h.Count)
		a.got = 0
	}
	if int(h.Count) != len(a.parts) {
		return Frame{}, false, fmt.Errorf("%w: seq %d had %d chunks, now %d", ErrChunkCount, h.Seq, len(a.parts), h.Count)
	}
	if a.parts[h.Index] == nil {
		a.parts[h.Index] = append([]byte{}, payload...)
		a.got++
	}
	if a.got < len(a.parts) {
		return Frame{}, false, nil
	}

	size := 0
	for _, p := range a.parts {
		size += len(p)
	}
	data := make([]byte, 0, size)
	for _, p := range a.parts {
		data = append(data, p...)
	}
	f := Frame{Seq: a.seq, Codec: a.codec, Data: data}
	a.active = false
	a.parts = nil
	a.hasLast = true
	a.last = f.Seq
	return f, true, nil
}

// Dropped returns how many partially received frames were abandoned.
func (a *Assembler) Dropped() int {
	return a.dropped
}
