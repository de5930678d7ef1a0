// Package recording reads the offline I/Q recording format (spec §6.2):
// a fixed 64-byte header followed by interleaved int16 samples. This core
// only consumes the format; nothing here ever writes one.
package recording

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Magic identifies a valid recording file.
const Magic uint32 = 0x57565243 // "WVRC"

const headerLen = 64

// Header is the fixed 64-byte recording header.
type Header struct {
	Magic         uint32
	Version       uint32
	SampleRate    float64
	CenterHz      float64
	BandwidthHz   uint32
	GainReduction uint32
	LNAState      uint32
	StartTimeUs   uint64
	SampleCount   uint64
	Flags         uint32
}

// ReadHeader parses the 64-byte header from r.
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, headerLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, fmt.Errorf("recording: read header: %w", err)
	}
	h := Header{
		Magic:         binary.LittleEndian.Uint32(buf[0:4]),
		Version:       binary.LittleEndian.Uint32(buf[4:8]),
		SampleRate:    math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
		CenterHz:      math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
		BandwidthHz:   binary.LittleEndian.Uint32(buf[24:28]),
		GainReduction: binary.LittleEndian.Uint32(buf[28:32]),
		LNAState:      binary.LittleEndian.Uint32(buf[32:36]),
		StartTimeUs:   binary.LittleEndian.Uint64(buf[36:44]),
		SampleCount:   binary.LittleEndian.Uint64(buf[44:52]),
		Flags:         binary.LittleEndian.Uint32(buf[52:56]),
		// bytes 56:64 are reserved and ignored.
	}
	if h.Magic != Magic {
		return Header{}, fmt.Errorf("recording: bad magic %#x", h.Magic)
	}
	return h, nil
}

// Reader streams samples out of a recording file after its header has
// been consumed, one I/Q pair at a time.
type Reader struct {
	Header Header
	r      *bufio.Reader
}

// Open reads the header from r and returns a Reader positioned at the
// first sample.
func Open(r io.Reader) (*Reader, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	return &Reader{Header: h, r: bufio.NewReader(r)}, nil
}

// Next returns the next I/Q sample pair, or io.EOF when the stream is
// exhausted.
func (rd *Reader) Next() (i, q int16, err error) {
	var buf [4]byte
	if _, err := io.ReadFull(rd.r, buf[:]); err != nil {
		return 0, 0, err
	}
	i = int16(binary.LittleEndian.Uint16(buf[0:2]))
	q = int16(binary.LittleEndian.Uint16(buf[2:4]))
	return i, q, nil
}
