// Package wwvframe decodes the inbound I/Q frame protocol (spec §6.1): a
// one-time stream header followed by a continuous sequence of sample
// frames carried over RTP (grounded on the teacher's audio.go, which
// unmarshals ka9q-radio's own RTP-wrapped PCM stream the same way).
package wwvframe

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pion/rtp"
)

// StreamMagic and FrameMagic identify the two binary layouts on the wire.
// Values are arbitrary but must match the acquisition collaborator.
const (
	StreamMagic uint32 = 0x57575647 // "WWVG" stream header
	FrameMagic  uint32 = 0x57575646 // "WWVF" continuous frame
)

// FlagReset marks a frame as following an upstream discontinuity: every
// stateful stage downstream must reset (spec §6.1).
const FlagReset uint32 = 1 << 0

// StreamHeader is the one-time descriptor sent before any sample frames.
type StreamHeader struct {
	Magic       uint32
	Version     uint32
	SampleRate  float64
	CenterHz    float64
	SampleFmt   uint32 // always int16-interleaved in this protocol version
}

const streamHeaderLen = 4 + 4 + 8 + 8 + 4

// DecodeStreamHeader parses the fixed-size stream header from buf.
func DecodeStreamHeader(buf []byte) (StreamHeader, error) {
	if len(buf) < streamHeaderLen {
		return StreamHeader{}, fmt.Errorf("wwvframe: stream header too short: %d bytes", len(buf))
	}
	h := StreamHeader{
		Magic:      binary.LittleEndian.Uint32(buf[0:4]),
		Version:    binary.LittleEndian.Uint32(buf[4:8]),
		SampleRate: math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
		CenterHz:   math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
		SampleFmt:  binary.LittleEndian.Uint32(buf[24:28]),
	}
	if h.Magic != StreamMagic {
		return StreamHeader{}, fmt.Errorf("wwvframe: bad stream magic %#x", h.Magic)
	}
	return h, nil
}

// Frame is one decoded continuous I/Q frame: a parsed header plus the
// interleaved int16 I/Q payload as float64 pairs ready for the decimator.
type Frame struct {
	SequenceNumber uint32
	SampleCount    uint32
	Reset          bool
	Samples        [][2]int16 // I, Q pairs, in wire order
}

// DecodeFrame parses one continuous frame's application payload (the part
// after the RTP header has already been stripped by the caller via
// pion/rtp, matching the teacher's packet.Unmarshal + routeAudio split).
func DecodeFrame(payload []byte) (Frame, error) {
	const frameHeaderLen = 4 + 4 + 4 + 4
	if len(payload) < frameHeaderLen {
		return Frame{}, fmt.Errorf("wwvframe: frame header too short: %d bytes", len(payload))
	}
	magic := binary.LittleEndian.Uint32(payload[0:4])
	if magic != FrameMagic {
		return Frame{}, fmt.Errorf("wwvframe: bad frame magic %#x", magic)
	}
	seq := binary.LittleEndian.Uint32(payload[4:8])
	count := binary.LittleEndian.Uint32(payload[8:12])
	flags := binary.LittleEndian.Uint32(payload[12:16])

	want := frameHeaderLen + int(count)*4
	if len(payload) < want {
		return Frame{}, fmt.Errorf("wwvframe: frame payload too short: have %d, want %d", len(payload), want)
	}

	samples := make([][2]int16, count)
	off := frameHeaderLen
	for i := uint32(0); i < count; i++ {
		iv := int16(binary.LittleEndian.Uint16(payload[off : off+2]))
		qv := int16(binary.LittleEndian.Uint16(payload[off+2 : off+4]))
		samples[i] = [2]int16{iv, qv}
		off += 4
	}

	return Frame{
		SequenceNumber: seq,
		SampleCount:    count,
		Reset:          flags&FlagReset != 0,
		Samples:        samples,
	}, nil
}

// DecodeRTPPacket unmarshals an RTP packet (as delivered by the UDP
// receive loop in internal/iqsource) and decodes its payload as one
// continuous frame.
func DecodeRTPPacket(buf []byte) (Frame, error) {
	packet := &rtp.Packet{}
	if err := packet.Unmarshal(buf); err != nil {
		return Frame{}, fmt.Errorf("wwvframe: rtp unmarshal: %w", err)
	}
	return DecodeFrame(packet.Payload)
}
