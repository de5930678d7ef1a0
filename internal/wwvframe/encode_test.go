package wwvframe

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/pion/rtp"
)

func encodeStreamHeader(sampleRate, centerHz float64) []byte {
	buf := make([]byte, streamHeaderLen)
	binary.LittleEndian.PutUint32(buf[0:4], StreamMagic)
	binary.LittleEndian.PutUint32(buf[4:8], 1)
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(sampleRate))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(centerHz))
	binary.LittleEndian.PutUint32(buf[24:28], 0)
	return buf
}

func encodeFrame(seq uint32, samples [][2]int16, reset bool) []byte {
	const frameHeaderLen = 16
	buf := make([]byte, frameHeaderLen+len(samples)*4)
	binary.LittleEndian.PutUint32(buf[0:4], FrameMagic)
	binary.LittleEndian.PutUint32(buf[4:8], seq)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(samples)))
	var flags uint32
	if reset {
		flags |= FlagReset
	}
	binary.LittleEndian.PutUint32(buf[12:16], flags)
	off := frameHeaderLen
	for _, s := range samples {
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(s[0]))
		binary.LittleEndian.PutUint16(buf[off+2:off+4], uint16(s[1]))
		off += 4
	}
	return buf
}

func TestDecodeStreamHeaderRoundTrips(t *testing.T) {
	buf := encodeStreamHeader(2_000_000, 60_000)
	h, err := DecodeStreamHeader(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.SampleRate != 2_000_000 || h.CenterHz != 60_000 {
		t.Errorf("got %+v", h)
	}
}

func TestDecodeStreamHeaderRejectsBadMagic(t *testing.T) {
	buf := encodeStreamHeader(2_000_000, 60_000)
	buf[0] = 0
	if _, err := DecodeStreamHeader(buf); err == nil {
		t.Errorf("expected a bad magic error")
	}
}

func TestDecodeFrameRoundTrips(t *testing.T) {
	samples := [][2]int16{{100, -200}, {300, -400}}
	buf := encodeFrame(7, samples, true)
	f, err := DecodeFrame(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.SequenceNumber != 7 || f.SampleCount != 2 || !f.Reset {
		t.Errorf("got %+v", f)
	}
	if f.Samples[0] != samples[0] || f.Samples[1] != samples[1] {
		t.Errorf("samples = %v, want %v", f.Samples, samples)
	}
}

func TestDecodeFrameRejectsShortPayload(t *testing.T) {
	buf := encodeFrame(1, [][2]int16{{1, 2}}, false)
	if _, err := DecodeFrame(buf[:len(buf)-2]); err == nil {
		t.Errorf("expected a short-payload error")
	}
}

func TestDecodeRTPPacketUnwrapsFrame(t *testing.T) {
	samples := [][2]int16{{10, 20}, {30, 40}, {50, 60}}
	payload := encodeFrame(3, samples, false)
	packet := &rtp.Packet{
		Header:  rtp.Header{Version: 2, SequenceNumber: 1, Timestamp: 1000, SSRC: 42},
		Payload: payload,
	}
	raw, err := packet.Marshal()
	if err != nil {
		t.Fatalf("marshal rtp packet: %v", err)
	}
	f, err := DecodeRTPPacket(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.SequenceNumber != 3 || len(f.Samples) != 3 {
		t.Errorf("got %+v", f)
	}
}
