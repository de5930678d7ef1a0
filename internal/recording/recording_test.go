package recording

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"
)

func buildRecording(sampleRate, centerHz float64, samples [][2]int16) []byte {
	var buf bytes.Buffer
	hdr := make([]byte, headerLen)
	binary.LittleEndian.PutUint32(hdr[0:4], Magic)
	binary.LittleEndian.PutUint32(hdr[4:8], 1)
	binary.LittleEndian.PutUint64(hdr[8:16], math.Float64bits(sampleRate))
	binary.LittleEndian.PutUint64(hdr[16:24], math.Float64bits(centerHz))
	binary.LittleEndian.PutUint32(hdr[24:28], 192_000)
	binary.LittleEndian.PutUint32(hdr[28:32], 20)
	binary.LittleEndian.PutUint32(hdr[32:36], 3)
	binary.LittleEndian.PutUint64(hdr[36:44], 1_000_000)
	binary.LittleEndian.PutUint64(hdr[44:52], uint64(len(samples)))
	buf.Write(hdr)
	for _, s := range samples {
		var sbuf [4]byte
		binary.LittleEndian.PutUint16(sbuf[0:2], uint16(s[0]))
		binary.LittleEndian.PutUint16(sbuf[2:4], uint16(s[1]))
		buf.Write(sbuf[:])
	}
	return buf.Bytes()
}

func TestOpenParsesHeaderAndStreamsSamples(t *testing.T) {
	samples := [][2]int16{{100, -100}, {200, -200}, {300, -300}}
	raw := buildRecording(2_000_000, 60_000, samples)

	rd, err := Open(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if rd.Header.SampleRate != 2_000_000 || rd.Header.CenterHz != 60_000 {
		t.Errorf("header = %+v", rd.Header)
	}
	if rd.Header.SampleCount != uint64(len(samples)) {
		t.Errorf("sample count = %d, want %d", rd.Header.SampleCount, len(samples))
	}

	for idx, want := range samples {
		i, q, err := rd.Next()
		if err != nil {
			t.Fatalf("Next() at %d: %v", idx, err)
		}
		if i != want[0] || q != want[1] {
			t.Errorf("sample %d = (%d,%d), want %v", idx, i, q, want)
		}
	}
	if _, _, err := rd.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after last sample, got %v", err)
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	raw := buildRecording(2_000_000, 60_000, nil)
	raw[0] = 0
	if _, err := Open(bytes.NewReader(raw)); err == nil {
		t.Errorf("expected a bad-magic error")
	}
}
