package iqsource

import "testing"

func TestNewMulticastSourceRejectsBadAddress(t *testing.T) {
	_, err := NewMulticastSource("not-an-address", "", nil)
	if err == nil {
		t.Fatalf("expected an error for an unparsable address")
	}
}

func TestNewMulticastSourceRejectsUnknownInterface(t *testing.T) {
	_, err := NewMulticastSource("239.1.2.3:5004", "no-such-iface-xyz", nil)
	if err == nil {
		t.Fatalf("expected an error for a nonexistent interface")
	}
}

func TestNewMulticastSourceAcceptsValidAddress(t *testing.T) {
	s, err := NewMulticastSource("239.1.2.3:5004", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.addr.Port != 5004 {
		t.Errorf("port = %d, want 5004", s.addr.Port)
	}
}
