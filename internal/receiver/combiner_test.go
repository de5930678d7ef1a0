package receiver

import (
	"testing"

	"github.com/cwsl/wwvsync/internal/syncfsm"
)

func TestCombinerBestReturnsFalseWhenEmpty(t *testing.T) {
	c := NewCombiner()
	if _, _, ok := c.Best(); ok {
		t.Errorf("expected no winner from an empty combiner")
	}
}

func TestCombinerIgnoresSearchingReceivers(t *testing.T) {
	c := NewCombiner()
	r := newTestReceiver(nil)
	c.Register(r)

	if _, _, ok := c.Best(); ok {
		t.Errorf("a SEARCHING receiver (no epoch yet) should never win")
	}
}

func TestCombinerPrefersLockedOverAcquiring(t *testing.T) {
	c := NewCombiner()

	acquiring := newTestReceiver(nil)
	for i := 0; i < 5; i++ {
		acquiring.onTickEvent(tickEvent(float64(i) * 1000))
	}
	if acquiring.State() != syncfsm.StateAcquiring {
		t.Fatalf("setup: acquiring receiver state = %v", acquiring.State())
	}
	if acquiring.Epoch().Source == syncfsm.SourceNone {
		t.Fatalf("setup: acquiring receiver should have a chain epoch by length 5")
	}

	locked := newTestReceiver(nil)
	for i := 0; i < 10; i++ {
		locked.onTickEvent(tickEvent(float64(i) * 1000))
	}
	locked.onMarkerEvent(markerEvent(0, 1500))
	locked.onMarkerEvent(markerEvent(60_000, 1500))
	locked.onMarkerEvent(markerEvent(120_000, 1500))
	if locked.State() != syncfsm.StateLocked {
		t.Fatalf("setup: locked receiver state = %v", locked.State())
	}

	c.Register(acquiring)
	c.Register(locked)

	_, winnerID, ok := c.Best()
	if !ok {
		t.Fatalf("expected a winner")
	}
	if winnerID != locked.ID() {
		t.Errorf("winner = %s, want the LOCKED receiver %s", winnerID, locked.ID())
	}
}

func TestCombinerUnregisterRemovesMember(t *testing.T) {
	c := NewCombiner()
	r := newTestReceiver(nil)
	c.Register(r)
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
	c.Unregister(r.ID())
	if c.Len() != 0 {
		t.Errorf("len after unregister = %d, want 0", c.Len())
	}
}
