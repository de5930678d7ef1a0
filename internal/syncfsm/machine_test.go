package syncfsm

import "testing"

func TestSearchingToAcquiringOnTickChainLength(t *testing.T) {
	m := NewMachine()
	m.OnTickChainUpdate(1, 2, 0, false)
	if m.State() != StateSearching {
		t.Fatalf("state = %v, want SEARCHING before chain length 3", m.State())
	}
	m.OnTickChainUpdate(3, 2, 0, false)
	if m.State() != StateAcquiring {
		t.Fatalf("state = %v, want ACQUIRING at chain length 3", m.State())
	}
}

func TestMarkerSeedsEpochAndEntersAcquiring(t *testing.T) {
	m := NewMachine()
	m.OnMarkerEvent(5000, 0)
	if m.State() != StateAcquiring {
		t.Fatalf("state = %v, want ACQUIRING after first marker", m.State())
	}
	ep := m.CurrentEpoch()
	if ep.Source != SourceMarker || ep.T0Ms != 5000 {
		t.Errorf("epoch = %+v, want MARKER source at t0=5000", ep)
	}
}

func TestChainSupersedesMarkerEpoch(t *testing.T) {
	m := NewMachine()
	m.OnMarkerEvent(5000, 0)
	m.OnTickChainUpdate(5, 5, 5123, true)
	ep := m.CurrentEpoch()
	if ep.Source != SourceChain {
		t.Errorf("epoch source = %v, want CHAIN once chain reaches length>=5, sigma<10ms", ep.Source)
	}
	if ep.T0Ms != 5123 {
		t.Errorf("epoch t0 = %v, want the chain-fitted 5123", ep.T0Ms)
	}
}

func TestAcquiringToLockedOnTwoGoodMarkersAndConfidence(t *testing.T) {
	m := NewMachine()
	m.OnMarkerEvent(0, 0)
	if m.State() != StateAcquiring {
		t.Fatalf("expected ACQUIRING after first marker")
	}
	m.OnMarkerEvent(60_000, 0.85)
	m.OnMarkerEvent(120_000, 0.85)
	if m.State() != StateLocked {
		t.Fatalf("state = %v, want LOCKED after two good markers with confidence >= 0.8", m.State())
	}
}

func TestThreeRejectedTicksDropsAcquiringToSearching(t *testing.T) {
	m := NewMachine()
	m.OnMarkerEvent(0, 0)
	m.OnTickRejected()
	m.OnTickRejected()
	if m.State() != StateAcquiring {
		t.Fatalf("should still be ACQUIRING after only 2 rejections")
	}
	m.OnTickRejected()
	if m.State() != StateSearching {
		t.Fatalf("state = %v, want SEARCHING after 3 consecutive rejected ticks", m.State())
	}
}

func TestGateWindowNarrowsOnceLocked(t *testing.T) {
	m := NewMachine()
	if m.CurrentGate() != GateOpen {
		t.Errorf("expected fully open gate while SEARCHING")
	}
	m.OnMarkerEvent(0, 0)
	if m.CurrentGate() != GateAcquiring {
		t.Errorf("expected [0,100]ms gate while ACQUIRING")
	}
	m.OnMarkerEvent(60_000, 0.85)
	m.OnMarkerEvent(120_000, 0.85)
	if m.CurrentGate() != GateLocked {
		t.Errorf("expected [0,40]ms gate once LOCKED")
	}
}

func TestLockedDropsToAcquiringOnThreeMissedTicks(t *testing.T) {
	m := NewMachine()
	m.OnMarkerEvent(0, 0)
	m.OnMarkerEvent(60_000, 0.85)
	m.OnMarkerEvent(120_000, 0.85)
	if m.State() != StateLocked {
		t.Fatalf("setup failed to reach LOCKED")
	}
	m.OnExpectedTickMissed()
	m.OnExpectedTickMissed()
	if m.State() != StateLocked {
		t.Fatalf("should still be LOCKED after only 2 misses")
	}
	m.OnExpectedTickMissed()
	if m.State() != StateAcquiring {
		t.Fatalf("state = %v, want ACQUIRING after 3 consecutive missed ticks", m.State())
	}
}
