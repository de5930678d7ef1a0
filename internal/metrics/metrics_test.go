package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// m is built once per test binary run since promauto registers against the
// default registry; a second New() call would panic on duplicate
// registration, matching the teacher's own single-instance-per-process use.
var m = New()

func TestUpdateSyncStateSetsEpochSourceExclusively(t *testing.T) {
	m.UpdateSyncState(2, 0.95, 12345.0, "CHAIN")

	if got := testutil.ToFloat64(m.syncState); got != 2 {
		t.Errorf("sync state = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.epochConfidence); got != 0.95 {
		t.Errorf("epoch confidence = %v, want 0.95", got)
	}
	if got := testutil.ToFloat64(m.epochSource.WithLabelValues("CHAIN")); got != 1 {
		t.Errorf("CHAIN source gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.epochSource.WithLabelValues("MARKER")); got != 0 {
		t.Errorf("MARKER source gauge = %v, want 0", got)
	}
}

func TestRecordBusDropIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(m.busDropsTotal.WithLabelValues("TICK"))
	m.RecordBusDrop("TICK")
	after := testutil.ToFloat64(m.busDropsTotal.WithLabelValues("TICK"))
	if after != before+1 {
		t.Errorf("bus drop counter = %v, want %v", after, before+1)
	}
}

func TestRecordBCDFrameCounters(t *testing.T) {
	before := testutil.ToFloat64(m.bcdFramesDecoded)
	m.RecordBCDFrameDecoded()
	if got := testutil.ToFloat64(m.bcdFramesDecoded); got != before+1 {
		t.Errorf("decoded counter = %v, want %v", got, before+1)
	}
}
