// Package correlate ingests detector events into chains (spec §4.4): bounded
// sliding windows of recent intervals from which confidence, interval
// statistics and (for BCD) a decoded time-of-day are derived.
package correlate

import (
	"math"

	"github.com/cwsl/wwvsync/internal/event"
)

// ChainUpdate is published after every appended or truncated event.
type ChainUpdate struct {
	Length         int
	MeanIntervalMs float64
	StdDevMs       float64
	Confidence     float64
	MissedPredecessor bool
	Reset          bool
}

// chainTracker is the shared interval/confidence bookkeeping used by every
// correlator kind (spec §4.4 steps 1-4). Each correlator wraps it with its
// own expected interval, tolerance and target length.
type chainTracker struct {
	chain          *event.Chain
	expectedMs     float64
	toleranceMs    float64
	targetLength   int
	resetBandMs    float64 // intervals beyond this close the chain outright
}

func newChainTracker(maxLen int, expectedMs, toleranceMs float64, targetLength int) *chainTracker {
	return &chainTracker{
		chain:        event.NewChain(maxLen),
		expectedMs:   expectedMs,
		toleranceMs:  toleranceMs,
		targetLength: targetLength,
		resetBandMs:  2 * expectedMs,
	}
}

// observe appends a new leading timestamp, applying the interval-band gap
// policy from spec §4.4 step 2: an in-band interval simply appends, an
// interval under 2x expected but outside the band is kept but flagged
// "missed predecessor", and anything beyond that closes the chain and
// starts a fresh one.
func (t *chainTracker) observe(leadingMs float64) ChainUpdate {
	if t.chain.WindowLen() == 0 {
		t.chain.Append(leadingMs)
		return t.snapshot(false, false)
	}

	last, _ := t.chain.LastLeadingMs()
	interval := leadingMs - last
	inBand := math.Abs(interval-t.expectedMs) <= t.toleranceMs

	if !inBand && interval >= t.resetBandMs {
		t.chain.Reset()
		t.chain.Append(leadingMs)
		return t.snapshot(false, true)
	}

	t.chain.Append(leadingMs)
	return t.snapshot(!inBand, false)
}

func (t *chainTracker) snapshot(missedPredecessor, reset bool) ChainUpdate {
	mean := t.chain.MeanInterval()
	stddev := t.chain.StdDevInterval()
	length := t.chain.WindowLen()

	lengthTerm := math.Min(1.0, float64(length)/float64(t.targetLength))
	var toleranceTerm float64
	if t.toleranceMs > 0 {
		toleranceTerm = math.Exp(-(stddev * stddev) / (t.toleranceMs * t.toleranceMs))
	} else {
		toleranceTerm = 1.0
	}
	confidence := lengthTerm * toleranceTerm

	return ChainUpdate{
		Length:            length,
		MeanIntervalMs:    mean,
		StdDevMs:          stddev,
		Confidence:        confidence,
		MissedPredecessor: missedPredecessor,
		Reset:             reset,
	}
}

func (t *chainTracker) leadingTimestamps() []float64 { return t.chain.LeadingTimestamps() }
func (t *chainTracker) length() int                  { return t.chain.WindowLen() }
func (t *chainTracker) reset()                       { t.chain.Reset() }
