package correlate

import (
	"math"

	"github.com/cwsl/wwvsync/internal/event"
)

// TickCorrelator chains TICK events at the nominal 1000ms cadence (spec
// §4.4). Confidence >= 0.8 with length >= 5 is the CHAIN-quality threshold
// the sync state machine waits for before trusting a chain-derived epoch.
type TickCorrelator struct {
	tracker *chainTracker
}

func NewTickCorrelator() *TickCorrelator {
	return &TickCorrelator{
		tracker: newChainTracker(15, 1000, 50, 10),
	}
}

// Observe feeds one TICK or LONGPULSE event's leading timestamp.
func (c *TickCorrelator) Observe(ev event.Event) ChainUpdate {
	return c.tracker.observe(ev.LeadingMs)
}

func (c *TickCorrelator) Length() int { return c.tracker.length() }
func (c *TickCorrelator) Reset()      { c.tracker.reset() }

// FitGridPhase least-squares fits the chain's leading edges to a 1000ms
// grid (spec §4.5: "least-squares fit of leading edges to a 1000ms grid"),
// returning the fitted t0 and the residual standard deviation in ms.
func (c *TickCorrelator) FitGridPhase() (t0Ms, sigmaMs float64, ok bool) {
	ts := c.tracker.leadingTimestamps()
	if len(ts) < 2 {
		return 0, 0, false
	}
	first := ts[0]
	var sum, sumSq float64
	n := len(ts)
	for _, t := range ts {
		k := roundFloat((t - first) / 1000.0)
		residual := t - k*1000.0
		sum += residual
		sumSq += residual * residual
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance), true
}

func roundFloat(x float64) float64 {
	return math.Round(x)
}
