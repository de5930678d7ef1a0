package correlate

import "github.com/cwsl/wwvsync/internal/event"

// MarkerCorrelator chains MARKER events at the nominal 60s minute cadence
// (spec §4.4: "Marker correlator differs in expected interval (60s) and
// tolerance (+-500ms)").
type MarkerCorrelator struct {
	tracker *chainTracker
}

func NewMarkerCorrelator() *MarkerCorrelator {
	return &MarkerCorrelator{
		tracker: newChainTracker(15, 60_000, 500, 3),
	}
}

func (c *MarkerCorrelator) Observe(ev event.Event) ChainUpdate {
	return c.tracker.observe(ev.LeadingMs)
}

func (c *MarkerCorrelator) Length() int { return c.tracker.length() }
func (c *MarkerCorrelator) Reset()      { c.tracker.reset() }
