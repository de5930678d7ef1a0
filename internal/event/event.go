// Package event defines the Event and Chain data model shared by every
// detector and correlator (spec §3). Events are ephemeral: produced, fed
// synchronously to a correlator, published on the bus, and discarded.
package event

import "math"

// Kind identifies which detector produced an event.
type Kind int

const (
	KindTick Kind = iota
	KindLongPulse
	KindMarker
	KindBCDTime
	KindBCDFreq
	KindCarrier
	KindTone
)

func (k Kind) String() string {
	switch k {
	case KindTick:
		return "TICK"
	case KindLongPulse:
		return "LONGPULSE"
	case KindMarker:
		return "MARKER"
	case KindBCDTime:
		return "BCD_TIME"
	case KindBCDFreq:
		return "BCD_FREQ"
	case KindCarrier:
		return "CARRIER"
	case KindTone:
		return "TONE"
	default:
		return "UNKNOWN"
	}
}

// BCDSymbol is the pulse-width classification of one 100 Hz subcarrier
// pulse (§ GLOSSARY).
type BCDSymbol int

const (
	BCDZero BCDSymbol = iota
	BCDOne
	BCDPositionMarker
)

// Event is a discrete detection produced by one pulse detector. Invariants
// (spec §3): LeadingMs <= TrailingMs; DurationMs approx TrailingMs-LeadingMs
// within one FFT frame; PeakEnergy >= ThresholdAtFire at the moment of
// firing.
type Event struct {
	Kind Kind

	// LeadingMs is the pulse-start timestamp (ms since stream start),
	// corrected for measured filter group delay. This is the
	// authoritative timestamp used for gating and correlation.
	LeadingMs float64
	// TrailingMs is the timestamp at which the pulse was confirmed over.
	TrailingMs float64

	DurationMs      float64
	PeakEnergy      float64
	Baseline        float64
	ThresholdAtFire float64

	// Payload fields, populated only by the detectors that need them.
	Symbol            BCDSymbol // BCD detectors
	SecondInMinute    int       // BCD detectors
	CorrelationRatio  float64   // carrier/tone trackers
	ToneFrequencyHz   float64   // carrier/tone trackers
	OffsetHz          float64   // carrier/tone trackers
	OffsetPPM         float64   // carrier/tone trackers
	SNRdB             float64   // carrier/tone trackers
	Valid             bool      // carrier/tone trackers, BCD detectors
	StationTickHz     float64   // tick/marker detectors: which tone fired
}

// Chain is a bounded sliding window of the most recent events from one
// detector, tracking the interval statistics a correlator derives
// confidence from (spec §3, §4.4).
type Chain struct {
	maxLen int

	leadingTimestamps []float64
	intervals         []float64

	length int
}

// NewChain allocates a chain holding at most maxLen events (typically 15).
func NewChain(maxLen int) *Chain {
	return &Chain{
		maxLen:            maxLen,
		leadingTimestamps: make([]float64, 0, maxLen),
		intervals:         make([]float64, 0, maxLen),
	}
}

// Append records a new event's leading timestamp, computing its interval to
// the previous one if any. Returns the interval (0 if this is the first
// event in the chain).
func (c *Chain) Append(leadingMs float64) (interval float64) {
	if len(c.leadingTimestamps) > 0 {
		interval = leadingMs - c.leadingTimestamps[len(c.leadingTimestamps)-1]
		c.intervals = append(c.intervals, interval)
		if len(c.intervals) > c.maxLen {
			c.intervals = c.intervals[1:]
		}
	}
	c.leadingTimestamps = append(c.leadingTimestamps, leadingMs)
	if len(c.leadingTimestamps) > c.maxLen {
		c.leadingTimestamps = c.leadingTimestamps[1:]
	}
	c.length++
	return interval
}

// Reset clears the chain and its length counter (used when a gap forces a
// new chain to start).
func (c *Chain) Reset() {
	c.leadingTimestamps = c.leadingTimestamps[:0]
	c.intervals = c.intervals[:0]
	c.length = 0
}

// Len returns the number of events ever appended since the last Reset (not
// capped at maxLen, so correlators can require "length >= N" even once the
// sliding window has started evicting).
func (c *Chain) Len() int { return c.length }

// WindowLen returns how many events are currently held in the sliding
// window (<= maxLen).
func (c *Chain) WindowLen() int { return len(c.leadingTimestamps) }

// MeanInterval returns the mean of the intervals currently in the window.
func (c *Chain) MeanInterval() float64 {
	if len(c.intervals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range c.intervals {
		sum += v
	}
	return sum / float64(len(c.intervals))
}

// StdDevInterval returns the population standard deviation of the
// intervals currently in the window.
func (c *Chain) StdDevInterval() float64 {
	n := len(c.intervals)
	if n == 0 {
		return 0
	}
	mean := c.MeanInterval()
	var acc float64
	for _, v := range c.intervals {
		d := v - mean
		acc += d * d
	}
	return math.Sqrt(acc / float64(n))
}

// LastLeadingMs returns the most recent leading timestamp in the chain, and
// whether the chain is non-empty.
func (c *Chain) LastLeadingMs() (float64, bool) {
	if len(c.leadingTimestamps) == 0 {
		return 0, false
	}
	return c.leadingTimestamps[len(c.leadingTimestamps)-1], true
}

// LeadingTimestamps returns a copy of the window's leading timestamps, used
// by the tick correlator's least-squares grid fit.
func (c *Chain) LeadingTimestamps() []float64 {
	out := make([]float64, len(c.leadingTimestamps))
	copy(out, c.leadingTimestamps)
	return out
}
