// Package detect implements the pulse detectors: Tick, Marker, BCD-time,
// BCD-freq and the carrier/tone trackers. Every detector shares the same
// skeleton described in spec §4.3: a spectral estimator, an adaptive
// baseline, a hysteresis threshold, a pulse state machine, and a single
// registered event callback.
package detect

import "github.com/cwsl/wwvsync/internal/event"

// PulseState is the shared state machine driving every detector's pulse
// lifecycle (spec §4.3 step 5).
type PulseState int

const (
	StateWarmup PulseState = iota
	StateIdle
	StateRising
	StateActive
	StateFalling
	StateCooldown
)

func (s PulseState) String() string {
	switch s {
	case StateWarmup:
		return "WARMUP"
	case StateIdle:
		return "IDLE"
	case StateRising:
		return "RISING"
	case StateActive:
		return "ACTIVE"
	case StateFalling:
		return "FALLING"
	case StateCooldown:
		return "COOLDOWN"
	default:
		return "UNKNOWN"
	}
}

// PulseDetector is the capability set every detector implements (design
// note §9: "a trait/interface (open world, better for testing with fake
// detectors)"). The sync/correlator layers depend only on this, never on a
// concrete detector type.
type PulseDetector interface {
	// ProcessSample pushes one complex sample at the detector's own rate
	// and reports whether internal state advanced.
	ProcessSample(i, q float64) bool
	SetCallback(fn EventCallback)
	SetEnabled(enabled bool)
	FlashFrames() int
	DecrementFlash()
	Baseline() float64
	Threshold() float64
	CurrentEnergy() float64
	EventCount() int
	State() PulseState
	Reset()
}

// EventCallback is the single event sink every detector pushes confirmed
// detections through. Matches the registered-callback graph in §9's design
// notes, generalized from a C function pointer + void context to a typed
// closure.
type EventCallback func(ev event.Event)
