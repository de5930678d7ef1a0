// Package syncfsm implements the sync state machine and the Epoch/Gate
// pair it owns (spec §4.5, §4.6).
package syncfsm

import "math"

// EpochSource identifies what last set the Epoch.
type EpochSource int

const (
	SourceNone EpochSource = iota
	SourceMarker
	SourceChain
)

func (s EpochSource) String() string {
	switch s {
	case SourceMarker:
		return "MARKER"
	case SourceChain:
		return "CHAIN"
	default:
		return "NONE"
	}
}

// Epoch is the inferred stream-time of a WWV second boundary (spec
// GLOSSARY). It is the only cross-component shared mutable state (spec
// §5): written exclusively by the sync state machine, read by any
// detector that chooses to gate its output. A whole-struct value copy is
// the word-sized snapshot the spec allows readers to take without a lock;
// this repo guards it with a short RWMutex critical section instead,
// matching the teacher's preference for sync.RWMutex over lock-free
// tricks anywhere it protects small, infrequently-written state.
type Epoch struct {
	T0Ms       float64
	Source     EpochSource
	Confidence float64
}

// Gate is a pure predicate over (event leading timestamp, epoch): spec
// §4.6. The window narrows from [0,100]ms while ACQUIRING to [0,40]ms once
// LOCKED, matching the WWV protected zone (10ms + 5ms + 25ms).
type Gate struct {
	OpenMs  float64
	CloseMs float64
}

var (
	GateAcquiring = Gate{OpenMs: 0, CloseMs: 100}
	GateLocked    = Gate{OpenMs: 0, CloseMs: 40}
	GateOpen      = Gate{OpenMs: 0, CloseMs: 1000} // SEARCHING: fully open
)

// Accept reports whether eventLeadingMs falls within the gate's window
// relative to the epoch's inferred second boundary.
func (g Gate) Accept(eventLeadingMs float64, ep Epoch) bool {
	if ep.Source == SourceNone {
		return true
	}
	offset := math.Mod(eventLeadingMs-ep.T0Ms, 1000)
	if offset < 0 {
		offset += 1000
	}
	return offset >= g.OpenMs && offset <= g.CloseMs
}
