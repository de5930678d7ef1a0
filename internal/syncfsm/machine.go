package syncfsm

import (
	"math"
	"sync"
)

// State is the sync state machine's current phase (spec §4.5).
type State int

const (
	StateSearching State = iota
	StateAcquiring
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateAcquiring:
		return "ACQUIRING"
	case StateLocked:
		return "LOCKED"
	default:
		return "SEARCHING"
	}
}

// SyncEvent is the structured record emitted on every state transition
// (spec §4.5). LastTickMs and LastMarkerMs are the leading-edge timestamps
// of the most recent tick and marker, not their durations; no pulse
// duration is carried.
type SyncEvent struct {
	State          State
	IntervalMs     float64
	DeltaMs        float64
	LastTickMs     float64
	LastMarkerMs   float64
	QualityWarning bool
}

const (
	silenceSearchingMs = 3_000
	silenceAcquiringMs = 5_000
)

// Machine drives the SEARCHING/ACQUIRING/LOCKED transition table and owns
// the Epoch (spec §4.5, §4.6). All mutation happens synchronously from the
// single sample-path goroutine; the mutex exists only so telemetry/control
// goroutines can take a consistent read snapshot (spec §5's "short
// critical section" option).
type Machine struct {
	mu sync.RWMutex

	state State
	epoch Epoch

	lastDetectionMs float64
	lastTickMs      float64
	lastMarkerMs    float64
	haveMarker      bool

	markerIntervalsOK int // consecutive markers within 60+-2s
	consecutiveRejectedTicks int
	consecutiveMissedExpectedTicks int

	cb func(SyncEvent)
}

func NewMachine() *Machine {
	return &Machine{state: StateSearching, epoch: Epoch{Source: SourceNone}}
}

func (m *Machine) SetEventCallback(fn func(SyncEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cb = fn
}

// State returns the current phase.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentEpoch returns a snapshot of the Epoch.
func (m *Machine) CurrentEpoch() Epoch {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}

// CurrentGate returns the gate window appropriate to the current state.
func (m *Machine) CurrentGate() Gate {
	switch m.State() {
	case StateLocked:
		return GateLocked
	case StateAcquiring:
		return GateAcquiring
	default:
		return GateOpen
	}
}

func (m *Machine) emit(ev SyncEvent) {
	if m.cb != nil {
		m.cb(ev)
	}
}

// OnTickEvent records that a tick fired, clearing the silence timer.
func (m *Machine) OnTickEvent(leadingMs float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastDetectionMs = leadingMs
	m.lastTickMs = leadingMs
	m.consecutiveMissedExpectedTicks = 0
}

// OnTickRejected records a transient: a tick whose leading edge fell
// outside the current gate. Three consecutive rejections drop ACQUIRING back to
// SEARCHING (spec §4.5).
func (m *Machine) OnTickRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consecutiveRejectedTicks++
	if m.state == StateAcquiring && m.consecutiveRejectedTicks >= 3 {
		m.transitionLocked(StateSearching, 0, 0)
	}
}

func (m *Machine) tickAccepted() {
	m.consecutiveRejectedTicks = 0
}

// OnTickChainUpdate feeds the tick correlator's latest chain state. A
// chain reaching length>=3 can take SEARCHING -> ACQUIRING; reaching
// length>=5 with sigma<10ms lets the chain-derived phase (fittedT0)
// supersede any MARKER epoch (spec §4.5).
func (m *Machine) OnTickChainUpdate(length int, sigmaMs float64, fittedT0 float64, haveFit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickAccepted()

	if m.state == StateSearching && length >= 3 {
		m.transitionLocked(StateAcquiring, 0, 0)
	}

	if haveFit && length >= 5 && sigmaMs < 10 {
		prev := m.epoch
		if prev.Source != SourceChain || fittedT0 != prev.T0Ms {
			m.epoch = Epoch{T0Ms: fittedT0, Source: SourceChain, Confidence: math.Min(1.0, 0.95+ (0.05*float64(length-5))/10)}
		}
	}
}

// OnMarkerEvent records a confirmed marker. The first one (from
// SEARCHING) seeds a MARKER-source epoch and moves to ACQUIRING. Two
// consecutive markers spaced 60+-2s, combined with chain confidence>=0.8,
// reach LOCKED.
func (m *Machine) OnMarkerEvent(leadingMs float64, tickChainConfidence float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastDetectionMs = leadingMs

	interval := leadingMs - m.lastMarkerMs
	withinBand := m.haveMarker && math.Abs(interval-60_000) <= 2_000

	if m.state == StateSearching {
		m.epoch = Epoch{T0Ms: leadingMs, Source: SourceMarker, Confidence: 0.7}
		m.transitionLocked(StateAcquiring, interval, 0)
	} else if withinBand {
		m.markerIntervalsOK++
	} else {
		m.markerIntervalsOK = 0
	}

	if m.state == StateAcquiring && m.markerIntervalsOK >= 2 && tickChainConfidence >= 0.8 {
		m.transitionLocked(StateLocked, interval, 0)
	}

	m.lastMarkerMs = leadingMs
	m.haveMarker = true
}

// OnExpectedTickMissed is driven by the schedule clock: a tick was due
// (outside the silent seconds 29/59) and none arrived. Three consecutive
// misses drop LOCKED back to ACQUIRING.
func (m *Machine) OnExpectedTickMissed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consecutiveMissedExpectedTicks++
	if m.state == StateLocked && m.consecutiveMissedExpectedTicks >= 3 {
		m.transitionLocked(StateAcquiring, 0, 0)
		m.consecutiveMissedExpectedTicks = 0
	}
}

// Advance checks silence-based transitions; call once per frame with the
// current stream time.
func (m *Machine) Advance(nowMs float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	silence := nowMs - m.lastDetectionMs
	switch m.state {
	case StateSearching:
		// already SEARCHING; nothing to downgrade to.
	case StateAcquiring:
		if silence > silenceAcquiringMs {
			m.transitionLocked(StateSearching, 0, 0)
		}
	case StateLocked:
		// LOCKED has no silence-based downgrade in the transition table;
		// it relies on OnExpectedTickMissed instead.
	}
}

// CheckPathAgreement compares the fast-path (tick-chain) and slow-path
// (marker-derived) leading-edge estimates; disagreement > 50ms is a
// quality warning but never itself changes state (spec §4.5).
func (m *Machine) CheckPathAgreement(tickT0, markerT0 float64) bool {
	return math.Abs(tickT0-markerT0) > 50
}

// transitionLocked performs the state change and emits the structured
// sync event. Caller must hold m.mu.
func (m *Machine) transitionLocked(next State, intervalMs, deltaMs float64) {
	m.state = next
	if next == StateSearching {
		m.epoch = Epoch{Source: SourceNone}
		m.markerIntervalsOK = 0
		m.consecutiveRejectedTicks = 0
		m.haveMarker = false
	}
	m.emit(SyncEvent{
		State:        next,
		IntervalMs:   intervalMs,
		DeltaMs:      deltaMs,
		LastTickMs:   m.lastTickMs,
		LastMarkerMs: m.lastMarkerMs,
	})
}
