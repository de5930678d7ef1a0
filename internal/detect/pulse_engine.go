package detect

import "github.com/cwsl/wwvsync/internal/dsp"

// PulseEngineConfig parameterizes the shared pulse state machine (spec
// §4.3 step 5) that every detector in this package drives from its own
// spectral estimator.
type PulseEngineConfig struct {
	FrameMs              float64 // nominal frame period, e.g. 5.12 for the tick detector
	MinDurationMs        float64
	MaxDurationMs        float64
	CooldownMs           float64
	WarmupMs             float64
	AlphaUp              float64
	AlphaDown            float64
	ThresholdMultiplier  float64
	HysteresisRatio      float64 // low threshold = high threshold * ratio, e.g. 0.7
	GroupDelayMs         float64 // subtracted from the pulse start to get LeadingMs
}

// RawPulse is one confirmed pulse, before the owning detector turns it into
// a typed event.Event.
type RawPulse struct {
	LeadingMs  float64
	TrailingMs float64
	DurationMs float64
	PeakEnergy float64
	Baseline   float64
	Threshold  float64
	// LongPulse is set when the ACTIVE state persisted beyond the
	// marker-duration cross-check threshold (spec §4.3.1: >= 600ms).
	LongPulse bool
}

// PulseEngine drives the WARMUP/IDLE/RISING/ACTIVE/FALLING/COOLDOWN state
// machine common to every detector, given one energy sample per frame.
type PulseEngine struct {
	cfg PulseEngineConfig

	baseline *dsp.AsymmetricEMA
	enabled  bool

	state        PulseState
	elapsedMs    float64 // stream-time of the frame just processed
	warmupUntil  float64
	cooldownUntil float64

	pulseStartMs  float64
	peakInPulse   float64
	thresholdAtStart float64
	baselineAtStart  float64

	lastEnergy    float64
	lastThreshold float64
	eventCount    int
	flashFrames   int
}

// NewPulseEngine builds an engine seeded at zero baseline; the first few
// frames pull it toward the true noise floor via the asymmetric EMA.
func NewPulseEngine(cfg PulseEngineConfig) *PulseEngine {
	return &PulseEngine{
		cfg:         cfg,
		baseline:    dsp.NewAsymmetricEMA(cfg.AlphaUp, cfg.AlphaDown, 0),
		enabled:     true,
		state:       StateWarmup,
		warmupUntil: cfg.WarmupMs,
	}
}

// Step advances the engine by one frame's worth of energy at stream-time
// nowMs. It returns a confirmed RawPulse when a trailing edge closes out a
// valid pulse.
func (e *PulseEngine) Step(nowMs, energy float64) (pulse *RawPulse, changed bool) {
	e.elapsedMs = nowMs
	e.lastEnergy = energy

	if e.state != StateActive {
		e.baseline.SetFrozen(false)
		e.baseline.Update(energy)
	}
	threshold := e.baseline.Value() * e.cfg.ThresholdMultiplier
	e.lastThreshold = threshold
	lowThreshold := threshold * e.cfg.HysteresisRatio

	if e.state == StateWarmup {
		if nowMs >= e.warmupUntil {
			e.state = StateIdle
			changed = true
		}
		return nil, changed
	}

	switch e.state {
	case StateIdle:
		if nowMs < e.cooldownUntil {
			return nil, false
		}
		if energy > threshold {
			e.state = StateRising
			e.pulseStartMs = nowMs
			e.peakInPulse = energy
			e.thresholdAtStart = threshold
			e.baselineAtStart = e.baseline.Value()
			e.baseline.SetFrozen(true)
			changed = true
		}

	case StateRising, StateActive:
		if energy > e.peakInPulse {
			e.peakInPulse = energy
		}
		if energy > threshold {
			if e.state == StateRising {
				e.state = StateActive
				changed = true
			}
			break
		}
		if energy > lowThreshold {
			break
		}
		e.state = StateFalling
		fallthrough

	case StateFalling:
		e.baseline.SetFrozen(false)
		durationMs := nowMs - e.pulseStartMs
		longPulse := durationMs >= 600
		e.state = StateCooldown
		e.cooldownUntil = nowMs + e.cfg.CooldownMs
		changed = true

		if durationMs < e.cfg.MinDurationMs || durationMs > e.cfg.MaxDurationMs {
			if !longPulse {
				// rejected: outside the expected duration window and not
				// long enough to be a cross-check candidate either.
				return nil, changed
			}
		}

		leading := e.pulseStartMs - e.cfg.GroupDelayMs
		e.eventCount++
		e.flashFrames = 3
		return &RawPulse{
			LeadingMs:  leading,
			TrailingMs: nowMs,
			DurationMs: durationMs,
			PeakEnergy: e.peakInPulse,
			Baseline:   e.baselineAtStart,
			Threshold:  e.thresholdAtStart,
			LongPulse:  longPulse,
		}, changed

	case StateCooldown:
		if nowMs >= e.cooldownUntil {
			e.state = StateIdle
			changed = true
		}
	}
	return nil, changed
}

// SetThresholdMultiplier and SetAlphaDown let the control plane retune a
// running engine between frames (spec §5, §6.4). Updates are read at the
// start of the next Step call, never mid-frame.
func (e *PulseEngine) SetThresholdMultiplier(v float64) { e.cfg.ThresholdMultiplier = v }
func (e *PulseEngine) SetAlphaDown(v float64) {
	e.cfg.AlphaDown = v
	e.baseline.AlphaDown = v
}

func (e *PulseEngine) Enabled() bool          { return e.enabled }
func (e *PulseEngine) SetEnabled(v bool)      { e.enabled = v }
func (e *PulseEngine) State() PulseState      { return e.state }
func (e *PulseEngine) Baseline() float64      { return e.baseline.Value() }
func (e *PulseEngine) Threshold() float64     { return e.lastThreshold }
func (e *PulseEngine) CurrentEnergy() float64 { return e.lastEnergy }
func (e *PulseEngine) EventCount() int        { return e.eventCount }
func (e *PulseEngine) FlashFrames() int       { return e.flashFrames }
func (e *PulseEngine) DecrementFlash() {
	if e.flashFrames > 0 {
		e.flashFrames--
	}
}

// Reset returns the engine to WARMUP, as required on an upstream
// discontinuity (§6.1).
func (e *PulseEngine) Reset() {
	e.baseline.Reset(0)
	e.state = StateWarmup
	e.warmupUntil = e.elapsedMs + e.cfg.WarmupMs
	e.cooldownUntil = 0
	e.eventCount = 0
	e.flashFrames = 0
}
