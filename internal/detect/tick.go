package detect

import (
	"github.com/cwsl/wwvsync/internal/event"
)

// TickDetector finds the 5ms, 1000/1200Hz second ticks (spec §4.3.1).
// Rate: 50kHz. FFT size 256 gives a ~5.12ms frame period, matching the
// tick duration itself. A pulse whose ACTIVE state runs past 600ms is
// reported as a long-pulse cross-check instead of a tick.
type TickDetector struct {
	spectral   *SpectralEstimator
	engine     *PulseEngine
	stationHz  float64
	elapsedMs  float64
	samplePeriodMs float64

	cb      EventCallback
	enabled bool
}

// NewTickDetector builds a tick detector tuned to one station's tick tone
// (1000Hz for WWV, 1200Hz for WWVH). groupDelayMs is the measured filter
// chain delay from internal/dsp, subtracted so LeadingMs lines up with the
// true on-air pulse edge.
func NewTickDetector(sampleRate, stationHz, groupDelayMs float64) *TickDetector {
	const fftSize = 256
	spectral := NewSpectralEstimator(sampleRate, fftSize, stationHz)
	engine := NewPulseEngine(PulseEngineConfig{
		FrameMs:             spectral.FramePeriodMs(),
		MinDurationMs:       1.0,
		MaxDurationMs:       10.0,
		CooldownMs:          500,
		WarmupMs:            1000,
		AlphaUp:             0.05,
		AlphaDown:           0.2,
		ThresholdMultiplier: 4.0,
		HysteresisRatio:     0.6,
		GroupDelayMs:        groupDelayMs,
	})
	return &TickDetector{
		spectral:       spectral,
		engine:         engine,
		stationHz:      stationHz,
		samplePeriodMs: 1000.0 / sampleRate,
		enabled:        true,
	}
}

// ProcessSample feeds one complex baseband sample at the detector rate.
func (t *TickDetector) ProcessSample(i, q float64) bool {
	t.elapsedMs += t.samplePeriodMs
	if !t.enabled {
		return false
	}
	power, ready := t.spectral.Push(i)
	if !ready {
		return false
	}
	pulse, changed := t.engine.Step(t.elapsedMs, power)
	if pulse != nil && t.cb != nil {
		kind := event.KindTick
		if pulse.LongPulse {
			kind = event.KindLongPulse
		}
		t.cb(event.Event{
			Kind:            kind,
			LeadingMs:       pulse.LeadingMs,
			TrailingMs:      pulse.TrailingMs,
			DurationMs:      pulse.DurationMs,
			PeakEnergy:      pulse.PeakEnergy,
			Baseline:        pulse.Baseline,
			ThresholdAtFire: pulse.Threshold,
			StationTickHz:   t.stationHz,
		})
	}
	return changed
}

func (t *TickDetector) SetCallback(fn EventCallback) { t.cb = fn }
func (t *TickDetector) SetEnabled(enabled bool)       { t.enabled = enabled }
func (t *TickDetector) FlashFrames() int              { return t.engine.FlashFrames() }
func (t *TickDetector) DecrementFlash()               { t.engine.DecrementFlash() }
func (t *TickDetector) Baseline() float64             { return t.engine.Baseline() }
func (t *TickDetector) Threshold() float64            { return t.engine.Threshold() }
func (t *TickDetector) CurrentEnergy() float64        { return t.engine.CurrentEnergy() }
func (t *TickDetector) EventCount() int               { return t.engine.EventCount() }
func (t *TickDetector) State() PulseState             { return t.engine.State() }

// SetThresholdMultiplier and SetAlphaDown implement control.Target so the
// text command plane (spec §6.4) can retune this detector between frames.
func (t *TickDetector) SetThresholdMultiplier(v float64) { t.engine.SetThresholdMultiplier(v) }
func (t *TickDetector) SetAlphaDown(v float64)           { t.engine.SetAlphaDown(v) }

func (t *TickDetector) Reset() {
	t.spectral.Reset()
	t.engine.Reset()
	t.elapsedMs = 0
}
