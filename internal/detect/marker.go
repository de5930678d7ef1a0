package detect

import (
	"github.com/cwsl/wwvsync/internal/event"
)

// MarkerDetector finds the 800ms minute/hour markers (spec §4.3.2). Rate:
// 50kHz, ~20ms frames. The marker at second 0 is 1000Hz (WWV) / 1200Hz
// (WWVH), except at minute 0 of the hour where it is 1500Hz; the detector
// tracks whichever frequency it's configured for. The receiver runs one
// detector per candidate tone and infers the station from which one fires.
type MarkerDetector struct {
	spectral       *SpectralEstimator
	engine         *PulseEngine
	toneHz         float64
	samplePeriodMs float64
	elapsedMs      float64

	cb      EventCallback
	enabled bool
}

// NewMarkerDetector builds a marker detector tracking one candidate tone.
func NewMarkerDetector(sampleRate, toneHz, groupDelayMs float64) *MarkerDetector {
	const fftSize = 1024 // 1024/50000 = 20.48ms
	spectral := NewSpectralEstimator(sampleRate, fftSize, toneHz)
	engine := NewPulseEngine(PulseEngineConfig{
		FrameMs:             spectral.FramePeriodMs(),
		MinDurationMs:       700,
		MaxDurationMs:       900,
		CooldownMs:          500,
		WarmupMs:            10_000,
		AlphaUp:             0.02,
		AlphaDown:           0.1,
		ThresholdMultiplier: 3.0,
		HysteresisRatio:     0.7,
		GroupDelayMs:        groupDelayMs,
	})
	return &MarkerDetector{
		spectral:       spectral,
		engine:         engine,
		toneHz:         toneHz,
		samplePeriodMs: 1000.0 / sampleRate,
		enabled:        true,
	}
}

func (m *MarkerDetector) ProcessSample(i, q float64) bool {
	m.elapsedMs += m.samplePeriodMs
	if !m.enabled {
		return false
	}
	power, ready := m.spectral.Push(i)
	if !ready {
		return false
	}
	pulse, changed := m.engine.Step(m.elapsedMs, power)
	// Every marker-length pulse is also >=600ms and so carries LongPulse;
	// only the [700,900]ms window configured above is reported.
	if pulse != nil && pulse.DurationMs >= 700 && pulse.DurationMs <= 900 && m.cb != nil {
		m.cb(event.Event{
			Kind:            event.KindMarker,
			LeadingMs:       pulse.LeadingMs,
			TrailingMs:      pulse.TrailingMs,
			DurationMs:      pulse.DurationMs,
			PeakEnergy:      pulse.PeakEnergy,
			Baseline:        pulse.Baseline,
			ThresholdAtFire: pulse.Threshold,
			ToneFrequencyHz: m.toneHz,
			StationTickHz:   m.toneHz,
		})
	}
	return changed
}

func (m *MarkerDetector) SetCallback(fn EventCallback) { m.cb = fn }
func (m *MarkerDetector) SetEnabled(enabled bool)       { m.enabled = enabled }
func (m *MarkerDetector) FlashFrames() int              { return m.engine.FlashFrames() }
func (m *MarkerDetector) DecrementFlash()               { m.engine.DecrementFlash() }
func (m *MarkerDetector) Baseline() float64             { return m.engine.Baseline() }
func (m *MarkerDetector) Threshold() float64            { return m.engine.Threshold() }
func (m *MarkerDetector) CurrentEnergy() float64        { return m.engine.CurrentEnergy() }
func (m *MarkerDetector) EventCount() int               { return m.engine.EventCount() }
func (m *MarkerDetector) State() PulseState             { return m.engine.State() }

func (m *MarkerDetector) Reset() {
	m.spectral.Reset()
	m.engine.Reset()
	m.elapsedMs = 0
}
