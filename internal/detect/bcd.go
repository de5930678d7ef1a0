package detect

import (
	"math"

	"github.com/cwsl/wwvsync/internal/event"
)

// classifyBCDWidth maps a pulse duration to the 100Hz subcarrier's
// pulse-width code (spec §4.3.3, GLOSSARY): ~200ms is a zero, ~500ms a
// one, ~800ms a position marker, each with a +-50ms tolerance band.
func classifyBCDWidth(durationMs float64) (symbol event.BCDSymbol, valid bool) {
	switch {
	case durationMs >= 150 && durationMs <= 250:
		return event.BCDZero, true
	case durationMs >= 450 && durationMs <= 550:
		return event.BCDOne, true
	case durationMs >= 750 && durationMs <= 850:
		return event.BCDPositionMarker, true
	default:
		return event.BCDZero, false
	}
}

// BCDTimeDetector classifies the once-per-second 100Hz subcarrier pulse by
// measuring its envelope duration directly in the time domain (spec
// §4.3.3). It is the primary BCD decoder; BCDFreqDetector cross-checks it.
type BCDTimeDetector struct {
	engine         *PulseEngine
	samplePeriodMs float64
	elapsedMs      float64
	secondCounter  int

	cb      EventCallback
	enabled bool
}

func NewBCDTimeDetector(sampleRate, groupDelayMs float64) *BCDTimeDetector {
	engine := NewPulseEngine(PulseEngineConfig{
		FrameMs:             1000.0 / sampleRate,
		MinDurationMs:       150,
		MaxDurationMs:       850,
		CooldownMs:          100,
		WarmupMs:            2000,
		AlphaUp:             0.01,
		AlphaDown:           0.05,
		ThresholdMultiplier: 2.5,
		HysteresisRatio:     0.6,
		GroupDelayMs:        groupDelayMs,
	})
	return &BCDTimeDetector{
		engine:         engine,
		samplePeriodMs: 1000.0 / sampleRate,
		enabled:        true,
	}
}

func (b *BCDTimeDetector) ProcessSample(i, q float64) bool {
	b.elapsedMs += b.samplePeriodMs
	if !b.enabled {
		return false
	}
	envelope := math.Hypot(i, q)
	pulse, changed := b.engine.Step(b.elapsedMs, envelope*envelope)
	if pulse != nil && b.cb != nil {
		symbol, valid := classifyBCDWidth(pulse.DurationMs)
		if symbol == event.BCDPositionMarker {
			b.secondCounter = 0
		}
		b.cb(event.Event{
			Kind:            event.KindBCDTime,
			LeadingMs:       pulse.LeadingMs,
			TrailingMs:      pulse.TrailingMs,
			DurationMs:      pulse.DurationMs,
			PeakEnergy:      pulse.PeakEnergy,
			Baseline:        pulse.Baseline,
			ThresholdAtFire: pulse.Threshold,
			Symbol:          symbol,
			SecondInMinute:  b.secondCounter,
			Valid:           valid,
		})
		b.secondCounter++
	}
	return changed
}

func (b *BCDTimeDetector) SetCallback(fn EventCallback) { b.cb = fn }
func (b *BCDTimeDetector) SetEnabled(enabled bool)       { b.enabled = enabled }
func (b *BCDTimeDetector) FlashFrames() int              { return b.engine.FlashFrames() }
func (b *BCDTimeDetector) DecrementFlash()               { b.engine.DecrementFlash() }
func (b *BCDTimeDetector) Baseline() float64             { return b.engine.Baseline() }
func (b *BCDTimeDetector) Threshold() float64            { return b.engine.Threshold() }
func (b *BCDTimeDetector) CurrentEnergy() float64        { return b.engine.CurrentEnergy() }
func (b *BCDTimeDetector) EventCount() int               { return b.engine.EventCount() }
func (b *BCDTimeDetector) State() PulseState             { return b.engine.State() }

func (b *BCDTimeDetector) Reset() {
	b.engine.Reset()
	b.elapsedMs = 0
	b.secondCounter = 0
}

// BCDFreqDetector cross-checks BCDTimeDetector by measuring the same pulse
// train's width from the 100Hz subcarrier's spectral energy instead of its
// raw envelope, catching envelope-only impairments the time-domain path
// would miss (spec §4.3.3).
type BCDFreqDetector struct {
	spectral       *SpectralEstimator
	engine         *PulseEngine
	samplePeriodMs float64
	elapsedMs      float64
	secondCounter  int

	cb      EventCallback
	enabled bool
}

func NewBCDFreqDetector(sampleRate, groupDelayMs float64) *BCDFreqDetector {
	const fftSize = 512 // 512/50000 = 10.24ms frames, resolves 100Hz cleanly
	spectral := NewSpectralEstimator(sampleRate, fftSize, 100)
	engine := NewPulseEngine(PulseEngineConfig{
		FrameMs:             spectral.FramePeriodMs(),
		MinDurationMs:       150,
		MaxDurationMs:       850,
		CooldownMs:          100,
		WarmupMs:            2000,
		AlphaUp:             0.01,
		AlphaDown:           0.05,
		ThresholdMultiplier: 2.5,
		HysteresisRatio:     0.6,
		GroupDelayMs:        groupDelayMs,
	})
	return &BCDFreqDetector{
		spectral:       spectral,
		engine:         engine,
		samplePeriodMs: 1000.0 / sampleRate,
		enabled:        true,
	}
}

func (b *BCDFreqDetector) ProcessSample(i, q float64) bool {
	b.elapsedMs += b.samplePeriodMs
	if !b.enabled {
		return false
	}
	power, ready := b.spectral.Push(i)
	if !ready {
		return false
	}
	pulse, changed := b.engine.Step(b.elapsedMs, power)
	if pulse != nil && b.cb != nil {
		symbol, valid := classifyBCDWidth(pulse.DurationMs)
		if symbol == event.BCDPositionMarker {
			b.secondCounter = 0
		}
		b.cb(event.Event{
			Kind:            event.KindBCDFreq,
			LeadingMs:       pulse.LeadingMs,
			TrailingMs:      pulse.TrailingMs,
			DurationMs:      pulse.DurationMs,
			PeakEnergy:      pulse.PeakEnergy,
			Baseline:        pulse.Baseline,
			ThresholdAtFire: pulse.Threshold,
			Symbol:          symbol,
			SecondInMinute:  b.secondCounter,
			Valid:           valid,
		})
		b.secondCounter++
	}
	return changed
}

func (b *BCDFreqDetector) SetCallback(fn EventCallback) { b.cb = fn }
func (b *BCDFreqDetector) SetEnabled(enabled bool)       { b.enabled = enabled }
func (b *BCDFreqDetector) FlashFrames() int              { return b.engine.FlashFrames() }
func (b *BCDFreqDetector) DecrementFlash()               { b.engine.DecrementFlash() }
func (b *BCDFreqDetector) Baseline() float64             { return b.engine.Baseline() }
func (b *BCDFreqDetector) Threshold() float64            { return b.engine.Threshold() }
func (b *BCDFreqDetector) CurrentEnergy() float64        { return b.engine.CurrentEnergy() }
func (b *BCDFreqDetector) EventCount() int               { return b.engine.EventCount() }
func (b *BCDFreqDetector) State() PulseState             { return b.engine.State() }

func (b *BCDFreqDetector) Reset() {
	b.spectral.Reset()
	b.engine.Reset()
	b.elapsedMs = 0
	b.secondCounter = 0
}
