package detect

import (
	"math"

	"github.com/cwsl/wwvsync/internal/dsp"
	"github.com/cwsl/wwvsync/internal/event"
)

// CarrierTracker estimates the zero-IF carrier's residual frequency offset
// and SNR once per second from the instantaneous phase rotation of the
// complex baseband stream (spec §4.3.4). Unlike the pulse detectors it
// never fires on an edge; it emits one record per accumulation window
// regardless of signal state.
type CarrierTracker struct {
	sampleRate     float64
	samplePeriodMs float64
	windowSamples  int
	centerHz       float64

	prevI, prevQ float64
	havePrev     bool

	phaseAccum float64
	powerRing  *dsp.PowerRing
	samplesIn  int
	elapsedMs  float64

	cb      EventCallback
	enabled bool
}

// NewCarrierTracker builds a tracker reporting once every windowMs.
func NewCarrierTracker(sampleRate, centerHz, windowMs float64) *CarrierTracker {
	windowSamples := int(sampleRate * windowMs / 1000.0)
	if windowSamples < 1 {
		windowSamples = 1
	}
	return &CarrierTracker{
		sampleRate:     sampleRate,
		samplePeriodMs: 1000.0 / sampleRate,
		windowSamples:  windowSamples,
		centerHz:       centerHz,
		powerRing:      dsp.NewPowerRing(windowSamples),
		enabled:        true,
	}
}

func (c *CarrierTracker) ProcessSample(i, q float64) bool {
	c.elapsedMs += c.samplePeriodMs
	if !c.enabled {
		return false
	}
	power := i*i + q*q
	c.powerRing.Push(power)

	if c.havePrev {
		// Instantaneous phase delta between consecutive complex samples,
		// equivalent to the signal's instantaneous frequency at DC.
		dPhase := math.Atan2(q*c.prevI-i*c.prevQ, i*c.prevI+q*c.prevQ)
		c.phaseAccum += dPhase
	}
	c.prevI, c.prevQ = i, q
	c.havePrev = true
	c.samplesIn++

	if c.samplesIn < c.windowSamples {
		return false
	}

	meanDPhaseHz := (c.phaseAccum / float64(c.samplesIn)) * c.sampleRate / (2 * math.Pi)
	offsetHz := meanDPhaseHz
	offsetPPM := 0.0
	if c.centerHz != 0 {
		offsetPPM = offsetHz / c.centerHz * 1e6
	}

	mean := c.powerRing.Mean()
	std := c.powerRing.StdDev()
	var snrDB float64
	if std > 0 {
		snrDB = 10 * math.Log10(mean/std)
	}

	if c.cb != nil {
		c.cb(event.Event{
			Kind:            event.KindCarrier,
			LeadingMs:       c.elapsedMs,
			TrailingMs:      c.elapsedMs,
			PeakEnergy:      mean,
			ToneFrequencyHz: c.centerHz,
			OffsetHz:        offsetHz,
			OffsetPPM:       offsetPPM,
			SNRdB:           snrDB,
			Valid:           snrDB > 0,
		})
	}

	c.phaseAccum = 0
	c.samplesIn = 0
	return true
}

func (c *CarrierTracker) SetCallback(fn EventCallback) { c.cb = fn }
func (c *CarrierTracker) SetEnabled(enabled bool)       { c.enabled = enabled }
func (c *CarrierTracker) FlashFrames() int              { return 0 }
func (c *CarrierTracker) DecrementFlash()               {}
func (c *CarrierTracker) Baseline() float64             { return c.powerRing.Mean() }
func (c *CarrierTracker) Threshold() float64            { return 0 }
func (c *CarrierTracker) CurrentEnergy() float64        { return c.powerRing.Mean() }
func (c *CarrierTracker) EventCount() int               { return 0 }
func (c *CarrierTracker) State() PulseState             { return StateIdle }

func (c *CarrierTracker) Reset() {
	c.powerRing.Reset()
	c.phaseAccum = 0
	c.samplesIn = 0
	c.havePrev = false
	c.elapsedMs = 0
}

// ToneTracker reports the SNR of one of the fixed WWV/WWVH audio tones
// (440/500/600/1000/1200/1500Hz) once per accumulation window, used for
// station identification and signal-quality telemetry (spec §4.3.4). It
// only ever needs one bin's power, so it runs on dsp.Goertzel rather than
// SpectralEstimator's full FFT — the single-tone case Goertzel exists for.
type ToneTracker struct {
	goertzel  *dsp.Goertzel
	toneHz    float64
	powerRing *dsp.PowerRing
	framesPerWindow int
	frameCount      int
	elapsedMs       float64
	blockPeriodMs   float64

	cb      EventCallback
	enabled bool
}

// NewToneTracker builds a tracker that reports roughly once every
// windowMs, using blockSize-sample Goertzel blocks at sampleRate.
func NewToneTracker(sampleRate, toneHz, windowMs float64, blockSize int) *ToneTracker {
	goertzel := dsp.NewGoertzel(sampleRate, toneHz, blockSize)
	blockPeriodMs := 1000.0 * float64(blockSize) / sampleRate
	framesPerWindow := int(windowMs / blockPeriodMs)
	if framesPerWindow < 1 {
		framesPerWindow = 1
	}
	return &ToneTracker{
		goertzel:        goertzel,
		toneHz:          toneHz,
		powerRing:       dsp.NewPowerRing(framesPerWindow),
		framesPerWindow: framesPerWindow,
		blockPeriodMs:   blockPeriodMs,
		enabled:         true,
	}
}

func (t *ToneTracker) ProcessSample(i, q float64) bool {
	if !t.enabled {
		return false
	}
	t.goertzel.ProcessSample(i)
	if !t.goertzel.BlockComplete() {
		return false
	}
	power := t.goertzel.MagnitudeSquared()
	t.elapsedMs += t.blockPeriodMs
	t.powerRing.Push(power)
	t.frameCount++
	if t.frameCount < t.framesPerWindow {
		return true
	}
	t.frameCount = 0

	mean := t.powerRing.Mean()
	std := t.powerRing.StdDev()
	var snrDB float64
	if std > 0 {
		snrDB = 10 * math.Log10(mean/std)
	}
	if t.cb != nil {
		t.cb(event.Event{
			Kind:            event.KindTone,
			LeadingMs:       t.elapsedMs,
			TrailingMs:      t.elapsedMs,
			PeakEnergy:      mean,
			ToneFrequencyHz: t.toneHz,
			SNRdB:           snrDB,
			Valid:           snrDB > 3,
		})
	}
	return true
}

func (t *ToneTracker) SetCallback(fn EventCallback) { t.cb = fn }
func (t *ToneTracker) SetEnabled(enabled bool)       { t.enabled = enabled }
func (t *ToneTracker) FlashFrames() int              { return 0 }
func (t *ToneTracker) DecrementFlash()               {}
func (t *ToneTracker) Baseline() float64             { return t.powerRing.Mean() }
func (t *ToneTracker) Threshold() float64            { return 0 }
func (t *ToneTracker) CurrentEnergy() float64        { return t.powerRing.Mean() }
func (t *ToneTracker) EventCount() int               { return 0 }
func (t *ToneTracker) State() PulseState             { return StateIdle }

func (t *ToneTracker) Reset() {
	t.goertzel.Reset()
	t.powerRing.Reset()
	t.frameCount = 0
	t.elapsedMs = 0
}
