package dsp

import "math"

// Goertzel estimates the power at a single target frequency over a block of
// samples, far cheaper than a full FFT when only one bin is needed (used by
// the carrier/tone trackers).
type Goertzel struct {
	sampleRate float64
	frequency  float64
	blockSize  int

	coeff float64
	sinw  float64
	cosw  float64

	s1, s2 float64
	count  int
}

// NewGoertzel builds a block-size-sample estimator for frequency at
// sampleRate.
func NewGoertzel(sampleRate, frequency float64, blockSize int) *Goertzel {
	g := &Goertzel{sampleRate: sampleRate, frequency: frequency, blockSize: blockSize}
	k := math.Floor(0.5 + float64(blockSize)*frequency/sampleRate)
	omega := 2.0 * math.Pi * k / float64(blockSize)
	g.coeff = 2.0 * math.Cos(omega)
	g.sinw = math.Sin(omega)
	g.cosw = math.Cos(omega)
	return g
}

// ProcessSample feeds one sample into the running block.
func (g *Goertzel) ProcessSample(x float64) {
	s0 := x + g.coeff*g.s1 - g.s2
	g.s2 = g.s1
	g.s1 = s0
	g.count++
}

// BlockComplete reports whether a full block has been accumulated.
func (g *Goertzel) BlockComplete() bool {
	return g.count >= g.blockSize
}

// MagnitudeSquared computes the normalized power of the current block and
// resets the accumulator for the next one.
func (g *Goertzel) MagnitudeSquared() float64 {
	if g.count == 0 {
		return 0
	}
	re := g.s1*g.cosw - g.s2
	im := g.s1 * g.sinw
	mag2 := (re*re + im*im) / float64(g.count*g.count)
	g.s1, g.s2, g.count = 0, 0, 0
	return mag2
}

// Reset discards any partially-accumulated block.
func (g *Goertzel) Reset() {
	g.s1, g.s2, g.count = 0, 0, 0
}

// AsymmetricEMA tracks a baseline with distinct rise/fall time constants:
// it rises slowly (a genuine tone shouldn't inflate it quickly) and falls
// quickly (a quiet period should pull it down fast). Used by every
// detector's adaptive threshold (§4.3 step 3).
type AsymmetricEMA struct {
	AlphaUp   float64
	AlphaDown float64
	value     float64
	frozen    bool
}

// NewAsymmetricEMA builds a tracker seeded at initial with the given rates.
// alphaUp is expected in [0.001, 0.1], alphaDown in [0.9, 0.999].
func NewAsymmetricEMA(alphaUp, alphaDown, initial float64) *AsymmetricEMA {
	return &AsymmetricEMA{AlphaUp: alphaUp, AlphaDown: alphaDown, value: initial}
}

// Update folds in one new sample, unless the tracker is frozen (during an
// active pulse, per §4.3 step 3: "baseline update is frozen").
func (e *AsymmetricEMA) Update(sample float64) float64 {
	if e.frozen {
		return e.value
	}
	alpha := e.AlphaDown
	if sample > e.value {
		alpha = e.AlphaUp
	}
	e.value += alpha * (sample - e.value)
	return e.value
}

// Value returns the current baseline without updating it.
func (e *AsymmetricEMA) Value() float64 { return e.value }

// SetFrozen freezes or unfreezes baseline updates.
func (e *AsymmetricEMA) SetFrozen(frozen bool) { e.frozen = frozen }

// Reset seeds the baseline back to a fixed value and unfreezes it.
func (e *AsymmetricEMA) Reset(value float64) {
	e.value = value
	e.frozen = false
}
