package dsp

import "math"

// Oscillator is a complex NCO used to mix a sample stream down to baseband
// before narrowband detection. Phase is wrapped to [-pi, pi] every sample so
// amplitude stays exactly 1 across arbitrarily long guard boundaries.
type Oscillator struct {
	phase     float64
	increment float64
}

// NewOscillator builds an oscillator that advances by freq/sampleRate
// cycles per sample.
func NewOscillator(freq, sampleRate float64) *Oscillator {
	return &Oscillator{increment: 2 * math.Pi * freq / sampleRate}
}

// Tick returns the next (cos, sin) pair and advances the phase.
func (o *Oscillator) Tick() (cos, sin float64) {
	cos, sin = math.Cos(o.phase), math.Sin(o.phase)
	o.phase += o.increment
	if o.phase > math.Pi {
		o.phase -= 2 * math.Pi
	} else if o.phase < -math.Pi {
		o.phase += 2 * math.Pi
	}
	return cos, sin
}

// Mix performs a complex multiply of (i, q) by e^{j*phase} and advances the
// oscillator by one sample.
func (o *Oscillator) Mix(i, q float64) (iOut, qOut float64) {
	c, s := o.Tick()
	iOut = i*c - q*s
	qOut = i*s + q*c
	return iOut, qOut
}

// Reset zeroes the phase.
func (o *Oscillator) Reset() {
	o.phase = 0
}
