// Package dsp implements the numerical primitives shared by every detector
// on the sample path: biquad filters, a DC blocker, a complex oscillator, a
// sliding power ring and a Goertzel single-bin estimator. None of these
// allocate on the hot path once constructed.
package dsp

import "math"

// BiquadType selects the RBJ cookbook filter response.
type BiquadType int

const (
	BiquadLowpass BiquadType = iota
	BiquadHighpass
	BiquadBandpass
	BiquadNotch
)

// Biquad is a direct-form-I biquadratic IIR filter.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64

	groupDelaySamples float64
}

// NewBiquad builds a biquad from the RBJ cookbook coefficients for the given
// sample rate, center frequency and Q. The group delay at fc is derived from
// the coefficients (Design note §9: never hardcode it) via the filter's
// phase response at the two frequencies bracketing fc.
func NewBiquad(kind BiquadType, fs, fc, q float64) *Biquad {
	f := &Biquad{}
	f.Configure(kind, fs, fc, q)
	return f
}

// Configure (re)computes the filter coefficients in place, resetting state.
func (f *Biquad) Configure(kind BiquadType, fs, fc, q float64) {
	omega := 2.0 * math.Pi * fc / fs
	sinw := math.Sin(omega)
	cosw := math.Cos(omega)
	alpha := sinw / (2.0 * q)

	var a0 float64
	switch kind {
	case BiquadLowpass:
		f.b0 = (1.0 - cosw) / 2.0
		f.b1 = 1.0 - cosw
		f.b2 = (1.0 - cosw) / 2.0
		a0 = 1.0 + alpha
		f.a1 = -2.0 * cosw
		f.a2 = 1.0 - alpha
	case BiquadHighpass:
		f.b0 = (1.0 + cosw) / 2.0
		f.b1 = -(1.0 + cosw)
		f.b2 = (1.0 + cosw) / 2.0
		a0 = 1.0 + alpha
		f.a1 = -2.0 * cosw
		f.a2 = 1.0 - alpha
	case BiquadBandpass:
		f.b0 = alpha
		f.b1 = 0.0
		f.b2 = -alpha
		a0 = 1.0 + alpha
		f.a1 = -2.0 * cosw
		f.a2 = 1.0 - alpha
	case BiquadNotch:
		f.b0 = 1.0
		f.b1 = -2.0 * cosw
		f.b2 = 1.0
		a0 = 1.0 + alpha
		f.a1 = -2.0 * cosw
		f.a2 = 1.0 - alpha
	}

	f.b0 /= a0
	f.b1 /= a0
	f.b2 /= a0
	f.a1 /= a0
	f.a2 /= a0

	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
	f.groupDelaySamples = groupDelayAt(f.b0, f.b1, f.b2, f.a1, f.a2, omega)
}

// Process advances the filter by one sample.
func (f *Biquad) Process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// Reset clears the filter's delay line without recomputing coefficients.
func (f *Biquad) Reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

// GroupDelaySamples returns the filter's group delay at its design
// frequency, in samples, derived once at construction time.
func (f *Biquad) GroupDelaySamples() float64 {
	return f.groupDelaySamples
}

// groupDelayAt estimates the group delay (in samples) of a biquad section at
// angular frequency omega via the discrete derivative of phase:
// tau(w) = -d(phase)/dw, approximated with a small symmetric finite
// difference around omega so we never hand-carry a magic constant per filter
// the way the source does.
func groupDelayAt(b0, b1, b2, a1, a2, omega float64) float64 {
	const dw = 1e-3
	phase := func(w float64) float64 {
		num := complex(b0, 0) + complex(b1, 0)*cExp(-w) + complex(b2, 0)*cExp(-2*w)
		den := complex(1, 0) + complex(a1, 0)*cExp(-w) + complex(a2, 0)*cExp(-2*w)
		h := num / den
		return math.Atan2(imag(h), real(h))
	}
	p1 := phase(omega - dw)
	p2 := phase(omega + dw)
	// unwrap the small window so the finite difference doesn't see a
	// spurious +-2pi jump
	for p2-p1 > math.Pi {
		p2 -= 2 * math.Pi
	}
	for p2-p1 < -math.Pi {
		p2 += 2 * math.Pi
	}
	return -(p2 - p1) / (2 * dw)
}

func cExp(theta float64) complex128 {
	return complex(math.Cos(theta), math.Sin(theta))
}
