package decimate

// RationalResampler performs an exact-ratio L/M polyphase resample, used as
// the final display-path stage (§4.2 stage 3) to land on a display rate
// that isn't an integer divisor of the detector rate. It keeps I and Q in
// separate polyphase banks built from the same prototype filter so the
// complex pair stays symmetric.
type RationalResampler struct {
	l, m int

	phasesI, phasesQ [][]float64 // l phase banks, each tapsPerPhase taps

	histI, histQ []float64 // ring of the last tapsPerPhase input samples
	histPos      int
	inCount      int // total input samples pushed (1-based once >0)
	outCount     int // total output samples produced
}

// NewRationalResampler builds a resampler that converts a stream sampled at
// inRate*L/M... in practice the caller picks l/m to hit the exact target
// rate (e.g. 48/50 to go from 12500 Hz to 12000 Hz).
func NewRationalResampler(l, m, tapsPerPhase int) *RationalResampler {
	proto := designInterpolationPrototype(l, m, tapsPerPhase)
	phasesI := splitPolyphase(proto, l, tapsPerPhase)
	phasesQ := make([][]float64, l)
	copy(phasesQ, phasesI) // identical taps for I and Q; banks are read-only

	return &RationalResampler{
		l: l, m: m,
		phasesI: phasesI, phasesQ: phasesQ,
		histI: make([]float64, tapsPerPhase),
		histQ: make([]float64, tapsPerPhase),
	}
}

// designInterpolationPrototype builds a windowed-sinc low-pass of length
// l*tapsPerPhase, normalized to unity DC gain after the l-fold zero-stuffing
// loss (i.e. coefficients sum to l).
func designInterpolationPrototype(l, m, tapsPerPhase int) []float64 {
	taps := l * tapsPerPhase
	cutoffCycles := 0.5 / float64(l)
	if 0.5/float64(m) < cutoffCycles {
		cutoffCycles = 0.5 / float64(m)
	}
	h := designLowpassFIR(cutoffCycles, 1.0, taps) // cutoffHz/sampleRate == cutoffCycles directly
	scale := float64(l)
	for i := range h {
		h[i] *= scale
	}
	return h
}

// splitPolyphase decomposes a length l*tapsPerPhase prototype into l phase
// banks of tapsPerPhase coefficients each: phase p holds proto[p], proto[p+l],
// proto[p+2l], ...
func splitPolyphase(proto []float64, l, tapsPerPhase int) [][]float64 {
	phases := make([][]float64, l)
	for p := 0; p < l; p++ {
		bank := make([]float64, tapsPerPhase)
		for k := 0; k < tapsPerPhase; k++ {
			bank[k] = proto[p+k*l]
		}
		phases[p] = bank
	}
	return phases
}

// Push feeds one input (I, Q) sample. Zero or more output samples may
// become available; the caller should call Next in a loop afterward.
func (r *RationalResampler) Push(i, q float64) {
	r.histI[r.histPos] = i
	r.histQ[r.histPos] = q
	r.histPos = (r.histPos + 1) % len(r.histI)
	r.inCount++
}

// Next returns the next output sample if enough input history has arrived
// to compute it.
func (r *RationalResampler) Next() (outI, outQ float64, ok bool) {
	needed := (r.outCount * r.m) / r.l
	if r.inCount == 0 || needed > r.inCount-1 {
		return 0, 0, false
	}
	phase := (r.outCount * r.m) % r.l

	tapsPerPhase := len(r.histI)
	d := (r.inCount - 1) - needed
	if d >= tapsPerPhase {
		// needed sample has already aged out of history; this should not
		// happen for l/m close to 1, but guard rather than read garbage.
		r.outCount++
		return 0, 0, false
	}

	bankI := r.phasesI[phase]
	bankQ := r.phasesQ[phase]
	var accI, accQ float64
	for k := 0; k < tapsPerPhase; k++ {
		// sample index (needed - k) maps to ring position (writePos-1-d-k)
		idx := (r.histPos - 1 - d - k + 10*tapsPerPhase) % tapsPerPhase
		accI += bankI[k] * r.histI[idx]
		accQ += bankQ[k] * r.histQ[idx]
	}
	r.outCount++
	return accI, accQ, true
}

// Reset clears all state, including the input/output sample counters.
func (r *RationalResampler) Reset() {
	for i := range r.histI {
		r.histI[i] = 0
		r.histQ[i] = 0
	}
	r.histPos = 0
	r.inCount = 0
	r.outCount = 0
}
