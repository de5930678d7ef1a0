package decimate

// Stage is a decimate-by-N FIR stage: every input sample is filtered, and
// every Nth filtered output is kept. It runs two FIR instances (I and Q)
// with identical taps so the complex pair stays symmetric (§4.2 contract).
type Stage struct {
	firI, firQ *FIR
	factor     int
	phase      int
}

// NewStage builds a decimate-by-factor FIR stage with a Hamming-windowed
// low-pass prototype at cutoffHz, evaluated at inRate.
func NewStage(inRate, cutoffHz float64, factor, taps int) *Stage {
	h := designLowpassFIR(cutoffHz, inRate, taps)
	return &Stage{
		firI:   NewFIR(h),
		firQ:   NewFIR(h),
		factor: factor,
	}
}

// Push filters one (I, Q) input sample and reports whether a decimated
// output sample is ready this call.
func (s *Stage) Push(i, q float64) (outI, outQ float64, ok bool) {
	fi := s.firI.Process(i)
	fq := s.firQ.Process(q)
	s.phase++
	if s.phase == s.factor {
		s.phase = 0
		return fi, fq, true
	}
	return 0, 0, false
}

// Reset clears both filters' delay lines and the decimation phase.
func (s *Stage) Reset() {
	s.firI.Reset()
	s.firQ.Reset()
	s.phase = 0
}

// Factor returns the stage's decimation ratio.
func (s *Stage) Factor() int { return s.factor }
