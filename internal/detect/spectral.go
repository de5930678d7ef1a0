package detect

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// SpectralEstimator is the block FFT magnitude estimator used by the tick,
// marker and BCD-frequency detectors (spec §4.3 step 1): each fftSize
// samples form one non-overlapping frame. Callers push the real (in-phase)
// part of each complex sample, not its magnitude, since every detector
// target here is a tone rather than a frequency offset to resolve in the
// complex plane.
type SpectralEstimator struct {
	sampleRate float64
	fftSize    int
	targetBin  int

	window      []float64
	buffer      []float64
	bufferIndex int
	fftInstance *fourier.FFT
}

// NewSpectralEstimator builds an estimator tuned to report power at
// targetHz. fftSize must be a power of two for a clean frame period.
func NewSpectralEstimator(sampleRate float64, fftSize int, targetHz float64) *SpectralEstimator {
	df := sampleRate / float64(fftSize)
	window := make([]float64, fftSize)
	for i := range window {
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(fftSize-1)))
	}
	return &SpectralEstimator{
		sampleRate:  sampleRate,
		fftSize:     fftSize,
		targetBin:   int(math.Round(targetHz / df)),
		window:      window,
		buffer:      make([]float64, fftSize),
		fftInstance: fourier.NewFFT(fftSize),
	}
}

// FramePeriodMs is the wall-clock duration one FFT frame spans.
func (s *SpectralEstimator) FramePeriodMs() float64 {
	return 1000.0 * float64(s.fftSize) / s.sampleRate
}

// Push adds one real-valued sample to the current frame. When the frame fills,
// it returns the power at the target bin and true; otherwise false.
func (s *SpectralEstimator) Push(sample float64) (power float64, ready bool) {
	s.buffer[s.bufferIndex] = sample
	s.bufferIndex++
	if s.bufferIndex < s.fftSize {
		return 0, false
	}
	s.bufferIndex = 0

	windowed := make([]float64, s.fftSize)
	for i, v := range s.buffer {
		windowed[i] = v * s.window[i]
	}
	coeffs := s.fftInstance.Coefficients(nil, windowed)
	re := real(coeffs[s.targetBin])
	im := imag(coeffs[s.targetBin])
	return re*re + im*im, true
}

// Reset clears the sliding frame.
func (s *SpectralEstimator) Reset() {
	for i := range s.buffer {
		s.buffer[i] = 0
	}
	s.bufferIndex = 0
}
