package dsp

import (
	"math"
	"testing"
)

func TestDCBlockerDrivesConstantToZero(t *testing.T) {
	for _, alpha := range []float64{0.99, 0.995, 0.999, 0.9999} {
		d := NewDCBlocker(alpha)
		const c = 1.0
		n := int(10.0/(1.0-alpha)) + 1
		var y float64
		for i := 0; i < n; i++ {
			y = d.Process(c)
		}
		if math.Abs(y) >= 1e-4*c {
			t.Errorf("alpha=%v: |y|=%v did not settle within %d samples", alpha, y, n)
		}
	}
}

func TestDCBlockerPassesAC(t *testing.T) {
	const fs = 50000.0
	const f = 100.0
	d := NewDCBlocker(0.999)
	osc := NewOscillator(f, fs)
	var peak float64
	// discard a short warmup, then track peak amplitude over several cycles
	for i := 0; i < int(fs); i++ {
		c, _ := osc.Tick()
		y := d.Process(c)
		if i > int(fs)/2 {
			if math.Abs(y) > peak {
				peak = math.Abs(y)
			}
		}
	}
	if peak < 0.9 || peak > 1.1 {
		t.Errorf("AC peak amplitude %v outside expected near-unity band", peak)
	}
}

func TestBiquadBandpassUnityAtCenter(t *testing.T) {
	const fs = 50000.0
	const fc = 1000.0
	bq := NewBiquad(BiquadBandpass, fs, fc, 4.0)
	osc := NewOscillator(fc, fs)
	// run past settling time
	var peak float64
	for i := 0; i < 2000; i++ {
		c, _ := osc.Tick()
		y := bq.Process(c)
		if i > 1000 && math.Abs(y) > peak {
			peak = math.Abs(y)
		}
	}
	if math.Abs(peak-1.0) > 0.1 {
		t.Errorf("steady-state gain at fc = %v, want within 0.1 of unity", peak)
	}
}

func TestBiquadBandpassAttenuatesDecadeAway(t *testing.T) {
	const fs = 50000.0
	const fc = 1000.0
	bq := NewBiquad(BiquadBandpass, fs, fc, 4.0)
	osc := NewOscillator(fc/10.0, fs)
	var peakCenter, peakOff float64
	for i := 0; i < 2000; i++ {
		c, _ := osc.Tick()
		y := bq.Process(c)
		if i > 1000 && math.Abs(y) > peakOff {
			peakOff = math.Abs(y)
		}
	}

	bq2 := NewBiquad(BiquadBandpass, fs, fc, 4.0)
	osc2 := NewOscillator(fc, fs)
	for i := 0; i < 2000; i++ {
		c, _ := osc2.Tick()
		y := bq2.Process(c)
		if i > 1000 && math.Abs(y) > peakCenter {
			peakCenter = math.Abs(y)
		}
	}

	attenDB := 20 * math.Log10(peakCenter/peakOff)
	if attenDB < 14 {
		t.Errorf("attenuation one decade from fc = %.1f dB, want > 14 dB", attenDB)
	}
}

func TestOscillatorPhaseWrapAndUnityAmplitude(t *testing.T) {
	osc := NewOscillator(1000, 50000)
	for i := 0; i < 1_000_000; i++ {
		c, s := osc.Tick()
		mag := math.Hypot(c, s)
		if math.Abs(mag-1.0) > 1e-9 {
			t.Fatalf("sample %d: amplitude drifted to %v", i, mag)
		}
	}
}

func TestPowerRingMeanAndVariance(t *testing.T) {
	r := NewPowerRing(4)
	for _, v := range []float64{1, 2, 3, 4} {
		r.Push(v)
	}
	if r.Mean() != 2.5 {
		t.Errorf("mean = %v, want 2.5", r.Mean())
	}
	r.Push(5) // evicts the 1
	if !r.Full() {
		t.Errorf("ring should report full at capacity")
	}
	if got, want := r.Mean(), 3.5; got != want {
		t.Errorf("mean after eviction = %v, want %v", got, want)
	}
}

func TestAsymmetricEMARisesSlowlyFallsFast(t *testing.T) {
	e := NewAsymmetricEMA(0.01, 0.95, 0.0)
	e.Update(1.0)
	rose := e.Value()
	e2 := NewAsymmetricEMA(0.01, 0.95, 1.0)
	e2.Update(0.0)
	fell := 1.0 - e2.Value()
	if fell <= rose {
		t.Errorf("expected fast decay (%v) to move further in one step than slow rise (%v)", fell, rose)
	}
}

func TestAsymmetricEMAFreezeHoldsValue(t *testing.T) {
	e := NewAsymmetricEMA(0.5, 0.5, 1.0)
	e.SetFrozen(true)
	e.Update(100.0)
	if e.Value() != 1.0 {
		t.Errorf("frozen EMA moved to %v", e.Value())
	}
}

func TestGoertzelDetectsTargetTone(t *testing.T) {
	const fs = 50000.0
	g := NewGoertzel(fs, 1000, 256)
	osc := NewOscillator(1000, fs)
	var mag2 float64
	for !g.BlockComplete() {
		c, _ := osc.Tick()
		g.ProcessSample(c)
	}
	mag2 = g.MagnitudeSquared()

	gOff := NewGoertzel(fs, 1000, 256)
	oscOff := NewOscillator(3000, fs)
	for !gOff.BlockComplete() {
		c, _ := oscOff.Tick()
		gOff.ProcessSample(c)
	}
	mag2Off := gOff.MagnitudeSquared()

	if mag2 <= mag2Off*5 {
		t.Errorf("on-target power %v not well separated from off-target power %v", mag2, mag2Off)
	}
}
