package decimate

import "github.com/cwsl/wwvsync/internal/wwverrors"

const (
	// InRate is the front-end sample rate.
	InRate = 2_000_000.0
	// DetectorRate is the rate consumed by every pulse detector.
	DetectorRate = 50_000.0
	// DisplayRate is the rate handed to display/waterfall collaborators.
	DisplayRate = 12_000.0

	stage1Factor = 8
	stage2Factor = 5
	stage3Factor = 4 // detector-rate -> 12_500 Hz, ahead of the final 48/50 resample
)

// Decimator is the cascaded multi-rate converter described in §4.2: it
// shares one input sample index across both output paths so they can never
// drift relative to each other.
type Decimator struct {
	stage1 *Stage // 2 Msps -> 250 kHz, decimate-by-8
	stage2 *Stage // 250 kHz -> 50 kHz, decimate-by-5 (detector rate)
	stage3 *Stage // 50 kHz -> 12.5 kHz, decimate-by-4
	resamp *RationalResampler // 12.5 kHz -> 12 kHz, polyphase 48/50

	detectorOut chan [2]float64
	displayOut  chan [2]float64
}

// NewDecimator builds the cascade with bounded intermediate buffers; an
// output channel that fills because the caller isn't draining it surfaces
// ErrBufferFull rather than silently dropping samples (§4.2 failure mode).
func NewDecimator(detectorBuf, displayBuf int) *Decimator {
	return &Decimator{
		stage1:      NewStage(InRate, 100_000, stage1Factor, 63),
		stage2:      NewStage(InRate/stage1Factor, 20_000, stage2Factor, 63),
		stage3:      NewStage(DetectorRate, 5_000, stage3Factor, 31),
		resamp:      NewRationalResampler(48, 50, 8),
		detectorOut: make(chan [2]float64, detectorBuf),
		displayOut:  make(chan [2]float64, displayBuf),
	}
}

// Process normalizes one int16 I/Q pair and pushes it through the cascade.
// Ready detector-rate and display-rate samples, if any, are enqueued onto
// the Decimator's output channels. Returns ErrBufferFull if either output
// channel is full; the caller should drain DetectorOutput/DisplayOutput
// more aggressively and may retry.
func (d *Decimator) Process(iRaw, qRaw int16) error {
	i := Normalize(iRaw)
	q := Normalize(qRaw)

	i1, q1, ok1 := d.stage1.Push(i, q)
	if !ok1 {
		return nil
	}
	i2, q2, ok2 := d.stage2.Push(i1, q1)
	if !ok2 {
		return nil
	}
	// detector-rate sample ready
	select {
	case d.detectorOut <- [2]float64{i2, q2}:
	default:
		return wwverrors.ErrBufferFull
	}

	i3, q3, ok3 := d.stage3.Push(i2, q2)
	if !ok3 {
		return nil
	}
	d.resamp.Push(i3, q3)
	for {
		di, dq, ok := d.resamp.Next()
		if !ok {
			break
		}
		select {
		case d.displayOut <- [2]float64{di, dq}:
		default:
			return wwverrors.ErrBufferFull
		}
	}
	return nil
}

// DetectorOutput returns the channel of detector-rate (50 kHz) samples.
func (d *Decimator) DetectorOutput() <-chan [2]float64 { return d.detectorOut }

// DisplayOutput returns the channel of display-rate (12 kHz) samples.
func (d *Decimator) DisplayOutput() <-chan [2]float64 { return d.displayOut }

// Reset clears all stage state, e.g. on an upstream discontinuity (§6.1).
func (d *Decimator) Reset() {
	d.stage1.Reset()
	d.stage2.Reset()
	d.stage3.Reset()
	d.resamp.Reset()
drain:
	for {
		select {
		case <-d.detectorOut:
		default:
			break drain
		}
	}
drainDisplay:
	for {
		select {
		case <-d.displayOut:
		default:
			break drainDisplay
		}
	}
}

// Normalize converts a signed 16-bit sample to a float in [-1, 1].
func Normalize(x int16) float64 {
	return float64(x) / 32768.0
}
