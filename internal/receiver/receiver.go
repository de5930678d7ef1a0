// Package receiver wires the decimator, detectors, correlators, sync state
// machine, schedule clock, and bus into the single-threaded sample
// pipeline spec §5 describes: one task runs every sample through
// normalize -> decimate -> detectors (in registration order) -> correlate
// -> sync -> gate, synchronously, with no suspension except the upstream
// read and the bus publish.
package receiver

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cwsl/wwvsync/internal/bus"
	"github.com/cwsl/wwvsync/internal/correlate"
	"github.com/cwsl/wwvsync/internal/decimate"
	"github.com/cwsl/wwvsync/internal/detect"
	"github.com/cwsl/wwvsync/internal/event"
	"github.com/cwsl/wwvsync/internal/metrics"
	"github.com/cwsl/wwvsync/internal/schedule"
	"github.com/cwsl/wwvsync/internal/syncfsm"
	"github.com/cwsl/wwvsync/internal/wwvconfig"
)

// Receiver owns one complete detector/correlator/sync pipeline for one
// I/Q stream. Its instance ID survives across an upstream reset so logs
// and telemetry can distinguish "generations" of the same receiver,
// grounded on the teacher's session.go per-session uuid.New().String().
type Receiver struct {
	id string

	decimator *decimate.Decimator

	tick    *detect.TickDetector   // candidate WWV tone (1000Hz)
	tickH   *detect.TickDetector   // candidate WWVH tone (1200Hz)
	markerW *detect.MarkerDetector // candidate WWV tone (1000Hz)
	markerH *detect.MarkerDetector // candidate WWVH tone (1200Hz)
	markerM *detect.MarkerDetector // candidate hour marker (1500Hz, minute 0 of every hour)
	bcdTime *detect.BCDTimeDetector
	bcdFreq *detect.BCDFreqDetector
	carrier *detect.CarrierTracker
	tones   []*detect.ToneTracker

	tickCorr   *correlate.TickCorrelator
	markerCorr *correlate.MarkerCorrelator
	bcdCorr    *correlate.BCDCorrelator

	sync *syncfsm.Machine

	busOut  *bus.Bus
	metrics *metrics.Metrics

	secondOfMinute     int
	minuteOfHour       int
	lastScheduleSecond int
	scheduleStarted    bool
	station            schedule.Station
	lastTickConfidence float64
}

// New builds a Receiver from configuration. groupDelayMs is the measured
// decimator filter chain delay, applied uniformly to every detector so
// LeadingMs values line up across detector families. m is optional
// (nil disables metrics recording) so tests can build a Receiver without
// a process-wide collector registry.
func New(cfg *wwvconfig.Config, groupDelayMs float64, busOut *bus.Bus, m *metrics.Metrics) *Receiver {
	const detectorRate = decimate.DetectorRate

	r := &Receiver{
		id:        uuid.New().String(),
		decimator: decimate.NewDecimator(cfg.Decimator.DetectorBuffer, cfg.Decimator.DisplayBuffer),
		tick:      detect.NewTickDetector(detectorRate, schedule.StationWWV.TickToneHz(), groupDelayMs),
		tickH:     detect.NewTickDetector(detectorRate, schedule.StationWWVH.TickToneHz(), groupDelayMs),
		markerW:   detect.NewMarkerDetector(detectorRate, 1000, groupDelayMs),
		markerH:   detect.NewMarkerDetector(detectorRate, 1200, groupDelayMs),
		markerM:   detect.NewMarkerDetector(detectorRate, 1500, groupDelayMs),
		bcdTime:   detect.NewBCDTimeDetector(detectorRate, groupDelayMs),
		bcdFreq:   detect.NewBCDFreqDetector(detectorRate, groupDelayMs),
		carrier:   detect.NewCarrierTracker(detectorRate, cfg.Source.CenterHz, cfg.Carrier.WindowMs),

		tickCorr:   correlate.NewTickCorrelator(),
		markerCorr: correlate.NewMarkerCorrelator(),
		bcdCorr:    correlate.NewBCDCorrelator(),

		sync: syncfsm.NewMachine(),

		busOut:  busOut,
		metrics: m,
	}

	for _, tc := range cfg.Tones {
		r.tones = append(r.tones, detect.NewToneTracker(detectorRate, tc.FrequencyHz, 1000, 256))
	}

	r.wireCallbacks()
	log.Printf("[Receiver %s] initialized", r.id)
	return r
}

// ID returns this receiver's per-generation UUID.
func (r *Receiver) ID() string { return r.id }

// wireCallbacks registers every detector's event sink. Detector
// registration order here is the ordering guarantee spec §5 requires:
// tick, then marker candidates, then BCD, then carrier/tone.
func (r *Receiver) wireCallbacks() {
	r.tick.SetCallback(r.onTickEvent)
	r.tickH.SetCallback(r.onTickEvent)
	r.markerW.SetCallback(r.onMarkerEvent)
	r.markerH.SetCallback(r.onMarkerEvent)
	r.markerM.SetCallback(r.onMarkerEvent)
	r.bcdTime.SetCallback(r.onBCDEvent)
	r.bcdFreq.SetCallback(r.onBCDEvent)
	r.carrier.SetCallback(r.onCarrierEvent)
	for _, t := range r.tones {
		t.SetCallback(r.onToneEvent)
	}
}

// ProcessSample pushes one raw int16 I/Q pair through normalization,
// decimation, and — once detector-rate samples are available — every
// detector, correlator, and the sync machine, in that fixed order.
func (r *Receiver) ProcessSample(iRaw, qRaw int16) error {
	if err := r.decimator.Process(iRaw, qRaw); err != nil {
		return err
	}
	for {
		select {
		case s := <-r.decimator.DetectorOutput():
			r.processDetectorSample(s[0], s[1])
		default:
			return nil
		}
	}
}

func (r *Receiver) processDetectorSample(i, q float64) {
	r.tick.ProcessSample(i, q)
	r.tickH.ProcessSample(i, q)
	r.markerW.ProcessSample(i, q)
	r.markerH.ProcessSample(i, q)
	r.markerM.ProcessSample(i, q)
	r.bcdTime.ProcessSample(i, q)
	r.bcdFreq.ProcessSample(i, q)
	r.carrier.ProcessSample(i, q)
	for _, t := range r.tones {
		t.ProcessSample(i, q)
	}
}

func (r *Receiver) onTickEvent(ev event.Event) {
	gate := r.sync.CurrentGate()
	epoch := r.sync.CurrentEpoch()
	if !gate.Accept(ev.LeadingMs, epoch) {
		r.sync.OnTickRejected()
		r.publish(bus.ChannelTick, bus.FormatTick(ev.LeadingMs, r.tick.EventCount(), ev.LeadingMs, ev.DurationMs, ev.PeakEnergy, ev.Baseline, ev.ThresholdAtFire))
		return
	}
	r.sync.OnTickEvent(ev.LeadingMs)
	update := r.tickCorr.Observe(ev)
	t0, sigma, ok := r.tickCorr.FitGridPhase()
	r.sync.OnTickChainUpdate(update.Length, sigma, t0, ok)
	r.lastTickConfidence = update.Confidence

	if r.metrics != nil {
		r.metrics.UpdateTickChain(update.Length, sigma)
		r.metrics.RecordDetectorEvent("tick")
		r.metrics.UpdateDetectorState("tick", r.tick.Baseline(), r.tick.Threshold())
	}

	r.publish(bus.ChannelTick, bus.FormatTick(ev.LeadingMs, r.tick.EventCount(), ev.LeadingMs, ev.DurationMs, ev.PeakEnergy, ev.Baseline, ev.ThresholdAtFire))
	r.publish(bus.ChannelCorr, bus.FormatCorr(ev.LeadingMs, update.Length, update.MeanIntervalMs, update.StdDevMs, update.Confidence, epoch.T0Ms))
}

func (r *Receiver) onMarkerEvent(ev event.Event) {
	update := r.markerCorr.Observe(ev)
	if hint := schedule.StationHint(ev.ToneFrequencyHz); hint != schedule.StationUnknown {
		r.station = hint
	}

	r.sync.OnMarkerEvent(ev.LeadingMs, r.lastTickConfidence)

	if r.metrics != nil {
		r.metrics.UpdateMarkerChain(update.Length)
		r.metrics.RecordDetectorEvent("marker")
	}

	exp := schedule.Expected(r.minuteOfHour, 0, r.station)
	expected := ev.ToneFrequencyHz == exp.MarkerToneHz
	r.publish(bus.ChannelMark, bus.FormatMark(ev.LeadingMs, update.Length, r.secondOfMinute, expected, ev.PeakEnergy, ev.DurationMs, ev.LeadingMs, ev.Baseline, ev.ThresholdAtFire))

	state := r.sync.State()
	r.publish(bus.ChannelSync, bus.FormatSync(ev.LeadingMs, update.Length, state.String(), update.MeanIntervalMs/1000.0, 0, ev.DurationMs, ev.DurationMs))
}

func (r *Receiver) onBCDEvent(ev event.Event) {
	decoded, qualityWarning := r.bcdCorr.Observe(ev)
	symbol := byte('0')
	switch ev.Symbol {
	case event.BCDOne:
		symbol = '1'
	case event.BCDPositionMarker:
		symbol = 'M'
	}
	confidence := 1.0
	if qualityWarning {
		confidence = 0.0
	}
	r.publish(bus.ChannelBCD, bus.FormatBCDS(ev.LeadingMs, ev.SecondInMinute, symbol, ev.DurationMs, confidence))

	r.secondOfMinute = (ev.SecondInMinute + 1) % 60
	if decoded != nil {
		if r.metrics != nil {
			r.metrics.RecordBCDFrameDecoded()
		}
		log.Printf("[Receiver %s] decoded minute: hour=%d minute=%d day=%d year=%d dut=%+.1f",
			r.id, decoded.Hour, decoded.Minute, decoded.DayOfYear, decoded.Year, float64(decoded.DUTSign)*decoded.DUTMagnitude)
		r.minuteOfHour = decoded.Minute % 60
	} else if qualityWarning && r.metrics != nil {
		r.metrics.RecordBCDFrameDropped()
	}
}

func (r *Receiver) onCarrierEvent(ev event.Event) {
	r.publish(bus.ChannelCarr, bus.FormatCarrier(ev.LeadingMs, ev.ToneFrequencyHz+ev.OffsetHz, ev.OffsetHz, ev.OffsetPPM, ev.SNRdB))
}

func (r *Receiver) onToneEvent(ev event.Event) {
	ch := bus.ChannelCarr
	switch ev.ToneFrequencyHz {
	case 500:
		ch = bus.ChannelTone500
	case 600:
		ch = bus.ChannelTone600
	}
	r.publish(ch, bus.FormatCarrier(ev.LeadingMs, ev.ToneFrequencyHz, 0, 0, ev.SNRdB))
}

func (r *Receiver) publish(ch bus.Channel, line string) {
	if r.busOut == nil {
		return
	}
	r.busOut.Publish(ch, line, time.Now())
}

// AdvanceSchedule drives the missed-tick/silent-second bookkeeping once
// per expected second boundary (spec §4.5, §4.7); the caller (cmd/wwvsync's
// main loop or a test) determines second boundaries from wallclock or
// stream time depending on mode. It also tracks minuteOfHour across a
// genuine 59->0 wrap, as a fallback for onMarkerEvent's tone check before
// the BCD correlator has decoded its first authoritative frame.
func (r *Receiver) AdvanceSchedule(secondOfMinute int, tickFiredThisSecond bool) {
	if r.scheduleStarted && secondOfMinute == 0 && r.lastScheduleSecond != 0 {
		r.minuteOfHour = (r.minuteOfHour + 1) % 60
	}
	r.lastScheduleSecond = secondOfMinute
	r.scheduleStarted = true

	expected := schedule.Expected(r.minuteOfHour, secondOfMinute, r.station)
	if expected.TickExpected && !tickFiredThisSecond {
		r.sync.OnExpectedTickMissed()
	}
}

// Reset implements the upstream-discontinuity handling from spec §6.1:
// decimator, every detector, and both correlator chains reset, and the
// epoch is downgraded to NONE via a SEARCHING transition.
func (r *Receiver) Reset() {
	r.decimator.Reset()
	r.tick.Reset()
	r.tickH.Reset()
	r.markerW.Reset()
	r.markerH.Reset()
	r.markerM.Reset()
	r.bcdTime.Reset()
	r.bcdFreq.Reset()
	r.carrier.Reset()
	for _, t := range r.tones {
		t.Reset()
	}
	r.tickCorr.Reset()
	r.markerCorr.Reset()
	r.sync = syncfsm.NewMachine()
	r.secondOfMinute = 0
	r.minuteOfHour = 0
	r.lastScheduleSecond = 0
	r.scheduleStarted = false
	log.Printf("[Receiver %s] reset on upstream discontinuity", r.id)
}

// State returns the current sync state machine phase.
func (r *Receiver) State() syncfsm.State { return r.sync.State() }

// Epoch returns a snapshot of the current epoch estimate.
func (r *Receiver) Epoch() syncfsm.Epoch { return r.sync.CurrentEpoch() }

// Station returns the most recently inferred station, or StationUnknown
// before the first marker event.
func (r *Receiver) Station() schedule.Station { return r.station }

// TickTarget exposes the WWV tick detector as a control.Target so the
// control plane can retune its threshold/adaptation without reaching into
// Receiver internals.
func (r *Receiver) TickTarget() *detect.TickDetector { return r.tick }
