package receiver

import (
	"math"
	"strings"
	"testing"

	"github.com/cwsl/wwvsync/internal/bus"
	"github.com/cwsl/wwvsync/internal/decimate"
	"github.com/cwsl/wwvsync/internal/event"
	"github.com/cwsl/wwvsync/internal/schedule"
	"github.com/cwsl/wwvsync/internal/syncfsm"
	"github.com/cwsl/wwvsync/internal/wwvconfig"
)

func newTestReceiver(b *bus.Bus) *Receiver {
	return New(wwvconfig.DefaultConfig(), 0, b, nil)
}

func tickEvent(leadingMs float64) event.Event {
	return event.Event{Kind: event.KindTick, LeadingMs: leadingMs, ToneFrequencyHz: 1000}
}

func markerEvent(leadingMs, toneHz float64) event.Event {
	return event.Event{Kind: event.KindMarker, LeadingMs: leadingMs, ToneFrequencyHz: toneHz}
}

func TestReceiverReachesAcquiringAfterThreeTicks(t *testing.T) {
	r := newTestReceiver(nil)
	for i := 0; i < 3; i++ {
		r.onTickEvent(tickEvent(float64(i) * 1000))
	}
	if r.State() != syncfsm.StateAcquiring {
		t.Fatalf("state = %v, want ACQUIRING", r.State())
	}
}

func TestReceiverLocksAfterTickChainAndTwoMarkers(t *testing.T) {
	r := newTestReceiver(nil)
	for i := 0; i < 10; i++ {
		r.onTickEvent(tickEvent(float64(i) * 1000))
	}
	if r.lastTickConfidence < 0.8 {
		t.Fatalf("tick chain confidence = %v, want >= 0.8 after 10 even ticks", r.lastTickConfidence)
	}

	r.onMarkerEvent(markerEvent(0, 1500))
	if r.State() != syncfsm.StateAcquiring {
		t.Fatalf("state after first marker = %v, want ACQUIRING", r.State())
	}

	// The first marker only seeds lastMarkerMs; LOCKED needs two
	// consecutive 60s-spaced intervals after that, i.e. a third marker.
	r.onMarkerEvent(markerEvent(60_000, 1500))
	if r.State() != syncfsm.StateAcquiring {
		t.Fatalf("state after second marker = %v, want still ACQUIRING", r.State())
	}

	r.onMarkerEvent(markerEvent(120_000, 1500))
	if r.State() != syncfsm.StateLocked {
		t.Fatalf("state after third on-cadence marker = %v, want LOCKED", r.State())
	}
}

func TestReceiverStationHintFollowsMarkerTone(t *testing.T) {
	r := newTestReceiver(nil)
	r.onMarkerEvent(markerEvent(0, 1200))
	if r.Station() != schedule.StationWWVH {
		t.Errorf("station = %v, want WWVH for a 1200Hz marker tone", r.Station())
	}
}

func TestReceiverPublishesTickAndCorrRecords(t *testing.T) {
	b := bus.New(8)
	r := newTestReceiver(b)
	id, feeds := b.Subscribe(bus.ChannelTick, bus.ChannelCorr)
	defer b.Unsubscribe(id)

	r.onTickEvent(tickEvent(0))

	select {
	case <-feeds[bus.ChannelTick]:
	default:
		t.Errorf("expected a TICK record to be published")
	}
	select {
	case <-feeds[bus.ChannelCorr]:
	default:
		t.Errorf("expected a CORR record to be published")
	}
}

func TestReceiverRejectedTickStillPublishesTickRecordButNotCorr(t *testing.T) {
	b := bus.New(8)
	r := newTestReceiver(b)
	id, feeds := b.Subscribe(bus.ChannelTick, bus.ChannelCorr)
	defer b.Unsubscribe(id)

	// Seed a locked-in chain epoch, then fire a tick far outside the gate.
	for i := 0; i < 10; i++ {
		r.onTickEvent(tickEvent(float64(i) * 1000))
	}
	// Drain what's been published so far.
	for drained := true; drained; {
		select {
		case <-feeds[bus.ChannelTick]:
		case <-feeds[bus.ChannelCorr]:
		default:
			drained = false
		}
	}

	r.onTickEvent(tickEvent(9_500)) // 500ms off the grid: well outside any gate window

	select {
	case <-feeds[bus.ChannelTick]:
	default:
		t.Errorf("expected a TICK record even for a rejected event")
	}
	select {
	case <-feeds[bus.ChannelCorr]:
		t.Errorf("did not expect a CORR record for a gate-rejected tick")
	default:
	}
}

func TestReceiverBCDEventAdvancesSecondOfMinute(t *testing.T) {
	r := newTestReceiver(nil)
	r.onBCDEvent(event.Event{Kind: event.KindBCDTime, SecondInMinute: 5, Symbol: event.BCDZero})
	if r.secondOfMinute != 6 {
		t.Errorf("secondOfMinute = %d, want 6", r.secondOfMinute)
	}
}

func TestReceiverResetClearsStateAndEpoch(t *testing.T) {
	r := newTestReceiver(nil)
	for i := 0; i < 10; i++ {
		r.onTickEvent(tickEvent(float64(i) * 1000))
	}
	r.onMarkerEvent(markerEvent(0, 1500))
	r.onMarkerEvent(markerEvent(60_000, 1500))
	r.onMarkerEvent(markerEvent(120_000, 1500))
	if r.State() != syncfsm.StateLocked {
		t.Fatalf("setup failed: state = %v, want LOCKED", r.State())
	}

	r.Reset()

	if r.State() != syncfsm.StateSearching {
		t.Errorf("state after reset = %v, want SEARCHING", r.State())
	}
	if r.Epoch().Source != syncfsm.SourceNone {
		t.Errorf("epoch source after reset = %v, want NONE", r.Epoch().Source)
	}
	if r.secondOfMinute != 0 {
		t.Errorf("secondOfMinute after reset = %d, want 0", r.secondOfMinute)
	}
}

func TestReceiverAdvanceScheduleFlagsMissedExpectedTick(t *testing.T) {
	r := newTestReceiver(nil)
	for i := 0; i < 10; i++ {
		r.onTickEvent(tickEvent(float64(i) * 1000))
	}
	r.onMarkerEvent(markerEvent(0, 1500))
	r.onMarkerEvent(markerEvent(60_000, 1500))
	r.onMarkerEvent(markerEvent(120_000, 1500))
	if r.State() != syncfsm.StateLocked {
		t.Fatalf("setup failed: state = %v, want LOCKED", r.State())
	}

	r.AdvanceSchedule(1, false)
	r.AdvanceSchedule(2, false)
	r.AdvanceSchedule(3, false)

	if r.State() != syncfsm.StateAcquiring {
		t.Errorf("state after three missed expected ticks = %v, want ACQUIRING", r.State())
	}
}

// TestReceiverFiresHourMarkerAt1500HzOnMinuteZero drives a real 800ms
// 1500Hz burst through the detector chain (not a hand-built event.Event)
// and checks that the markerM candidate fires and that the published MARK
// record's "expected" field reflects a tone match for minute 0 of the
// hour, per schedule.Expected's HourMarker case.
func TestReceiverFiresHourMarkerAt1500HzOnMinuteZero(t *testing.T) {
	b := bus.New(8)
	r := newTestReceiver(b)
	id, feeds := b.Subscribe(bus.ChannelMark)
	defer b.Unsubscribe(id)

	const rate = decimate.DetectorRate
	for k := 0; k < int(11*rate); k++ {
		r.processDetectorSample(0, 0)
	}

	burstN := int(0.8 * rate)
	for k := 0; k < burstN; k++ {
		phase := 2 * math.Pi * 1500 * float64(k) / rate
		r.processDetectorSample(math.Cos(phase), math.Sin(phase))
	}
	for k := 0; k < int(0.05*rate); k++ {
		r.processDetectorSample(0, 0)
	}

	var last bus.Record
	got := false
	for drained := true; drained; {
		select {
		case rec := <-feeds[bus.ChannelMark]:
			last, got = rec, true
		default:
			drained = false
		}
	}
	if !got {
		t.Fatalf("expected a MARK record from a real 1500Hz burst")
	}
	fields := strings.Split(last.Line, ",")
	if fields[3] != "true" {
		t.Errorf("expected field = %s, want true for a 1500Hz marker at minute 0", fields[3])
	}
}

func TestReceiverRegularMinuteMarkerExpectedMatchesStationTone(t *testing.T) {
	r := newTestReceiver(nil)
	r.onMarkerEvent(markerEvent(0, 1000)) // seeds r.station = WWV, minuteOfHour stays 0
	r.AdvanceSchedule(59, true)
	r.AdvanceSchedule(0, false) // wraps into minute 1

	b := bus.New(8)
	r.busOut = b
	id, feeds := b.Subscribe(bus.ChannelMark)
	defer b.Unsubscribe(id)

	r.onMarkerEvent(markerEvent(60_000, 1000))

	select {
	case rec := <-feeds[bus.ChannelMark]:
		fields := strings.Split(rec.Line, ",")
		if fields[3] != "true" {
			t.Errorf("expected field = %s, want true: WWV's regular marker tone is 1000Hz", fields[3])
		}
	default:
		t.Fatalf("expected a MARK record")
	}
}
