// Package metrics exposes the receiver's internal sync and bus health as
// Prometheus collectors (SPEC_FULL.md §12). Structure follows the
// teacher's prometheus.go: a single struct of collectors built once with
// promauto, plus small Record*/Update* methods the rest of the receiver
// calls as events happen.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector this instance registers. There is one
// instance per process; cmd/wwvsync builds it once and threads it through
// the receiver and the bus.
type Metrics struct {
	syncState      prometheus.Gauge   // 0=SEARCHING, 1=ACQUIRING, 2=LOCKED
	epochConfidence prometheus.Gauge
	epochOffsetMs  prometheus.Gauge
	epochSource    *prometheus.GaugeVec // one gauge per source, 1 for the active one

	tickChainLength   prometheus.Gauge
	tickChainSigmaMs  prometheus.Gauge
	markerChainLength prometheus.Gauge

	detectorBaseline  *prometheus.GaugeVec // labeled by detector name
	detectorThreshold *prometheus.GaugeVec
	detectorEvents    *prometheus.CounterVec

	busDropsTotal    *prometheus.CounterVec // labeled by channel
	busPublishTotal  *prometheus.CounterVec

	bcdFramesDecoded prometheus.Counter
	bcdFramesDropped prometheus.Counter

	controlCommandsTotal   *prometheus.CounterVec // labeled by outcome: applied, rejected
}

// New builds and registers every collector against the default registry.
func New() *Metrics {
	return &Metrics{
		syncState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wwvsync_sync_state",
			Help: "Current sync state machine state (0=SEARCHING, 1=ACQUIRING, 2=LOCKED)",
		}),
		epochConfidence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wwvsync_epoch_confidence",
			Help: "Confidence score of the current epoch estimate, 0-1",
		}),
		epochOffsetMs: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wwvsync_epoch_t0_ms",
			Help: "Current epoch T0 offset in milliseconds of stream time",
		}),
		epochSource: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wwvsync_epoch_source",
			Help: "1 for the currently active epoch source, 0 otherwise",
		}, []string{"source"}),

		tickChainLength: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wwvsync_tick_chain_length",
			Help: "Number of events in the current tick correlator chain",
		}),
		tickChainSigmaMs: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wwvsync_tick_chain_sigma_ms",
			Help: "Standard deviation of the tick chain's grid-phase residuals in ms",
		}),
		markerChainLength: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wwvsync_marker_chain_length",
			Help: "Number of events in the current marker correlator chain",
		}),

		detectorBaseline: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wwvsync_detector_baseline",
			Help: "Current adaptive noise baseline for a detector",
		}, []string{"detector"}),
		detectorThreshold: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wwvsync_detector_threshold",
			Help: "Current pulse detection threshold for a detector",
		}, []string{"detector"}),
		detectorEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wwvsync_detector_events_total",
			Help: "Total confirmed pulse events emitted by a detector",
		}, []string{"detector"}),

		busDropsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wwvsync_bus_drops_total",
			Help: "Total records dropped from a bus channel due to backpressure",
		}, []string{"channel"}),
		busPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wwvsync_bus_publish_total",
			Help: "Total records published to a bus channel",
		}, []string{"channel"}),

		bcdFramesDecoded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wwvsync_bcd_frames_decoded_total",
			Help: "Total complete, consistent BCD minute frames decoded",
		}),
		bcdFramesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wwvsync_bcd_frames_dropped_total",
			Help: "Total BCD minute frames dropped for missing or inconsistent markers",
		}),

		controlCommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wwvsync_control_commands_total",
			Help: "Total control plane commands, labeled by outcome",
		}, []string{"outcome"}),
	}
}

// UpdateSyncState records the sync state machine's current state and the
// epoch it is holding, matching the teacher's UpdateFromMeasurement: one
// call per tick of the owning loop rather than per sub-field change.
func (m *Metrics) UpdateSyncState(stateOrdinal int, confidence, t0Ms float64, source string) {
	m.syncState.Set(float64(stateOrdinal))
	m.epochConfidence.Set(confidence)
	m.epochOffsetMs.Set(t0Ms)
	for _, s := range []string{"NONE", "MARKER", "CHAIN"} {
		if s == source {
			m.epochSource.WithLabelValues(s).Set(1)
		} else {
			m.epochSource.WithLabelValues(s).Set(0)
		}
	}
}

func (m *Metrics) UpdateTickChain(length int, sigmaMs float64) {
	m.tickChainLength.Set(float64(length))
	m.tickChainSigmaMs.Set(sigmaMs)
}

func (m *Metrics) UpdateMarkerChain(length int) {
	m.markerChainLength.Set(float64(length))
}

func (m *Metrics) UpdateDetectorState(name string, baseline, threshold float64) {
	m.detectorBaseline.WithLabelValues(name).Set(baseline)
	m.detectorThreshold.WithLabelValues(name).Set(threshold)
}

func (m *Metrics) RecordDetectorEvent(name string) {
	m.detectorEvents.WithLabelValues(name).Inc()
}

func (m *Metrics) RecordBusPublish(channel string) {
	m.busPublishTotal.WithLabelValues(channel).Inc()
}

func (m *Metrics) RecordBusDrop(channel string) {
	m.busDropsTotal.WithLabelValues(channel).Inc()
}

func (m *Metrics) RecordBCDFrameDecoded() { m.bcdFramesDecoded.Inc() }
func (m *Metrics) RecordBCDFrameDropped() { m.bcdFramesDropped.Inc() }

func (m *Metrics) RecordControlCommand(outcome string) {
	m.controlCommandsTotal.WithLabelValues(outcome).Inc()
}
