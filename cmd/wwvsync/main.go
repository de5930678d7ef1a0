// Command wwvsync runs one WWV/WWVH time-signal synchronization receiver:
// it reads I/Q samples (multicast or a recording file), drives them
// through internal/receiver's detector/correlator/sync pipeline, and
// publishes telemetry on the bus (stdout, optional MQTT, optional
// websocket) while accepting tuning commands on a text control socket.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwsl/wwvsync/internal/bus"
	"github.com/cwsl/wwvsync/internal/control"
	"github.com/cwsl/wwvsync/internal/iqsource"
	"github.com/cwsl/wwvsync/internal/metrics"
	"github.com/cwsl/wwvsync/internal/recording"
	"github.com/cwsl/wwvsync/internal/receiver"
	"github.com/cwsl/wwvsync/internal/wwvconfig"
	"github.com/cwsl/wwvsync/internal/wwvframe"
)

// DebugMode mirrors the teacher's package-level verbosity gate.
var DebugMode bool

func main() {
	configFile := flag.String("config", "config.yaml", "path to configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	metricsAddr := flag.String("metrics-listen", "", "address to serve /metrics on (empty disables)")
	flag.Parse()

	DebugMode = *debug
	if v := os.Getenv("DEBUG"); v != "" {
		DebugMode = v == "true" || v == "1" || v == "yes"
	}
	if DebugMode {
		log.Println("[main] debug mode enabled")
	}

	cfg, err := wwvconfig.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("[main] failed to load configuration: %v", err)
	}

	busOut := bus.New(cfg.Bus.BufferSize)
	go logTelemetryToStdout(busOut, cfg.Bus.EnabledChannels)

	var mqttSink *bus.MQTTSink
	if cfg.MQTT.Broker != "" {
		mqttSink, err = bus.NewMQTTSink(bus.MQTTSinkConfig{
			Broker:      cfg.MQTT.Broker,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         cfg.MQTT.QoS,
			Retain:      cfg.MQTT.Retain,
		})
		if err != nil {
			log.Printf("[main] MQTT sink disabled: %v", err)
		} else {
			id, feeds := busOut.Subscribe(enabledChannels(cfg.Bus.EnabledChannels)...)
			for ch, feed := range feeds {
				go mqttSink.Relay(ch, feed)
			}
			defer busOut.Unsubscribe(id)
			defer mqttSink.Close()
			log.Printf("[main] MQTT telemetry relay connected to %s", cfg.MQTT.Broker)
		}
	}

	var wsRelay *bus.WSRelay
	if cfg.WebSocket.Enabled {
		wsRelay = bus.NewWSRelay(time.Duration(cfg.WebSocket.BatchWindowMs) * time.Millisecond)
		id, feeds := busOut.Subscribe(enabledChannels(cfg.Bus.EnabledChannels)...)
		for _, feed := range feeds {
			go wsRelay.Relay(feed)
		}
		defer busOut.Unsubscribe(id)

		mux := http.NewServeMux()
		mux.HandleFunc("/telemetry", wsRelay.HandleUpgrade)
		wsServer := &http.Server{Addr: cfg.WebSocket.ListenAddr, Handler: mux}
		go func() {
			log.Printf("[main] telemetry websocket listening on %s", cfg.WebSocket.ListenAddr)
			if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("[main] websocket server error: %v", err)
			}
		}()
		defer wsServer.Close()
	}

	m := metrics.New()
	busOut.SetRecorder(m)
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Printf("[main] Prometheus metrics listening on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Printf("[main] metrics server error: %v", err)
			}
		}()
	}

	rx := receiver.New(cfg, 0, busOut, m)
	log.Printf("[main] receiver %s started (station hint=%s)", rx.ID(), cfg.Source.Station)

	if cfg.Control.ListenAddr != "" {
		go serveControl(cfg.Control.ListenAddr, rx, control.Limits{
			MinThresholdMultiplier: cfg.Control.MinThresholdMultiplier,
			MaxThresholdMultiplier: cfg.Control.MaxThresholdMultiplier,
			MinAlpha:               cfg.Control.MinAlpha,
			MaxAlpha:               cfg.Control.MaxAlpha,
		}, m)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	metricsStop := make(chan struct{})
	go pollReceiverMetrics(rx, m, metricsStop)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := runSource(cfg, rx, stop); err != nil {
			log.Printf("[main] source stopped: %v", err)
		}
	}()

	<-stop
	log.Println("[main] shutting down")
	close(metricsStop)
	<-done
}

// pollReceiverMetrics samples the receiver's sync state once a second so
// the Prometheus gauges track the current Epoch even between bus
// publishes (spec §12's sync-state/epoch gauges are point-in-time, not
// event-driven).
func pollReceiverMetrics(rx *receiver.Receiver, m *metrics.Metrics, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ep := rx.Epoch()
			m.UpdateSyncState(int(rx.State()), ep.Confidence, ep.T0Ms, ep.Source.String())
		case <-stop:
			return
		}
	}
}

// runSource selects the configured I/Q source and feeds every sample
// through rx.ProcessSample, advancing the schedule clock at second
// boundaries for recorded playback (multicast frames carry their own
// pacing; spec §5, §6.1, §6.2).
func runSource(cfg *wwvconfig.Config, rx *receiver.Receiver, stop <-chan os.Signal) error {
	switch cfg.Source.Mode {
	case "recording":
		return runRecording(cfg.Source.RecordingPath, rx)
	default:
		return runMulticast(cfg, rx, stop)
	}
}

func runRecording(path string, rx *receiver.Receiver) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	rd, err := recording.Open(f)
	if err != nil {
		return fmt.Errorf("open recording stream: %w", err)
	}
	log.Printf("[main] replaying recording %s (%.0f samples @ %.0fHz)", path, float64(rd.Header.SampleCount), rd.Header.SampleRate)

	secondOfMinute := 0
	samplesPerSecond := int(rd.Header.SampleRate)
	tickFired := false
	count := 0
	for {
		i, q, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read sample: %w", err)
		}
		if procErr := rx.ProcessSample(i, q); procErr != nil {
			return fmt.Errorf("process sample: %w", procErr)
		}
		count++
		if samplesPerSecond > 0 && count%samplesPerSecond == 0 {
			rx.AdvanceSchedule(secondOfMinute, tickFired)
			secondOfMinute = (secondOfMinute + 1) % 60
			tickFired = false
		}
	}
	return nil
}

func runMulticast(cfg *wwvconfig.Config, rx *receiver.Receiver, stop <-chan os.Signal) error {
	src, err := iqsource.NewMulticastSource(cfg.Source.MulticastAddr, cfg.Source.Interface, func(f wwvframe.Frame) {
		if f.Reset {
			rx.Reset()
		}
		for _, s := range f.Samples {
			if err := rx.ProcessSample(s[0], s[1]); err != nil {
				log.Printf("[main] sample processing error: %v", err)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("build multicast source: %w", err)
	}
	if err := src.Start(); err != nil {
		return fmt.Errorf("start multicast source: %w", err)
	}
	<-stop
	src.Stop()
	return nil
}

// serveControl accepts line-oriented control connections, one goroutine
// per connection, modeled on the teacher's log_receiver.go Accept loop.
func serveControl(addr string, rx *receiver.Receiver, limits control.Limits, m *metrics.Metrics) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("[control] listen on %s failed: %v", addr, err)
		return
	}
	log.Printf("[control] listening on %s", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Printf("[control] accept error: %v", err)
			continue
		}
		go handleControlConn(conn, rx, limits, m)
	}
}

func handleControlConn(conn net.Conn, rx *receiver.Receiver, limits control.Limits, m *metrics.Metrics) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				log.Printf("[control] read error: %v", err)
			}
			return
		}
		cmd, perr := control.Parse(line)
		if perr != nil {
			m.RecordControlCommand("rejected")
			fmt.Fprintf(conn, "ERR %v\n", perr)
			continue
		}
		if aerr := control.Apply(cmd, limits, rx.TickTarget()); aerr != nil {
			m.RecordControlCommand("rejected")
			fmt.Fprintf(conn, "ERR %v\n", aerr)
			continue
		}
		m.RecordControlCommand("applied")
		fmt.Fprintf(conn, "OK\n")
	}
}

// logTelemetryToStdout is the default telemetry sink: every enabled
// channel's CSV records, one line per record, matching the teacher's
// plain log.Printf-everything-by-default posture absent a dashboard.
func logTelemetryToStdout(b *bus.Bus, channelNames []string) {
	id, feeds := b.Subscribe(enabledChannels(channelNames)...)
	defer b.Unsubscribe(id)

	merged := make(chan bus.Record, 256)
	for _, feed := range feeds {
		go func(f <-chan bus.Record) {
			for rec := range f {
				merged <- rec
			}
		}(feed)
	}
	for rec := range merged {
		log.Println(rec.String())
	}
}

func enabledChannels(names []string) []bus.Channel {
	if len(names) == 0 {
		return []bus.Channel{bus.ChannelTick, bus.ChannelMark, bus.ChannelSync, bus.ChannelCorr}
	}
	chans := make([]bus.Channel, 0, len(names))
	for _, n := range names {
		chans = append(chans, bus.Channel(n))
	}
	return chans
}
