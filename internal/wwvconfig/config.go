// Package wwvconfig loads the YAML configuration that wires together the
// decimator, detectors, correlators, sync state machine, and bus for one
// running instance (spec §5, §6.3, §6.4). Structure and load pattern follow
// the teacher's config.go: a single nested Config, yaml tags throughout,
// LoadConfig reading and unmarshaling in one pass.
package wwvconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for one wwvsync instance.
type Config struct {
	Source     SourceConfig     `yaml:"source"`
	Decimator  DecimatorConfig  `yaml:"decimator"`
	Tick       PulseTunables    `yaml:"tick"`
	Marker     PulseTunables    `yaml:"marker"`
	BCDTime    PulseTunables    `yaml:"bcd_time"`
	BCDFreq    PulseTunables    `yaml:"bcd_freq"`
	Carrier    CarrierConfig    `yaml:"carrier"`
	Tones      []ToneConfig     `yaml:"tones"`
	Sync       SyncConfig       `yaml:"sync"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Bus        BusConfig        `yaml:"bus"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	Control    ControlConfig    `yaml:"control"`
	Recording  RecordingConfig  `yaml:"recording"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SourceConfig selects and configures the I/Q input (spec §6.1, §6.2).
type SourceConfig struct {
	Mode          string `yaml:"mode"` // "multicast" or "recording"
	MulticastAddr string `yaml:"multicast_addr"`
	Interface     string `yaml:"interface"`
	RecordingPath string `yaml:"recording_path"`
	CenterHz      float64 `yaml:"center_hz"`
	Station       string `yaml:"station"` // "wwv", "wwvh", or "auto"
}

// DecimatorConfig sizes the cascade's intermediate buffers (spec §4.2).
type DecimatorConfig struct {
	DetectorBuffer int `yaml:"detector_buffer"`
	DisplayBuffer  int `yaml:"display_buffer"`
}

// PulseTunables mirrors detect.PulseEngineConfig so every pulse-family
// detector (tick, marker, both BCD channels) can be retuned from YAML
// without exposing the detector package's internal struct layout.
type PulseTunables struct {
	MinDurationMs       float64 `yaml:"min_duration_ms"`
	MaxDurationMs       float64 `yaml:"max_duration_ms"`
	CooldownMs          float64 `yaml:"cooldown_ms"`
	WarmupMs            float64 `yaml:"warmup_ms"`
	AlphaUp             float64 `yaml:"alpha_up"`
	AlphaDown           float64 `yaml:"alpha_down"`
	ThresholdMultiplier float64 `yaml:"threshold_multiplier"`
	HysteresisRatio     float64 `yaml:"hysteresis_ratio"`
}

// CarrierConfig configures the phase-difference carrier offset tracker.
type CarrierConfig struct {
	Enabled  bool    `yaml:"enabled"`
	WindowMs float64 `yaml:"window_ms"`
}

// ToneConfig configures one fixed-frequency audio tone tracker (440, 500,
// 600, 1500Hz and so on; spec §3's tone table).
type ToneConfig struct {
	FrequencyHz float64 `yaml:"frequency_hz"`
	Label       string  `yaml:"label"`
}

// SyncConfig tunes the sync state machine's gate windows and silence
// timeouts (spec §5).
type SyncConfig struct {
	GateAcquiringOpenMs  float64 `yaml:"gate_acquiring_open_ms"`
	GateAcquiringCloseMs float64 `yaml:"gate_acquiring_close_ms"`
	GateLockedOpenMs     float64 `yaml:"gate_locked_open_ms"`
	GateLockedCloseMs    float64 `yaml:"gate_locked_close_ms"`
	SilenceSearchingMs   float64 `yaml:"silence_searching_ms"`
	SilenceAcquiringMs   float64 `yaml:"silence_acquiring_ms"`
}

// ScheduleConfig records which station's minute layout to expect when
// SourceConfig.Station isn't "auto".
type ScheduleConfig struct {
	DefaultStation string `yaml:"default_station"`
}

// BusConfig sizes the per-channel ring buffers shared by every subscriber
// (spec §4.8).
type BusConfig struct {
	BufferSize      int      `yaml:"buffer_size"`
	EnabledChannels []string `yaml:"enabled_channels"`
}

// MQTTConfig configures the optional telemetry sink; zero value (Broker
// empty) means the sink is not started.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
	Retain      bool   `yaml:"retain"`
}

// WebSocketConfig configures the optional browser telemetry relay.
type WebSocketConfig struct {
	Enabled         bool   `yaml:"enabled"`
	ListenAddr      string `yaml:"listen_addr"`
	BatchWindowMs   int    `yaml:"batch_window_ms"`
}

// ControlConfig configures the text command plane's accepted ranges.
type ControlConfig struct {
	ListenAddr             string  `yaml:"listen_addr"`
	MinThresholdMultiplier float64 `yaml:"min_threshold_multiplier"`
	MaxThresholdMultiplier float64 `yaml:"max_threshold_multiplier"`
	MinAlpha               float64 `yaml:"min_alpha"`
	MaxAlpha               float64 `yaml:"max_alpha"`
}

// RecordingConfig configures offline playback of a recorded I/Q file.
type RecordingConfig struct {
	PlaybackRealtime bool `yaml:"playback_realtime"`
}

// LoggingConfig controls log verbosity, matching the teacher's plain
// log.Printf-with-component-tag style rather than a structured logger.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the configuration this package ships with when no
// YAML overrides a field. LoadConfig starts from this and unmarshals the
// file on top of it, so fields absent from the YAML keep these values;
// tests and other standalone callers use it directly.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Mode:     "multicast",
			CenterHz: 0,
			Station:  "auto",
		},
		Decimator: DecimatorConfig{
			DetectorBuffer: 4096,
			DisplayBuffer:  4096,
		},
		Tick:    DefaultTickTunables(),
		Marker:  DefaultMarkerTunables(),
		BCDTime: DefaultBCDTimeTunables(),
		BCDFreq: DefaultBCDFreqTunables(),
		Carrier: CarrierConfig{Enabled: true, WindowMs: 1000},
		Tones: []ToneConfig{
			{FrequencyHz: 440, Label: "minute_tone"},
			{FrequencyHz: 500, Label: "wwvh_voice_marker"},
			{FrequencyHz: 600, Label: "wwv_voice_marker"},
			{FrequencyHz: 1500, Label: "hour_minute_marker"},
		},
		Sync: SyncConfig{
			GateAcquiringOpenMs:  0,
			GateAcquiringCloseMs: 100,
			GateLockedOpenMs:     0,
			GateLockedCloseMs:    40,
			SilenceSearchingMs:   3000,
			SilenceAcquiringMs:   5000,
		},
		Schedule: ScheduleConfig{DefaultStation: "wwv"},
		Bus: BusConfig{
			BufferSize:      1024,
			EnabledChannels: []string{"TICK", "MARK", "SYNC", "CORR"},
		},
		Control: ControlConfig{
			ListenAddr:             "127.0.0.1:7373",
			MinThresholdMultiplier: 1.0,
			MaxThresholdMultiplier: 20.0,
			MinAlpha:               0.0001,
			MaxAlpha:               0.9,
		},
		WebSocket: WebSocketConfig{BatchWindowMs: 200},
	}
}

func DefaultTickTunables() PulseTunables {
	return PulseTunables{
		MinDurationMs: 1.0, MaxDurationMs: 10.0,
		CooldownMs: 500, WarmupMs: 1000,
		AlphaUp: 0.05, AlphaDown: 0.2,
		ThresholdMultiplier: 4.0, HysteresisRatio: 0.6,
	}
}

func DefaultMarkerTunables() PulseTunables {
	return PulseTunables{
		MinDurationMs: 700, MaxDurationMs: 900,
		CooldownMs: 500, WarmupMs: 10000,
		AlphaUp: 0.05, AlphaDown: 0.2,
		ThresholdMultiplier: 3.0, HysteresisRatio: 0.7,
	}
}

func DefaultBCDTimeTunables() PulseTunables {
	return PulseTunables{
		MinDurationMs: 150, MaxDurationMs: 850,
		CooldownMs: 100, WarmupMs: 2000,
		AlphaUp: 0.05, AlphaDown: 0.2,
		ThresholdMultiplier: 2.5, HysteresisRatio: 0.6,
	}
}

func DefaultBCDFreqTunables() PulseTunables {
	return DefaultBCDTimeTunables()
}

// LoadConfig reads and parses filename, applying defaults for zero-valued
// fields that yaml.Unmarshal cannot distinguish from "absent" (mirrors the
// teacher's LoadConfig: read whole file, unmarshal once, then backfill).
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := *DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Decimator.DetectorBuffer == 0 {
		config.Decimator.DetectorBuffer = 4096
	}
	if config.Decimator.DisplayBuffer == 0 {
		config.Decimator.DisplayBuffer = 4096
	}
	if config.Bus.BufferSize == 0 {
		config.Bus.BufferSize = 1024
	}
	if config.Control.MaxThresholdMultiplier == 0 {
		config.Control.MinThresholdMultiplier = 1.0
		config.Control.MaxThresholdMultiplier = 20.0
		config.Control.MinAlpha = 0.0001
		config.Control.MaxAlpha = 0.9
	}

	return &config, nil
}
