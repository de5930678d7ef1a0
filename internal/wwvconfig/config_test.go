package wwvconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigOverlaysYAMLOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wwvsync.yaml")
	yamlBody := `
source:
  mode: multicast
  multicast_addr: 239.1.2.3:5004
  station: auto
tick:
  threshold_multiplier: 6.0
bus:
  buffer_size: 2048
  enabled_channels: ["TICK", "MARK"]
`
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Source.MulticastAddr != "239.1.2.3:5004" {
		t.Errorf("multicast_addr = %q, want 239.1.2.3:5004", cfg.Source.MulticastAddr)
	}
	if cfg.Tick.ThresholdMultiplier != 6.0 {
		t.Errorf("tick threshold = %v, want 6.0", cfg.Tick.ThresholdMultiplier)
	}
	if cfg.Bus.BufferSize != 2048 {
		t.Errorf("bus buffer size = %d, want 2048", cfg.Bus.BufferSize)
	}
	// Fields absent from the YAML keep their defaults.
	if cfg.Marker.ThresholdMultiplier != DefaultMarkerTunables().ThresholdMultiplier {
		t.Errorf("marker threshold should fall back to default, got %v", cfg.Marker.ThresholdMultiplier)
	}
	if cfg.Control.MaxThresholdMultiplier != 20.0 {
		t.Errorf("control limits should fall back to default, got %v", cfg.Control.MaxThresholdMultiplier)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}

func TestDefaultConfigIsInternallyConsistent(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Sync.GateLockedCloseMs >= cfg.Sync.GateAcquiringCloseMs {
		t.Errorf("locked gate should be narrower than acquiring gate")
	}
	if len(cfg.Tones) == 0 {
		t.Errorf("expected default tone trackers to be configured")
	}
}
