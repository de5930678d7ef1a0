package control

import "testing"

type fakeTarget struct {
	threshold float64
	alphaDown float64
}

func (f *fakeTarget) SetThresholdMultiplier(v float64) { f.threshold = v }
func (f *fakeTarget) SetAlphaDown(v float64)            { f.alphaDown = v }

func TestParseAndApplySetTickThreshold(t *testing.T) {
	cmd, err := Parse("SET_TICK_THRESHOLD 5.0")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	target := &fakeTarget{}
	if err := Apply(cmd, DefaultLimits(), target); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	if target.threshold != 5.0 {
		t.Errorf("threshold = %v, want 5.0", target.threshold)
	}
}

func TestApplyRejectsOutOfRange(t *testing.T) {
	cmd, _ := Parse("SET_TICK_THRESHOLD 999")
	target := &fakeTarget{threshold: 4}
	err := Apply(cmd, DefaultLimits(), target)
	if err == nil {
		t.Fatalf("expected an out-of-range rejection")
	}
	if target.threshold != 4 {
		t.Errorf("state should be unchanged on rejection, got %v", target.threshold)
	}
}

func TestParseRejectsUnknownCommand(t *testing.T) {
	_, err := Parse("FOO BAR")
	if err == nil {
		t.Fatalf("expected rejection of an unknown command")
	}
}

func TestEnableTelemValidatesChannel(t *testing.T) {
	cmd, err := Parse("ENABLE_TELEM TICK")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if err := Apply(cmd, DefaultLimits(), &fakeTarget{}); err != nil {
		t.Errorf("unexpected rejection of a valid channel: %v", err)
	}

	cmd2, _ := Parse("ENABLE_TELEM BOGUS")
	if err := Apply(cmd2, DefaultLimits(), &fakeTarget{}); err == nil {
		t.Errorf("expected rejection of an unknown telemetry channel")
	}
}
