package schedule

import "testing"

func TestSilentSecondsSuppressTick(t *testing.T) {
	for _, sec := range []int{29, 59} {
		e := Expected(5, sec, StationWWV)
		if e.TickExpected {
			t.Errorf("second %d: tick expected, want silent", sec)
		}
		if !e.TickSilent {
			t.Errorf("second %d: want TickSilent", sec)
		}
	}
}

func TestHourMarkerAtMinuteZeroUses1500Hz(t *testing.T) {
	e := Expected(0, 0, StationWWV)
	if !e.MarkerExpected {
		t.Errorf("expected a marker at second 0")
	}
	if !e.HourMarker {
		t.Errorf("expected HourMarker at minute 0")
	}
	if e.MarkerToneHz != 1500 {
		t.Errorf("marker tone = %v, want 1500", e.MarkerToneHz)
	}
}

func TestRegularMinuteMarkerUsesStationTickTone(t *testing.T) {
	wwv := Expected(5, 0, StationWWV)
	if wwv.HourMarker {
		t.Errorf("minute 5 is not the hour marker")
	}
	if wwv.MarkerToneHz != 1000 {
		t.Errorf("WWV marker tone = %v, want 1000", wwv.MarkerToneHz)
	}

	wwvh := Expected(5, 0, StationWWVH)
	if wwvh.MarkerToneHz != 1200 {
		t.Errorf("WWVH marker tone = %v, want 1200", wwvh.MarkerToneHz)
	}
}

func TestStationHintFromTone(t *testing.T) {
	if StationHint(1000) != StationWWV {
		t.Errorf("1000Hz should hint WWV")
	}
	if StationHint(1200) != StationWWVH {
		t.Errorf("1200Hz should hint WWVH")
	}
	if StationHint(750) != StationUnknown {
		t.Errorf("750Hz should hint neither station")
	}
}
