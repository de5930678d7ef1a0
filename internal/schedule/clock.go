// Package schedule is the pure deterministic WWV/WWVH broadcast schedule
// (spec §4.7): given a position in the minute, what event is expected.
package schedule

// Station identifies which transmitter's tone assignment applies.
type Station int

const (
	StationUnknown Station = iota
	StationWWV
	StationWWVH
)

func (s Station) String() string {
	switch s {
	case StationWWV:
		return "WWV"
	case StationWWVH:
		return "WWVH"
	default:
		return "UNKNOWN"
	}
}

// TickToneHz returns the station's tick/marker tone frequency (spec
// §4.3.1, §4.3.2).
func (s Station) TickToneHz() float64 {
	if s == StationWWVH {
		return 1200
	}
	return 1000
}

// ExpectedEvent describes what the schedule expects at one
// (minute_of_hour, second_of_minute) position.
type ExpectedEvent struct {
	TickExpected bool
	TickSilent   bool // seconds 29 and 59: tick suppressed
	MarkerExpected bool // second 0: 800ms minute marker
	MarkerToneHz   float64
	HourMarker     bool // minute 0 of the hour: marker tone is 1500Hz, not the station tone
	BCDExpected    bool // every second carries a 100Hz BCD pulse
}

// Expected returns what the schedule expects at (minuteOfHour,
// secondOfMinute) for station (spec §4.3.2, §4.7): the minute marker at
// second 0 carries the station's tick tone (1000Hz WWV / 1200Hz WWVH)
// except at minute 0 of the hour, where it is 1500Hz regardless of
// station ("both use 1500Hz for the hour marker").
func Expected(minuteOfHour, secondOfMinute int, station Station) ExpectedEvent {
	silent := secondOfMinute == 29 || secondOfMinute == 59
	hourMarker := minuteOfHour == 0 && secondOfMinute == 0
	toneHz := station.TickToneHz()
	if hourMarker {
		toneHz = 1500
	}
	return ExpectedEvent{
		TickExpected:   !silent && secondOfMinute != 0,
		TickSilent:     silent,
		MarkerExpected: secondOfMinute == 0,
		MarkerToneHz:   toneHz,
		HourMarker:     hourMarker,
		BCDExpected:    true,
	}
}

// IsSilentSecond reports whether tick absence at this second is expected
// and must not count toward a missed-tick streak (spec §4.5: "3
// consecutive missed expected ticks (outside silences at sec 29, 59)").
func IsSilentSecond(secondOfMinute int) bool {
	return secondOfMinute == 29 || secondOfMinute == 59
}

// StationHint infers which station is being received from the measured
// tick/marker tone frequency, a supplemented feature (this repo's
// expanded scope, not in the distilled spec): WWV uses 1000Hz for ticks
// and for the minute marker outside the top of the hour, WWVH uses 1200Hz.
// The 1500Hz hour marker is shared by both stations and yields no hint.
func StationHint(measuredToneHz float64) Station {
	switch {
	case measuredToneHz >= 950 && measuredToneHz <= 1050:
		return StationWWV
	case measuredToneHz >= 1150 && measuredToneHz <= 1250:
		return StationWWVH
	default:
		return StationUnknown
	}
}
