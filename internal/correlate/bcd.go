package correlate

import "github.com/cwsl/wwvsync/internal/event"

// slotRole identifies what one second-in-minute position contributes to
// the decoded time code (spec §4.3.3, §4.4, and the WWV/WWVH BCD layout
// referenced in GLOSSARY: minute/hour/day-of-year/year with weights
// 1-2-4-8, plus the DUT1 sign/magnitude and leap-second bits this repo's
// expanded scope adds on top of the distilled spec, spec §13).
type slotField int

const (
	fieldNone slotField = iota
	fieldMarker
	fieldMinute
	fieldHour
	fieldDayOfYear
	fieldDUTSign
	fieldDUT
	fieldYear
	fieldLeapYear
	fieldLeapSecond
	fieldDST
)

type slotRole struct {
	field  slotField
	weight int
}

// bcdLayout maps second-in-minute (0-59) to its role in the minute frame.
// Unlisted positions default to fieldNone (always zero, unused).
var bcdLayout = buildLayout()

func buildLayout() [60]slotRole {
	var l [60]slotRole
	marker := []int{0, 9, 19, 29, 39, 49}
	for _, s := range marker {
		l[s] = slotRole{fieldMarker, 0}
	}
	weighted := func(field slotField, start int, weights []int) {
		for i, w := range weights {
			l[start+i] = slotRole{field, w}
		}
	}
	weighted(fieldMinute, 1, []int{1, 2, 4, 8})
	weighted(fieldMinute, 6, []int{10, 20, 40})
	weighted(fieldHour, 10, []int{1, 2, 4, 8})
	weighted(fieldHour, 15, []int{10, 20})
	weighted(fieldDayOfYear, 20, []int{1, 2, 4, 8})
	weighted(fieldDayOfYear, 25, []int{10, 20, 40, 80})
	weighted(fieldDayOfYear, 30, []int{100, 200})
	weighted(fieldDUTSign, 36, []int{1, 1, 1})
	weighted(fieldDUT, 40, []int{1, 2, 4, 8})
	weighted(fieldYear, 45, []int{1, 2, 4, 8})
	weighted(fieldYear, 50, []int{10, 20, 40, 80})
	l[55] = slotRole{fieldLeapYear, 0}
	l[56] = slotRole{fieldLeapSecond, 0}
	l[57] = slotRole{fieldDST, 1}
	l[58] = slotRole{fieldDST, 2}
	return l
}

// DecodedMinute is the result of a complete, marker-consistent 60-symbol
// frame.
type DecodedMinute struct {
	Minute       int
	Hour         int
	DayOfYear    int
	Year         int // two-digit, as broadcast
	DUTSign      int // +1 or -1
	DUTMagnitude float64 // seconds, 0.0-0.9
	LeapYear     bool
	LeapSecondPending bool
	DSTCode      int // 0-3, transition-state code per the broadcast bits
}

// BCDCorrelator accumulates one minute of BCD symbol events and decodes it
// once a complete, marker-consistent frame has been seen (spec §4.4: "BCD
// correlator additionally tracks symbol consistency with the schedule and
// decodes minute/hour/day-of-year/year when >= one full 60-symbol frame
// has been received with consistent position markers").
//
// A minute missing or misplacing any position marker is dropped entirely
// rather than partially reconstructed (recorded decision, DESIGN.md).
type BCDCorrelator struct {
	slots    [60]event.BCDSymbol
	seen     [60]bool
	expectedSecond int
}

func NewBCDCorrelator() *BCDCorrelator {
	return &BCDCorrelator{}
}

// Observe feeds one BCD symbol event. When the second-59 symbol arrives,
// the completed frame is validated, decoded if consistent, and cleared.
func (c *BCDCorrelator) Observe(ev event.Event) (decoded *DecodedMinute, qualityWarning bool) {
	sec := ev.SecondInMinute
	if sec < 0 || sec >= 60 {
		return nil, true
	}
	role := bcdLayout[sec]
	if role.field == fieldMarker && ev.Symbol != event.BCDPositionMarker {
		qualityWarning = true
	}
	c.slots[sec] = ev.Symbol
	c.seen[sec] = true

	if sec != 59 {
		return nil, qualityWarning
	}
	if !c.frameComplete() || !c.markersConsistent() {
		c.reset()
		return nil, true
	}
	d := c.decode()
	c.reset()
	return &d, qualityWarning
}

func (c *BCDCorrelator) frameComplete() bool {
	for _, ok := range c.seen {
		if !ok {
			return false
		}
	}
	return true
}

func (c *BCDCorrelator) markersConsistent() bool {
	for sec, role := range bcdLayout {
		if role.field == fieldMarker && c.slots[sec] != event.BCDPositionMarker {
			return false
		}
	}
	return true
}

func (c *BCDCorrelator) bitAt(sec int) int {
	if c.slots[sec] == event.BCDOne {
		return 1
	}
	return 0
}

func (c *BCDCorrelator) decode() DecodedMinute {
	var minute, hour, doy, year, dutMagUnits, dstBits int
	dutSignBits := 0
	for sec, role := range bcdLayout {
		bit := c.bitAt(sec)
		if bit == 0 {
			continue
		}
		switch role.field {
		case fieldMinute:
			minute += role.weight
		case fieldHour:
			hour += role.weight
		case fieldDayOfYear:
			doy += role.weight
		case fieldYear:
			year += role.weight
		case fieldDUTSign:
			dutSignBits++
		case fieldDUT:
			dutMagUnits += role.weight
		case fieldDST:
			dstBits += role.weight
		}
	}
	sign := -1
	if dutSignBits >= 2 {
		sign = 1
	}
	return DecodedMinute{
		Minute:            minute,
		Hour:              hour,
		DayOfYear:         doy,
		Year:              year,
		DUTSign:           sign,
		DUTMagnitude:      float64(dutMagUnits) * 0.1,
		LeapYear:          c.slots[55] == event.BCDOne,
		LeapSecondPending: c.slots[56] == event.BCDOne,
		DSTCode:           dstBits,
	}
}

func (c *BCDCorrelator) reset() {
	for i := range c.slots {
		c.slots[i] = event.BCDZero
		c.seen[i] = false
	}
}
