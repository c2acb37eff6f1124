// Package kst implements calendar arithmetic in Korea Standard Time (fixed UTC+9).
//
// Every conversion works from the UTC representation of an instant plus a constant
// offset, so results never depend on the host machine's local timezone.
package kst

import (
	"fmt"
	"time"
)

// Offset is the fixed distance between KST and UTC. KST has no daylight saving.
const Offset = 9 * time.Hour

var location = time.FixedZone("KST", int(Offset/time.Second))

// Location returns a fixed-offset KST zone for libraries that need a *time.Location.
func Location() *time.Location {
	return location
}

// Clock returns the current instant. Production code uses time.Now; tests inject fixed clocks.
type Clock func() time.Time

// Components are KST wall-clock fields of an instant.
// Month follows time.Month (January == 1).
type Components struct {
	Year       int
	Month      time.Month
	Day        int
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// ToComponents reads the KST wall-clock fields of t.
func ToComponents(t time.Time) Components {
	shifted := t.UTC().Add(Offset)
	return Components{
		Year:       shifted.Year(),
		Month:      shifted.Month(),
		Day:        shifted.Day(),
		Hour:       shifted.Hour(),
		Minute:     shifted.Minute(),
		Second:     shifted.Second(),
		Nanosecond: shifted.Nanosecond(),
	}
}

// FromComponents returns the UTC instant for the given KST wall-clock fields.
// Out-of-range values normalize like time.Date: day 0 is the last day of the previous month.
func FromComponents(c Components) time.Time {
	return time.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, c.Nanosecond, time.UTC).Add(-Offset)
}

// At is a shorthand for FromComponents without sub-second precision.
func At(year int, month time.Month, day, hour, min, sec int) time.Time {
	return FromComponents(Components{Year: year, Month: month, Day: day, Hour: hour, Minute: min, Second: sec})
}

// Now returns the KST components of the instant reported by clock.
func Now(clock Clock) Components {
	return ToComponents(clock())
}

// DateKey returns the canonical "YYYY-MM-DD" key of t in KST.
func DateKey(t time.Time) string {
	c := ToComponents(t)
	return fmt.Sprintf("%04d-%02d-%02d", c.Year, int(c.Month), c.Day)
}

// StartOfDay returns the first instant of the KST calendar day containing t.
func StartOfDay(t time.Time) time.Time {
	c := ToComponents(t)
	return At(c.Year, c.Month, c.Day, 0, 0, 0)
}

// StartOfMonth returns the first instant of the KST month that is monthOffset months
// away from the month containing t.
func StartOfMonth(t time.Time, monthOffset int) time.Time {
	c := ToComponents(t)
	return At(c.Year, c.Month+time.Month(monthOffset), 1, 0, 0, 0)
}

// EndOfMonth returns the last instant of the KST month that is monthOffset months away
// from the month containing t. Day 0 of the following month is that month's last day.
func EndOfMonth(t time.Time, monthOffset int) time.Time {
	c := ToComponents(t)
	return FromComponents(Components{
		Year:       c.Year,
		Month:      c.Month + time.Month(monthOffset) + 1,
		Day:        0,
		Hour:       23,
		Minute:     59,
		Second:     59,
		Nanosecond: int(time.Second - time.Nanosecond),
	})
}
