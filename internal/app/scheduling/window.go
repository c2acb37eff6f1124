package scheduling

import (
	"time"

	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

// DefaultOpenNextMonthDay is the KST day of month from which next month opens for booking.
const DefaultOpenNextMonthDay = 25

// RegistrationWindow limits student self-service bookings to the current KST month, and
// to the next month as well once the month reaches OpenNextMonthDay.
type RegistrationWindow struct {
	OpenNextMonthDay int
}

// NewRegistrationWindow returns a window opening next month on openDay (25 when openDay <= 0).
func NewRegistrationWindow(openDay int) RegistrationWindow {
	if openDay <= 0 {
		openDay = DefaultOpenNextMonthDay
	}
	return RegistrationWindow{OpenNextMonthDay: openDay}
}

func (w RegistrationWindow) nextMonthOpen(now time.Time) bool {
	return kst.ToComponents(now).Day >= w.OpenNextMonthDay
}

// CanRegister reports whether a student may book a class on target.
func (w RegistrationWindow) CanRegister(now time.Time, target kst.Date) bool {
	today := kst.DateOf(now)
	if target.SameMonth(today) {
		return true
	}
	if !w.nextMonthOpen(now) {
		return false
	}
	return target.SameMonth(kst.DateOf(kst.StartOfMonth(now, 1)))
}

// CanCancel reports whether a student may cancel a class starting at start.
// Cancelling on the day of the class is not allowed.
func (w RegistrationWindow) CanCancel(now, start time.Time) bool {
	return kst.DateOf(start).After(kst.DateOf(now))
}

// AllowedRange returns the first and last instants a student may currently book.
func (w RegistrationWindow) AllowedRange(now time.Time) (time.Time, time.Time) {
	months := 0
	if w.nextMonthOpen(now) {
		months = 1
	}
	return kst.StartOfMonth(now, 0), kst.EndOfMonth(now, months)
}
