package scheduling

import (
	"fmt"
	"time"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/pkg/apperrors"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

// SlotLength is the unit of booking length.
const SlotLength = 3 * time.Hour

const (
	MinDurationSlots = 1
	MaxDurationSlots = 3
)

// Actor is the authenticated caller on whose behalf the engine acts.
type Actor struct {
	Role           models.RoleType
	OrganizationID int64
	// StudentID is the caller's own student id when Role is RoleStudent.
	StudentID int64
}

// BookingRequest is a parsed booking intent.
type BookingRequest struct {
	OrganizationID int64
	StudentID      int64
	ProgramID      *int64
	Date           kst.Date
	StartTime      kst.TimeOfDay
	DurationSlots  int
	Recurring      bool
}

// Validate checks the request fields that parsing alone cannot guarantee.
func (r BookingRequest) Validate() error {
	if r.OrganizationID <= 0 || r.StudentID <= 0 {
		return apperrors.NewBadRequestError("organization and student are required")
	}
	if r.Date.IsZero() {
		return apperrors.NewBadRequestError("date is required")
	}
	return validateSlots(r.DurationSlots)
}

// Interval returns the booked [start, end) instants.
func (r BookingRequest) Interval() (time.Time, time.Time) {
	start := r.Date.At(r.StartTime)
	return start, start.Add(time.Duration(r.DurationSlots) * SlotLength)
}

// BookingChanges are the fields an update may change. Nil fields keep their current value.
type BookingChanges struct {
	StudentID     *int64
	ProgramID     *int64
	Date          *kst.Date
	StartTime     *kst.TimeOfDay
	DurationSlots *int
}

// Validate checks the optional fields that were provided.
func (c BookingChanges) Validate() error {
	if c.StudentID != nil && *c.StudentID <= 0 {
		return apperrors.NewBadRequestError("studentId must be positive")
	}
	if c.DurationSlots != nil {
		return validateSlots(*c.DurationSlots)
	}
	return nil
}

// apply returns the interval s would occupy after the changes.
func (c BookingChanges) apply(s *models.Schedule) (time.Time, time.Time) {
	date := kst.DateOf(s.StartTime)
	if c.Date != nil {
		date = *c.Date
	}
	tod := kst.TimeOfDayOf(s.StartTime)
	if c.StartTime != nil {
		tod = *c.StartTime
	}
	length := s.Duration()
	if c.DurationSlots != nil {
		length = time.Duration(*c.DurationSlots) * SlotLength
	}
	start := date.At(tod)
	return start, start.Add(length)
}

func validateSlots(n int) error {
	if n < MinDurationSlots || n > MaxDurationSlots {
		return apperrors.NewBadRequestError(fmt.Sprintf("durationSlots must be between %d and %d", MinDurationSlots, MaxDurationSlots))
	}
	return nil
}

// BookingResult describes a successful booking.
type BookingResult struct {
	ScheduleID      int64
	OccurrenceCount int
	Root            *models.Schedule
}

// UpdateResult describes a successful update.
type UpdateResult struct {
	Schedule     *models.Schedule
	UpdatedCount int64
}
