package dto

import (
	"time"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

// CreateScheduleRequest is the body of an admin booking.
type CreateScheduleRequest struct {
	StudentID     int64  `json:"studentId" validate:"required,min=1"`
	ProgramID     *int64 `json:"programId" validate:"omitempty,min=1"`
	Date          string `json:"date" validate:"required,kstdate"`
	StartTime     string `json:"startTime" validate:"required,kstclock"`
	DurationSlots int    `json:"durationSlots" validate:"required,min=1,max=3"`
	Recurring     bool   `json:"recurring"`
}

// SelfScheduleRequest is the body of a student's own booking. The student is the caller.
type SelfScheduleRequest struct {
	ProgramID     *int64 `json:"programId" validate:"omitempty,min=1"`
	Date          string `json:"date" validate:"required,kstdate"`
	StartTime     string `json:"startTime" validate:"required,kstclock"`
	DurationSlots int    `json:"durationSlots" validate:"required,min=1,max=3"`
	Recurring     bool   `json:"recurring"`
}

// UpdateScheduleRequest lists the fields an update may change. Omitted fields keep their value.
type UpdateScheduleRequest struct {
	StudentID     *int64  `json:"studentId" validate:"omitempty,min=1"`
	ProgramID     *int64  `json:"programId" validate:"omitempty,min=1"`
	Date          *string `json:"date" validate:"omitempty,kstdate"`
	StartTime     *string `json:"startTime" validate:"omitempty,kstclock"`
	DurationSlots *int    `json:"durationSlots" validate:"omitempty,min=1,max=3"`
}

// ListSchedulesQuery filters the organization calendar.
type ListSchedulesQuery struct {
	From      string `form:"from" json:"from" validate:"required,kstdate"`
	To        string `form:"to" json:"to" validate:"required,kstdate"`
	StudentID *int64 `form:"studentId" json:"studentId" validate:"omitempty,min=1"`
}

// CapacityQuery asks whether a slot still has room.
type CapacityQuery struct {
	Date          string `form:"date" json:"date" validate:"required,kstdate"`
	StartTime     string `form:"startTime" json:"startTime" validate:"required,kstclock"`
	DurationSlots int    `form:"durationSlots" json:"durationSlots" validate:"required,min=1,max=3"`
}

// ScheduleResponse is a schedule as returned by the API. Times are given both as instants
// and as KST wall-clock values.
type ScheduleResponse struct {
	ID               int64               `json:"id"`
	OrganizationID   int64               `json:"organizationId"`
	StudentID        int64               `json:"studentId"`
	ProgramID        *int64              `json:"programId,omitempty"`
	StartTime        time.Time           `json:"startTime"`
	EndTime          time.Time           `json:"endTime"`
	Date             string              `json:"date"`
	LocalStartTime   string              `json:"localStartTime"`
	LocalEndTime     string              `json:"localEndTime"`
	Kind             models.ScheduleKind `json:"kind"`
	ParentScheduleID *int64              `json:"parentScheduleId,omitempty"`
	RRule            *string             `json:"rrule,omitempty"`
	IsException      bool                `json:"isException"`
}

// FromSchedule converts a model.Schedule to a ScheduleResponse
func FromSchedule(s *models.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:               s.ID,
		OrganizationID:   s.OrganizationID,
		StudentID:        s.StudentID,
		ProgramID:        s.ProgramID,
		StartTime:        s.StartTime.UTC(),
		EndTime:          s.EndTime.UTC(),
		Date:             kst.DateKey(s.StartTime),
		LocalStartTime:   kst.TimeOfDayOf(s.StartTime).String(),
		LocalEndTime:     kst.TimeOfDayOf(s.EndTime).String(),
		Kind:             s.Kind,
		ParentScheduleID: s.ParentScheduleID,
		RRule:            s.RRule,
		IsException:      s.IsException,
	}
}

// FromSchedules converts a slice of schedules.
func FromSchedules(ss []*models.Schedule) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(ss))
	for _, s := range ss {
		out = append(out, FromSchedule(s))
	}
	return out
}

// CreateScheduleResponse reports a created booking or series.
type CreateScheduleResponse struct {
	ScheduleID      int64            `json:"scheduleId"`
	OccurrenceCount int              `json:"occurrenceCount"`
	Schedule        ScheduleResponse `json:"schedule"`
}

// UpdateScheduleResponse reports an update.
type UpdateScheduleResponse struct {
	UpdatedCount int64            `json:"updatedCount"`
	Schedule     ScheduleResponse `json:"schedule"`
}

// DeleteScheduleResponse reports a delete.
type DeleteScheduleResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

// CapacityResponse is the result of a capacity preview.
type CapacityResponse struct {
	Allowed      bool `json:"allowed"`
	CurrentCount int  `json:"currentCount"`
	MaxCount     int  `json:"maxCount"`
}

// RegistrationWindowResponse is the range a student may currently book in.
type RegistrationWindowResponse struct {
	From             string `json:"from"`
	To               string `json:"to"`
	OpenNextMonthDay int    `json:"openNextMonthDay"`
}
