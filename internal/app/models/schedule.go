package models

import "time"

// ScheduleKind tells how a schedule relates to a recurring series.
type ScheduleKind string

const (
	KindStandalone ScheduleKind = "STANDALONE"  // one-off booking
	KindSeriesRoot ScheduleKind = "SERIES_ROOT" // first booking of a weekly series, carries the rule
	KindOccurrence ScheduleKind = "OCCURRENCE"  // generated from a root
)

// Schedule represents one bookable class occurrence.
type Schedule struct {
	ID             int64        `db:"id" json:"id"`
	OrganizationID int64        `db:"organization_id" json:"organizationId"`
	StudentID      int64        `db:"student_id" json:"studentId"`
	ProgramID      *int64       `db:"program_id" json:"programId,omitempty"`
	StartTime      time.Time    `db:"start_time" json:"startTime"`
	EndTime        time.Time    `db:"end_time" json:"endTime"`
	Kind           ScheduleKind `db:"kind" json:"kind"`

	// ParentScheduleID is set only for KindOccurrence and always points at a KindSeriesRoot.
	ParentScheduleID *int64 `db:"parent_schedule_id" json:"parentScheduleId,omitempty"`
	// RRule is set only for KindSeriesRoot.
	RRule *string `db:"rrule" json:"rrule,omitempty"`
	// IsException marks an occurrence whose time was edited individually after generation.
	IsException bool `db:"is_exception" json:"isException"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewStandalone builds a one-off booking.
func NewStandalone(orgID, studentID int64, programID *int64, start, end time.Time) *Schedule {
	return &Schedule{
		OrganizationID: orgID,
		StudentID:      studentID,
		ProgramID:      programID,
		StartTime:      start,
		EndTime:        end,
		Kind:           KindStandalone,
	}
}

// NewSeriesRoot builds the first booking of a weekly series.
func NewSeriesRoot(orgID, studentID int64, programID *int64, start, end time.Time, rule string) *Schedule {
	s := NewStandalone(orgID, studentID, programID, start, end)
	s.Kind = KindSeriesRoot
	s.RRule = &rule
	return s
}

// NewOccurrence builds a generated occurrence of root starting at start, keeping the
// root's length.
func NewOccurrence(root *Schedule, start time.Time) *Schedule {
	parentID := root.ID
	return &Schedule{
		OrganizationID:   root.OrganizationID,
		StudentID:        root.StudentID,
		ProgramID:        root.ProgramID,
		StartTime:        start,
		EndTime:          start.Add(root.Duration()),
		Kind:             KindOccurrence,
		ParentScheduleID: &parentID,
	}
}

// Duration returns the booked length.
func (s *Schedule) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// InSeries reports whether the schedule belongs to a recurring series.
func (s *Schedule) InSeries() bool {
	return s.Kind == KindSeriesRoot || s.Kind == KindOccurrence
}

// SeriesID returns the id of the series root, or 0 for standalone bookings.
func (s *Schedule) SeriesID() int64 {
	switch s.Kind {
	case KindSeriesRoot:
		return s.ID
	case KindOccurrence:
		if s.ParentScheduleID != nil {
			return *s.ParentScheduleID
		}
	}
	return 0
}

// Overlaps reports whether s intersects the half-open interval [start, end).
func (s *Schedule) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && s.EndTime.After(start)
}

// ScheduleChanges lists the columns a single-record update writes. Nil fields are left as is.
type ScheduleChanges struct {
	StudentID   *int64
	ProgramID   *int64
	StartTime   *time.Time
	EndTime     *time.Time
	IsException *bool
}

// SeriesPatch is applied to every matching occurrence of a series in one statement.
// Shift moves start and end by the same amount; Length, when set, replaces the booked length.
type SeriesPatch struct {
	StudentID *int64
	ProgramID *int64
	Shift     time.Duration
	Length    *time.Duration
}

// IsEmpty reports whether the patch would change nothing.
func (p SeriesPatch) IsEmpty() bool {
	return p.StudentID == nil && p.ProgramID == nil && p.Shift == 0 && p.Length == nil
}
