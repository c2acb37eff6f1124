// Package scheduling decides whether a proposed class time may be booked and performs
// the resulting writes: single bookings, weekly series, and scoped updates and deletes.
//
// Collaborators are consumed through the narrow interfaces below; the repositories
// package provides the Postgres implementations.
package scheduling

import (
	"context"
	"time"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

// Store persists schedules.
type Store interface {
	InsertSchedule(ctx context.Context, s *models.Schedule) (*models.Schedule, error)
	InsertSchedules(ctx context.Context, ss []*models.Schedule) ([]*models.Schedule, error)
	GetSchedule(ctx context.Context, id int64) (*models.Schedule, error)
	UpdateSchedule(ctx context.Context, id int64, changes models.ScheduleChanges) (*models.Schedule, error)
	// UpdateSchedulesWhere patches every occurrence of the series rooted at parentID whose
	// start is at or after from.
	UpdateSchedulesWhere(ctx context.Context, parentID int64, from time.Time, patch models.SeriesPatch) (int64, error)
	DeleteSchedule(ctx context.Context, id int64) error
	// PromoteNextOccurrence turns the earliest remaining occurrence of the series rooted at
	// rootID into the new root: it takes over the rule and the other occurrences. It
	// returns nil when the series has no occurrences left.
	PromoteNextOccurrence(ctx context.Context, rootID int64) (*models.Schedule, error)
	// DeleteSchedulesWhere removes every occurrence of the series rooted at parentID whose
	// start is at or after from.
	DeleteSchedulesWhere(ctx context.Context, parentID int64, from time.Time) (int64, error)
	// CountOverlapping counts the organization's schedules intersecting [start, end).
	CountOverlapping(ctx context.Context, orgID int64, start, end time.Time, excludeID *int64) (int, error)
	// CountOverlappingForStudent counts the student's schedules intersecting [start, end)
	// in any organization.
	CountOverlappingForStudent(ctx context.Context, studentID int64, start, end time.Time, excludeID *int64) (int, error)
}

// Settings exposes organization configuration owned elsewhere.
type Settings interface {
	GetMaxConcurrentStudents(ctx context.Context, orgID int64) (int, error)
}

// Profile exposes student attributes owned elsewhere.
type Profile interface {
	// GetClassEndDate returns nil when the student has no class end date.
	GetClassEndDate(ctx context.Context, studentID int64) (*kst.Date, error)
}
