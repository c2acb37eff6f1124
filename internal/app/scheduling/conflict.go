package scheduling

import (
	"context"
	"fmt"
	"time"
)

// ConflictChecker detects double-booking of a student. The check is by student id only,
// so it spans programs and organizations.
type ConflictChecker struct {
	store Store
}

// NewConflictChecker creates a ConflictChecker.
func NewConflictChecker(store Store) *ConflictChecker {
	return &ConflictChecker{store: store}
}

// HasConflict reports whether the student already has a booking overlapping [start, end).
func (c *ConflictChecker) HasConflict(ctx context.Context, studentID int64, start, end time.Time, excludeID *int64) (bool, error) {
	n, err := c.store.CountOverlappingForStudent(ctx, studentID, start, end, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to count student schedules: %w", err)
	}
	return n > 0, nil
}
