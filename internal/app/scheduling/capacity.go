package scheduling

import (
	"context"
	"fmt"
	"time"
)

// CapacityResult is the outcome of an admission check.
type CapacityResult struct {
	Allowed      bool
	CurrentCount int
	MaxCount     int
}

// CapacityGate limits how many bookings of one organization may overlap.
type CapacityGate struct {
	store    Store
	settings Settings
}

// NewCapacityGate creates a CapacityGate.
func NewCapacityGate(store Store, settings Settings) *CapacityGate {
	return &CapacityGate{store: store, settings: settings}
}

// Check counts the organization's bookings overlapping [start, end), leaving out excludeID,
// and compares the count with the organization's maximum.
func (g *CapacityGate) Check(ctx context.Context, orgID int64, start, end time.Time, excludeID *int64) (CapacityResult, error) {
	maxCount, err := g.settings.GetMaxConcurrentStudents(ctx, orgID)
	if err != nil {
		return CapacityResult{}, fmt.Errorf("failed to load capacity setting: %w", err)
	}

	current, err := g.store.CountOverlapping(ctx, orgID, start, end, excludeID)
	if err != nil {
		return CapacityResult{}, fmt.Errorf("failed to count overlapping schedules: %w", err)
	}

	return CapacityResult{
		Allowed:      current < maxCount,
		CurrentCount: current,
		MaxCount:     maxCount,
	}, nil
}
