package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/app/scheduling/schedulingtest"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

func TestCapacityGate_Monotonicity(t *testing.T) {
	ctx := context.Background()
	store := schedulingtest.NewMemStore()
	store.MaxByOrg[1] = 2
	gate := NewCapacityGate(store, store)

	start := kst.At(2025, time.March, 10, 10, 0, 0)
	end := start.Add(3 * time.Hour)

	res, err := gate.Check(ctx, 1, start, end, nil)
	require.NoError(t, err)
	assert.Equal(t, CapacityResult{Allowed: true, CurrentCount: 0, MaxCount: 2}, res)

	first := store.Seed(models.NewStandalone(1, 10, nil, start, end))
	res, err = gate.Check(ctx, 1, start, end, nil)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "current == max-1 is allowed")
	assert.Equal(t, 1, res.CurrentCount)

	store.Seed(models.NewStandalone(1, 11, nil, start, end))
	res, err = gate.Check(ctx, 1, start, end, nil)
	require.NoError(t, err)
	assert.False(t, res.Allowed, "current == max is refused")
	assert.Equal(t, 2, res.CurrentCount)

	res, err = gate.Check(ctx, 1, start, end, &first)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.CurrentCount, "excluding an overlapping schedule removes exactly one")
}

func TestCapacityGate_CountsOrganizationOnly(t *testing.T) {
	ctx := context.Background()
	store := schedulingtest.NewMemStore()
	store.MaxByOrg[1] = 1
	gate := NewCapacityGate(store, store)

	start := kst.At(2025, time.March, 10, 10, 0, 0)
	end := start.Add(3 * time.Hour)
	store.Seed(models.NewStandalone(2, 10, nil, start, end))
	store.Seed(models.NewStandalone(1, 10, nil, end, end.Add(3*time.Hour)))

	res, err := gate.Check(ctx, 1, start, end, nil)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.CurrentCount, "other organizations and touching intervals do not count")
}

func TestConflictChecker_SpansOrganizations(t *testing.T) {
	ctx := context.Background()
	store := schedulingtest.NewMemStore()
	checker := NewConflictChecker(store)

	start := kst.At(2025, time.March, 10, 10, 0, 0)
	id := store.Seed(models.NewStandalone(2, 10, nil, start, start.Add(3*time.Hour)))

	conflict, err := checker.HasConflict(ctx, 10, start.Add(time.Hour), start.Add(4*time.Hour), nil)
	require.NoError(t, err)
	assert.True(t, conflict)

	conflict, err = checker.HasConflict(ctx, 10, start.Add(time.Hour), start.Add(4*time.Hour), &id)
	require.NoError(t, err)
	assert.False(t, conflict)

	conflict, err = checker.HasConflict(ctx, 11, start, start.Add(3*time.Hour), nil)
	require.NoError(t, err)
	assert.False(t, conflict)
}
