package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/app/models/dto"
)

type fakeSettingStore struct {
	rows map[int64]int
}

func (f *fakeSettingStore) GetSetting(_ context.Context, orgID int64) (*models.OrganizationSetting, error) {
	if n, ok := f.rows[orgID]; ok {
		return &models.OrganizationSetting{OrganizationID: orgID, MaxConcurrentStudents: n, UpdatedAt: time.Unix(1700000000, 0)}, nil
	}
	return &models.OrganizationSetting{OrganizationID: orgID, MaxConcurrentStudents: 3}, nil
}

func (f *fakeSettingStore) UpsertSetting(_ context.Context, orgID int64, maxConcurrent int) error {
	f.rows[orgID] = maxConcurrent
	return nil
}

type fakeSettingCache struct {
	invalidated []int64
	err         error
}

func (f *fakeSettingCache) Invalidate(_ context.Context, orgID int64) error {
	f.invalidated = append(f.invalidated, orgID)
	return f.err
}

func TestSettingService_DefaultSetting(t *testing.T) {
	svc := NewSettingService(&fakeSettingStore{rows: map[int64]int{}}, &fakeSettingCache{})

	resp, err := svc.GetCapacitySetting(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.MaxConcurrentStudents)
	assert.Nil(t, resp.UpdatedAt)
}

func TestSettingService_UpdateInvalidatesCache(t *testing.T) {
	cache := &fakeSettingCache{err: errors.New("redis down")}
	svc := NewSettingService(&fakeSettingStore{rows: map[int64]int{}}, cache)

	resp, err := svc.UpdateCapacitySetting(context.Background(), 1, dto.UpdateCapacitySettingRequest{MaxConcurrentStudents: 5})
	require.NoError(t, err, "a cache failure does not fail the update")
	assert.Equal(t, 5, resp.MaxConcurrentStudents)
	assert.NotNil(t, resp.UpdatedAt)
	assert.Equal(t, []int64{1}, cache.invalidated)
}
