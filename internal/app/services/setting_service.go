package services

import (
	"context"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/app/models/dto"
	"github.com/tutorhub/backoffice/internal/pkg/logger"
)

// SettingService manages per-organization booking configuration
type SettingService interface {
	GetCapacitySetting(ctx context.Context, orgID int64) (*dto.CapacitySettingResponse, error)
	UpdateCapacitySetting(ctx context.Context, orgID int64, req dto.UpdateCapacitySettingRequest) (*dto.CapacitySettingResponse, error)
}

// SettingStore persists organization settings.
type SettingStore interface {
	GetSetting(ctx context.Context, orgID int64) (*models.OrganizationSetting, error)
	UpsertSetting(ctx context.Context, orgID int64, maxConcurrent int) error
}

// SettingCache drops cached settings after a write.
type SettingCache interface {
	Invalidate(ctx context.Context, orgID int64) error
}

type settingServiceImpl struct {
	store SettingStore
	cache SettingCache
}

// NewSettingService creates a new setting service instance
func NewSettingService(store SettingStore, cache SettingCache) SettingService {
	return &settingServiceImpl{store: store, cache: cache}
}

func (s *settingServiceImpl) GetCapacitySetting(ctx context.Context, orgID int64) (*dto.CapacitySettingResponse, error) {
	setting, err := s.store.GetSetting(ctx, orgID)
	if err != nil {
		return nil, err
	}
	resp := dto.FromSetting(setting)
	return &resp, nil
}

// UpdateCapacitySetting stores the new limit. Bookings already above it are kept; the
// limit only applies to later admissions.
func (s *settingServiceImpl) UpdateCapacitySetting(ctx context.Context, orgID int64, req dto.UpdateCapacitySettingRequest) (*dto.CapacitySettingResponse, error) {
	if err := s.store.UpsertSetting(ctx, orgID, req.MaxConcurrentStudents); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, orgID); err != nil {
		logger.Warn().Err(err).Int64("organizationId", orgID).Msg("Failed to invalidate cached setting")
	}

	logger.Info().
		Int64("organizationId", orgID).
		Int("maxConcurrentStudents", req.MaxConcurrentStudents).
		Msg("Capacity setting updated")
	return s.GetCapacitySetting(ctx, orgID)
}
