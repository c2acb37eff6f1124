package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/db"
	"github.com/tutorhub/backoffice/internal/pkg/logger"
)

// SettingRepository reads per-organization configuration. Organizations without a row
// get the configured default.
type SettingRepository struct {
	db         db.DBTX
	defaultMax int
}

// NewSettingRepository creates a new setting repository
func NewSettingRepository(conn db.DBTX, defaultMax int) *SettingRepository {
	return &SettingRepository{db: conn, defaultMax: defaultMax}
}

// GetSetting returns the organization's stored setting, or the default when none is stored.
func (r *SettingRepository) GetSetting(ctx context.Context, orgID int64) (*models.OrganizationSetting, error) {
	sql, args, err := psql.Select("organization_id", "max_concurrent_students", "updated_at").
		From("organization_settings").
		Where(squirrel.Eq{"organization_id": orgID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var s models.OrganizationSetting
	err = r.db.QueryRow(ctx, sql, args...).Scan(&s.OrganizationID, &s.MaxConcurrentStudents, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.OrganizationSetting{OrganizationID: orgID, MaxConcurrentStudents: r.defaultMax}, nil
	}
	if err != nil {
		logger.Error().Err(err).Int64("organizationId", orgID).Msg("Error loading organization setting")
		return nil, fmt.Errorf("error loading organization setting: %w", err)
	}
	return &s, nil
}

// GetMaxConcurrentStudents implements scheduling.Settings.
func (r *SettingRepository) GetMaxConcurrentStudents(ctx context.Context, orgID int64) (int, error) {
	s, err := r.GetSetting(ctx, orgID)
	if err != nil {
		return 0, err
	}
	return s.MaxConcurrentStudents, nil
}

// UpsertSetting stores the organization's maximum number of overlapping bookings.
func (r *SettingRepository) UpsertSetting(ctx context.Context, orgID int64, maxConcurrent int) error {
	sql, args, err := psql.Insert("organization_settings").
		Columns("organization_id", "max_concurrent_students").
		Values(orgID, maxConcurrent).
		Suffix("ON CONFLICT (organization_id) DO UPDATE SET max_concurrent_students = EXCLUDED.max_concurrent_students, updated_at = NOW()").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("organizationId", orgID).Msg("Error upserting organization setting")
		return mapWriteError(err)
	}
	return nil
}

// InsertMissingDefaults stores the default limit for every organization that has students
// but no setting row, and returns how many rows it created.
func (r *SettingRepository) InsertMissingDefaults(ctx context.Context) (int64, error) {
	orgs := psql.Select("DISTINCT organization_id", fmt.Sprintf("%d", r.defaultMax)).From("students")
	sql, args, err := psql.Insert("organization_settings").
		Columns("organization_id", "max_concurrent_students").
		Select(orgs).
		Suffix("ON CONFLICT (organization_id) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error inserting default organization settings")
		return 0, mapWriteError(err)
	}
	return tag.RowsAffected(), nil
}
