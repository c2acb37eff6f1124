package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/db"
	"github.com/tutorhub/backoffice/internal/pkg/apperrors"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
	"github.com/tutorhub/backoffice/internal/pkg/logger"
)

// StudentRepository reads the student attributes scheduling depends on. The roster itself
// is maintained by another service.
type StudentRepository struct {
	db db.DBTX
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(conn db.DBTX) *StudentRepository {
	return &StudentRepository{db: conn}
}

// GetStudent retrieves a student by ID
func (r *StudentRepository) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	sql, args, err := psql.Select("id", "organization_id", "name", "email", "class_end_date").
		From("students").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var s models.Student
	err = r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Email, &s.ClassEndDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrStudentNotFound
	}
	if err != nil {
		logger.Error().Err(err).Int64("studentId", id).Msg("Error loading student")
		return nil, fmt.Errorf("error loading student: %w", err)
	}
	return &s, nil
}

// GetClassEndDate implements scheduling.Profile. It returns nil when the student has no
// class end date.
func (r *StudentRepository) GetClassEndDate(ctx context.Context, studentID int64) (*kst.Date, error) {
	sql, args, err := psql.Select("class_end_date").
		From("students").
		Where(squirrel.Eq{"id": studentID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var end *time.Time
	err = r.db.QueryRow(ctx, sql, args...).Scan(&end)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error loading class end date: %w", err)
	}
	if end == nil {
		return nil, nil
	}
	d := kst.DateFromCivil(*end)
	return &d, nil
}
