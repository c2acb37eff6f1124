package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/db"
	"github.com/tutorhub/backoffice/internal/pkg/apperrors"
	"github.com/tutorhub/backoffice/internal/pkg/dberrors"
	"github.com/tutorhub/backoffice/internal/pkg/helpers"
	"github.com/tutorhub/backoffice/internal/pkg/logger"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var scheduleColumns = []string{
	"id", "organization_id", "student_id", "program_id", "start_time", "end_time",
	"kind", "parent_schedule_id", "rrule", "is_exception", "created_at", "updated_at",
}

// ListSchedulesParams holds parameters for filtering and pagination.
type ListSchedulesParams struct {
	OrganizationID int64
	StudentID      *int64
	// From and To bound start_time as [From, To).
	From time.Time
	To   time.Time
	Page helpers.Page
}

// ScheduleRepository handles database operations for schedules. It implements
// scheduling.Store.
type ScheduleRepository struct {
	db db.DBTX
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(conn db.DBTX) *ScheduleRepository {
	return &ScheduleRepository{db: conn}
}

// WithTx returns a repository bound to tx.
func (r *ScheduleRepository) WithTx(tx pgx.Tx) *ScheduleRepository {
	return &ScheduleRepository{db: tx}
}

func scanSchedule(row pgx.Row) (*models.Schedule, error) {
	var s models.Schedule
	err := row.Scan(
		&s.ID, &s.OrganizationID, &s.StudentID, &s.ProgramID, &s.StartTime, &s.EndTime,
		&s.Kind, &s.ParentScheduleID, &s.RRule, &s.IsException, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrScheduleNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *ScheduleRepository) queryMany(ctx context.Context, sql string, args []interface{}) ([]*models.Schedule, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func buildInsertSchedules(ss []*models.Schedule) (string, []interface{}, error) {
	q := psql.Insert("schedules").
		Columns("organization_id", "student_id", "program_id", "start_time", "end_time",
			"kind", "parent_schedule_id", "rrule", "is_exception")
	for _, s := range ss {
		q = q.Values(s.OrganizationID, s.StudentID, s.ProgramID, s.StartTime.UTC(), s.EndTime.UTC(),
			s.Kind, s.ParentScheduleID, s.RRule, s.IsException)
	}
	return q.Suffix("RETURNING " + strings.Join(scheduleColumns, ", ")).ToSql()
}

// InsertSchedule inserts one schedule and returns the stored row.
func (r *ScheduleRepository) InsertSchedule(ctx context.Context, s *models.Schedule) (*models.Schedule, error) {
	sql, args, err := buildInsertSchedules([]*models.Schedule{s})
	if err != nil {
		logger.Error().Err(err).Msg("Error building insert schedule SQL")
		return nil, err
	}

	created, err := scanSchedule(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		logger.Error().Err(err).Int64("studentId", s.StudentID).Msg("Error executing insert schedule query")
		return nil, mapWriteError(err)
	}
	return created, nil
}

// InsertSchedules inserts all schedules in one statement, preserving order.
func (r *ScheduleRepository) InsertSchedules(ctx context.Context, ss []*models.Schedule) ([]*models.Schedule, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	sql, args, err := buildInsertSchedules(ss)
	if err != nil {
		logger.Error().Err(err).Msg("Error building bulk insert schedules SQL")
		return nil, err
	}

	created, err := r.queryMany(ctx, sql, args)
	if err != nil {
		logger.Error().Err(err).Int("count", len(ss)).Msg("Error executing bulk insert schedules query")
		return nil, mapWriteError(err)
	}
	return created, nil
}

// GetSchedule retrieves a schedule by ID
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id int64) (*models.Schedule, error) {
	sql, args, err := psql.Select(scheduleColumns...).From("schedules").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanSchedule(r.db.QueryRow(ctx, sql, args...))
}

func buildUpdateSchedule(id int64, c models.ScheduleChanges) (string, []interface{}, error) {
	q := psql.Update("schedules").Set("updated_at", squirrel.Expr("NOW()"))
	if c.StudentID != nil {
		q = q.Set("student_id", *c.StudentID)
	}
	if c.ProgramID != nil {
		q = q.Set("program_id", *c.ProgramID)
	}
	if c.StartTime != nil {
		q = q.Set("start_time", c.StartTime.UTC())
	}
	if c.EndTime != nil {
		q = q.Set("end_time", c.EndTime.UTC())
	}
	if c.IsException != nil {
		q = q.Set("is_exception", *c.IsException)
	}
	return q.Where(squirrel.Eq{"id": id}).Suffix("RETURNING " + strings.Join(scheduleColumns, ", ")).ToSql()
}

// UpdateSchedule writes the non-nil changes to one schedule.
func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, id int64, c models.ScheduleChanges) (*models.Schedule, error) {
	sql, args, err := buildUpdateSchedule(id, c)
	if err != nil {
		logger.Error().Err(err).Msg("Error building update schedule SQL")
		return nil, err
	}

	updated, err := scanSchedule(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if !errors.Is(err, apperrors.ErrScheduleNotFound) {
			logger.Error().Err(err).Int64("scheduleId", id).Msg("Error executing update schedule query")
		}
		return nil, mapWriteError(err)
	}
	return updated, nil
}

// buildUpdateSeries shifts and resizes the matching occurrences in SQL so that each keeps
// its own date. Right-hand sides read the row's values from before the update.
func buildUpdateSeries(parentID int64, from time.Time, p models.SeriesPatch) (string, []interface{}, error) {
	q := psql.Update("schedules").Set("updated_at", squirrel.Expr("NOW()"))
	if p.Shift != 0 {
		q = q.Set("start_time", squirrel.Expr("start_time + make_interval(secs => ?)", p.Shift.Seconds()))
	}
	switch {
	case p.Length != nil:
		q = q.Set("end_time", squirrel.Expr("start_time + make_interval(secs => ?)", (p.Shift + *p.Length).Seconds()))
	case p.Shift != 0:
		q = q.Set("end_time", squirrel.Expr("end_time + make_interval(secs => ?)", p.Shift.Seconds()))
	}
	if p.StudentID != nil {
		q = q.Set("student_id", *p.StudentID)
	}
	if p.ProgramID != nil {
		q = q.Set("program_id", *p.ProgramID)
	}
	return q.Where(squirrel.Eq{"parent_schedule_id": parentID}).
		Where(squirrel.GtOrEq{"start_time": from.UTC()}).
		ToSql()
}

// UpdateSchedulesWhere patches every occurrence of the series rooted at parentID starting
// at or after from.
func (r *ScheduleRepository) UpdateSchedulesWhere(ctx context.Context, parentID int64, from time.Time, p models.SeriesPatch) (int64, error) {
	sql, args, err := buildUpdateSeries(parentID, from, p)
	if err != nil {
		logger.Error().Err(err).Msg("Error building update series SQL")
		return 0, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("seriesId", parentID).Msg("Error executing update series query")
		return 0, mapWriteError(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteSchedule deletes a schedule by ID
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id int64) error {
	sql, args, err := psql.Delete("schedules").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("scheduleId", id).Msg("Error executing delete schedule query")
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrScheduleNotFound
	}
	return nil
}

func buildNextOccurrence(rootID int64) (string, []interface{}, error) {
	return psql.Select("id").From("schedules").
		Where(squirrel.Eq{"parent_schedule_id": rootID}).
		OrderBy("start_time ASC", "id ASC").
		Limit(1).
		Suffix("FOR UPDATE").
		ToSql()
}

// buildPromoteOccurrence rewrites occurrence nextID as a series root carrying the rule of
// rootID. All columns change in one statement so chk_schedules_kind holds on the new row.
func buildPromoteOccurrence(rootID, nextID int64) (string, []interface{}, error) {
	return psql.Update("schedules").
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("kind", models.KindSeriesRoot).
		Set("parent_schedule_id", squirrel.Expr("NULL")).
		Set("rrule", squirrel.Expr("(SELECT rrule FROM schedules WHERE id = ?)", rootID)).
		Set("is_exception", false).
		Where(squirrel.Eq{"id": nextID}).
		Suffix("RETURNING " + strings.Join(scheduleColumns, ", ")).
		ToSql()
}

func buildRepointSeries(rootID, newRootID int64) (string, []interface{}, error) {
	return psql.Update("schedules").
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("parent_schedule_id", newRootID).
		Where(squirrel.Eq{"parent_schedule_id": rootID}).
		ToSql()
}

// PromoteNextOccurrence makes the earliest remaining occurrence of the series rooted at
// rootID its new root and moves the other occurrences under it, so that rootID can be
// deleted without the cascade taking the series with it. It returns nil when no
// occurrence is left. Callers run it inside the transaction that deletes rootID.
func (r *ScheduleRepository) PromoteNextOccurrence(ctx context.Context, rootID int64) (*models.Schedule, error) {
	sql, args, err := buildNextOccurrence(rootID)
	if err != nil {
		return nil, err
	}
	var nextID int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&nextID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logger.Error().Err(err).Int64("seriesId", rootID).Msg("Error finding next occurrence")
		return nil, err
	}

	// The promoted row leaves the series first so the re-point below skips it.
	sql, args, err = buildPromoteOccurrence(rootID, nextID)
	if err != nil {
		return nil, err
	}
	promoted, err := scanSchedule(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		logger.Error().Err(err).Int64("seriesId", rootID).Int64("scheduleId", nextID).Msg("Error promoting occurrence")
		return nil, mapWriteError(err)
	}

	sql, args, err = buildRepointSeries(rootID, promoted.ID)
	if err != nil {
		return nil, err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("seriesId", rootID).Msg("Error moving occurrences to new root")
		return nil, mapWriteError(err)
	}
	return promoted, nil
}

// DeleteSchedulesWhere deletes every occurrence of the series rooted at parentID starting
// at or after from.
func (r *ScheduleRepository) DeleteSchedulesWhere(ctx context.Context, parentID int64, from time.Time) (int64, error) {
	sql, args, err := psql.Delete("schedules").
		Where(squirrel.Eq{"parent_schedule_id": parentID}).
		Where(squirrel.GtOrEq{"start_time": from.UTC()}).
		ToSql()
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("seriesId", parentID).Msg("Error executing delete series query")
		return 0, mapWriteError(err)
	}
	return tag.RowsAffected(), nil
}

// buildCountOverlapping counts rows matching scope whose interval intersects [start, end).
func buildCountOverlapping(scope squirrel.Eq, start, end time.Time, excludeID *int64) (string, []interface{}, error) {
	q := psql.Select("COUNT(*)").From("schedules").
		Where(scope).
		Where(squirrel.Lt{"start_time": end.UTC()}).
		Where(squirrel.Gt{"end_time": start.UTC()})
	if excludeID != nil {
		q = q.Where(squirrel.NotEq{"id": *excludeID})
	}
	return q.ToSql()
}

func (r *ScheduleRepository) count(ctx context.Context, sql string, args []interface{}) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountOverlapping counts the organization's schedules intersecting [start, end).
func (r *ScheduleRepository) CountOverlapping(ctx context.Context, orgID int64, start, end time.Time, excludeID *int64) (int, error) {
	sql, args, err := buildCountOverlapping(squirrel.Eq{"organization_id": orgID}, start, end, excludeID)
	if err != nil {
		return 0, err
	}
	return r.count(ctx, sql, args)
}

// CountOverlappingForStudent counts the student's schedules intersecting [start, end) in
// every organization.
func (r *ScheduleRepository) CountOverlappingForStudent(ctx context.Context, studentID int64, start, end time.Time, excludeID *int64) (int, error) {
	sql, args, err := buildCountOverlapping(squirrel.Eq{"student_id": studentID}, start, end, excludeID)
	if err != nil {
		return 0, err
	}
	return r.count(ctx, sql, args)
}

func listFilter(p ListSchedulesParams) squirrel.And {
	where := squirrel.And{
		squirrel.Eq{"organization_id": p.OrganizationID},
		squirrel.GtOrEq{"start_time": p.From.UTC()},
		squirrel.Lt{"start_time": p.To.UTC()},
	}
	if p.StudentID != nil {
		where = append(where, squirrel.Eq{"student_id": *p.StudentID})
	}
	return where
}

// ListSchedules returns one page of the organization's schedules ordered by start, and
// the total number of matching schedules.
func (r *ScheduleRepository) ListSchedules(ctx context.Context, p ListSchedulesParams) ([]*models.Schedule, int64, error) {
	where := listFilter(p)

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("schedules").Where(where).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count schedules SQL")
		return nil, 0, err
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count schedules query")
		return nil, 0, err
	}
	if total == 0 {
		return []*models.Schedule{}, 0, nil
	}

	sql, args, err := psql.Select(scheduleColumns...).From("schedules").
		Where(where).
		OrderBy("start_time ASC", "id ASC").
		Limit(p.Page.Limit()).
		Offset(p.Page.Offset()).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list schedules SQL")
		return nil, 0, err
	}

	schedules, err := r.queryMany(ctx, sql, args)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list schedules query")
		return nil, 0, err
	}
	return schedules, total, nil
}

// ListStartingBetween returns every schedule, across organizations, starting in [from, to).
func (r *ScheduleRepository) ListStartingBetween(ctx context.Context, from, to time.Time) ([]*models.Schedule, error) {
	sql, args, err := psql.Select(scheduleColumns...).From("schedules").
		Where(squirrel.GtOrEq{"start_time": from.UTC()}).
		Where(squirrel.Lt{"start_time": to.UTC()}).
		OrderBy("organization_id ASC", "start_time ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryMany(ctx, sql, args)
}

// mapWriteError translates constraint violations into application errors. Serialization
// failures are returned unchanged so the caller can retry.
func mapWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case dberrors.IsForeignKeyViolation(err):
		return apperrors.NewCustomError(apperrors.ErrConflict, "schedule still has dependent occurrences or references an unknown record").
			WithDetails(map[string]interface{}{"cause": err.Error()})
	case dberrors.IsCheckViolation(err):
		return apperrors.NewCustomError(apperrors.ErrBadRequest, fmt.Sprintf("schedule violates a storage constraint: %v", err))
	default:
		return err
	}
}
