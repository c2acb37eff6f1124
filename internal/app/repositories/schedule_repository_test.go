package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/pkg/apperrors"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

func TestBuildCountOverlapping(t *testing.T) {
	start := kst.At(2025, time.March, 10, 10, 0, 0)
	end := start.Add(3 * time.Hour)

	sql, args, err := buildCountOverlapping(squirrel.Eq{"organization_id": int64(7)}, start, end, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM schedules WHERE organization_id = $1 AND start_time < $2 AND end_time > $3", sql)
	assert.Equal(t, []interface{}{int64(7), end.UTC(), start.UTC()}, args)

	exclude := int64(42)
	sql, args, err = buildCountOverlapping(squirrel.Eq{"student_id": int64(3)}, start, end, &exclude)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM schedules WHERE student_id = $1 AND start_time < $2 AND end_time > $3 AND id <> $4", sql)
	assert.Equal(t, int64(42), args[3])
}

func TestBuildInsertSchedules(t *testing.T) {
	start := kst.At(2025, time.January, 6, 10, 0, 0)
	root := models.NewSeriesRoot(1, 2, nil, start, start.Add(3*time.Hour), "FREQ=WEEKLY;INTERVAL=1;UNTIL=20250127T145959Z")
	root.ID = 9
	occ := models.NewOccurrence(root, start.AddDate(0, 0, 7))

	sql, args, err := buildInsertSchedules([]*models.Schedule{occ, occ})
	require.NoError(t, err)
	assert.Contains(t, sql, "INSERT INTO schedules (organization_id,student_id,program_id,start_time,end_time,kind,parent_schedule_id,rrule,is_exception) VALUES ")
	assert.Contains(t, sql, "($10,$11,$12,$13,$14,$15,$16,$17,$18)")
	assert.Contains(t, sql, "RETURNING id, organization_id")
	require.Len(t, args, 18)
	assert.Equal(t, models.KindOccurrence, args[5])
	assert.Equal(t, int64(9), *(args[6].(*int64)))
}

func TestBuildUpdateSchedule(t *testing.T) {
	start := kst.At(2025, time.March, 17, 14, 0, 0)
	end := start.Add(3 * time.Hour)
	exception := true

	sql, args, err := buildUpdateSchedule(5, models.ScheduleChanges{StartTime: &start, EndTime: &end, IsException: &exception})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE schedules SET updated_at = NOW(), start_time = $1, end_time = $2, is_exception = $3 WHERE id = $4 RETURNING "+
		"id, organization_id, student_id, program_id, start_time, end_time, kind, parent_schedule_id, rrule, is_exception, created_at, updated_at", sql)
	assert.Equal(t, []interface{}{start.UTC(), end.UTC(), true, int64(5)}, args)
}

func TestBuildUpdateSeries(t *testing.T) {
	from := kst.At(2025, time.March, 12, 9, 0, 0)
	student := int64(20)

	sql, args, err := buildUpdateSeries(1, from, models.SeriesPatch{Shift: 5 * time.Hour, StudentID: &student})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE schedules SET updated_at = NOW(), start_time = start_time + make_interval(secs => $1), "+
		"end_time = end_time + make_interval(secs => $2), student_id = $3 WHERE parent_schedule_id = $4 AND start_time >= $5", sql)
	assert.Equal(t, []interface{}{18000.0, 18000.0, int64(20), int64(1), from.UTC()}, args)

	length := 6 * time.Hour
	sql, args, err = buildUpdateSeries(1, from, models.SeriesPatch{Shift: -time.Hour, Length: &length})
	require.NoError(t, err)
	assert.Contains(t, sql, "end_time = start_time + make_interval(secs => $2)")
	assert.Equal(t, 18000.0, args[1], "new end is old start plus shift plus length")

	sql, _, err = buildUpdateSeries(1, from, models.SeriesPatch{})
	require.NoError(t, err)
	assert.NotContains(t, sql, "start_time =")
}

func TestBuildPromoteNextOccurrence(t *testing.T) {
	sql, args, err := buildNextOccurrence(4)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM schedules WHERE parent_schedule_id = $1 ORDER BY start_time ASC, id ASC LIMIT 1 FOR UPDATE", sql)
	assert.Equal(t, []interface{}{int64(4)}, args)

	sql, args, err = buildPromoteOccurrence(4, 5)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE schedules SET updated_at = NOW(), kind = $1, parent_schedule_id = NULL, "+
		"rrule = (SELECT rrule FROM schedules WHERE id = $2), is_exception = $3 WHERE id = $4 RETURNING "+
		"id, organization_id, student_id, program_id, start_time, end_time, kind, parent_schedule_id, rrule, is_exception, created_at, updated_at", sql)
	assert.Equal(t, []interface{}{models.KindSeriesRoot, int64(4), false, int64(5)}, args)

	sql, args, err = buildRepointSeries(4, 5)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE schedules SET updated_at = NOW(), parent_schedule_id = $1 WHERE parent_schedule_id = $2", sql)
	assert.Equal(t, []interface{}{int64(5), int64(4)}, args)
}

func TestMapWriteError(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503"}
	assert.ErrorIs(t, mapWriteError(fk), apperrors.ErrConflict)

	check := &pgconn.PgError{Code: "23514"}
	assert.ErrorIs(t, mapWriteError(check), apperrors.ErrBadRequest)

	serialization := &pgconn.PgError{Code: "40001"}
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(mapWriteError(serialization), &pgErr), "retryable errors pass through")

	assert.NoError(t, mapWriteError(nil))
}

type countingSource struct {
	calls int
	max   int
}

func (s *countingSource) GetMaxConcurrentStudents(context.Context, int64) (int, error) {
	s.calls++
	return s.max, nil
}

func TestCachedSettings_WithoutRedis(t *testing.T) {
	src := &countingSource{max: 4}
	cache := NewCachedSettings(src, nil, time.Minute)

	for i := 0; i < 2; i++ {
		n, err := cache.GetMaxConcurrentStudents(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	}
	assert.Equal(t, 2, src.calls)
	assert.NoError(t, cache.Invalidate(context.Background(), 1))
	assert.Equal(t, "org:1:max_concurrent_students", maxConcurrentKey(1))
}
