// Package schedulingtest provides an in-memory implementation of the scheduling
// collaborators for tests.
package schedulingtest

import (
	"context"
	"sort"
	"time"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/pkg/apperrors"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

// MemStore implements scheduling.Store, scheduling.Settings and scheduling.Profile in
// memory. It is not safe for concurrent use.
type MemStore struct {
	nextID int64

	// Schedules holds the stored rows by id.
	Schedules map[int64]*models.Schedule
	// MaxByOrg overrides the default capacity of 3 per organization.
	MaxByOrg map[int64]int
	// EndDates holds class end dates by student id.
	EndDates map[int64]kst.Date
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		Schedules: make(map[int64]*models.Schedule),
		MaxByOrg:  make(map[int64]int),
		EndDates:  make(map[int64]kst.Date),
	}
}

// Seed inserts s as is and returns its id.
func (m *MemStore) Seed(s *models.Schedule) int64 {
	created, _ := m.InsertSchedule(context.Background(), s)
	return created.ID
}

// IDs returns the stored ids in ascending order.
func (m *MemStore) IDs() []int64 {
	out := make([]int64, 0, len(m.Schedules))
	for id := range m.Schedules {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *MemStore) InsertSchedule(_ context.Context, s *models.Schedule) (*models.Schedule, error) {
	m.nextID++
	cp := *s
	cp.ID = m.nextID
	m.Schedules[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MemStore) InsertSchedules(ctx context.Context, ss []*models.Schedule) ([]*models.Schedule, error) {
	out := make([]*models.Schedule, 0, len(ss))
	for _, s := range ss {
		created, err := m.InsertSchedule(ctx, s)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (m *MemStore) GetSchedule(_ context.Context, id int64) (*models.Schedule, error) {
	s, ok := m.Schedules[id]
	if !ok {
		return nil, apperrors.ErrScheduleNotFound
	}
	out := *s
	return &out, nil
}

func (m *MemStore) UpdateSchedule(ctx context.Context, id int64, c models.ScheduleChanges) (*models.Schedule, error) {
	s, ok := m.Schedules[id]
	if !ok {
		return nil, apperrors.ErrScheduleNotFound
	}
	if c.StudentID != nil {
		s.StudentID = *c.StudentID
	}
	if c.ProgramID != nil {
		s.ProgramID = c.ProgramID
	}
	if c.StartTime != nil {
		s.StartTime = *c.StartTime
	}
	if c.EndTime != nil {
		s.EndTime = *c.EndTime
	}
	if c.IsException != nil {
		s.IsException = *c.IsException
	}
	return m.GetSchedule(ctx, id)
}

func (m *MemStore) UpdateSchedulesWhere(_ context.Context, parentID int64, from time.Time, p models.SeriesPatch) (int64, error) {
	var n int64
	for _, s := range m.Schedules {
		if s.ParentScheduleID == nil || *s.ParentScheduleID != parentID || s.StartTime.Before(from) {
			continue
		}
		length := s.Duration()
		if p.Length != nil {
			length = *p.Length
		}
		s.StartTime = s.StartTime.Add(p.Shift)
		s.EndTime = s.StartTime.Add(length)
		if p.StudentID != nil {
			s.StudentID = *p.StudentID
		}
		if p.ProgramID != nil {
			s.ProgramID = p.ProgramID
		}
		n++
	}
	return n, nil
}

func (m *MemStore) DeleteSchedule(_ context.Context, id int64) error {
	if _, ok := m.Schedules[id]; !ok {
		return apperrors.ErrScheduleNotFound
	}
	delete(m.Schedules, id)
	return nil
}

func (m *MemStore) PromoteNextOccurrence(ctx context.Context, rootID int64) (*models.Schedule, error) {
	root, ok := m.Schedules[rootID]
	if !ok {
		return nil, apperrors.ErrScheduleNotFound
	}
	var next *models.Schedule
	for _, s := range m.Schedules {
		if s.ParentScheduleID == nil || *s.ParentScheduleID != rootID {
			continue
		}
		if next == nil || s.StartTime.Before(next.StartTime) || (s.StartTime.Equal(next.StartTime) && s.ID < next.ID) {
			next = s
		}
	}
	if next == nil {
		return nil, nil
	}

	newRootID := next.ID
	for _, s := range m.Schedules {
		if s.ParentScheduleID != nil && *s.ParentScheduleID == rootID && s.ID != newRootID {
			s.ParentScheduleID = &newRootID
		}
	}
	rule := *root.RRule
	next.Kind = models.KindSeriesRoot
	next.ParentScheduleID = nil
	next.RRule = &rule
	next.IsException = false
	return m.GetSchedule(ctx, newRootID)
}

func (m *MemStore) DeleteSchedulesWhere(_ context.Context, parentID int64, from time.Time) (int64, error) {
	var n int64
	for id, s := range m.Schedules {
		if s.ParentScheduleID != nil && *s.ParentScheduleID == parentID && !s.StartTime.Before(from) {
			delete(m.Schedules, id)
			n++
		}
	}
	return n, nil
}

func (m *MemStore) count(match func(*models.Schedule) bool, start, end time.Time, excludeID *int64) int {
	n := 0
	for _, s := range m.Schedules {
		if excludeID != nil && s.ID == *excludeID {
			continue
		}
		if match(s) && s.Overlaps(start, end) {
			n++
		}
	}
	return n
}

func (m *MemStore) CountOverlapping(_ context.Context, orgID int64, start, end time.Time, excludeID *int64) (int, error) {
	return m.count(func(s *models.Schedule) bool { return s.OrganizationID == orgID }, start, end, excludeID), nil
}

func (m *MemStore) CountOverlappingForStudent(_ context.Context, studentID int64, start, end time.Time, excludeID *int64) (int, error) {
	return m.count(func(s *models.Schedule) bool { return s.StudentID == studentID }, start, end, excludeID), nil
}

func (m *MemStore) GetMaxConcurrentStudents(_ context.Context, orgID int64) (int, error) {
	if n, ok := m.MaxByOrg[orgID]; ok {
		return n, nil
	}
	return 3, nil
}

func (m *MemStore) GetClassEndDate(_ context.Context, studentID int64) (*kst.Date, error) {
	d, ok := m.EndDates[studentID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}
