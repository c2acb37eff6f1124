package services

import (
	"context"
	"time"

	"github.com/tutorhub/backoffice/internal/app/calendar"
	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/app/models/dto"
	"github.com/tutorhub/backoffice/internal/app/repositories"
	"github.com/tutorhub/backoffice/internal/app/scheduling"
	"github.com/tutorhub/backoffice/internal/pkg/apperrors"
	"github.com/tutorhub/backoffice/internal/pkg/helpers"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

// maxListDays bounds the date range of list and export requests.
const maxListDays = 366

// ScheduleService defines the interface for booking operations
type ScheduleService interface {
	CreateSchedule(ctx context.Context, actor scheduling.Actor, req dto.CreateScheduleRequest) (*dto.CreateScheduleResponse, error)
	CreateOwnSchedule(ctx context.Context, actor scheduling.Actor, req dto.SelfScheduleRequest) (*dto.CreateScheduleResponse, error)
	GetSchedule(ctx context.Context, actor scheduling.Actor, id int64) (*dto.ScheduleResponse, error)
	ListSchedules(ctx context.Context, actor scheduling.Actor, q dto.ListSchedulesQuery, page helpers.Page) (*dto.PaginatedResponse, error)
	UpdateSchedule(ctx context.Context, actor scheduling.Actor, id int64, req dto.UpdateScheduleRequest, scope models.Scope) (*dto.UpdateScheduleResponse, error)
	DeleteSchedule(ctx context.Context, actor scheduling.Actor, id int64, scope models.Scope) (*dto.DeleteScheduleResponse, error)
	CheckCapacity(ctx context.Context, actor scheduling.Actor, q dto.CapacityQuery) (*dto.CapacityResponse, error)
	RegistrationWindow(ctx context.Context) dto.RegistrationWindowResponse
	ExportCalendar(ctx context.Context, actor scheduling.Actor, q dto.ListSchedulesQuery) ([]byte, error)
}

// ScheduleReader serves the read-only endpoints outside any transaction.
type ScheduleReader interface {
	GetSchedule(ctx context.Context, id int64) (*models.Schedule, error)
	ListSchedules(ctx context.Context, p repositories.ListSchedulesParams) ([]*models.Schedule, int64, error)
}

// scheduleServiceImpl implements the ScheduleService interface
type scheduleServiceImpl struct {
	uow      UnitOfWork
	reader   ScheduleReader
	settings scheduling.Settings
	clock    kst.Clock
	cfg      scheduling.Config
}

// NewScheduleService creates a new schedule service instance
func NewScheduleService(uow UnitOfWork, reader ScheduleReader, settings scheduling.Settings, clock kst.Clock, cfg scheduling.Config) ScheduleService {
	if clock == nil {
		clock = time.Now
	}
	return &scheduleServiceImpl{
		uow:      uow,
		reader:   reader,
		settings: settings,
		clock:    clock,
		cfg:      cfg,
	}
}

func (s *scheduleServiceImpl) engine(store scheduling.Store, profile scheduling.Profile) *scheduling.Engine {
	return scheduling.NewEngine(store, s.settings, profile, s.clock, s.cfg)
}

func parseDateTime(date, clock string) (kst.Date, kst.TimeOfDay, error) {
	d, err := kst.ParseDate(date)
	if err != nil {
		return kst.Date{}, kst.TimeOfDay{}, apperrors.NewBadRequestError(err.Error())
	}
	tod, err := kst.ParseTimeOfDay(clock)
	if err != nil {
		return kst.Date{}, kst.TimeOfDay{}, apperrors.NewBadRequestError(err.Error())
	}
	return d, tod, nil
}

func (s *scheduleServiceImpl) create(ctx context.Context, actor scheduling.Actor, req scheduling.BookingRequest) (*dto.CreateScheduleResponse, error) {
	var res *scheduling.BookingResult
	err := s.uow.Run(ctx, func(ctx context.Context, store scheduling.Store, profile scheduling.Profile) error {
		var err error
		res, err = s.engine(store, profile).CreateBooking(ctx, req, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.CreateScheduleResponse{
		ScheduleID:      res.ScheduleID,
		OccurrenceCount: res.OccurrenceCount,
		Schedule:        dto.FromSchedule(res.Root),
	}, nil
}

// CreateSchedule books a class on behalf of an administrator.
func (s *scheduleServiceImpl) CreateSchedule(ctx context.Context, actor scheduling.Actor, req dto.CreateScheduleRequest) (*dto.CreateScheduleResponse, error) {
	date, tod, err := parseDateTime(req.Date, req.StartTime)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, actor, scheduling.BookingRequest{
		OrganizationID: actor.OrganizationID,
		StudentID:      req.StudentID,
		ProgramID:      req.ProgramID,
		Date:           date,
		StartTime:      tod,
		DurationSlots:  req.DurationSlots,
		Recurring:      req.Recurring,
	})
}

// CreateOwnSchedule books a class for the calling student.
func (s *scheduleServiceImpl) CreateOwnSchedule(ctx context.Context, actor scheduling.Actor, req dto.SelfScheduleRequest) (*dto.CreateScheduleResponse, error) {
	date, tod, err := parseDateTime(req.Date, req.StartTime)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, actor, scheduling.BookingRequest{
		OrganizationID: actor.OrganizationID,
		StudentID:      actor.StudentID,
		ProgramID:      req.ProgramID,
		Date:           date,
		StartTime:      tod,
		DurationSlots:  req.DurationSlots,
		Recurring:      req.Recurring,
	})
}

// GetSchedule returns a schedule visible to actor.
func (s *scheduleServiceImpl) GetSchedule(ctx context.Context, actor scheduling.Actor, id int64) (*dto.ScheduleResponse, error) {
	sched, err := s.reader.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if sched.OrganizationID != actor.OrganizationID ||
		(actor.Role == models.RoleStudent && sched.StudentID != actor.StudentID) {
		return nil, apperrors.ErrScheduleNotFound
	}
	resp := dto.FromSchedule(sched)
	return &resp, nil
}

func (s *scheduleServiceImpl) listParams(actor scheduling.Actor, q dto.ListSchedulesQuery) (repositories.ListSchedulesParams, error) {
	r, err := helpers.ParseDateRange(q.From, q.To, maxListDays)
	if err != nil {
		return repositories.ListSchedulesParams{}, err
	}

	p := repositories.ListSchedulesParams{
		OrganizationID: actor.OrganizationID,
		StudentID:      q.StudentID,
		From:           r.From,
		To:             r.To,
	}
	if actor.Role == models.RoleStudent {
		own := actor.StudentID
		p.StudentID = &own
	}
	return p, nil
}

// ListSchedules returns one page of schedules starting between q.From and q.To inclusive.
func (s *scheduleServiceImpl) ListSchedules(ctx context.Context, actor scheduling.Actor, q dto.ListSchedulesQuery, page helpers.Page) (*dto.PaginatedResponse, error) {
	p, err := s.listParams(actor, q)
	if err != nil {
		return nil, err
	}
	p.Page = page

	schedules, total, err := s.reader.ListSchedules(ctx, p)
	if err != nil {
		return nil, err
	}
	return &dto.PaginatedResponse{
		Items:      dto.FromSchedules(schedules),
		Pagination: page.Info(total),
	}, nil
}

func bookingChanges(req dto.UpdateScheduleRequest) (scheduling.BookingChanges, error) {
	changes := scheduling.BookingChanges{
		StudentID:     req.StudentID,
		ProgramID:     req.ProgramID,
		DurationSlots: req.DurationSlots,
	}
	if req.Date != nil {
		d, err := kst.ParseDate(*req.Date)
		if err != nil {
			return changes, apperrors.NewBadRequestError(err.Error())
		}
		changes.Date = &d
	}
	if req.StartTime != nil {
		tod, err := kst.ParseTimeOfDay(*req.StartTime)
		if err != nil {
			return changes, apperrors.NewBadRequestError(err.Error())
		}
		changes.StartTime = &tod
	}
	return changes, nil
}

// UpdateSchedule moves or reassigns a booking, or the rest of its series.
func (s *scheduleServiceImpl) UpdateSchedule(ctx context.Context, actor scheduling.Actor, id int64, req dto.UpdateScheduleRequest, scope models.Scope) (*dto.UpdateScheduleResponse, error) {
	changes, err := bookingChanges(req)
	if err != nil {
		return nil, err
	}

	var res *scheduling.UpdateResult
	err = s.uow.Run(ctx, func(ctx context.Context, store scheduling.Store, profile scheduling.Profile) error {
		var err error
		res, err = s.engine(store, profile).UpdateBooking(ctx, id, changes, scope, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.UpdateScheduleResponse{
		UpdatedCount: res.UpdatedCount,
		Schedule:     dto.FromSchedule(res.Schedule),
	}, nil
}

// DeleteSchedule removes a booking, or the rest of its series.
func (s *scheduleServiceImpl) DeleteSchedule(ctx context.Context, actor scheduling.Actor, id int64, scope models.Scope) (*dto.DeleteScheduleResponse, error) {
	var deleted int64
	err := s.uow.Run(ctx, func(ctx context.Context, store scheduling.Store, profile scheduling.Profile) error {
		var err error
		deleted, err = s.engine(store, profile).DeleteBooking(ctx, id, scope, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.DeleteScheduleResponse{DeletedCount: deleted}, nil
}

// CheckCapacity previews the admission check for a slot.
func (s *scheduleServiceImpl) CheckCapacity(ctx context.Context, actor scheduling.Actor, q dto.CapacityQuery) (*dto.CapacityResponse, error) {
	date, tod, err := parseDateTime(q.Date, q.StartTime)
	if err != nil {
		return nil, err
	}
	req := scheduling.BookingRequest{
		OrganizationID: actor.OrganizationID,
		StudentID:      actor.StudentID,
		Date:           date,
		StartTime:      tod,
		DurationSlots:  q.DurationSlots,
	}
	start, end := req.Interval()

	var res scheduling.CapacityResult
	err = s.uow.Run(ctx, func(ctx context.Context, store scheduling.Store, profile scheduling.Profile) error {
		var err error
		res, err = s.engine(store, profile).CheckCapacity(ctx, actor.OrganizationID, start, end)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.CapacityResponse{Allowed: res.Allowed, CurrentCount: res.CurrentCount, MaxCount: res.MaxCount}, nil
}

// RegistrationWindow returns the dates a student may currently book.
func (s *scheduleServiceImpl) RegistrationWindow(ctx context.Context) dto.RegistrationWindowResponse {
	w := scheduling.NewRegistrationWindow(s.cfg.OpenNextMonthDay)
	from, to := w.AllowedRange(s.clock())
	return dto.RegistrationWindowResponse{
		From:             kst.DateKey(from),
		To:               kst.DateKey(to),
		OpenNextMonthDay: w.OpenNextMonthDay,
	}
}

// ExportCalendar renders every schedule in the range as an iCalendar document.
func (s *scheduleServiceImpl) ExportCalendar(ctx context.Context, actor scheduling.Actor, q dto.ListSchedulesQuery) ([]byte, error) {
	p, err := s.listParams(actor, q)
	if err != nil {
		return nil, err
	}

	var all []*models.Schedule
	for p.Page = helpers.ExportPage(); ; p.Page = p.Page.Next() {
		rows, total, err := s.reader.ListSchedules(ctx, p)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if p.Page.Last(len(rows), total) {
			break
		}
	}
	return calendar.Export(all, s.clock()), nil
}
