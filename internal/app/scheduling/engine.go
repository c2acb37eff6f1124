package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/pkg/apperrors"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
	"github.com/tutorhub/backoffice/internal/pkg/logger"
)

// Config tunes the engine's policies.
type Config struct {
	OpenNextMonthDay int
	MaxOccurrences   int
}

// Engine validates booking intents and performs the resulting writes.
// An Engine is cheap; build one per transaction around a transaction-bound Store.
type Engine struct {
	store     Store
	profile   Profile
	clock     kst.Clock
	window    RegistrationWindow
	capacity  *CapacityGate
	conflicts *ConflictChecker
	expander  RecurrenceExpander
}

// NewEngine wires the scheduling components around the given collaborators.
func NewEngine(store Store, settings Settings, profile Profile, clock kst.Clock, cfg Config) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		store:     store,
		profile:   profile,
		clock:     clock,
		window:    NewRegistrationWindow(cfg.OpenNextMonthDay),
		capacity:  NewCapacityGate(store, settings),
		conflicts: NewConflictChecker(store),
		expander:  NewRecurrenceExpander(cfg.MaxOccurrences),
	}
}

// Window returns the registration window the engine enforces.
func (e *Engine) Window() RegistrationWindow {
	return e.window
}

// CheckCapacity runs the admission check without booking anything.
func (e *Engine) CheckCapacity(ctx context.Context, orgID int64, start, end time.Time) (CapacityResult, error) {
	return e.capacity.Check(ctx, orgID, start, end, nil)
}

// CreateBooking validates req on behalf of actor and creates a standalone booking or a
// weekly series. Every rejection is returned before anything is written.
func (e *Engine) CreateBooking(ctx context.Context, req BookingRequest, actor Actor) (*BookingResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start, end := req.Interval()
	now := e.clock()
	log := logger.WithFields(map[string]interface{}{
		"organizationId": req.OrganizationID,
		"studentId":      req.StudentID,
		"start":          start,
	})

	if actor.Role == models.RoleStudent && !e.window.CanRegister(now, req.Date) {
		from, to := e.window.AllowedRange(now)
		log.Info().Str("reason", apperrors.CodeOutOfWindow).Msg("Booking rejected")
		return nil, apperrors.NewRejection(apperrors.ErrOutOfWindow,
			fmt.Sprintf("classes can only be booked between %s and %s", kst.DateKey(from), kst.DateKey(to)),
			map[string]interface{}{"allowedFrom": kst.DateKey(from), "allowedTo": kst.DateKey(to), "date": req.Date.String()})
	}

	if err := e.admit(ctx, req.OrganizationID, start, end, nil); err != nil {
		log.Info().Err(err).Msg("Booking rejected")
		return nil, err
	}

	if actor.Role == models.RoleAdmin {
		conflict, err := e.conflicts.HasConflict(ctx, req.StudentID, start, end, nil)
		if err != nil {
			return nil, err
		}
		if conflict {
			log.Info().Str("reason", apperrors.CodeStudentConflict).Msg("Booking rejected")
			return nil, apperrors.NewRejection(apperrors.ErrStudentConflict,
				fmt.Sprintf("the student already has a class overlapping %s %s", req.Date, req.StartTime),
				map[string]interface{}{"studentId": req.StudentID, "date": req.Date.String(), "startTime": req.StartTime.String()})
		}
	}

	if !req.Recurring {
		created, err := e.store.InsertSchedule(ctx, models.NewStandalone(req.OrganizationID, req.StudentID, req.ProgramID, start, end))
		if err != nil {
			return nil, fmt.Errorf("failed to insert schedule: %w", err)
		}
		log.Info().Int64("scheduleId", created.ID).Msg("Booking created")
		return &BookingResult{ScheduleID: created.ID, Root: created}, nil
	}

	return e.createSeries(ctx, req, start, end)
}

func (e *Engine) createSeries(ctx context.Context, req BookingRequest, start, end time.Time) (*BookingResult, error) {
	until, err := e.profile.GetClassEndDate(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load class end date: %w", err)
	}
	if until == nil {
		return nil, apperrors.NewRejection(apperrors.ErrMissingEnrollmentEndDate,
			"a recurring booking needs the student's class end date; set it on the student profile first",
			map[string]interface{}{"studentId": req.StudentID})
	}

	series, err := e.expander.Expand(start, *until)
	if err != nil {
		return nil, err
	}
	starts := series.Starts
	if len(starts) == 1 {
		created, err := e.store.InsertSchedule(ctx, models.NewStandalone(req.OrganizationID, req.StudentID, req.ProgramID, start, end))
		if err != nil {
			return nil, fmt.Errorf("failed to insert schedule: %w", err)
		}
		return &BookingResult{ScheduleID: created.ID, Root: created}, nil
	}

	rule, err := RuleString(start, series.Until)
	if err != nil {
		return nil, err
	}
	root, err := e.store.InsertSchedule(ctx, models.NewSeriesRoot(req.OrganizationID, req.StudentID, req.ProgramID, start, end, rule))
	if err != nil {
		return nil, fmt.Errorf("failed to insert series root: %w", err)
	}

	occurrences := make([]*models.Schedule, 0, len(starts)-1)
	for _, s := range starts[1:] {
		occurrences = append(occurrences, models.NewOccurrence(root, s))
	}
	inserted, err := e.store.InsertSchedules(ctx, occurrences)
	if err != nil {
		return nil, fmt.Errorf("failed to insert series occurrences: %w", err)
	}

	logger.Info().
		Int64("scheduleId", root.ID).
		Int("occurrences", len(inserted)).
		Str("until", until.String()).
		Msg("Weekly series created")
	return &BookingResult{ScheduleID: root.ID, OccurrenceCount: len(inserted), Root: root}, nil
}

// admit runs the capacity gate and converts a refusal into a rejection.
func (e *Engine) admit(ctx context.Context, orgID int64, start, end time.Time, excludeID *int64) error {
	res, err := e.capacity.Check(ctx, orgID, start, end, excludeID)
	if err != nil {
		return err
	}
	if res.Allowed {
		return nil
	}
	return apperrors.NewRejection(apperrors.ErrCapacityExceeded,
		fmt.Sprintf("this time is full: %d of %d seats are already booked", res.CurrentCount, res.MaxCount),
		map[string]interface{}{"current": res.CurrentCount, "max": res.MaxCount})
}

// load fetches a schedule visible to actor. Schedules of other organizations, and for
// students schedules of other students, read as not found.
func (e *Engine) load(ctx context.Context, id int64, actor Actor) (*models.Schedule, error) {
	s, err := e.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.OrganizationID != actor.OrganizationID {
		return nil, apperrors.ErrScheduleNotFound
	}
	if actor.Role == models.RoleStudent && s.StudentID != actor.StudentID {
		return nil, apperrors.ErrScheduleNotFound
	}
	return s, nil
}

func pastScheduleRejection(s *models.Schedule) error {
	return apperrors.NewRejection(apperrors.ErrPastSchedule,
		fmt.Sprintf("the class on %s has already passed and can no longer be changed", kst.DateKey(s.StartTime)),
		map[string]interface{}{"scheduleId": s.ID, "date": kst.DateKey(s.StartTime)})
}

// UpdateBooking moves or reassigns a booking. ScopeFuture applies the same change to the
// addressed record and every occurrence of its series from now on, including siblings
// that sit before the addressed one.
func (e *Engine) UpdateBooking(ctx context.Context, id int64, changes BookingChanges, scope models.Scope, actor Actor) (*UpdateResult, error) {
	if err := changes.Validate(); err != nil {
		return nil, err
	}
	existing, err := e.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	now := e.clock()
	if kst.DateOf(existing.StartTime).Before(kst.DateOf(now)) {
		return nil, pastScheduleRejection(existing)
	}
	if scope == models.ScopeFuture && !existing.InSeries() {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidScope, "only bookings that belong to a weekly series can be updated with scope=future")
	}

	start, end := changes.apply(existing)
	if err := e.admit(ctx, existing.OrganizationID, start, end, &existing.ID); err != nil {
		return nil, err
	}

	single := models.ScheduleChanges{
		StudentID: changes.StudentID,
		ProgramID: changes.ProgramID,
		StartTime: &start,
		EndTime:   &end,
	}

	if scope != models.ScopeFuture {
		if existing.Kind == models.KindOccurrence {
			exception := true
			single.IsException = &exception
		}
		updated, err := e.store.UpdateSchedule(ctx, existing.ID, single)
		if err != nil {
			return nil, fmt.Errorf("failed to update schedule: %w", err)
		}
		return &UpdateResult{Schedule: updated, UpdatedCount: 1}, nil
	}

	patch := models.SeriesPatch{
		StudentID: changes.StudentID,
		ProgramID: changes.ProgramID,
		Shift:     start.Sub(existing.StartTime),
	}
	if length := end.Sub(start); length != existing.Duration() {
		patch.Length = &length
	}

	count, err := e.store.UpdateSchedulesWhere(ctx, existing.SeriesID(), now, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update series: %w", err)
	}
	// The root is not an occurrence of its own series, and an occurrence earlier today is
	// outside the bulk filter; both are updated individually.
	if existing.Kind == models.KindSeriesRoot || existing.StartTime.Before(now) {
		if _, err := e.store.UpdateSchedule(ctx, existing.ID, single); err != nil {
			return nil, fmt.Errorf("failed to update schedule: %w", err)
		}
		count++
	}

	updated, err := e.store.GetSchedule(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int64("scheduleId", existing.ID).
		Int64("seriesId", existing.SeriesID()).
		Int64("updated", count).
		Msg("Series updated from schedule onwards")
	return &UpdateResult{Schedule: updated, UpdatedCount: count}, nil
}

// DeleteBooking removes a booking. ScopeFuture removes the addressed record and every
// occurrence of its series from now on; on a series root that is the whole series.
// ScopeSingle on a series root hands the series over to its earliest remaining
// occurrence first.
// Students may only cancel their own bookings, and not on the day of the class.
func (e *Engine) DeleteBooking(ctx context.Context, id int64, scope models.Scope, actor Actor) (int64, error) {
	existing, err := e.load(ctx, id, actor)
	if err != nil {
		return 0, err
	}
	now := e.clock()

	if actor.Role == models.RoleStudent {
		if !e.window.CanCancel(now, existing.StartTime) {
			return 0, pastScheduleRejection(existing)
		}
	} else if kst.DateOf(existing.StartTime).Before(kst.DateOf(now)) {
		return 0, pastScheduleRejection(existing)
	}

	if scope != models.ScopeFuture {
		if existing.Kind == models.KindSeriesRoot {
			promoted, err := e.store.PromoteNextOccurrence(ctx, existing.ID)
			if err != nil {
				return 0, fmt.Errorf("failed to promote next occurrence: %w", err)
			}
			if promoted != nil {
				logger.Info().
					Int64("scheduleId", existing.ID).
					Int64("newRootId", promoted.ID).
					Msg("Series root handed over to next occurrence")
			}
		}
		if err := e.store.DeleteSchedule(ctx, existing.ID); err != nil {
			return 0, fmt.Errorf("failed to delete schedule: %w", err)
		}
		return 1, nil
	}

	if !existing.InSeries() {
		return 0, apperrors.NewCustomError(apperrors.ErrInvalidScope, "only bookings that belong to a weekly series can be deleted with scope=future")
	}

	count, err := e.store.DeleteSchedulesWhere(ctx, existing.SeriesID(), now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete series: %w", err)
	}
	if existing.Kind == models.KindSeriesRoot || existing.StartTime.Before(now) {
		if err := e.store.DeleteSchedule(ctx, existing.ID); err != nil {
			return 0, fmt.Errorf("failed to delete schedule: %w", err)
		}
		count++
	}

	logger.Info().
		Int64("scheduleId", existing.ID).
		Int64("seriesId", existing.SeriesID()).
		Int64("deleted", count).
		Msg("Series deleted from schedule onwards")
	return count, nil
}
