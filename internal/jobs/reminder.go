// Package jobs runs the periodic background work of the service.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
	"github.com/tutorhub/backoffice/internal/pkg/logger"
)

// UpcomingSchedules lists schedules starting in [from, to).
type UpcomingSchedules interface {
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]*models.Schedule, error)
}

// Notifier delivers a class reminder. Delivery channels live outside this service.
type Notifier interface {
	NotifyUpcoming(ctx context.Context, s *models.Schedule) error
}

// LogNotifier writes reminders to the log. It is the default when no delivery channel
// is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyUpcoming(_ context.Context, s *models.Schedule) error {
	logger.Info().
		Int64("scheduleId", s.ID).
		Int64("organizationId", s.OrganizationID).
		Int64("studentId", s.StudentID).
		Str("date", kst.DateKey(s.StartTime)).
		Str("startTime", kst.TimeOfDayOf(s.StartTime).String()).
		Msg("Class reminder")
	return nil
}

// ReminderResult summarizes one run.
type ReminderResult struct {
	Date   kst.Date
	Sent   int
	Failed int
}

// ReminderJob notifies students about the classes they have on the next KST day.
type ReminderJob struct {
	schedules   UpcomingSchedules
	notifier    Notifier
	clock       kst.Clock
	concurrency int
}

// NewReminderJob creates a ReminderJob. concurrency bounds in-flight notifications.
func NewReminderJob(schedules UpcomingSchedules, notifier Notifier, clock kst.Clock, concurrency int) *ReminderJob {
	if clock == nil {
		clock = time.Now
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &ReminderJob{schedules: schedules, notifier: notifier, clock: clock, concurrency: concurrency}
}

// Run sends one reminder per schedule starting tomorrow (KST). A failed notification does
// not stop the others; the result counts both.
func (j *ReminderJob) Run(ctx context.Context) (ReminderResult, error) {
	tomorrow := kst.DateOf(kst.StartOfDay(j.clock()).AddDate(0, 0, 1))
	from := tomorrow.Start()
	to := from.AddDate(0, 0, 1)
	result := ReminderResult{Date: tomorrow}

	upcoming, err := j.schedules.ListStartingBetween(ctx, from, to)
	if err != nil {
		return result, fmt.Errorf("failed to list upcoming schedules: %w", err)
	}

	var sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, s := range upcoming {
		g.Go(func() error {
			if err := j.notifier.NotifyUpcoming(gctx, s); err != nil {
				failed.Add(1)
				logger.Warn().Err(err).Int64("scheduleId", s.ID).Msg("Failed to send class reminder")
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	err = g.Wait()

	result.Sent = int(sent.Load())
	result.Failed = int(failed.Load())
	logger.Info().
		Str("date", tomorrow.String()).
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Msg("Class reminders sent")
	return result, err
}

// Scheduler runs the reminder job on a cron spec evaluated in KST.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers job under spec. timeout bounds a single run.
func NewScheduler(spec string, job *ReminderJob, timeout time.Duration) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(kst.Location()),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := job.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("Reminder job failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reminder cron spec %q: %w", spec, err)
	}
	return &Scheduler{cron: c}, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info().Int("entries", len(s.cron.Entries())).Msg("Job scheduler started")
}

// Stop stops scheduling and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
