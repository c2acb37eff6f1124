package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorhub/backoffice/internal/app/repositories"
	"github.com/tutorhub/backoffice/internal/app/scheduling"
	"github.com/tutorhub/backoffice/internal/db"
	"github.com/tutorhub/backoffice/internal/pkg/dberrors"
	"github.com/tutorhub/backoffice/internal/pkg/logger"
)

// ErrTooManyRetries is returned when a transaction keeps failing with serialization
// conflicts.
var ErrTooManyRetries = errors.New("transaction retried too many times")

// UnitOfWorkFn receives a Store and Profile bound to one transaction.
type UnitOfWorkFn func(ctx context.Context, store scheduling.Store, profile scheduling.Profile) error

// UnitOfWork runs scheduling work atomically. Capacity and conflict counts taken inside fn
// are consistent with the writes fn makes.
type UnitOfWork interface {
	Run(ctx context.Context, fn UnitOfWorkFn) error
}

// pgUnitOfWork runs fn in a SERIALIZABLE transaction and re-runs it when Postgres aborts
// the transaction because a concurrent booking invalidated its reads.
type pgUnitOfWork struct {
	pool       *pgxpool.Pool
	repos      *repositories.Repositories
	maxRetries int
	backoff    time.Duration
}

// NewUnitOfWork creates the Postgres unit of work.
func NewUnitOfWork(pool *pgxpool.Pool, repos *repositories.Repositories, maxRetries int) UnitOfWork {
	return &pgUnitOfWork{pool: pool, repos: repos, maxRetries: maxRetries, backoff: 20 * time.Millisecond}
}

func (u *pgUnitOfWork) Run(ctx context.Context, fn UnitOfWorkFn) error {
	opts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	return retryTx(ctx, u.maxRetries, u.backoff, func() error {
		return db.WithTxOptions(ctx, u.pool, opts, func(ctx context.Context, tx pgx.Tx) error {
			txRepos := u.repos.WithTx(tx)
			return fn(ctx, txRepos.Schedules, txRepos.Students)
		})
	})
}

// retryTx calls run until it succeeds, fails with a non-retryable error, or has been
// retried maxRetries times. The wait doubles after every attempt.
func retryTx(ctx context.Context, maxRetries int, backoff time.Duration, run func() error) error {
	wait := backoff
	for attempt := 0; ; attempt++ {
		err := run()
		if err == nil || !dberrors.IsRetryable(err) {
			return err
		}
		if attempt >= maxRetries {
			logger.Error().Err(err).Int("attempts", attempt+1).Msg("Giving up on conflicting transaction")
			return errors.Join(ErrTooManyRetries, err)
		}

		logger.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", wait).Msg("Retrying conflicting transaction")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}
