package repositories

import (
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tutorhub/backoffice/internal/config"
)

// Repositories holds all the repository instances
type Repositories struct {
	ScheduleRepository *ScheduleRepository
	SettingRepository  *SettingRepository
	StudentRepository  *StudentRepository
	Settings           *CachedSettings
}

// NewRepositories initializes all repositories
func NewRepositories(pool *pgxpool.Pool, cache *redis.Client, cfg *config.Config) *Repositories {
	settings := NewSettingRepository(pool, cfg.Scheduling.DefaultMaxConcurrentStudents)
	return &Repositories{
		ScheduleRepository: NewScheduleRepository(pool),
		SettingRepository:  settings,
		StudentRepository:  NewStudentRepository(pool),
		Settings:           NewCachedSettings(settings, cache, cfg.Redis.SettingsTTL),
	}
}

// TxRepositories are the repositories the scheduling engine uses inside one transaction.
type TxRepositories struct {
	Schedules *ScheduleRepository
	Students  *StudentRepository
}

// WithTx binds the transactional repositories to tx. Settings stay outside the
// transaction; they are owned by another service and cached.
func (r *Repositories) WithTx(tx pgx.Tx) TxRepositories {
	return TxRepositories{
		Schedules: r.ScheduleRepository.WithTx(tx),
		Students:  NewStudentRepository(tx),
	}
}
