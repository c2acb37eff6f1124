// Package services holds the application services the controllers call.
//
// Services defined in this package:
//   - ScheduleService: booking, rescheduling and cancelling classes, capacity previews
//     and calendar export
//   - SettingService: per-organization capacity configuration
//   - UnitOfWork: runs scheduling work inside a retried SERIALIZABLE transaction
package services

import (
	"github.com/tutorhub/backoffice/internal/app/repositories"
	"github.com/tutorhub/backoffice/internal/app/scheduling"
)

var (
	_ scheduling.Store    = (*repositories.ScheduleRepository)(nil)
	_ scheduling.Settings = (*repositories.SettingRepository)(nil)
	_ scheduling.Settings = (*repositories.CachedSettings)(nil)
	_ scheduling.Profile  = (*repositories.StudentRepository)(nil)
	_ ScheduleReader      = (*repositories.ScheduleRepository)(nil)
	_ SettingStore        = (*repositories.SettingRepository)(nil)
	_ SettingCache        = (*repositories.CachedSettings)(nil)
)
