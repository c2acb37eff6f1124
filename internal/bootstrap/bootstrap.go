package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/tutorhub/backoffice/internal/app/controllers"
	appMigrations "github.com/tutorhub/backoffice/internal/app/migrations"
	appRepos "github.com/tutorhub/backoffice/internal/app/repositories"
	appRoutes "github.com/tutorhub/backoffice/internal/app/routes"
	"github.com/tutorhub/backoffice/internal/app/scheduling"
	appServices "github.com/tutorhub/backoffice/internal/app/services"
	"github.com/tutorhub/backoffice/internal/config"
	"github.com/tutorhub/backoffice/internal/db"
	"github.com/tutorhub/backoffice/internal/jobs"
	appMiddleware "github.com/tutorhub/backoffice/internal/middleware"
	pkgAuth "github.com/tutorhub/backoffice/internal/pkg/auth"
	"github.com/tutorhub/backoffice/internal/pkg/email"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
	"github.com/tutorhub/backoffice/internal/pkg/logger"
	"github.com/tutorhub/backoffice/internal/seed"
	"github.com/tutorhub/backoffice/migrations"
)

// reminderRunTimeout bounds one scheduled reminder run.
const reminderRunTimeout = 5 * time.Minute

// Dependencies holds all the application dependencies
type Dependencies struct {
	ScheduleService    appServices.ScheduleService
	SettingService     appServices.SettingService
	ScheduleController *appControllers.ScheduleController
	SettingController  *appControllers.SettingController
	AuthMiddleware     *appMiddleware.AuthMiddleware
	Repos              *appRepos.Repositories
	JWTService         *pkgAuth.JWTService
	ReminderJob        *jobs.ReminderJob
	Logger             zerolog.Logger
}

// LoadEnvFile loads variables from .env into the process environment when the file
// exists. Variables already set win.
func LoadEnvFile(lgr zerolog.Logger) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			lgr.Warn().Err(err).Msg("Failed to read .env file")
		}
		return
	}
	lgr.Info().Msg("Loaded environment from .env")
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	LoadEnvFile(log.Logger)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.Config{
		Level:    cfg.Logging.Level,
		Format:   logger.Format(strings.ToLower(cfg.Logging.Format)),
		Location: kst.Location(),
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(pingCtx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return dbPool, nil
}

// RunMigrations applies the embedded schema and creates default data.
func RunMigrations(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	lgr.Info().Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(dbPool, migrations.FS).Migrate(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")

	settings := appRepos.NewSettingRepository(dbPool, cfg.Scheduling.DefaultMaxConcurrentStudents)
	if err := seed.CreateDefaultData(ctx, settings, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}
	return nil
}

// EngineConfig maps the scheduling section of cfg onto the engine's settings.
func EngineConfig(cfg *config.Config) scheduling.Config {
	return scheduling.Config{
		OpenNextMonthDay: cfg.Scheduling.OpenNextMonthDay,
		MaxOccurrences:   cfg.Scheduling.MaxOccurrences,
	}
}

// NewJWTService builds the token verifier from cfg.
func NewJWTService(cfg *config.Config) *pkgAuth.JWTService {
	return pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		TokenIssuer: cfg.JWT.Issuer,
	})
}

// BuildDependencies initializes application repositories, services, and controllers.
// cache may be nil.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, cache *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool, cache, cfg)
	deps.JWTService = NewJWTService(cfg)

	uow := appServices.NewUnitOfWork(dbPool, deps.Repos, cfg.Scheduling.MaxTxRetries)
	deps.ScheduleService = appServices.NewScheduleService(
		uow,
		deps.Repos.ScheduleRepository,
		deps.Repos.Settings,
		time.Now,
		EngineConfig(cfg),
	)
	deps.SettingService = appServices.NewSettingService(deps.Repos.SettingRepository, deps.Repos.Settings)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.ScheduleController = appControllers.NewScheduleController(deps.ScheduleService)
	deps.SettingController = appControllers.NewSettingController(deps.SettingService)

	deps.ReminderJob = jobs.NewReminderJob(deps.Repos.ScheduleRepository, NewNotifier(cfg, deps.Repos, lgr), time.Now, cfg.Reminder.Concurrency)

	return deps, nil
}

// NewNotifier emails reminders when SMTP is configured and logs them otherwise.
func NewNotifier(cfg *config.Config, repos *appRepos.Repositories, lgr zerolog.Logger) jobs.Notifier {
	smtpCfg := email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
	}
	if !smtpCfg.Enabled() {
		lgr.Warn().Msg("SMTP not configured - class reminders will only be logged")
		return jobs.LogNotifier{}
	}
	return email.NewReminderMailer(repos.StudentRepository, email.NewSMTPSender(smtpCfg, lgr), lgr)
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger())

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router,
		deps.ScheduleController,
		deps.SettingController,
		deps.AuthMiddleware,
	)

	return router
}

// SetupScheduler registers the reminder job. It returns nil when reminders are disabled.
func SetupScheduler(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*jobs.Scheduler, error) {
	if !cfg.Reminder.Enabled {
		lgr.Info().Msg("Class reminders disabled")
		return nil, nil
	}
	scheduler, err := jobs.NewScheduler(cfg.Reminder.Cron, deps.ReminderJob, reminderRunTimeout)
	if err != nil {
		return nil, err
	}
	lgr.Info().Str("cron", cfg.Reminder.Cron).Msg("Class reminders scheduled (KST)")
	return scheduler, nil
}
