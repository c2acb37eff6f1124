package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/bootstrap"
	"github.com/tutorhub/backoffice/internal/db"
	"github.com/tutorhub/backoffice/internal/jobs"
	"github.com/tutorhub/backoffice/internal/pkg/logger"
	"github.com/tutorhub/backoffice/internal/server"
)

// @title Tutoring Back Office API
// @version 1.0
// @description Class booking and scheduling for tutoring organizations. All times are Korea Standard Time.

// @contact.name API Support
// @contact.email support@tutorhub.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	app := &cli.App{
		Name:  "backoffice",
		Usage: "tutoring back office API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/config.yaml",
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run migrations and start the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations and exit",
				Action: migrate,
			},
			{
				Name:   "remind",
				Usage:  "send reminders for tomorrow's classes once and exit",
				Action: remind,
			},
			{
				Name:  "token",
				Usage: "issue a signed access token for local testing",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "user", Value: 1, Usage: "user id"},
					&cli.Int64Flag{Name: "org", Value: 1, Usage: "organization id"},
					&cli.StringFlag{Name: "role", Value: string(models.RoleAdmin), Usage: "ADMIN or STUDENT"},
					&cli.Int64Flag{Name: "student", Usage: "student id, required for STUDENT"},
					&cli.DurationFlag{Name: "ttl", Value: time.Hour, Usage: "token lifetime"},
				},
				Action: issueToken,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	srv, err := server.NewServer(c.Context, c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	// Run blocks until shutdown signal
	if err := srv.Run(); err != nil {
		return err
	}

	logger.Info().Msg("Application finished gracefully.")
	return nil
}

func migrate(c *cli.Context) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(c.String("config"))
	if err != nil {
		return err
	}
	pool, err := bootstrap.SetupDatabase(c.Context, cfg, lgr)
	if err != nil {
		return err
	}
	defer pool.Close()

	return bootstrap.RunMigrations(c.Context, cfg, pool, lgr)
}

func remind(c *cli.Context) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(c.String("config"))
	if err != nil {
		return err
	}
	pool, err := bootstrap.SetupDatabase(c.Context, cfg, lgr)
	if err != nil {
		return err
	}
	defer pool.Close()

	cache := db.NewRedisClient(cfg)
	if cache != nil {
		defer cache.Close()
	}

	deps, err := bootstrap.BuildDependencies(cfg, pool, cache, lgr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 5*time.Minute)
	defer cancel()

	result, err := deps.ReminderJob.Run(ctx)
	if err != nil {
		return err
	}
	return printReminderResult(c, result)
}

func printReminderResult(c *cli.Context, result jobs.ReminderResult) error {
	_, err := fmt.Fprintf(c.App.Writer, "%s: %d sent, %d failed\n", result.Date, result.Sent, result.Failed)
	return err
}

func issueToken(c *cli.Context) error {
	cfg, _, err := bootstrap.LoadConfigAndSetupLogger(c.String("config"))
	if err != nil {
		return err
	}

	role := models.RoleType(strings.ToUpper(c.String("role")))
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", c.String("role"))
	}
	studentID := c.Int64("student")
	if role == models.RoleStudent && studentID <= 0 {
		return fmt.Errorf("--student is required for STUDENT tokens")
	}

	token, err := bootstrap.NewJWTService(cfg).GenerateAccessToken(
		c.Int64("user"), c.Int64("org"), role, studentID, c.Duration("ttl"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, token)
	return err
}
