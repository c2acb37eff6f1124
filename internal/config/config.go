package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	// JWT tokens are issued by the external auth service; this service only verifies them.
	JWT struct {
		Secret string `yaml:"secret" env:"JWT_SECRET"`
		Issuer string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	// Redis caches organization settings. An empty Addr disables the cache.
	Redis struct {
		Addr        string        `yaml:"addr" env:"REDIS_ADDR"`
		Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
		DB          int           `yaml:"db" env:"REDIS_DB"`
		SettingsTTL time.Duration `yaml:"settings_ttl" env:"REDIS_SETTINGS_TTL"`
	} `yaml:"redis"`

	Scheduling struct {
		DefaultMaxConcurrentStudents int `yaml:"default_max_concurrent_students" env:"SCHEDULING_DEFAULT_MAX_CONCURRENT_STUDENTS"`
		OpenNextMonthDay             int `yaml:"open_next_month_day" env:"SCHEDULING_OPEN_NEXT_MONTH_DAY"`
		MaxOccurrences               int `yaml:"max_occurrences" env:"SCHEDULING_MAX_OCCURRENCES"`
		MaxTxRetries                 int `yaml:"max_tx_retries" env:"SCHEDULING_MAX_TX_RETRIES"`
	} `yaml:"scheduling"`

	Reminder struct {
		Enabled bool `yaml:"enabled" env:"REMINDER_ENABLED"`
		// Cron is a standard five-field spec evaluated in KST.
		Cron string `yaml:"cron" env:"REMINDER_CRON"`
		// Concurrency bounds how many notifications are sent at once.
		Concurrency int `yaml:"concurrency" env:"REMINDER_CONCURRENCY"`
	} `yaml:"reminder"`

	// SMTP delivers reminder emails. An empty Host keeps reminders in the log.
	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		UseTLS    bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
	} `yaml:"smtp"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load default config with sane defaults
	config := &Config{}
	setDefaults(config)

	// Try to read config file if it exists
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	err := loadFromEnv(config)
	if err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	// Database defaults
	config.Database.Driver = "postgres"
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "backoffice"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	config.JWT.Issuer = "tutorhub.auth"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Redis.SettingsTTL = 5 * time.Minute

	config.Scheduling.DefaultMaxConcurrentStudents = 3
	config.Scheduling.OpenNextMonthDay = 25
	config.Scheduling.MaxOccurrences = 520
	config.Scheduling.MaxTxRetries = 3

	config.Reminder.Enabled = true
	config.Reminder.Cron = "0 18 * * *"
	config.Reminder.Concurrency = 4

	config.SMTP.Port = 587
	config.SMTP.FromName = "Tutoring Back Office"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	// Recursively process the config structure and look for env tags
	err := processStructFields(config)
	if err != nil {
		return err
	}

	return nil
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	// Ensure required fields are set
	if config.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid database connection max lifetime: %w", err)
	}

	sched := config.Scheduling
	if sched.DefaultMaxConcurrentStudents < 1 {
		return fmt.Errorf("scheduling.default_max_concurrent_students must be at least 1")
	}
	if sched.OpenNextMonthDay < 1 || sched.OpenNextMonthDay > 28 {
		return fmt.Errorf("scheduling.open_next_month_day must be between 1 and 28")
	}
	if sched.MaxOccurrences < 1 {
		return fmt.Errorf("scheduling.max_occurrences must be at least 1")
	}
	if sched.MaxTxRetries < 0 {
		return fmt.Errorf("scheduling.max_tx_retries must not be negative")
	}

	if config.Reminder.Enabled && strings.TrimSpace(config.Reminder.Cron) == "" {
		return fmt.Errorf("reminder.cron is required when reminders are enabled")
	}
	if config.Reminder.Concurrency < 1 {
		return fmt.Errorf("reminder.concurrency must be at least 1")
	}
	if config.SMTP.Host != "" && config.SMTP.FromEmail == "" {
		return fmt.Errorf("smtp.from_email is required when smtp.host is set")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
