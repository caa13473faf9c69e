// Package config defines process configuration and its loading hooks.
//
// Conventions:
//   - New returns a Config populated with defaults.
//   - Load layers a YAML file and APPLYFLOW_ environment variables on top.
//   - Errors are wrapped with ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"time"

	"github.com/okian/applyflow/internal/adapters/collector"
	"github.com/okian/applyflow/internal/adapters/notify"
	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogJSON switches the log encoder to JSON.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// DatabaseURL selects the store: a sqlite:// URL or .db path for SQLite,
	// a postgres:// URL for Postgres, empty for the in-memory store.
	DatabaseURL string `koanf:"database_url"`

	// RedisURL enables the Redis event publisher when set.
	RedisURL     string `koanf:"redis_url"`
	RedisChannel string `koanf:"redis_channel" validate:"required"`

	// Schedule is a cron expression for periodic ingestion. Empty disables it.
	Schedule   string `koanf:"schedule"`
	RunOnStart bool   `koanf:"run_on_start"`

	// QueueSize bounds the in-memory event queue.
	QueueSize int `koanf:"queue_size" validate:"gt=0"`

	// EventWorkers is the number of goroutines draining the event queue.
	EventWorkers int `koanf:"event_workers" validate:"gt=0"`

	// HTTPTimeout is the per-request timeout of outbound collector calls.
	HTTPTimeout time.Duration `koanf:"http_timeout" validate:"gt=0"`

	// RequestDelay is the pause between consecutive outbound calls.
	RequestDelay time.Duration `koanf:"request_delay" validate:"gte=0"`

	// ShutdownTimeout bounds graceful shutdown of the HTTP server and workers.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	Greenhouse GreenhouseConfig       `koanf:"greenhouse"`
	Adzuna     collector.AdzunaConfig `koanf:"adzuna"`
	Weights    scoring.Weights        `koanf:"weights"`

	// Profile is the candidate postings are scored against. A zero profile
	// means the built-in default.
	Profile model.CandidateProfile `koanf:"profile"`

	// Vocabulary replaces the built-in skill vocabulary when non-empty.
	Vocabulary []string `koanf:"vocabulary"`
}

// GreenhouseConfig selects the boards polled on Greenhouse.
type GreenhouseConfig struct {
	Companies []string `koanf:"companies"`
	Keywords  []string `koanf:"keywords"`
	BaseURL   string   `koanf:"base_url" validate:"omitempty,url"`
}

// DefaultDatabaseURL is the SQLite file used when no database_url is set.
const DefaultDatabaseURL = "sqlite://data/applyflow.db"

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":8080",
		DatabaseURL:     DefaultDatabaseURL,
		Schedule:        "@every 6h",
		RedisChannel:    notify.DefaultChannel,
		QueueSize:       1024,
		EventWorkers:    2,
		HTTPTimeout:     10 * time.Second,
		RequestDelay:    500 * time.Millisecond,
		ShutdownTimeout: 15 * time.Second,
		Greenhouse: GreenhouseConfig{
			Companies: collector.DefaultGreenhouseCompanies(),
			Keywords:  collector.DefaultRelevanceKeywords(),
			BaseURL:   collector.DefaultGreenhouseBaseURL,
		},
		Adzuna:  collector.AdzunaConfig{Country: "us"},
		Weights: scoring.DefaultWeights(),
	}
}

// HasProfile reports whether a candidate profile was configured.
func (c *Config) HasProfile() bool {
	p := c.Profile
	return len(p.Skills) > 0 || p.ExperienceYears > 0 || len(p.Domains) > 0 || len(p.Certifications) > 0
}
