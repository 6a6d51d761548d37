package database

import (
	"errors"

	"github.com/CMSgov/scrub-app/conf"
	"github.com/CMSgov/scrub-app/log"
)

type Config struct {
	MaxOpenConns       int `conf:"SCRUB_DB_MAX_OPEN_CONNS" conf_default:"60"`
	MaxIdleConns       int `conf:"SCRUB_DB_MAX_IDLE_CONNS" conf_default:"40"`
	ConnMaxLifetimeMin int `conf:"SCRUB_DB_CONN_MAX_LIFETIME_MIN" conf_default:"5"`
	ConnMaxIdleTimeMin int `conf:"SCRUB_DB_CONN_MAX_IDLE_TIME" conf_default:"30"`
	ConnectRetries     int `conf:"SCRUB_DB_CONNECT_RETRIES" conf_default:"5"`

	DatabaseURL      string `conf:"DATABASE_URL"`
	QueueDatabaseURL string `conf:"QUEUE_DATABASE_URL"`

	MigrationsPath string `conf:"SCRUB_MIGRATIONS_PATH" conf_default:"file://db/migrations/scrub"`
}

func LoadConfig() (cfg *Config, err error) {
	cfg = &Config{}
	if err := conf.Checkout(cfg); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("invalid config, DatabaseURL must be set")
	}
	// The queue tables live alongside the scrub tables unless told otherwise.
	if cfg.QueueDatabaseURL == "" {
		cfg.QueueDatabaseURL = cfg.DatabaseURL
	}

	log.API.Info("Successfully loaded configuration for Database.")

	return cfg, nil
}
