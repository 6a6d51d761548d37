package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/CMSgov/scrub-app/log"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

// Connect opens a connection pool to DatabaseURL and waits for the database
// to accept connections, retrying with exponential backoff.
func Connect(ctx context.Context, cfg *Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMin) * time.Minute)
	db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMin) * time.Minute)

	if err := waitForDB(ctx, db, cfg.ConnectRetries, backoff.NewExponentialBackOff()); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func waitForDB(ctx context.Context, db pinger, retries int, b backoff.BackOff) error {
	if retries < 0 {
		retries = 0
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
	notify := func(err error, next time.Duration) {
		log.API.Warnf("Database not ready, retrying in %s: %s", next, err.Error())
	}

	if err := backoff.RetryNotify(func() error { return db.PingContext(ctx) }, policy, notify); err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	return nil
}
