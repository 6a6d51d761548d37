package database

import (
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"

	"github.com/CMSgov/scrub-app/log"
)

// Migrate applies every pending migration found at cfg.MigrationsPath.
// It returns the schema version the database ends at.
func Migrate(cfg *Config) (uint, error) {
	m, err := migrate.New(cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		return 0, errors.Wrap(err, "failed to initialize migrations")
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			log.API.Warnf("Failed to close migrator: source %v, database %v", srcErr, dbErr)
		}
	}()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return 0, errors.Wrap(err, "failed to apply migrations")
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return 0, errors.Wrap(err, "failed to read schema version")
	}
	if dirty {
		return version, errors.Errorf("schema version %d is dirty", version)
	}

	log.API.Infof("Database schema at version %d", version)
	return version, nil
}
