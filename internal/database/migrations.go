package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// MigrationRunner applies the SQL files under migrations/ to the Postgres feedback store.
type MigrationRunner struct {
	m   *migrate.Migrate
	log *logrus.Logger
}

func NewMigrationRunner(databaseURL, migrationsPath string, logger *logrus.Logger) (*MigrationRunner, error) {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating migration instance: %w", err)
	}
	return &MigrationRunner{m: m, log: logger}, nil
}

// Up applies every pending migration.
func (r *MigrationRunner) Up() error {
	return r.apply("up", r.m.Up)
}

// Down reverts the most recent migration.
func (r *MigrationRunner) Down() error {
	return r.apply("down", func() error { return r.m.Steps(-1) })
}

// apply runs one migrate operation. ErrNoChange is not a failure.
func (r *MigrationRunner) apply(direction string, op func() error) error {
	entry := r.log.WithField("direction", direction)
	entry.Info("Applying feedback schema migrations")

	err := op()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		entry.Info("Feedback schema already current")
		return nil
	case err != nil:
		return fmt.Errorf("migrating %s: %w", direction, err)
	}

	version, dirty, verr := r.m.Version()
	if verr != nil {
		entry.WithError(verr).Warn("Migration applied but version is unreadable")
		return nil
	}
	entry.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Feedback schema migrated")
	return nil
}

// Version reports the applied schema version and whether the last run left it dirty.
func (r *MigrationRunner) Version() (uint, bool, error) {
	return r.m.Version()
}

func (r *MigrationRunner) Close() error {
	srcErr, dbErr := r.m.Close()
	return errors.Join(srcErr, dbErr)
}
