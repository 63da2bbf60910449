package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx5:// database driver
	_ "github.com/golang-migrate/migrate/v4/source/file"     // file:// source driver
)

// migrateURL rewrites the pool DSN onto the pgx migration driver scheme.
func migrateURL(dbURL string) string {
	if rest, ok := strings.CutPrefix(dbURL, "postgres://"); ok {
		return "pgx5://" + rest
	}
	return dbURL
}

// RunMigrations applies all pending migrations from migrationsPath
// (e.g. "file://migrations").  No pending migrations is not an error.
func RunMigrations(dbURL, migrationsPath string) error {
	m, err := migrate.New(migrationsPath, migrateURL(dbURL))
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// RollbackMigration rolls the schema back by steps.  Development use only.
func RollbackMigration(dbURL, migrationsPath string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0, got %d", steps)
	}
	m, err := migrate.New(migrationsPath, migrateURL(dbURL))
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("no migrations to roll back")
		}
		return fmt.Errorf("rollback %d step(s): %w", steps, err)
	}
	return nil
}

// MigrationStatus reports the current version and dirty flag.  A database
// with no applied migrations reports version 0, clean.
func MigrationStatus(dbURL, migrationsPath string) (version uint, dirty bool, err error) {
	m, err := migrate.New(migrationsPath, migrateURL(dbURL))
	if err != nil {
		return 0, false, fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get migration version: %w", err)
	}
	return version, dirty, nil
}
