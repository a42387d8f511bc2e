package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const initialMigration = "migrations/1_create_traffic_logs.%s.sql"

func migrationStatement(direction string) string {
	b, err := migrationsFS.ReadFile(fmt.Sprintf(initialMigration, direction))
	if err != nil {
		panic(fmt.Sprintf("embedded migration missing: %v", err))
	}
	return string(b)
}

// Migrate applies the embedded migrations.
//   - targetVersion < 0 migrates to the latest version.
//   - targetVersion == 0 rolls every migration back.
//   - targetVersion > 0 migrates to that version.
func (s *Store) Migrate(ctx context.Context, targetVersion int, logger *slog.Logger) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping %s database: %w", domain.ErrStore, s.backend, err)
	}

	driver, err := s.migrateDriver()
	if err != nil {
		return fmt.Errorf("%w: create %s migrate driver: %w", domain.ErrStore, s.backend, err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("access migrations directory: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(s.backend), driver)
	if err != nil {
		return fmt.Errorf("%w: create migrate instance: %w", domain.ErrStore, err)
	}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("%w: read migration version: %w", domain.ErrStore, err)
	}
	if dirty {
		return fmt.Errorf("%w: database is dirty at version %d, fix manually or force the version", domain.ErrStore, current)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("schema already at requested version", "version", current)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: migrate: %w", domain.ErrStore, err)
	}

	next, _, _ := m.Version()
	logger.Info("schema migrated", "from", current, "to", next)
	return nil
}

func (s *Store) migrateDriver() (database.Driver, error) {
	switch s.backend {
	case SQLite:
		return migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	case Postgres:
		return migratepgx.WithInstance(s.db, &migratepgx.Config{})
	case MySQL:
		return migratemysql.WithInstance(s.db, &migratemysql.Config{})
	default:
		return nil, fmt.Errorf("unsupported store backend %q", s.backend)
	}
}
