package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Backend names a supported SQL engine.
type Backend string

const (
	SQLite   Backend = "sqlite"
	Postgres Backend = "postgres"
	MySQL    Backend = "mysql"
)

const tableName = "traffic_logs"

// Store appends traffic observations to the traffic_logs table.
type Store struct {
	db      *sql.DB
	backend Backend
}

// New prepares a connection pool without contacting the database, so an
// unreachable server only surfaces on first use. Errors wrap domain.ErrConfig:
// an unsupported backend, a malformed dsn, or a SQLite directory that cannot be
// created. For SQLite the dsn is a file path.
func New(backend Backend, dsn string) (*Store, error) {
	driverName, err := driverFor(backend)
	if err != nil {
		return nil, err
	}

	if backend == SQLite {
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%w: create database directory %s: %w", domain.ErrConfig, dir, err)
			}
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s database: %w", domain.ErrConfig, backend, err)
	}
	if backend == SQLite {
		// One writer at a time avoids "database is locked" under concurrent appends.
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db, backend: backend}, nil
}

// Open is New followed by a ping. A failed ping wraps domain.ErrStore.
func Open(ctx context.Context, backend Backend, dsn string) (*Store, error) {
	s, err := New(backend, dsn)
	if err != nil {
		return nil, err
	}
	if err := s.db.PingContext(ctx); err != nil {
		_ = s.db.Close()
		return nil, fmt.Errorf("%w: connect to %s database: %w", domain.ErrStore, backend, err)
	}
	return s, nil
}

func driverFor(backend Backend) (string, error) {
	switch backend {
	case SQLite:
		return "sqlite", nil
	case Postgres:
		return "pgx", nil
	case MySQL:
		return "mysql", nil
	default:
		return "", fmt.Errorf("%w: unsupported store backend %q", domain.ErrConfig, backend)
	}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates traffic_logs if it does not exist, using the same
// statement as the first migration.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migrationStatement("up")); err != nil {
		return fmt.Errorf("%w: create %s: %w", domain.ErrStore, tableName, err)
	}
	return nil
}

// Reset drops traffic_logs and recreates it empty. All stored observations
// are lost.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migrationStatement("down")); err != nil {
		return fmt.Errorf("%w: drop %s: %w", domain.ErrStore, tableName, err)
	}
	return s.EnsureSchema(ctx)
}

// Append writes obs as one row in its own transaction. An observation missing
// either traffic value is skipped without touching the database. The
// engine-generated anomaly is checked against live - historical where the
// backend can return it.
func (s *Store) Append(ctx context.Context, obs domain.Observation) (domain.AppendResult, error) {
	rec, ok := obs.Record()
	if !ok {
		return domain.AppendResult{Skipped: true}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.AppendResult{}, fmt.Errorf("%w: begin: %w", domain.ErrStore, err)
	}
	defer func() { _ = tx.Rollback() }()

	args := []any{rec.Pizzeria, rec.Timestamp, rec.DayOfWeek, rec.Hour, rec.LiveTraffic, rec.HistoricalTraffic}
	if s.supportsReturning() {
		var stored int
		if err := tx.QueryRowContext(ctx, s.insertQuery()+" RETURNING anomaly", args...).Scan(&stored); err != nil {
			return domain.AppendResult{}, fmt.Errorf("%w: insert %s: %w", domain.ErrStore, rec.Pizzeria, err)
		}
		if stored != rec.Anomaly {
			return domain.AppendResult{}, fmt.Errorf("%w: stored anomaly %d for %s, expected %d", domain.ErrStore, stored, rec.Pizzeria, rec.Anomaly)
		}
	} else if _, err := tx.ExecContext(ctx, s.insertQuery(), args...); err != nil {
		return domain.AppendResult{}, fmt.Errorf("%w: insert %s: %w", domain.ErrStore, rec.Pizzeria, err)
	}

	if err := tx.Commit(); err != nil {
		return domain.AppendResult{}, fmt.Errorf("%w: commit: %w", domain.ErrStore, err)
	}
	return domain.AppendResult{Record: rec}, nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) supportsReturning() bool {
	return s.backend != MySQL
}

func (s *Store) insertQuery() string {
	if s.backend == Postgres {
		return `INSERT INTO traffic_logs (pizzeria, timestamp, day_of_week, hour, live_traffic, historical_traffic)
VALUES ($1, $2, $3, $4, $5, $6)`
	}
	return `INSERT INTO traffic_logs (pizzeria, timestamp, day_of_week, hour, live_traffic, historical_traffic)
VALUES (?, ?, ?, ?, ?, ?)`
}
