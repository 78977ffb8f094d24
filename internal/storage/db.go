// Package storage persists processed ECG records.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/spherical/ecg-extractor/internal/domain"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options tune the connection pool and startup behaviour.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	JournalMode     string // sqlite only
	PingAttempts    uint
	PingDelay       time.Duration
}

func sqlDriverName(driver string) (string, error) {
	switch driver {
	case DriverSQLite:
		return "sqlite3", nil
	case DriverPostgres:
		return "postgres", nil
	}
	return "", domain.StorageError(fmt.Sprintf("unsupported database driver: %s", driver), nil)
}

// Open connects to the database, waits for it to answer and applies the
// schema.
func Open(ctx context.Context, driver, dsn string, opts Options) (*sql.DB, error) {
	name, err := sqlDriverName(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, domain.StorageError("open database", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	attempts := opts.PingAttempts
	if attempts == 0 {
		attempts = 5
	}
	delay := opts.PingDelay
	if delay == 0 {
		delay = 500 * time.Millisecond
	}
	err = retry.Do(
		func() error { return db.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		_ = db.Close()
		return nil, domain.StorageError("database did not answer", err)
	}

	if driver == DriverSQLite && opts.JournalMode != "" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode="+opts.JournalMode); err != nil {
			_ = db.Close()
			return nil, domain.StorageError("set journal mode", err)
		}
	}

	if err := Migrate(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

var schemas = map[string]string{
	DriverSQLite: `
		CREATE TABLE IF NOT EXISTS ecg_records (
			id               TEXT PRIMARY KEY,
			source_path      TEXT NOT NULL,
			file_name        TEXT NOT NULL,
			mode             TEXT NOT NULL,
			frequency        INTEGER NOT NULL,
			source_frequency INTEGER NOT NULL,
			leads            TEXT NOT NULL,
			metadata         TEXT,
			created_at       TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_ecg_records_file_name ON ecg_records (file_name);
	`,
	DriverPostgres: `
		CREATE TABLE IF NOT EXISTS ecg_records (
			id               UUID PRIMARY KEY,
			source_path      TEXT NOT NULL,
			file_name        TEXT NOT NULL,
			mode             TEXT NOT NULL,
			frequency        INTEGER NOT NULL,
			source_frequency INTEGER NOT NULL,
			leads            JSONB NOT NULL,
			metadata         JSONB,
			created_at       TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_ecg_records_file_name ON ecg_records (file_name);
	`,
}

// Migrate creates the schema if it does not exist.
func Migrate(ctx context.Context, db DB, driver string) error {
	schema, ok := schemas[driver]
	if !ok {
		return domain.StorageError(fmt.Sprintf("no schema for driver %s", driver), nil)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return domain.StorageError("apply schema", err)
	}
	return nil
}
