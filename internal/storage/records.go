package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spherical/ecg-extractor/internal/domain"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("record not found")

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// RecordRepository stores records in the ecg_records table.
type RecordRepository struct {
	db DB
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db DB) *RecordRepository {
	return &RecordRepository{db: db}
}

var _ domain.RecordStore = (*RecordRepository)(nil)

// Save inserts record, assigning an ID and creation time if unset.
func (r *RecordRepository) Save(ctx context.Context, record *domain.Record) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	leads, err := json.Marshal(record.Frame.Leads)
	if err != nil {
		return domain.StorageError("marshal leads", err)
	}
	var meta []byte
	if record.Metadata != nil {
		if meta, err = json.Marshal(record.Metadata); err != nil {
			return domain.StorageError("marshal metadata", err)
		}
	}

	query := `
		INSERT INTO ecg_records (id, source_path, file_name, mode, frequency,
			source_frequency, leads, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.ExecContext(ctx, query,
		record.ID.String(), record.SourcePath, record.FileName, record.Mode,
		int(record.Frame.Frequency), int(record.Frame.SourceFrequency),
		string(leads), nullableJSON(meta), record.CreatedAt,
	)
	if err != nil {
		return domain.StorageError(fmt.Sprintf("insert record %s", record.ID), err)
	}
	return nil
}

// Get retrieves a record by ID.
func (r *RecordRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	query := `
		SELECT id, source_path, file_name, mode, frequency, source_frequency,
			leads, metadata, created_at
		FROM ecg_records WHERE id = $1
	`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, domain.StorageError(fmt.Sprintf("get record %s", id), err)
	}
	return rec, nil
}

// List returns the most recent records, newest first.
func (r *RecordRepository) List(ctx context.Context, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, source_path, file_name, mode, frequency, source_frequency,
			leads, metadata, created_at
		FROM ecg_records ORDER BY created_at DESC LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, domain.StorageError("list records", err)
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, domain.StorageError("scan record", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list records", err)
	}
	return out, nil
}

// Delete removes a record by ID.
func (r *RecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ecg_records WHERE id = $1`, id.String())
	if err != nil {
		return domain.StorageError(fmt.Sprintf("delete record %s", id), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*domain.Record, error) {
	var (
		rec         domain.Record
		id          string
		freq, src   int
		leads, meta []byte
	)
	err := s.Scan(&id, &rec.SourcePath, &rec.FileName, &rec.Mode, &freq, &src,
		&leads, &meta, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	rec.Frame.Frequency = domain.Frequency(freq)
	rec.Frame.SourceFrequency = domain.Frequency(src)
	if err := json.Unmarshal(leads, &rec.Frame.Leads); err != nil {
		return nil, fmt.Errorf("unmarshal leads: %w", err)
	}
	if len(meta) > 0 {
		rec.Metadata = &domain.PatientRecord{}
		if err := json.Unmarshal(meta, rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}

func nullableJSON(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return string(b)
}
