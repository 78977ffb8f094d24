package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/spherical/ecg-extractor/internal/domain"
)

func testRecord() *domain.Record {
	return &domain.Record{
		SourcePath: "/data/ecg/0001.svg",
		FileName:   "0001.svg",
		Mode:       "S",
		Frame: domain.Frame{
			Frequency:       domain.Frequency500,
			SourceFrequency: domain.Frequency250,
			Leads: []domain.LeadSignal{
				{Lead: domain.LeadRhythmII, Samples: []float64{0.5, -1, 2.25}},
				{Lead: domain.LeadI, Samples: []float64{1, 2}},
			},
		},
		Metadata: &domain.PatientRecord{
			PatientID:      "12345",
			StudyDate:      "2014-05-29",
			Gender:         "MALE",
			Interpretation: []string{"Sinus rhythm"},
		},
	}
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, ":memory:", Options{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func exerciseRepository(t *testing.T, repo *RecordRepository) {
	ctx := context.Background()

	rec := testRecord()
	require.NoError(t, repo.Save(ctx, rec))
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.SourcePath, got.SourcePath)
	assert.Equal(t, rec.FileName, got.FileName)
	assert.Equal(t, rec.Mode, got.Mode)
	assert.Equal(t, rec.Frame, got.Frame)
	assert.Equal(t, rec.Metadata, got.Metadata)
	assert.WithinDuration(t, rec.CreatedAt, got.CreatedAt, time.Millisecond)

	bare := testRecord()
	bare.Metadata = nil
	bare.CreatedAt = rec.CreatedAt.Add(time.Minute)
	require.NoError(t, repo.Save(ctx, bare))
	got, err = repo.Get(ctx, bare.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Metadata)

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, bare.ID, list[0].ID, "newest first")

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, rec.ID))
	assert.ErrorIs(t, repo.Delete(ctx, rec.ID), ErrNotFound)
}

func TestRecordRepository_SQLite(t *testing.T) {
	exerciseRepository(t, NewRecordRepository(openSQLite(t)))
}

func TestRecordRepository_DuplicateID(t *testing.T) {
	repo := NewRecordRepository(openSQLite(t))
	ctx := context.Background()

	rec := testRecord()
	require.NoError(t, repo.Save(ctx, rec))
	err := repo.Save(ctx, rec)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeStorage))
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(context.Background(), db, DriverSQLite))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x", Options{})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeStorage))
}

func TestSidecar(t *testing.T) {
	dir := t.TempDir()
	rec := testRecord()
	rec.ID = uuid.New()
	rec.SourcePath = filepath.Join(dir, "page.svg")

	path, err := WriteSidecar(rec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "page.json"), path)

	got, err := ReadSidecar(path)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Frame, got.Frame)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestSidecarPath(t *testing.T) {
	assert.Equal(t, "/a/b/c.json", SidecarPath("/a/b/c.pdf"))
	assert.Equal(t, "noext.json", SidecarPath("noext"))
}

func TestRecordRepository_Postgres(t *testing.T) {
	if testing.Short() || os.Getenv("ECG_INTEGRATION") == "" {
		t.Skip("set ECG_INTEGRATION to run container tests")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("ecg_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/ecg_test?sslmode=disable", host, port.Port())

	db, err := Open(ctx, DriverPostgres, dsn, Options{PingAttempts: 10, PingDelay: time.Second})
	require.NoError(t, err)
	defer db.Close()

	exerciseRepository(t, NewRecordRepository(db))
}
