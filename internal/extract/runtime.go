package extract

import (
	"context"
	"errors"

	"github.com/spherical/ecg-extractor/internal/cache"
	"github.com/spherical/ecg-extractor/internal/config"
	"github.com/spherical/ecg-extractor/internal/domain"
	"github.com/spherical/ecg-extractor/internal/ecg"
	"github.com/spherical/ecg-extractor/internal/observability"
	"github.com/spherical/ecg-extractor/internal/pdf"
	"github.com/spherical/ecg-extractor/internal/storage"
)

// Runtime is a Service wired to the cache and record store named in a
// configuration.
type Runtime struct {
	Service *Service
	Batch   *BatchProcessor

	closers []func() error
}

// NewRuntime builds the service graph for cfg. failFast applies to batches.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *observability.Logger, failFast bool) (*Runtime, error) {
	if logger == nil {
		logger = observability.Nop()
	}
	mode, err := ecg.ModeByName(cfg.Extraction.Mode)
	if err != nil {
		return nil, err
	}

	svc := NewService(pdf.NewLoader(), Options{
		Mode:          mode,
		UpsampleTo:    domain.Frequency(cfg.Extraction.UpsampleTo),
		ParseMetadata: cfg.Extraction.ParseMetadata,
		WriteSidecar:  cfg.Extraction.WriteSidecar,
	}, logger)
	rt := &Runtime{Service: svc}

	frames, err := newFrameCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	if frames != nil {
		svc.SetCache(frames)
		rt.closers = append(rt.closers, frames.Close)
		logger.Debug().Str("driver", cfg.Cache.Driver).Msg("Frame cache enabled")
	}

	if cfg.Database.Driver != "none" {
		opts := storage.Options{JournalMode: cfg.Database.SQLite.JournalMode}
		if cfg.Database.Driver == storage.DriverSQLite {
			opts.MaxOpenConns = cfg.Database.SQLite.MaxOpenConns
		} else {
			opts.MaxOpenConns = cfg.Database.Postgres.MaxOpenConns
			opts.MaxIdleConns = cfg.Database.Postgres.MaxIdleConns
			opts.ConnMaxLifetime = cfg.Database.Postgres.ConnMaxLifetime
		}
		db, err := storage.Open(ctx, cfg.Database.Driver, cfg.DatabaseDSN(), opts)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		svc.SetStore(storage.NewRecordRepository(db))
		rt.closers = append(rt.closers, db.Close)
		logger.Debug().Str("driver", cfg.Database.Driver).Msg("Record store enabled")
	}

	rt.Batch = NewBatchProcessor(svc, cfg.Extraction.Workers, failFast)
	return rt, nil
}

func newFrameCache(ctx context.Context, cfg config.CacheConfig) (*cache.FrameCache, error) {
	switch cfg.Driver {
	case "memory":
		return cache.NewFrameCache(cache.NewMemoryClient(cfg.MaxEntries), cfg.TTL), nil
	case "redis":
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, domain.ConfigError("connect to redis", err)
		}
		return cache.NewFrameCache(client, cfg.TTL), nil
	}
	return nil, nil
}

// Close releases the cache and database in reverse order of creation.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
