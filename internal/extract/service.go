// Package extract orchestrates page loading, waveform reconstruction,
// metadata parsing and persistence.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spherical/ecg-extractor/internal/cache"
	"github.com/spherical/ecg-extractor/internal/domain"
	"github.com/spherical/ecg-extractor/internal/ecg"
	"github.com/spherical/ecg-extractor/internal/metadata"
	"github.com/spherical/ecg-extractor/internal/observability"
	"github.com/spherical/ecg-extractor/internal/resample"
	"github.com/spherical/ecg-extractor/internal/storage"
)

// Options control what the Service does with each page.
type Options struct {
	Mode ecg.Mode
	// UpsampleTo is the output rate. Zero, or a rate at or below the page
	// rate, keeps the page rate.
	UpsampleTo    domain.Frequency
	ParseMetadata bool
	WriteSidecar  bool
}

// Service orchestrates the extraction of one page.
type Service struct {
	loader domain.PageLoader
	frames *cache.FrameCache
	store  domain.RecordStore
	opts   Options
	logger *observability.Logger
}

// NewService creates a new extraction service.
func NewService(loader domain.PageLoader, opts Options, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		loader: loader,
		opts:   opts,
		logger: logger.WithOperation("extract"),
	}
}

// SetCache enables frame caching. A nil cache disables it.
func (s *Service) SetCache(c *cache.FrameCache) {
	s.frames = c
}

// PurgeCache drops every cached frame. It is a no-op without a cache.
func (s *Service) PurgeCache(ctx context.Context) error {
	if err := s.frames.Purge(ctx); err != nil {
		return domain.IOError("purge frame cache", err)
	}
	s.logger.Info().Msg("Frame cache purged")
	return nil
}

// SetStore enables record persistence. A nil store disables it.
func (s *Service) SetStore(store domain.RecordStore) {
	s.store = store
}

// Mode returns the default page layout.
func (s *Service) Mode() ecg.Mode {
	return s.opts.Mode
}

// Store returns the configured record store, or nil.
func (s *Service) Store() domain.RecordStore {
	return s.store
}

// ProcessFile loads path and processes it under the default mode.
func (s *Service) ProcessFile(ctx context.Context, path string, eventCh chan<- domain.StreamEvent) (*domain.Record, error) {
	rec, _, err := s.processFile(ctx, path, eventCh)
	return rec, err
}

func (s *Service) processFile(ctx context.Context, path string, eventCh chan<- domain.StreamEvent) (*domain.Record, bool, error) {
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventPageProcessing,
		Path:      path,
		Payload:   fmt.Sprintf("Processing %s", filepath.Base(path)),
		Timestamp: time.Now(),
	})

	page, err := s.loader.Load(ctx, path)
	if err != nil {
		s.emitError(eventCh, path, err)
		return nil, false, err
	}
	return s.process(ctx, page, path, s.opts.Mode, eventCh)
}

// ProcessPage reconstructs an already loaded page under mode. source names
// the page in the record; an empty source disables the sidecar.
func (s *Service) ProcessPage(ctx context.Context, page *domain.Page, source string, mode ecg.Mode, eventCh chan<- domain.StreamEvent) (*domain.Record, error) {
	rec, _, err := s.process(ctx, page, source, mode, eventCh)
	return rec, err
}

func (s *Service) process(ctx context.Context, page *domain.Page, source string, mode ecg.Mode, eventCh chan<- domain.StreamEvent) (*domain.Record, bool, error) {
	start := time.Now()
	log := s.logger.WithFile(source)

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	frame, cached, err := s.frame(ctx, page, mode)
	if err != nil {
		log.Warn().Err(err).Str("error_type", string(domain.TypeOf(err))).Msg("Page rejected")
		s.emitError(eventCh, source, err)
		return nil, false, err
	}

	if s.opts.UpsampleTo > frame.Frequency {
		frame, err = resample.Frame(frame, s.opts.UpsampleTo)
		if err != nil {
			s.emitError(eventCh, source, err)
			return nil, cached, err
		}
	}

	rec := &domain.Record{
		SourcePath: source,
		FileName:   filepath.Base(source),
		Mode:       mode.Name,
		Frame:      *frame,
	}
	if source == "" {
		rec.FileName = ""
	}
	if s.opts.ParseMetadata {
		rec.Metadata = s.metadata(page, log)
	}

	if s.store != nil {
		if err := s.store.Save(ctx, rec); err != nil {
			s.emitError(eventCh, source, err)
			return nil, cached, err
		}
	}
	if s.opts.WriteSidecar && source != "" {
		path, err := storage.WriteSidecar(rec)
		if err != nil {
			s.emitError(eventCh, source, err)
			return nil, cached, err
		}
		log.Debug().Str("sidecar", path).Msg("Sidecar written")
	}

	log.Info().
		Str("mode", mode.Name).
		Int("frequency", int(rec.Frame.Frequency)).
		Int("source_frequency", int(rec.Frame.SourceFrequency)).
		Bool("cached", cached).
		Dur("duration", time.Since(start)).
		Msg("Page processed")

	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventPageComplete,
		Path:      source,
		Payload:   rec,
		Timestamp: time.Now(),
	})
	return rec, cached, nil
}

// frame returns the reconstructed frame of page, consulting the cache first.
func (s *Service) frame(ctx context.Context, page *domain.Page, mode ecg.Mode) (*domain.Frame, bool, error) {
	if len(page.SVG) > 0 {
		f, err := s.frames.Get(ctx, mode.Name, page.SVG)
		switch {
		case err == nil:
			return f, true, nil
		case !cache.IsMiss(err):
			s.logger.Warn().Err(err).Msg("Frame cache read failed")
		}
	}

	f, err := ecg.Reconstruct(page.Paths, mode)
	if err != nil {
		return nil, false, err
	}

	if len(page.SVG) > 0 {
		if err := s.frames.Put(ctx, mode.Name, page.SVG, f); err != nil {
			s.logger.Warn().Err(err).Msg("Frame cache write failed")
		}
	}
	return f, false, nil
}

// metadata parses the patient block. Failures are logged and yield nil.
func (s *Service) metadata(page *domain.Page, log *observability.Logger) *domain.PatientRecord {
	var (
		meta *domain.PatientRecord
		err  error
	)
	if len(page.Blocks) > 0 {
		meta, err = metadata.ParseBlocks(page.Blocks)
	} else {
		meta, err = metadata.Parse(page.Texts)
	}
	if err != nil {
		log.Warn().Err(err).Msg("Patient metadata not parsed")
		return nil
	}
	return meta
}

// emitEvent safely emits an event to the channel
func (s *Service) emitEvent(eventCh chan<- domain.StreamEvent, event domain.StreamEvent) {
	if eventCh != nil {
		select {
		case eventCh <- event:
		default:
			s.logger.Warn().Str("event", string(event.Type)).Msg("Event channel full, dropping event")
		}
	}
}

// emitError emits an error event
func (s *Service) emitError(eventCh chan<- domain.StreamEvent, path string, err error) {
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventError,
		Path:      path,
		Payload:   err.Error(),
		Timestamp: time.Now(),
	})
}
