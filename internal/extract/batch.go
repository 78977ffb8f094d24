package extract

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spherical/ecg-extractor/internal/domain"
	"github.com/spherical/ecg-extractor/internal/pdf"
)

// BatchProcessor processes many source files with a bounded worker pool.
type BatchProcessor struct {
	service    *Service
	maxWorkers int
	failFast   bool
}

// NewBatchProcessor creates a new batch processor. When failFast is set the
// first failure cancels the remaining pages.
func NewBatchProcessor(service *Service, maxWorkers int, failFast bool) *BatchProcessor {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &BatchProcessor{
		service:    service,
		maxWorkers: maxWorkers,
		failFast:   failFast,
	}
}

// Discover lists the supported source files under dir, sorted by path.
func Discover(dir string, recursive bool) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if pdf.IsSupported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("scan %s", dir), err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Process runs every path through the service. The result slice is index
// aligned with paths. In fail-fast mode the first failure is returned;
// otherwise the error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) Process(ctx context.Context, paths []string, eventCh chan<- domain.StreamEvent) ([]domain.PageResult, domain.ProcessingStats, error) {
	start := time.Now()
	results := make([]domain.PageResult, len(paths))
	stats := domain.ProcessingStats{}
	if len(paths) == 0 {
		return results, stats, nil
	}

	bp.service.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventStart,
		Payload:   fmt.Sprintf("Processing %d pages", len(paths)),
		Timestamp: time.Now(),
	})

	processCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type workItem struct {
		index int
		path  string
	}

	workChan := make(chan workItem, len(paths))
	for i, path := range paths {
		workChan <- workItem{index: i, path: path}
	}
	close(workChan)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		cached   = make([]bool, len(paths))
	)

	for i := 0; i < bp.maxWorkers && i < len(paths); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workChan {
				if err := processCtx.Err(); err != nil {
					results[item.index] = domain.PageResult{Path: item.path, Err: err}
					continue
				}

				rec, hit, err := bp.service.processFile(processCtx, item.path, eventCh)
				results[item.index] = domain.PageResult{Path: item.path, Record: rec, Err: err}
				cached[item.index] = hit

				if err != nil && bp.failFast {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("%s: %w", item.path, err)
						cancel()
					}
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	for i, r := range results {
		stats.PagesProcessed++
		if r.Failed() {
			stats.FailedPages++
			continue
		}
		stats.SuccessfulPages++
		if cached[i] {
			stats.CachedPages++
		}
	}
	stats.TotalTime = time.Since(start)

	bp.service.emitEvent(eventCh, domain.StreamEvent{
		Type: domain.EventComplete,
		Payload: fmt.Sprintf("Batch complete: %d/%d pages successful in %v",
			stats.SuccessfulPages, stats.PagesProcessed, stats.TotalTime),
		Timestamp: time.Now(),
	})
	bp.service.logger.Info().
		Int("pages", stats.PagesProcessed).
		Int("succeeded", stats.SuccessfulPages).
		Int("failed", stats.FailedPages).
		Int("cached", stats.CachedPages).
		Dur("duration", stats.TotalTime).
		Msg("Batch complete")

	if firstErr != nil {
		return results, stats, firstErr
	}
	if err := ctx.Err(); err != nil {
		return results, stats, err
	}
	return results, stats, nil
}
