package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/ecg-extractor/internal/domain"
)

type recordingProcessor struct {
	mu    sync.Mutex
	paths []string
}

func (p *recordingProcessor) ProcessFile(_ context.Context, path string, _ chan<- domain.StreamEvent) (*domain.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = append(p.paths, path)
	return &domain.Record{SourcePath: path}, nil
}

func TestWatcher_ProcessesNewPages(t *testing.T) {
	dir := t.TempDir()
	proc := &recordingProcessor{}
	w := New(proc, 50*time.Millisecond, nil)

	results := make(chan domain.PageResult, 4)
	w.OnResult = func(r domain.PageResult) { results <- r }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, dir, nil) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	page := filepath.Join(dir, "page.svg")
	require.NoError(t, os.WriteFile(page, []byte("<svg/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.svg"), []byte("x"), 0o644))

	select {
	case r := <-results:
		assert.Equal(t, page, r.Path)
		assert.NoError(t, r.Err)
		require.NotNil(t, r.Record)
	case <-time.After(5 * time.Second):
		t.Fatal("page was not processed")
	}

	time.Sleep(200 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	proc.mu.Lock()
	defer proc.mu.Unlock()
	assert.Equal(t, []string{page}, proc.paths, "each page is processed once")
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := New(&recordingProcessor{}, 0, nil)
	assert.Equal(t, DefaultSettle, w.settle)

	err := w.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeIO))
}

func TestWatcher_CancelDropsPendingFile(t *testing.T) {
	proc := &recordingProcessor{}
	w := New(proc, time.Hour, nil)

	w.schedule(context.Background(), "/tmp/a.svg", nil)
	w.cancel("/tmp/a.svg")
	w.wait()

	assert.Empty(t, proc.paths)
	assert.Empty(t, w.pending)
}
