// Package extractor is the public entry point for reconstructing ECG lead
// signals from vector renderings of 12-lead ECG pages.
package extractor

import (
	"context"
	"os"

	"github.com/spherical/ecg-extractor/internal/config"
	"github.com/spherical/ecg-extractor/internal/domain"
	"github.com/spherical/ecg-extractor/internal/ecg"
	"github.com/spherical/ecg-extractor/internal/extract"
	"github.com/spherical/ecg-extractor/internal/observability"
	"github.com/spherical/ecg-extractor/internal/pdf"
)

// Re-export result types for the public API
type (
	Record        = domain.Record
	Frame         = domain.Frame
	LeadSignal    = domain.LeadSignal
	Lead          = domain.Lead
	Frequency     = domain.Frequency
	PatientRecord = domain.PatientRecord
	PageResult    = domain.PageResult
	StreamEvent   = domain.StreamEvent
	EventType     = domain.EventType
	Stats         = domain.ProcessingStats
	Config        = config.Config
)

// Event type constants
const (
	EventStart          = domain.EventStart
	EventPageProcessing = domain.EventPageProcessing
	EventPageComplete   = domain.EventPageComplete
	EventError          = domain.EventError
	EventComplete       = domain.EventComplete
)

// IsPageFailure reports whether err rejected a single page. Callers
// processing many pages may skip such pages and continue.
func IsPageFailure(err error) bool {
	return domain.IsPageFailure(err)
}

// Client is the main entry point for the extractor library
type Client struct {
	runtime *extract.Runtime
}

// NewClient creates a client from the config file named by ECG_CONFIG, if
// any, then the environment and an optional .env file.
func NewClient(ctx context.Context) (*Client, error) {
	cfg, err := config.Load(os.Getenv("ECG_CONFIG"))
	if err != nil {
		return nil, err
	}
	return NewClientWithConfig(ctx, cfg)
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, domain.ConfigError("config is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	rt, err := extract.NewRuntime(ctx, cfg, logger, false)
	if err != nil {
		return nil, err
	}
	return &Client{runtime: rt}, nil
}

// DefaultConfig returns the configuration NewClient starts from.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// Extract processes one .svg or .pdf file.
func (c *Client) Extract(ctx context.Context, path string) (*Record, error) {
	return c.runtime.Service.ProcessFile(ctx, path, nil)
}

// ExtractSVG processes an SVG page held in memory under the named mode.
// An empty mode uses the configured one.
func (c *Client) ExtractSVG(ctx context.Context, svg []byte, mode string) (*Record, error) {
	m := c.runtime.Service.Mode()
	if mode != "" {
		var err error
		if m, err = ecg.ModeByName(mode); err != nil {
			return nil, err
		}
	}
	page, err := pdf.PageFromSVG(svg)
	if err != nil {
		return nil, err
	}
	return c.runtime.Service.ProcessPage(ctx, page, "", m, nil)
}

// Process processes paths concurrently and streams events as pages
// complete. The channel is closed when the batch is done.
func (c *Client) Process(ctx context.Context, paths ...string) (<-chan StreamEvent, error) {
	if len(paths) == 0 {
		return nil, domain.ValidationError("no input files", nil)
	}
	eventCh := make(chan StreamEvent, 100)
	go func() {
		defer close(eventCh)
		_, _, _ = c.runtime.Batch.Process(ctx, paths, eventCh)
	}()
	return eventCh, nil
}

// ProcessDir processes every .svg and .pdf file in dir. Pages that fail are
// reported in their PageResult; the error covers only the scan itself and
// cancellation.
func (c *Client) ProcessDir(ctx context.Context, dir string, recursive bool) ([]PageResult, Stats, error) {
	paths, err := extract.Discover(dir, recursive)
	if err != nil {
		return nil, Stats{}, err
	}
	return c.runtime.Batch.Process(ctx, paths, nil)
}

// Close releases the cache and record store.
func (c *Client) Close() error {
	return c.runtime.Close()
}
