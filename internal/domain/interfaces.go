package domain

import (
	"context"

	"github.com/google/uuid"
)

// Page is the vector content of one source page.
type Page struct {
	// SVG is the raw document the paths were read from.
	SVG []byte
	// Paths holds the `d` attribute of every path element, in document order.
	Paths []string
	// Texts holds the page's text items, in document order.
	Texts []string
	// Blocks holds multi-line text blocks when the source layout provides
	// them (PDF pages).
	Blocks []string
}

// PageLoader turns a source file into its vector page representation.
type PageLoader interface {
	Load(ctx context.Context, path string) (*Page, error)
}

// RecordStore persists processed pages.
type RecordStore interface {
	Save(ctx context.Context, record *Record) error
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
}
