package pdf

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/spherical/ecg-extractor/internal/domain"
	"github.com/spherical/ecg-extractor/internal/metadata"
	"github.com/spherical/ecg-extractor/internal/svgdoc"
)

// ecgPage is the page of a PDF that carries the tracing.
const ecgPage = 0

// Loader implements domain.PageLoader for SVG and PDF sources.
type Loader struct {
	validator *Validator
}

// NewLoader creates a new page loader.
func NewLoader() *Loader {
	return &Loader{validator: NewValidator()}
}

var _ domain.PageLoader = (*Loader)(nil)

// Load reads the vector content of path.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Page, error) {
	if err := l.validator.ValidateSourcePath(path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ExtSVG) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.IOError("read SVG", err)
		}
		return PageFromSVG(data)
	}
	return l.loadPDF(ctx, path)
}

// PageFromSVG builds a page from an SVG document held in memory.
func PageFromSVG(data []byte) (*domain.Page, error) {
	doc, err := svgdoc.Parse(data)
	if err != nil {
		return nil, err
	}
	return &domain.Page{SVG: data, Paths: doc.Paths, Texts: doc.Texts}, nil
}

func (l *Loader) loadPDF(ctx context.Context, path string) (*domain.Page, error) {
	if _, err := l.validator.PageCount(path); err != nil {
		return nil, err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, domain.ConversionError("failed to open PDF", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, domain.ValidationError("PDF has no pages", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	svg, err := doc.SVG(ecgPage)
	if err != nil {
		return nil, domain.ConversionError("failed to render page as SVG", err)
	}
	page, err := PageFromSVG(svg)
	if err != nil {
		return nil, err
	}

	text, err := doc.Text(ecgPage)
	if err != nil {
		return nil, domain.ConversionError("failed to extract page text", err)
	}
	page.Blocks = metadata.SplitBlocks(string(text))
	return page, nil
}
