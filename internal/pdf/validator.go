// Package pdf loads ECG pages from SVG files and from PDF files rendered
// through MuPDF.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/spherical/ecg-extractor/internal/domain"
)

// Source extensions accepted by the loader.
const (
	ExtSVG = ".svg"
	ExtPDF = ".pdf"
)

// MaxFileSize is the largest source file accepted.
const MaxFileSize = 100 * 1024 * 1024

// Validator checks source files before they are loaded.
type Validator struct {
	conf *model.Configuration
}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Validator{conf: conf}
}

// IsSupported reports whether path has an extension the loader handles.
func IsSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtSVG, ExtPDF:
		return true
	}
	return false
}

// ValidateSourcePath checks that path names a readable SVG or PDF file.
func (v *Validator) ValidateSourcePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}
	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}
	if !IsSupported(path) {
		return domain.ValidationError(
			fmt.Sprintf("unsupported file type %q: want .svg or .pdf", filepath.Ext(path)), nil)
	}
	if info.Size() == 0 {
		return domain.ValidationError(fmt.Sprintf("file is empty: %s", path), nil)
	}
	if info.Size() > MaxFileSize {
		return domain.ValidationError(
			fmt.Sprintf("file is too large (%d MB): %s", info.Size()/(1024*1024), path), nil)
	}
	return nil
}

// PageCount parses the PDF structure at path and returns its page count.
func (v *Validator) PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, domain.IOError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	defer f.Close()

	n, err := api.PageCount(f, v.conf)
	if err != nil {
		return 0, domain.ValidationError(fmt.Sprintf("not a valid PDF: %s", path), err)
	}
	if n == 0 {
		return 0, domain.ValidationError(fmt.Sprintf("PDF has no pages: %s", path), nil)
	}
	return n, nil
}
