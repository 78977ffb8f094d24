package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spherical/ecg-extractor/internal/domain"
)

// SidecarPath returns the JSON path written next to a source file.
func SidecarPath(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".json"
}

// WriteSidecar writes record as indented JSON next to its source file. The
// file is written to a temporary name first and renamed into place.
func WriteSidecar(record *domain.Record) (string, error) {
	path := SidecarPath(record.SourcePath)
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", domain.StorageError("marshal sidecar", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ecg-*.json")
	if err != nil {
		return "", domain.IOError("create sidecar", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", domain.IOError("write sidecar", err)
	}
	if err := tmp.Close(); err != nil {
		return "", domain.IOError("close sidecar", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", domain.IOError("rename sidecar", err)
	}
	return path, nil
}

// ReadSidecar loads a record previously written by WriteSidecar.
func ReadSidecar(path string) (*domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.IOError("read sidecar", err)
	}
	var rec domain.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, domain.StorageError("parse sidecar", err)
	}
	return &rec, nil
}
