package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	// Page pipeline failures. Any of these is fatal to the page being processed.
	ErrorTypeMalformedPath          ErrorType = "malformed_path"
	ErrorTypeStructuralMismatch     ErrorType = "structural_mismatch"
	ErrorTypeUnsupportedSampleCount ErrorType = "unsupported_sample_count"
	ErrorTypeUnsupportedMode        ErrorType = "unsupported_mode"

	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConversion ErrorType = "conversion"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeStorage    ErrorType = "storage"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func MalformedPathError(message string, err error) *DomainError {
	return NewError(ErrorTypeMalformedPath, message, err)
}

func StructuralMismatchError(message string, err error) *DomainError {
	return NewError(ErrorTypeStructuralMismatch, message, err)
}

func UnsupportedSampleCountError(message string, err error) *DomainError {
	return NewError(ErrorTypeUnsupportedSampleCount, message, err)
}

func UnsupportedModeError(message string, err error) *DomainError {
	return NewError(ErrorTypeUnsupportedMode, message, err)
}

func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func ConversionError(message string, err error) *DomainError {
	return NewError(ErrorTypeConversion, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

func StorageError(message string, err error) *DomainError {
	return NewError(ErrorTypeStorage, message, err)
}

// TypeOf returns the type of the outermost DomainError in err's chain,
// or the empty string when err carries none.
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	return ""
}

// IsType reports whether err carries a DomainError of the given type.
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// IsPageFailure reports whether err is one of the reconstruction failures
// that reject a single page. Batch callers may skip such pages and continue.
func IsPageFailure(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeMalformedPath, ErrorTypeStructuralMismatch,
		ErrorTypeUnsupportedSampleCount, ErrorTypeUnsupportedMode:
		return true
	}
	return false
}
