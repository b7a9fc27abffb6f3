package errors

import (
	"fmt"
)

// CivicError is the structured error type for CivicSearch.
// It provides rich context for error handling, logging, and user presentation.
type CivicError struct {
	// Code is the unique error code (e.g., "ERR_301_MANIFEST_LOAD").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *CivicError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *CivicError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with CivicError.
func (e *CivicError) Is(target error) bool {
	if t, ok := target.(*CivicError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *CivicError) WithDetail(key, value string) *CivicError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new CivicError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *CivicError {
	return &CivicError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a CivicError from an existing error.
// The error's message becomes the CivicError message.
func Wrap(code string, err error) *CivicError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ManifestLoadError creates the error for a failed manifest fetch.
func ManifestLoadError(url string, status int) *CivicError {
	return New(ErrCodeManifestLoad,
		fmt.Sprintf("failed to load search manifest: HTTP %d", status), nil).
		WithDetail("url", url)
}

// ChunkLoadError creates the error for a failed fetch of a named chunk.
func ChunkLoadError(filename string, status int) *CivicError {
	return New(ErrCodeChunkLoad,
		fmt.Sprintf("failed to load search chunk %s: HTTP %d", filename, status), nil).
		WithDetail("chunk", filename)
}

// IndexNotLoadedError creates the error for a query issued before any
// successful load. Callers typically convert this to an empty result
// set rather than surfacing it.
func IndexNotLoadedError() *CivicError {
	return New(ErrCodeIndexNotLoaded, "search index is not loaded", nil)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a CivicError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if ce, ok := err.(*CivicError); ok {
		return ce.Retryable
	}
	return false
}

// GetCode extracts the error code from a CivicError.
// Returns empty string if not a CivicError.
func GetCode(err error) string {
	if ce, ok := err.(*CivicError); ok {
		return ce.Code
	}
	return ""
}

// GetCategory extracts the category from a CivicError.
// Returns empty string if not a CivicError.
func GetCategory(err error) Category {
	if ce, ok := err.(*CivicError); ok {
		return ce.Category
	}
	return ""
}
