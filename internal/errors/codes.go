// Package errors provides structured error handling for CivicSearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (archive, index files)
//   - 3XX: Network errors (manifest/chunk fetches)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates archive and index file I/O errors.
	CategoryIO Category = "IO"
	// CategoryNetwork indicates manifest and chunk fetch errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeArchiveNotFound = "ERR_201_ARCHIVE_NOT_FOUND"
	ErrCodeClipUnreadable  = "ERR_202_CLIP_UNREADABLE"
	ErrCodeIndexWrite      = "ERR_203_INDEX_WRITE"
	ErrCodeBuildLocked     = "ERR_204_BUILD_LOCKED"

	// Network errors (300-399)
	ErrCodeManifestLoad = "ERR_301_MANIFEST_LOAD"
	ErrCodeChunkLoad    = "ERR_302_CHUNK_LOAD"

	// Validation errors (400-499)
	ErrCodeInvalidInput   = "ERR_401_INVALID_INPUT"
	ErrCodeIndexNotLoaded = "ERR_402_INDEX_NOT_LOADED"
	ErrCodeInvalidQuery   = "ERR_403_INVALID_QUERY"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_502_SEARCH_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion (e.g., "301" from "ERR_301_MANIFEST_LOAD")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	if code == ErrCodeIndexWrite {
		return SeverityFatal
	}
	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// Load failures leave the loader in a retryable state, so a fresh
// Load() call is always a valid recovery path for these.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeManifestLoad, ErrCodeChunkLoad:
		return true
	default:
		return false
	}
}
