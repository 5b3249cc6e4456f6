package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a muse error code.
type ErrorCode string

const (
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"       // 400
	ErrNotFound             ErrorCode = "NOT_FOUND"             // 404
	ErrFileNotFound         ErrorCode = "FILE_NOT_FOUND"        // 404
	ErrConflict             ErrorCode = "CONFLICT"              // 409
	ErrQuoteTooLarge        ErrorCode = "QUOTE_TOO_LARGE"       // 413
	ErrCancelled            ErrorCode = "CANCELLED"             // 499
	ErrInternal             ErrorCode = "INTERNAL"              // 500
	ErrGeneratorFailed      ErrorCode = "GENERATOR_FAILED"      // 502
	ErrGeneratorUnavailable ErrorCode = "GENERATOR_UNAVAILABLE" // 503
)

// QuoteError represents a structured error with code, status, and details.
type QuoteError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *QuoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *QuoteError {
	return &QuoteError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnknownCategory creates a 400 error for a category outside the known set.
func NewUnknownCategory(category string, known []string) *QuoteError {
	return &QuoteError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: fmt.Sprintf("unknown category %q", category),
		Details: map[string]any{"category": category, "known_categories": known},
	}
}

// NewNotFound creates a 404 error for when a quote cannot be found.
func NewNotFound(id string) *QuoteError {
	return &QuoteError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("quote not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *QuoteError {
	return &QuoteError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *QuoteError {
	return &QuoteError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewQuoteTooLarge creates a 413 error when quote text exceeds the size limit.
func NewQuoteTooLarge(max, actual int) *QuoteError {
	return &QuoteError{
		Code:    ErrQuoteTooLarge,
		Status:  413,
		Message: fmt.Sprintf("quote exceeds maximum size: %d chars (max %d)", actual, max),
		Details: map[string]any{"max_chars": max, "actual_chars": actual},
	}
}

// NewCancelled creates a 499 error for an operation stopped by its context.
func NewCancelled(op string) *QuoteError {
	return &QuoteError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewGeneratorUnavailable creates a 503 error when no model can serve requests.
func NewGeneratorUnavailable(reason string) *QuoteError {
	return &QuoteError{
		Code:    ErrGeneratorUnavailable,
		Status:  503,
		Message: fmt.Sprintf("quote generator not available: %s", reason),
	}
}

// NewGeneratorFailed creates a 502 error when the model backend returns an error.
func NewGeneratorFailed(err error) *QuoteError {
	details := map[string]any{}
	if err != nil {
		details["generator_error"] = err.Error()
	}
	return &QuoteError{
		Code:    ErrGeneratorFailed,
		Status:  502,
		Message: "quote generator request failed",
		Details: details,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *QuoteError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &QuoteError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// As returns the QuoteError in err's chain, if any.
func As(err error) (*QuoteError, bool) {
	var qErr *QuoteError
	if stderrors.As(err, &qErr) {
		return qErr, true
	}
	return nil, false
}

// Is checks if an error (or anything it wraps) is a QuoteError with the given code.
func Is(err error, code ErrorCode) bool {
	if qErr, ok := As(err); ok {
		return qErr.Code == code
	}
	return false
}
