package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInternal           = errors.New("internal error")
	ErrAnalysisFailed     = errors.New("sentiment analysis failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// AppError represents a structured application error with HTTP status mapping.
// Message is safe to show to clients; Err carries the detail that is only logged.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error. The message is returned to the caller verbatim.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// AnalysisFailed creates a 500 error for a failed sentiment classification.
// The cause is kept for logging and matched by errors.Is alongside ErrAnalysisFailed.
func AnalysisFailed(cause error) *AppError {
	return &AppError{
		Code:    "ANALYSIS_FAILED",
		Message: "failed to analyze review sentiment",
		Status:  http.StatusInternalServerError,
		Err:     wrapSentinel(ErrAnalysisFailed, cause),
	}
}

// StorageUnavailable creates a 500 error for an unreachable or failing review store.
func StorageUnavailable(cause error) *AppError {
	return &AppError{
		Code:    "STORAGE_UNAVAILABLE",
		Message: "review storage is unavailable",
		Status:  http.StatusInternalServerError,
		Err:     wrapSentinel(ErrStorageUnavailable, cause),
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     wrapSentinel(ErrInternal, err),
	}
}

func wrapSentinel(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
