package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code for each error type
type ErrorCode string

const (
	// General errors
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"

	// File processing errors
	ErrCodeInvalidFile       ErrorCode = "INVALID_FILE"
	ErrCodeFileNotFound      ErrorCode = "FILE_NOT_FOUND"
	ErrCodeFileTooLarge      ErrorCode = "FILE_TOO_LARGE"
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeExtractionFailed  ErrorCode = "EXTRACTION_FAILED"

	// LLM errors
	ErrCodeLLMRequestFailed   ErrorCode = "LLM_REQUEST_FAILED"
	ErrCodeLLMInvalidResponse ErrorCode = "LLM_INVALID_RESPONSE"
	ErrCodeLLMRateLimited     ErrorCode = "LLM_RATE_LIMITED"

	// Database errors
	ErrCodeDatabaseError   ErrorCode = "DATABASE_ERROR"
	ErrCodeRecordNotFound  ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeDuplicateRecord ErrorCode = "DUPLICATE_RECORD"
	ErrCodeInvalidStatus   ErrorCode = "INVALID_STATUS_TRANSITION"

	// Queue errors
	ErrCodeQueueError ErrorCode = "QUEUE_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds additional context to the error
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an existing error with AppError context
func Wrap(err error, code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Common error constructors

func InternalWrap(err error, message string) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// File processing errors

func InvalidFile(message string) *AppError {
	return New(ErrCodeInvalidFile, message, http.StatusBadRequest)
}

func FileNotFound(path string) *AppError {
	return New(ErrCodeFileNotFound, "File not found", http.StatusBadRequest).
		WithDetails("path", path)
}

func FileTooLarge(maxSize int64) *AppError {
	return New(ErrCodeFileTooLarge,
		fmt.Sprintf("file size exceeds maximum allowed size of %d MB", maxSize),
		http.StatusRequestEntityTooLarge)
}

func UnsupportedFormat(format string) *AppError {
	return New(ErrCodeUnsupportedFormat,
		fmt.Sprintf("unsupported file format: %s", format),
		http.StatusBadRequest)
}

func ExtractionFailed(err error) *AppError {
	return Wrap(err, ErrCodeExtractionFailed, "Text extraction failed", http.StatusUnprocessableEntity)
}

// LLM errors

func LLMRequestFailed(err error) *AppError {
	return Wrap(err, ErrCodeLLMRequestFailed, "LLM request failed", http.StatusBadGateway)
}

func LLMInvalidResponse(message string, err error) *AppError {
	return Wrap(err, ErrCodeLLMInvalidResponse, message, http.StatusBadGateway)
}

func LLMRateLimited(err error) *AppError {
	return Wrap(err, ErrCodeLLMRateLimited, "LLM rate limit exceeded", http.StatusTooManyRequests)
}

// Database errors

func DatabaseError(err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, "database operation failed", http.StatusInternalServerError)
}

func RecordNotFound(resource string) *AppError {
	return New(ErrCodeRecordNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound)
}

func DuplicateRecord(resource string, err error) *AppError {
	return Wrap(err, ErrCodeDuplicateRecord,
		fmt.Sprintf("%s already exists", resource),
		http.StatusConflict)
}

func InvalidStatusTransition(from, to string) *AppError {
	return New(ErrCodeInvalidStatus,
		fmt.Sprintf("cannot move complaint from %s to %s", from, to),
		http.StatusConflict)
}

// Queue errors

func QueueError(err error) *AppError {
	return Wrap(err, ErrCodeQueueError, "failed to enqueue task", http.StatusServiceUnavailable)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// HasCode reports whether any AppError in the chain carries code
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Code == code
}

// StatusCode returns the HTTP status attached to err, or 500
func StatusCode(err error) int {
	if appErr, ok := GetAppError(err); ok && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
