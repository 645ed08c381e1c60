package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common cases
var (
	ErrNotFound   = errors.New("resource not found")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal server error")
	ErrValidation = errors.New("validation error")

	// Comparison / matching taxonomy. A "no eligible product" outcome is a
	// structured result, never one of these.
	ErrInsufficientProducts = errors.New("at least 2 products are required for comparison")
	ErrProductsNotFound     = errors.New("no products found for comparison")
	ErrInvalidConstraint    = errors.New("invalid constraint")
)

// AppError wraps errors with HTTP status and user-friendly message
type AppError struct {
	Err        error  // Original error (for logging)
	Message    string // User-friendly message
	StatusCode int    // HTTP status code
	Field      string // Optional field name for validation errors
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for common errors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func ValidationError(field, message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Field:      field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
	}
}

// InsufficientProducts signals a comparison request with fewer than 2 ids.
func InsufficientProducts(got int) *AppError {
	return &AppError{
		Err:        ErrInsufficientProducts,
		Message:    fmt.Sprintf("comparison requires at least 2 products, got %d", got),
		StatusCode: http.StatusBadRequest,
	}
}

// ProductsNotFound signals that none of the requested product ids resolved.
func ProductsNotFound() *AppError {
	return &AppError{
		Err:        ErrProductsNotFound,
		Message:    "none of the requested products were found",
		StatusCode: http.StatusNotFound,
	}
}

// InvalidConstraint signals a constraint with an unknown type or malformed
// value. Constraint shape is validated before any filtering runs.
func InvalidConstraint(detail string) *AppError {
	return &AppError{
		Err:        ErrInvalidConstraint,
		Message:    detail,
		StatusCode: http.StatusBadRequest,
	}
}

func Wrap(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// GetStatusCode extracts HTTP status from error, defaults to 500
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Check sentinel errors
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrProductsNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation),
		errors.Is(err, ErrInsufficientProducts), errors.Is(err, ErrInvalidConstraint):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetMessage extracts user message from error
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
