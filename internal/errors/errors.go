package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a wishlist error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED" // 422
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// WishError represents a structured error with code, status, and details.
type WishError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *WishError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *WishError {
	return &WishError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a wish cannot be found.
func NewNotFound(id int64) *WishError {
	return &WishError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("wish not found: %d", id),
		Details: map[string]any{"id": id},
	}
}

// NewValidation creates a 422 error for form input that fails validation.
// field names the offending input; it may be empty.
func NewValidation(field, msg string) *WishError {
	e := &WishError{
		Code:    ErrValidationFailed,
		Status:  422,
		Message: msg,
	}
	if field != "" {
		e.Details = map[string]any{"field": field}
	}
	return e
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *WishError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &WishError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a WishError with the given code.
func Is(err error, code ErrorCode) bool {
	var wErr *WishError
	if stderrors.As(err, &wErr) {
		return wErr.Code == code
	}
	return false
}

// As converts any error to a WishError, wrapping unknown errors as INTERNAL.
func As(err error) *WishError {
	var wErr *WishError
	if stderrors.As(err, &wErr) {
		return wErr
	}
	return NewInternal(err)
}
