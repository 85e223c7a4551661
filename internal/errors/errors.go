package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a promptdeck error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// DeckError represents a structured error with code, status, and details.
type DeckError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *DeckError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *DeckError {
	return &DeckError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewValidation creates a 400 error carrying per-field messages.
func NewValidation(fields map[string]string) *DeckError {
	details := make(map[string]any, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return &DeckError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: "validation failed",
		Details: map[string]any{"fields": details},
	}
}

// NewNotFound creates a 404 error for when an entity cannot be found.
func NewNotFound(kind, identifier string) *DeckError {
	return &DeckError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *DeckError {
	return &DeckError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error for revision conflicts on the document store.
func NewConflict(msg string) *DeckError {
	return &DeckError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewCancelled creates a 499 error when the caller's context ends mid-operation.
func NewCancelled(op string) *DeckError {
	return &DeckError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *DeckError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &DeckError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error (or anything it wraps) is a DeckError with the given code.
func Is(err error, code ErrorCode) bool {
	var dErr *DeckError
	if stderrors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// As is a convenience over the standard library's errors.As for DeckError.
func As(err error) (*DeckError, bool) {
	var dErr *DeckError
	if stderrors.As(err, &dErr) {
		return dErr, true
	}
	return nil, false
}
