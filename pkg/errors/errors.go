package errors

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// Common error codes
const (
	CodeBadRequest          = 400
	CodeNotFound            = 404
	CodeInternalServerError = 500
)

// Common errors
var (
	ErrBadRequest          = errors.BadRequest("BAD_REQUEST", "Bad request")
	ErrNotFound            = errors.NotFound("NOT_FOUND", "Resource not found")
	ErrValidationFailed    = errors.BadRequest("VALIDATION_FAILED", "Validation failed")
	ErrInternalServerError = errors.InternalServer("INTERNAL_SERVER_ERROR", "Internal server error")
)

// NewBadRequest creates a new bad request error.
func NewBadRequest(reason, message string) *errors.Error {
	return errors.BadRequest(reason, message)
}

// NewNotFound creates a new not found error.
func NewNotFound(reason, message string) *errors.Error {
	return errors.NotFound(reason, message)
}

// NewInternalServerError creates a new internal server error.
func NewInternalServerError(reason, message string) *errors.Error {
	return errors.InternalServer(reason, message)
}
