package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// AppError is the application error type carried from services up to handlers.
// Code is a stable machine-readable identifier, Message is safe to show to
// clients, and Err (optional) wraps the underlying cause.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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

// Error codes used across services.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeUpstreamFailure = "UPSTREAM_FAILURE"
	CodeInternal        = "INTERNAL_ERROR"
)

// NewNotFoundError reports that a resource does not exist.
func NewNotFoundError(resource string, id any) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v not found", resource, id),
	}
}

// NewValidationError reports invalid client input.
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewUnauthorizedError reports a missing or failed authentication.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewForbiddenError reports that the authenticated caller may not perform the
// operation on this resource.
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewUpstreamError reports a failure in an external collaborator (media store,
// mail delivery) that the caller cannot fix by changing the request.
func NewUpstreamError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUpstreamFailure,
		Message: message,
		Err:     err,
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// AsAppError extracts an *AppError from err, or nil if err is not one.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// RespondWithError writes a JSON error body with the given status.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	if appErr := AsAppError(err); appErr != nil {
		return c.Status(status).JSON(fiber.Map{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
