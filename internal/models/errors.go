package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes used across services. Handlers map these to HTTP statuses.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeOTPExpired   = "OTP_EXPIRED"
	CodeOTPInvalid   = "OTP_INVALID"
	CodeInternal     = "INTERNAL_ERROR"
)

// APIResponse is the uniform JSON envelope for every endpoint.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id any) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

func NewOTPExpiredError() *AppError {
	return &AppError{Code: CodeOTPExpired, Message: "OTP has expired"}
}

func NewOTPInvalidError() *AppError {
	return &AppError{Code: CodeOTPInvalid, Message: "Invalid OTP"}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError writes the standardized error envelope.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	resp := APIResponse{Success: false}

	if appErr, ok := err.(*AppError); ok {
		resp.Message = appErr.Message
		resp.Error = appErr.Code
	} else {
		resp.Message = err.Error()
	}

	return c.Status(status).JSON(resp)
}

// RespondWithData writes a success envelope carrying data.
func RespondWithData(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondWithList writes a success envelope carrying a list and its count.
func RespondWithList(c *fiber.Ctx, count int, data any) error {
	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Success: true,
		Count:   &count,
		Data:    data,
	})
}
