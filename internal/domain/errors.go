package domain

import (
	"errors"
	"fmt"
)

// ============================================================================
// Domain Error Types
// ============================================================================

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches domain errors by code so sentinels work with errors.Is
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ============================================================================
// Common Domain Errors
// ============================================================================

var (
	// Account Errors
	ErrUserNotFound = &DomainError{
		Code:    "USER_NOT_FOUND",
		Message: "user not found",
	}
	ErrUserAlreadyExists = &DomainError{
		Code:    "USER_ALREADY_EXISTS",
		Message: "this e-mail is already registered",
	}
	ErrInvalidCredentials = &DomainError{
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid e-mail or password",
	}
	ErrEmailNotVerified = &DomainError{
		Code:    "EMAIL_NOT_VERIFIED",
		Message: "e-mail address is not verified",
	}
	ErrInvalidVerificationCode = &DomainError{
		Code:    "INVALID_VERIFICATION_CODE",
		Message: "invalid verification code",
	}

	// Session Errors
	ErrSessionNotFound = &DomainError{
		Code:    "SESSION_NOT_FOUND",
		Message: "no active session",
	}
	ErrUnauthorized = &DomainError{
		Code:    "UNAUTHORIZED",
		Message: "authentication required",
	}
	ErrSubmitInProgress = &DomainError{
		Code:    "SUBMIT_IN_PROGRESS",
		Message: "a request is already in flight",
	}

	// Validation Errors
	ErrValidationFailed = &DomainError{
		Code:    "VALIDATION_FAILED",
		Message: "validation failed",
	}
	ErrRequiredFieldMissing = &DomainError{
		Code:    "REQUIRED_FIELD_MISSING",
		Message: "required field is missing",
	}

	// Model Errors
	ErrModelUnavailable = &DomainError{
		Code:    "MODEL_UNAVAILABLE",
		Message: "no language model is configured",
	}
	ErrPlanGenerationFailed = &DomainError{
		Code:    "PLAN_GENERATION_FAILED",
		Message: "plan generation failed",
	}

	// Remote API Errors
	ErrServerRejected = &DomainError{
		Code:    "SERVER_REJECTED",
		Message: "request rejected by server",
	}

	// Infrastructure Errors
	ErrDatabaseOperation = &DomainError{
		Code:    "DATABASE_OPERATION_FAILED",
		Message: "database operation failed",
	}
	ErrNetworkOperation = &DomainError{
		Code:    "NETWORK_OPERATION_FAILED",
		Message: "network operation failed",
	}
	ErrStorageOperation = &DomainError{
		Code:    "STORAGE_OPERATION_FAILED",
		Message: "storage operation failed",
	}
)

// ============================================================================
// Error Wrapping Helpers
// ============================================================================

// WrapValidationError wraps an error as a validation failure for a field.
// The cause text is part of the public message so callers can show it.
func WrapValidationError(field string, cause error) error {
	message := fmt.Sprintf("validation failed for %s", field)
	if cause != nil {
		message = fmt.Sprintf("%s: %v", message, cause)
	}
	return &DomainError{
		Code:    ErrValidationFailed.Code,
		Message: message,
		Cause:   cause,
	}
}

// WrapUserNotFound wraps an error as a user not found error
func WrapUserNotFound(email string, cause error) error {
	return &DomainError{
		Code:    ErrUserNotFound.Code,
		Message: fmt.Sprintf("user not found: %s", email),
		Cause:   cause,
	}
}

// WrapDatabaseOperation wraps an error as a database operation failure
func WrapDatabaseOperation(operation string, cause error) error {
	return &DomainError{
		Code:    ErrDatabaseOperation.Code,
		Message: fmt.Sprintf("database operation failed: %s", operation),
		Cause:   cause,
	}
}

// WrapNetworkOperation wraps a transport failure talking to a remote endpoint
func WrapNetworkOperation(endpoint string, cause error) error {
	return &DomainError{
		Code:    ErrNetworkOperation.Code,
		Message: fmt.Sprintf("network operation failed: %s", endpoint),
		Cause:   cause,
	}
}

// WrapPlanGeneration wraps a model failure while writing a business plan
func WrapPlanGeneration(cause error) error {
	return &DomainError{
		Code:    ErrPlanGenerationFailed.Code,
		Message: ErrPlanGenerationFailed.Message,
		Cause:   cause,
	}
}

// WrapStorageOperation wraps a client-side key-value storage failure
func WrapStorageOperation(operation string, cause error) error {
	return &DomainError{
		Code:    ErrStorageOperation.Code,
		Message: fmt.Sprintf("storage operation failed: %s", operation),
		Cause:   cause,
	}
}

// ============================================================================
// Error Checking Helpers
// ============================================================================

// HasCode reports whether err is a DomainError carrying code
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return HasCode(err, ErrUserNotFound.Code) || HasCode(err, ErrSessionNotFound.Code)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return HasCode(err, ErrValidationFailed.Code) ||
		HasCode(err, ErrRequiredFieldMissing.Code)
}

// IsNetworkError checks if an error is a transport failure (no server response)
func IsNetworkError(err error) bool {
	return HasCode(err, ErrNetworkOperation.Code)
}

// IsInfrastructureError checks if an error is an infrastructure error
func IsInfrastructureError(err error) bool {
	return HasCode(err, ErrDatabaseOperation.Code) ||
		HasCode(err, ErrNetworkOperation.Code) ||
		HasCode(err, ErrStorageOperation.Code)
}

// PublicMessage returns the user-facing message of a domain error, without its code
func PublicMessage(err error) string {
	var domainErr *DomainError
	if err != nil && errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return "An error occurred"
}
