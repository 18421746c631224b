// Package errors provides standardized error handling for the prompt registry.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeTemplateNotFound    ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeImmutableVersion    ErrorCode = "IMMUTABLE_VERSION"
	ErrCodeDuplicateProduction ErrorCode = "DUPLICATE_PRODUCTION"
	ErrCodeInvalidTransition   ErrorCode = "INVALID_TRANSITION"
	ErrCodeMissingVariables    ErrorCode = "MISSING_VARIABLES"
	ErrCodeSchemaViolation     ErrorCode = "SCHEMA_VIOLATION"

	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeCacheUnavailable     ErrorCode = "CACHE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches two StandardErrors by code so errors.Is works against the
// constructors' outputs regardless of details.
func (e *StandardError) Is(target error) bool {
	var se *StandardError
	if errors.As(target, &se) {
		return e.Code == se.Code
	}
	return false
}

// IsCode reports whether err carries the given registry error code.
func IsCode(err error, code ErrorCode) bool {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewTemplateNotFoundError creates a non-retryable not-found error.
func NewTemplateNotFoundError(name string, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Template not found",
		Details:   fmt.Sprintf("name: %s, %s", name, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewImmutableVersionError rejects edits to production/archived versions.
func NewImmutableVersionError(name string, version int, state string) *StandardError {
	return &StandardError{
		Code:      ErrCodeImmutableVersion,
		Message:   "Cannot modify an immutable template version",
		Details:   fmt.Sprintf("name: %s, version: %d, state: %s", name, version, state),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateProductionError rejects writes that would leave two
// production versions for one name.
func NewDuplicateProductionError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateProduction,
		Message:   "Another version of this template is already in production",
		Details:   fmt.Sprintf("name: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError rejects lifecycle moves outside the
// transition table.
func NewInvalidTransitionError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Illegal template state transition",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingVariablesError reports unresolved placeholders after a
// validated compile.
func NewMissingVariablesError(vars []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingVariables,
		Message:   "Missing template variables",
		Details:   fmt.Sprintf("unresolved: %s", strings.Join(vars, ", ")),
		Metadata:  map[string]interface{}{"variables": vars},
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaViolationError aggregates config validation failures.
func NewSchemaViolationError(errs []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaViolation,
		Message:   "Configuration failed schema validation",
		Details:   strings.Join(errs, "; "),
		Metadata:  map[string]interface{}{"errors": errs},
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable store error.
func NewQueryExecutionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError wraps a cache layer failure. The store treats
// this as degradable, never user-visible.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Template cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
