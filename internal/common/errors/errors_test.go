package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Error Matching Tests
// ==========================

func TestStandardError_Is(t *testing.T) {
	a := NewTemplateNotFoundError("greeting", "state: production")
	b := NewTemplateNotFoundError("farewell", "version: 3")
	other := NewInvalidTransitionError("cannot promote")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, other))
}

func TestIsCode(t *testing.T) {
	err := NewImmutableVersionError("greeting", 2, "production")

	assert.True(t, IsCode(err, ErrCodeImmutableVersion))
	assert.False(t, IsCode(err, ErrCodeTemplateNotFound))
	assert.False(t, IsCode(nil, ErrCodeImmutableVersion))
	assert.False(t, IsCode(errors.New("plain"), ErrCodeImmutableVersion))
}

func TestIsCode_WrappedError(t *testing.T) {
	inner := NewQueryExecutionFailedError(errors.New("connection reset"))
	wrapped := fmt.Errorf("loading template: %w", inner)

	assert.True(t, IsCode(wrapped, ErrCodeQueryExecutionFailed))
}

// ==========================
// Constructor Tests
// ==========================

func TestConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *StandardError
		code      ErrorCode
		retryable bool
		details   string
	}{
		{
			name:      "template not found",
			err:       NewTemplateNotFoundError("greeting", "version: 3"),
			code:      ErrCodeTemplateNotFound,
			retryable: false,
			details:   "name: greeting, version: 3",
		},
		{
			name:      "immutable version",
			err:       NewImmutableVersionError("greeting", 2, "archived"),
			code:      ErrCodeImmutableVersion,
			retryable: false,
			details:   "name: greeting, version: 2, state: archived",
		},
		{
			name:      "duplicate production",
			err:       NewDuplicateProductionError("greeting"),
			code:      ErrCodeDuplicateProduction,
			retryable: false,
			details:   "name: greeting",
		},
		{
			name:      "invalid transition",
			err:       NewInvalidTransitionError("cannot demote a version in state draft"),
			code:      ErrCodeInvalidTransition,
			retryable: false,
			details:   "cannot demote a version in state draft",
		},
		{
			name:      "query execution failed is retryable",
			err:       NewQueryExecutionFailedError(errors.New("timeout")),
			code:      ErrCodeQueryExecutionFailed,
			retryable: true,
			details:   "timeout",
		},
		{
			name:      "cache unavailable is retryable",
			err:       NewCacheUnavailableError(errors.New("refused")),
			code:      ErrCodeCacheUnavailable,
			retryable: true,
			details:   "refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.Equal(t, tt.details, tt.err.Details)
			assert.False(t, tt.err.Timestamp.IsZero())
			assert.Contains(t, tt.err.Error(), string(tt.code))
		})
	}
}

func TestNewMissingVariablesError(t *testing.T) {
	err := NewMissingVariablesError([]string{"name", "city"})

	assert.Equal(t, ErrCodeMissingVariables, err.Code)
	assert.Equal(t, "unresolved: name, city", err.Details)
	assert.Equal(t, []string{"name", "city"}, err.Metadata["variables"])
}

func TestNewSchemaViolationError(t *testing.T) {
	err := NewSchemaViolationError([]string{"temperature must be between 0 and 2", "model is required"})

	assert.Equal(t, ErrCodeSchemaViolation, err.Code)
	assert.Equal(t, "temperature must be between 0 and 2; model is required", err.Details)
	assert.Equal(t, []string{"temperature must be between 0 and 2", "model is required"}, err.Metadata["errors"])
}
