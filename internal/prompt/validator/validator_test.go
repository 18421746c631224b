// internal/prompt/validator/validator_test.go
package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Default Schema Tests
// ==========================

func TestValidate_ValidConfig(t *testing.T) {
	cfg := map[string]interface{}{
		"model":       "gpt-4",
		"temperature": 0.7,
		"max_tokens":  1000,
		"top_p":       0.9,
		"stop":        []interface{}{"\n\n", "END"},
		"stream":      false,
	}

	report := Validate(cfg, DefaultSchema(), false)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
}

func TestValidate_CoercesNumericStringsAndCollectsAllErrors(t *testing.T) {
	cfg := map[string]interface{}{
		"temperature": "0.7",
		"max_tokens":  100001,
	}

	report := Validate(cfg, DefaultSchema(), false)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"max_tokens must be between 1 and 100000"}, report.Errors)

	// The numeric string was coerced in place.
	assert.Equal(t, 0.7, cfg["temperature"])
}

func TestValidate_TypeErrors(t *testing.T) {
	tests := []struct {
		name     string
		cfg      map[string]interface{}
		expected string
	}{
		{
			name:     "non-numeric string for float",
			cfg:      map[string]interface{}{"temperature": "warm"},
			expected: "temperature must be a float",
		},
		{
			name:     "float for integer",
			cfg:      map[string]interface{}{"max_tokens": 10.5},
			expected: "max_tokens must be an integer",
		},
		{
			name:     "string for boolean",
			cfg:      map[string]interface{}{"stream": "yes"},
			expected: "stream must be a boolean",
		},
		{
			name:     "scalar for array",
			cfg:      map[string]interface{}{"stop": "END"},
			expected: "stop must be an array",
		},
		{
			name:     "number for string",
			cfg:      map[string]interface{}{"model": 4},
			expected: "model must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Validate(tt.cfg, DefaultSchema(), false)
			assert.False(t, report.Valid)
			assert.Equal(t, []string{tt.expected}, report.Errors)
		})
	}
}

func TestValidate_RangeBounds(t *testing.T) {
	tests := []struct {
		name     string
		cfg      map[string]interface{}
		expected string
	}{
		{
			name:     "temperature above range",
			cfg:      map[string]interface{}{"temperature": 2.5},
			expected: "temperature must be between 0 and 2",
		},
		{
			name:     "top_p below range",
			cfg:      map[string]interface{}{"top_p": -0.1},
			expected: "top_p must be between 0 and 1",
		},
		{
			name:     "max_tokens below range",
			cfg:      map[string]interface{}{"max_tokens": 0},
			expected: "max_tokens must be between 1 and 100000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Validate(tt.cfg, DefaultSchema(), false)
			assert.False(t, report.Valid)
			assert.Equal(t, []string{tt.expected}, report.Errors)
		})
	}

	t.Run("boundary values pass", func(t *testing.T) {
		cfg := map[string]interface{}{"temperature": 2.0, "top_p": 1.0, "max_tokens": 1}
		report := Validate(cfg, DefaultSchema(), false)
		assert.True(t, report.Valid)
	})
}

func TestValidate_ArrayItems(t *testing.T) {
	cfg := map[string]interface{}{
		"stop": []interface{}{"END", 42, "DONE", true},
	}

	report := Validate(cfg, DefaultSchema(), false)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{
		"stop[1] must be a string",
		"stop[3] must be a string",
	}, report.Errors)
}

// ==========================
// Schema Mechanics Tests
// ==========================

func TestValidate_RequiredKeys(t *testing.T) {
	schema := Schema{
		"model":       {Type: "string", Required: true},
		"temperature": {Type: "float"},
	}

	report := Validate(map[string]interface{}{"temperature": 0.5}, schema, false)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"model is required"}, report.Errors)
}

func TestValidate_AllowedValues(t *testing.T) {
	schema := Schema{
		"model": {Type: "string", Allowed: []interface{}{"gpt-4", "gpt-4o"}},
	}

	report := Validate(map[string]interface{}{"model": "gpt-4o"}, schema, false)
	assert.True(t, report.Valid)

	report = Validate(map[string]interface{}{"model": "llama"}, schema, false)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"model must be one of gpt-4, gpt-4o"}, report.Errors)
}

func TestValidate_StrictMode(t *testing.T) {
	cfg := map[string]interface{}{
		"model": "gpt-4",
		"zeta":  1,
		"alpha": 2,
	}

	lenient := Validate(cfg, DefaultSchema(), false)
	assert.True(t, lenient.Valid)

	strict := Validate(cfg, DefaultSchema(), true)
	assert.False(t, strict.Valid)
	assert.Equal(t, []string{"unknown configuration keys: alpha, zeta"}, strict.Errors)
}

func TestValidate_TrivialPayloads(t *testing.T) {
	assert.True(t, Validate(nil, DefaultSchema(), true).Valid)
	assert.True(t, Validate(map[string]interface{}{}, DefaultSchema(), true).Valid)

	report := Validate("not a map", DefaultSchema(), false)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"configuration must be a map"}, report.Errors)
}

func TestValidate_MultipleErrorsAreSorted(t *testing.T) {
	cfg := map[string]interface{}{
		"temperature": 3.0,
		"max_tokens":  "lots",
		"stream":      "no",
	}

	report := Validate(cfg, DefaultSchema(), false)
	assert.False(t, report.Valid)
	// Schema keys are walked in sorted order, so error order is stable.
	assert.Equal(t, []string{
		"max_tokens must be an integer",
		"stream must be a boolean",
		"temperature must be between 0 and 2",
	}, report.Errors)
}

// ==========================
// JSON Schema Document Tests
// ==========================

func TestValidateDocument(t *testing.T) {
	schemaJSON := `{
		"type": "object",
		"properties": {
			"model": {"type": "string"},
			"temperature": {"type": "number", "maximum": 2}
		},
		"required": ["model"]
	}`

	report, err := ValidateDocument(map[string]interface{}{"model": "gpt-4", "temperature": 0.7}, schemaJSON)
	assert.NoError(t, err)
	assert.True(t, report.Valid)

	report, err = ValidateDocument(map[string]interface{}{"temperature": 5.0}, schemaJSON)
	assert.NoError(t, err)
	assert.False(t, report.Valid)
	assert.NotEmpty(t, report.Errors)
}

func TestValidateDocument_BadSchema(t *testing.T) {
	_, err := ValidateDocument(map[string]interface{}{}, `{not json`)
	assert.Error(t, err)
}
