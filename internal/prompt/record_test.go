// internal/prompt/record_test.go
package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	commonerrors "prompt-registry/internal/common/errors"
)

// ==========================
// Mutability Tests
// ==========================

func TestPromptVersion_Mutable(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		mutable bool
	}{
		{name: "draft is mutable", state: StateDraft, mutable: true},
		{name: "production is immutable", state: StateProduction, mutable: false},
		{name: "archived is immutable", state: StateArchived, mutable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &PromptVersion{Name: "greeting", Version: 1, State: tt.state}
			assert.Equal(t, tt.mutable, v.Mutable())
		})
	}
}

func TestPromptVersion_StatePredicates(t *testing.T) {
	draft := &PromptVersion{State: StateDraft}
	assert.True(t, draft.IsDraft())
	assert.False(t, draft.IsProduction())
	assert.False(t, draft.IsArchived())

	prod := &PromptVersion{State: StateProduction}
	assert.True(t, prod.IsProduction())

	archived := &PromptVersion{State: StateArchived}
	assert.True(t, archived.IsArchived())
}

// ==========================
// Compile Surface Tests
// ==========================

func TestPromptVersion_Compile(t *testing.T) {
	v := &PromptVersion{
		Name:    "greeting",
		Version: 2,
		State:   StateProduction,
		Content: "Hello {{name}}, welcome to {{product}}!",
	}

	out := v.Compile(map[string]interface{}{"name": "Ada", "product": "Lovelace"})
	assert.Equal(t, "Hello Ada, welcome to Lovelace!", out)

	partial := v.Compile(map[string]interface{}{"name": "Ada"})
	assert.Equal(t, "Hello Ada, welcome to {{product}}!", partial)
}

func TestPromptVersion_CompileStrict(t *testing.T) {
	v := &PromptVersion{Content: "Hello {{name}}, welcome to {{product}}!"}

	_, err := v.CompileStrict(map[string]interface{}{"name": "Ada"})
	assert.True(t, commonerrors.IsCode(err, commonerrors.ErrCodeMissingVariables))

	out, err := v.CompileStrict(map[string]interface{}{"name": "Ada", "product": "Lovelace"})
	assert.NoError(t, err)
	assert.Equal(t, "Hello Ada, welcome to Lovelace!", out)
}

func TestPromptVersion_Variables(t *testing.T) {
	v := &PromptVersion{Content: "{{greeting}} {{name}}{{#history}}{{turn}}{{/history}}"}
	assert.Equal(t, []string{"greeting", "name"}, v.Variables())
}
