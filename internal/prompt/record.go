// internal/prompt/record.go
package prompt

import (
	"time"
)

// PromptVersion is one persisted version of a named template. Many
// versions share a Name; (Name, Version) is unique and Version only ever
// grows within a name.
type PromptVersion struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Version       int                    `json:"version"`
	State         State                  `json:"state"`
	Content       string                 `json:"content"`
	Config        map[string]interface{} `json:"config"`
	CommitMessage string                 `json:"commitMessage,omitempty"`
	CreatedBy     string                 `json:"createdBy,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// Mutable reports whether content/config edits are allowed. Production
// and archived versions are immutable.
func (p *PromptVersion) Mutable() bool {
	return p.State == StateDraft
}

func (p *PromptVersion) IsDraft() bool      { return p.State == StateDraft }
func (p *PromptVersion) IsProduction() bool { return p.State == StateProduction }
func (p *PromptVersion) IsArchived() bool   { return p.State == StateArchived }

// Compile substitutes {{key}} placeholders from vars. Unmatched
// placeholders are left verbatim.
func (p *PromptVersion) Compile(vars map[string]interface{}) string {
	return compileTemplate(p.Content, vars)
}

// CompileStrict substitutes and then fails with a MISSING_VARIABLES
// error naming every unresolved placeholder.
func (p *PromptVersion) CompileStrict(vars map[string]interface{}) (string, error) {
	return compileStrictTemplate(p.Content, vars)
}

// Variables returns the distinct top-level placeholder names in the
// content, skipping section blocks.
func (p *PromptVersion) Variables() []string {
	return extractVariables(p.Content)
}
