// internal/prompt/fallback.go
package prompt

// FallbackPrompt is the non-persisted stand-in served when no matching
// version exists and the caller supplied a default. It carries only the
// static fallback text and supports the same compile surface as a real
// version.
type FallbackPrompt struct {
	Name    string                 `json:"name"`
	Content string                 `json:"content"`
	Config  map[string]interface{} `json:"config"`
}

// NewFallbackPrompt builds a fallback value for the given name.
func NewFallbackPrompt(name, content string) *FallbackPrompt {
	return &FallbackPrompt{
		Name:    name,
		Content: content,
		Config:  map[string]interface{}{},
	}
}

// StateLabel distinguishes fallbacks from lifecycle states in logs.
func (f *FallbackPrompt) StateLabel() string { return "fallback" }

func (f *FallbackPrompt) IsDraft() bool      { return false }
func (f *FallbackPrompt) IsProduction() bool { return false }
func (f *FallbackPrompt) IsArchived() bool   { return false }

func (f *FallbackPrompt) Compile(vars map[string]interface{}) string {
	return compileTemplate(f.Content, vars)
}

func (f *FallbackPrompt) CompileStrict(vars map[string]interface{}) (string, error) {
	return compileStrictTemplate(f.Content, vars)
}

func (f *FallbackPrompt) Variables() []string {
	return extractVariables(f.Content)
}

// Result is the tagged outcome of a fetch: exactly one of Record or
// Fallback is set. Callers branch on Found instead of probing sentinel
// fields.
type Result struct {
	Record   *PromptVersion  `json:"record,omitempty"`
	Fallback *FallbackPrompt `json:"fallback,omitempty"`
}

// Found reports whether a real persisted version was served.
func (r Result) Found() bool { return r.Record != nil }

// Name returns the logical template name regardless of variant.
func (r Result) Name() string {
	if r.Record != nil {
		return r.Record.Name
	}
	if r.Fallback != nil {
		return r.Fallback.Name
	}
	return ""
}

// Content returns the template text regardless of variant.
func (r Result) Content() string {
	if r.Record != nil {
		return r.Record.Content
	}
	if r.Fallback != nil {
		return r.Fallback.Content
	}
	return ""
}

// Config returns the attached model parameters; empty for fallbacks.
func (r Result) Config() map[string]interface{} {
	if r.Record != nil {
		return r.Record.Config
	}
	if r.Fallback != nil {
		return r.Fallback.Config
	}
	return map[string]interface{}{}
}

// Version returns the served version number; ok is false for fallbacks.
func (r Result) Version() (int, bool) {
	if r.Record != nil {
		return r.Record.Version, true
	}
	return 0, false
}

// Compile substitutes placeholders on whichever variant was served.
func (r Result) Compile(vars map[string]interface{}) string {
	return compileTemplate(r.Content(), vars)
}

// CompileStrict substitutes and fails on unresolved placeholders.
func (r Result) CompileStrict(vars map[string]interface{}) (string, error) {
	return compileStrictTemplate(r.Content(), vars)
}
