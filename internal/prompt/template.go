// internal/prompt/template.go
package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	commonerrors "prompt-registry/internal/common/errors"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// compileTemplate substitutes every literal {{key}} occurrence with the
// string form of vars[key]. Unmatched placeholders stay verbatim.
func compileTemplate(content string, vars map[string]interface{}) string {
	out := content
	for key, val := range vars {
		out = strings.ReplaceAll(out, "{{"+key+"}}", stringify(val))
	}
	return out
}

// compileStrictTemplate substitutes and then fails if any top-level
// placeholder survived. Variables referenced only inside section blocks
// are not demanded.
func compileStrictTemplate(content string, vars map[string]interface{}) (string, error) {
	compiled := compileTemplate(content, vars)
	if missing := extractVariables(compiled); len(missing) > 0 {
		return "", commonerrors.NewMissingVariablesError(missing)
	}
	return compiled, nil
}

// extractVariables returns the distinct top-level {{var}} tokens in
// order of first appearance. Content inside {{#section}}/{{^section}}
// ... {{/section}} blocks is skipped, and {{! comment}} tokens are
// ignored.
func extractVariables(content string) []string {
	matches := tokenPattern.FindAllStringSubmatch(content, -1)

	depth := 0
	seen := make(map[string]bool)
	var vars []string
	for _, m := range matches {
		token := m[1]
		switch {
		case strings.HasPrefix(token, "#"), strings.HasPrefix(token, "^"):
			depth++
		case strings.HasPrefix(token, "/"):
			if depth > 0 {
				depth--
			}
		case strings.HasPrefix(token, "!"):
			// comment token
		default:
			if depth == 0 && !seen[token] {
				seen[token] = true
				vars = append(vars, token)
			}
		}
	}
	return vars
}

func stringify(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// normalizeConfig coerces whatever the write or load path handed us into
// a plain map. Serialized JSON strings are parsed; anything unparseable
// or of the wrong shape normalizes to an empty map rather than failing
// the load.
func normalizeConfig(raw interface{}) map[string]interface{} {
	switch v := raw.(type) {
	case nil:
		return map[string]interface{}{}
	case map[string]interface{}:
		if v == nil {
			return map[string]interface{}{}
		}
		return v
	case string:
		return parseConfigJSON([]byte(v))
	case []byte:
		return parseConfigJSON(v)
	default:
		return map[string]interface{}{}
	}
}

func parseConfigJSON(data []byte) map[string]interface{} {
	if len(data) == 0 {
		return map[string]interface{}{}
	}
	var cfg map[string]interface{}
	if err := json.Unmarshal(data, &cfg); err != nil || cfg == nil {
		return map[string]interface{}{}
	}
	return cfg
}
