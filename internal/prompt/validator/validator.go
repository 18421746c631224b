// internal/prompt/validator/validator.go
package validator

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Rule describes the constraints for one configuration key.
type Rule struct {
	Type     string        `json:"type"` // integer, float, string, boolean, array, map
	Required bool          `json:"required,omitempty"`
	Min      *float64      `json:"min,omitempty"` // inclusive, numeric types only
	Max      *float64      `json:"max,omitempty"` // inclusive, numeric types only
	Allowed  []interface{} `json:"allowed,omitempty"`
	ItemType string        `json:"itemType,omitempty"` // array element type
}

// Schema maps configuration keys to their rules.
type Schema map[string]Rule

// Report is the accumulated outcome of a validation run. Errors are
// never truncated to the first failure.
type Report struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// DefaultSchema covers the model parameters every template version may
// carry.
func DefaultSchema() Schema {
	return Schema{
		"model":       {Type: "string"},
		"temperature": {Type: "float", Min: bound(0), Max: bound(2)},
		"max_tokens":  {Type: "integer", Min: bound(1), Max: bound(100000)},
		"top_p":       {Type: "float", Min: bound(0), Max: bound(1)},
		"stop":        {Type: "array", ItemType: "string"},
		"stream":      {Type: "boolean"},
	}
}

func bound(v float64) *float64 { return &v }

// Validate checks a configuration payload against a schema. Numeric
// strings are coerced in place before type checking. A nil or empty
// config is trivially valid; a non-map payload yields a single error
// and no further checks. In strict mode keys absent from the schema are
// reported together as one error.
func Validate(config interface{}, schema Schema, strict bool) Report {
	if config == nil {
		return Report{Valid: true}
	}

	cfg, ok := config.(map[string]interface{})
	if !ok {
		return Report{Valid: false, Errors: []string{"configuration must be a map"}}
	}
	if len(cfg) == 0 {
		return Report{Valid: true}
	}

	var errs []string

	keys := make([]string, 0, len(schema))
	for key := range schema {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rule := schema[key]
		value, present := cfg[key]
		if !present {
			if rule.Required {
				errs = append(errs, fmt.Sprintf("%s is required", key))
			}
			continue
		}

		// Numeric-looking strings are coerced in place so downstream
		// consumers see the typed value.
		if coerced, ok := coerceNumeric(value, rule.Type); ok {
			value = coerced
			cfg[key] = coerced
		}

		if !matchesType(value, rule.Type) {
			errs = append(errs, fmt.Sprintf("%s must be %s", key, typeLabel(rule.Type)))
			continue
		}

		if num, ok := numericValue(value); ok && (rule.Min != nil || rule.Max != nil) {
			if (rule.Min != nil && num < *rule.Min) || (rule.Max != nil && num > *rule.Max) {
				errs = append(errs, fmt.Sprintf("%s must be between %s and %s",
					key, formatBound(rule.Min), formatBound(rule.Max)))
			}
		}

		if len(rule.Allowed) > 0 && !isAllowed(value, rule.Allowed) {
			errs = append(errs, fmt.Sprintf("%s must be one of %s", key, formatAllowed(rule.Allowed)))
		}

		if rule.ItemType != "" {
			if items, ok := value.([]interface{}); ok {
				for i, item := range items {
					if !matchesType(item, rule.ItemType) {
						errs = append(errs, fmt.Sprintf("%s[%d] must be %s", key, i, typeLabel(rule.ItemType)))
					}
				}
			}
		}
	}

	if strict {
		var unknown []string
		for key := range cfg {
			if _, ok := schema[key]; !ok {
				unknown = append(unknown, key)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			errs = append(errs, fmt.Sprintf("unknown configuration keys: %s", strings.Join(unknown, ", ")))
		}
	}

	return Report{Valid: len(errs) == 0, Errors: errs}
}

// ValidateDocument checks a configuration payload against a raw JSON
// Schema document. The error return covers an unparseable schema, not a
// failing payload.
func ValidateDocument(config map[string]interface{}, schemaJSON string) (Report, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return Report{}, fmt.Errorf("invalid schema document: %w", err)
	}

	if result.Valid() {
		return Report{Valid: true}, nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return Report{Valid: false, Errors: errs}, nil
}

// coerceNumeric converts numeric-looking strings for numeric rules.
func coerceNumeric(value interface{}, ruleType string) (interface{}, bool) {
	str, ok := value.(string)
	if !ok {
		return nil, false
	}

	switch ruleType {
	case "integer":
		if n, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64); err == nil {
			return int(n), true
		}
	case "float":
		if f, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			return f, true
		}
	}
	return nil, false
}

func matchesType(value interface{}, ruleType string) bool {
	switch ruleType {
	case "integer":
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == math.Trunc(v)
		}
		return false
	case "float":
		_, ok := numericValue(value)
		return ok
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "map":
		_, ok := value.(map[string]interface{})
		return ok
	}
	// Unknown rule types don't constrain the value.
	return true
}

func typeLabel(ruleType string) string {
	switch ruleType {
	case "integer", "array":
		return "an " + ruleType
	case "map":
		return "a map"
	default:
		return "a " + ruleType
	}
}

func numericValue(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func formatBound(b *float64) string {
	if b == nil {
		return "-"
	}
	return strconv.FormatFloat(*b, 'f', -1, 64)
}

func isAllowed(value interface{}, allowed []interface{}) bool {
	for _, candidate := range allowed {
		if equalValues(value, candidate) {
			return true
		}
	}
	return false
}

func equalValues(a, b interface{}) bool {
	if na, ok := numericValue(a); ok {
		if nb, ok := numericValue(b); ok {
			return na == nb
		}
		return false
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func formatAllowed(allowed []interface{}) string {
	parts := make([]string, len(allowed))
	for i, v := range allowed {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, ", ")
}
