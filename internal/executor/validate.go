package executor

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/storepilot/storepilot/internal/registry"
)

// FieldError names one offending argument.
type FieldError struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ValidationError aggregates every argument problem found in one
// request, not just the first, so the model can fix them all at once.
type ValidationError struct {
	Op     string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Reason)
	}
	return fmt.Sprintf("invalid arguments for %q: %s", e.Op, strings.Join(parts, "; "))
}

// validateArgs checks raw against the schema and returns a copy with
// defaults injected for absent optional parameters.
func validateArgs(schema registry.Schema, raw map[string]any) (map[string]any, *ValidationError) {
	args := make(map[string]any, len(raw))
	for k, v := range raw {
		args[k] = v
	}

	var fields []FieldError
	known := make(map[string]bool, len(schema.Params))

	for _, p := range schema.Params {
		known[p.Name] = true
		v, present := args[p.Name]

		if !present {
			if p.Default != nil {
				args[p.Name] = p.Default
				continue
			}
			if p.Required {
				fields = append(fields, FieldError{Name: p.Name, Reason: "required parameter missing"})
			}
			continue
		}

		if v == nil {
			if !p.Nullable {
				fields = append(fields, FieldError{Name: p.Name, Reason: "null is not allowed"})
			}
			continue
		}

		if reason := checkType(v, p.Type); reason != "" {
			fields = append(fields, FieldError{Name: p.Name, Reason: reason})
			continue
		}

		if len(p.Enum) > 0 {
			s, _ := v.(string)
			if !slices.Contains(p.Enum, s) {
				fields = append(fields, FieldError{
					Name:   p.Name,
					Reason: fmt.Sprintf("must be one of %s", strings.Join(p.Enum, ", ")),
				})
			}
		}
	}

	for name := range raw {
		if !known[name] {
			fields = append(fields, FieldError{Name: name, Reason: "unknown parameter"})
		}
	}

	if len(fields) > 0 {
		// Deterministic ordering for tests and logs.
		slices.SortFunc(fields, func(a, b FieldError) int {
			return strings.Compare(a.Name, b.Name)
		})
		return nil, &ValidationError{Op: schema.Name, Fields: fields}
	}
	return args, nil
}

func checkType(v any, want string) string {
	switch want {
	case registry.TypeString:
		if _, ok := v.(string); ok {
			return ""
		}
	case registry.TypeBoolean:
		if _, ok := v.(bool); ok {
			return ""
		}
	case registry.TypeNumber:
		if isNumber(v) {
			return ""
		}
	case registry.TypeInteger:
		if isInteger(v) {
			return ""
		}
	case registry.TypeObject:
		if _, ok := v.(map[string]any); ok {
			return ""
		}
	case registry.TypeArray:
		if _, ok := v.([]any); ok {
			return ""
		}
	default:
		return fmt.Sprintf("unsupported schema type %q", want)
	}
	return fmt.Sprintf("expected %s, got %T", want, v)
}

func isNumber(v any) bool {
	switch n := v.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := n.Float64()
		return err == nil
	}
	return false
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return math.Trunc(n) == n
	case float32:
		return math.Trunc(float64(n)) == float64(n)
	case json.Number:
		_, err := n.Int64()
		return err == nil
	}
	return false
}
