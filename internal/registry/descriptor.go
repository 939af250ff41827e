// Package registry holds the mapping from operation names to invocable
// descriptors: the schema advertised to the LLM plus the Go callable that
// implements the operation.
package registry

import (
	"context"
	"fmt"
)

// Supported parameter types. These are the only primitives the schema
// inference step will map Go types onto.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// Param describes a single named parameter of an operation.
type Param struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required"`
	Nullable    bool     `json:"nullable,omitempty"`
	Default     any      `json:"default,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Schema is the operation shape advertised to the model provider.
// Params preserve declaration order so advertisement is deterministic.
type Schema struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"parameters"`
}

// InputSchema renders the schema as a JSON-Schema-style object suitable
// for tool advertisement over the provider wire contract.
func (s Schema) InputSchema() map[string]any {
	props := make(map[string]any, len(s.Params))
	var required []string
	for _, p := range s.Params {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			vals := make([]any, len(p.Enum))
			for i, e := range p.Enum {
				vals[i] = e
			}
			prop["enum"] = vals
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Invoker is the uniform calling convention every registered callable is
// adapted to at registration time. Arguments arrive as the validated
// parameter map; the return value must be JSON-serializable.
type Invoker func(ctx context.Context, args map[string]any) (any, error)

// Descriptor pairs an operation schema with its callable. Descriptors are
// immutable after registration; replacing one swaps the whole value under
// the registry lock so concurrent readers never observe a partial update.
type Descriptor struct {
	Schema

	// Blocking marks callables that do synchronous, non-context-aware
	// work. The executor routes these through its bounded worker pool.
	Blocking bool

	invoke Invoker
}

// Invoke runs the underlying callable.
func (d *Descriptor) Invoke(ctx context.Context, args map[string]any) (any, error) {
	return d.invoke(ctx, args)
}

// NotFoundError is returned when an operation name is not registered.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("operation %q not found", e.Name)
}

// SchemaInferenceError is returned at registration time when a callable's
// declared parameters cannot be mapped onto the supported schema types.
type SchemaInferenceError struct {
	Operation string
	Field     string
	Reason    string
}

func (e *SchemaInferenceError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("operation %q: cannot infer schema for field %q: %s", e.Operation, e.Field, e.Reason)
	}
	return fmt.Sprintf("operation %q: cannot infer schema: %s", e.Operation, e.Reason)
}
