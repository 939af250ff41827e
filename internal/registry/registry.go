package registry

import (
	"context"
	"fmt"
	"sync"
)

// Registry maps operation names to descriptors. It is read-mostly:
// registration normally completes at startup, after which lookups are
// safe from any number of concurrent sessions.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Descriptor
	order  []string
}

// New returns an empty registry. Each session or test can own its own
// instance; there is no package-level singleton.
func New() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

type regOptions struct {
	schema   []Param
	blocking bool
}

// Option customizes a single registration.
type Option func(*regOptions)

// WithSchema supplies an explicit parameter schema instead of inferring
// one. The callable must then have the raw Invoker signature.
func WithSchema(params []Param) Option {
	return func(o *regOptions) { o.schema = params }
}

// WithBlocking marks the callable as synchronous and non-context-aware,
// routing it through the executor's worker pool.
func WithBlocking() Option {
	return func(o *regOptions) { o.blocking = true }
}

// Register adds or replaces the operation under name. When no explicit
// schema is supplied, fn must be func(context.Context, T) (R, error) with
// a struct T; the schema is inferred from T's fields. Re-registering an
// existing name atomically replaces the prior descriptor and keeps its
// position in the listing order.
func (r *Registry) Register(name, description string, fn any, opts ...Option) error {
	if name == "" {
		return fmt.Errorf("register: operation name is empty")
	}
	var o regOptions
	for _, opt := range opts {
		opt(&o)
	}

	var params []Param
	var invoke Invoker
	if o.schema != nil {
		switch f := fn.(type) {
		case Invoker:
			invoke = f
		case func(ctx context.Context, args map[string]any) (any, error):
			invoke = f
		default:
			return &SchemaInferenceError{Operation: name, Reason: "explicit schema requires an Invoker callable"}
		}
		params = o.schema
	} else {
		var err error
		params, invoke, err = inferDescriptor(name, fn)
		if err != nil {
			return err
		}
	}

	d := &Descriptor{
		Schema: Schema{
			Name:        name,
			Description: description,
			Params:      params,
		},
		Blocking: o.blocking,
		invoke:   invoke,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	r.byName[name] = d
	return nil
}

// Get returns the descriptor for name or a NotFoundError.
func (r *Registry) Get(name string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return d, nil
}

// List returns all descriptors in registration order. The order is stable
// across calls so provider advertisement is deterministic.
func (r *Registry) List() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Schemas returns the operation schemas in registration order, ready for
// provider advertisement.
func (r *Registry) Schemas() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Schema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].Schema)
	}
	return out
}

// Len reports the number of registered operations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
