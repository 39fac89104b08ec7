package command

import (
	"fmt"
	"sort"
)

// Registry maps command names to handlers. The table is built once at
// construction and never mutated afterward, so lookups are safe from any
// goroutine.
type Registry struct {
	handlers map[string]Handler
	fallback Handler
}

// Option customizes a registry during construction.
type Option func(*Registry) error

// WithHandler registers (or overrides) the handler for a command name.
func WithHandler(name string, h Handler) Option {
	return func(r *Registry) error {
		if name == "" {
			return fmt.Errorf("command name is required")
		}
		if h == nil {
			return fmt.Errorf("handler for %q is nil", name)
		}

		r.handlers[name] = h
		return nil
	}
}

// NewRegistry builds a registry from the given defaults plus any options.
// fallback handles messages that carry no recognized command and pagination
// callbacks; it is required.
func NewRegistry(defaults map[string]Handler, fallback Handler, opts ...Option) (*Registry, error) {
	if fallback == nil {
		return nil, fmt.Errorf("fallback handler is required")
	}

	r := &Registry{
		handlers: make(map[string]Handler, len(defaults)),
		fallback: fallback,
	}
	for name, h := range defaults {
		if h == nil {
			return nil, fmt.Errorf("default handler for %q is nil", name)
		}
		r.handlers[name] = h
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Lookup returns the handler registered for name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Fallback returns the handler for uncommanded messages and pagination
// callbacks.
func (r *Registry) Fallback() Handler {
	return r.fallback
}

// Commands lists the registered command names in sorted order.
func (r *Registry) Commands() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
