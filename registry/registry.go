// Package registry provides the insertion-ordered capability registry.
//
// A Registry maps an identifier (tool name or resource URI) to a binding.
// It is built once at startup and only read afterwards; the lock exists so
// concurrent transports can share it.
package registry

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicate is returned by Register in strict mode when the identifier
// is already bound.
var ErrDuplicate = errors.New("registry: duplicate identifier")

// ErrEmptyKey is returned when a binding has an empty identifier.
var ErrEmptyKey = errors.New("registry: empty identifier")

// Option configures a Registry.
type Option func(*config)

type config struct {
	strict   bool
	onInsert func(key string, replaced bool)
}

// RejectDuplicates makes Register fail with ErrDuplicate instead of
// replacing an existing binding.
func RejectDuplicates() Option {
	return func(c *config) {
		c.strict = true
	}
}

// OnRegister sets a hook called after every successful registration.
// replaced reports whether an earlier binding was overwritten.
func OnRegister(fn func(key string, replaced bool)) Option {
	return func(c *config) {
		c.onInsert = fn
	}
}

// Registry is an insertion-ordered map from identifier to binding.
type Registry[T any] struct {
	mu    sync.RWMutex
	cfg   config
	keyOf func(T) string
	order []string
	items map[string]T
}

// New creates an empty registry. keyOf extracts the identifier of a binding.
func New[T any](keyOf func(T) string, opts ...Option) *Registry[T] {
	r := &Registry[T]{
		keyOf: keyOf,
		items: make(map[string]T),
	}
	for _, opt := range opts {
		opt(&r.cfg)
	}
	return r
}

// Register binds item under its identifier.
//
// By default a later registration for the same identifier replaces the
// earlier binding and keeps its position in List. In strict mode it fails
// with ErrDuplicate.
func (r *Registry[T]) Register(item T) error {
	key := r.keyOf(item)
	if key == "" {
		return ErrEmptyKey
	}

	r.mu.Lock()
	_, exists := r.items[key]
	if exists && r.cfg.strict {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicate, key)
	}
	if !exists {
		r.order = append(r.order, key)
	}
	r.items[key] = item
	r.mu.Unlock()

	if r.cfg.onInsert != nil {
		r.cfg.onInsert(key, exists)
	}
	return nil
}

// MustRegister registers every item and panics on the first error.
// It is meant for static startup lists.
func (r *Registry[T]) MustRegister(items ...T) {
	for _, item := range items {
		if err := r.Register(item); err != nil {
			panic(err)
		}
	}
}

// Get returns the binding for key.
func (r *Registry[T]) Get(key string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[key]
	return item, ok
}

// List returns all bindings in registration order.
func (r *Registry[T]) List() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]T, 0, len(r.order))
	for _, key := range r.order {
		result = append(result, r.items[key])
	}
	return result
}

// Keys returns all identifiers in registration order.
func (r *Registry[T]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of bindings.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
