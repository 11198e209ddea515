// Package capability holds the startup-time registry of optional
// implementations (push sender, export storage, mirror store). Components
// that depend on an optional capability look it up instead of probing the
// runtime, and treat a missing entry as a no-op path.
package capability

import (
	"fmt"
	"sort"
	"sync"

	"github.com/staydesk/backend/internal/domain/shared"
)

// Well-known capability names
const (
	PushSender    = "push.sender"
	ExportStorage = "export.storage"
	MirrorStore   = "mirror.store"
	EventStream   = "event.stream"
)

// Registry maps capability names to implementations
type Registry struct {
	mu    sync.RWMutex
	impls map[string]any
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		impls: make(map[string]any),
	}
}

// Register adds an implementation under name
func (r *Registry) Register(name string, impl any) error {
	if name == "" {
		return fmt.Errorf("%w: capability name cannot be empty", shared.ErrInvalidInput)
	}
	if impl == nil {
		return fmt.Errorf("%w: capability '%s' cannot be nil", shared.ErrInvalidInput, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.impls[name]; exists {
		return fmt.Errorf("%w: capability '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.impls[name] = impl
	return nil
}

// Get returns the raw implementation registered under name
func (r *Registry) Get(name string) (any, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	impl, ok := r.impls[name]
	return impl, ok
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns registered capability names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.impls))
	for name := range r.impls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes a capability
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.impls[name]; !exists {
		return fmt.Errorf("%w: capability '%s' not found", shared.ErrNotFound, name)
	}
	delete(r.impls, name)
	return nil
}

// Lookup returns the capability registered under name as T. It reports false
// when nothing is registered or the registered value is not a T.
func Lookup[T any](r *Registry, name string) (T, bool) {
	var zero T
	impl, ok := r.Get(name)
	if !ok {
		return zero, false
	}
	typed, ok := impl.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
