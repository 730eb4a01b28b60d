package shell

import (
	"context"
	"sort"
	"sync"

	"github.com/Iron-Ham/taskpanel/internal/errors"
)

// Handler runs one trigger.
type Handler func(ctx context.Context) error

// Registry maps trigger names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds name to h. The returned release removes the binding.
// Registering a name twice is an error.
func (r *Registry) Register(name string, h Handler) (release func(), err error) {
	if name == "" || h == nil {
		return nil, errors.NewValidationError("trigger needs a name and a handler").WithField("name").WithValue(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return nil, errors.NewValidationError("trigger already registered").WithField("name").WithValue(name)
	}
	r.handlers[name] = h

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.handlers, name)
	}, nil
}

// Lookup returns the handler for name.
func (r *Registry) Lookup(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	if !ok {
		return nil, errors.NewNotFoundError("trigger", name)
	}
	return h, nil
}

// Names returns the registered trigger names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
