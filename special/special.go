// Package special contains handlers for built-in utility pages that are not
// backed by a stored wiki page, such as the requested-pages index.
package special

import (
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Handler defines the interface for special page handlers.
type Handler interface {
	Handle(rw http.ResponseWriter, req *http.Request)
}

// Registry holds all registered special pages, keyed by lower-cased name.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates a new special page registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a special page handler to the registry.
func (r *Registry) Register(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.ToLower(name)] = handler
}

// Get retrieves a special page handler by name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[strings.ToLower(name)]
	return handler, ok
}

// Names returns the registered special page names in sorted order.
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
