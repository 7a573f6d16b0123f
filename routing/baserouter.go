package routing

import (
	"net/http"
	"slices"
	"sync"
)

// BaseRouter is a ServeMux that remembers what was registered on it
type BaseRouter struct {
	*http.ServeMux // Embedded

	mu       sync.Mutex
	patterns []string
}

// Ensure BaseRouter implements Router
var _ Router = (*BaseRouter)(nil)

func NewRouter() *BaseRouter {
	return &BaseRouter{ServeMux: http.NewServeMux()}
}

// Handle registers a route pattern
func (r *BaseRouter) Handle(pattern string, handler http.Handler, handlerWrappers ...HandlerWrapper) {
	r.ServeMux.Handle(pattern, wrap(handler, handlerWrappers))
	r.mu.Lock()
	r.patterns = append(r.patterns, pattern)
	r.mu.Unlock()
}

func (r *BaseRouter) HandleFunc(pattern string, handleFunc func(http.ResponseWriter, *http.Request), handlerWrappers ...HandlerWrapper) {
	r.Handle(pattern, http.HandlerFunc(handleFunc), handlerWrappers...)
}

// Group registers routes under a common prefix and wrappers
func (r *BaseRouter) Group(prefix string, batch func(*RouteGroup), handlerWrappers ...HandlerWrapper) *RouteGroup {
	g := &RouteGroup{
		Router:          r,
		Prefix:          prefix,
		HandlerWrappers: handlerWrappers,
	}
	batch(g)
	return g
}

// Patterns lists the registered patterns, sorted
func (r *BaseRouter) Patterns() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(r.patterns)
	slices.Sort(out)
	return out
}

// wrap nests handler so that wrappers[0] runs first
func wrap(handler http.Handler, wrappers []HandlerWrapper) http.Handler {
	for i := len(wrappers) - 1; i >= 0; i-- {
		handler = wrappers[i].Wrap(handler)
	}
	return handler
}
