package routing

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// RouteGroup registers routes under a common prefix and wrapper chain
//
//	router.Group("/editor/", func(g *RouteGroup) {
//		g.HandleFunc("POST sessions", create)          // "POST /editor/sessions"
//		g.Group("{sid}/", func(sg *RouteGroup) {
//			sg.HandleFunc("GET state", state)          // "GET /editor/{sid}/state"
//		}, sessionWrapper)
//	}, recoverWrapper)
type RouteGroup struct {
	Router          // [Embedded Interface]
	Prefix          string
	HandlerWrappers []HandlerWrapper // Group Handler Wrappers
}

// Ensure RouteGroup implements Router
var _ Router = (*RouteGroup)(nil)

// joinPattern turns "<method> <subpath>" or "<subpath>" into a full mux pattern
func (g *RouteGroup) joinPattern(subpattern string) string {
	full := g.Prefix + subpattern
	if method, subpath, ok := strings.Cut(subpattern, " "); ok {
		full = method + " " + g.Prefix + subpath
	}
	if strings.Contains(full, "//") {
		panic(fmt.Sprintf("routing: bad pattern %q", full))
	}
	return full
}

// Handle registers a route. Group wrappers run before the route's own wrappers,
// in the order they were given.
func (g *RouteGroup) Handle(subpattern string, handler http.Handler, handlerWrappers ...HandlerWrapper) {
	g.Router.Handle(g.joinPattern(subpattern), wrap(wrap(handler, handlerWrappers), g.HandlerWrappers))
}

func (g *RouteGroup) HandleFunc(subpattern string, handleFunc func(http.ResponseWriter, *http.Request), handlerWrappers ...HandlerWrapper) {
	g.Handle(subpattern, http.HandlerFunc(handleFunc), handlerWrappers...)
}

// Group makes a subgroup sharing the router. Its wrappers follow the parent's.
func (g *RouteGroup) Group(subPrefix string, batch func(*RouteGroup), handlerWrappers ...HandlerWrapper) *RouteGroup {
	subg := &RouteGroup{
		Router:          g.Router,
		Prefix:          g.Prefix + subPrefix,
		HandlerWrappers: append(slices.Clip(g.HandlerWrappers), handlerWrappers...),
	}
	batch(subg)
	return subg
}
