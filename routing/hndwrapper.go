package routing

import "net/http"

// HandlerWrapper is a middleware: Wrap returns a handler running its own logic
// around the inner one
type HandlerWrapper interface {
	Wrap(http.Handler) http.Handler
}

// HandlerWrapperFunc adapts a plain middleware func to a HandlerWrapper
type HandlerWrapperFunc func(http.Handler) http.Handler

func (f HandlerWrapperFunc) Wrap(inner http.Handler) http.Handler {
	return f(inner)
}
