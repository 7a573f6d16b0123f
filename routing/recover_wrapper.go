package routing

import (
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/zeptools/gw-pdfedit/requests"
	"github.com/zeptools/gw-pdfedit/responses"
)

// RecoverWrapper turns a handler panic into a 500
var RecoverWrapper = HandlerWrapperFunc(func(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[PANIC] recovered: %v\n%s", rec, debug.Stack())
				responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		inner.ServeHTTP(w, r)
	})
})

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// AccessLogWrapper logs one line per request
var AccessLogWrapper = HandlerWrapperFunc(func(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		inner.ServeHTTP(rec, r)
		log.Printf("[INFO][HTTP] %s %s %d %s %v", r.Method, r.URL.Path, rec.status, requests.GetClientIP(r), time.Since(start).Round(time.Microsecond))
	})
})
