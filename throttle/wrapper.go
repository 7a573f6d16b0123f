package throttle

import (
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/zeptools/gw-pdfedit/responses"
)

// Wrapper rejects requests with 429 once the caller's bucket in Group is empty.
// It implements routing.HandlerWrapper.
type Wrapper struct {
	Store *BucketStore[string]
	Group string
	Key   func(r *http.Request) string // bucket id of the caller, e.g. client ip
}

func (t *Wrapper) Wrap(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := t.Key(r)
		ok, wait := t.Store.Take(t.Group, key, time.Now())
		if !ok {
			log.Printf("[WARN][Throttle] %s throttled on %q", key, t.Group)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
			responses.WriteErrorJSON(w, http.StatusTooManyRequests, responses.CodeThrottled, "too many requests")
			return
		}
		inner.ServeHTTP(w, r)
	})
}

// retryAfterSeconds rounds up, never below 1
func retryAfterSeconds(wait time.Duration) int {
	return max(1, int(math.Ceil(wait.Seconds())))
}
