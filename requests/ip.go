package requests

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP is the throttle key of a request. Behind the proxy the first
// X-Forwarded-For hop wins, then X-Real-IP, then the peer address.
func GetClientIP(r *http.Request) string {
	for _, h := range [...]string{"X-Forwarded-For", "X-Real-IP"} {
		first, _, _ := strings.Cut(r.Header.Get(h), ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
