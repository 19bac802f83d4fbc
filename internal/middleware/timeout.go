package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds every handler. Analysis runs outside the request, so this only covers registry work.
const DefaultRequestTimeout = 30 * time.Second

// timeoutBody is what http.TimeoutHandler writes on expiry, shaped like the other error envelopes
const timeoutBody = `{"success":false,"error":"Service Unavailable","message":"Request timed out"}`

// Timeout wraps handlers in http.TimeoutHandler
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
