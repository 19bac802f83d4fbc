package middleware

import (
	"fmt"
	"net/http"
)

// DefaultMaxRequestSize caps request bodies. A habit create body is well under 1KB.
const DefaultMaxRequestSize int64 = 64 << 10

// MaxRequestSize rejects bodies with a declared length over maxBytes and caps
// streamed bodies so decoding fails once the limit is crossed.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}
	tooLarge := fmt.Sprintf("Request body must not exceed %d bytes", maxBytes)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large", tooLarge, nil)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
