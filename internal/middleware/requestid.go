package middleware

import (
	"net/http"

	"github.com/benvon/trajectory/internal/request"
	"github.com/benvon/trajectory/internal/services/ai"
)

// RequestID echoes or assigns an X-Request-ID and carries it in the request context
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := request.RequestID(r)
		w.Header().Set(request.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ai.WithRequestID(r.Context(), id)))
	})
}
