package middleware

import (
	"net/http"
	"time"

	logpkg "github.com/benvon/trajectory/internal/logger"
	"github.com/benvon/trajectory/internal/request"
	"github.com/benvon/trajectory/internal/services/ai"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logging writes one http_request entry per request. Server errors log at
// error level, client errors at warn, everything else at info.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			if ce := logger.Check(levelFor(rec.status), "http_request"); ce != nil {
				ce.Write(
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.Int("status_code", rec.status),
					zap.Int("bytes", rec.bytes),
					zap.Int64("duration_ms", time.Since(start).Milliseconds()),
					zap.String("client_ip", request.ClientIP(r)),
					zap.String("request_id", ai.ExtractRequestID(r.Context())),
				)
			}
		})
	}
}

func levelFor(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// statusRecorder remembers the first status written and counts body bytes
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.wroteHeader {
		rec.status = code
		rec.wroteHeader = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	rec.wroteHeader = true
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}
