package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/kaamsetu/kaamsetu/pkg/requestid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger logs every completed request with its status and latency.
// Requests to quietPaths are logged at debug level, e.g. probes.
func Logger(quietPaths ...string) func(next http.Handler) http.Handler {
	quiet := make(map[string]struct{}, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := r.URL.Path
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			level := zapcore.InfoLevel
			switch _, isQuiet := quiet[path]; {
			case status >= 500:
				level = zapcore.ErrorLevel
			case status >= 400:
				level = zapcore.WarnLevel
			case isQuiet:
				level = zapcore.DebugLevel
			}

			logger := zap.S().Named("http").Desugar()
			if ce := logger.Check(level, "Request completed"); ce != nil {
				ce.Write(
					zap.String("request_id", requestid.FromRequest(r)),
					zap.String("method", r.Method),
					zap.String("path", path),
					zap.String("query", r.URL.RawQuery),
					zap.String("ip", clientIP(r)),
					zap.String("user-agent", r.UserAgent()),
					zap.Int("status", status),
					zap.Duration("latency", time.Since(start)),
					zap.Int("response_bytes", ww.BytesWritten()),
				)
			}
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
