package rest

import (
	"net/http"
	"time"

	"github.com/oshokin/catpoint/internal/logger"
)

// ActorHeader carries "username@hostname" of the caller.
const ActorHeader = "X-Catpoint-Actor"

// Logger logs every request with its status and duration.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		ctx := logger.WithFields(r.Context(),
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
		)

		if actor := r.Header.Get(ActorHeader); actor != "" {
			ctx = logger.WithKV(ctx, "actor", actor)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r.WithContext(ctx))

		kvs := []any{"status", rw.statusCode, "duration", time.Since(started)}
		if rw.statusCode >= http.StatusInternalServerError {
			logger.WarnKV(ctx, "Request failed", kvs...)

			return
		}

		logger.DebugKV(ctx, "Request served", kvs...)
	})
}

// responseWriter captures the status code written by a handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader records the status code.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
