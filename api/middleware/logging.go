package middleware

import (
	"net/http"
	"time"

	"beacons-hub/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// responseWriterInterceptor captures the status code written by handlers.
type responseWriterInterceptor struct {
	http.ResponseWriter
	statusCode int
}

// newResponseWriterInterceptor defaults to 200, as WriteHeader is not always called.
func newResponseWriterInterceptor(w http.ResponseWriter) *responseWriterInterceptor {
	return &responseWriterInterceptor{w, http.StatusOK}
}

func (rwi *responseWriterInterceptor) WriteHeader(code int) {
	rwi.statusCode = code
	rwi.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs every request with its status and duration.
func LoggingMiddleware(lg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			rwi := newResponseWriterInterceptor(w)
			next.ServeHTTP(rwi, r)

			fields := map[string]any{
				"remote_addr": r.RemoteAddr,
				"user_agent":  r.UserAgent(),
			}
			if id := chimw.GetReqID(r.Context()); id != "" {
				fields["request_id"] = id
			}

			lg.HTTP(r.Method, r.URL.Path, rwi.statusCode, time.Since(startTime), fields)
		})
	}
}
