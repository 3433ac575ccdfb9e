package middleware

import (
	"net/http"
	"strconv"
	"time"
)

const (
	ProcessTimeHeader = "X-Process-Time"
	VersionHeader     = "X-Beacons-API-Version"
)

// headerWriter stamps the response headers right before they are sent.
type headerWriter struct {
	http.ResponseWriter
	start   time.Time
	version string
	written bool
}

func (hw *headerWriter) stamp() {
	if hw.written {
		return
	}
	hw.written = true
	h := hw.ResponseWriter.Header()
	h.Set(ProcessTimeHeader, strconv.FormatFloat(time.Since(hw.start).Seconds(), 'f', 6, 64))
	h.Set(VersionHeader, hw.version)
}

func (hw *headerWriter) WriteHeader(code int) {
	hw.stamp()
	hw.ResponseWriter.WriteHeader(code)
}

func (hw *headerWriter) Write(b []byte) (int, error) {
	hw.stamp()
	return hw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (hw *headerWriter) Unwrap() http.ResponseWriter {
	return hw.ResponseWriter
}

// ResponseHeaders adds the processing time in seconds and the API version to
// every response.
func ResponseHeaders(version string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(&headerWriter{ResponseWriter: w, start: time.Now(), version: version}, r)
		})
	}
}
