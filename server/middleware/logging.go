package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/whisper-api/logger"
)

// probePaths are polled by orchestrators and not logged.
var probePaths = map[string]bool{
	"/health":    true,
	"/liveness":  true,
	"/readiness": true,
	"/metrics":   true,
}

// RequestLogger logs one line per request with method, path, status,
// duration and bytes in/out. Probe paths are skipped. The level follows the
// status: 5xx error, 4xx warn, otherwise info.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if probePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			fields := logger.MergeWithDuration(map[string]interface{}{
				"method":           r.Method,
				"path":             r.URL.Path,
				logger.FieldStatus: rw.status,
				"bytes_in":         r.ContentLength,
				"bytes_out":        rw.written,
				"client_ip":        r.RemoteAddr,
			}, time.Since(start))

			l := log.WithContext(r.Context())
			switch {
			case rw.status >= 500:
				l.Error("Request completed", fields)
			case rw.status >= 400:
				l.Warn("Request completed", fields)
			default:
				l.Info("Request completed", fields)
			}
		})
	}
}

// recordingWriter remembers the first status code and counts body bytes.
// Flush and Unwrap pass through so gRPC over h2c keeps streaming.
type recordingWriter struct {
	http.ResponseWriter
	status  int
	written int64
	sent    bool
}

func (rw *recordingWriter) WriteHeader(code int) {
	if !rw.sent {
		rw.status = code
		rw.sent = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	rw.sent = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

func (rw *recordingWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *recordingWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
