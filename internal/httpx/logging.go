package httpx

import (
	"expvar"
	"log"
	"net/http"
	"strconv"
	"time"
)

var (
	requestsTotal    = expvar.NewInt("requests_total")
	requestsErrors   = expvar.NewInt("requests_errors_total")
	requestsByStatus = expvar.NewMap("requests_by_status")
)

// slowRequestThreshold marks requests worth calling out in the log line.
const slowRequestThreshold = time.Second

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs one line per request and keeps expvar counters
// by status class for the /metrics endpoint.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		writer := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(writer, r)
		elapsed := time.Since(start)

		requestsTotal.Add(1)
		requestsByStatus.Add(strconv.Itoa(writer.status/100)+"xx", 1)
		if writer.status >= http.StatusBadRequest {
			requestsErrors.Add(1)
		}

		suffix := ""
		if elapsed >= slowRequestThreshold {
			suffix = " slow=true"
		}
		log.Printf("request method=%s path=%s status=%d duration_ms=%d%s",
			r.Method, r.URL.Path, writer.status, elapsed.Milliseconds(), suffix)
	})
}
