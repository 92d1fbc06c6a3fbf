package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/theLastOfCats/contentgate/internal/logging"
)

const maxLoggedBody = 10000

// RequestID tags the request context and response with an X-Request-ID,
// reusing a well-formed inbound one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = logging.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// LoggingMiddleware logs every request at info. Bodies under 10KB are logged at debug.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logging.Ctx(r.Context())

		probe := log.Debug()
		debug := probe.Enabled()
		probe.Discard()
		var requestBody []byte
		if debug && r.Body != nil {
			requestBody, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if debug {
			wrapped.body = &bytes.Buffer{}
		}

		next.ServeHTTP(wrapped, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")

		if debug {
			if len(requestBody) > 0 && len(requestBody) < maxLoggedBody {
				log.Debug().Str("path", r.URL.Path).Str("request_body", string(requestBody)).Msg("request body")
			}
			if n := wrapped.body.Len(); n > 0 && n < maxLoggedBody {
				log.Debug().Str("path", r.URL.Path).Str("response_body", wrapped.body.String()).Msg("response body")
			}
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture status code and, when set, the body.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	body        *bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	if rw.body != nil && rw.body.Len() < maxLoggedBody {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
