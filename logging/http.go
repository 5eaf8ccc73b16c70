package logging

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-Id"

// Middleware installs a request-scoped logger tagged with a request id and the
// client address, and writes one access log line per request.
func Middleware(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", d).
				Msg("request")
		})(next)
		h = hlog.RemoteAddrHandler("ip")(h)
		h = hlog.RequestIDHandler("request_id", RequestIDHeader)(h)
		return hlog.NewHandler(l)(h)
	}
}
