package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// AccessLog attaches logger to each request context, tags it with a request id, and writes
// one access line per request. Paths in skip bypass the whole chain.
func AccessLog(logger *zerolog.Logger, skip ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		logged := hlog.NewHandler(*logger)(
			hlog.RequestIDHandler("request_id", "X-Request-ID")(
				hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
					hlog.FromRequest(r).Info().
						Str("method", r.Method).
						Str("route", r.URL.Path).
						Int("status", status).
						Int("size", size).
						Dur("duration", duration).
						Msg("request")
				})(next),
			),
		)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range skip {
				if r.URL.Path == path {
					next.ServeHTTP(w, r)
					return
				}
			}
			logged.ServeHTTP(w, r)
		})
	}
}
