package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/vivah-booking-api/shared/utilities"
)

// RateLimit allows limit requests per window for each client identity. Rejected requests get
// 429 with the limiter's Retry-After header mirrored as retry_after in the JSON body.
// name labels log lines.
func RateLimit(name string, limit int, window time.Duration, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(clientKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			seconds := retryAfterSeconds(w.Header(), window)

			logger.Warn().
				Str("limiter", name).
				Str("client", utilities.ClientIdentity(r)).
				Str("method", r.Method).
				Str("route", r.URL.Path).
				Int("retry_after", seconds).
				Msg("rate limit exceeded")

			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			payload.WriteJSON(w, http.StatusTooManyRequests, payload.ErrorResponse{
				Error:      "too many requests, please try again later",
				RetryAfter: seconds,
			})
		}),
		httprate.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error().Err(err).Str("limiter", name).Msg("rate limit counter failed")
			payload.WriteError(w, http.StatusInternalServerError, payload.GenericErrorMessage)
		}),
	)
}

func clientKey(r *http.Request) (string, error) {
	return utilities.ClientIdentity(r), nil
}

func retryAfterSeconds(h http.Header, window time.Duration) int {
	if seconds, err := strconv.Atoi(h.Get("Retry-After")); err == nil && seconds > 0 {
		return seconds
	}
	return max(int(window.Seconds()), 1)
}
