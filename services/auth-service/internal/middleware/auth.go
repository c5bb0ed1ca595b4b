package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/repository"
	authtypes "github.com/vasapolrittideah/vivah-booking-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/vivah-booking-api/shared/logger"
	"github.com/vasapolrittideah/vivah-booking-api/shared/utilities"
)

type contextKey struct{ name string }

var (
	identityKey = contextKey{"identity"}
	tokenKey    = contextKey{"token"}
)

// TokenValidator resolves a bearer token to the identity behind it.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*authtypes.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token. The identity and the raw
// token are stored in the request context for the handlers.
func RequireAuth(validator TokenValidator, log *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := utilities.BearerToken(r)
			if !ok {
				log.Info().
					Str("method", r.Method).
					Str("route", r.URL.Path).
					Msg("missing bearer token")
				payload.WriteError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			identity, err := validator.Validate(r.Context(), token)
			if err != nil {
				event := log.Info()
				status, message := http.StatusUnauthorized, "authentication required"
				if errors.Is(err, repository.ErrStoreUnavailable) {
					event = log.Error()
					status, message = http.StatusInternalServerError, payload.GenericErrorMessage
				}

				event.Err(err).
					Str("method", r.Method).
					Str("route", r.URL.Path).
					Str("token", logger.RedactToken(token)).
					Msg("token rejected")
				payload.WriteError(w, status, message)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the identity stored by RequireAuth.
func IdentityFromContext(ctx context.Context) (*authtypes.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*authtypes.Identity)
	return identity, ok
}

// TokenFromContext returns the bearer token stored by RequireAuth.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok
}
