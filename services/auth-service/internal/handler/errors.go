package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/vivah-booking-api/shared/catalog"
	"github.com/vasapolrittideah/vivah-booking-api/shared/logger"
	"github.com/vasapolrittideah/vivah-booking-api/shared/pricing"
)

var errInvalidBody = errors.New("invalid request body")

// errorWriter maps usecase errors to responses and logs every handled fault.
type errorWriter struct {
	logger      *zerolog.Logger
	development bool
}

func (e errorWriter) write(w http.ResponseWriter, r *http.Request, token string, err error) {
	var verrs payload.ValidationErrors

	event := e.logger.Info()
	status, message := http.StatusInternalServerError, payload.GenericErrorMessage

	switch {
	case errors.As(err, &verrs):
		e.log(event, r, token, err).Msg("validation failed")
		payload.WriteJSON(w, http.StatusBadRequest, payload.ErrorResponse{Error: "validation failed", Details: verrs})
		return
	case errors.Is(err, errInvalidBody):
		status, message = http.StatusBadRequest, errInvalidBody.Error()
	case errors.Is(err, usecase.ErrUserAlreadyExists):
		status, message = http.StatusBadRequest, "user already exists"
	case errors.Is(err, usecase.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, usecase.ErrMalformedToken),
		errors.Is(err, usecase.ErrTokenExpired),
		errors.Is(err, usecase.ErrSessionExpired):
		status, message = http.StatusUnauthorized, "authentication required"
	case errors.Is(err, catalog.ErrUnknownPackage),
		errors.Is(err, catalog.ErrUnknownVenue),
		errors.Is(err, catalog.ErrUnknownService),
		errors.Is(err, usecase.ErrVenueUnavailable),
		errors.Is(err, usecase.ErrVenueOverCapacity),
		errors.Is(err, pricing.ErrUnsupportedPlan):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, context.Canceled):
		e.log(event, r, token, err).Msg("request cancelled by client")
		return
	default:
		event = e.logger.Error()
	}

	e.log(event, r, token, err).Int("status", status).Msg("request failed")

	resp := payload.ErrorResponse{Error: message}
	if e.development && status >= http.StatusInternalServerError {
		resp.Detail = err.Error()
	}
	payload.WriteJSON(w, status, resp)
}

func (e errorWriter) log(event *zerolog.Event, r *http.Request, token string, err error) *zerolog.Event {
	event = event.Err(err).Str("method", r.Method).Str("route", r.URL.Path)
	if token != "" {
		event = event.Str("token", logger.RedactToken(token))
	}
	return event
}
