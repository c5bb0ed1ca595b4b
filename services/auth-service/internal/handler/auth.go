package handler

import (
	"net/http"

	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/middleware"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/vivah-booking-api/shared/utilities"
)

type authHTTPHandler struct {
	authUsecase usecase.AuthUsecase
	validator   *payload.Validator
	errors      errorWriter
}

func (h *authHTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.write(w, r, "", err)
		return
	}

	req.Normalize()
	if err := h.validator.Validate(&req); err != nil {
		h.errors.write(w, r, "", err)
		return
	}

	session, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errors.write(w, r, "", err)
		return
	}

	payload.WriteJSON(w, http.StatusCreated, payload.AuthResponse{
		Success:   true,
		Token:     session.Token,
		UserID:    session.UserID,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt,
	})
}

func (h *authHTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.write(w, r, "", err)
		return
	}

	req.Normalize()
	if err := h.validator.Validate(&req); err != nil {
		h.errors.write(w, r, "", err)
		return
	}

	session, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errors.write(w, r, "", err)
		return
	}

	payload.WriteJSON(w, http.StatusOK, payload.AuthResponse{
		Success:   true,
		Token:     session.Token,
		UserID:    session.UserID,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout revokes the presented token. It answers 200 whether or not the token was still live.
func (h *authHTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := utilities.BearerToken(r)
	if ok {
		if err := h.authUsecase.Logout(r.Context(), token); err != nil {
			h.errors.write(w, r, token, err)
			return
		}
	}

	payload.WriteJSON(w, http.StatusOK, payload.MessageResponse{Success: true, Message: "logged out"})
}

func (h *authHTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	token, _ := middleware.TokenFromContext(r.Context())

	user, err := h.authUsecase.Me(r.Context(), identity)
	if err != nil {
		h.errors.write(w, r, token, err)
		return
	}

	payload.WriteJSON(w, http.StatusOK, payload.MeResponse{Success: true, User: payload.NewUserProfile(user)})
}

func (h *authHTTPHandler) ProtectedResource(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	payload.WriteJSON(w, http.StatusOK, payload.ProtectedResourceResponse{
		Success: true,
		Message: "Welcome! You have access to protected content.",
		UserID:  identity.UserID,
		Email:   identity.Email,
	})
}
