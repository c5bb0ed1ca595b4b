package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/vivah-booking-api/client/api"
	"github.com/vasapolrittideah/vivah-booking-api/client/booking"
	"github.com/vasapolrittideah/vivah-booking-api/shared/catalog"
	"github.com/vasapolrittideah/vivah-booking-api/shared/pricing"
)

const validToken = "token-1"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+validToken
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	expires := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	r := chi.NewRouter()

	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
			return
		}
		if body.Password != "Password1" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"token":      validToken,
			"user_id":    "u-1",
			"email":      body.Email,
			"expires_at": expires,
		})
	})
	r.Post("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"success": false, "error": "too many requests", "retry_after": 42})
	})
	r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "logged out"})
	})
	r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "authentication required"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"user":    map[string]any{"id": "u-1", "email": "alice@example.com"},
		})
	})
	r.Post("/payments", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "authentication required"})
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "payment successful",
			"receipt": map[string]any{
				"reference":   "ref-9",
				"user_id":     "u-1",
				"venue_id":    body["venue_id"],
				"amount_paid": 194700,
			},
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv
}

func TestClient_Login(t *testing.T) {
	srv := newServer(t)
	c := api.NewClient(srv.URL+"/", srv.Client())

	session, err := c.Login(context.Background(), "alice@example.com", "Password1")
	require.NoError(t, err)
	assert.Equal(t, validToken, session.Token)
	assert.Equal(t, "u-1", session.UserID)
	assert.Equal(t, "alice@example.com", session.Email)
	assert.False(t, session.ExpiresAt.IsZero())

	_, err = c.Login(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, booking.ErrAuthRequired)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid email or password", apiErr.Message)
}

func TestClient_MeAndLogout(t *testing.T) {
	srv := newServer(t)
	c := api.NewClient(srv.URL, srv.Client())

	identity, err := c.Me(context.Background(), validToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", identity.UserID)
	assert.Equal(t, "alice@example.com", identity.Email)

	_, err = c.Me(context.Background(), "revoked")
	assert.ErrorIs(t, err, booking.ErrAuthRequired)

	assert.NoError(t, c.Logout(context.Background(), validToken))
	assert.NoError(t, c.Logout(context.Background(), ""))
}

func TestClient_Pay(t *testing.T) {
	srv := newServer(t)
	c := api.NewClient(srv.URL, srv.Client())

	req := booking.PaymentRequest{VenueID: "3", GuestCount: 300, EMIPlan: 6}

	receipt, err := c.Pay(context.Background(), validToken, req)
	require.NoError(t, err)
	assert.Equal(t, "ref-9", receipt.Reference)
	assert.Equal(t, "3", receipt.VenueID)
	assert.Equal(t, int64(194700), receipt.AmountPaid)

	_, err = c.Pay(context.Background(), "expired", req)
	assert.ErrorIs(t, err, booking.ErrAuthRequired)
}

func TestClient_RateLimited(t *testing.T) {
	srv := newServer(t)
	c := api.NewClient(srv.URL, srv.Client())

	_, err := c.Register(context.Background(), "alice@example.com", "Password1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, booking.ErrAuthRequired)

	wait, ok := api.IsRateLimited(err)
	assert.True(t, ok)
	assert.Equal(t, 42*time.Second, wait)

	_, ok = api.IsRateLimited(errors.New("boom"))
	assert.False(t, ok)
}

func TestClient_DrivesController(t *testing.T) {
	srv := newServer(t)
	c := api.NewClient(srv.URL, srv.Client())

	ctrl := booking.NewController(catalog.Default(), pricing.DefaultConfig(), c, c)
	require.NoError(t, ctrl.Resume(context.Background(), validToken))
	assert.True(t, ctrl.IsAuthenticated())
	assert.Equal(t, "alice@example.com", ctrl.State().Email)

	ctrl.Logout(context.Background())
	assert.False(t, ctrl.IsAuthenticated())
}
