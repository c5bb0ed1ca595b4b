package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/handler"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/vivah-booking-api/shared/auth"
	"github.com/vasapolrittideah/vivah-booking-api/shared/catalog"
	"github.com/vasapolrittideah/vivah-booking-api/shared/pricing"
	"github.com/vasapolrittideah/vivah-booking-api/shared/security"
)

const allowedOrigin = "http://localhost:5173"

func newTestRouter(t *testing.T, authMax int) http.Handler {
	t.Helper()

	backend, err := repository.NewFileBackend(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	logger := zerolog.Nop()
	tokenCfg := config.TokenConfig{Secret: "0123456789abcdef0123456789abcdef", Issuer: "vivah-auth", Audience: "vivah-booking", TTL: time.Hour}

	authUsecase := usecase.NewAuthUsecase(
		repository.NewSessionRepository(backend, &logger),
		repository.NewUserRepository(backend, &logger),
		auth.NewJWTAuthenticator(tokenCfg.Audience, tokenCfg.Issuer),
		security.NewPasswordHasher(security.HashConfig{TimeCost: 1, MemoryCost: 8 * 1024, Parallelism: 1}),
		tokenCfg,
	)

	validator, err := payload.NewValidator()
	require.NoError(t, err)

	cat := catalog.Default()

	return handler.NewRouter(handler.RouterParams{
		Logger:         &logger,
		CORSOrigins:    []string{allowedOrigin},
		AuthUsecase:    authUsecase,
		PaymentUsecase: usecase.NewPaymentUsecase(cat, pricing.DefaultConfig(), 0, nil, &logger),
		Catalog:        cat,
		Validator:      validator,
		RateLimit:      config.RateLimitConfig{
			AuthMax:    authMax,
			AuthWindow: 15 * time.Minute,
			APIMax:     1000,
			APIWindow:  time.Hour,
		},
	})
}

type request struct {
	method  string
	path    string
	token   string
	body    any
	headers map[string]string
}

func do(t *testing.T, h http.Handler, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if req.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(req.body))
	}

	r := httptest.NewRequest(req.method, req.path, &body)
	r.Header.Set("Content-Type", "application/json")
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func credentials(email, password string) map[string]string {
	return map[string]string{"email": email, "password": password}
}

func TestRouter_RegisterLoginLogoutScenario(t *testing.T) {
	h := newTestRouter(t, 5)

	rec := do(t, h, request{method: http.MethodPost, path: "/auth/register", body: credentials("alice@example.com", "Password1")})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	t1 := decode[payload.AuthResponse](t, rec)
	assert.True(t, t1.Success)
	assert.NotEmpty(t, t1.Token)

	rec = do(t, h, request{method: http.MethodPost, path: "/auth/login", body: credentials("alice@example.com", "Password1")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	t2 := decode[payload.AuthResponse](t, rec)
	assert.NotEqual(t, t1.Token, t2.Token)
	assert.Equal(t, t1.UserID, t2.UserID)

	for _, token := range []string{t1.Token, t2.Token} {
		rec = do(t, h, request{method: http.MethodGet, path: "/auth/me", token: token})
		require.Equal(t, http.StatusOK, rec.Code)
		me := decode[payload.MeResponse](t, rec)
		assert.Equal(t, "alice@example.com", me.User.Email)
	}

	for i := 0; i < 2; i++ {
		rec = do(t, h, request{method: http.MethodPost, path: "/auth/logout", token: t1.Token})
		assert.Equal(t, http.StatusOK, rec.Code, "logout #%d", i+1)
	}

	rec = do(t, h, request{method: http.MethodGet, path: "/auth/me", token: t1.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(t, h, request{method: http.MethodGet, path: "/protected-resource", token: t1.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, request{method: http.MethodGet, path: "/auth/me", token: t2.Token})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, request{method: http.MethodGet, path: "/protected-resource", token: t2.Token})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RegisterValidationListsEveryField(t *testing.T) {
	h := newTestRouter(t, 5)

	rec := do(t, h, request{method: http.MethodPost, path: "/auth/register", body: credentials("not-an-email", "weak")})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[payload.ErrorResponse](t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "validation failed", resp.Error)

	var fields []string
	for _, d := range resp.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"email", "password"}, fields)
}

func TestRouter_RegisterRejectsMalformedBody(t *testing.T) {
	h := newTestRouter(t, 5)

	r := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decode[payload.ErrorResponse](t, rec).Error)
}

func TestRouter_DuplicateRegistrationAnyCase(t *testing.T) {
	h := newTestRouter(t, 5)

	rec := do(t, h, request{method: http.MethodPost, path: "/auth/register", body: credentials("alice@example.com", "Password1")})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, request{method: http.MethodPost, path: "/auth/register", body: credentials("ALICE@Example.com", "Password1")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "user already exists", decode[payload.ErrorResponse](t, rec).Error)
}

func TestRouter_LoginFailuresLookIdentical(t *testing.T) {
	h := newTestRouter(t, 5)

	rec := do(t, h, request{method: http.MethodPost, path: "/auth/register", body: credentials("alice@example.com", "Password1")})
	require.Equal(t, http.StatusCreated, rec.Code)

	wrong := do(t, h, request{method: http.MethodPost, path: "/auth/login", body: credentials("alice@example.com", "Password2")})
	unknown := do(t, h, request{method: http.MethodPost, path: "/auth/login", body: credentials("bob@example.com", "Password1")})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
}

func TestRouter_AuthRateLimitBoundary(t *testing.T) {
	h := newTestRouter(t, 5)
	attacker := map[string]string{"X-Forwarded-For": "203.0.113.9"}

	for i := 0; i < 5; i++ {
		rec := do(t, h, request{method: http.MethodPost, path: "/auth/login", body: credentials("x@example.com", "Password1"), headers: attacker})
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}

	rec := do(t, h, request{method: http.MethodPost, path: "/auth/login", body: credentials("x@example.com", "Password1"), headers: attacker})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Positive(t, decode[payload.ErrorResponse](t, rec).RetryAfter)

	rec = do(t, h, request{
		method:  http.MethodPost,
		path:    "/auth/login",
		body:    credentials("x@example.com", "Password1"),
		headers: map[string]string{"X-Forwarded-For": "198.51.100.4"},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_NeverRendersPasswords(t *testing.T) {
	h := newTestRouter(t, 5)

	var bodies []string
	rec := do(t, h, request{method: http.MethodPost, path: "/auth/register", body: credentials("alice@example.com", "Password1")})
	bodies = append(bodies, rec.Body.String())
	token := decode[payload.AuthResponse](t, rec).Token

	rec = do(t, h, request{method: http.MethodPost, path: "/auth/login", body: credentials("alice@example.com", "Password1")})
	bodies = append(bodies, rec.Body.String())
	rec = do(t, h, request{method: http.MethodGet, path: "/auth/me", token: token})
	bodies = append(bodies, rec.Body.String())
	rec = do(t, h, request{method: http.MethodGet, path: "/protected-resource", token: token})
	bodies = append(bodies, rec.Body.String())

	for _, body := range bodies {
		assert.NotContains(t, body, "Password1")
		assert.NotContains(t, body, "argon2")
		assert.NotContains(t, body, "password_hash")
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	h := newTestRouter(t, 5)

	for _, req := range []request{
		{method: http.MethodGet, path: "/auth/me"},
		{method: http.MethodGet, path: "/protected-resource"},
		{method: http.MethodPost, path: "/payments", body: map[string]any{"venue_id": "1"}},
		{method: http.MethodGet, path: "/auth/me", token: "garbage"},
	} {
		rec := do(t, h, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, req.path)
		assert.Equal(t, "authentication required", decode[payload.ErrorResponse](t, rec).Error)
	}
}

func TestRouter_Payments(t *testing.T) {
	h := newTestRouter(t, 5)

	rec := do(t, h, request{method: http.MethodPost, path: "/auth/register", body: credentials("alice@example.com", "Password1")})
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decode[payload.AuthResponse](t, rec).Token

	rec = do(t, h, request{method: http.MethodPost, path: "/payments", token: token, body: map[string]any{
		"venue_id":    "3",
		"guest_count": 300,
		"emi_plan":    6,
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[payload.PaymentResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(194700), resp.Receipt.AmountPaid)
	assert.Equal(t, "Emerald Green Lawns", resp.Receipt.VenueName)

	rec = do(t, h, request{method: http.MethodPost, path: "/payments", token: token, body: map[string]any{
		"venue_id":    "4",
		"guest_count": 100,
		"emi_plan":    6,
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, request{method: http.MethodPost, path: "/payments", token: token, body: map[string]any{
		"venue_id":    "1",
		"guest_count": 100,
		"emi_plan":    9,
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation failed", decode[payload.ErrorResponse](t, rec).Error)
}

func TestRouter_CatalogAndHealth(t *testing.T) {
	h := newTestRouter(t, 5)

	rec := do(t, h, request{method: http.MethodGet, path: "/catalog"})
	require.Equal(t, http.StatusOK, rec.Code)
	cat := decode[catalog.Catalog](t, rec)
	assert.Len(t, cat.Packages, 3)
	assert.NotEmpty(t, cat.Venues)

	rec = do(t, h, request{method: http.MethodGet, path: "/health"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[payload.HealthResponse](t, rec).Status)
}

func TestRouter_UnknownRoutesAndMethods(t *testing.T) {
	h := newTestRouter(t, 5)

	rec := do(t, h, request{method: http.MethodGet, path: "/nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route not found", decode[payload.ErrorResponse](t, rec).Error)

	rec = do(t, h, request{method: http.MethodGet, path: "/auth/missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, request{method: http.MethodGet, path: "/auth/login"})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method not allowed", decode[payload.ErrorResponse](t, rec).Error)
}

func TestRouter_HeadersAndCORS(t *testing.T) {
	h := newTestRouter(t, 5)

	rec := do(t, h, request{method: http.MethodGet, path: "/health"})
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	preflight := func(origin string) *httptest.ResponseRecorder {
		return do(t, h, request{method: http.MethodOptions, path: "/auth/login", headers: map[string]string{
			"Origin":                        origin,
			"Access-Control-Request-Method": http.MethodPost,
		}})
	}

	rec = preflight(allowedOrigin)
	assert.Equal(t, allowedOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = preflight("https://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
