package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/middleware"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/vivah-booking-api/shared/catalog"
)

const healthPath = "/health"

// RouterParams holds the dependencies of the HTTP surface.
type RouterParams struct {
	Logger         *zerolog.Logger
	Development    bool
	CORSOrigins    []string
	AuthUsecase    usecase.AuthUsecase
	PaymentUsecase usecase.PaymentUsecase
	Catalog        *catalog.Catalog
	Validator      *payload.Validator
	RateLimit      config.RateLimitConfig
	Now            func() time.Time
}

// NewRouter builds the chi router serving every route of the auth service.
func NewRouter(p RouterParams) http.Handler {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	errs := errorWriter{logger: p.Logger, development: p.Development}

	authHandler := &authHTTPHandler{authUsecase: p.AuthUsecase, validator: p.Validator, errors: errs}
	paymentHandler := &paymentHTTPHandler{paymentUsecase: p.PaymentUsecase, validator: p.Validator, errors: errs}
	catalogHandler := &catalogHTTPHandler{catalog: p.Catalog}
	healthHandler := &healthHTTPHandler{now: now}

	requireAuth := middleware.RequireAuth(p.AuthUsecase, p.Logger)
	authLimit := middleware.RateLimit("auth", p.RateLimit.AuthMax, p.RateLimit.AuthWindow, p.Logger)
	apiLimit := middleware.RateLimit("api", p.RateLimit.APIMax, p.RateLimit.APIWindow, p.Logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog(p.Logger, healthPath))
	r.Use(chimiddleware.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(chimiddleware.SetHeader("X-Frame-Options", "DENY"))
	r.Use(chimiddleware.SetHeader("Referrer-Policy", "strict-origin-when-cross-origin"))
	r.Use(chimiddleware.SetHeader("Permissions-Policy", "geolocation=(), microphone=(), camera=()"))
	r.Use(chimiddleware.SetHeader("X-XSS-Protection", "0"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   p.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		payload.WriteError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		payload.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get(healthPath, healthHandler.Health)

	r.Group(func(r chi.Router) {
		r.Use(apiLimit)

		r.Get("/catalog", catalogHandler.GetCatalog)

		r.Route("/auth", func(r chi.Router) {
			r.With(authLimit).Post("/register", authHandler.Register)
			r.With(authLimit).Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.With(requireAuth).Get("/me", authHandler.Me)
		})

		r.With(requireAuth).Get("/protected-resource", authHandler.ProtectedResource)
		r.With(requireAuth).Post("/payments", paymentHandler.ProcessPayment)
	})

	return r
}
