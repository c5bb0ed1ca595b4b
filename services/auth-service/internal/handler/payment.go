package handler

import (
	"net/http"
	"time"

	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/middleware"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/vivah-booking-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/vivah-booking-api/shared/catalog"
)

type paymentHTTPHandler struct {
	paymentUsecase usecase.PaymentUsecase
	validator      *payload.Validator
	errors         errorWriter
}

func (h *paymentHTTPHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	token, _ := middleware.TokenFromContext(r.Context())

	var req payload.PaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.write(w, r, token, err)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		h.errors.write(w, r, token, err)
		return
	}

	receipt, err := h.paymentUsecase.ProcessPayment(r.Context(), identity, usecase.PaymentParams{
		PackageTier: req.PackageTier,
		VenueID:     req.VenueID,
		GuestCount:  req.GuestCount,
		ServiceIDs:  req.ServiceIDs,
		Insurance:   req.Insurance,
		WeddingDate: req.WeddingDate,
		EMIPlan:     req.EMIPlan,
	})
	if err != nil {
		h.errors.write(w, r, token, err)
		return
	}

	payload.WriteJSON(w, http.StatusOK, payload.PaymentResponse{
		Success: true,
		Message: "Payment processed successfully.",
		Receipt: *receipt,
	})
}

type catalogHTTPHandler struct {
	catalog *catalog.Catalog
}

func (h *catalogHTTPHandler) GetCatalog(w http.ResponseWriter, _ *http.Request) {
	payload.WriteJSON(w, http.StatusOK, payload.CatalogResponse{Success: true, Catalog: h.catalog})
}

type healthHTTPHandler struct {
	now func() time.Time
}

func (h *healthHTTPHandler) Health(w http.ResponseWriter, _ *http.Request) {
	payload.WriteJSON(w, http.StatusOK, payload.HealthResponse{Status: "ok", Timestamp: h.now().UTC()})
}
