package payload

import (
	"time"

	authtypes "github.com/vasapolrittideah/vivah-booking-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/vivah-booking-api/shared/catalog"
)

type PaymentRequest struct {
	PackageTier string    `json:"package_tier" validate:"omitempty,oneof=Silver Gold Platinum"`
	VenueID     string    `json:"venue_id"     validate:"required"`
	GuestCount  int       `json:"guest_count"  validate:"required,min=1,max=5000"`
	ServiceIDs  []string  `json:"service_ids"  validate:"omitempty,unique,dive,required"`
	Insurance   bool      `json:"insurance"`
	WeddingDate time.Time `json:"wedding_date"`
	EMIPlan     int       `json:"emi_plan"     validate:"required,oneof=6 12"`
}

type PaymentResponse struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Receipt authtypes.PaymentReceipt `json:"receipt"`
}

type CatalogResponse struct {
	Success bool `json:"success"`
	*catalog.Catalog
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
