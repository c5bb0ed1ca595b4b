package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vasapolrittideah/vivah-booking-api/shared/pricing"
)

// JWTClaims represents the claims carried by a session token.
// SessionID mirrors the registered jti claim.
type JWTClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Session is what a successful register or login hands back to the caller.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Identity is the authenticated principal behind a validated token.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
}

// PaymentReceipt confirms a simulated advance payment.
type PaymentReceipt struct {
	Reference   string              `json:"reference"`
	UserID      string              `json:"user_id"`
	VenueID     string              `json:"venue_id"`
	VenueName   string              `json:"venue_name"`
	PackageTier string              `json:"package_tier,omitempty"`
	Quote       pricing.Quote       `json:"quote"`
	EMI         pricing.EMISchedule `json:"emi"`
	AmountPaid  int64               `json:"amount_paid"`
	PaidAt      time.Time           `json:"paid_at"`
}
