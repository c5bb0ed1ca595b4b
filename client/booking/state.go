package booking

import (
	"slices"
	"time"

	authtypes "github.com/vasapolrittideah/vivah-booking-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/vivah-booking-api/shared/catalog"
)

// Preferences is what the onboarding step captures.
type Preferences struct {
	City       string
	GuestCount int
	Budget     string
	Vibe       string
}

// State is a snapshot of the booking in progress.
type State struct {
	WeddingDate   time.Time
	Preferences   *Preferences
	PackageTier   catalog.PackageTier
	Venue         *catalog.Venue
	ServiceIDs    []string
	Insurance     bool
	Receipt       *authtypes.PaymentReceipt
	Authenticated bool
	Email         string
}

func (s State) clone() State {
	out := s
	if s.Preferences != nil {
		p := *s.Preferences
		out.Preferences = &p
	}
	if s.Venue != nil {
		v := *s.Venue
		out.Venue = &v
	}
	if s.Receipt != nil {
		r := *s.Receipt
		out.Receipt = &r
	}
	out.ServiceIDs = slices.Clone(s.ServiceIDs)

	return out
}

// Credentials are submitted from the auth gate. NewAccount selects registration over login.
type Credentials struct {
	Email      string
	Password   string
	NewAccount bool
}

// PaymentRequest is the booking sent to the payment gateway. The server reprices it.
type PaymentRequest struct {
	PackageTier string
	VenueID     string
	GuestCount  int
	ServiceIDs  []string
	Insurance   bool
	WeddingDate time.Time
	EMIPlan     int
}
