package booking

import (
	"time"

	authtypes "github.com/vasapolrittideah/vivah-booking-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/vivah-booking-api/shared/catalog"
	"github.com/vasapolrittideah/vivah-booking-api/shared/pricing"
)

// StepKind names a screen of the booking flow.
type StepKind int

const (
	KindHome StepKind = iota
	KindDateSelected
	KindPreferencesCaptured
	KindPackageChosen
	KindVenueChosen
	KindServicesCustomized
	KindAuthGate
	KindPaymentPending
	KindBookingConfirmed
	KindDashboard
	KindDashboardTool
)

var stepKindNames = [...]string{
	KindHome:                "home",
	KindDateSelected:        "date_selected",
	KindPreferencesCaptured: "preferences_captured",
	KindPackageChosen:       "package_chosen",
	KindVenueChosen:         "venue_chosen",
	KindServicesCustomized:  "services_customized",
	KindAuthGate:            "auth_gate",
	KindPaymentPending:      "payment_pending",
	KindBookingConfirmed:    "booking_confirmed",
	KindDashboard:           "dashboard",
	KindDashboardTool:       "dashboard_tool",
}

func (k StepKind) String() string {
	if k < 0 || int(k) >= len(stepKindNames) {
		return "unknown"
	}
	return stepKindNames[k]
}

// Protected reports whether entering the step requires an authenticated session.
func (k StepKind) Protected() bool {
	switch k {
	case KindPaymentPending, KindBookingConfirmed, KindDashboard, KindDashboardTool:
		return true
	default:
		return false
	}
}

// Tool is a dashboard view reachable only from the dashboard.
type Tool int

const (
	ToolGuestList Tool = iota
	ToolBudget
	ToolChecklist
	ToolCrisis
	ToolWallet
	ToolLegalAid
)

var toolNames = [...]string{
	ToolGuestList: "guest_list",
	ToolBudget:    "budget",
	ToolChecklist: "checklist",
	ToolCrisis:    "crisis",
	ToolWallet:    "wallet",
	ToolLegalAid:  "legal_aid",
}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return "unknown"
	}
	return toolNames[t]
}

func (t Tool) valid() bool {
	return t >= 0 && int(t) < len(toolNames)
}

// Step is the current screen together with exactly the data it renders. The set of
// variants is closed; switch over them exhaustively.
type Step interface {
	Kind() StepKind
	isStep()
}

type Home struct{}

type DateSelected struct {
	Date       time.Time
	Auspicious bool
}

type PreferencesCaptured struct {
	Preferences Preferences
}

// PackageChosen is the venue list for the chosen package.
type PackageChosen struct {
	Package catalog.Package
	Venues  []catalog.Venue
}

type VenueChosen struct {
	Venue catalog.Venue
}

type ServicesCustomized struct {
	Venue    catalog.Venue
	Services []catalog.Service
}

// AuthGate asks for credentials before entering Pending. Cancel is where the user came from.
type AuthGate struct {
	Pending     StepKind
	PendingTool Tool
	Cancel      Step
	LastError   error
}

type PaymentPending struct {
	Venue catalog.Venue
	Quote pricing.Quote
}

type BookingConfirmed struct {
	Venue   catalog.Venue
	Receipt authtypes.PaymentReceipt
}

type Dashboard struct{}

type DashboardTool struct {
	Tool Tool
}

func (Home) Kind() StepKind { return KindHome }
func (DateSelected) Kind() StepKind { return KindDateSelected }
func (PreferencesCaptured) Kind() StepKind { return KindPreferencesCaptured }
func (PackageChosen) Kind() StepKind { return KindPackageChosen }
func (VenueChosen) Kind() StepKind { return KindVenueChosen }
func (ServicesCustomized) Kind() StepKind { return KindServicesCustomized }
func (AuthGate) Kind() StepKind { return KindAuthGate }
func (PaymentPending) Kind() StepKind { return KindPaymentPending }
func (BookingConfirmed) Kind() StepKind { return KindBookingConfirmed }
func (Dashboard) Kind() StepKind { return KindDashboard }
func (DashboardTool) Kind() StepKind { return KindDashboardTool }

func (Home) isStep() {}
func (DateSelected) isStep() {}
func (PreferencesCaptured) isStep() {}
func (PackageChosen) isStep() {}
func (VenueChosen) isStep() {}
func (ServicesCustomized) isStep() {}
func (AuthGate) isStep() {}
func (PaymentPending) isStep() {}
func (BookingConfirmed) isStep() {}
func (Dashboard) isStep() {}
func (DashboardTool) isStep() {}
