package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	authtypes "github.com/vasapolrittideah/vivah-booking-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/vivah-booking-api/shared/catalog"
	"github.com/vasapolrittideah/vivah-booking-api/shared/mailer"
	"github.com/vasapolrittideah/vivah-booking-api/shared/pricing"
)

// PaymentUsecase simulates the advance payment that confirms a booking.
type PaymentUsecase interface {
	ProcessPayment(ctx context.Context, identity *authtypes.Identity, params PaymentParams) (*authtypes.PaymentReceipt, error)
}

// PaymentParams is the booking the caller wants to pay for. Prices are always
// recomputed from the catalog; nothing monetary is taken from the client.
type PaymentParams struct {
	PackageTier string
	VenueID     string
	GuestCount  int
	ServiceIDs  []string
	Insurance   bool
	WeddingDate time.Time
	EMIPlan     int
}

var (
	ErrVenueUnavailable  = errors.New("venue is not available")
	ErrVenueOverCapacity = errors.New("guest count exceeds venue capacity")
)

type paymentUsecase struct {
	catalog *catalog.Catalog
	pricing pricing.Config
	delay   time.Duration
	sender  mailer.Sender
	logger  *zerolog.Logger
	now     func() time.Time
}

// NewPaymentUsecase wires the simulated gateway. sender may be nil when no SMTP relay is configured.
func NewPaymentUsecase(
	cat *catalog.Catalog,
	pricingCfg pricing.Config,
	delay time.Duration,
	sender mailer.Sender,
	logger *zerolog.Logger,
) PaymentUsecase {
	return &paymentUsecase{
		catalog: cat,
		pricing: pricingCfg,
		delay:   delay,
		sender:  sender,
		logger:  logger,
		now:     time.Now,
	}
}

func (u *paymentUsecase) ProcessPayment(
	ctx context.Context,
	identity *authtypes.Identity,
	params PaymentParams,
) (*authtypes.PaymentReceipt, error) {
	venue, err := u.catalog.Venue(params.VenueID)
	if err != nil {
		return nil, err
	}
	if !venue.Available {
		return nil, ErrVenueUnavailable
	}
	if params.GuestCount > venue.Capacity {
		return nil, fmt.Errorf("%w: %d guests, capacity %d", ErrVenueOverCapacity, params.GuestCount, venue.Capacity)
	}

	var packagePrice int64
	if params.PackageTier != "" {
		pkg, err := u.catalog.Package(catalog.PackageTier(params.PackageTier))
		if err != nil {
			return nil, err
		}
		packagePrice = pkg.BasePrice
	}

	servicePrices, err := u.catalog.ServicePrices(params.ServiceIDs)
	if err != nil {
		return nil, err
	}

	quote := pricing.Compute(u.pricing, pricing.Input{
		PricePerPlate: venue.PricePerPlate,
		GuestCount:    params.GuestCount,
		PackagePrice:  packagePrice,
		ServicePrices: servicePrices,
		Insurance:     params.Insurance,
		WeddingDate:   params.WeddingDate,
	})

	emi, err := pricing.Schedule(u.pricing, quote, params.EMIPlan)
	if err != nil {
		return nil, err
	}

	u.logger.Info().
		Str("user_id", identity.UserID).
		Str("venue_id", venue.ID).
		Int64("amount", quote.AdvanceDue).
		Int("emi_plan", params.EMIPlan).
		Msg("processing payment")

	timer := time.NewTimer(u.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	receipt := &authtypes.PaymentReceipt{
		Reference:   uuid.NewString(),
		UserID:      identity.UserID,
		VenueID:     venue.ID,
		VenueName:   venue.Name,
		PackageTier: params.PackageTier,
		Quote:       quote,
		EMI:         emi,
		AmountPaid:  quote.AdvanceDue,
		PaidAt:      u.now().UTC(),
	}

	if u.sender != nil && identity.Email != "" {
		if err := u.sender.Send(receiptEmail(identity.Email, receipt)); err != nil {
			u.logger.Warn().Err(err).Str("reference", receipt.Reference).Msg("failed to send payment receipt")
		}
	}

	return receipt, nil
}

func receiptEmail(to string, r *authtypes.PaymentReceipt) mailer.Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Your booking at %s is confirmed.\n\n", r.VenueName)
	fmt.Fprintf(&b, "Reference: %s\n", r.Reference)
	fmt.Fprintf(&b, "Advance paid: Rs. %d\n", r.AmountPaid)
	fmt.Fprintf(&b, "Grand total: Rs. %d\n", r.Quote.GrandTotal)
	fmt.Fprintf(&b, "Remainder: Rs. %d over %d months at Rs. %d/month\n", r.EMI.Principal, r.EMI.Months, r.EMI.Installment)
	if !r.Quote.RemainderDueDate.IsZero() {
		fmt.Fprintf(&b, "Remainder due by: %s\n", r.Quote.RemainderDueDate.Format("02 Jan 2006"))
	}

	return mailer.Email{
		To:      []string{to},
		Subject: "Booking confirmed: " + r.VenueName,
		Body:    b.String(),
	}
}
