package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	authtypes "github.com/vasapolrittideah/vivah-booking-api/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/vivah-booking-api/shared/catalog"
	"github.com/vasapolrittideah/vivah-booking-api/shared/pricing"
)

var (
	// ErrAuthRequired is matched by gateway errors that mean the session is gone.
	ErrAuthRequired  = errors.New("authentication required")
	// ErrStaleResponse is returned when the user left the step before a network call finished.
	ErrStaleResponse = errors.New("response arrived after the step was left")

	ErrInvalidTransition   = errors.New("transition not allowed from the current step")
	ErrDateRequired        = errors.New("wedding date is required")
	ErrPreferencesRequired = errors.New("preferences must be captured first")
	ErrInvalidPreferences  = errors.New("guest count must be positive")
	ErrPackageRequired     = errors.New("package must be chosen first")
	ErrVenueRequired       = errors.New("venue must be selected first")
	ErrVenueUnavailable    = errors.New("venue is not available")
	ErrVenueTooSmall       = errors.New("venue capacity is below the guest count")
	ErrNoBooking           = errors.New("no confirmed booking")
	ErrUnknownTool         = errors.New("unknown dashboard tool")
)

// Authenticator talks to the credential service.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (*authtypes.Session, error)
	Login(ctx context.Context, email, password string) (*authtypes.Session, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*authtypes.Identity, error)
}

// PaymentGateway submits the advance payment for a booking.
type PaymentGateway interface {
	Pay(ctx context.Context, token string, req PaymentRequest) (*authtypes.PaymentReceipt, error)
}

// Option customizes a Controller.
type Option func(*Controller)

func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// Controller drives the booking flow. Every method is safe for concurrent use; network
// calls run without holding the lock and their results are dropped if the step changed.
type Controller struct {
	catalog  *catalog.Catalog
	pricing  pricing.Config
	auth     Authenticator
	payments PaymentGateway
	logger   *zerolog.Logger

	mu      sync.Mutex
	step    Step
	gen     uint64
	state   State
	session *authtypes.Session
	quote   pricing.Quote
}

func NewController(
	cat *catalog.Catalog,
	pricingCfg pricing.Config,
	auth Authenticator,
	payments PaymentGateway,
	opts ...Option,
) *Controller {
	nop := zerolog.Nop()
	c := &Controller{
		catalog:  cat,
		pricing:  pricingCfg,
		auth:     auth,
		payments: payments,
		logger:   &nop,
		step:     Home{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.recompute()

	return c
}

// Step returns the current screen.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// State returns a copy of the booking in progress.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Quote returns the price breakdown of the current state.
func (c *Controller) Quote() pricing.Quote {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quote
}

func (c *Controller) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

func (c *Controller) SelectDate(date time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if date.IsZero() {
		return ErrDateRequired
	}
	if err := c.expect(KindHome, KindDateSelected); err != nil {
		return err
	}

	c.state.WeddingDate = date
	c.recompute()
	c.transition(DateSelected{Date: date, Auspicious: catalog.IsAuspicious(date)})

	return nil
}

func (c *Controller) CapturePreferences(prefs Preferences) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.WeddingDate.IsZero() {
		return ErrDateRequired
	}
	if prefs.GuestCount <= 0 {
		return ErrInvalidPreferences
	}
	if err := c.expect(KindDateSelected, KindPreferencesCaptured); err != nil {
		return err
	}

	c.state.Preferences = &prefs
	if c.state.Venue != nil && c.state.Venue.Capacity < prefs.GuestCount {
		c.logger.Info().Str("venue_id", c.state.Venue.ID).Int("guests", prefs.GuestCount).Msg("selected venue no longer fits, clearing it")
		c.state.Venue = nil
	}
	c.recompute()
	c.transition(PreferencesCaptured{Preferences: prefs})

	return nil
}

func (c *Controller) ChoosePackage(tier catalog.PackageTier) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Preferences == nil {
		return ErrPreferencesRequired
	}
	if err := c.expect(KindPreferencesCaptured, KindPackageChosen); err != nil {
		return err
	}

	pkg, err := c.catalog.Package(tier)
	if err != nil {
		return err
	}

	c.state.PackageTier = pkg.Tier
	c.recompute()

	return c.enter(KindPackageChosen)
}

// SelectVenue picks a venue from the venue list. Preferences must already be captured.
func (c *Controller) SelectVenue(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Preferences == nil {
		return ErrPreferencesRequired
	}
	if err := c.expect(KindPackageChosen, KindVenueChosen); err != nil {
		return err
	}

	venue, err := c.catalog.Venue(id)
	if err != nil {
		return err
	}
	if err := c.checkVenue(venue); err != nil {
		return err
	}

	c.state.Venue = &venue
	c.recompute()

	return c.enter(KindVenueChosen)
}

func (c *Controller) ProceedToServices() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect(KindVenueChosen); err != nil {
		return err
	}

	return c.enter(KindServicesCustomized)
}

// ToggleService flips membership of a vendor service and returns the recomputed quote.
func (c *Controller) ToggleService(id string) (pricing.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect(KindServicesCustomized); err != nil {
		return pricing.Quote{}, err
	}
	if _, err := c.catalog.Service(id); err != nil {
		return pricing.Quote{}, err
	}

	if idx := slices.Index(c.state.ServiceIDs, id); idx >= 0 {
		c.state.ServiceIDs = slices.Delete(c.state.ServiceIDs, idx, idx+1)
	} else {
		c.state.ServiceIDs = append(c.state.ServiceIDs, id)
	}
	c.recompute()

	return c.quote, nil
}

// SetInsurance toggles the insurance add-on and returns the recomputed quote.
func (c *Controller) SetInsurance(on bool) (pricing.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect(KindServicesCustomized, KindPaymentPending); err != nil {
		return pricing.Quote{}, err
	}

	c.state.Insurance = on
	c.recompute()

	// An in-flight payment priced with the old quote goes stale.
	if pending, ok := c.step.(PaymentPending); ok {
		pending.Quote = c.quote
		c.transition(pending)
	}

	return c.quote, nil
}

func (c *Controller) ProceedToPayment() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expect(KindServicesCustomized); err != nil {
		return err
	}

	return c.enter(KindPaymentPending)
}

// Navigate jumps to kind, subject to its prerequisites and the auth guard.
func (c *Controller) Navigate(kind StepKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.enter(kind)
}

func (c *Controller) GoToDashboard() error {
	return c.Navigate(KindDashboard)
}

func (c *Controller) OpenTool(tool Tool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !tool.valid() {
		return ErrUnknownTool
	}
	if err := c.expect(KindDashboard, KindDashboardTool); err != nil {
		return err
	}

	return c.enterTool(tool)
}

// Authenticate submits credentials from the auth gate and resumes the pending step on
// success. Failures stay on the gate with LastError set; booking data is untouched.
func (c *Controller) Authenticate(ctx context.Context, creds Credentials) error {
	c.mu.Lock()
	if _, ok := c.step.(AuthGate); !ok {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	gen := c.gen
	c.mu.Unlock()

	var (
		session *authtypes.Session
		err     error
	)
	if creds.NewAccount {
		session, err = c.auth.Register(ctx, creds.Email, creds.Password)
	} else {
		session, err = c.auth.Login(ctx, creds.Email, creds.Password)
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		if err == nil {
			c.discardSession(ctx, session.Token)
		}
		return ErrStaleResponse
	}

	if err != nil {
		gate := c.step.(AuthGate)
		gate.LastError = err
		c.step = gate
		c.mu.Unlock()

		c.logger.Info().Err(err).Msg("authentication failed")
		return err
	}

	defer c.mu.Unlock()
	c.session = session
	c.state.Authenticated = true
	c.state.Email = session.Email
	c.resumePending()

	return nil
}

// CancelAuth leaves the auth gate for the step the user came from.
func (c *Controller) CancelAuth() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	gate, ok := c.step.(AuthGate)
	if !ok {
		return ErrInvalidTransition
	}

	c.transition(gate.Cancel)
	return nil
}

// Back moves to the previous screen. It never changes booking data.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var target Step
	switch s := c.step.(type) {
	case Home:
		return nil
	case DateSelected:
		target = Home{}
	case PreferencesCaptured:
		return c.enter(KindDateSelected)
	case PackageChosen:
		return c.enter(KindPreferencesCaptured)
	case VenueChosen:
		return c.enter(KindPackageChosen)
	case ServicesCustomized:
		return c.enter(KindVenueChosen)
	case AuthGate:
		target = s.Cancel
	case PaymentPending:
		return c.enter(KindServicesCustomized)
	case BookingConfirmed:
		return ErrInvalidTransition
	case Dashboard:
		target = Home{}
	case DashboardTool:
		target = Dashboard{}
	default:
		panic(fmt.Sprintf("booking: unhandled step %T", s))
	}

	c.transition(target)
	return nil
}

// SubmitPayment pays the advance with the given EMI plan for the remainder.
func (c *Controller) SubmitPayment(ctx context.Context, emiPlan int) (*authtypes.PaymentReceipt, error) {
	c.mu.Lock()
	if _, ok := c.step.(PaymentPending); !ok {
		c.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if _, err := pricing.Schedule(c.pricing, c.quote, emiPlan); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.session == nil {
		c.requireAuth(KindPaymentPending, 0, ErrAuthRequired)
		c.mu.Unlock()
		return nil, ErrAuthRequired
	}

	gen := c.gen
	token := c.session.Token
	req := c.paymentRequest(emiPlan)
	c.mu.Unlock()

	receipt, err := c.payments.Pay(ctx, token, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return nil, ErrStaleResponse
	}

	if err != nil {
		if errors.Is(err, ErrAuthRequired) {
			c.logger.Info().Err(err).Msg("session rejected during payment")
			c.dropSession()
			c.requireAuth(KindPaymentPending, 0, err)
		}
		return nil, err
	}

	c.state.Receipt = receipt
	c.transition(BookingConfirmed{Venue: *c.state.Venue, Receipt: *receipt})

	return receipt, nil
}

// Resume restores a previously issued session token, for example after a restart.
func (c *Controller) Resume(ctx context.Context, token string) error {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	identity, err := c.auth.Me(ctx, token)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return ErrStaleResponse
	}
	if err != nil {
		return err
	}

	c.session = &authtypes.Session{Token: token, UserID: identity.UserID, Email: identity.Email}
	c.state.Authenticated = true
	c.state.Email = identity.Email

	if _, ok := c.step.(AuthGate); ok {
		c.resumePending()
	}

	return nil
}

// Logout ends the session and returns to Home. Venue and payment data are cleared;
// the date, preferences, package and service drafts are kept. The server call is best effort.
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	var token string
	if c.session != nil {
		token = c.session.Token
	}
	c.dropSession()
	c.state.Venue = nil
	c.state.Receipt = nil
	c.recompute()
	c.transition(Home{})
	c.mu.Unlock()

	if token != "" {
		c.discardSession(ctx, token)
	}
}

// Reset discards everything, including the local session, and returns to Home.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = nil
	c.state = State{}
	c.recompute()
	c.transition(Home{})
}

func (c *Controller) discardSession(ctx context.Context, token string) {
	if err := c.auth.Logout(ctx, token); err != nil {
		c.logger.Warn().Err(err).Msg("failed to revoke session on the server")
	}
}

// expect fails unless the current step is one of kinds. Callers hold mu.
func (c *Controller) expect(kinds ...StepKind) error {
	if !slices.Contains(kinds, c.step.Kind()) {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, c.step.Kind())
	}
	return nil
}

// enter builds the step for kind from the current state and moves there, or to the auth
// gate when kind is protected and there is no session. Callers hold mu.
func (c *Controller) enter(kind StepKind) error {
	step, err := c.build(kind)
	if err != nil {
		return err
	}

	if kind.Protected() && c.session == nil {
		c.requireAuth(kind, 0, nil)
		return nil
	}

	c.transition(step)
	return nil
}

func (c *Controller) enterTool(tool Tool) error {
	if c.session == nil {
		c.requireAuth(KindDashboardTool, tool, nil)
		return nil
	}

	c.transition(DashboardTool{Tool: tool})
	return nil
}

func (c *Controller) build(kind StepKind) (Step, error) {
	switch kind {
	case KindHome:
		return Home{}, nil
	case KindDateSelected:
		if c.state.WeddingDate.IsZero() {
			return nil, ErrDateRequired
		}
		return DateSelected{Date: c.state.WeddingDate, Auspicious: catalog.IsAuspicious(c.state.WeddingDate)}, nil
	case KindPreferencesCaptured:
		if c.state.Preferences == nil {
			return nil, ErrPreferencesRequired
		}
		return PreferencesCaptured{Preferences: *c.state.Preferences}, nil
	case KindPackageChosen:
		if c.state.Preferences == nil {
			return nil, ErrPreferencesRequired
		}
		if c.state.PackageTier == "" {
			return nil, ErrPackageRequired
		}
		pkg, err := c.catalog.Package(c.state.PackageTier)
		if err != nil {
			return nil, err
		}
		return PackageChosen{Package: pkg, Venues: c.venuesFor(c.state.Preferences.GuestCount)}, nil
	case KindVenueChosen:
		if err := c.selectedVenueFits(); err != nil {
			return nil, err
		}
		return VenueChosen{Venue: *c.state.Venue}, nil
	case KindServicesCustomized:
		if err := c.selectedVenueFits(); err != nil {
			return nil, err
		}
		return ServicesCustomized{Venue: *c.state.Venue, Services: slices.Clone(c.catalog.Services)}, nil
	case KindPaymentPending:
		if c.state.Preferences == nil {
			return nil, ErrPreferencesRequired
		}
		if err := c.selectedVenueFits(); err != nil {
			return nil, err
		}
		return PaymentPending{Venue: *c.state.Venue, Quote: c.quote}, nil
	case KindBookingConfirmed:
		if c.state.Receipt == nil || c.state.Venue == nil {
			return nil, ErrNoBooking
		}
		return BookingConfirmed{Venue: *c.state.Venue, Receipt: *c.state.Receipt}, nil
	case KindDashboard:
		return Dashboard{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, kind)
	}
}

func (c *Controller) checkVenue(venue catalog.Venue) error {
	if !venue.Available {
		return fmt.Errorf("%w: %s", ErrVenueUnavailable, venue.Name)
	}
	if c.state.Preferences != nil && venue.Capacity < c.state.Preferences.GuestCount {
		return fmt.Errorf("%w: %s seats %d, need %d", ErrVenueTooSmall, venue.Name, venue.Capacity, c.state.Preferences.GuestCount)
	}
	return nil
}

// selectedVenueFits re-checks the venue in the state against the current guest count.
func (c *Controller) selectedVenueFits() error {
	if c.state.Venue == nil {
		return ErrVenueRequired
	}
	return c.checkVenue(*c.state.Venue)
}

// requireAuth parks the machine on the auth gate, remembering where to go next.
func (c *Controller) requireAuth(pending StepKind, tool Tool, lastErr error) {
	cancel := c.step
	if gate, ok := c.step.(AuthGate); ok {
		cancel = gate.Cancel
	}
	if cancel.Kind().Protected() {
		cancel = c.fallbackFor(pending)
	}

	c.transition(AuthGate{Pending: pending, PendingTool: tool, Cancel: cancel, LastError: lastErr})
}

// fallbackFor is the unprotected step a cancelled auth gate returns to when the user
// came from a protected one.
func (c *Controller) fallbackFor(pending StepKind) Step {
	if pending == KindPaymentPending && c.state.Venue != nil {
		return ServicesCustomized{Venue: *c.state.Venue, Services: slices.Clone(c.catalog.Services)}
	}
	return Home{}
}

func (c *Controller) resumePending() {
	gate, ok := c.step.(AuthGate)
	if !ok {
		return
	}

	if gate.Pending == KindDashboardTool {
		c.transition(DashboardTool{Tool: gate.PendingTool})
		return
	}

	step, err := c.build(gate.Pending)
	if err != nil {
		c.logger.Warn().Err(err).Stringer("pending", gate.Pending).Msg("pending step no longer reachable")
		c.transition(gate.Cancel)
		return
	}
	c.transition(step)
}

func (c *Controller) dropSession() {
	c.session = nil
	c.state.Authenticated = false
	c.state.Email = ""
}

func (c *Controller) transition(step Step) {
	c.logger.Debug().Stringer("from", c.step.Kind()).Stringer("to", step.Kind()).Msg("booking step")
	c.step = step
	c.gen++
}

func (c *Controller) venuesFor(guests int) []catalog.Venue {
	venues := make([]catalog.Venue, 0, len(c.catalog.Venues))
	for _, v := range c.catalog.Venues {
		if v.Capacity >= guests {
			venues = append(venues, v)
		}
	}
	return venues
}

// recompute refreshes the quote from the current state. Callers hold mu.
func (c *Controller) recompute() {
	in := pricing.Input{
		Insurance:   c.state.Insurance,
		WeddingDate: c.state.WeddingDate,
	}
	if c.state.Preferences != nil {
		in.GuestCount = c.state.Preferences.GuestCount
	}
	if c.state.Venue != nil {
		in.PricePerPlate = c.state.Venue.PricePerPlate
	}
	if c.state.PackageTier != "" {
		if pkg, err := c.catalog.Package(c.state.PackageTier); err == nil {
			in.PackagePrice = pkg.BasePrice
		}
	}
	if prices, err := c.catalog.ServicePrices(c.state.ServiceIDs); err == nil {
		in.ServicePrices = prices
	}

	c.quote = pricing.Compute(c.pricing, in)
}

func (c *Controller) paymentRequest(emiPlan int) PaymentRequest {
	req := PaymentRequest{
		PackageTier: string(c.state.PackageTier),
		ServiceIDs:  slices.Clone(c.state.ServiceIDs),
		Insurance:   c.state.Insurance,
		WeddingDate: c.state.WeddingDate,
		EMIPlan:     emiPlan,
	}
	if c.state.Venue != nil {
		req.VenueID = c.state.Venue.ID
	}
	if c.state.Preferences != nil {
		req.GuestCount = c.state.Preferences.GuestCount
	}
	return req
}
