// Package pricing derives booking totals from the current selection.
//
// Every function here is pure: the same Config and Input always produce the same
// Quote. Amounts are whole rupees.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrUnsupportedPlan = errors.New("unsupported emi plan")

// SupportedPlans lists the EMI durations offered at checkout, in months.
var SupportedPlans = []int{6, 12}

// Config holds the pricing constants.
type Config struct {
	TaxRate         float64
	InsuranceAmount int64
	AdvanceFraction float64
	LeadDays        int
	InterestRatePct float64
}

// DefaultConfig returns the standard pricing constants.
func DefaultConfig() Config {
	return Config{
		TaxRate:         0.18,
		InsuranceAmount: 25000,
		AdvanceFraction: 0.25,
		LeadDays:        30,
	}
}

// Input is the slice of booking state the engine reads.
type Input struct {
	PricePerPlate int64
	GuestCount    int
	PackagePrice  int64
	ServicePrices []int64
	Insurance     bool
	WeddingDate   time.Time
}

// Quote is the derived breakdown for one Input.
type Quote struct {
	VenueCost        int64     `json:"venue_cost"`
	Tax              int64     `json:"tax"`
	Insurance        int64     `json:"insurance"`
	PackagePrice     int64     `json:"package_price"`
	ServicesTotal    int64     `json:"services_total"`
	GrandTotal       int64     `json:"grand_total"`
	AdvanceDue       int64     `json:"advance_due"`
	RemainderDue     int64     `json:"remainder_due"`
	RemainderDueDate time.Time `json:"remainder_due_date,omitzero"`
}

// Compute derives a Quote. Tax applies to the venue cost only.
func Compute(cfg Config, in Input) Quote {
	q := Quote{
		VenueCost:    in.PricePerPlate * int64(in.GuestCount),
		PackagePrice: in.PackagePrice,
	}
	q.Tax = roundMoney(float64(q.VenueCost) * cfg.TaxRate)
	if in.Insurance {
		q.Insurance = cfg.InsuranceAmount
	}
	for _, price := range in.ServicePrices {
		q.ServicesTotal += price
	}

	q.GrandTotal = q.VenueCost + q.Tax + q.Insurance + q.PackagePrice + q.ServicesTotal
	q.AdvanceDue = roundMoney(float64(q.GrandTotal) * cfg.AdvanceFraction)
	q.RemainderDue = q.GrandTotal - q.AdvanceDue

	if !in.WeddingDate.IsZero() {
		q.RemainderDueDate = in.WeddingDate.AddDate(0, 0, -cfg.LeadDays)
	}

	return q
}

// Installment returns the monthly amount for principal spread over months.
// A zero annualRatePct means a zero-interest plan.
func Installment(principal int64, months int, annualRatePct float64) (int64, error) {
	if months <= 0 {
		return 0, fmt.Errorf("%w: %d months", ErrUnsupportedPlan, months)
	}
	if principal <= 0 {
		return 0, nil
	}

	// Work in basis points so the ceiling is exact.
	bps := int64(0)
	if annualRatePct > 0 {
		bps = int64(math.Round(annualRatePct * 100))
	}
	total := principal * (10000 + bps)
	divisor := int64(months) * 10000

	return (total + divisor - 1) / divisor, nil
}

// EMISchedule is the installment plan for a quote's remainder.
type EMISchedule struct {
	Months       int   `json:"months"`
	Principal    int64 `json:"principal"`
	Installment  int64 `json:"installment"`
	TotalPayable int64 `json:"total_payable"`
}

// Schedule builds the EMI plan for q. The principal is always the remainder due after
// the advance, whichever screen asks.
func Schedule(cfg Config, q Quote, months int) (EMISchedule, error) {
	if !isSupportedPlan(months) {
		return EMISchedule{}, fmt.Errorf("%w: %d months", ErrUnsupportedPlan, months)
	}

	installment, err := Installment(q.RemainderDue, months, cfg.InterestRatePct)
	if err != nil {
		return EMISchedule{}, err
	}

	return EMISchedule{
		Months:       months,
		Principal:    q.RemainderDue,
		Installment:  installment,
		TotalPayable: installment * int64(months),
	}, nil
}

func isSupportedPlan(months int) bool {
	for _, m := range SupportedPlans {
		if m == months {
			return true
		}
	}
	return false
}

func roundMoney(v float64) int64 {
	return int64(math.Round(v))
}
