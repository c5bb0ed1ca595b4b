// Package catalog holds the static lookup data for packages, venues and vendor services.
package catalog

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrUnknownPackage = errors.New("unknown package tier")
	ErrUnknownVenue   = errors.New("unknown venue")
	ErrUnknownService = errors.New("unknown vendor service")
)

// PackageTier identifies a wedding package.
type PackageTier string

const (
	TierSilver   PackageTier = "Silver"
	TierGold     PackageTier = "Gold"
	TierPlatinum PackageTier = "Platinum"
)

type Package struct {
	Tier        PackageTier `json:"tier"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	BasePrice   int64       `json:"base_price"`
	Includes    []string    `json:"includes"`
}

type Venue struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Location      string `json:"location"`
	Type          string `json:"type"`
	Capacity      int    `json:"capacity"`
	PricePerPlate int64  `json:"price_per_plate"`
	Available     bool   `json:"available"`
	EcoFriendly   bool   `json:"eco_friendly"`
}

type Service struct {
	ID           string `json:"id"`
	BusinessName string `json:"business_name"`
	Category     string `json:"category"`
	Price        int64  `json:"price"`
	EcoFriendly  bool   `json:"eco_friendly"`
}

// Catalog is an immutable set of lookup data.
type Catalog struct {
	Packages []Package `json:"packages"`
	Venues   []Venue   `json:"venues"`
	Services []Service `json:"services"`
}

func (c *Catalog) Package(tier PackageTier) (Package, error) {
	for _, p := range c.Packages {
		if strings.EqualFold(string(p.Tier), string(tier)) {
			return p, nil
		}
	}
	return Package{}, ErrUnknownPackage
}

func (c *Catalog) Venue(id string) (Venue, error) {
	for _, v := range c.Venues {
		if v.ID == id {
			return v, nil
		}
	}
	return Venue{}, ErrUnknownVenue
}

func (c *Catalog) Service(id string) (Service, error) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, nil
		}
	}
	return Service{}, ErrUnknownService
}

// ServicePrices resolves ids to prices in the given order.
func (c *Catalog) ServicePrices(ids []string) ([]int64, error) {
	prices := make([]int64, 0, len(ids))
	for _, id := range ids {
		s, err := c.Service(id)
		if err != nil {
			return nil, err
		}
		prices = append(prices, s.Price)
	}
	return prices, nil
}

// IsAuspicious reports whether date falls on a muhurat day. Weekends count as
// auspicious; the flag is informational only.
func IsAuspicious(date time.Time) bool {
	day := date.Weekday()
	return day == time.Saturday || day == time.Sunday
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		Packages: []Package{
			{
				Tier:        TierSilver,
				Name:        "Essential Elegance",
				Description: "A beautiful, intimate celebration with all the essentials covered.",
				BasePrice:   500000,
				Includes:    []string{"Standard Venue Choice", "Buffet Catering", "Basic Decor", "1 Day Photography"},
			},
			{
				Tier:        TierGold,
				Name:        "Royal Heritage",
				Description: "Grandeur, tradition, and seamless execution.",
				BasePrice:   1200000,
				Includes:    []string{"Premium Palace/Resort", "Gourmet Catering", "Themed Decor", "Cinematography", "Bridal Makeup"},
			},
			{
				Tier:        TierPlatinum,
				Name:        "Maharaja Opulence",
				Description: "Unlimited luxury, curated for royalty.",
				BasePrice:   2500000,
				Includes:    []string{"Exclusive Fort Buyout", "Michelin Star Menu", "Celebrity Artist", "Drone Coverage", "Logistics Team"},
			},
		},
		Venues: []Venue{
			{ID: "1", Name: "The Royal Udai Vilas", Location: "Udaipur, Rajasthan", Type: "Palace", Capacity: 500, PricePerPlate: 4500, Available: true},
			{ID: "2", Name: "Sunset Beach Resort", Location: "Goa", Type: "Beachside", Capacity: 250, PricePerPlate: 2800, Available: true},
			{ID: "3", Name: "Emerald Green Lawns", Location: "New Delhi", Type: "Resort", Capacity: 1200, PricePerPlate: 2200, Available: true, EcoFriendly: true},
			{ID: "4", Name: "Hilltop Fort Heritage", Location: "Jaipur, Rajasthan", Type: "Palace", Capacity: 350, PricePerPlate: 3800, Available: false},
			{ID: "5", Name: "Kerala Backwaters Retreat", Location: "Alleppey, Kerala", Type: "Resort", Capacity: 200, PricePerPlate: 1800, Available: true, EcoFriendly: true},
		},
		Services: []Service{
			{ID: "1", BusinessName: "Blossom & Bloom", Category: "Decor", Price: 300000, EcoFriendly: true},
			{ID: "2", BusinessName: "Spice Symphony Catering", Category: "Catering", Price: 2000},
			{ID: "3", BusinessName: "Candid Moments Studio", Category: "Photography", Price: 150000},
			{ID: "4", BusinessName: "Glow by Priya", Category: "Makeup", Price: 35000},
			{ID: "5", BusinessName: "Beats & Bass DJs", Category: "Entertainment", Price: 50000},
			{ID: "6", BusinessName: "Vintage Vibe Decor", Category: "Decor", Price: 500000, EcoFriendly: true},
			{ID: "7", BusinessName: "Acharya Shukla", Category: "Pundit", Price: 21000},
			{ID: "8", BusinessName: "Dance with Divya", Category: "Choreography", Price: 50000},
			{ID: "9", BusinessName: "Royal Safa & Draping", Category: "Styling", Price: 15000},
			{ID: "10", BusinessName: "Pandit Iyer", Category: "Pundit", Price: 25000},
			{ID: "11", BusinessName: "Mukherjee Moshai", Category: "Pundit", Price: 15000},
		},
	}
}
