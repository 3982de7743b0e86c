package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Zone is the coarse distance classification between the warehouse origin and
// a shipping destination, derived from the numeric postal-code difference.
type Zone string

const (
	ZoneLocal    Zone = "Local"
	ZoneRegional Zone = "Regional"
	ZoneNational Zone = "National"
)

const (
	// regionalThreshold and nationalThreshold are strict lower bounds on the
	// postal difference: diff > 5000 is National, diff > 1000 is Regional,
	// anything else is Local.
	regionalThreshold = 1000
	nationalThreshold = 5000

	// Fallback values used when a postal code has no parseable digits. The two
	// constants are deliberately distinct: if both sides fall back, the quote
	// degrades to a pessimistic National classification instead of a bogus
	// Local one.
	fallbackOriginPostal      = 94000
	fallbackDestinationPostal = 99999
)

// unitsPerZoneStep is the assumed number of distance units covered by one zone
// step when scaling a provider's per-unit rate. It is a simulation placeholder
// with no real-world meaning; its numeric effect is load-bearing for pricing.
const unitsPerZoneStep = 10

// nationalDelayPrefix annotates durations for far deliveries.
const nationalDelayPrefix = "+2 Days"

// Address is a customer shipping destination collected at checkout.
type Address struct {
	FullName   string `json:"full_name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// OriginAddress is the warehouse the store ships from. There is exactly one
// per store and it always has a value (seeded defaults, admin-editable).
type OriginAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// ProviderConfig is an admin-managed delivery provider definition.
// LocalOnly marks providers that physically cannot serve beyond the Local
// zone (instant/same-day style services); eligibility is driven by this flag,
// never by the provider's identifier.
type ProviderConfig struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Enabled         bool            `json:"enabled"`
	BaseRate        decimal.Decimal `json:"base_rate"`
	PerDistanceRate decimal.Decimal `json:"per_distance_rate"`
	SpeedLabel      string          `json:"speed_label"`
	LocalOnly       bool            `json:"local_only"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DeliveryOption is a priced, zone-annotated instance of a provider's
// offering. Options are ephemeral: recomputed on every quote and replaced
// wholesale by the next one.
type DeliveryOption struct {
	ID         string          `json:"id"`
	ProviderID string          `json:"provider_id"`
	Name       string          `json:"name"`
	Provider   string          `json:"provider"`
	Price      decimal.Decimal `json:"price"`
	Duration   string          `json:"duration"`
	Zone       Zone            `json:"zone"`
}

// postalValue reduces a free-text postal code to its digits and parses them as
// an integer. Codes with no digits (or digit runs too long for an int) resolve
// to the given fallback rather than failing; degraded input is not an error.
func postalValue(raw string, fallback int) int {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return fallback
	}
	return n
}

// ClassifyZone derives the shipping zone and the numeric distance metric from
// the origin and destination postal codes. Pure function: same inputs always
// produce the same classification. Postal codes that collide numerically
// despite being far apart are an accepted simplification of the model.
func ClassifyZone(originPostal, destPostal string) (Zone, int) {
	o := postalValue(originPostal, fallbackOriginPostal)
	d := postalValue(destPostal, fallbackDestinationPostal)

	dist := o - d
	if dist < 0 {
		dist = -dist
	}

	switch {
	case dist > nationalThreshold:
		return ZoneNational, dist
	case dist > regionalThreshold:
		return ZoneRegional, dist
	default:
		return ZoneLocal, dist
	}
}

// Multiplier returns the rate multiplier for the zone.
func (z Zone) Multiplier() int64 {
	switch z {
	case ZoneNational:
		return 4
	case ZoneRegional:
		return 2
	default:
		return 1
	}
}

// ComputeDeliveryOptions prices every eligible provider for a shipment from
// origin to dest. The zone is classified once and shared by all providers.
// Per provider:
//
//	price = baseRate + perDistanceRate * unitsPerZoneStep * zoneMultiplier
//
// rounded to 2 decimal places, half away from zero. Disabled providers are
// skipped; LocalOnly providers are excluded entirely outside the Local zone.
// Option IDs combine the provider ID with the quotedAt timestamp so repeated
// quotes never reuse identifiers. An empty result is a valid outcome, not an
// error.
func ComputeDeliveryOptions(origin OriginAddress, dest Address, providers []ProviderConfig, quotedAt time.Time) []DeliveryOption {
	zone, _ := ClassifyZone(origin.PostalCode, dest.PostalCode)

	step := decimal.NewFromInt(unitsPerZoneStep)
	mult := decimal.NewFromInt(zone.Multiplier())

	options := make([]DeliveryOption, 0, len(providers))
	for _, p := range providers {
		if !p.Enabled {
			continue
		}
		if p.LocalOnly && zone != ZoneLocal {
			continue
		}

		variableCost := p.PerDistanceRate.Mul(step).Mul(mult)
		price := p.BaseRate.Add(variableCost).Round(2)

		duration := p.SpeedLabel
		if zone == ZoneNational && !p.LocalOnly {
			duration = fmt.Sprintf("%s (%s)", nationalDelayPrefix, p.SpeedLabel)
		}

		options = append(options, DeliveryOption{
			ID:         fmt.Sprintf("%s-%d", p.ID, quotedAt.UnixNano()),
			ProviderID: p.ID,
			Name:       fmt.Sprintf("%s (%s)", p.Name, zone),
			Provider:   p.Name,
			Price:      price,
			Duration:   duration,
			Zone:       zone,
		})
	}

	return options
}

// RankOptions returns the options sorted ascending by price. The sort is
// stable: equal-price options keep the order the calculator produced them in.
func RankOptions(options []DeliveryOption) []DeliveryOption {
	ranked := make([]DeliveryOption, len(options))
	copy(ranked, options)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Price.LessThan(ranked[j].Price)
	})

	return ranked
}
