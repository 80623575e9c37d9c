// Package types - Quotation request and result types
package types

import "github.com/shopspring/decimal"

// QuoteRequest is what sales asks to be priced
type QuoteRequest struct {
	ClientName string   `json:"client_name"`
	Product    Product  `json:"product"`
	Modality   Modality `json:"modality"`
	Currency   Currency `json:"currency"`

	// QuantityM3 is the volume in cubic meters
	QuantityM3 decimal.Decimal `json:"quantity_m3"`

	// DistanceKm is the haul distance for m3k transport
	DistanceKm decimal.Decimal `json:"distance_km"`

	// ShowTax selects tax-inclusive prices for display
	ShowTax bool `json:"show_tax"`

	// ProposedDiscountRate is the special-price discount (fraction)
	ProposedDiscountRate decimal.Decimal `json:"proposed_discount_rate"`

	Notes string `json:"notes,omitempty"`
}

// CostBreakdown is the internal cost build-up of a quote
type CostBreakdown struct {
	Production decimal.Decimal `json:"production_cost"`
	Placement  decimal.Decimal `json:"placement_cost"`
	Transport  decimal.Decimal `json:"transport_cost"`
	Direct     decimal.Decimal `json:"direct_cost"`
	Overhead   decimal.Decimal `json:"overhead"`
	Base       decimal.Decimal `json:"base_cost"`
	WithRisk   decimal.Decimal `json:"cost_with_risk"`
}

// AlternativeKind classifies a pricing alternative
type AlternativeKind string

const (
	AlternativeBase            AlternativeKind = "base"
	AlternativeCompetitive     AlternativeKind = "competitive"
	AlternativeSpecialApproved AlternativeKind = "special_approved"
	AlternativeSpecialPending  AlternativeKind = "special_requires_approval"
)

// Label returns the display label of the kind
func (k AlternativeKind) Label() string {
	switch k {
	case AlternativeBase:
		return "Base"
	case AlternativeCompetitive:
		return "Competitive"
	case AlternativeSpecialApproved:
		return "Special (approved)"
	case AlternativeSpecialPending:
		return "Special (requires approval)"
	default:
		return string(k)
	}
}

// QuoteAlternative is one priced option offered to the client.
// Prices are invalid when the alternative needs elevated approval.
type QuoteAlternative struct {
	Kind         AlternativeKind     `json:"kind"`
	Label        string              `json:"label"`
	MarginRate   decimal.Decimal     `json:"margin_rate"`
	DiscountRate decimal.Decimal     `json:"discount_rate"`
	PriceExclTax decimal.NullDecimal `json:"price_excl_tax"`
	TaxAmount    decimal.NullDecimal `json:"tax_amount"`
	PriceInclTax decimal.NullDecimal `json:"price_incl_tax"`
}

// Priced reports whether the alternative carries a price
func (a QuoteAlternative) Priced() bool {
	return a.PriceExclTax.Valid
}

// RequiresApproval reports whether an administrator must authorize the discount
func (a QuoteAlternative) RequiresApproval() bool {
	return a.Kind == AlternativeSpecialPending
}

// DisplayPrice picks the tax-inclusive or exclusive price
func (a QuoteAlternative) DisplayPrice(showTax bool) decimal.NullDecimal {
	if showTax {
		return a.PriceInclTax
	}
	return a.PriceExclTax
}
