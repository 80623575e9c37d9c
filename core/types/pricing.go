// Package types - Pricing parameters and product mappings
package types

import "github.com/shopspring/decimal"

// PricingParameters are the tunable rates of a quotation.
// Every rate is a fraction (0.18 for 18%).
type PricingParameters struct {
	// TaxRate is applied to the discounted price before tax
	TaxRate decimal.Decimal `json:"tax_rate"`

	// OverheadRate is applied to the direct cost
	OverheadRate decimal.Decimal `json:"overhead_rate"`

	// RiskRate is applied to the base cost
	RiskRate decimal.Decimal `json:"risk_rate"`

	// BaseMarginRate prices the base and special alternatives
	BaseMarginRate decimal.Decimal `json:"base_margin_rate"`

	// CompetitiveMarginRate prices the competitive alternative
	CompetitiveMarginRate decimal.Decimal `json:"competitive_margin_rate"`

	// MaxDiscountRate is the largest discount sales may approve on their own
	MaxDiscountRate decimal.Decimal `json:"max_discount_rate"`

	// TransportRates is the cost per m3 per km, by product
	TransportRates map[Product]decimal.Decimal `json:"transport_rates"`
}

// TransportRate returns the m3k rate for a product. ok is false when no
// rate is configured, which is not the same as a zero rate.
func (p PricingParameters) TransportRate(product Product) (rate decimal.Decimal, ok bool) {
	rate, ok = p.TransportRates[product]
	return rate, ok
}

// ProductMapping ties a product to the work items that make up its cost
type ProductMapping struct {
	// Product is the mapped product
	Product Product `json:"product"`

	// ProductionWorkItem is the per-m3 production cost; empty means unconfigured
	ProductionWorkItem WorkItemID `json:"production_work_item"`

	// PlacementWorkItems are summed per m3 when the quote is placed
	PlacementWorkItems []WorkItemID `json:"placement_work_items,omitempty"`
}

// Configured reports whether a production work item is set
func (m ProductMapping) Configured() bool {
	return m.ProductionWorkItem != ""
}
