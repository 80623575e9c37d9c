// Package quote turns unit costs into priced quotation alternatives.
//
// Costs are built up in a fixed order: production, placement, transport,
// direct, overhead, base, risk. Each alternative then applies a margin, a
// discount on the pre-tax price, and tax on the discounted price.
package quote

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mixquote/core/types"
	"mixquote/internal/errors"
	"mixquote/internal/logging"
)

// UnitCostLookup returns the per-m3 cost of a work item
type UnitCostLookup interface {
	Get(id types.WorkItemID) (decimal.Decimal, bool)
}

// Quotation is the complete, immutable result of one quote request
type Quotation struct {
	ID           string                   `json:"id"`
	IssuedAt     time.Time                `json:"issued_at"`
	Request      types.QuoteRequest       `json:"request"`
	Mapping      types.ProductMapping     `json:"mapping"`
	Costs        types.CostBreakdown      `json:"costs"`
	Alternatives []types.QuoteAlternative `json:"alternatives"`

	// PriceList names the override list in effect, if any
	PriceList string `json:"price_list,omitempty"`

	// Fingerprint identifies the catalog/override/recipe snapshot priced
	Fingerprint string `json:"unit_cost_fingerprint,omitempty"`
}

// Alternative returns the alternative of the given kind
func (q *Quotation) Alternative(kind types.AlternativeKind) (types.QuoteAlternative, bool) {
	for _, alt := range q.Alternatives {
		if alt.Kind == kind {
			return alt, true
		}
	}
	return types.QuoteAlternative{}, false
}

// NeedsApproval reports whether the special alternative awaits an administrator
func (q *Quotation) NeedsApproval() bool {
	_, pending := q.Alternative(types.AlternativeSpecialPending)
	return pending
}

// Engine computes quotations
type Engine struct {
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewEngine creates a quotation engine; a nil logger uses the global one
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		logger: logging.OrDefault(logger, "quote"),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Quote prices a request. It fails without partial results when the product
// is unconfigured or any referenced work item has no unit cost.
func (e *Engine) Quote(req types.QuoteRequest, mapping types.ProductMapping, unitCosts UnitCostLookup, params types.PricingParameters) (*Quotation, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if mapping.Product != "" && mapping.Product != req.Product {
		return nil, errors.Newf(errors.TypeInput, "mapping is for product %s, request is for %s", mapping.Product, req.Product)
	}

	costs, err := Costs(req, mapping, unitCosts, params)
	if err != nil {
		return nil, err
	}

	q := &Quotation{
		ID:           e.newID(),
		IssuedAt:     e.now().UTC(),
		Request:      req,
		Mapping:      mapping,
		Costs:        costs,
		Alternatives: Alternatives(costs.WithRisk, req.ProposedDiscountRate, params),
	}

	e.logger.Debug("quotation computed",
		zap.String("id", q.ID),
		zap.String("product", req.Product.String()),
		zap.String("modality", req.Modality.String()),
		logging.Decimal("quantity_m3", req.QuantityM3),
		logging.Decimal("direct_cost", costs.Direct),
		logging.Decimal("cost_with_risk", costs.WithRisk),
		zap.Bool("needs_approval", q.NeedsApproval()),
	)
	return q, nil
}

// ValidateRequest checks the request fields the engine relies on
func ValidateRequest(req types.QuoteRequest) error {
	switch {
	case !req.Product.Valid():
		return errors.Newf(errors.TypeInput, "unknown product %q", req.Product)
	case !req.Modality.Valid():
		return errors.Newf(errors.TypeInput, "unknown modality %q", req.Modality)
	case req.QuantityM3.IsNegative():
		return errors.Newf(errors.TypeInput, "quantity %s m3 is negative", req.QuantityM3)
	case req.DistanceKm.IsNegative():
		return errors.Newf(errors.TypeInput, "distance %s km is negative", req.DistanceKm)
	case req.ProposedDiscountRate.IsNegative():
		return errors.Newf(errors.TypeInput, "discount %s is negative", req.ProposedDiscountRate)
	case req.ProposedDiscountRate.GreaterThan(decimal.NewFromInt(1)):
		return errors.Newf(errors.TypeInput, "discount %s exceeds 100%%", req.ProposedDiscountRate)
	}
	return nil
}

// Costs builds the cost breakdown of a request
func Costs(req types.QuoteRequest, mapping types.ProductMapping, unitCosts UnitCostLookup, params types.PricingParameters) (types.CostBreakdown, error) {
	var c types.CostBreakdown
	qty := req.QuantityM3

	if !mapping.Configured() {
		return c, errors.UnconfiguredProduct(req.Product.String())
	}
	prodUnit, ok := unitCosts.Get(mapping.ProductionWorkItem)
	if !ok {
		return c, errors.MissingWorkItemCost("production", []string{mapping.ProductionWorkItem.String()})
	}
	c.Production = prodUnit.Mul(qty)

	c.Placement = decimal.Zero
	if req.Modality.IncludesPlacement() {
		placementUnit := decimal.Zero
		var missing []string
		for _, id := range mapping.PlacementWorkItems {
			unit, ok := unitCosts.Get(id)
			if !ok {
				missing = append(missing, id.String())
				continue
			}
			placementUnit = placementUnit.Add(unit)
		}
		if len(missing) > 0 {
			return types.CostBreakdown{}, errors.MissingWorkItemCost("placement", missing)
		}
		c.Placement = placementUnit.Mul(qty)
	}

	c.Transport = decimal.Zero
	if req.Modality.IncludesTransport() {
		rate, ok := params.TransportRate(req.Product)
		if !ok {
			return types.CostBreakdown{}, errors.Newf(errors.TypeConfig, "no transport rate configured for %s", req.Product)
		}
		c.Transport = qty.Mul(req.DistanceKm).Mul(rate)
	}

	c.Direct = c.Production.Add(c.Placement).Add(c.Transport)
	c.Overhead = c.Direct.Mul(params.OverheadRate)
	c.Base = c.Direct.Add(c.Overhead)
	c.WithRisk = c.Base.Mul(decimal.NewFromInt(1).Add(params.RiskRate))
	return c, nil
}

// Scenario prices one margin/discount pair on top of the risk-adjusted cost.
// The discount applies to the post-margin, pre-tax price; tax is computed on
// the discounted price.
func Scenario(costWithRisk, marginRate, discountRate, taxRate decimal.Decimal) (exclTax, tax, inclTax decimal.Decimal) {
	one := decimal.NewFromInt(1)
	exclTax = costWithRisk.Mul(one.Add(marginRate)).Mul(one.Sub(discountRate))
	tax = exclTax.Mul(taxRate)
	inclTax = exclTax.Add(tax)
	return exclTax, tax, inclTax
}

// Alternatives returns, in order, the base, competitive and special
// alternatives. A proposed discount above the authorized maximum yields a
// special alternative without prices that requires administrator approval;
// a discount equal to the maximum is approved.
func Alternatives(costWithRisk, proposedDiscount decimal.Decimal, params types.PricingParameters) []types.QuoteAlternative {
	priced := func(kind types.AlternativeKind, margin, discount decimal.Decimal) types.QuoteAlternative {
		excl, tax, incl := Scenario(costWithRisk, margin, discount, params.TaxRate)
		return types.QuoteAlternative{
			Kind:         kind,
			Label:        kind.Label(),
			MarginRate:   margin,
			DiscountRate: discount,
			PriceExclTax: types.Price(excl),
			TaxAmount:    types.Price(tax),
			PriceInclTax: types.Price(incl),
		}
	}

	alts := []types.QuoteAlternative{
		priced(types.AlternativeBase, params.BaseMarginRate, decimal.Zero),
		priced(types.AlternativeCompetitive, params.CompetitiveMarginRate, decimal.Zero),
	}

	if proposedDiscount.LessThanOrEqual(params.MaxDiscountRate) {
		alts = append(alts, priced(types.AlternativeSpecialApproved, params.BaseMarginRate, proposedDiscount))
	} else {
		alts = append(alts, types.QuoteAlternative{
			Kind:         types.AlternativeSpecialPending,
			Label:        types.AlternativeSpecialPending.Label(),
			MarginRate:   params.BaseMarginRate,
			DiscountRate: proposedDiscount,
		})
	}
	return alts
}
