package quote

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mixquote/core/cost"
	"mixquote/core/types"
	"mixquote/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), append([]interface{}{"got %s want %s", got, want}, msgAndArgs...)...)
}

func params() types.PricingParameters {
	return types.PricingParameters{
		TaxRate:               dec("0.18"),
		OverheadRate:          dec("0.1"),
		RiskRate:              dec("0"),
		BaseMarginRate:        dec("0.15"),
		CompetitiveMarginRate: dec("0.12"),
		MaxDiscountRate:       dec("0.05"),
		TransportRates: map[types.Product]decimal.Decimal{
			types.ProductMAC: dec("0.5"),
		},
	}
}

func unitCosts() *cost.UnitCosts {
	return cost.NewUnitCosts(map[types.WorkItemID]decimal.Decimal{
		"P1":  dec("40"),
		"PL1": dec("3"),
		"PL2": dec("2"),
	})
}

func macMapping() types.ProductMapping {
	return types.ProductMapping{
		Product:            types.ProductMAC,
		ProductionWorkItem: "P1",
		PlacementWorkItems: []types.WorkItemID{"PL1", "PL2"},
	}
}

func request(modality types.Modality) types.QuoteRequest {
	return types.QuoteRequest{
		ClientName: "Municipalidad",
		Product:    types.ProductMAC,
		Modality:   modality,
		Currency:   types.CurrencyPEN,
		QuantityM3: dec("100"),
		DistanceKm: dec("20"),
	}
}

func newTestEngine() *Engine {
	e := NewEngine(zap.NewNop())
	e.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestQuoteEndToEndExample(t *testing.T) {
	q, err := newTestEngine().Quote(request(types.ModalityPlantOnly), macMapping(), unitCosts(), params())
	require.NoError(t, err)

	assertDec(t, "4000", q.Costs.Production)
	assertDec(t, "0", q.Costs.Placement)
	assertDec(t, "0", q.Costs.Transport)
	assertDec(t, "4000", q.Costs.Direct)
	assertDec(t, "400", q.Costs.Overhead)
	assertDec(t, "4400", q.Costs.Base)
	assertDec(t, "4400", q.Costs.WithRisk)

	base, ok := q.Alternative(types.AlternativeBase)
	require.True(t, ok)
	assertDec(t, "5060", base.PriceExclTax.Decimal)
	assertDec(t, "910.8", base.TaxAmount.Decimal)
	assertDec(t, "5970.8", base.PriceInclTax.Decimal)

	_, err = uuid.Parse(q.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2026, q.IssuedAt.Year())
}

func TestQuoteModalities(t *testing.T) {
	tests := []struct {
		modality      types.Modality
		wantPlacement string
		wantTransport string
		wantDirect    string
	}{
		{types.ModalityPlantOnly, "0", "0", "4000"},
		// 100 m3 x 20 km x 0.5
		{types.ModalityDelivered, "0", "1000", "5000"},
		// placement (3+2) x 100
		{types.ModalityPlaced, "500", "1000", "5500"},
	}

	for _, tt := range tests {
		t.Run(tt.modality.String(), func(t *testing.T) {
			q, err := newTestEngine().Quote(request(tt.modality), macMapping(), unitCosts(), params())
			require.NoError(t, err)
			assertDec(t, tt.wantPlacement, q.Costs.Placement)
			assertDec(t, tt.wantTransport, q.Costs.Transport)
			assertDec(t, tt.wantDirect, q.Costs.Direct)
		})
	}
}

func TestQuoteRiskAppliesToBaseCost(t *testing.T) {
	p := params()
	p.RiskRate = dec("0.03")

	q, err := newTestEngine().Quote(request(types.ModalityPlantOnly), macMapping(), unitCosts(), p)
	require.NoError(t, err)
	assertDec(t, "4532", q.Costs.WithRisk)
}

func TestQuoteAlternativesOrder(t *testing.T) {
	q, err := newTestEngine().Quote(request(types.ModalityPlantOnly), macMapping(), unitCosts(), params())
	require.NoError(t, err)

	require.Len(t, q.Alternatives, 3)
	assert.Equal(t, types.AlternativeBase, q.Alternatives[0].Kind)
	assert.Equal(t, types.AlternativeCompetitive, q.Alternatives[1].Kind)
	assert.Equal(t, types.AlternativeSpecialApproved, q.Alternatives[2].Kind)
	assert.Equal(t, "Competitive", q.Alternatives[1].Label)

	// 4400 x 1.12
	assertDec(t, "4928", q.Alternatives[1].PriceExclTax.Decimal)
	assert.False(t, q.NeedsApproval())
}

func TestQuoteSpecialDiscountBoundary(t *testing.T) {
	tests := []struct {
		name     string
		discount string
		wantKind types.AlternativeKind
	}{
		{"no discount", "0", types.AlternativeSpecialApproved},
		{"below maximum", "0.03", types.AlternativeSpecialApproved},
		{"at maximum is approved", "0.05", types.AlternativeSpecialApproved},
		{"above maximum", "0.0501", types.AlternativeSpecialPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(types.ModalityPlantOnly)
			req.ProposedDiscountRate = dec(tt.discount)

			q, err := newTestEngine().Quote(req, macMapping(), unitCosts(), params())
			require.NoError(t, err)

			special := q.Alternatives[2]
			assert.Equal(t, tt.wantKind, special.Kind)
			assertDec(t, tt.discount, special.DiscountRate)
			if tt.wantKind == types.AlternativeSpecialPending {
				assert.False(t, special.Priced())
				assert.False(t, special.PriceInclTax.Valid)
				assert.True(t, q.NeedsApproval())
				return
			}
			assert.True(t, special.Priced())
		})
	}
}

func TestQuoteApprovedSpecialPrice(t *testing.T) {
	req := request(types.ModalityPlantOnly)
	req.ProposedDiscountRate = dec("0.05")

	q, err := newTestEngine().Quote(req, macMapping(), unitCosts(), params())
	require.NoError(t, err)

	// 5060 x 0.95, tax on the discounted price
	special := q.Alternatives[2]
	assertDec(t, "4807", special.PriceExclTax.Decimal)
	assertDec(t, "865.26", special.TaxAmount.Decimal)
	assertDec(t, "5672.26", special.PriceInclTax.Decimal)
}

func TestScenarioZeroTaxIdentity(t *testing.T) {
	excl, tax, incl := Scenario(dec("1234.56"), dec("0.15"), dec("0.02"), decimal.Zero)
	assert.True(t, tax.IsZero())
	assert.True(t, incl.Equal(excl))
}

func TestScenarioDiscountMonotonic(t *testing.T) {
	prev, _, _ := Scenario(dec("4400"), dec("0.15"), decimal.Zero, dec("0.18"))
	for _, d := range []string{"0.01", "0.05", "0.1", "0.5", "1"} {
		excl, _, _ := Scenario(dec("4400"), dec("0.15"), dec(d), dec("0.18"))
		assert.True(t, excl.LessThan(prev), "discount %s: %s should be below %s", d, excl, prev)
		prev = excl
	}
	assert.True(t, prev.IsZero(), "a full discount prices at zero")
}

func TestQuoteUnconfiguredProduct(t *testing.T) {
	mapping := types.ProductMapping{Product: types.ProductMAC}

	q, err := newTestEngine().Quote(request(types.ModalityPlaced), mapping, unitCosts(), params())
	require.Error(t, err)
	assert.Nil(t, q)
	assert.True(t, errors.IsType(err, errors.TypeUnconfiguredProduct))
	assert.Contains(t, err.Error(), "MAC")
}

func TestQuoteDeliveredWithoutTransportRate(t *testing.T) {
	p := params()
	p.TransportRates = map[types.Product]decimal.Decimal{}

	for _, m := range []types.Modality{types.ModalityDelivered, types.ModalityPlaced} {
		q, err := newTestEngine().Quote(request(m), macMapping(), unitCosts(), p)
		require.Error(t, err, m)
		assert.Nil(t, q)
		assert.True(t, errors.IsType(err, errors.TypeConfig), m)
		assert.Contains(t, err.Error(), "no transport rate configured for MAC")
	}

	q, err := newTestEngine().Quote(request(types.ModalityPlantOnly), macMapping(), unitCosts(), p)
	require.NoError(t, err, "plant pickup needs no transport rate")
	assert.True(t, q.Costs.Transport.IsZero())
}

func TestQuoteMissingProductionCost(t *testing.T) {
	mapping := macMapping()
	mapping.ProductionWorkItem = "P9"

	q, err := newTestEngine().Quote(request(types.ModalityPlantOnly), mapping, unitCosts(), params())
	require.Error(t, err)
	assert.Nil(t, q)
	assert.True(t, errors.IsType(err, errors.TypeMissingWorkItemCost))
	assert.Contains(t, err.Error(), "P9")
}

func TestQuoteMissingPlacementCostsAreAllReported(t *testing.T) {
	mapping := macMapping()
	mapping.PlacementWorkItems = []types.WorkItemID{"PL1", "X1", "X2"}

	_, err := newTestEngine().Quote(request(types.ModalityPlaced), mapping, unitCosts(), params())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeMissingWorkItemCost))
	assert.Contains(t, err.Error(), "X1")
	assert.Contains(t, err.Error(), "X2")

	e, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "placement", e.Context["role"])

	// placement work items are not needed when the quote is not placed
	_, err = newTestEngine().Quote(request(types.ModalityDelivered), mapping, unitCosts(), params())
	assert.NoError(t, err)
}

func TestQuoteRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.QuoteRequest)
	}{
		{"unknown product", func(r *types.QuoteRequest) { r.Product = "XYZ" }},
		{"unknown modality", func(r *types.QuoteRequest) { r.Modality = "air" }},
		{"negative quantity", func(r *types.QuoteRequest) { r.QuantityM3 = dec("-1") }},
		{"negative distance", func(r *types.QuoteRequest) { r.DistanceKm = dec("-5") }},
		{"negative discount", func(r *types.QuoteRequest) { r.ProposedDiscountRate = dec("-0.01") }},
		{"discount above 100%", func(r *types.QuoteRequest) { r.ProposedDiscountRate = dec("1.2") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(types.ModalityPlantOnly)
			tt.mutate(&req)
			_, err := newTestEngine().Quote(req, macMapping(), unitCosts(), params())
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeInput))
		})
	}
}

func TestQuoteRejectsMappingForOtherProduct(t *testing.T) {
	req := request(types.ModalityPlantOnly)
	req.Product = types.ProductMAF

	_, err := newTestEngine().Quote(req, macMapping(), unitCosts(), params())
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func TestQuoteZeroQuantity(t *testing.T) {
	req := request(types.ModalityPlaced)
	req.QuantityM3 = decimal.Zero

	q, err := newTestEngine().Quote(req, macMapping(), unitCosts(), params())
	require.NoError(t, err)
	assert.True(t, q.Costs.WithRisk.IsZero())
	assert.True(t, q.Alternatives[0].PriceInclTax.Decimal.IsZero())
}
