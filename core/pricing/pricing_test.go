package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mixquote/core/types"
)

func price(s string) decimal.NullDecimal {
	return types.Price(decimal.RequireFromString(s))
}

func catalogFixture() []types.CatalogEntry {
	return []types.CatalogEntry{
		{Code: "C1", Description: "Cemento", BasePrice: price("10")},
		{Code: "A1", Description: "Arena gruesa", BasePrice: price("4.5")},
		{Code: "B1", Description: "Asfalto PEN 60/70", BasePrice: price("2.25")},
		{Code: "X1", Description: "Aditivo sin precio", BasePrice: types.NoPrice()},
	}
}

func newTestResolver() *Resolver {
	return NewResolver(zap.NewNop())
}

func TestResolveWithoutOverridesUsesBasePrice(t *testing.T) {
	table := newTestResolver().Resolve(catalogFixture(), nil)

	require.Equal(t, 4, table.Len())
	for _, e := range table.Entries() {
		assert.Equal(t, e.Base, e.Active, "item %s", e.Code)
		assert.False(t, e.Overridden())
	}
	assert.Equal(t, []types.ItemCode{"X1"}, table.Unpriced())
}

func TestResolveAppliesOverrides(t *testing.T) {
	overrides := []types.PriceOverride{
		{Code: "C1", Price: price("8")},
		{Code: "ZZ", Price: price("99")}, // not in catalog
		{Code: "X1", Price: price("1.10")},
		{Code: "A1", Price: types.NoPrice()},
	}

	table := newTestResolver().Resolve(catalogFixture(), overrides)

	tests := []struct {
		code       types.ItemCode
		want       string
		overridden bool
	}{
		{"C1", "8", true},
		{"A1", "4.5", false},
		{"B1", "2.25", false},
		{"X1", "1.1", true},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			got, ok := table.Lookup(tt.code)
			require.True(t, ok)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
			entry, _ := table.Entry(tt.code)
			assert.Equal(t, tt.overridden, entry.Overridden())
		})
	}

	_, ok := table.Lookup("ZZ")
	assert.False(t, ok, "override rows never add catalog codes")
	assert.Empty(t, table.Unpriced())
	assert.Equal(t, 2, table.OverrideCount())
}

func TestResolveOneEntryPerCatalogCode(t *testing.T) {
	catalog := append(catalogFixture(),
		types.CatalogEntry{Code: " C1 ", Description: "Cemento duplicado", BasePrice: price("12")},
		types.CatalogEntry{Code: "", Description: "sin codigo", BasePrice: price("1")},
	)

	table := newTestResolver().Resolve(catalog, []types.PriceOverride{})

	assert.Equal(t, 4, table.Len())
	entry, ok := table.Entry("C1")
	require.True(t, ok)
	assert.Equal(t, "Cemento", entry.Description)
}

func TestResolveDuplicateCodeTakesLaterPrice(t *testing.T) {
	catalog := []types.CatalogEntry{
		{Code: "C1", Description: "Cemento", BasePrice: types.NoPrice()},
		{Code: "C1", Description: "Cemento (fila 2)", BasePrice: price("10")},
		{Code: "C1", Description: "Cemento (fila 3)", BasePrice: price("12")},
	}

	table := newTestResolver().Resolve(catalog, nil)

	require.Equal(t, 1, table.Len())
	got, ok := table.Lookup("C1")
	require.True(t, ok)
	assert.True(t, got.Equal(decimal.NewFromInt(10)), "got %s", got)
	assert.Equal(t, "Cemento", table.Description("C1"))

	overridden := newTestResolver().Resolve(catalog, []types.PriceOverride{{Code: "C1", Price: price("8")}})
	got, _ = overridden.Lookup("C1")
	assert.True(t, got.Equal(decimal.NewFromInt(8)), "override still wins, got %s", got)
}

func TestPriceTableFilter(t *testing.T) {
	table := newTestResolver().Resolve(catalogFixture(), nil)

	assert.Len(t, table.Filter("asfalto", 0), 1)
	assert.Len(t, table.Filter("ASFALTÓ", 0), 1)
	assert.Len(t, table.Filter("1", 2), 2)
	assert.Len(t, table.Filter("", 0), 4)
}

func TestCollapseOverridesIsIndependentOfRowOrder(t *testing.T) {
	rows := []types.PriceOverride{
		{Code: "C1", Price: price("9")},
		{Code: "C1", Price: price("7")},
		{Code: "", Price: price("1")},
		{Code: "A1", Price: types.NoPrice()},
		{Code: "C1", Price: types.NoPrice()},
		{Code: "A1", Price: price("3")},
	}
	reversed := make([]types.PriceOverride, len(rows))
	for i := range rows {
		reversed[len(rows)-1-i] = rows[i]
	}

	for name, input := range map[string][]types.PriceOverride{"given": rows, "reversed": reversed} {
		t.Run(name, func(t *testing.T) {
			got := CollapseOverrides(input)
			require.Len(t, got, 2)
			assert.Equal(t, types.ItemCode("A1"), got[0].Code)
			assert.True(t, got[0].Price.Decimal.Equal(decimal.NewFromInt(3)))
			assert.Equal(t, types.ItemCode("C1"), got[1].Code)
			assert.True(t, got[1].Price.Decimal.Equal(decimal.NewFromInt(9)))
		})
	}
}

func TestResolveOverrideIsolation(t *testing.T) {
	resolver := newTestResolver()
	before := resolver.Resolve(catalogFixture(), nil)
	after := resolver.Resolve(catalogFixture(), []types.PriceOverride{{Code: "B1", Price: price("3")}})

	for _, e := range before.Entries() {
		a, _ := after.Entry(e.Code)
		if e.Code == "B1" {
			assert.NotEqual(t, e.Active, a.Active)
			continue
		}
		assert.Equal(t, e.Active, a.Active, "item %s must not change", e.Code)
	}
}

func TestBuildOverrideList(t *testing.T) {
	edits := map[types.ItemCode]decimal.NullDecimal{
		"B1": price("2.40"),
		"C1": price("8"),
		"A1": types.NoPrice(),
		"ZZ": price("5"),
	}

	list, err := BuildOverrideList(catalogFixture(), edits)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, types.ItemCode("C1"), list[0].Code, "catalog order is kept")
	assert.Equal(t, "Cemento", list[0].Description)
	assert.Equal(t, types.ItemCode("B1"), list[1].Code)

	_, err = BuildOverrideList(catalogFixture(), map[types.ItemCode]decimal.NullDecimal{"C1": price("-1")})
	assert.Error(t, err)
}

func TestEditorSeedsFromCatalogWhenListIsMissing(t *testing.T) {
	editor := NewEditor(catalogFixture(), nil)

	rows := editor.Rows()
	require.Len(t, rows, 4)
	assert.Equal(t, rows[0].Base, rows[0].Override)

	list, err := editor.Overrides()
	require.NoError(t, err)
	assert.Len(t, list, 3, "the unpriced item has nothing to pin")
}

func TestEditorSet(t *testing.T) {
	editor := NewEditor(catalogFixture(), []types.PriceOverride{{Code: "C1", Price: price("8")}})

	require.NoError(t, editor.Set("B1", price("2.5")))
	require.NoError(t, editor.Set("C1", types.NoPrice()))
	assert.Error(t, editor.Set("NOPE", price("1")))
	assert.Error(t, editor.Set("A1", price("-2")))

	list, err := editor.Overrides()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, types.ItemCode("B1"), list[0].Code)

}
