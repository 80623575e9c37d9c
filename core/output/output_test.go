package output

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"mixquote/core/cost"
	"mixquote/core/pricing"
	"mixquote/core/quote"
	"mixquote/core/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testQuotation(t *testing.T, discount string) *quote.Quotation {
	t.Helper()
	params := types.PricingParameters{
		TaxRate:               dec("0.18"),
		OverheadRate:          dec("0.1"),
		RiskRate:              dec("0"),
		BaseMarginRate:        dec("0.15"),
		CompetitiveMarginRate: dec("0.12"),
		MaxDiscountRate:       dec("0.05"),
	}
	req := types.QuoteRequest{
		ClientName:           "Municipalidad",
		Product:              types.ProductMAC,
		Modality:             types.ModalityPlantOnly,
		Currency:             types.CurrencyPEN,
		QuantityM3:           dec("100"),
		ProposedDiscountRate: dec(discount),
	}
	mapping := types.ProductMapping{Product: types.ProductMAC, ProductionWorkItem: "P1"}
	costs := cost.NewUnitCosts(map[types.WorkItemID]decimal.Decimal{"P1": dec("40")})

	q, err := quote.NewEngine(zap.NewNop()).Quote(req, mapping, costs, params)
	require.NoError(t, err)
	q.PriceList = "Base_2026"
	return q
}

func testResult(t *testing.T) *cost.Result {
	t.Helper()
	catalog := []types.CatalogEntry{
		{Code: "C1", Description: "Cemento", BasePrice: types.Price(dec("10"))},
		{Code: "A1", Description: "Arena", BasePrice: types.NoPrice()},
	}
	recipe := []types.RecipeLine{
		{WorkItem: "P1", ItemCode: "C1", Quantity: dec("2"), RecipePrice: types.NoPrice()},
		{WorkItem: "P1", ItemCode: "A1", Quantity: dec("0.5"), RecipePrice: types.Price(dec("4"))},
		{WorkItem: "P2", ItemCode: "A1", Quantity: dec("1"), RecipePrice: types.NoPrice()},
	}
	table := pricing.NewResolver(zap.NewNop()).Resolve(catalog, nil)
	result, err := cost.NewAggregator(cost.StrictnessUndetermined, zap.NewNop()).Aggregate(recipe, table)
	require.NoError(t, err)
	return result
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"", FormatCLI, false},
		{"table", FormatCLI, false},
		{"JSON", FormatJSON, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumbers(t *testing.T) {
	n := NewNumbers("en-US")

	assert.Equal(t, "5,970.80", n.Amount(dec("5970.8")))
	assert.Equal(t, "S/ 1,234.57", n.Money(dec("1234.565"), types.CurrencyPEN))
	assert.Equal(t, "$ 0.00", n.Money(dec("0"), types.CurrencyUSD))
	assert.Equal(t, "-", n.NullMoney(types.NoPrice(), types.CurrencyPEN))
	assert.Equal(t, "-", n.NullAmount(types.NoPrice()))
	assert.Equal(t, "0.1235", n.Quantity(dec("0.12345")))
	assert.Equal(t, "15%", n.Percent(dec("0.15")))
}

func TestNumbersInvalidLocale(t *testing.T) {
	n := NewNumbers("not a locale!")
	assert.Equal(t, DefaultLocale, n.Locale())
}

func TestCLIRenderQuote(t *testing.T) {
	q := testQuotation(t, "0.03")
	f, err := New(FormatCLI, Options{Locale: "en-US", NoColor: true})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.RenderQuote(&buf, &QuoteReport{Quotation: q, ShowTax: true}))
	out := buf.String()

	assert.Contains(t, out, "Municipalidad")
	assert.Contains(t, out, "Base_2026")
	assert.Contains(t, out, "S/ 5,970.80")
	assert.Contains(t, out, "Special (approved)")
	assert.NotContains(t, out, "Cost build-up")
	assert.NotContains(t, out, "\033[")
}

func TestCLIRenderQuoteShowsCostsForAdmins(t *testing.T) {
	q := testQuotation(t, "0")
	f, _ := New(FormatCLI, Options{Locale: "en-US", NoColor: true})

	var buf bytes.Buffer
	require.NoError(t, f.RenderQuote(&buf, &QuoteReport{Quotation: q, ShowCosts: true}))
	assert.Contains(t, buf.String(), "Cost build-up")
	assert.Contains(t, buf.String(), "S/ 4,400.00")
}

func TestCLIRenderQuotePending(t *testing.T) {
	q := testQuotation(t, "0.08")
	f, _ := New(FormatCLI, Options{Locale: "en-US", NoColor: true})

	var buf bytes.Buffer
	require.NoError(t, f.RenderQuote(&buf, &QuoteReport{Quotation: q}))
	assert.Contains(t, buf.String(), "Special (requires approval)")
	assert.Contains(t, buf.String(), "administrator approval required")
}

func TestJSONRenderQuote(t *testing.T) {
	q := testQuotation(t, "0.08")
	f, _ := New(FormatJSON, Options{})

	var buf bytes.Buffer
	require.NoError(t, f.RenderQuote(&buf, &QuoteReport{Quotation: q}))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, q.ID, got["id"])
	assert.Equal(t, true, got["needs_approval"])
	assert.NotContains(t, got, "costs")

	alts := got["alternatives"].([]interface{})
	require.Len(t, alts, 3)
	pending := alts[2].(map[string]interface{})
	assert.Equal(t, "special_requires_approval", pending["kind"])
	assert.Nil(t, pending["price_excl_tax"])
}

func TestJSONRenderQuoteWithCosts(t *testing.T) {
	q := testQuotation(t, "0")
	f, _ := New(FormatJSON, Options{})

	var buf bytes.Buffer
	require.NoError(t, f.RenderQuote(&buf, &QuoteReport{Quotation: q, ShowCosts: true}))
	assert.Contains(t, buf.String(), `"base_cost": "4400"`)
}

func TestMarkdownRenderQuote(t *testing.T) {
	q := testQuotation(t, "0.08")
	f, _ := New(FormatMarkdown, Options{Locale: "en-US"})

	var buf bytes.Buffer
	require.NoError(t, f.RenderQuote(&buf, &QuoteReport{Quotation: q}))
	out := buf.String()

	assert.Contains(t, out, "# Quotation MAC")
	assert.Contains(t, out, "| Alternative | Margin | Discount | Price (excl. tax) |")
	assert.Contains(t, out, "| --- | ---: | ---: | ---: |")
	assert.Contains(t, out, "_requires approval_")
	assert.Contains(t, out, "S/ 5,060.00")
}

func TestMarkdownEscapesPipes(t *testing.T) {
	var b bytes.Buffer
	f := &MarkdownFormatter{nums: NewNumbers("en-US")}
	err := f.RenderPriceList(&b, &PriceListReport{
		Entries: []pricing.PriceEntry{{Code: "X|1", Description: "a|b", Active: types.Price(dec("1"))}},
	})
	require.NoError(t, err)
	assert.Contains(t, b.String(), `X\|1`)
	assert.Contains(t, b.String(), `a\|b`)
}

func TestRenderUnitCosts(t *testing.T) {
	result := testResult(t)
	report := &UnitCostReport{Result: result, PriceList: "Base_2026", Fingerprint: "abc123"}

	for _, format := range []Format{FormatCLI, FormatJSON, FormatMarkdown} {
		t.Run(string(format), func(t *testing.T) {
			f, err := New(format, Options{Locale: "en-US", NoColor: true})
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, f.RenderUnitCosts(&buf, report))
			assert.Contains(t, buf.String(), "P1")
			assert.Contains(t, buf.String(), "22")
		})
	}
}

func TestTraceReport(t *testing.T) {
	result := testResult(t)

	r := NewTraceReport(result, "P1", types.CurrencyPEN)
	require.Len(t, r.Lines, 2)
	require.True(t, r.UnitCost.Valid)
	assert.True(t, r.UnitCost.Decimal.Equal(dec("22")))

	undetermined := NewTraceReport(result, "P2", types.CurrencyPEN)
	assert.False(t, undetermined.UnitCost.Valid)

	f, _ := New(FormatCLI, Options{Locale: "en-US", NoColor: true})
	var buf bytes.Buffer
	require.NoError(t, f.RenderTrace(&buf, undetermined))
	assert.Contains(t, buf.String(), "unresolved")
	assert.Contains(t, buf.String(), "unit cost undetermined")
}

func TestExportExcel(t *testing.T) {
	q := testQuotation(t, "0.03")
	q.Request.ClientName = "=HYPERLINK(\"x\")"

	data, err := ExportExcel(&QuoteReport{Quotation: q, ShowCosts: true})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{QuoteSheet}, f.GetSheetList())

	client, err := f.GetCellValue(QuoteSheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "'=HYPERLINK(\"x\")", client)

	rows, err := f.GetRows(QuoteSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)

	var found bool
	for _, row := range rows {
		if len(row) > 5 && row[0] == "Base" {
			found = true
			assert.Equal(t, "5970.8", row[5])
		}
	}
	assert.True(t, found, "base alternative row not exported")
}

func TestWriteExcelPendingLeavesPricesBlank(t *testing.T) {
	q := testQuotation(t, "0.5")
	path := filepath.Join(t.TempDir(), "quote.xlsx")
	require.NoError(t, WriteExcel(path, &QuoteReport{Quotation: q}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(QuoteSheet)
	require.NoError(t, err)
	for _, row := range rows {
		if len(row) > 0 && row[0] == types.AlternativeSpecialPending.Label() {
			assert.LessOrEqual(t, len(row), 3)
		}
	}
}
