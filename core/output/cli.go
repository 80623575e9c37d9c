// Package output - Terminal formatter
package output

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"mixquote/core/types"
	"mixquote/core/ui"
)

// CLIFormatter renders human-readable tables
type CLIFormatter struct {
	nums    *Numbers
	noColor bool
}

// Format returns the format type
func (f *CLIFormatter) Format() Format {
	return FormatCLI
}

// RenderQuote renders a quotation with its alternatives
func (f *CLIFormatter) RenderQuote(w io.Writer, r *QuoteReport) error {
	q := r.Quotation
	req := q.Request
	cur := req.Currency
	out := ui.NewWriter(w, f.noColor)

	out.Header(fmt.Sprintf("Quotation %s %s", req.Product, req.Modality.Label()))
	if req.ClientName != "" {
		out.Field("Client", req.ClientName)
	}
	out.Field("Quantity", f.nums.Quantity(req.QuantityM3)+" m³")
	if req.Modality.IncludesTransport() {
		out.Field("Distance", f.nums.Quantity(req.DistanceKm)+" km")
	}
	out.Field("Issued", q.IssuedAt.Format("2006-01-02 15:04"))
	out.Field("Quote ID", q.ID)
	if q.PriceList != "" {
		out.Field("Price list", q.PriceList)
	}
	if req.Notes != "" {
		out.Field("Notes", req.Notes)
	}
	out.Println("")

	if r.ShowCosts {
		out.SubHeader("Cost build-up")
		costs := out.NewTable("Concept", "Total", "Per m³").AlignRight(1, 2)
		for _, row := range costRows(q.Costs) {
			costs.AddRow(row.Label, f.nums.Money(row.Amount, cur), f.perM3(row.Amount, req.QuantityM3, cur))
		}
		costs.Render()
		out.Println("")
	}

	taxLabel := "excl. tax"
	if r.ShowTax {
		taxLabel = "incl. tax"
	}

	out.SubHeader("Alternatives")
	table := out.NewTable("Alternative", "Margin", "Discount", "Price excl. tax", "Tax", "Price incl. tax", "Per m³").
		AlignRight(1, 2, 3, 4, 5, 6)
	for _, alt := range q.Alternatives {
		perM3 := undefined
		if p := r.DisplayPrice(alt); p.Valid {
			perM3 = f.perM3(p.Decimal, req.QuantityM3, cur)
		}
		table.AddRow(
			alt.Label,
			f.nums.Percent(alt.MarginRate),
			f.nums.Percent(alt.DiscountRate),
			f.nums.NullMoney(alt.PriceExclTax, cur),
			f.nums.NullMoney(alt.TaxAmount, cur),
			f.nums.NullMoney(alt.PriceInclTax, cur),
			perM3,
		)
	}
	table.Render()
	out.Println("")

	if base, ok := q.Alternative(types.AlternativeBase); ok {
		box := out.NewPriceBox("Base price (" + taxLabel + ")")
		box.Price = f.nums.NullMoney(r.DisplayPrice(base), cur)
		box.Subtitle = f.perM3Label(r.DisplayPrice(base), req.QuantityM3, cur)
		box.Render()
	}

	if q.NeedsApproval() {
		special, _ := q.Alternative(types.AlternativeSpecialPending)
		out.Warning("Discount %s exceeds the authorized maximum: administrator approval required",
			f.nums.Percent(special.DiscountRate))
	}
	return nil
}

func (f *CLIFormatter) perM3(total, qty decimal.Decimal, cur types.Currency) string {
	if qty.IsZero() {
		return undefined
	}
	return f.nums.Money(total.Div(qty), cur)
}

func (f *CLIFormatter) perM3Label(total decimal.NullDecimal, qty decimal.Decimal, cur types.Currency) string {
	if !total.Valid || qty.IsZero() {
		return ""
	}
	return f.perM3(total.Decimal, qty, cur) + " per m³"
}

// RenderUnitCosts renders the unit cost of every work item
func (f *CLIFormatter) RenderUnitCosts(w io.Writer, r *UnitCostReport) error {
	out := ui.NewWriter(w, f.noColor)
	out.Header("Unit costs per m³")
	if r.PriceList != "" {
		out.Field("Price list", r.PriceList)
	}
	if r.Fingerprint != "" {
		out.Field("Snapshot", r.Fingerprint)
	}
	out.Println("")

	table := out.NewTable("Work item", "Unit cost", "Lines").AlignRight(1, 2)
	for _, id := range r.Result.WorkItems() {
		lines := fmt.Sprint(len(r.Result.TraceFor(id)))
		if c, ok := r.Result.UnitCosts.Get(id); ok {
			table.AddRow(id.String(), f.nums.Quantity(c), lines)
		} else {
			table.AddRow(id.String(), "undetermined", lines)
		}
	}
	table.Render()

	if n := len(r.Result.Undetermined); n > 0 {
		out.Println("")
		out.Warning("%d work item(s) have lines without any price", n)
	}
	return nil
}

// RenderTrace renders the recipe lines behind one work item
func (f *CLIFormatter) RenderTrace(w io.Writer, r *TraceReport) error {
	out := ui.NewWriter(w, f.noColor)
	out.Header("Work item " + r.WorkItem.String())

	if len(r.Lines) == 0 {
		out.Warning("no recipe lines for %s", r.WorkItem)
		return nil
	}

	table := out.NewTable("Item", "Description", "Quantity", "Price", "Source", "Subtotal").AlignRight(2, 3, 5)
	for _, l := range r.Lines {
		table.AddRow(
			l.ItemCode.String(),
			l.Description,
			f.nums.Quantity(l.Quantity),
			f.nums.NullQuantity(l.PriceUsed),
			string(l.Source),
			f.nums.NullQuantity(l.Subtotal),
		)
	}
	table.Render()
	out.Println("")

	if r.UnitCost.Valid {
		out.Field("Unit cost", f.nums.Money(r.UnitCost.Decimal, r.Currency)+" per m³")
	} else {
		out.Warning("unit cost undetermined: some lines have no price")
	}
	return nil
}

// RenderPriceList renders resolved catalog prices
func (f *CLIFormatter) RenderPriceList(w io.Writer, r *PriceListReport) error {
	out := ui.NewWriter(w, f.noColor)
	title := "Catalog prices"
	if r.Name != "" {
		title += " (" + r.Name + ")"
	}
	out.Header(title)

	table := out.NewTable("Code", "Description", "Base", "Override", "Active").AlignRight(2, 3, 4)
	for _, e := range r.Entries {
		table.AddRow(
			e.Code.String(),
			e.Description,
			f.nums.NullQuantity(e.Base),
			f.nums.NullQuantity(e.Override),
			f.nums.NullQuantity(e.Active),
		)
	}
	table.Render()

	if r.Total > len(r.Entries) {
		out.Println("")
		out.Info("showing %d of %d items", len(r.Entries), r.Total)
	}
	return nil
}

var _ Formatter = (*CLIFormatter)(nil)
