// Package output - Markdown formatter
package output

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownFormatter renders reports as GitHub-flavored markdown
type MarkdownFormatter struct {
	nums *Numbers
}

// Format returns the format type
func (f *MarkdownFormatter) Format() Format {
	return FormatMarkdown
}

// mdTable writes a pipe table; cells are escaped
type mdTable struct {
	b     *strings.Builder
	right map[int]bool
}

func newMDTable(b *strings.Builder, headers []string, right ...int) *mdTable {
	t := &mdTable{b: b, right: map[int]bool{}}
	for _, r := range right {
		t.right[r] = true
	}
	t.row(headers...)
	seps := make([]string, len(headers))
	for i := range headers {
		seps[i] = "---"
		if t.right[i] {
			seps[i] = "---:"
		}
	}
	fmt.Fprintf(b, "| %s |\n", strings.Join(seps, " | "))
	return t
}

func (t *mdTable) row(cells ...string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	fmt.Fprintf(t.b, "| %s |\n", strings.Join(escaped, " | "))
}

// RenderQuote renders a quotation
func (f *MarkdownFormatter) RenderQuote(w io.Writer, r *QuoteReport) error {
	q := r.Quotation
	req := q.Request
	cur := req.Currency
	var b strings.Builder

	fmt.Fprintf(&b, "# Quotation %s (%s)\n\n", req.Product, req.Modality.Label())
	if req.ClientName != "" {
		fmt.Fprintf(&b, "- **Client:** %s\n", req.ClientName)
	}
	fmt.Fprintf(&b, "- **Quantity:** %s m³\n", f.nums.Quantity(req.QuantityM3))
	if req.Modality.IncludesTransport() {
		fmt.Fprintf(&b, "- **Distance:** %s km\n", f.nums.Quantity(req.DistanceKm))
	}
	fmt.Fprintf(&b, "- **Issued:** %s\n", q.IssuedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "- **Quote ID:** `%s`\n", q.ID)
	if q.PriceList != "" {
		fmt.Fprintf(&b, "- **Price list:** %s\n", q.PriceList)
	}
	b.WriteString("\n")

	if r.ShowCosts {
		b.WriteString("## Cost build-up\n\n")
		t := newMDTable(&b, []string{"Concept", "Total"}, 1)
		for _, row := range costRows(q.Costs) {
			t.row(row.Label, f.nums.Money(row.Amount, cur))
		}
		b.WriteString("\n")
	}

	priceHeader := "Price (excl. tax)"
	if r.ShowTax {
		priceHeader = "Price (incl. tax)"
	}
	b.WriteString("## Alternatives\n\n")
	t := newMDTable(&b, []string{"Alternative", "Margin", "Discount", priceHeader}, 1, 2, 3)
	for _, alt := range q.Alternatives {
		price := f.nums.NullMoney(r.DisplayPrice(alt), cur)
		if alt.RequiresApproval() {
			price = "_requires approval_"
		}
		t.row(alt.Label, f.nums.Percent(alt.MarginRate), f.nums.Percent(alt.DiscountRate), price)
	}

	if q.NeedsApproval() {
		b.WriteString("\n> **Note:** the proposed discount exceeds the authorized maximum and needs administrator approval.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderUnitCosts renders the unit cost of every work item
func (f *MarkdownFormatter) RenderUnitCosts(w io.Writer, r *UnitCostReport) error {
	var b strings.Builder
	b.WriteString("# Unit costs per m³\n\n")
	if r.PriceList != "" {
		fmt.Fprintf(&b, "Price list: %s\n\n", r.PriceList)
	}

	t := newMDTable(&b, []string{"Work item", "Unit cost"}, 1)
	for _, id := range r.Result.WorkItems() {
		if c, ok := r.Result.UnitCosts.Get(id); ok {
			t.row(id.String(), f.nums.Quantity(c))
		} else {
			t.row(id.String(), "_undetermined_")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderTrace renders the recipe lines behind one work item
func (f *MarkdownFormatter) RenderTrace(w io.Writer, r *TraceReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Work item %s\n\n", r.WorkItem)

	t := newMDTable(&b, []string{"Item", "Description", "Quantity", "Price", "Source", "Subtotal"}, 2, 3, 5)
	for _, l := range r.Lines {
		t.row(l.ItemCode.String(), l.Description, f.nums.Quantity(l.Quantity),
			f.nums.NullQuantity(l.PriceUsed), string(l.Source), f.nums.NullQuantity(l.Subtotal))
	}
	b.WriteString("\n")
	if r.UnitCost.Valid {
		fmt.Fprintf(&b, "**Unit cost:** %s per m³\n", f.nums.Money(r.UnitCost.Decimal, r.Currency))
	} else {
		b.WriteString("**Unit cost:** undetermined\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderPriceList renders resolved catalog prices
func (f *MarkdownFormatter) RenderPriceList(w io.Writer, r *PriceListReport) error {
	var b strings.Builder
	b.WriteString("# Catalog prices\n\n")
	if r.Name != "" {
		fmt.Fprintf(&b, "Price list: %s\n\n", r.Name)
	}

	t := newMDTable(&b, []string{"Code", "Description", "Base", "Override", "Active"}, 2, 3, 4)
	for _, e := range r.Entries {
		t.row(e.Code.String(), e.Description, f.nums.NullQuantity(e.Base),
			f.nums.NullQuantity(e.Override), f.nums.NullQuantity(e.Active))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

var _ Formatter = (*MarkdownFormatter)(nil)
