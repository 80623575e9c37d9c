// Package output - JSON formatter
package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"mixquote/core/cost"
	"mixquote/core/pricing"
	"mixquote/core/types"
)

// JSONFormatter renders machine-readable JSON. Decimals are encoded as
// strings at full precision; undefined prices are null.
type JSONFormatter struct{}

// Format returns the format type
func (f *JSONFormatter) Format() Format {
	return FormatJSON
}

func (f *JSONFormatter) encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type quoteJSON struct {
	ID            string                   `json:"id"`
	IssuedAt      string                   `json:"issued_at"`
	Request       types.QuoteRequest       `json:"request"`
	Costs         *types.CostBreakdown     `json:"costs,omitempty"`
	Alternatives  []types.QuoteAlternative `json:"alternatives"`
	NeedsApproval bool                     `json:"needs_approval"`
	PriceList     string                   `json:"price_list,omitempty"`
	Fingerprint   string                   `json:"unit_cost_fingerprint,omitempty"`
}

// RenderQuote renders a quotation; costs are omitted unless requested
func (f *JSONFormatter) RenderQuote(w io.Writer, r *QuoteReport) error {
	q := r.Quotation
	out := quoteJSON{
		ID:            q.ID,
		IssuedAt:      q.IssuedAt.Format(time.RFC3339),
		Request:       q.Request,
		Alternatives:  q.Alternatives,
		NeedsApproval: q.NeedsApproval(),
		PriceList:     q.PriceList,
		Fingerprint:   q.Fingerprint,
	}
	if r.ShowCosts {
		costs := q.Costs
		out.Costs = &costs
	}
	return f.encode(w, out)
}

type unitCostJSON struct {
	WorkItem types.WorkItemID `json:"work_item"`
	UnitCost string           `json:"unit_cost"`
}

// RenderUnitCosts renders unit costs in work item order
func (f *JSONFormatter) RenderUnitCosts(w io.Writer, r *UnitCostReport) error {
	costs := make([]unitCostJSON, 0, r.Result.UnitCosts.Len())
	for _, id := range r.Result.UnitCosts.IDs() {
		c, _ := r.Result.UnitCosts.Get(id)
		costs = append(costs, unitCostJSON{WorkItem: id, UnitCost: c.String()})
	}
	return f.encode(w, struct {
		PriceList    string             `json:"price_list,omitempty"`
		Fingerprint  string             `json:"fingerprint,omitempty"`
		UnitCosts    []unitCostJSON     `json:"unit_costs"`
		Undetermined []types.WorkItemID `json:"undetermined,omitempty"`
	}{r.PriceList, r.Fingerprint, costs, r.Result.Undetermined})
}

// RenderTrace renders the recipe lines of one work item
func (f *JSONFormatter) RenderTrace(w io.Writer, r *TraceReport) error {
	return f.encode(w, struct {
		WorkItem types.WorkItemID    `json:"work_item"`
		UnitCost decimal.NullDecimal `json:"unit_cost"`
		Lines    []cost.TraceLine    `json:"lines"`
	}{r.WorkItem, r.UnitCost, r.Lines})
}

// RenderPriceList renders resolved prices
func (f *JSONFormatter) RenderPriceList(w io.Writer, r *PriceListReport) error {
	entries := r.Entries
	if entries == nil {
		entries = []pricing.PriceEntry{}
	}
	return f.encode(w, struct {
		Name    string               `json:"price_list,omitempty"`
		Total   int                  `json:"total"`
		Entries []pricing.PriceEntry `json:"entries"`
	}{r.Name, r.Total, entries})
}

var _ Formatter = (*JSONFormatter)(nil)
