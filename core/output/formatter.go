// Package output provides output formatting interfaces.
// This package produces human and machine-readable outputs.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"mixquote/core/cost"
	"mixquote/core/pricing"
	"mixquote/core/quote"
	"mixquote/core/types"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatMarkdown is a markdown report
	FormatMarkdown Format = "markdown"
)

// ParseFormat parses a format name; "md" is accepted for markdown
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cli", "table":
		return FormatCLI, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown output format %q (expected cli, json or markdown)", s)
}

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// RenderQuote renders a quotation
	RenderQuote(w io.Writer, r *QuoteReport) error

	// RenderUnitCosts renders the unit cost of every work item
	RenderUnitCosts(w io.Writer, r *UnitCostReport) error

	// RenderTrace renders the recipe lines behind one work item
	RenderTrace(w io.Writer, r *TraceReport) error

	// RenderPriceList renders resolved catalog prices
	RenderPriceList(w io.Writer, r *PriceListReport) error
}

// Options configure a formatter
type Options struct {
	// Locale is a BCP 47 tag for number formatting
	Locale string

	// NoColor disables ANSI colors in CLI output
	NoColor bool
}

// New returns the formatter for a format
func New(format Format, opts Options) (Formatter, error) {
	nums := NewNumbers(opts.Locale)
	switch format {
	case FormatCLI, "":
		return &CLIFormatter{nums: nums, noColor: opts.NoColor}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatMarkdown:
		return &MarkdownFormatter{nums: nums}, nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// QuoteReport is a quotation prepared for display
type QuoteReport struct {
	Quotation *quote.Quotation

	// ShowTax selects tax-inclusive display prices
	ShowTax bool

	// ShowCosts includes the internal cost build-up (administrators only)
	ShowCosts bool
}

// DisplayPrice returns the price shown for an alternative
func (r *QuoteReport) DisplayPrice(alt types.QuoteAlternative) decimal.NullDecimal {
	return alt.DisplayPrice(r.ShowTax)
}

// costRows lists the cost build-up in calculation order
func costRows(c types.CostBreakdown) []struct {
	Label  string
	Amount decimal.Decimal
} {
	return []struct {
		Label  string
		Amount decimal.Decimal
	}{
		{"Production", c.Production},
		{"Placement", c.Placement},
		{"Transport", c.Transport},
		{"Direct cost", c.Direct},
		{"Overhead", c.Overhead},
		{"Base cost", c.Base},
		{"Cost with risk", c.WithRisk},
	}
}

// UnitCostReport lists unit costs
type UnitCostReport struct {
	Result      *cost.Result
	PriceList   string
	Fingerprint string
}

// TraceReport lists the recipe lines of one work item
type TraceReport struct {
	WorkItem types.WorkItemID
	Lines    []cost.TraceLine

	// UnitCost is undefined when any line is unresolved
	UnitCost decimal.NullDecimal

	Currency types.Currency
}

// NewTraceReport builds a trace report from an aggregation result
func NewTraceReport(result *cost.Result, id types.WorkItemID, currency types.Currency) *TraceReport {
	r := &TraceReport{WorkItem: id, Lines: result.TraceFor(id), Currency: currency}
	if c, ok := result.UnitCosts.Get(id); ok {
		r.UnitCost = types.Price(c)
	}
	return r
}

// PriceListReport lists resolved prices
type PriceListReport struct {
	Name     string
	Entries  []pricing.PriceEntry
	Currency types.Currency

	// Total is the number of entries before filtering
	Total int
}
