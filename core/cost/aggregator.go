// Package cost aggregates recipe (ACU) lines into per-m3 unit costs.
// A work item's unit cost is the sum of quantity x price over its lines.
package cost

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mixquote/core/types"
	"mixquote/internal/errors"
	"mixquote/internal/logging"
)

// Strictness decides what an unresolved item price does to aggregation
type Strictness string

const (
	// StrictnessFail aborts aggregation when any line is unresolved
	StrictnessFail Strictness = "fail"

	// StrictnessUndetermined drops the affected work items from the result and
	// reports them as undetermined; other work items are still costed
	StrictnessUndetermined Strictness = "undetermined"
)

// ParseStrictness parses a strictness policy name; empty means StrictnessFail
func ParseStrictness(s string) (Strictness, error) {
	switch Strictness(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrictnessFail:
		return StrictnessFail, nil
	case StrictnessUndetermined:
		return StrictnessUndetermined, nil
	}
	return "", fmt.Errorf("unknown strictness %q (expected fail or undetermined)", s)
}

// PriceSource tells where the price of a recipe line came from
type PriceSource string

const (
	SourceActive     PriceSource = "active"
	SourceRecipe     PriceSource = "recipe"
	SourceUnresolved PriceSource = "unresolved"
)

// Prices looks up active item prices
type Prices interface {
	Lookup(code types.ItemCode) (decimal.Decimal, bool)
}

// noPrices stands in for a missing price table; every lookup misses
type noPrices struct{}

func (noPrices) Lookup(types.ItemCode) (decimal.Decimal, bool) {
	return decimal.Decimal{}, false
}

// describer is implemented by price tables that know item descriptions
type describer interface {
	Description(code types.ItemCode) string
}

// TraceLine is the audit record of one recipe line
type TraceLine struct {
	WorkItem    types.WorkItemID    `json:"work_item"`
	ItemCode    types.ItemCode      `json:"item_code"`
	Description string              `json:"description,omitempty"`
	Quantity    decimal.Decimal     `json:"quantity"`
	PriceUsed   decimal.NullDecimal `json:"price_used"`
	Source      PriceSource         `json:"price_source"`
	Subtotal    decimal.NullDecimal `json:"subtotal"`
}

// UnitCosts maps work items to their cost per cubic meter
type UnitCosts struct {
	costs map[types.WorkItemID]decimal.Decimal
	ids   []types.WorkItemID
}

// NewUnitCosts builds a mapping from explicit values
func NewUnitCosts(costs map[types.WorkItemID]decimal.Decimal) *UnitCosts {
	u := &UnitCosts{costs: make(map[types.WorkItemID]decimal.Decimal, len(costs))}
	for id, c := range costs {
		u.costs[id] = c
		u.ids = append(u.ids, id)
	}
	sort.Slice(u.ids, func(i, j int) bool { return u.ids[i] < u.ids[j] })
	return u
}

// Get returns the unit cost of a work item
func (u *UnitCosts) Get(id types.WorkItemID) (decimal.Decimal, bool) {
	if u == nil {
		return decimal.Decimal{}, false
	}
	c, ok := u.costs[id]
	return c, ok
}

// IDs returns the costed work items in ascending order
func (u *UnitCosts) IDs() []types.WorkItemID {
	if u == nil {
		return nil
	}
	out := make([]types.WorkItemID, len(u.ids))
	copy(out, u.ids)
	return out
}

// Len returns the number of costed work items
func (u *UnitCosts) Len() int {
	if u == nil {
		return 0
	}
	return len(u.ids)
}

// Result is the outcome of one aggregation
type Result struct {
	// UnitCosts holds every work item whose cost is determined
	UnitCosts *UnitCosts `json:"-"`

	// Undetermined lists work items with unresolved lines (StrictnessUndetermined only)
	Undetermined []types.WorkItemID `json:"undetermined,omitempty"`

	// Trace has one record per recipe line, in table order
	Trace []TraceLine `json:"trace"`
}

// TraceFor returns the trace lines of one work item
func (r *Result) TraceFor(id types.WorkItemID) []TraceLine {
	var out []TraceLine
	for _, line := range r.Trace {
		if line.WorkItem == id {
			out = append(out, line)
		}
	}
	return out
}

// WorkItems returns every work item of the recipe table, costed or not, ascending
func (r *Result) WorkItems() []types.WorkItemID {
	ids := r.UnitCosts.IDs()
	ids = append(ids, r.Undetermined...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Aggregator joins recipe lines against active prices
type Aggregator struct {
	strictness Strictness
	logger     *zap.Logger
}

// NewAggregator creates an aggregator; a nil logger uses the global one
func NewAggregator(strictness Strictness, logger *zap.Logger) *Aggregator {
	if strictness == "" {
		strictness = StrictnessFail
	}
	return &Aggregator{strictness: strictness, logger: logging.OrDefault(logger, "cost")}
}

// Strictness returns the configured policy
func (a *Aggregator) Strictness() Strictness {
	return a.strictness
}

// Aggregate computes the unit cost of every work item in the recipe table.
//
// Each line is priced with the item's active price, falling back to the
// price recorded in the recipe itself. A line with neither is unresolved and
// never counts as zero: under StrictnessFail the whole aggregation fails
// with UNRESOLVED_ITEM_PRICE, under StrictnessUndetermined its work item is
// left without a cost. Zero-quantity lines contribute zero. A nil prices
// resolves every line from the recipe alone.
func (a *Aggregator) Aggregate(lines []types.RecipeLine, prices Prices) (*Result, error) {
	if prices == nil {
		prices = noPrices{}
	}
	desc, _ := prices.(describer)

	sums := make(map[types.WorkItemID]decimal.Decimal)
	unresolved := make(map[types.WorkItemID]bool)
	var refs []string
	trace := make([]TraceLine, 0, len(lines))

	for _, line := range lines {
		id := types.WorkItemID(strings.TrimSpace(line.WorkItem.String()))
		code := line.ItemCode.Normalize()

		tl := TraceLine{WorkItem: id, ItemCode: code, Quantity: line.Quantity}
		if desc != nil {
			tl.Description = desc.Description(code)
		}

		if p, ok := prices.Lookup(code); ok {
			tl.PriceUsed = types.Price(p)
			tl.Source = SourceActive
		} else if line.RecipePrice.Valid {
			tl.PriceUsed = line.RecipePrice
			tl.Source = SourceRecipe
		} else {
			tl.Source = SourceUnresolved
		}

		if _, seen := sums[id]; !seen {
			sums[id] = decimal.Zero
		}
		if tl.PriceUsed.Valid {
			sub := line.Quantity.Mul(tl.PriceUsed.Decimal)
			tl.Subtotal = types.Price(sub)
			sums[id] = sums[id].Add(sub)
		} else {
			unresolved[id] = true
			refs = append(refs, fmt.Sprintf("%s/%s", id, code))
		}
		trace = append(trace, tl)
	}

	if len(refs) > 0 && a.strictness == StrictnessFail {
		a.logger.Warn("unresolved item prices", zap.Strings("lines", refs))
		return nil, errors.UnresolvedItemPrice(refs)
	}

	costs := make(map[types.WorkItemID]decimal.Decimal, len(sums))
	var undetermined []types.WorkItemID
	for id, sum := range sums {
		if unresolved[id] {
			undetermined = append(undetermined, id)
			continue
		}
		costs[id] = sum
	}
	sort.Slice(undetermined, func(i, j int) bool { return undetermined[i] < undetermined[j] })

	if len(undetermined) > 0 {
		a.logger.Warn("work items left undetermined",
			zap.Int("count", len(undetermined)),
			zap.Strings("lines", refs),
		)
	}

	result := &Result{
		UnitCosts:    NewUnitCosts(costs),
		Undetermined: undetermined,
		Trace:        trace,
	}
	a.logger.Debug("aggregated unit costs",
		zap.Int("lines", len(lines)),
		zap.Int("work_items", result.UnitCosts.Len()),
	)
	return result, nil
}
