// Package pricing resolves the active price of every catalog item.
// Active prices come from the catalog base price unless a named price list
// carries an override for the item.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mixquote/core/types"
	"mixquote/internal/logging"
	"mixquote/internal/textfold"
)

// PriceEntry is the resolved price of one catalog item
type PriceEntry struct {
	Code        types.ItemCode      `json:"code"`
	Description string              `json:"description,omitempty"`
	Base        decimal.NullDecimal `json:"base_price"`
	Override    decimal.NullDecimal `json:"override_price"`
	Active      decimal.NullDecimal `json:"active_price"`
}

// Overridden reports whether the override replaced the base price
func (e PriceEntry) Overridden() bool {
	return e.Override.Valid
}

// PriceTable maps item codes to active prices, in catalog order.
// It is immutable once returned by Resolve.
type PriceTable struct {
	entries []PriceEntry
	index   map[types.ItemCode]int
}

// Lookup returns the active price of an item. ok is false when the item is
// unknown or has no price at all.
func (t *PriceTable) Lookup(code types.ItemCode) (price decimal.Decimal, ok bool) {
	if t == nil {
		return decimal.Decimal{}, false
	}
	i, found := t.index[code]
	if !found || !t.entries[i].Active.Valid {
		return decimal.Decimal{}, false
	}
	return t.entries[i].Active.Decimal, true
}

// Entry returns the full resolution record of an item
func (t *PriceTable) Entry(code types.ItemCode) (PriceEntry, bool) {
	if t == nil {
		return PriceEntry{}, false
	}
	i, ok := t.index[code]
	if !ok {
		return PriceEntry{}, false
	}
	return t.entries[i], true
}

// Description returns the catalog description of an item, or ""
func (t *PriceTable) Description(code types.ItemCode) string {
	e, _ := t.Entry(code)
	return e.Description
}

// Entries returns a copy of all entries in catalog order
func (t *PriceTable) Entries() []PriceEntry {
	if t == nil {
		return nil
	}
	out := make([]PriceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of catalog codes
func (t *PriceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Filter returns entries whose code or description contains query,
// ignoring case and accents. limit <= 0 means no limit.
func (t *PriceTable) Filter(query string, limit int) []PriceEntry {
	var out []PriceEntry
	for _, e := range t.Entries() {
		if limit > 0 && len(out) >= limit {
			break
		}
		if query == "" || textfold.Contains(e.Code.String(), query) || textfold.Contains(e.Description, query) {
			out = append(out, e)
		}
	}
	return out
}

// Unpriced lists codes with neither a base price nor an override.
// These are not an error here; aggregation decides what to do with them.
func (t *PriceTable) Unpriced() []types.ItemCode {
	var codes []types.ItemCode
	for _, e := range t.Entries() {
		if !e.Active.Valid {
			codes = append(codes, e.Code)
		}
	}
	return codes
}

// OverrideCount returns how many entries use an override price
func (t *PriceTable) OverrideCount() int {
	n := 0
	for _, e := range t.Entries() {
		if e.Overridden() {
			n++
		}
	}
	return n
}

// Resolver merges a catalog with an optional override list
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a resolver; a nil logger uses the global one
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logging.OrDefault(logger, "pricing")}
}

// Resolve builds the active price table.
//
// A nil overrides slice means no price list is in use and every item keeps
// its base price. Otherwise the list is collapsed with CollapseOverrides and
// left-joined onto the catalog by code: an override with a price replaces
// the base price, anything else keeps it.
//
// The catalog is deduplicated by code keeping the first entry; the table
// holds exactly one entry per code. When the first entry has no base price
// the first later entry that has one supplies it.
func (r *Resolver) Resolve(catalog []types.CatalogEntry, overrides []types.PriceOverride) *PriceTable {
	table := &PriceTable{
		entries: make([]PriceEntry, 0, len(catalog)),
		index:   make(map[types.ItemCode]int, len(catalog)),
	}

	var byCode map[types.ItemCode]types.PriceOverride
	if overrides != nil {
		collapsed := CollapseOverrides(overrides)
		byCode = make(map[types.ItemCode]types.PriceOverride, len(collapsed))
		for _, ov := range collapsed {
			byCode[ov.Code] = ov
		}
	}

	for _, item := range catalog {
		code := item.Code.Normalize()
		if code == "" {
			r.logger.Warn("skipping catalog row without code", zap.String("description", item.Description))
			continue
		}
		if i, dup := table.index[code]; dup {
			kept := &table.entries[i]
			if !kept.Base.Valid && item.BasePrice.Valid {
				kept.Base = item.BasePrice
				if !kept.Override.Valid {
					kept.Active = item.BasePrice
				}
				r.logger.Warn("duplicate catalog code, taking price from a later entry", zap.String("code", code.String()))
				continue
			}
			r.logger.Warn("duplicate catalog code, keeping first entry", zap.String("code", code.String()))
			continue
		}

		entry := PriceEntry{
			Code:        code,
			Description: item.Description,
			Base:        item.BasePrice,
			Active:      item.BasePrice,
		}
		if ov, ok := byCode[code]; ok && ov.Price.Valid {
			entry.Override = ov.Price
			entry.Active = ov.Price
		}

		table.index[code] = len(table.entries)
		table.entries = append(table.entries, entry)
	}

	r.logger.Debug("resolved active prices",
		zap.Int("items", table.Len()),
		zap.Int("overridden", table.OverrideCount()),
		zap.Int("unpriced", len(table.Unpriced())),
	)
	return table
}

// CollapseOverrides reduces an override list to one row per code.
//
// Rows without a code are dropped. The rest are sorted by code ascending and,
// within a code, by price ascending with missing prices first; the LAST row
// of each code survives. The survivor therefore does not depend on the order
// of rows in the source file: among duplicates the highest price wins. This
// is not "most recent edit wins": a price list that repeats a code with a
// lower, later price still resolves to the higher one.
func CollapseOverrides(overrides []types.PriceOverride) []types.PriceOverride {
	rows := make([]types.PriceOverride, 0, len(overrides))
	for _, ov := range overrides {
		ov.Code = ov.Code.Normalize()
		if ov.Code == "" {
			continue
		}
		rows = append(rows, ov)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Code != rows[j].Code {
			return rows[i].Code < rows[j].Code
		}
		return priceLess(rows[i].Price, rows[j].Price)
	})

	out := make([]types.PriceOverride, 0, len(rows))
	for i, ov := range rows {
		if i+1 < len(rows) && rows[i+1].Code == ov.Code {
			continue
		}
		out = append(out, ov)
	}
	return out
}

// priceLess orders missing prices before any defined price
func priceLess(a, b decimal.NullDecimal) bool {
	if !a.Valid || !b.Valid {
		return !a.Valid && b.Valid
	}
	return a.Decimal.LessThan(b.Decimal)
}
