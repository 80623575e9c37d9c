package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"mixquote/core/types"
)

// EditorRow is one line of the price-list editor
type EditorRow struct {
	Code        types.ItemCode      `json:"code"`
	Description string              `json:"description,omitempty"`
	Base        decimal.NullDecimal `json:"base_price"`
	Override    decimal.NullDecimal `json:"override_price"`
}

// Editor edits the override values of a named price list against the catalog.
// When no list exists yet every row starts with its base price as override,
// so saving an untouched editor pins the current catalog prices.
type Editor struct {
	catalog []types.CatalogEntry
	rows    []EditorRow
	index   map[types.ItemCode]int
}

// NewEditor builds editor rows for the catalog. overrides is the current
// list (nil when the list does not exist yet).
func NewEditor(catalog []types.CatalogEntry, overrides []types.PriceOverride) *Editor {
	e := &Editor{
		catalog: catalog,
		index:   make(map[types.ItemCode]int, len(catalog)),
	}

	var byCode map[types.ItemCode]types.PriceOverride
	if overrides != nil {
		byCode = make(map[types.ItemCode]types.PriceOverride)
		for _, ov := range CollapseOverrides(overrides) {
			byCode[ov.Code] = ov
		}
	}

	for _, item := range catalog {
		code := item.Code.Normalize()
		if code == "" {
			continue
		}
		if _, dup := e.index[code]; dup {
			continue
		}
		row := EditorRow{Code: code, Description: item.Description, Base: item.BasePrice}
		if overrides == nil {
			row.Override = item.BasePrice
		} else if ov, ok := byCode[code]; ok {
			row.Override = ov.Price
		}
		e.index[code] = len(e.rows)
		e.rows = append(e.rows, row)
	}
	return e
}

// Rows returns a copy of every row in catalog order
func (e *Editor) Rows() []EditorRow {
	out := make([]EditorRow, len(e.rows))
	copy(out, e.rows)
	return out
}

// Set changes the override of one item; an invalid price clears it
func (e *Editor) Set(code types.ItemCode, price decimal.NullDecimal) error {
	i, ok := e.index[code.Normalize()]
	if !ok {
		return fmt.Errorf("item %s is not in the catalog", code)
	}
	if price.Valid && price.Decimal.IsNegative() {
		return fmt.Errorf("item %s: override price %s is negative", code, price.Decimal)
	}
	e.rows[i].Override = price
	return nil
}

// Overrides returns the list to persist
func (e *Editor) Overrides() ([]types.PriceOverride, error) {
	edits := make(map[types.ItemCode]decimal.NullDecimal, len(e.rows))
	for _, row := range e.rows {
		edits[row.Code] = row.Override
	}
	return BuildOverrideList(e.catalog, edits)
}

// BuildOverrideList derives the override list to save from the catalog and
// the override values entered for it. Rows follow catalog order, carry the
// catalog description, and items without an entered override are dropped.
// Edits for codes absent from the catalog are ignored.
func BuildOverrideList(catalog []types.CatalogEntry, edits map[types.ItemCode]decimal.NullDecimal) ([]types.PriceOverride, error) {
	seen := make(map[types.ItemCode]bool, len(catalog))
	var out []types.PriceOverride
	for _, item := range catalog {
		code := item.Code.Normalize()
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true

		price, ok := edits[code]
		if !ok || !price.Valid {
			continue
		}
		if price.Decimal.IsNegative() {
			return nil, fmt.Errorf("item %s: override price %s is negative", code, price.Decimal)
		}
		out = append(out, types.PriceOverride{
			Code:        code,
			Description: item.Description,
			Price:       price,
		})
	}
	return out, nil
}
