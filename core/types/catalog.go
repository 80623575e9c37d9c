// Package types - Catalog and recipe tables
package types

import "github.com/shopspring/decimal"

// CatalogEntry is one row of the item catalog
type CatalogEntry struct {
	// Code uniquely identifies the item
	Code ItemCode `json:"code"`

	// Description is the human-readable item name
	Description string `json:"description,omitempty"`

	// BasePrice is the list price; invalid when the cell was empty
	BasePrice decimal.NullDecimal `json:"base_price"`
}

// PriceOverride is a negotiated price for one item in a named price list
type PriceOverride struct {
	// Code is the overridden item
	Code ItemCode `json:"code"`

	// Description is carried along for readability of saved lists
	Description string `json:"description,omitempty"`

	// Price is the override value; invalid means "no override entered"
	Price decimal.NullDecimal `json:"price"`
}

// RecipeLine is one consumption line of the ACU table
type RecipeLine struct {
	// WorkItem is the work item consuming the item
	WorkItem WorkItemID `json:"work_item"`

	// ItemCode is the consumed item
	ItemCode ItemCode `json:"item_code"`

	// Quantity is consumed per cubic meter of the work item
	Quantity decimal.Decimal `json:"quantity"`

	// RecipePrice is the price recorded inline in the recipe table,
	// used when the item has no active price
	RecipePrice decimal.NullDecimal `json:"recipe_price"`
}

// Price wraps a decimal as a valid NullDecimal
func Price(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}

// NoPrice is the undefined price
func NoPrice() decimal.NullDecimal {
	return decimal.NullDecimal{}
}
