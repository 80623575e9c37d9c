// Package types contains the core domain types for the costing engine.
// These types describe catalog items, recipes, products and quotations.
package types

import (
	"fmt"
	"strings"
)

// ItemCode identifies a purchasable input (cement, aggregate, bitumen...)
type ItemCode string

// String returns the string representation
func (c ItemCode) String() string {
	return string(c)
}

// Normalize trims surrounding whitespace from spreadsheet cells
func (c ItemCode) Normalize() ItemCode {
	return ItemCode(strings.TrimSpace(string(c)))
}

// WorkItemID identifies a priceable construction activity ("partida").
// It is the aggregation key for unit costs.
type WorkItemID string

// String returns the string representation
func (w WorkItemID) String() string {
	return string(w)
}

// Product is a material sold by volume
type Product string

const (
	// ProductMAC is hot asphalt mix
	ProductMAC Product = "MAC"

	// ProductMAF is cold asphalt mix
	ProductMAF Product = "MAF"
)

// Products returns every quotable product in display order
func Products() []Product {
	return []Product{ProductMAC, ProductMAF}
}

// String returns the string representation
func (p Product) String() string {
	return string(p)
}

// Valid reports whether p is a known product
func (p Product) Valid() bool {
	return p == ProductMAC || p == ProductMAF
}

// ParseProduct parses a product code, case-insensitively
func ParseProduct(s string) (Product, error) {
	p := Product(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown product %q (expected MAC or MAF)", s)
	}
	return p, nil
}

// Modality is the delivery scope of a quote
type Modality string

const (
	// ModalityPlantOnly prices the mix at the plant
	ModalityPlantOnly Modality = "plant"

	// ModalityDelivered adds m3k transport
	ModalityDelivered Modality = "delivered"

	// ModalityPlaced adds transport and placement work items
	ModalityPlaced Modality = "placed"
)

// Modalities returns every modality in display order
func Modalities() []Modality {
	return []Modality{ModalityPlantOnly, ModalityDelivered, ModalityPlaced}
}

// String returns the string representation
func (m Modality) String() string {
	return string(m)
}

// Label returns a human-readable label
func (m Modality) Label() string {
	switch m {
	case ModalityPlantOnly:
		return "Plant (mix only)"
	case ModalityDelivered:
		return "Delivered (m3k transport)"
	case ModalityPlaced:
		return "Placed (complete)"
	default:
		return string(m)
	}
}

// Valid reports whether m is a known modality
func (m Modality) Valid() bool {
	switch m {
	case ModalityPlantOnly, ModalityDelivered, ModalityPlaced:
		return true
	}
	return false
}

// IncludesTransport reports whether the modality carries transport cost
func (m Modality) IncludesTransport() bool {
	return m == ModalityDelivered || m == ModalityPlaced
}

// IncludesPlacement reports whether the modality carries placement cost
func (m Modality) IncludesPlacement() bool {
	return m == ModalityPlaced
}

var modalityAliases = map[string]Modality{
	"plant":     ModalityPlantOnly,
	"plantonly": ModalityPlantOnly,
	"planta":    ModalityPlantOnly,
	"delivered": ModalityDelivered,
	"entregado": ModalityDelivered,
	"placed":    ModalityPlaced,
	"colocado":  ModalityPlaced,
}

// ParseModality parses a modality name or one of its aliases
func ParseModality(s string) (Modality, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.TrimSpace(s)))
	if m, ok := modalityAliases[key]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown modality %q (expected plant, delivered or placed)", s)
}

// Currency represents a currency code
type Currency string

const (
	CurrencyPEN Currency = "PEN"
	CurrencyUSD Currency = "USD"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// Symbol returns the display symbol
func (c Currency) Symbol() string {
	switch c {
	case CurrencyPEN:
		return "S/"
	case CurrencyUSD:
		return "$"
	default:
		return string(c)
	}
}

// ParseCurrency parses a currency code
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case CurrencyPEN, CurrencyUSD:
		return c, nil
	}
	return "", fmt.Errorf("unknown currency %q (expected PEN or USD)", s)
}
