// Package output - Locale-aware number formatting
package output

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"mixquote/core/types"
)

// DefaultLocale is used when none is configured or the tag is invalid
const DefaultLocale = "es-PE"

// undefined is shown for prices that do not exist
const undefined = "-"

// Numbers formats amounts for display. Values are rounded half away from
// zero with decimal before they reach the locale printer.
type Numbers struct {
	printer *message.Printer
	tag     language.Tag
}

// NewNumbers creates a formatter for a BCP 47 locale
func NewNumbers(locale string) *Numbers {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	return &Numbers{printer: message.NewPrinter(tag), tag: tag}
}

// Locale returns the resolved locale tag
func (n *Numbers) Locale() string {
	return n.tag.String()
}

func (n *Numbers) fixed(d decimal.Decimal, places int32) string {
	f := d.Round(places).InexactFloat64()
	return n.printer.Sprint(number.Decimal(f,
		number.MinFractionDigits(int(places)),
		number.MaxFractionDigits(int(places)),
	))
}

// Amount formats with two decimals and grouping
func (n *Numbers) Amount(d decimal.Decimal) string {
	return n.fixed(d, 2)
}

// Money formats an amount with its currency symbol
func (n *Numbers) Money(d decimal.Decimal, c types.Currency) string {
	sym := c.Symbol()
	if sym == "" {
		return n.Amount(d)
	}
	return sym + " " + n.Amount(d)
}

// NullMoney formats a price that may be undefined
func (n *Numbers) NullMoney(d decimal.NullDecimal, c types.Currency) string {
	if !d.Valid {
		return undefined
	}
	return n.Money(d.Decimal, c)
}

// NullAmount formats a value that may be undefined
func (n *Numbers) NullAmount(d decimal.NullDecimal) string {
	if !d.Valid {
		return undefined
	}
	return n.Amount(d.Decimal)
}

// Quantity formats recipe quantities and prices with up to four decimals
func (n *Numbers) Quantity(d decimal.Decimal) string {
	f := d.Round(4).InexactFloat64()
	return n.printer.Sprint(number.Decimal(f, number.MaxFractionDigits(4)))
}

// NullQuantity formats a value that may be undefined with up to four decimals
func (n *Numbers) NullQuantity(d decimal.NullDecimal) string {
	if !d.Valid {
		return undefined
	}
	return n.Quantity(d.Decimal)
}

// Percent formats a fraction as a percentage
func (n *Numbers) Percent(rate decimal.Decimal) string {
	f := rate.Round(6).InexactFloat64()
	return n.printer.Sprint(number.Percent(f, number.MaxFractionDigits(2)))
}
