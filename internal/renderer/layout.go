// Package renderer turns a kotformat.Receipt into the two printable documents:
// the ESC/POS device stream and the HTML fallback page.
package renderer

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/thereceipt/kot-bridge/pkg/kotformat"
)

// Layout holds the fixed KOT layout parameters
type Layout struct {
	Currency     string
	DividerWidth int
	NamePad      int
}

// DefaultLayout is the 80mm / 32 column ticket
var DefaultLayout = Layout{
	Currency:     "₹",
	DividerWidth: 32,
	NamePad:      20,
}

// Formatter renders receipts. It holds no state besides its layout and is
// safe for concurrent use.
type Formatter struct {
	layout Layout
}

// New creates a Formatter. Zero fields in layout take the DefaultLayout value.
func New(layout Layout) *Formatter {
	if layout.Currency == "" {
		layout.Currency = DefaultLayout.Currency
	}
	if layout.DividerWidth <= 0 {
		layout.DividerWidth = DefaultLayout.DividerWidth
	}
	if layout.NamePad <= 0 {
		layout.NamePad = DefaultLayout.NamePad
	}
	return &Formatter{layout: layout}
}

// Layout returns the layout in use
func (f *Formatter) Layout() Layout {
	return f.layout
}

func (f *Formatter) money(amount decimal.Decimal) string {
	return kotformat.FormatMoney(f.layout.Currency, amount)
}

func (f *Formatter) divider() string {
	return strings.Repeat("=", f.layout.DividerWidth)
}
