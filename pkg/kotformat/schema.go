// Package kotformat defines the kitchen order ticket model printed by the bridge
package kotformat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidReceipt is returned when a receipt or its source order breaks the model rules
var ErrInvalidReceipt = errors.New("invalid receipt")

// Status is the lifecycle state printed on the ticket
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus maps an order status to a Status. Empty means pending.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusPending:
		return StatusPending, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidReceipt, s)
	}
}

// Receipt is the immutable value handed to the formatters.
// It is built once per print request and never shared.
type Receipt struct {
	StoreName      string
	OrderNumber    string
	CustomerName   string
	CustomerMobile string
	Items          []Item
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
	Timestamp      string
	Status         Status
}

// Item is a single ticket line
type Item struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineTotal returns quantity times unit price
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// FormatMoney renders an amount with a currency symbol and two decimals
func FormatMoney(currency string, amount decimal.Decimal) string {
	return currency + amount.StringFixed(2)
}
