package kotformat

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the ticket date format (en-IN style)
const TimestampLayout = "02/01/2006, 3:04:05 pm"

const orderNumberLength = 8

// Options controls how an Order becomes a Receipt
type Options struct {
	StoreName string
	TaxRate   decimal.Decimal
	Location  *time.Location
	Now       func() time.Time
}

// FromOrder builds a fresh Receipt from an order.
// Subtotal is derived from the items, tax from TaxRate, and the timestamp is
// formatted here once.
func FromOrder(order Order, opts Options) (Receipt, error) {
	if strings.TrimSpace(order.ID) == "" {
		return Receipt{}, fmt.Errorf("%w: order id is required", ErrInvalidReceipt)
	}

	status, err := ParseStatus(order.Status)
	if err != nil {
		return Receipt{}, err
	}

	items := make([]Item, 0, len(order.Items))
	subtotal := decimal.Zero
	for _, oi := range order.Items {
		item := Item{
			Name:      oi.Name,
			Quantity:  oi.Quantity,
			UnitPrice: oi.Price,
		}
		items = append(items, item)
		subtotal = subtotal.Add(item.LineTotal())
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(opts.TaxRate).Round(2)

	r := Receipt{
		StoreName:      opts.StoreName,
		OrderNumber:    ShortOrderNumber(order.ID),
		CustomerName:   orDefault(order.CustomerName, "Guest"),
		CustomerMobile: orDefault(order.CustomerMobile, "N/A"),
		Items:          items,
		Subtotal:       subtotal,
		Tax:            tax,
		Total:          subtotal.Add(tax),
		Timestamp:      formatTimestamp(order.CreatedAt, opts),
		Status:         status,
	}

	if err := Validate(r); err != nil {
		return Receipt{}, err
	}
	return r, nil
}

// ShortOrderNumber returns the last 8 characters of an order id
func ShortOrderNumber(id string) string {
	runes := []rune(strings.TrimSpace(id))
	if len(runes) <= orderNumberLength {
		return string(runes)
	}
	return string(runes[len(runes)-orderNumberLength:])
}

func formatTimestamp(createdAt time.Time, opts Options) string {
	t := createdAt
	if t.IsZero() {
		now := opts.Now
		if now == nil {
			now = time.Now
		}
		t = now()
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(TimestampLayout)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
