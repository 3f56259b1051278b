package kotformat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the order object owned by the POS application.
// The bridge only ever reads it.
type Order struct {
	ID             string          `json:"id"`
	CustomerName   string          `json:"customerName,omitempty"`
	CustomerMobile string          `json:"customerMobile,omitempty"`
	Items          []OrderItem     `json:"items"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Status         string          `json:"status,omitempty"`
	CreatedAt      time.Time       `json:"createdAt,omitempty"`
}

// OrderItem is a line of an Order
type OrderItem struct {
	Name     string          `json:"itemName"`
	Quantity int             `json:"qty"`
	Price    decimal.Decimal `json:"price"`
}

// UnmarshalJSON accepts both the field names written by the POS UI and the ones
// returned by the orders API (_id, mobileNumber, totalPrice, ...).
func (o *Order) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID             string           `json:"id"`
		MongoID        string           `json:"_id"`
		CustomerName   string           `json:"customerName"`
		CustomerMobile string           `json:"customerMobile"`
		MobileNumber   string           `json:"mobileNumber"`
		Items          []OrderItem      `json:"items"`
		TotalAmount    *decimal.Decimal `json:"totalAmount"`
		TotalPrice     *decimal.Decimal `json:"totalPrice"`
		Status         string           `json:"status"`
		CreatedAt      string           `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*o = Order{
		ID:             firstNonEmpty(raw.MongoID, raw.ID),
		CustomerName:   raw.CustomerName,
		CustomerMobile: firstNonEmpty(raw.CustomerMobile, raw.MobileNumber),
		Items:          raw.Items,
		Status:         raw.Status,
	}

	switch {
	case raw.TotalAmount != nil:
		o.TotalAmount = *raw.TotalAmount
	case raw.TotalPrice != nil:
		o.TotalAmount = *raw.TotalPrice
	}

	if ts := strings.TrimSpace(raw.CreatedAt); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return fmt.Errorf("invalid createdAt %q: %w", ts, err)
		}
		o.CreatedAt = t
	}

	return nil
}

// UnmarshalJSON accepts itemName/name and qty/quantity
func (i *OrderItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ItemName string          `json:"itemName"`
		Name     string          `json:"name"`
		Qty      *int            `json:"qty"`
		Quantity *int            `json:"quantity"`
		Price    decimal.Decimal `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*i = OrderItem{
		Name:  firstNonEmpty(raw.ItemName, raw.Name),
		Price: raw.Price,
	}
	switch {
	case raw.Qty != nil:
		i.Quantity = *raw.Qty
	case raw.Quantity != nil:
		i.Quantity = *raw.Quantity
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
