package kotformat

import (
	"fmt"
)

// Validate checks a Receipt against the model rules
func Validate(r Receipt) error {
	if r.OrderNumber == "" {
		return fmt.Errorf("%w: order number is required", ErrInvalidReceipt)
	}

	if len(r.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidReceipt)
	}

	for i, item := range r.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item[%d] %q: quantity must be positive", ErrInvalidReceipt, i, item.Name)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: item[%d] %q: price must not be negative", ErrInvalidReceipt, i, item.Name)
		}
	}

	if r.Subtotal.IsNegative() || r.Tax.IsNegative() || r.Total.IsNegative() {
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidReceipt)
	}

	if !r.Subtotal.Add(r.Tax).Round(2).Equal(r.Total.Round(2)) {
		return fmt.Errorf("%w: total %s does not equal subtotal %s plus tax %s",
			ErrInvalidReceipt, r.Total.StringFixed(2), r.Subtotal.StringFixed(2), r.Tax.StringFixed(2))
	}

	if _, err := ParseStatus(string(r.Status)); err != nil || r.Status == "" {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidReceipt, r.Status)
	}

	return nil
}
