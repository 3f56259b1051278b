package renderer

import (
	"fmt"

	"github.com/thereceipt/kot-bridge/pkg/kotformat"
)

// DeviceStream renders the receipt as an ESC/POS byte stream.
// Identical receipts always produce identical bytes.
func (f *Formatter) DeviceStream(r kotformat.Receipt) []byte {
	enc := NewEncoder()
	enc.Initialize()

	// Header
	enc.SetAlignment(AlignCenter)
	enc.WriteBoldLine(r.StoreName)
	enc.WriteLine(f.divider())
	enc.WriteBoldLine("KOT")

	enc.SetAlignment(AlignLeft)
	enc.WriteLine("Order #: " + r.OrderNumber)
	enc.WriteLine("Date: " + r.Timestamp)
	enc.WriteLine("Customer: " + r.CustomerName)
	enc.WriteLine("Mobile: " + r.CustomerMobile)
	enc.WriteLine(f.divider())

	// Names longer than the pad are not truncated.
	for _, item := range r.Items {
		enc.WriteLine(fmt.Sprintf("%dx %-*s %s", item.Quantity, f.layout.NamePad, item.Name, f.money(item.LineTotal())))
	}
	enc.WriteLine(f.divider())

	if !r.Tax.IsZero() {
		enc.WriteLine("Subtotal: " + f.money(r.Subtotal))
		enc.WriteLine("Tax: " + f.money(r.Tax))
	}
	enc.WriteBoldLine("Total: " + f.money(r.Total))
	enc.WriteLine("Status: " + string(r.Status))

	enc.SetAlignment(AlignCenter)
	enc.WriteLine("Thank You!")
	enc.Feed(2)
	enc.Cut()

	return enc.Bytes()
}
