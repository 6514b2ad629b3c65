// Package pricing computes the authoritative monetary totals of an order
// from its line-item snapshots. It is pure: identical inputs always yield
// identical outputs, which lets the reconciliation service re-verify
// processor-reported amounts independently.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

var (
	taxRate          = decimal.RequireFromString("0.15")
	flatShipping     = decimal.RequireFromString("10.00")
	freeShippingOver = decimal.RequireFromString("100.00")
)

// ComputeTotals derives items/shipping/tax/total from the line items.
// All values are rounded half-up to 2 decimal places, and
// TotalPrice == ItemsPrice + ShippingPrice + TaxPrice holds exactly.
func ComputeTotals(items []domain.OrderItem) domain.Totals {
	itemsPrice := decimal.Zero
	for _, it := range items {
		itemsPrice = itemsPrice.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	itemsPrice = itemsPrice.Round(2)

	// Flat-rate shipping with a free-shipping threshold: strictly above
	// 100.00 ships free, exactly 100.00 does not.
	shipping := flatShipping
	if itemsPrice.GreaterThan(freeShippingOver) {
		shipping = decimal.Zero.Round(2)
	}

	tax := itemsPrice.Mul(taxRate).Round(2)
	total := itemsPrice.Add(shipping).Add(tax).Round(2)

	return domain.Totals{
		ItemsPrice:    itemsPrice,
		ShippingPrice: shipping,
		TaxPrice:      tax,
		TotalPrice:    total,
	}
}
