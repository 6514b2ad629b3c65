package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
	"github.com/Mojahedhu/Mojahed-Store/internal/pricing"
)

func item(price string, qty int) domain.OrderItem {
	return domain.OrderItem{
		ProductID: "p1",
		Name:      "test product",
		Price:     decimal.RequireFromString(price),
		Qty:       qty,
	}
}

func TestComputeTotals(t *testing.T) {
	cases := []struct {
		name     string
		items    []domain.OrderItem
		wantItem string
		wantShip string
		wantTax  string
		wantTot  string
	}{
		{
			name:     "two of sixty ships free",
			items:    []domain.OrderItem{item("60.00", 2)},
			wantItem: "120.00", wantShip: "0.00", wantTax: "18.00", wantTot: "138.00",
		},
		{
			name:     "exactly at threshold still pays shipping",
			items:    []domain.OrderItem{item("100.00", 1)},
			wantItem: "100.00", wantShip: "10.00", wantTax: "15.00", wantTot: "125.00",
		},
		{
			name:     "one cent above threshold ships free",
			items:    []domain.OrderItem{item("100.01", 1)},
			wantItem: "100.01", wantShip: "0.00", wantTax: "15.00", wantTot: "115.01",
		},
		{
			name:     "tax rounds half up",
			items:    []domain.OrderItem{item("0.10", 1)},
			wantItem: "0.10", wantShip: "10.00", wantTax: "0.02", wantTot: "10.12",
		},
		{
			name:     "multiple lines",
			items:    []domain.OrderItem{item("19.99", 2), item("5.50", 3)},
			wantItem: "56.48", wantShip: "10.00", wantTax: "8.47", wantTot: "74.95",
		},
		{
			name:     "no items",
			items:    nil,
			wantItem: "0.00", wantShip: "10.00", wantTax: "0.00", wantTot: "10.00",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := pricing.ComputeTotals(tc.items)
			if got.ItemsPrice.StringFixed(2) != tc.wantItem {
				t.Errorf("items price = %s, want %s", got.ItemsPrice.StringFixed(2), tc.wantItem)
			}
			if got.ShippingPrice.StringFixed(2) != tc.wantShip {
				t.Errorf("shipping price = %s, want %s", got.ShippingPrice.StringFixed(2), tc.wantShip)
			}
			if got.TaxPrice.StringFixed(2) != tc.wantTax {
				t.Errorf("tax price = %s, want %s", got.TaxPrice.StringFixed(2), tc.wantTax)
			}
			if got.TotalPrice.StringFixed(2) != tc.wantTot {
				t.Errorf("total price = %s, want %s", got.TotalPrice.StringFixed(2), tc.wantTot)
			}

			sum := got.ItemsPrice.Add(got.ShippingPrice).Add(got.TaxPrice)
			if !got.TotalPrice.Equal(sum) {
				t.Errorf("total %s != items+shipping+tax %s", got.TotalPrice, sum)
			}
		})
	}
}

func TestComputeTotalsDeterministic(t *testing.T) {
	items := []domain.OrderItem{item("33.33", 3), item("0.01", 7)}
	first := pricing.ComputeTotals(items)
	second := pricing.ComputeTotals(items)

	if !first.ItemsPrice.Equal(second.ItemsPrice) ||
		!first.ShippingPrice.Equal(second.ShippingPrice) ||
		!first.TaxPrice.Equal(second.TaxPrice) ||
		!first.TotalPrice.Equal(second.TotalPrice) {
		t.Fatalf("same input produced different totals: %+v vs %+v", first, second)
	}
}
