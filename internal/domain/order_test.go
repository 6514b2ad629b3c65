package domain

import "testing"

func TestParsePaymentMethod(t *testing.T) {
	cases := []struct {
		in      string
		want    PaymentMethod
		wantErr bool
	}{
		{"Stripe", PaymentMethodStripe, false},
		{"PayPal", PaymentMethodPayPal, false},
		{"", "", true},
		{"stripe", "", true},
		{"Bitcoin", "", true},
	}

	for _, tc := range cases {
		got, err := ParsePaymentMethod(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParsePaymentMethod(%q): expected error", tc.in)
			}
			if KindOf(err) != KindValidation {
				t.Errorf("ParsePaymentMethod(%q): kind = %q, want validation", tc.in, KindOf(err))
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePaymentMethod(%q): unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParsePaymentMethod(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestShippingAddressValidate(t *testing.T) {
	full := ShippingAddress{Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
	if err := full.Validate(); err != nil {
		t.Fatalf("complete address: unexpected error %v", err)
	}

	missing := []ShippingAddress{
		{City: "c", PostalCode: "p", Country: "US"},
		{Address: "a", PostalCode: "p", Country: "US"},
		{Address: "a", City: "c", Country: "US"},
		{Address: "a", City: "c", PostalCode: "p"},
	}
	for i, addr := range missing {
		if err := addr.Validate(); KindOf(err) != KindValidation {
			t.Errorf("case %d: kind = %q, want validation", i, KindOf(err))
		}
	}
}

func TestOwnedBy(t *testing.T) {
	order := Order{UserID: "user-1"}

	if !order.OwnedBy(Principal{UserID: "user-1"}) {
		t.Error("owner should own the order")
	}
	if order.OwnedBy(Principal{UserID: "user-2", IsAdmin: true}) {
		t.Error("admin is not the owner")
	}
	if (&Order{}).OwnedBy(Principal{}) {
		t.Error("order without user must not match empty principal")
	}
}
