package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	cases := []struct {
		in      string
		want    OrderStatus
		wantErr bool
	}{
		{"new", OrderStatusNew, false},
		{"PAID", OrderStatusPaid, false},
		{" out_for_delivery ", OrderStatusOutForDelivery, false},
		{"shipped", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseOrderStatus(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseOrderStatus(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseOrderStatus(%q) error = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseOrderStatus(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	terminal := []OrderStatus{OrderStatusDelivered, OrderStatusCancelled, OrderStatusFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = false, want true", s)
		}
	}
	open := []OrderStatus{OrderStatusNew, OrderStatusPaid, OrderStatusPreparing, OrderStatusOutForDelivery}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("%s.IsTerminal() = true, want false", s)
		}
	}
}

func TestParseCurrency(t *testing.T) {
	if got, err := ParseCurrency("GBP"); err != nil || got != CurrencyGBP {
		t.Errorf("ParseCurrency(GBP) = %v, %v", got, err)
	}
	if _, err := ParseCurrency("btc"); err == nil {
		t.Error("ParseCurrency(btc) expected error")
	}
}
