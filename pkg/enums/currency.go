package enums

import (
	"fmt"
	"strings"
)

// Currency is the ISO 4217 lowercase code the payment gateway expects.
type Currency string

const (
	CurrencyGBP Currency = "gbp"
	CurrencyEUR Currency = "eur"
	CurrencyUSD Currency = "usd"
)

func (c Currency) String() string {
	return string(c)
}

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyGBP, CurrencyEUR, CurrencyUSD:
		return true
	}
	return false
}

func ParseCurrency(value string) (Currency, error) {
	currency := Currency(strings.ToLower(strings.TrimSpace(value)))
	if !currency.IsValid() {
		return "", fmt.Errorf("invalid currency: %q", value)
	}
	return currency, nil
}
