// Package money holds the currency arithmetic helpers shared by checkout
// and payments. Amounts are stored as decimal pounds and only converted to
// integer pence at the payment gateway boundary.
package money

import "github.com/shopspring/decimal"

// Round2 rounds an amount half away from zero to two decimal places.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// ToPence converts a decimal pound amount to the smallest currency unit.
func ToPence(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromPence converts a pence amount back to decimal pounds.
func FromPence(pence int64) decimal.Decimal {
	return decimal.NewFromInt(pence).Div(decimal.NewFromInt(100))
}
