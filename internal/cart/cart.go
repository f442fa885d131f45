// Package cart models the in-flight basket an order is built from. Checkout
// normalizes the submitted lines through a Cart so duplicate product entries
// merge and quantities stay within bounds before anything is priced.
package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendgb/vendgb-backend/pkg/money"
)

// Line is a single product entry in the basket.
type Line struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// LineTotal returns the rounded price of the line.
func (l Line) LineTotal() decimal.Decimal {
	return money.Round2(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
}

// Cart accumulates lines in insertion order, merging repeats by product.
type Cart struct {
	lines []Line
	index map[uuid.UUID]int
}

func New() *Cart {
	return &Cart{index: make(map[uuid.UUID]int)}
}

// Add inserts a line or merges the quantity into an existing one. Quantities
// at or below zero are ignored.
func (c *Cart) Add(productID uuid.UUID, name string, unitPrice decimal.Decimal, qty int) {
	if qty <= 0 {
		return
	}
	if i, ok := c.index[productID]; ok {
		c.lines[i].Quantity += qty
		return
	}
	c.index[productID] = len(c.lines)
	c.lines = append(c.lines, Line{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  qty,
	})
}

// ChangeQuantity adjusts a line's quantity by delta; reaching zero or below
// removes the line. Unknown products are ignored.
func (c *Cart) ChangeQuantity(productID uuid.UUID, delta int) {
	i, ok := c.index[productID]
	if !ok {
		return
	}
	qty := c.lines[i].Quantity + delta
	if qty <= 0 {
		c.remove(i)
		return
	}
	c.lines[i].Quantity = qty
}

// SetQuantity overrides a line's quantity; zero or below removes the line.
func (c *Cart) SetQuantity(productID uuid.UUID, qty int) {
	i, ok := c.index[productID]
	if !ok {
		return
	}
	if qty <= 0 {
		c.remove(i)
		return
	}
	c.lines[i].Quantity = qty
}

func (c *Cart) remove(i int) {
	removed := c.lines[i].ProductID
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, removed)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ProductID] = j
	}
}

// Lines returns the basket contents in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// IsEmpty reports whether the basket holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// ItemCount returns the summed quantity across all lines.
func (c *Cart) ItemCount() int {
	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}

// Total sums the line totals, rounded to two decimal places.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.LineTotal())
	}
	return money.Round2(total)
}

// Clear empties the basket.
func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[uuid.UUID]int)
}
