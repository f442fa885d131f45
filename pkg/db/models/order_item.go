package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots a catalogue line at checkout time. Name and UnitPrice
// are copied from the product so later catalogue edits never rewrite history.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(10,2);not null"`
	Position  int             `gorm:"column:position;not null;default:0"`
}
