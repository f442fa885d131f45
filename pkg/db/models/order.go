package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendgb/vendgb-backend/pkg/enums"
)

// Order is the checkout aggregate root. Total is the server-computed sum of
// the line totals; PaymentIntentID is set once a gateway intent is opened.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerName    string            `gorm:"column:customer_name;not null"`
	CustomerEmail   string            `gorm:"column:customer_email;not null"`
	CustomerPhone   string            `gorm:"column:customer_phone"`
	AddressLine1    string            `gorm:"column:address_line1;not null"`
	AddressLine2    string            `gorm:"column:address_line2"`
	City            string            `gorm:"column:city;not null"`
	Postcode        string            `gorm:"column:postcode;not null"`
	Notes           string            `gorm:"column:notes"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:'new';index"`
	PaymentIntentID *string           `gorm:"column:payment_intent_id;uniqueIndex"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
