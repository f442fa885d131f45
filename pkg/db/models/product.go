package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is the catalogue row. Price fields are stored as decimal pounds;
// CostPrice and TaxRate are back-office fields and never leave the admin API.
type Product struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	SKU          string           `gorm:"column:sku;not null;uniqueIndex"`
	Name         string           `gorm:"column:name;not null"`
	ShortDesc    string           `gorm:"column:short_desc"`
	FullDesc     string           `gorm:"column:full_desc"`
	Category     string           `gorm:"column:category;not null;index"`
	Tags         pq.StringArray   `gorm:"column:tags;type:text[]"`
	Price        decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	SalePrice    *decimal.Decimal `gorm:"column:sale_price;type:numeric(10,2)"`
	TaxRate      decimal.Decimal  `gorm:"column:tax_rate;type:numeric(5,4);not null;default:0"`
	CostPrice    decimal.Decimal  `gorm:"column:cost_price;type:numeric(10,2);not null;default:0"`
	Available    bool             `gorm:"column:available;not null;default:true"`
	StockQty     int              `gorm:"column:stock_qty;not null;default:0"`
	MaxOrderQty  int              `gorm:"column:max_order_qty;not null;default:0"`
	PrepTimeMins int              `gorm:"column:prep_time_mins;not null;default:0"`
	ImageURL     string           `gorm:"column:image_url"`
	Images       pq.StringArray   `gorm:"column:images;type:text[]"`
	Active       bool             `gorm:"column:active;not null;default:true"`
	SortOrder    int              `gorm:"column:sort_order;not null;default:0"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// CurrentPrice returns the effective unit price, honouring an active sale.
func (p Product) CurrentPrice() decimal.Decimal {
	if p.SalePrice != nil && p.SalePrice.IsPositive() {
		return *p.SalePrice
	}
	return p.Price
}
