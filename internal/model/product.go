package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	Name         string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Barcode      *string         `gorm:"type:varchar(64);uniqueIndex" json:"barcode,omitempty"`
	Category     string          `gorm:"type:varchar(100);index" json:"category"`
	Unit         string          `gorm:"type:varchar(20)" json:"unit"`
	Currency     string          `gorm:"type:varchar(3);default:'IDR'" json:"currency"`
	Price        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"price" validate:"gte=0"`
	BuyingPrice  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"buying_price" validate:"gte=0"`
	Stock        decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"stock" validate:"gte=0"`
	MaxStock     decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"max_stock" validate:"gte=0"`
	ReorderPoint decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"reorder_point" validate:"gte=0"`
}

// IsLowStock reports whether stock dropped to the reorder point. Products
// without a reorder point use the given threshold.
func (p *Product) IsLowStock(threshold decimal.Decimal) bool {
	limit := p.ReorderPoint
	if limit.IsZero() {
		limit = threshold
	}
	return p.Stock.LessThanOrEqual(limit)
}

// ExceedsMaxStock is a soft rule; zero MaxStock means unbounded.
func (p *Product) ExceedsMaxStock() bool {
	return p.MaxStock.IsPositive() && p.Stock.GreaterThan(p.MaxStock)
}

// ProductStats is the dashboard overview of the catalogue.
type ProductStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}
