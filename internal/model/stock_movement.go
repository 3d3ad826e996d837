package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementSale    MovementType = "sale"
	MovementRestock MovementType = "restock"
)

func (t MovementType) Valid() bool {
	return t == MovementSale || t == MovementRestock
}

// Sign is -1 for sales and +1 for restocks.
func (t MovementType) Sign() int64 {
	if t == MovementSale {
		return -1
	}
	return 1
}

// StockMovement is one append-only ledger entry. RemainingStock is the
// product stock right after the movement was applied.
type StockMovement struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity       decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	MovementType   MovementType    `gorm:"type:varchar(10);not null" json:"movement_type"`
	RemainingStock decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"remaining_stock"`
	OrderID        *uuid.UUID      `gorm:"type:uuid;index" json:"order_id,omitempty"`
	Notes          string          `gorm:"type:text" json:"notes"`
	CreatedBy      string          `gorm:"type:varchar(255)" json:"created_by"`
	Timestamp      time.Time       `gorm:"not null;index" json:"timestamp"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Signed returns the quantity with the sign of its movement type.
func (m *StockMovement) Signed() decimal.Decimal {
	return m.Quantity.Mul(decimal.NewFromInt(m.MovementType.Sign()))
}

// DailyMovement is one chart point of the dashboard stock chart.
type DailyMovement struct {
	Date     string          `json:"date"`
	Inbound  decimal.Decimal `json:"inbound"`
	Outbound decimal.Decimal `json:"outbound"`
}
