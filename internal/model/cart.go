package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartStatus string

const (
	CartActive    CartStatus = "active"
	CartCompleted CartStatus = "completed"
)

// Cart is pre-order state owned by a signed-in user or an anonymous
// session key. It is marked completed, never deleted, after checkout.
type Cart struct {
	BaseModel
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	SessionKey  *string    `gorm:"type:varchar(64);index" json:"session_key,omitempty"`
	Status      CartStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	OrderID     *uuid.UUID `gorm:"type:uuid" json:"order_id,omitempty"`

	Items []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

type CartItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	CartID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// CartOwner identifies whose cart is addressed. UserID wins over the
// session key when both are present.
type CartOwner struct {
	UserID     *uuid.UUID
	SessionKey string
}

func (o CartOwner) Empty() bool {
	return o.UserID == nil && o.SessionKey == ""
}
