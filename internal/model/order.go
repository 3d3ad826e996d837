package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// CanTransitionTo allows forward moves only. Completed and cancelled are
// terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderProcessing || next == OrderCompleted || next == OrderCancelled
	case OrderProcessing:
		return next == OrderCompleted || next == OrderCancelled
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

type OrderType string

const (
	OrderOnline  OrderType = "online"
	OrderInStore OrderType = "in-store"
	// OrderOfflineSync is accepted as input only; such orders are stored
	// as in-store sales with the client supplied order date.
	OrderOfflineSync OrderType = "offline-sync"
)

type Order struct {
	BaseModel
	ReferenceNumber string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"reference_number"`
	CustomerID      *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	CustomerName    string          `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerPhone   string          `gorm:"type:varchar(50)" json:"customer_phone"`
	CustomerEmail   string          `gorm:"type:varchar(255);index" json:"customer_email"`
	CustomerAddress string          `gorm:"type:text" json:"customer_address"`
	OrderDate       time.Time       `gorm:"not null" json:"order_date"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	OrderType       OrderType       `gorm:"type:varchar(20);not null" json:"order_type"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedByID     *uuid.UUID      `gorm:"type:uuid" json:"created_by_id,omitempty"`
	Viewed          bool            `gorm:"not null;default:false" json:"viewed"`
	ViewedAt        *time.Time      `json:"viewed_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// OrderItem is immutable once written. Price is captured at order time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	LineNo    int             `gorm:"not null" json:"line_no"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Quantity.Mul(i.Price)
}

// ReferenceNumber renders ORD-<YYYYMMDD>-<first 12 hex digits of id>.
func ReferenceNumber(date time.Time, id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return fmt.Sprintf("ORD-%s-%s", date.Format("20060102"), strings.ToUpper(hex[:12]))
}

// OrderFilter narrows order listings. Zero values are ignored.
type OrderFilter struct {
	Status     OrderStatus
	OrderType  OrderType
	CustomerID *uuid.UUID
	Email      string
	From       *time.Time
	To         *time.Time
	Unviewed   bool
	Limit      int
	Offset     int
}

// SalesSummary aggregates non-cancelled orders over a period.
type SalesSummary struct {
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
	Daily      []DailySales    `json:"daily"`
}

type DailySales struct {
	Date       string          `json:"date"`
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// CustomerIdentity is how repeat submissions are matched to a customer:
// linked user id first, then email, then free-text name.
type CustomerIdentity struct {
	UserID *uuid.UUID
	Email  string
	Name   string
}

// Normalized trims and lower-cases the free-text parts.
func (c CustomerIdentity) Normalized() CustomerIdentity {
	return CustomerIdentity{
		UserID: c.UserID,
		Email:  strings.ToLower(strings.TrimSpace(c.Email)),
		Name:   strings.ToLower(strings.TrimSpace(c.Name)),
	}
}

func (c CustomerIdentity) IsEmpty() bool {
	n := c.Normalized()
	return (n.UserID == nil || *n.UserID == uuid.Nil) && n.Email == "" && n.Name == ""
}

// Matches applies the same precedence to an existing order.
func (c CustomerIdentity) Matches(o *Order) bool {
	n := c.Normalized()
	switch {
	case n.UserID != nil && *n.UserID != uuid.Nil:
		return o.CustomerID != nil && *o.CustomerID == *n.UserID
	case n.Email != "":
		return strings.ToLower(strings.TrimSpace(o.CustomerEmail)) == n.Email
	case n.Name != "":
		return strings.ToLower(strings.TrimSpace(o.CustomerName)) == n.Name
	}
	return false
}

// SameText compares free-text fields ignoring case and surrounding space.
// Order listings filter by email with it.
func SameText(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
