package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UnknownProductName stands in for products that no longer exist.
const UnknownProductName = "Unknown product"

type OrderSummary struct {
	ID              uuid.UUID       `json:"id"`
	ReferenceNumber string          `json:"reference_number"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerAddress string          `json:"customer_address"`
	OrderDate       time.Time       `json:"order_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	OrderType       string          `json:"order_type"`
	CreatedAt       time.Time       `json:"created_at"`
}

type LineView struct {
	LineNo      int             `json:"line_no"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderView is what receipts and order detail screens render. Both the
// ORM aggregate and the raw-row fallback satisfy it.
type OrderView interface {
	Summary() OrderSummary
	Lines() []LineView
	IsDegraded() bool
}

type FullOrder struct {
	Order *model.Order
}

func (f FullOrder) Summary() OrderSummary {
	o := f.Order
	return OrderSummary{
		ID:              o.ID,
		ReferenceNumber: o.ReferenceNumber,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerEmail:   o.CustomerEmail,
		CustomerAddress: o.CustomerAddress,
		OrderDate:       o.OrderDate,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		OrderType:       string(o.OrderType),
		CreatedAt:       o.CreatedAt,
	}
}

func (f FullOrder) Lines() []LineView {
	lines := make([]LineView, 0, len(f.Order.Items))
	for _, item := range f.Order.Items {
		name := UnknownProductName
		if item.Product != nil {
			name = item.Product.Name
		}
		lines = append(lines, LineView{
			LineNo:      item.LineNo,
			ProductID:   item.ProductID,
			ProductName: name,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal(),
		})
	}
	return lines
}

func (FullOrder) IsDegraded() bool { return false }

// DegradedOrder is built from raw rows when the ORM read fails.
type DegradedOrder struct {
	Row   repository.OrderRow
	Items []repository.OrderItemRow
}

func (d DegradedOrder) Summary() OrderSummary {
	return OrderSummary{
		ID:              d.Row.ID,
		ReferenceNumber: d.Row.ReferenceNumber,
		CustomerName:    d.Row.CustomerName,
		CustomerPhone:   d.Row.CustomerPhone,
		CustomerEmail:   d.Row.CustomerEmail,
		CustomerAddress: d.Row.CustomerAddress,
		OrderDate:       d.Row.OrderDate,
		TotalAmount:     d.Row.TotalAmount,
		Status:          d.Row.Status,
		OrderType:       d.Row.OrderType,
		CreatedAt:       d.Row.CreatedAt,
	}
}

func (d DegradedOrder) Lines() []LineView {
	lines := make([]LineView, 0, len(d.Items))
	for _, item := range d.Items {
		name := UnknownProductName
		if item.ProductName != nil {
			name = *item.ProductName
		}
		lines = append(lines, LineView{
			LineNo:      item.LineNo,
			ProductID:   item.ProductID,
			ProductName: name,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Quantity.Mul(item.Price),
		})
	}
	return lines
}

func (DegradedOrder) IsDegraded() bool { return true }

// OrderReader loads an order for display and survives broken relations
// by falling back to raw rows.
type OrderReader struct {
	orders repository.OrderRepository
	rows   repository.OrderRowReader
	logger *zap.Logger
}

func NewOrderReader(orders repository.OrderRepository, rows repository.OrderRowReader, logger *zap.Logger) *OrderReader {
	return &OrderReader{orders: orders, rows: rows, logger: logger.Named("order_reader")}
}

// GetOrderByID returns ErrOrderNotFound when no order has the id.
func (r *OrderReader) GetOrderByID(ctx context.Context, id uuid.UUID) (OrderView, error) {
	order, err := r.orders.FindWithItems(ctx, id)
	if err == nil {
		return FullOrder{Order: order}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		r.logger.Warn("primary order read failed, using raw rows",
			zap.String("order_id", id.String()),
			zap.Error(err),
		)
	}

	row, items, ferr := r.rows.ReadOrder(ctx, id)
	if errors.Is(ferr, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if ferr != nil {
		r.logger.Error("fallback order read failed",
			zap.String("order_id", id.String()),
			zap.Error(ferr),
		)
		return nil, fmt.Errorf("read order %s: %w", id, ferr)
	}
	return DegradedOrder{Row: *row, Items: items}, nil
}
