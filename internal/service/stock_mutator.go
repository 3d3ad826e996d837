package service

import (
	"context"
	"fmt"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MovementInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	Type      model.MovementType
	Notes     string
	OrderID   *uuid.UUID
	CreatedBy string
}

// StockMutator is the only writer of product stock. Every change it makes
// is paired with one ledger entry in the same unit of work, so replaying
// the ledger always reproduces the stored stock.
type StockMutator struct {
	now func() time.Time
}

func NewStockMutator() *StockMutator {
	return &StockMutator{now: time.Now}
}

// Apply runs on the caller's repositories and never commits by itself.
// A sale that exceeds the stock on hand fails with
// repository.ErrInsufficientStock and changes nothing.
func (m *StockMutator) Apply(ctx context.Context, repos repository.Repositories, in MovementInput) (*model.StockMovement, error) {
	if !in.Quantity.IsPositive() || !in.Type.Valid() {
		return nil, ErrInvalidMovement
	}

	var (
		remaining decimal.Decimal
		err       error
	)
	switch in.Type {
	case model.MovementSale:
		remaining, err = repos.Products().DecrementStock(ctx, in.ProductID, in.Quantity)
	case model.MovementRestock:
		remaining, err = repos.Products().IncrementStock(ctx, in.ProductID, in.Quantity)
	}
	if err != nil {
		return nil, err
	}

	movement := &model.StockMovement{
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
		MovementType:   in.Type,
		RemainingStock: remaining,
		OrderID:        in.OrderID,
		Notes:          in.Notes,
		CreatedBy:      in.CreatedBy,
		Timestamp:      m.now(),
	}
	if err := repos.Movements().Append(ctx, movement); err != nil {
		return nil, fmt.Errorf("append stock movement: %w", err)
	}
	return movement, nil
}
