package service

import (
	"context"
	"errors"
	"fmt"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/notify"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RestockInput struct {
	ProductID uuid.UUID       `json:"-"`
	Quantity  decimal.Decimal `json:"quantity"`
	Notes     string          `json:"notes"`
}

type RestockResult struct {
	Movement     *model.StockMovement `json:"movement"`
	Product      *model.Product       `json:"product"`
	OverMaxStock bool                 `json:"over_max_stock"`
	LowStock     bool                 `json:"low_stock"`
}

// Reconciliation compares a product's stored stock with the ledger replay.
type Reconciliation struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Stock         decimal.Decimal `json:"stock"`
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
	Difference    decimal.Decimal `json:"difference"`
	Balanced      bool            `json:"balanced"`
}

func reconcile(p *model.Product, balance decimal.Decimal) Reconciliation {
	diff := p.Stock.Sub(balance)
	return Reconciliation{
		ProductID:     p.ID,
		Name:          p.Name,
		Stock:         p.Stock,
		LedgerBalance: balance,
		Difference:    diff,
		Balanced:      diff.IsZero(),
	}
}

type StockService interface {
	Restock(ctx context.Context, in RestockInput, actor notify.Actor) (*RestockResult, error)
	History(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error)
	Reconcile(ctx context.Context, productID uuid.UUID) (*Reconciliation, error)
	ReconcileAll(ctx context.Context) ([]Reconciliation, error)
	// Rebalance books a correcting movement so the ledger matches the
	// stored stock. Balanced products are left alone.
	Rebalance(ctx context.Context, productID uuid.UUID, actor string) (*Reconciliation, error)
}

type stockService struct {
	store             repository.Store
	mutator           *StockMutator
	notifier          *notify.Dispatcher
	lowStockThreshold decimal.Decimal
	logger            *zap.Logger
}

func NewStockService(store repository.Store, mutator *StockMutator, notifier *notify.Dispatcher, lowStockThreshold float64, logger *zap.Logger) StockService {
	return &stockService{
		store:             store,
		mutator:           mutator,
		notifier:          notifier,
		lowStockThreshold: decimal.NewFromFloat(lowStockThreshold),
		logger:            logger.Named("stock"),
	}
}

func (s *stockService) Restock(ctx context.Context, in RestockInput, actor notify.Actor) (*RestockResult, error) {
	if !in.Quantity.IsPositive() {
		v := &ValidationError{}
		v.add("quantity", "gt", "0")
		return nil, v
	}

	result := &RestockResult{}
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		movement, err := s.mutator.Apply(ctx, repos, MovementInput{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			Type:      model.MovementRestock,
			Notes:     in.Notes,
			CreatedBy: actor.ID,
		})
		if err != nil {
			return err
		}
		product, err := repos.Products().FindByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		result.Movement = movement
		result.Product = product
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		s.logger.Error("restock failed", zap.String("product_id", in.ProductID.String()), zap.Error(err))
		return nil, fmt.Errorf("error restocking product: %w", err)
	}

	result.OverMaxStock = result.Product.ExceedsMaxStock()
	result.LowStock = result.Product.IsLowStock(s.lowStockThreshold)

	s.notifier.Send(notify.Event{
		Type:   notify.TypeStockUpdate,
		Action: notify.ActionRestocked,
		Key:    in.ProductID.String(),
		Data: map[string]interface{}{
			"product_id":     in.ProductID,
			"name":           result.Product.Name,
			"quantity":       in.Quantity,
			"new_stock":      result.Product.Stock,
			"over_max_stock": result.OverMaxStock,
		},
		User:    &actor,
		Message: fmt.Sprintf("%s added %s units of '%s'", actor.Name, in.Quantity.String(), result.Product.Name),
	})
	return result, nil
}

func (s *stockService) History(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	if _, err := s.store.Products().FindByID(ctx, productID); errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return s.store.Movements().ListByProduct(ctx, productID, limit)
}

func (s *stockService) Reconcile(ctx context.Context, productID uuid.UUID) (*Reconciliation, error) {
	p, err := s.store.Products().FindByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	balance, err := s.store.Movements().Balance(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("replay ledger: %w", err)
	}
	r := reconcile(p, balance)
	return &r, nil
}

func (s *stockService) ReconcileAll(ctx context.Context) ([]Reconciliation, error) {
	products, err := s.store.Products().FindAll(ctx, "")
	if err != nil {
		return nil, err
	}
	balances, err := s.store.Movements().Balances(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay ledger: %w", err)
	}
	out := make([]Reconciliation, 0, len(products))
	for i := range products {
		out = append(out, reconcile(&products[i], balances[products[i].ID]))
	}
	return out, nil
}

func (s *stockService) Rebalance(ctx context.Context, productID uuid.UUID, actor string) (*Reconciliation, error) {
	var result *Reconciliation
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		locked, err := repos.Products().FindByIDs(ctx, []uuid.UUID{productID}, true)
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return ErrProductNotFound
		}
		p := &locked[0]
		balance, err := repos.Movements().Balance(ctx, productID)
		if err != nil {
			return err
		}
		r := reconcile(p, balance)
		if r.Balanced {
			result = &r
			return nil
		}

		// The stored stock is kept; only the ledger is corrected.
		kind := model.MovementRestock
		if r.Difference.IsNegative() {
			kind = model.MovementSale
		}
		err = repos.Movements().Append(ctx, &model.StockMovement{
			ProductID:      productID,
			Quantity:       r.Difference.Abs(),
			MovementType:   kind,
			RemainingStock: p.Stock,
			Notes:          "reconciliation adjustment",
			CreatedBy:      actor,
		})
		if err != nil {
			return err
		}
		s.logger.Warn("ledger rebalanced",
			zap.String("product_id", productID.String()),
			zap.String("difference", r.Difference.String()),
		)
		fixed := reconcile(p, p.Stock)
		result = &fixed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
