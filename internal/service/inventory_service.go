package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/notify"
	"go-pos-ws/internal/repository"
	"go-pos-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrDuplicateBarcode = errors.New("barcode already exists")

type InventoryService interface {
	CreateProduct(ctx context.Context, req *model.Product, actor notify.Actor) error
	UpdateProduct(ctx context.Context, id uuid.UUID, req *model.Product, actor notify.Actor) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, actor notify.Actor) error
	GetAllProducts(ctx context.Context, category string) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

type inventoryService struct {
	store    repository.Store
	mutator  *StockMutator
	notifier *notify.Dispatcher
	logger   *zap.Logger
}

func NewInventoryService(store repository.Store, mutator *StockMutator, notifier *notify.Dispatcher, logger *zap.Logger) InventoryService {
	return &inventoryService{
		store:    store,
		mutator:  mutator,
		notifier: notifier,
		logger:   logger.Named("inventory"),
	}
}

func normalizeBarcode(p *model.Product) {
	if p.Barcode == nil {
		return
	}
	code := strings.TrimSpace(*p.Barcode)
	if code == "" {
		p.Barcode = nil
		return
	}
	p.Barcode = &code
}

// CreateProduct books the initial stock through the ledger so the product
// reconciles from its first movement.
func (s *inventoryService) CreateProduct(ctx context.Context, req *model.Product, actor notify.Actor) error {
	// 1. Validasi Struct Dasar
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return validationFrom(errs)
	}
	normalizeBarcode(req)

	// 2. Cek Duplikasi Barcode
	if req.Barcode != nil {
		if existing, err := s.store.Products().FindByBarcode(ctx, *req.Barcode); err == nil && existing != nil {
			return ErrDuplicateBarcode
		}
	}

	// 3. Set Audit Fields
	req.CreatedBy = actor.ID
	req.UpdatedBy = actor.ID
	if req.Currency == "" {
		req.Currency = "IDR"
	}
	initial := req.Stock
	req.Stock = decimal.Zero

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Products().Create(ctx, req); err != nil {
			return err
		}
		if !initial.IsPositive() {
			return nil
		}
		movement, err := s.mutator.Apply(ctx, repos, MovementInput{
			ProductID: req.ID,
			Quantity:  initial,
			Type:      model.MovementRestock,
			Notes:     "initial stock",
			CreatedBy: actor.ID,
		})
		if err != nil {
			return err
		}
		req.Stock = movement.RemainingStock
		return nil
	})
	if errors.Is(err, repository.ErrConflict) {
		return ErrDuplicateBarcode
	}
	if err != nil {
		s.logger.Error("create product failed", zap.String("name", req.Name), zap.Error(err))
		return fmt.Errorf("error creating product: %w", err)
	}

	s.notifier.Send(notify.Event{
		Type:   notify.TypeStockUpdate,
		Action: notify.ActionProductCreated,
		Key:    req.ID.String(),
		Data: map[string]interface{}{
			"id":    req.ID,
			"name":  req.Name,
			"stock": req.Stock,
			"price": req.Price,
		},
		User:    &actor,
		Message: fmt.Sprintf("%s created product '%s'", actor.Name, req.Name),
	})
	return nil
}

// UpdateProduct changes catalogue fields. Stock only moves through
// restocks and sales.
func (s *inventoryService) UpdateProduct(ctx context.Context, id uuid.UUID, req *model.Product, actor notify.Actor) (*model.Product, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, validationFrom(errs)
	}
	normalizeBarcode(req)

	req.ID = id
	req.UpdatedBy = actor.ID
	err := s.store.Products().Update(ctx, req)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrProductNotFound
	case errors.Is(err, repository.ErrConflict):
		return nil, ErrDuplicateBarcode
	case err != nil:
		return nil, fmt.Errorf("error updating product: %w", err)
	}

	updated, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error reloading product: %w", err)
	}

	s.notifier.Send(notify.Event{
		Type:   notify.TypeStockUpdate,
		Action: notify.ActionProductUpdated,
		Key:    id.String(),
		Data: map[string]interface{}{
			"id":    updated.ID,
			"name":  updated.Name,
			"stock": updated.Stock,
			"price": updated.Price,
		},
		User:    &actor,
		Message: fmt.Sprintf("%s updated product '%s'", actor.Name, updated.Name),
	})
	return updated, nil
}

func (s *inventoryService) DeleteProduct(ctx context.Context, id uuid.UUID, actor notify.Actor) error {
	err := s.store.Products().Delete(ctx, id, actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("error deleting product: %w", err)
	}

	s.notifier.Send(notify.Event{
		Type:    notify.TypeStockUpdate,
		Action:  notify.ActionProductDeleted,
		Key:     id.String(),
		Data:    map[string]interface{}{"id": id},
		User:    &actor,
		Message: fmt.Sprintf("%s deleted a product", actor.Name),
	})
	return nil
}

func (s *inventoryService) GetAllProducts(ctx context.Context, category string) ([]model.Product, error) {
	return s.store.Products().FindAll(ctx, category)
}

func (s *inventoryService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.store.Products().FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}
