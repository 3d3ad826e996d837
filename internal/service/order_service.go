package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/notify"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Customer struct {
	UserID  *uuid.UUID `json:"user_id,omitempty"`
	Name    string     `json:"name"`
	Phone   string     `json:"phone"`
	Email   string     `json:"email"`
	Address string     `json:"address"`
}

type LineItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type CreateOrderInput struct {
	Customer    Customer        `json:"customer"`
	CreatedByID *uuid.UUID      `json:"-"`
	Actor       string          `json:"-"`
	Items       []LineItem      `json:"items"`
	OrderType   model.OrderType `json:"order_type"`
	OrderDate   *time.Time      `json:"order_date,omitempty"`
	CartID      *uuid.UUID      `json:"cart_id,omitempty"`
	Notes       string          `json:"notes"`
}

// CreateOrderResult carries the prior order with Duplicate set when the
// submission was recognised as a repeat.
type CreateOrderResult struct {
	Order     *model.Order `json:"order"`
	Duplicate bool         `json:"duplicate"`
}

// SyncResult is the outcome of one entry of an offline batch.
type SyncResult struct {
	Index     int          `json:"index"`
	Order     *model.Order `json:"order,omitempty"`
	Duplicate bool         `json:"duplicate"`
	Error     string       `json:"error,omitempty"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error)
	SyncOffline(ctx context.Context, batch []CreateOrderInput) []SyncResult
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, actor string) (*model.Order, error)
	MarkViewed(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error)
	CountUnviewed(ctx context.Context) (int64, error)
}

type orderService struct {
	store    repository.Store
	mutator  *StockMutator
	guard    *DuplicateGuard
	notifier *notify.Dispatcher
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrderService(store repository.Store, mutator *StockMutator, guard *DuplicateGuard, notifier *notify.Dispatcher, logger *zap.Logger) OrderService {
	return &orderService{
		store:    store,
		mutator:  mutator,
		guard:    guard,
		notifier: notifier,
		logger:   logger.Named("orders"),
		now:      time.Now,
	}
}

func validateOrderInput(in CreateOrderInput) error {
	v := &ValidationError{}
	if len(in.Items) == 0 {
		v.add("items", "required", "")
	}
	for i, item := range in.Items {
		if item.ProductID == uuid.Nil {
			v.add(fmt.Sprintf("items[%d].product_id", i), "required", "")
		}
		if !item.Quantity.IsPositive() {
			v.add(fmt.Sprintf("items[%d].quantity", i), "gt", "0")
		}
		if item.Price.IsNegative() {
			v.add(fmt.Sprintf("items[%d].price", i), "gte", "0")
		}
	}
	switch in.OrderType {
	case model.OrderOnline, model.OrderInStore, model.OrderOfflineSync:
	default:
		v.add("order_type", "oneof", "online in-store offline-sync")
	}
	return v.orNil()
}

func orderTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Quantity.Mul(item.Price))
	}
	return total
}

func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}
	total := orderTotal(in.Items)

	who := model.CustomerIdentity{UserID: in.Customer.UserID, Email: in.Customer.Email, Name: in.Customer.Name}
	prior, err := s.guard.FindRecentDuplicate(ctx, who, total)
	if err != nil {
		s.logger.Error("duplicate lookup failed", zap.Error(err))
		return nil, fmt.Errorf("error creating order: %w", err)
	}
	if prior != nil {
		s.logger.Info("duplicate order submission",
			zap.String("order_id", prior.ID.String()),
			zap.String("reference", prior.ReferenceNumber),
		)
		return &CreateOrderResult{Order: prior, Duplicate: true}, nil
	}

	order := s.buildOrder(in, total)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := checkStock(ctx, repos, in.Items); err != nil {
			return err
		}
		if err := repos.Orders().Create(ctx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			_, err := s.mutator.Apply(ctx, repos, MovementInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Type:      model.MovementSale,
				Notes:     "sale " + order.ReferenceNumber,
				OrderID:   &order.ID,
				CreatedBy: in.Actor,
			})
			if err != nil {
				return fmt.Errorf("line %d: %w", item.LineNo, err)
			}
		}
		if in.CartID != nil {
			if err := repos.Carts().MarkCompleted(ctx, *in.CartID, order.ID, s.now()); err != nil {
				return fmt.Errorf("complete cart: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) || errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		s.logger.Error("order creation rolled back", zap.Error(err))
		return nil, fmt.Errorf("error creating order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("reference", order.ReferenceNumber),
		zap.String("total", order.TotalAmount.String()),
	)
	s.notifier.Send(notify.Event{
		Type:    notify.TypeOrderUpdate,
		Action:  notify.ActionOrderCreated,
		Key:     order.ID.String(),
		Message: fmt.Sprintf("New %s order %s (%s)", order.OrderType, order.ReferenceNumber, order.TotalAmount.StringFixed(2)),
		Data: map[string]interface{}{
			"id":               order.ID,
			"reference_number": order.ReferenceNumber,
			"total_amount":     order.TotalAmount,
			"order_type":       order.OrderType,
			"customer_name":    order.CustomerName,
		},
	})
	return &CreateOrderResult{Order: order}, nil
}

func (s *orderService) buildOrder(in CreateOrderInput, total decimal.Decimal) *model.Order {
	now := s.now()
	orderDate := now
	if in.OrderDate != nil && !in.OrderDate.IsZero() {
		orderDate = *in.OrderDate
	}
	orderType := in.OrderType
	if orderType == model.OrderOfflineSync {
		orderType = model.OrderInStore
	}

	id := uuid.New()
	order := &model.Order{
		BaseModel:       model.BaseModel{ID: id, CreatedBy: in.Actor, UpdatedBy: in.Actor},
		ReferenceNumber: model.ReferenceNumber(orderDate, id),
		CustomerID:      in.Customer.UserID,
		CustomerName:    in.Customer.Name,
		CustomerPhone:   in.Customer.Phone,
		CustomerEmail:   in.Customer.Email,
		CustomerAddress: in.Customer.Address,
		OrderDate:       orderDate,
		TotalAmount:     total,
		Status:          model.OrderPending,
		OrderType:       orderType,
		Notes:           in.Notes,
		CreatedByID:     in.CreatedByID,
	}
	for i, item := range in.Items {
		order.Items = append(order.Items, model.OrderItem{
			OrderID:   id,
			LineNo:    i + 1,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return order
}

// checkStock locks every referenced product in id order and compares the
// summed demand per product against stock. Every missing product and every
// shortage is reported together.
func checkStock(ctx context.Context, repos repository.Repositories, items []LineItem) error {
	demand := make(map[uuid.UUID]decimal.Decimal)
	var order []uuid.UUID
	for _, item := range items {
		if _, ok := demand[item.ProductID]; !ok {
			order = append(order, item.ProductID)
		}
		demand[item.ProductID] = demand[item.ProductID].Add(item.Quantity)
	}

	ids := append([]uuid.UUID(nil), order...)
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	products, err := repos.Products().FindByIDs(ctx, ids, true)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	shortage := &InsufficientStockError{}
	for _, id := range order {
		p, ok := byID[id]
		if !ok {
			shortage.Missing = append(shortage.Missing, id)
			continue
		}
		if want := demand[id]; want.GreaterThan(p.Stock) {
			shortage.Lines = append(shortage.Lines, StockShortage{
				ProductID: id,
				Name:      p.Name,
				Requested: want,
				Available: p.Stock,
			})
		}
	}
	if len(shortage.Lines) > 0 || len(shortage.Missing) > 0 {
		return shortage
	}
	return nil
}

// SyncOffline replays orders captured while the till was offline. Each
// entry succeeds or fails on its own.
func (s *orderService) SyncOffline(ctx context.Context, batch []CreateOrderInput) []SyncResult {
	results := make([]SyncResult, 0, len(batch))
	for i, in := range batch {
		in.OrderType = model.OrderOfflineSync
		res, err := s.CreateOrder(ctx, in)
		if err != nil {
			results = append(results, SyncResult{Index: i, Error: err.Error()})
			continue
		}
		results = append(results, SyncResult{Index: i, Order: res.Order, Duplicate: res.Duplicate})
	}
	return results
}

// UpdateStatus moves the order forward. Cancelling returns every item to
// stock with restock movements linked to the order.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, actor string) (*model.Order, error) {
	if !status.Valid() {
		v := &ValidationError{}
		v.add("status", "oneof", "pending processing completed cancelled")
		return nil, v
	}

	var updated *model.Order
	var previous model.OrderStatus
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		order, err := repos.Orders().LockByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, status)
		}

		previous = order.Status
		order.Status = status
		order.UpdatedBy = actor
		if status == model.OrderCompleted && order.CompletedAt == nil {
			now := s.now()
			order.CompletedAt = &now
		}
		if status == model.OrderCancelled {
			for _, item := range order.Items {
				_, err := s.mutator.Apply(ctx, repos, MovementInput{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
					Type:      model.MovementRestock,
					Notes:     "cancelled " + order.ReferenceNumber,
					OrderID:   &order.ID,
					CreatedBy: actor,
				})
				if err != nil {
					return fmt.Errorf("restock line %d: %w", item.LineNo, err)
				}
			}
		}
		if err := repos.Orders().UpdateStatus(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		s.logger.Error("order status update failed", zap.String("order_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("error updating order status: %w", err)
	}

	s.notifier.Send(notify.Event{
		Type:    notify.TypeOrderUpdate,
		Action:  notify.ActionOrderStatus,
		Key:     updated.ID.String(),
		Message: fmt.Sprintf("Order %s is now %s", updated.ReferenceNumber, updated.Status),
		Data: map[string]interface{}{
			"id":              updated.ID,
			"previous_status": previous,
			"status":          updated.Status,
		},
	})
	return updated, nil
}

func (s *orderService) MarkViewed(ctx context.Context, id uuid.UUID) error {
	err := s.store.Orders().MarkViewed(ctx, id, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return ErrOrderNotFound
	}
	return err
}

func (s *orderService) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	return s.store.Orders().List(ctx, filter)
}

func (s *orderService) CountUnviewed(ctx context.Context) (int64, error) {
	return s.store.Orders().CountUnviewed(ctx)
}
