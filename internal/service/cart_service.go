package service

import (
	"context"
	"errors"
	"fmt"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutInput struct {
	Customer Customer `json:"customer"`
	Notes    string   `json:"notes"`
}

type CartService interface {
	GetCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error)
	AddItem(ctx context.Context, owner model.CartOwner, productID uuid.UUID, qty decimal.Decimal) (*model.Cart, error)
	UpdateItem(ctx context.Context, owner model.CartOwner, productID uuid.UUID, qty decimal.Decimal) (*model.Cart, error)
	RemoveItem(ctx context.Context, owner model.CartOwner, productID uuid.UUID) (*model.Cart, error)
	Checkout(ctx context.Context, owner model.CartOwner, in CheckoutInput) (*CreateOrderResult, error)
}

type cartService struct {
	store  repository.Store
	orders OrderService
}

func NewCartService(store repository.Store, orders OrderService) CartService {
	return &cartService{store: store, orders: orders}
}

func ownerError(owner model.CartOwner) error {
	if owner.Empty() {
		v := &ValidationError{}
		v.add("session_key", "required", "")
		return v
	}
	return nil
}

// GetCart returns an empty, unsaved cart when the owner has none.
func (s *cartService) GetCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	if err := ownerError(owner); err != nil {
		return nil, err
	}
	cart, err := s.store.Carts().FindActive(ctx, owner)
	if errors.Is(err, repository.ErrNotFound) {
		return &model.Cart{UserID: owner.UserID, Status: model.CartActive, Items: []model.CartItem{}}, nil
	}
	return cart, err
}

func (s *cartService) activeCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	cart, err := s.store.Carts().FindActive(ctx, owner)
	if !errors.Is(err, repository.ErrNotFound) {
		return cart, err
	}
	cart = &model.Cart{UserID: owner.UserID, Status: model.CartActive}
	if owner.UserID == nil {
		key := owner.SessionKey
		cart.SessionKey = &key
	}
	if err := s.store.Carts().Create(ctx, cart); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) setQuantity(ctx context.Context, cart *model.Cart, productID uuid.UUID, qty decimal.Decimal) error {
	product, err := s.store.Products().FindByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	if qty.GreaterThan(product.Stock) {
		return &InsufficientStockError{Lines: []StockShortage{{
			ProductID: productID,
			Name:      product.Name,
			Requested: qty,
			Available: product.Stock,
		}}}
	}
	return s.store.Carts().SetItem(ctx, cart.ID, productID, qty)
}

func (s *cartService) AddItem(ctx context.Context, owner model.CartOwner, productID uuid.UUID, qty decimal.Decimal) (*model.Cart, error) {
	if err := ownerError(owner); err != nil {
		return nil, err
	}
	if !qty.IsPositive() {
		v := &ValidationError{}
		v.add("quantity", "gt", "0")
		return nil, v
	}

	cart, err := s.activeCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	total := qty
	for _, item := range cart.Items {
		if item.ProductID == productID {
			total = total.Add(item.Quantity)
		}
	}
	if err := s.setQuantity(ctx, cart, productID, total); err != nil {
		return nil, err
	}
	return s.store.Carts().FindByID(ctx, cart.ID)
}

// UpdateItem sets the quantity; zero or less removes the line.
func (s *cartService) UpdateItem(ctx context.Context, owner model.CartOwner, productID uuid.UUID, qty decimal.Decimal) (*model.Cart, error) {
	if !qty.IsPositive() {
		return s.RemoveItem(ctx, owner, productID)
	}
	if err := ownerError(owner); err != nil {
		return nil, err
	}
	cart, err := s.activeCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := s.setQuantity(ctx, cart, productID, qty); err != nil {
		return nil, err
	}
	return s.store.Carts().FindByID(ctx, cart.ID)
}

func (s *cartService) RemoveItem(ctx context.Context, owner model.CartOwner, productID uuid.UUID) (*model.Cart, error) {
	if err := ownerError(owner); err != nil {
		return nil, err
	}
	cart, err := s.store.Carts().FindActive(ctx, owner)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.store.Carts().RemoveItem(ctx, cart.ID, productID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return s.store.Carts().FindByID(ctx, cart.ID)
}

// Checkout turns the active cart into an online order at current prices.
// The cart is completed in the same transaction as the order.
func (s *cartService) Checkout(ctx context.Context, owner model.CartOwner, in CheckoutInput) (*CreateOrderResult, error) {
	if err := ownerError(owner); err != nil {
		return nil, err
	}
	cart, err := s.store.Carts().FindActive(ctx, owner)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]LineItem, 0, len(cart.Items))
	var missing []uuid.UUID
	for _, item := range cart.Items {
		if item.Product == nil {
			missing = append(missing, item.ProductID)
			continue
		}
		items = append(items, LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
		})
	}
	if len(missing) > 0 {
		return nil, &InsufficientStockError{Missing: missing}
	}

	customer := in.Customer
	if customer.UserID == nil {
		customer.UserID = owner.UserID
	}
	return s.orders.CreateOrder(ctx, CreateOrderInput{
		Customer:  customer,
		Items:     items,
		OrderType: model.OrderOnline,
		CartID:    &cart.ID,
		Notes:     in.Notes,
	})
}
