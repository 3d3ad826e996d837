package memory

import (
	"context"
	"sort"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/shopspring/decimal"
)

func cartOf(o interface{}) *model.Cart         { return o.(*model.Cart) }
func cartItemOf(o interface{}) *model.CartItem { return o.(*model.CartItem) }

func cartProductKey(cartID, productID uuid.UUID) string {
	return cartID.String() + "|" + productID.String()
}

func cloneCart(c *model.Cart) *model.Cart {
	out := *c
	out.Items = nil
	return &out
}

type cartRepo struct {
	unit
}

// loadCart attaches items and their live products, like the GORM preload.
func loadCart(txn *memdb.Txn, c *model.Cart) (*model.Cart, error) {
	cart := cloneCart(c)
	objs, err := all(txn, tableCartItems, "cart", cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = make([]model.CartItem, 0, len(objs))
	for _, o := range objs {
		item := *cartItemOf(o)
		if p, err := liveProduct(txn, item.ProductID); err == nil {
			item.Product = p
		}
		cart.Items = append(cart.Items, item)
	}
	sort.SliceStable(cart.Items, func(i, j int) bool { return cart.Items[i].CreatedAt.Before(cart.Items[j].CreatedAt) })
	return cart, nil
}

func (r *cartRepo) Create(ctx context.Context, cart *model.Cart) error {
	return r.write(func(txn *memdb.Txn) error {
		cart.Touch(r.now())
		if cart.Status == "" {
			cart.Status = model.CartActive
		}
		return txn.Insert(tableCarts, cloneCart(cart))
	})
}

func (r *cartRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	var cart *model.Cart
	err := r.read(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableCarts, "id", id)
		if err != nil {
			return err
		}
		cart, err = loadCart(txn, cartOf(raw))
		return err
	})
	return cart, err
}

func (r *cartRepo) FindActive(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	if owner.Empty() {
		return nil, repository.ErrNotFound
	}
	var cart *model.Cart
	err := r.read(func(txn *memdb.Txn) error {
		objs, err := all(txn, tableCarts, "id")
		if err != nil {
			return err
		}
		var latest *model.Cart
		for _, o := range objs {
			c := cartOf(o)
			if c.Status != model.CartActive || !ownedBy(c, owner) {
				continue
			}
			if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
				latest = c
			}
		}
		if latest == nil {
			return repository.ErrNotFound
		}
		cart, err = loadCart(txn, latest)
		return err
	})
	return cart, err
}

func ownedBy(c *model.Cart, owner model.CartOwner) bool {
	if owner.UserID != nil {
		return c.UserID != nil && *c.UserID == *owner.UserID
	}
	return c.SessionKey != nil && *c.SessionKey == owner.SessionKey
}

func (r *cartRepo) SetItem(ctx context.Context, cartID, productID uuid.UUID, qty decimal.Decimal) error {
	return r.write(func(txn *memdb.Txn) error {
		now := r.now()
		raw, err := txn.First(tableCartItems, "cart_product", cartProductKey(cartID, productID))
		if err != nil {
			return err
		}
		if raw != nil {
			item := *cartItemOf(raw)
			item.Quantity = qty
			item.UpdatedAt = now
			return txn.Insert(tableCartItems, &item)
		}
		return txn.Insert(tableCartItems, &model.CartItem{
			ID:        uuid.New(),
			CartID:    cartID,
			ProductID: productID,
			Quantity:  qty,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
}

func (r *cartRepo) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	return r.write(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableCartItems, "cart_product", cartProductKey(cartID, productID))
		if err != nil {
			return err
		}
		return txn.Delete(tableCartItems, raw)
	})
}

func (r *cartRepo) MarkCompleted(ctx context.Context, cartID, orderID uuid.UUID, at time.Time) error {
	return r.write(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableCarts, "id", cartID)
		if err != nil {
			return repository.ErrConflict
		}
		cart := cloneCart(cartOf(raw))
		if cart.Status != model.CartActive {
			return repository.ErrConflict
		}
		cart.Status = model.CartCompleted
		cart.OrderID = &orderID
		cart.CompletedAt = &at
		cart.UpdatedAt = at
		return txn.Insert(tableCarts, cart)
	})
}
