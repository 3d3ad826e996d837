package repository

import (
	"context"
	"errors"
	"time"

	"go-pos-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrInconsistent means the row exists but a joined row it points to
	// is missing, e.g. an order item whose product is gone.
	ErrInconsistent      = errors.New("inconsistent relational data")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflicting record")
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context, category string) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// FindByIDs returns the products ordered by id. With lock set the rows
	// stay locked until the surrounding transaction ends.
	FindByIDs(ctx context.Context, ids []uuid.UUID, lock bool) ([]model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	// Update writes catalogue fields only; stock is owned by the ledger.
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error
	// DecrementStock fails with ErrInsufficientStock, leaving stock as is,
	// when fewer than qty units are on hand. It returns the new stock.
	DecrementStock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (decimal.Decimal, error)
	IncrementStock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (decimal.Decimal, error)
	Stats(ctx context.Context, lowStockThreshold decimal.Decimal) (*model.ProductStats, error)
}

type StockMovementRepository interface {
	Append(ctx context.Context, movement *model.StockMovement) error
	// ListByProduct returns newest first; limit <= 0 means all.
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.StockMovement, error)
	// Balance replays the ledger: restocks minus sales.
	Balance(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
	Balances(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error)
	DailyTotals(ctx context.Context, from, to time.Time) ([]model.DailyMovement, error)
}

type OrderRepository interface {
	// Create inserts the order and its items.
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// FindWithItems loads items and their products. It returns
	// ErrInconsistent when any item's product cannot be loaded.
	FindWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindRecentByCustomer(ctx context.Context, who model.CustomerIdentity, since time.Time) ([]model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, order *model.Order) error
	MarkViewed(ctx context.Context, id uuid.UUID, at time.Time) error
	CountUnviewed(ctx context.Context) (int64, error)
	SalesSummary(ctx context.Context, from, to time.Time) (*model.SalesSummary, error)
}

type CartRepository interface {
	Create(ctx context.Context, cart *model.Cart) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cart, error)
	FindActive(ctx context.Context, owner model.CartOwner) (*model.Cart, error)
	SetItem(ctx context.Context, cartID, productID uuid.UUID, qty decimal.Decimal) error
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error
	// MarkCompleted fails with ErrConflict when the cart is not active.
	MarkCompleted(ctx context.Context, cartID, orderID uuid.UUID, at time.Time) error
}

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
	UpdateTokenVersion(ctx context.Context, userID uuid.UUID, version string) error
	UpdateLastSeen(ctx context.Context, userID uuid.UUID) error
}

// OrderRow and OrderItemRow are the raw shapes read by the fallback path.
type OrderRow struct {
	ID              uuid.UUID       `db:"id"`
	ReferenceNumber string          `db:"reference_number"`
	CustomerName    string          `db:"customer_name"`
	CustomerPhone   string          `db:"customer_phone"`
	CustomerEmail   string          `db:"customer_email"`
	CustomerAddress string          `db:"customer_address"`
	OrderDate       time.Time       `db:"order_date"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	Status          string          `db:"status"`
	OrderType       string          `db:"order_type"`
	CreatedAt       time.Time       `db:"created_at"`
}

type OrderItemRow struct {
	ID          uuid.UUID       `db:"id"`
	LineNo      int             `db:"line_no"`
	ProductID   uuid.UUID       `db:"product_id"`
	ProductName *string         `db:"product_name"`
	Quantity    decimal.Decimal `db:"quantity"`
	Price       decimal.Decimal `db:"price"`
}

// OrderRowReader reads orders without the ORM relations. Items survive a
// missing product; ProductName is nil then.
type OrderRowReader interface {
	ReadOrder(ctx context.Context, id uuid.UUID) (*OrderRow, []OrderItemRow, error)
}

// Repositories is the set bound to one unit of work.
type Repositories interface {
	Products() ProductRepository
	Movements() StockMovementRepository
	Orders() OrderRepository
	Carts() CartRepository
}

// Store owns the connection. Repositories returned by the Store itself
// run each call on its own; those handed to WithinTx share one
// transaction that commits when fn returns nil and rolls back otherwise.
type Store interface {
	Repositories
	Users() UserRepository
	OrderRows() OrderRowReader
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Close() error
}
