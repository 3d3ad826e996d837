// Package memory is a go-memdb backed repository.Store. Write
// transactions are serialized by memdb, which gives WithinTx the same
// all-or-nothing behavior as the Postgres store.
package memory

import (
	"context"
	"fmt"
	"time"

	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
)

const (
	tableProducts   = "products"
	tableMovements  = "stock_movements"
	tableOrders     = "orders"
	tableOrderItems = "order_items"
	tableCarts      = "carts"
	tableCartItems  = "cart_items"
	tableUsers      = "users"
)

// keyIndex indexes a string derived from the stored object. Objects for
// which fn returns "" are left out of the index.
type keyIndex struct {
	fn func(obj interface{}) string
}

func (k *keyIndex) FromObject(obj interface{}) (bool, []byte, error) {
	v := k.fn(obj)
	if v == "" {
		return false, nil, nil
	}
	return true, []byte(v + "\x00"), nil
}

func (k *keyIndex) FromArgs(args ...interface{}) ([]byte, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("must provide only a single argument")
	}
	var s string
	switch v := args[0].(type) {
	case string:
		s = v
	case uuid.UUID:
		s = v.String()
	case fmt.Stringer:
		s = v.String()
	default:
		return nil, fmt.Errorf("argument must be a string or uuid: %#v", args[0])
	}
	return []byte(s + "\x00"), nil
}

func index(name string, unique, allowMissing bool, fn func(obj interface{}) string) *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:         name,
		Unique:       unique,
		AllowMissing: allowMissing,
		Indexer:      &keyIndex{fn: fn},
	}
}

func tables(index ...*memdb.IndexSchema) map[string]*memdb.IndexSchema {
	out := make(map[string]*memdb.IndexSchema, len(index))
	for _, idx := range index {
		out[idx.Name] = idx
	}
	return out
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableProducts: {
				Name: tableProducts,
				Indexes: tables(
					index("id", true, false, func(o interface{}) string { return productOf(o).ID.String() }),
					index("barcode", true, true, func(o interface{}) string {
						if b := productOf(o).Barcode; b != nil {
							return *b
						}
						return ""
					}),
				),
			},
			tableMovements: {
				Name: tableMovements,
				Indexes: tables(
					index("id", true, false, func(o interface{}) string { return movementOf(o).ID.String() }),
					index("product", false, false, func(o interface{}) string { return movementOf(o).ProductID.String() }),
					index("order", false, true, func(o interface{}) string {
						if id := movementOf(o).OrderID; id != nil {
							return id.String()
						}
						return ""
					}),
				),
			},
			tableOrders: {
				Name: tableOrders,
				Indexes: tables(
					index("id", true, false, func(o interface{}) string { return orderOf(o).ID.String() }),
					index("reference", true, false, func(o interface{}) string { return orderOf(o).ReferenceNumber }),
				),
			},
			tableOrderItems: {
				Name: tableOrderItems,
				Indexes: tables(
					index("id", true, false, func(o interface{}) string { return orderItemOf(o).ID.String() }),
					index("order", false, false, func(o interface{}) string { return orderItemOf(o).OrderID.String() }),
				),
			},
			tableCarts: {
				Name: tableCarts,
				Indexes: tables(
					index("id", true, false, func(o interface{}) string { return cartOf(o).ID.String() }),
				),
			},
			tableCartItems: {
				Name: tableCartItems,
				Indexes: tables(
					index("id", true, false, func(o interface{}) string { return cartItemOf(o).ID.String() }),
					index("cart", false, false, func(o interface{}) string { return cartItemOf(o).CartID.String() }),
					index("cart_product", true, false, func(o interface{}) string {
						item := cartItemOf(o)
						return cartProductKey(item.CartID, item.ProductID)
					}),
				),
			},
			tableUsers: {
				Name: tableUsers,
				Indexes: tables(
					index("id", true, false, func(o interface{}) string { return userOf(o).ID.String() }),
					index("email", true, false, func(o interface{}) string { return userOf(o).Email }),
				),
			},
		},
	}
}

// unit binds repositories either to one shared write transaction or, when
// txn is nil, to a fresh transaction per call.
type unit struct {
	db  *memdb.MemDB
	txn *memdb.Txn
	now func() time.Time
}

func (u unit) read(fn func(txn *memdb.Txn) error) error {
	if u.txn != nil {
		return fn(u.txn)
	}
	txn := u.db.Txn(false)
	defer txn.Abort()
	return fn(txn)
}

func (u unit) write(fn func(txn *memdb.Txn) error) error {
	if u.txn != nil {
		return fn(u.txn)
	}
	txn := u.db.Txn(true)
	if err := fn(txn); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

type repos struct {
	unit
}

func (r repos) Products() repository.ProductRepository        { return &productRepo{r.unit} }
func (r repos) Movements() repository.StockMovementRepository { return &movementRepo{r.unit} }
func (r repos) Orders() repository.OrderRepository            { return &orderRepo{r.unit} }
func (r repos) Carts() repository.CartRepository              { return &cartRepo{r.unit} }

type Store struct {
	repos
}

var _ repository.Store = (*Store)(nil)

func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, err
	}
	return &Store{repos{unit{db: db, now: time.Now}}}, nil
}

// WithClock overrides the time source; used by tests that move time.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Users() repository.UserRepository     { return &userRepo{s.unit} }
func (s *Store) OrderRows() repository.OrderRowReader { return &rowReader{s.unit} }
func (s *Store) Close() error                         { return nil }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := fn(ctx, repos{unit{db: s.db, txn: txn, now: s.now}}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func first(txn *memdb.Txn, table, idx string, arg interface{}) (interface{}, error) {
	raw, err := txn.First(table, idx, arg)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, repository.ErrNotFound
	}
	return raw, nil
}

func all(txn *memdb.Txn, table, idx string, args ...interface{}) ([]interface{}, error) {
	it, err := txn.Get(table, idx, args...)
	if err != nil {
		return nil, err
	}
	var out []interface{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, obj)
	}
	return out, nil
}
