package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/notify"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	store     *memory.Store
	mutator   *StockMutator
	guard     *DuplicateGuard
	orders    OrderService
	stock     StockService
	inventory InventoryService
	carts     CartService
	reader    *OrderReader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := memory.New()
	require.NoError(t, err)
	return newFixtureWith(t, store, store)
}

// newFixtureWith builds services on top of tx while seeding and assertions
// keep using the plain memory store.
func newFixtureWith(t *testing.T, store *memory.Store, tx repository.Store) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	dispatcher := notify.NewDispatcher(notify.Nop{}, log)
	mutator := NewStockMutator()
	guard := NewDuplicateGuard(store.Orders(), 10*time.Minute, 0.05)
	orders := NewOrderService(tx, mutator, guard, dispatcher, log)
	return &fixture{
		store:     store,
		mutator:   mutator,
		guard:     guard,
		orders:    orders,
		stock:     NewStockService(tx, mutator, dispatcher, 5, log),
		inventory: NewInventoryService(tx, mutator, dispatcher, log),
		carts:     NewCartService(tx, orders),
		reader:    NewOrderReader(store.Orders(), store.OrderRows(), log),
	}
}

func (f *fixture) product(t *testing.T, name string, stock, price float64) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:  name,
		Price: decimal.NewFromFloat(price),
		Stock: decimal.NewFromFloat(stock),
	}
	require.NoError(t, f.inventory.CreateProduct(context.Background(), p, notify.Actor{ID: "tester", Name: "Tester"}))
	return p
}

func (f *fixture) stockOf(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	p, err := f.store.Products().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) requireBalanced(t *testing.T, id uuid.UUID) {
	t.Helper()
	r, err := f.stock.Reconcile(context.Background(), id)
	require.NoError(t, err)
	require.True(t, r.Balanced, "stock %s ledger %s", r.Stock, r.LedgerBalance)
}

func line(p *model.Product, qty float64) LineItem {
	return LineItem{ProductID: p.ID, Quantity: decimal.NewFromFloat(qty), Price: p.Price}
}

func order(name string, items ...LineItem) CreateOrderInput {
	return CreateOrderInput{
		Customer:  Customer{Name: name},
		Items:     items,
		OrderType: model.OrderInStore,
	}
}

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

var errBoom = errors.New("boom")

// failingStore hands out repositories whose movement ledger rejects the
// append after the first n succeed.
type failingStore struct {
	repository.Store
	n int
}

func (s *failingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return fn(ctx, failingRepos{
			Repositories: repos,
			movements:    &failingMovements{StockMovementRepository: repos.Movements(), left: s.n},
		})
	})
}

type failingRepos struct {
	repository.Repositories
	movements repository.StockMovementRepository
}

func (r failingRepos) Movements() repository.StockMovementRepository { return r.movements }

type failingMovements struct {
	repository.StockMovementRepository
	left int
}

func (m *failingMovements) Append(ctx context.Context, movement *model.StockMovement) error {
	if m.left == 0 {
		return errBoom
	}
	m.left--
	return m.StockMovementRepository.Append(ctx, movement)
}
