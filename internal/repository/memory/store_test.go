package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	return s
}

func seedProduct(t *testing.T, s *Store, name string, stock int64) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Price: decimal.NewFromInt(5), Stock: decimal.NewFromInt(stock)}
	require.NoError(t, s.Products().Create(context.Background(), p))
	return p
}

func TestProductBarcodeIsUnique(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	code := "8991234567890"

	require.NoError(t, s.Products().Create(ctx, &model.Product{Name: "Tea", Barcode: &code}))
	err := s.Products().Create(ctx, &model.Product{Name: "Coffee", Barcode: &code})
	assert.ErrorIs(t, err, repository.ErrConflict)

	found, err := s.Products().FindByBarcode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "Tea", found.Name)
}

func TestDecrementStockFloor(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Rice", 2)

	_, err := s.Products().DecrementStock(ctx, p.ID, decimal.NewFromInt(5))
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	left, err := s.Products().DecrementStock(ctx, p.ID, decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.True(t, left.IsZero())

	_, err = s.Products().DecrementStock(ctx, uuid.New(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithinTxRollsBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Sugar", 10)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Products().DecrementStock(ctx, p.ID, decimal.NewFromInt(4)); err != nil {
			return err
		}
		require.NoError(t, repos.Movements().Append(ctx, &model.StockMovement{
			ProductID: p.ID, Quantity: decimal.NewFromInt(4), MovementType: model.MovementSale,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(got.Stock))

	movements, err := s.Movements().ListByProduct(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestWithinTxHonorsCancelledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func createOrder(t *testing.T, s *Store, p *model.Product) *model.Order {
	t.Helper()
	order := &model.Order{
		BaseModel:    model.BaseModel{ID: uuid.New()},
		CustomerName: "X",
		OrderDate:    time.Now(),
		TotalAmount:  decimal.NewFromInt(15),
		Status:       model.OrderPending,
		OrderType:    model.OrderOnline,
		Items: []model.OrderItem{
			{LineNo: 1, ProductID: p.ID, Quantity: decimal.NewFromInt(3), Price: decimal.NewFromInt(5)},
		},
	}
	order.ReferenceNumber = model.ReferenceNumber(order.OrderDate, order.ID)
	require.NoError(t, s.Orders().Create(context.Background(), order))
	return order
}

func TestFindWithItemsReportsMissingProduct(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Flour", 10)
	order := createOrder(t, s, p)

	full, err := s.Orders().FindWithItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, full.Items, 1)
	assert.Equal(t, "Flour", full.Items[0].Product.Name)

	require.NoError(t, s.Products().Delete(ctx, p.ID, "tester"))
	_, err = s.Orders().FindWithItems(ctx, order.ID)
	assert.ErrorIs(t, err, repository.ErrInconsistent)

	_, err = s.Orders().FindWithItems(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRowReaderSurvivesPurgedProduct(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Salt", 10)
	order := createOrder(t, s, p)

	require.NoError(t, s.Products().Delete(ctx, p.ID, "tester"))
	_, items, err := s.OrderRows().ReadOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].ProductName)
	assert.Equal(t, "Salt", *items[0].ProductName)

	txn := s.db.Txn(true)
	raw, err := txn.First(tableProducts, "id", p.ID)
	require.NoError(t, err)
	require.NoError(t, txn.Delete(tableProducts, raw))
	txn.Commit()

	row, items, err := s.OrderRows().ReadOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ReferenceNumber, row.ReferenceNumber)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].ProductName)

	_, _, err = s.OrderRows().ReadOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDuplicateReferenceNumberConflicts(t *testing.T) {
	s := newStore(t)
	p := seedProduct(t, s, "Oil", 10)
	order := createOrder(t, s, p)

	dup := &model.Order{ReferenceNumber: order.ReferenceNumber, Status: model.OrderPending}
	err := s.Orders().Create(context.Background(), dup)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestCartCompletesOnce(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Milk", 10)
	key := "session-1"

	cart := &model.Cart{SessionKey: &key}
	require.NoError(t, s.Carts().Create(ctx, cart))
	require.NoError(t, s.Carts().SetItem(ctx, cart.ID, p.ID, decimal.NewFromInt(2)))
	require.NoError(t, s.Carts().SetItem(ctx, cart.ID, p.ID, decimal.NewFromInt(3)))

	active, err := s.Carts().FindActive(ctx, model.CartOwner{SessionKey: key})
	require.NoError(t, err)
	require.Len(t, active.Items, 1)
	assert.True(t, decimal.NewFromInt(3).Equal(active.Items[0].Quantity))
	assert.Equal(t, "Milk", active.Items[0].Product.Name)

	orderID := uuid.New()
	require.NoError(t, s.Carts().MarkCompleted(ctx, cart.ID, orderID, time.Now()))
	assert.ErrorIs(t, s.Carts().MarkCompleted(ctx, cart.ID, orderID, time.Now()), repository.ErrConflict)

	_, err = s.Carts().FindActive(ctx, model.CartOwner{SessionKey: key})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrderListFilters(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Bread", 10)
	first := createOrder(t, s, p)
	createOrder(t, s, p)

	require.NoError(t, s.Orders().MarkViewed(ctx, first.ID, time.Now()))

	unviewed, err := s.Orders().CountUnviewed(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unviewed)

	orders, total, err := s.Orders().List(ctx, model.OrderFilter{Unviewed: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.NotEqual(t, first.ID, orders[0].ID)

	orders, total, err = s.Orders().List(ctx, model.OrderFilter{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, orders, 1)
}
