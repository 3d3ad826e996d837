package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderRecordsSaleMovements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "Tea", 10, 5)
	b := f.product(t, "Coffee", 4, 12.5)

	res, err := f.orders.CreateOrder(ctx, order("X", line(a, 3), line(b, 2)))
	require.NoError(t, err)
	require.False(t, res.Duplicate)

	o := res.Order
	assert.True(t, dec(40).Equal(o.TotalAmount), o.TotalAmount.String())
	assert.Equal(t, model.OrderPending, o.Status)
	require.Len(t, o.Items, 2)
	assert.Equal(t, 1, o.Items[0].LineNo)
	assert.Equal(t, 2, o.Items[1].LineNo)

	assert.True(t, dec(7).Equal(f.stockOf(t, a.ID)))
	assert.True(t, dec(2).Equal(f.stockOf(t, b.ID)))

	movements, err := f.store.Movements().ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, model.MovementSale, m.MovementType)
		require.NotNil(t, m.OrderID)
		assert.Equal(t, o.ID, *m.OrderID)
		if m.ProductID == a.ID {
			assert.True(t, dec(3).Equal(m.Quantity))
			assert.True(t, dec(7).Equal(m.RemainingStock))
		}
	}
	f.requireBalanced(t, a.ID)
	f.requireBalanced(t, b.ID)
}

func TestCreateOrderRollsBackWhenThirdLineFails(t *testing.T) {
	store, err := memory.New()
	require.NoError(t, err)
	seed := newFixtureWith(t, store, store)
	p1 := seed.product(t, "Rice", 10, 1)
	p2 := seed.product(t, "Sugar", 10, 1)
	p3 := seed.product(t, "Salt", 10, 1)

	f := newFixtureWith(t, store, &failingStore{Store: store, n: 2})
	_, err = f.orders.CreateOrder(context.Background(), order("Y", line(p1, 1), line(p2, 2), line(p3, 3)))
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "line 3")

	for _, p := range []*model.Product{p1, p2, p3} {
		assert.True(t, dec(10).Equal(f.stockOf(t, p.ID)), p.Name)
		f.requireBalanced(t, p.ID)
	}
	_, total, err := f.orders.List(context.Background(), model.OrderFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateOrderInsufficientStockListsEveryShortage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "Tea", 2, 5)
	b := f.product(t, "Milk", 1, 3)

	_, err := f.orders.CreateOrder(ctx, order("Z", line(a, 1), line(b, 2), line(a, 2)))
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "insufficient stock")

	require.Len(t, stockErr.Lines, 2)
	assert.Equal(t, "Tea", stockErr.Lines[0].Name)
	assert.True(t, dec(3).Equal(stockErr.Lines[0].Requested))
	assert.Equal(t, "Milk", stockErr.Lines[1].Name)

	assert.True(t, dec(2).Equal(f.stockOf(t, a.ID)))
	assert.True(t, dec(1).Equal(f.stockOf(t, b.ID)))
	_, total, err := f.orders.List(ctx, model.OrderFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "Tea", 2, 5)

	_, err := f.orders.CreateOrder(context.Background(), CreateOrderInput{
		Items:     []LineItem{{ProductID: a.ID, Quantity: dec(0), Price: dec(-1)}},
		OrderType: "phone",
	})
	var v *ValidationError
	require.ErrorAs(t, err, &v)
	fields := map[string]string{}
	for _, fe := range v.Fields {
		fields[fe.Field] = fe.Tag
	}
	assert.Equal(t, "gt", fields["items[0].quantity"])
	assert.Equal(t, "gte", fields["items[0].price"])
	assert.Equal(t, "oneof", fields["order_type"])
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "Tea", 2, 5)
	ghost := &model.Product{Price: dec(1)}
	ghost.ID = [16]byte{1}

	_, err := f.orders.CreateOrder(context.Background(), order("Q", line(a, 1), line(ghost, 1)))
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.True(t, dec(2).Equal(f.stockOf(t, a.ID)))
}

func TestCreateOrderReportsMissingAndShortLines(t *testing.T) {
	f := newFixture(t)
	tea := f.product(t, "Tea", 1, 5)
	ghost := &model.Product{Price: dec(1)}
	ghost.ID = uuid.New()

	_, err := f.orders.CreateOrder(context.Background(), order("Q", line(tea, 5), line(ghost, 1)))
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	assert.Equal(t, []uuid.UUID{ghost.ID}, stockErr.Missing)
	require.Len(t, stockErr.Lines, 1)
	assert.Equal(t, "Tea", stockErr.Lines[0].Name)
	assert.True(t, dec(1).Equal(f.stockOf(t, tea.ID)))
}

func TestStockNeverGoesNegativeUnderConcurrentOrders(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Bread", 5, 2)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		short   int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.orders.CreateOrder(context.Background(), order(fmt.Sprintf("buyer-%d", i), line(p, 1)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, repository.ErrInsufficientStock):
				short++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, created)
	assert.Equal(t, 7, short)
	assert.True(t, f.stockOf(t, p.ID).IsZero())
	f.requireBalanced(t, p.ID)
}

func TestReferenceNumbersAreUnique(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Water", 100, 1)
	pattern := regexp.MustCompile(`^ORD-\d{8}-[0-9A-F]{12}$`)

	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		res, err := f.orders.CreateOrder(context.Background(), order(fmt.Sprintf("c%d", i), line(p, 1)))
		require.NoError(t, err)
		ref := res.Order.ReferenceNumber
		assert.Regexp(t, pattern, ref)
		assert.False(t, seen[ref], ref)
		seen[ref] = true
	}
}

func TestRetriedSubmissionReturnsPriorOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Soap", 10, 4)
	in := order("Rina", line(p, 2))

	first, err := f.orders.CreateOrder(ctx, in)
	require.NoError(t, err)
	second, err := f.orders.CreateOrder(ctx, in)
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.True(t, dec(8).Equal(f.stockOf(t, p.ID)))
	movements, err := f.store.Movements().ListByOrder(ctx, first.Order.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}

func TestSyncOfflineReportsEachEntry(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Eggs", 3, 2)
	when := time.Date(2024, 3, 9, 8, 30, 0, 0, time.UTC)

	ok := order("Offline A", line(p, 1))
	ok.OrderDate = &when
	results := f.orders.SyncOffline(context.Background(), []CreateOrderInput{
		ok,
		order("Offline B", line(p, 5)),
	})
	require.Len(t, results, 2)

	require.Empty(t, results[0].Error)
	assert.Equal(t, model.OrderInStore, results[0].Order.OrderType)
	assert.True(t, when.Equal(results[0].Order.OrderDate))
	assert.Contains(t, results[0].Order.ReferenceNumber, "ORD-20240309-")

	assert.Equal(t, 1, results[1].Index)
	assert.Nil(t, results[1].Order)
	assert.Contains(t, results[1].Error, "insufficient stock")
	assert.True(t, dec(2).Equal(f.stockOf(t, p.ID)))
}

func TestUpdateStatusMovesForwardOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Flour", 5, 3)
	res, err := f.orders.CreateOrder(ctx, order("S", line(p, 1)))
	require.NoError(t, err)
	id := res.Order.ID

	o, err := f.orders.UpdateStatus(ctx, id, model.OrderProcessing, "staff")
	require.NoError(t, err)
	assert.Nil(t, o.CompletedAt)

	o, err = f.orders.UpdateStatus(ctx, id, model.OrderCompleted, "staff")
	require.NoError(t, err)
	require.NotNil(t, o.CompletedAt)

	_, err = f.orders.UpdateStatus(ctx, id, model.OrderProcessing, "staff")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.orders.UpdateStatus(ctx, id, model.OrderCancelled, "staff")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := f.store.Orders().FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCompleted, stored.Status)
	assert.True(t, o.CompletedAt.Equal(*stored.CompletedAt))

	_, err = f.orders.UpdateStatus(ctx, [16]byte{9}, model.OrderCompleted, "staff")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	var v *ValidationError
	_, err = f.orders.UpdateStatus(ctx, id, "shipped", "staff")
	assert.ErrorAs(t, err, &v)
}

func TestCancelOrderReturnsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Noodles", 10, 1.5)
	res, err := f.orders.CreateOrder(ctx, order("C", line(p, 4)))
	require.NoError(t, err)
	require.True(t, dec(6).Equal(f.stockOf(t, p.ID)))

	_, err = f.orders.UpdateStatus(ctx, res.Order.ID, model.OrderCancelled, "staff")
	require.NoError(t, err)

	assert.True(t, dec(10).Equal(f.stockOf(t, p.ID)))
	f.requireBalanced(t, p.ID)
	movements, err := f.store.Movements().ListByOrder(ctx, res.Order.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	types := []model.MovementType{movements[0].MovementType, movements[1].MovementType}
	assert.ElementsMatch(t, []model.MovementType{model.MovementSale, model.MovementRestock}, types)

	// A cancelled order no longer counts as a duplicate
	again, err := f.orders.CreateOrder(ctx, order("C", line(p, 4)))
	require.NoError(t, err)
	assert.False(t, again.Duplicate)
}

func TestMarkViewedAndCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Jam", 10, 1)
	first, err := f.orders.CreateOrder(ctx, order("V1", line(p, 1)))
	require.NoError(t, err)
	_, err = f.orders.CreateOrder(ctx, order("V2", line(p, 1)))
	require.NoError(t, err)

	count, err := f.orders.CountUnviewed(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, f.orders.MarkViewed(ctx, first.Order.ID))
	count, err = f.orders.CountUnviewed(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	assert.ErrorIs(t, f.orders.MarkViewed(ctx, [16]byte{7}), ErrOrderNotFound)
}
