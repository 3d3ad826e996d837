package service

import (
	"context"
	"testing"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/notify"
	"go-pos-ws/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDuplicateGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Oil", 100, 10)

	placed, err := f.orders.CreateOrder(ctx, CreateOrderInput{
		Customer:  Customer{Name: "Sari", Email: "Sari@Example.com"},
		Items:     []LineItem{line(p, 10)},
		OrderType: model.OrderOnline,
	})
	require.NoError(t, err)
	byEmail := model.CustomerIdentity{Email: " sari@example.com"}

	t.Run("within tolerance", func(t *testing.T) {
		match, err := f.guard.FindRecentDuplicate(ctx, byEmail, dec(103))
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.Equal(t, placed.Order.ID, match.ID)
	})

	t.Run("outside tolerance", func(t *testing.T) {
		match, err := f.guard.FindRecentDuplicate(ctx, byEmail, dec(110))
		require.NoError(t, err)
		assert.Nil(t, match)
	})

	t.Run("email wins over name", func(t *testing.T) {
		match, err := f.guard.FindRecentDuplicate(ctx, model.CustomerIdentity{Email: "other@example.com", Name: "Sari"}, dec(100))
		require.NoError(t, err)
		assert.Nil(t, match)
	})

	t.Run("empty identity", func(t *testing.T) {
		match, err := f.guard.FindRecentDuplicate(ctx, model.CustomerIdentity{Name: "  "}, dec(100))
		require.NoError(t, err)
		assert.Nil(t, match)
	})

	t.Run("outside window", func(t *testing.T) {
		g := NewDuplicateGuard(f.store.Orders(), 10*time.Minute, 0.05)
		g.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
		match, err := g.FindRecentDuplicate(ctx, byEmail, dec(100))
		require.NoError(t, err)
		assert.Nil(t, match)
	})

	t.Run("cancelled orders are ignored", func(t *testing.T) {
		_, err := f.orders.UpdateStatus(ctx, placed.Order.ID, model.OrderCancelled, "staff")
		require.NoError(t, err)
		match, err := f.guard.FindRecentDuplicate(ctx, byEmail, dec(100))
		require.NoError(t, err)
		assert.Nil(t, match)
	})
}

func TestDuplicateGuardPicksMostRecent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Now()
	place := func(ago time.Duration, ref string, total float64) *model.Order {
		f.store.WithClock(func() time.Time { return base.Add(-ago) })
		o := &model.Order{
			ReferenceNumber: ref,
			CustomerName:    "Tono",
			OrderDate:       base.Add(-ago),
			TotalAmount:     dec(total),
			Status:          model.OrderPending,
			OrderType:       model.OrderInStore,
		}
		require.NoError(t, f.store.Orders().Create(ctx, o))
		return o
	}
	place(5*time.Minute, "ORD-A", 100)
	latest := place(time.Minute, "ORD-B", 102)
	place(30*time.Minute, "ORD-C", 101)
	f.store.WithClock(time.Now)

	match, err := f.guard.FindRecentDuplicate(ctx, model.CustomerIdentity{Name: "tono"}, dec(101))
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, latest.ID, match.ID)
}

type unreachableOrders struct {
	repository.OrderRepository
}

func (unreachableOrders) FindRecentByCustomer(context.Context, model.CustomerIdentity, time.Time) ([]model.Order, error) {
	return nil, errBoom
}

func TestCreateOrderLogsFailedDuplicateLookup(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Tea", 5, 2)
	core, logs := observer.New(zap.ErrorLevel)
	log := zap.New(core)
	guard := NewDuplicateGuard(unreachableOrders{f.store.Orders()}, 10*time.Minute, 0.05)
	orders := NewOrderService(f.store, f.mutator, guard, notify.NewDispatcher(notify.Nop{}, log), log)

	_, err := orders.CreateOrder(context.Background(), order("Budi", line(p, 1)))
	assert.ErrorIs(t, err, errBoom)
	require.Equal(t, 1, logs.FilterMessage("duplicate lookup failed").Len())
	assert.True(t, dec(5).Equal(f.stockOf(t, p.ID)))
}
