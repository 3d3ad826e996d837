package service

import (
	"context"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"

	"github.com/shopspring/decimal"
)

// DuplicateGuard detects accidental resubmission of the same order, e.g.
// a double click on checkout or a client retry after a timeout.
type DuplicateGuard struct {
	orders    repository.OrderRepository
	window    time.Duration
	tolerance decimal.Decimal
	now       func() time.Time
}

func NewDuplicateGuard(orders repository.OrderRepository, window time.Duration, tolerance float64) *DuplicateGuard {
	return &DuplicateGuard{
		orders:    orders,
		window:    window,
		tolerance: decimal.NewFromFloat(tolerance),
		now:       time.Now,
	}
}

// FindRecentDuplicate returns the most recent non-cancelled order of the
// same customer created within the window whose total is within the
// tolerance of total. It returns nil when there is none. Read only.
func (g *DuplicateGuard) FindRecentDuplicate(ctx context.Context, who model.CustomerIdentity, total decimal.Decimal) (*model.Order, error) {
	if who.IsEmpty() {
		return nil, nil
	}

	since := g.now().Add(-g.window)
	candidates, err := g.orders.FindRecentByCustomer(ctx, who, since)
	if err != nil {
		return nil, err
	}

	limit := g.tolerance.Mul(total).Abs()
	var match *model.Order
	for i := range candidates {
		o := &candidates[i]
		if o.Status == model.OrderCancelled || !who.Matches(o) || o.CreatedAt.Before(since) {
			continue
		}
		if o.TotalAmount.Sub(total).Abs().GreaterThan(limit) {
			continue
		}
		if match == nil || o.CreatedAt.After(match.CreatedAt) {
			match = o
		}
	}
	return match, nil
}
