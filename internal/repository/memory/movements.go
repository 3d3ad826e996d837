package memory

import (
	"context"
	"sort"
	"time"

	"go-pos-ws/internal/model"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/shopspring/decimal"
)

func movementOf(o interface{}) *model.StockMovement { return o.(*model.StockMovement) }

type movementRepo struct {
	unit
}

func (r *movementRepo) Append(ctx context.Context, movement *model.StockMovement) error {
	return r.write(func(txn *memdb.Txn) error {
		if movement.ID == uuid.Nil {
			movement.ID = uuid.New()
		}
		if movement.Timestamp.IsZero() {
			movement.Timestamp = r.now()
		}
		c := *movement
		return txn.Insert(tableMovements, &c)
	})
}

func (r *movementRepo) list(idx string, args ...interface{}) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := r.read(func(txn *memdb.Txn) error {
		objs, err := all(txn, tableMovements, idx, args...)
		if err != nil {
			return err
		}
		for _, o := range objs {
			movements = append(movements, *movementOf(o))
		}
		return nil
	})
	return movements, err
}

func (r *movementRepo) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	movements, err := r.list("product", productID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(movements, func(i, j int) bool {
		return movements[i].Timestamp.After(movements[j].Timestamp)
	})
	if limit > 0 && len(movements) > limit {
		movements = movements[:limit]
	}
	return movements, nil
}

func (r *movementRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.StockMovement, error) {
	movements, err := r.list("order", orderID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(movements, func(i, j int) bool {
		return movements[i].Timestamp.Before(movements[j].Timestamp)
	})
	return movements, nil
}

func (r *movementRepo) Balance(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	movements, err := r.list("product", productID)
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, m := range movements {
		balance = balance.Add(m.Signed())
	}
	return balance, nil
}

func (r *movementRepo) Balances(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	movements, err := r.list("id")
	if err != nil {
		return nil, err
	}
	balances := make(map[uuid.UUID]decimal.Decimal)
	for _, m := range movements {
		balances[m.ProductID] = balances[m.ProductID].Add(m.Signed())
	}
	return balances, nil
}

func (r *movementRepo) DailyTotals(ctx context.Context, from, to time.Time) ([]model.DailyMovement, error) {
	movements, err := r.list("id")
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*model.DailyMovement)
	for _, m := range movements {
		if m.Timestamp.Before(from) || m.Timestamp.After(to) {
			continue
		}
		day := m.Timestamp.Format("2006-01-02")
		point, ok := byDay[day]
		if !ok {
			point = &model.DailyMovement{Date: day}
			byDay[day] = point
		}
		if m.MovementType == model.MovementRestock {
			point.Inbound = point.Inbound.Add(m.Quantity)
		} else {
			point.Outbound = point.Outbound.Add(m.Quantity)
		}
	}

	results := make([]model.DailyMovement, 0, len(byDay))
	for _, point := range byDay {
		results = append(results, *point)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Date < results[j].Date })
	return results, nil
}
