package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
)

func orderOf(o interface{}) *model.Order         { return o.(*model.Order) }
func orderItemOf(o interface{}) *model.OrderItem { return o.(*model.OrderItem) }

// cloneOrder copies the header only; items live in their own table.
func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Items = nil
	return &c
}

type orderRepo struct {
	unit
}

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	return r.write(func(txn *memdb.Txn) error {
		now := r.now()
		order.Touch(now)
		if raw, _ := txn.First(tableOrders, "id", order.ID); raw != nil {
			return repository.ErrConflict
		}
		if raw, _ := txn.First(tableOrders, "reference", order.ReferenceNumber); raw != nil {
			return fmt.Errorf("%w: reference number %s", repository.ErrConflict, order.ReferenceNumber)
		}
		if err := txn.Insert(tableOrders, cloneOrder(order)); err != nil {
			return err
		}
		for i := range order.Items {
			item := &order.Items[i]
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.OrderID = order.ID
			item.CreatedAt = now
			c := *item
			c.Product = nil
			if err := txn.Insert(tableOrderItems, &c); err != nil {
				return err
			}
		}
		return nil
	})
}

func findOrder(txn *memdb.Txn, id uuid.UUID) (*model.Order, error) {
	raw, err := first(txn, tableOrders, "id", id)
	if err != nil {
		return nil, err
	}
	return cloneOrder(orderOf(raw)), nil
}

func orderItems(txn *memdb.Txn, orderID uuid.UUID) ([]model.OrderItem, error) {
	objs, err := all(txn, tableOrderItems, "order", orderID)
	if err != nil {
		return nil, err
	}
	items := make([]model.OrderItem, 0, len(objs))
	for _, o := range objs {
		items = append(items, *orderItemOf(o))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].LineNo < items[j].LineNo })
	return items, nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order *model.Order
	err := r.read(func(txn *memdb.Txn) (err error) {
		order, err = findOrder(txn, id)
		return err
	})
	return order, err
}

func (r *orderRepo) LockByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order *model.Order
	err := r.read(func(txn *memdb.Txn) (err error) {
		if order, err = findOrder(txn, id); err != nil {
			return err
		}
		order.Items, err = orderItems(txn, id)
		return err
	})
	return order, err
}

func (r *orderRepo) FindWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order *model.Order
	err := r.read(func(txn *memdb.Txn) (err error) {
		if order, err = findOrder(txn, id); err != nil {
			return err
		}
		if order.Items, err = orderItems(txn, id); err != nil {
			return err
		}
		for i := range order.Items {
			item := &order.Items[i]
			p, err := liveProduct(txn, item.ProductID)
			if err == repository.ErrNotFound {
				return fmt.Errorf("%w: order %s line %d has no product %s", repository.ErrInconsistent, order.ID, item.LineNo, item.ProductID)
			}
			if err != nil {
				return err
			}
			item.Product = p
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) scan(keep func(o *model.Order) bool) ([]model.Order, error) {
	var orders []model.Order
	err := r.read(func(txn *memdb.Txn) error {
		objs, err := all(txn, tableOrders, "id")
		if err != nil {
			return err
		}
		for _, o := range objs {
			if order := orderOf(o); keep(order) {
				orders = append(orders, *cloneOrder(order))
			}
		}
		return nil
	})
	return orders, err
}

func (r *orderRepo) FindRecentByCustomer(ctx context.Context, who model.CustomerIdentity, since time.Time) ([]model.Order, error) {
	if who.IsEmpty() {
		return nil, nil
	}
	orders, err := r.scan(func(o *model.Order) bool {
		return !o.CreatedAt.Before(since) && o.Status != model.OrderCancelled && who.Matches(o)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (r *orderRepo) List(ctx context.Context, f model.OrderFilter) ([]model.Order, int64, error) {
	orders, err := r.scan(func(o *model.Order) bool {
		switch {
		case f.Status != "" && o.Status != f.Status,
			f.OrderType != "" && o.OrderType != f.OrderType,
			f.CustomerID != nil && (o.CustomerID == nil || *o.CustomerID != *f.CustomerID),
			f.Email != "" && !model.SameText(o.CustomerEmail, f.Email),
			f.From != nil && o.OrderDate.Before(*f.From),
			f.To != nil && !o.OrderDate.Before(*f.To),
			f.Unviewed && o.Viewed:
			return false
		}
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].OrderDate.After(orders[j].OrderDate) })

	total := int64(len(orders))
	if f.Offset > 0 {
		if f.Offset >= len(orders) {
			orders = nil
		} else {
			orders = orders[f.Offset:]
		}
	}
	if f.Limit > 0 && len(orders) > f.Limit {
		orders = orders[:f.Limit]
	}
	return orders, total, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, order *model.Order) error {
	return r.write(func(txn *memdb.Txn) error {
		existing, err := findOrder(txn, order.ID)
		if err != nil {
			return err
		}
		existing.Status = order.Status
		existing.CompletedAt = order.CompletedAt
		existing.UpdatedBy = order.UpdatedBy
		existing.UpdatedAt = r.now()
		order.UpdatedAt = existing.UpdatedAt
		return txn.Insert(tableOrders, existing)
	})
}

func (r *orderRepo) MarkViewed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.write(func(txn *memdb.Txn) error {
		existing, err := findOrder(txn, id)
		if err != nil {
			return err
		}
		if existing.Viewed {
			return nil
		}
		existing.Viewed = true
		existing.ViewedAt = &at
		return txn.Insert(tableOrders, existing)
	})
}

func (r *orderRepo) CountUnviewed(ctx context.Context) (int64, error) {
	orders, err := r.scan(func(o *model.Order) bool { return !o.Viewed })
	return int64(len(orders)), err
}

func (r *orderRepo) SalesSummary(ctx context.Context, from, to time.Time) (*model.SalesSummary, error) {
	orders, err := r.scan(func(o *model.Order) bool {
		return o.Status != model.OrderCancelled && !o.OrderDate.Before(from) && !o.OrderDate.After(to)
	})
	if err != nil {
		return nil, err
	}

	summary := &model.SalesSummary{}
	byDay := make(map[string]*model.DailySales)
	for _, o := range orders {
		day := o.OrderDate.Format("2006-01-02")
		point, ok := byDay[day]
		if !ok {
			point = &model.DailySales{Date: day}
			byDay[day] = point
		}
		point.OrderCount++
		point.Revenue = point.Revenue.Add(o.TotalAmount)
		summary.OrderCount++
		summary.Revenue = summary.Revenue.Add(o.TotalAmount)
	}
	for _, point := range byDay {
		summary.Daily = append(summary.Daily, *point)
	}
	sort.Slice(summary.Daily, func(i, j int) bool { return summary.Daily[i].Date < summary.Daily[j].Date })
	return summary, nil
}
