package memory

import (
	"context"

	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
)

// rowReader mirrors the raw SQL fallback: soft-deleted products still
// resolve their name, purged ones leave ProductName nil.
type rowReader struct {
	unit
}

func (r *rowReader) ReadOrder(ctx context.Context, id uuid.UUID) (*repository.OrderRow, []repository.OrderItemRow, error) {
	var (
		row   *repository.OrderRow
		items []repository.OrderItemRow
	)
	err := r.read(func(txn *memdb.Txn) error {
		o, err := findOrder(txn, id)
		if err != nil {
			return err
		}
		row = &repository.OrderRow{
			ID:              o.ID,
			ReferenceNumber: o.ReferenceNumber,
			CustomerName:    o.CustomerName,
			CustomerPhone:   o.CustomerPhone,
			CustomerEmail:   o.CustomerEmail,
			CustomerAddress: o.CustomerAddress,
			OrderDate:       o.OrderDate,
			TotalAmount:     o.TotalAmount,
			Status:          string(o.Status),
			OrderType:       string(o.OrderType),
			CreatedAt:       o.CreatedAt,
		}

		lines, err := orderItems(txn, id)
		if err != nil {
			return err
		}
		for _, line := range lines {
			item := repository.OrderItemRow{
				ID:        line.ID,
				LineNo:    line.LineNo,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
			}
			if raw, _ := txn.First(tableProducts, "id", line.ProductID); raw != nil {
				name := productOf(raw).Name
				item.ProductName = &name
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return row, items, nil
}
