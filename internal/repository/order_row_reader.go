package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Raw queries bypass the ORM model on purpose: they only touch columns
// that have existed since the first migration and tolerate missing
// products through the LEFT JOIN.
const (
	selectOrderRow = `
		SELECT id, reference_number, customer_name, customer_phone, customer_email,
		       customer_address, order_date, total_amount, status, order_type, created_at
		FROM orders
		WHERE id = $1`

	selectOrderItemRows = `
		SELECT oi.id, oi.line_no, oi.product_id, p.name AS product_name, oi.quantity, oi.price
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.line_no ASC`
)

type orderRowReader struct {
	db *sqlx.DB
}

func NewOrderRowReader(db *sqlx.DB) OrderRowReader {
	return &orderRowReader{db: db}
}

func (r *orderRowReader) ReadOrder(ctx context.Context, id uuid.UUID) (*OrderRow, []OrderItemRow, error) {
	var order OrderRow
	if err := r.db.GetContext(ctx, &order, selectOrderRow, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to read order row: %w", err)
	}

	var items []OrderItemRow
	if err := r.db.SelectContext(ctx, &items, selectOrderItemRows, id); err != nil {
		return nil, nil, fmt.Errorf("failed to read order item rows: %w", err)
	}
	return &order, items, nil
}
