package repository

import (
	"context"
	"time"

	"go-pos-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const signedQuantity = "CASE WHEN movement_type = 'restock' THEN quantity ELSE -quantity END"

type stockMovementRepo struct {
	db *gorm.DB
}

func NewStockMovementRepo(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db}
}

func (r *stockMovementRepo) Append(ctx context.Context, movement *model.StockMovement) error {
	if movement.Timestamp.IsZero() {
		movement.Timestamp = time.Now()
	}
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *stockMovementRepo) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	q := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("timestamp DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&movements).Error
	return movements, err
}

func (r *stockMovementRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("timestamp ASC").Find(&movements).Error
	return movements, err
}

func (r *stockMovementRepo) Balance(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	row := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select("COALESCE(SUM("+signedQuantity+"), 0)").
		Where("product_id = ?", productID).
		Row()
	if err := row.Scan(&balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (r *stockMovementRepo) Balances(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	rows, err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select("product_id, COALESCE(SUM(" + signedQuantity + "), 0)").
		Group("product_id").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make(map[uuid.UUID]decimal.Decimal)
	for rows.Next() {
		var id uuid.UUID
		var balance decimal.Decimal
		if err := rows.Scan(&id, &balance); err != nil {
			return nil, err
		}
		balances[id] = balance
	}
	return balances, rows.Err()
}

func (r *stockMovementRepo) DailyTotals(ctx context.Context, from, to time.Time) ([]model.DailyMovement, error) {
	var results []model.DailyMovement

	rows, err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select(`
			TO_CHAR(DATE(timestamp), 'YYYY-MM-DD') as date,
			COALESCE(SUM(CASE WHEN movement_type = 'restock' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN movement_type = 'sale' THEN quantity ELSE 0 END), 0) as outbound
		`).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Group("DATE(timestamp)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data model.DailyMovement
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, rows.Err()
}
