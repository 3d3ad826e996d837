package repository

import (
	"context"
	"fmt"
	"time"

	"go-pos-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(order).Error; err != nil {
		return translate(err)
	}
	if len(order.Items) == 0 {
		return nil
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	return translate(db.Omit("Product").Create(&order.Items).Error)
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepo) LockByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepo) FindWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		Preload("Items.Product").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, item := range order.Items {
		if item.Product == nil {
			return nil, fmt.Errorf("%w: order %s line %d has no product %s", ErrInconsistent, order.ID, item.LineNo, item.ProductID)
		}
	}
	return &order, nil
}

func (r *orderRepo) FindRecentByCustomer(ctx context.Context, who model.CustomerIdentity, since time.Time) ([]model.Order, error) {
	n := who.Normalized()
	q := r.db.WithContext(ctx).
		Where("created_at >= ? AND status <> ?", since, model.OrderCancelled).
		Order("created_at DESC")

	switch {
	case n.UserID != nil && *n.UserID != uuid.Nil:
		q = q.Where("customer_id = ?", *n.UserID)
	case n.Email != "":
		q = q.Where("LOWER(TRIM(customer_email)) = ?", n.Email)
	case n.Name != "":
		q = q.Where("LOWER(TRIM(customer_name)) = ?", n.Name)
	default:
		return nil, nil
	}

	var orders []model.Order
	err := q.Find(&orders).Error
	return orders, err
}

func (r *orderRepo) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OrderType != "" {
		q = q.Where("order_type = ?", filter.OrderType)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Email != "" {
		q = q.Where("LOWER(customer_email) = LOWER(?)", filter.Email)
	}
	if filter.From != nil {
		q = q.Where("order_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("order_date < ?", *filter.To)
	}
	if filter.Unviewed {
		q = q.Where("viewed = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var orders []model.Order
	err := q.Order("order_date DESC").Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) UpdateStatus(ctx context.Context, order *model.Order) error {
	res := r.db.WithContext(ctx).Model(order).
		Select("status", "completed_at", "updated_by", "updated_at").
		Updates(order)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepo) MarkViewed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND viewed = ?", id, false).
		Updates(map[string]interface{}{"viewed": true, "viewed_at": at}).Error
}

func (r *orderRepo) CountUnviewed(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Where("viewed = ?", false).Count(&count).Error
	return count, err
}

func (r *orderRepo) SalesSummary(ctx context.Context, from, to time.Time) (*model.SalesSummary, error) {
	summary := &model.SalesSummary{}

	rows, err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select(`
			TO_CHAR(DATE(order_date), 'YYYY-MM-DD') as date,
			COUNT(*) as order_count,
			COALESCE(SUM(total_amount), 0) as revenue
		`).
		Where("order_date BETWEEN ? AND ? AND status <> ?", from, to, model.OrderCancelled).
		Group("DATE(order_date)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var day model.DailySales
		if err := rows.Scan(&day.Date, &day.OrderCount, &day.Revenue); err != nil {
			return nil, err
		}
		summary.OrderCount += day.OrderCount
		summary.Revenue = summary.Revenue.Add(day.Revenue)
		summary.Daily = append(summary.Daily, day)
	}
	return summary, rows.Err()
}
