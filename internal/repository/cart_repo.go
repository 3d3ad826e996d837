package repository

import (
	"context"
	"time"

	"go-pos-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepo struct {
	db *gorm.DB
}

func NewCartRepo(db *gorm.DB) CartRepository {
	return &cartRepo{db}
}

func (r *cartRepo) preload(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product")
}

func (r *cartRepo) Create(ctx context.Context, cart *model.Cart) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(cart).Error)
}

func (r *cartRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	var cart model.Cart
	if err := r.preload(r.db.WithContext(ctx)).First(&cart, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &cart, nil
}

func (r *cartRepo) FindActive(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	q := r.preload(r.db.WithContext(ctx)).Where("status = ?", model.CartActive)
	switch {
	case owner.UserID != nil:
		q = q.Where("user_id = ?", *owner.UserID)
	case owner.SessionKey != "":
		q = q.Where("session_key = ?", owner.SessionKey)
	default:
		return nil, ErrNotFound
	}

	var cart model.Cart
	if err := q.Order("created_at DESC").First(&cart).Error; err != nil {
		return nil, translate(err)
	}
	return &cart, nil
}

func (r *cartRepo) SetItem(ctx context.Context, cartID, productID uuid.UUID, qty decimal.Decimal) error {
	item := model.CartItem{CartID: cartID, ProductID: productID, Quantity: qty}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"quantity": qty, "updated_at": time.Now()}),
	}).Omit("Product").Create(&item).Error
}

func (r *cartRepo) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&model.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cartRepo) MarkCompleted(ctx context.Context, cartID, orderID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Cart{}).
		Where("id = ? AND status = ?", cartID, model.CartActive).
		Updates(map[string]interface{}{
			"status":       model.CartCompleted,
			"order_id":     orderID,
			"completed_at": at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
