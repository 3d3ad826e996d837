package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

type gormRepos struct {
	products  ProductRepository
	movements StockMovementRepository
	orders    OrderRepository
	carts     CartRepository
}

func newGormRepos(db *gorm.DB) *gormRepos {
	return &gormRepos{
		products:  NewProductRepo(db),
		movements: NewStockMovementRepo(db),
		orders:    NewOrderRepo(db),
		carts:     NewCartRepo(db),
	}
}

func (r *gormRepos) Products() ProductRepository        { return r.products }
func (r *gormRepos) Movements() StockMovementRepository { return r.movements }
func (r *gormRepos) Orders() OrderRepository            { return r.orders }
func (r *gormRepos) Carts() CartRepository              { return r.carts }

type gormStore struct {
	*gormRepos
	db    *gorm.DB
	users UserRepository
	rows  OrderRowReader
}

// NewGormStore wires the Postgres store. The raw row reader shares the
// connection pool through sqlx.
func NewGormStore(db *gorm.DB) (Store, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &gormStore{
		gormRepos: newGormRepos(db),
		db:        db,
		users:     NewUserRepo(db),
		rows:      NewOrderRowReader(sqlx.NewDb(sqlDB, "pgx")),
	}, nil
}

func (s *gormStore) Users() UserRepository     { return s.users }
func (s *gormStore) OrderRows() OrderRowReader { return s.rows }

func (s *gormStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, newGormRepos(tx))
	})
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
