package memory

import (
	"context"
	"sort"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func productOf(o interface{}) *model.Product { return o.(*model.Product) }

func cloneProduct(p *model.Product) *model.Product {
	c := *p
	if p.Barcode != nil {
		b := *p.Barcode
		c.Barcode = &b
	}
	return &c
}

type productRepo struct {
	unit
}

// liveProduct returns the product unless it is missing or soft-deleted.
func liveProduct(txn *memdb.Txn, id uuid.UUID) (*model.Product, error) {
	raw, err := first(txn, tableProducts, "id", id)
	if err != nil {
		return nil, err
	}
	p := productOf(raw)
	if p.IsDeleted() {
		return nil, repository.ErrNotFound
	}
	return cloneProduct(p), nil
}

func checkBarcode(txn *memdb.Txn, p *model.Product) error {
	if p.Barcode == nil {
		return nil
	}
	raw, err := txn.First(tableProducts, "barcode", *p.Barcode)
	if err != nil {
		return err
	}
	if raw != nil && productOf(raw).ID != p.ID {
		return repository.ErrConflict
	}
	return nil
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.write(func(txn *memdb.Txn) error {
		product.Touch(r.now())
		if raw, _ := txn.First(tableProducts, "id", product.ID); raw != nil {
			return repository.ErrConflict
		}
		if err := checkBarcode(txn, product); err != nil {
			return err
		}
		return txn.Insert(tableProducts, cloneProduct(product))
	})
}

func (r *productRepo) FindAll(ctx context.Context, category string) ([]model.Product, error) {
	var products []model.Product
	err := r.read(func(txn *memdb.Txn) error {
		objs, err := all(txn, tableProducts, "id")
		if err != nil {
			return err
		}
		for _, o := range objs {
			p := productOf(o)
			if p.IsDeleted() || (category != "" && p.Category != category) {
				continue
			}
			products = append(products, *cloneProduct(p))
		}
		return nil
	})
	sort.SliceStable(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product *model.Product
	err := r.read(func(txn *memdb.Txn) (err error) {
		product, err = liveProduct(txn, id)
		return err
	})
	return product, err
}

// FindByIDs ignores lock: memdb write transactions are already exclusive.
func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID, lock bool) ([]model.Product, error) {
	var products []model.Product
	err := r.read(func(txn *memdb.Txn) error {
		seen := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			p, err := liveProduct(txn, id)
			if err == repository.ErrNotFound {
				continue
			}
			if err != nil {
				return err
			}
			products = append(products, *p)
		}
		return nil
	})
	sort.Slice(products, func(i, j int) bool { return products[i].ID.String() < products[j].ID.String() })
	return products, err
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var product *model.Product
	err := r.read(func(txn *memdb.Txn) error {
		raw, err := first(txn, tableProducts, "barcode", barcode)
		if err != nil {
			return err
		}
		if productOf(raw).IsDeleted() {
			return repository.ErrNotFound
		}
		product = cloneProduct(productOf(raw))
		return nil
	})
	return product, err
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.write(func(txn *memdb.Txn) error {
		existing, err := liveProduct(txn, product.ID)
		if err != nil {
			return err
		}
		if err := checkBarcode(txn, product); err != nil {
			return err
		}
		existing.Name = product.Name
		existing.Barcode = product.Barcode
		existing.Category = product.Category
		existing.Unit = product.Unit
		existing.Currency = product.Currency
		existing.Price = product.Price
		existing.BuyingPrice = product.BuyingPrice
		existing.MaxStock = product.MaxStock
		existing.ReorderPoint = product.ReorderPoint
		existing.UpdatedBy = product.UpdatedBy
		existing.UpdatedAt = r.now()

		product.Stock = existing.Stock
		product.UpdatedAt = existing.UpdatedAt
		return txn.Insert(tableProducts, cloneProduct(existing))
	})
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return r.write(func(txn *memdb.Txn) error {
		existing, err := liveProduct(txn, id)
		if err != nil {
			return err
		}
		existing.DeletedAt = gorm.DeletedAt{Time: r.now(), Valid: true}
		existing.DeletedBy = deletedBy
		return txn.Insert(tableProducts, existing)
	})
}

func (r *productRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (decimal.Decimal, error) {
	return r.adjust(id, qty.Neg())
}

func (r *productRepo) IncrementStock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (decimal.Decimal, error) {
	return r.adjust(id, qty)
}

func (r *productRepo) adjust(id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var stock decimal.Decimal
	err := r.write(func(txn *memdb.Txn) error {
		existing, err := liveProduct(txn, id)
		if err != nil {
			return err
		}
		next := existing.Stock.Add(delta)
		if next.IsNegative() {
			return repository.ErrInsufficientStock
		}
		existing.Stock = next
		existing.UpdatedAt = r.now()
		stock = next
		return txn.Insert(tableProducts, existing)
	})
	return stock, err
}

func (r *productRepo) Stats(ctx context.Context, lowStockThreshold decimal.Decimal) (*model.ProductStats, error) {
	stats := &model.ProductStats{}
	err := r.read(func(txn *memdb.Txn) error {
		objs, err := all(txn, tableProducts, "id")
		if err != nil {
			return err
		}
		for _, o := range objs {
			p := productOf(o)
			if p.IsDeleted() {
				continue
			}
			stats.TotalProducts++
			if p.IsLowStock(lowStockThreshold) {
				stats.LowStockCount++
			}
			stats.TotalValuation = stats.TotalValuation.Add(p.Stock.Mul(p.BuyingPrice))
		}
		return nil
	})
	return stats, err
}
