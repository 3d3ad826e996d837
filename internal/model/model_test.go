package model

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestReferenceNumber(t *testing.T) {
	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	date := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "ORD-20240309-0F8FAD5BD9CB", ReferenceNumber(date, id))
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-[0-9A-F]{12}$`), ReferenceNumber(time.Now(), uuid.New()))
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderPending, OrderProcessing, true},
		{OrderPending, OrderCompleted, true},
		{OrderPending, OrderCancelled, true},
		{OrderProcessing, OrderCompleted, true},
		{OrderProcessing, OrderCancelled, true},
		{OrderProcessing, OrderPending, false},
		{OrderCompleted, OrderCancelled, false},
		{OrderCancelled, OrderPending, false},
		{OrderPending, OrderPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestOrderItemSubtotal(t *testing.T) {
	item := OrderItem{Quantity: decimal.RequireFromString("1.5"), Price: decimal.RequireFromString("4.20")}
	assert.True(t, decimal.RequireFromString("6.3").Equal(item.Subtotal()))
}

func TestMovementSigned(t *testing.T) {
	sale := StockMovement{Quantity: decimal.NewFromInt(3), MovementType: MovementSale}
	restock := StockMovement{Quantity: decimal.NewFromInt(3), MovementType: MovementRestock}

	assert.True(t, decimal.NewFromInt(-3).Equal(sale.Signed()))
	assert.True(t, decimal.NewFromInt(3).Equal(restock.Signed()))
	assert.False(t, MovementType("adjust").Valid())
}

func TestProductStockRules(t *testing.T) {
	p := Product{Stock: decimal.NewFromInt(4), ReorderPoint: decimal.NewFromInt(5)}
	assert.True(t, p.IsLowStock(decimal.NewFromInt(1)))

	p.ReorderPoint = decimal.Zero
	assert.False(t, p.IsLowStock(decimal.NewFromInt(1)))
	assert.False(t, p.ExceedsMaxStock())

	p.MaxStock = decimal.NewFromInt(3)
	assert.True(t, p.ExceedsMaxStock())
}

func TestDefaultRolePrivileges(t *testing.T) {
	master := DefaultRolePrivileges(RoleMasterAdmin)
	assert.Len(t, master, len(DefaultPrivileges))
	assert.Contains(t, master, PrivDashboardView)

	cashier := DefaultRolePrivileges(RoleCashier)
	assert.ElementsMatch(t, CashierPrivileges, cashier)
	assert.NotContains(t, cashier, PrivProductDelete)
	assert.Empty(t, DefaultRolePrivileges("AUDITOR"))

	role, ok := RoleByCode(RoleCashier)
	assert.True(t, ok)
	assert.Equal(t, "Cashier", role.Name)
	_, ok = RoleByCode("AUDITOR")
	assert.False(t, ok)
}

func TestSameText(t *testing.T) {
	assert.True(t, SameText(" Budi@Example.com ", "budi@example.com"))
	assert.False(t, SameText("budi", "budi2"))
}
