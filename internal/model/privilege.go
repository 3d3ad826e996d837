package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "product:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Create Product"
}

// Privilege codes checked by the API routes.
const (
	PrivProductCreate = "product:create"
	PrivProductUpdate = "product:update"
	PrivProductDelete = "product:delete"
	PrivStockRestock  = "stock:restock"
	PrivStockView     = "stock:view"
	PrivOrderView     = "order:view"
	PrivOrderCreate   = "order:create"
	PrivOrderUpdate   = "order:update"
	PrivDashboardView = "dashboard:view"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// Catalogue
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	// Stock ledger
	{Code: PrivStockRestock, Name: "Restock Product"},
	{Code: PrivStockView, Name: "View Stock Movements"},
	// Orders
	{Code: PrivOrderView, Name: "View Order"},
	{Code: PrivOrderCreate, Name: "Create In-Store Order"},
	{Code: PrivOrderUpdate, Name: "Update Order Status"},
	// Dashboard
	{Code: PrivDashboardView, Name: "View Dashboard"},
}

// CashierPrivileges is the subset granted to the CASHIER role.
var CashierPrivileges = []string{PrivStockView, PrivOrderView, PrivOrderCreate, PrivOrderUpdate}
