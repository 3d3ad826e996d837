package handler

import (
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// Router wires handlers and middleware onto the Fiber app.
type Router struct {
	Auth      *AuthHandler
	Inventory *InventoryHandler
	Orders    *OrderHandler
	Carts     *CartHandler
	Dashboard *DashboardHandler
	Hub       *ws.Hub

	RequireAuth      fiber.Handler
	OptionalAuth     fiber.Handler
	Idempotency      fiber.Handler
	RequirePrivilege func(code string) fiber.Handler
}

func (r Router) Register(app *fiber.App) {
	api := app.Group("/api/v1")
	priv := r.RequirePrivilege

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", r.Auth.Login)
	auth.Post("/reset-password", r.Auth.ResetPassword)
	auth.Post("/validate-token", r.Auth.ValidateToken)
	auth.Post("/heartbeat", r.RequireAuth, r.Auth.Heartbeat)

	api.Get("/products", r.Inventory.GetProducts)
	api.Get("/products/:id", r.Inventory.GetProduct)

	// Cart & checkout (guest or signed-in customer)
	api.Get("/cart", r.OptionalAuth, r.Carts.GetCart)
	api.Post("/cart/items", r.OptionalAuth, r.Carts.AddItem)
	api.Put("/cart/items/:productId", r.OptionalAuth, r.Carts.UpdateItem)
	api.Delete("/cart/items/:productId", r.OptionalAuth, r.Carts.RemoveItem)
	api.Post("/checkout", r.OptionalAuth, r.Idempotency, r.Carts.Checkout)
	api.Get("/receipts/:id", r.Orders.GetReceipt)

	// ============ STAFF ROUTES ============
	staff := api.Group("", r.RequireAuth)

	staff.Post("/products", priv(model.PrivProductCreate), r.Inventory.CreateProduct)
	staff.Put("/products/:id", priv(model.PrivProductUpdate), r.Inventory.UpdateProduct)
	staff.Delete("/products/:id", priv(model.PrivProductDelete), r.Inventory.DeleteProduct)
	staff.Post("/products/:id/restock", priv(model.PrivStockRestock), r.Inventory.Restock)
	staff.Get("/products/:id/movements", priv(model.PrivStockView), r.Inventory.GetMovements)
	staff.Get("/products/:id/reconcile", priv(model.PrivStockView), r.Inventory.Reconcile)

	staff.Post("/orders", priv(model.PrivOrderCreate), r.Idempotency, r.Orders.CreateOrder)
	staff.Post("/orders/sync", priv(model.PrivOrderCreate), r.Orders.SyncOffline)
	staff.Get("/orders", priv(model.PrivOrderView), r.Orders.GetOrders)
	staff.Get("/orders/unviewed/count", priv(model.PrivOrderView), r.Orders.CountUnviewed)
	staff.Get("/orders/:id", priv(model.PrivOrderView), r.Orders.GetOrder)
	staff.Put("/orders/:id/status", priv(model.PrivOrderUpdate), r.Orders.UpdateStatus)

	staff.Get("/dashboard/stats", priv(model.PrivDashboardView), r.Dashboard.GetDashboardStats)
	staff.Get("/dashboard/sales", priv(model.PrivDashboardView), r.Dashboard.GetSales)
	staff.Get("/dashboard/stock-chart", priv(model.PrivDashboardView), r.Dashboard.GetStockMovement)

	// WebSocket Route
	if r.Hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return c.SendStatus(fiber.StatusUpgradeRequired)
		})
		app.Get("/ws", websocket.New(r.Hub.Serve))
	}
}
