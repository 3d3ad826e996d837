package handler

import (
	"time"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orders service.OrderService
	reader *service.OrderReader
}

func NewOrderHandler(orders service.OrderService, reader *service.OrderReader) *OrderHandler {
	return &OrderHandler{orders: orders, reader: reader}
}

// CreateOrder records an in-store sale
// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req service.CreateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if req.OrderType == "" {
		req.OrderType = model.OrderInStore
	}
	req.CreatedByID = getUserUUID(c)
	req.Actor = getUserID(c)

	res, err := h.orders.CreateOrder(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return orderCreated(c, res)
}

type SyncRequest struct {
	Orders []service.CreateOrderInput `json:"orders"`
}

// SyncOffline uploads orders captured while the till was offline
// POST /api/v1/orders/sync
func (h *OrderHandler) SyncOffline(c *fiber.Ctx) error {
	var req SyncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if len(req.Orders) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "No orders to sync"})
	}

	createdBy := getUserUUID(c)
	for i := range req.Orders {
		req.Orders[i].CreatedByID = createdBy
		req.Orders[i].Actor = getUserID(c)
	}

	results := h.orders.SyncOffline(c.UserContext(), req.Orders)
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	return c.JSON(fiber.Map{"results": results, "synced": len(results) - failed, "failed": failed})
}

func parseDate(value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// GetOrders lists orders
// Query params: status, order_type, email, customer_id, from, to (YYYY-MM-DD), unviewed, limit, offset
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	filter := model.OrderFilter{
		Status:    model.OrderStatus(c.Query("status")),
		OrderType: model.OrderType(c.Query("order_type")),
		Email:     c.Query("email"),
		Unviewed:  c.QueryBool("unviewed", false),
		Limit:     queryInt(c, "limit", 50),
		Offset:    c.QueryInt("offset", 0),
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid customer ID"})
		}
		filter.CustomerID = &id
	}
	from, ok := parseDate(c.Query("from"))
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid from date, use YYYY-MM-DD"})
	}
	to, ok := parseDate(c.Query("to"))
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid to date, use YYYY-MM-DD"})
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		to = &end
	}
	filter.From, filter.To = from, to

	orders, total, err := h.orders.List(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"data": orders, "total": total})
}

// GetOrder shows one order to staff and marks it viewed
// GET /api/v1/orders/:id
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	view, err := h.reader.GetOrderByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.orders.MarkViewed(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(renderOrderView(view))
}

// GetReceipt renders an order for the customer
// GET /api/v1/receipts/:id
func (h *OrderHandler) GetReceipt(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	view, err := h.reader.GetOrderByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(renderOrderView(view))
}

func (h *OrderHandler) CountUnviewed(c *fiber.Ctx) error {
	count, err := h.orders.CountUnviewed(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

type UpdateStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

// UpdateStatus moves an order through its lifecycle
// PUT /api/v1/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	order, err := h.orders.UpdateStatus(c.UserContext(), id, req.Status, getUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order status updated", "data": order})
}
