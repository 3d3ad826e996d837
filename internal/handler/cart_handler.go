package handler

import (
	"go-pos-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartHandler serves the customer cart. The cart belongs to the signed-in
// user or, for guests, to the X-Session-Key header.
type CartHandler struct {
	carts service.CartService
}

func NewCartHandler(carts service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type CartItemRequest struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	cart, err := h.carts.GetCart(c.UserContext(), cartOwner(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var req CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if req.ProductID == uuid.Nil {
		return c.Status(400).JSON(fiber.Map{"error": "product_id is required"})
	}

	cart, err := h.carts.AddItem(c.UserContext(), cartOwner(c), req.ProductID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	productID, ok := parseUUIDParam(c, "productId")
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}
	var req CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	cart, err := h.carts.UpdateItem(c.UserContext(), cartOwner(c), productID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	productID, ok := parseUUIDParam(c, "productId")
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	cart, err := h.carts.RemoveItem(c.UserContext(), cartOwner(c), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(cart)
}

// Checkout converts the active cart into an online order
// POST /api/v1/checkout
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	var req service.CheckoutInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
		}
	}

	res, err := h.carts.Checkout(c.UserContext(), cartOwner(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return orderCreated(c, res)
}
