package handler

import (
	"errors"
	"strconv"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/notify"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Helper untuk ambil User Info dari JWT Context (set by auth middleware)
func getUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals("user_id").(string)
	if !ok {
		return "system"
	}
	return userID
}

func getUserName(c *fiber.Ctx) string {
	userName, ok := c.Locals("user_name").(string)
	if !ok {
		return "Unknown"
	}
	return userName
}

func getUserEmail(c *fiber.Ctx) string {
	userEmail, _ := c.Locals("user_email").(string)
	return userEmail
}

// getUserUUID is nil for anonymous requests.
func getUserUUID(c *fiber.Ctx) *uuid.UUID {
	raw, ok := c.Locals("user_id").(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func getActor(c *fiber.Ctx) notify.Actor {
	return notify.Actor{ID: getUserID(c), Name: getUserName(c), Email: getUserEmail(c)}
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// writeError maps service errors to status codes. Unknown errors never
// leak their text.
func writeError(c *fiber.Ctx, err error) error {
	var validationErr *service.ValidationError
	var stockErr *service.InsufficientStockError

	switch {
	case errors.As(err, &validationErr):
		return c.Status(400).JSON(fiber.Map{"error": "Validation failed", "details": validationErr.Fields})
	case errors.As(err, &stockErr):
		status := 409
		if len(stockErr.Missing) > 0 {
			status = 404
		}
		return c.Status(status).JSON(fiber.Map{"error": stockErr.Error(), "products": stockErr.Lines, "missing": stockErr.Missing})
	case errors.Is(err, repository.ErrInsufficientStock):
		return c.Status(409).JSON(fiber.Map{"error": "Insufficient stock"})
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCartNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, repository.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrDuplicateBarcode),
		errors.Is(err, repository.ErrConflict):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidMovement):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
}

func renderOrderView(v service.OrderView) fiber.Map {
	return fiber.Map{
		"order":    v.Summary(),
		"items":    v.Lines(),
		"degraded": v.IsDegraded(),
	}
}

func orderCreated(c *fiber.Ctx, res *service.CreateOrderResult) error {
	if res.Duplicate {
		return c.Status(200).JSON(fiber.Map{"message": "Duplicate order detected", "data": res.Order, "duplicate": true})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Order created", "data": res.Order, "duplicate": false})
}

func cartOwner(c *fiber.Ctx) model.CartOwner {
	return model.CartOwner{UserID: getUserUUID(c), SessionKey: c.Get("X-Session-Key")}
}
