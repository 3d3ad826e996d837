package middleware

import (
	"go-pos-ws/internal/cache"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Requests without the header pass through. Server errors release the key
// so the client may retry; a store outage fails open.
func Idempotency(store cache.IdempotencyStore, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderIdempotencyKey)
		if key == "" {
			return c.Next()
		}
		scoped := c.Method() + " " + c.Path() + " " + key
		ctx := c.UserContext()

		rec, claimed, err := store.Reserve(ctx, scoped)
		if err != nil {
			logger.Warn("idempotency store unavailable", zap.Error(err))
			return c.Next()
		}
		if !claimed {
			if !rec.Done {
				return c.Status(409).JSON(fiber.Map{"error": "A request with this Idempotency-Key is still in progress"})
			}
			c.Set(HeaderReplayed, "true")
			if rec.ContentType != "" {
				c.Set(fiber.HeaderContentType, rec.ContentType)
			}
			return c.Status(rec.Status).Send(rec.Body)
		}

		if err := c.Next(); err != nil {
			_ = store.Release(ctx, scoped)
			return err
		}
		status := c.Response().StatusCode()
		if status >= 500 {
			_ = store.Release(ctx, scoped)
			return nil
		}

		err = store.Complete(ctx, scoped, cache.Record{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		})
		if err != nil {
			logger.Warn("failed to store idempotent response", zap.Error(err))
		}
		return nil
	}
}
