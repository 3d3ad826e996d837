package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"go-pos-ws/internal/cache"
	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository/memory"
	"go-pos-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIdempotencyReplaysResponse(t *testing.T) {
	calls := 0
	app := fiber.New()
	app.Post("/orders", Idempotency(cache.NewMemoryStore(time.Minute), zap.NewNop()), func(c *fiber.Ctx) error {
		calls++
		return c.Status(201).JSON(fiber.Map{"call": calls})
	})

	send := func(key string) (int, string, string) {
		req := httptest.NewRequest("POST", "/orders", nil)
		if key != "" {
			req.Header.Set(HeaderIdempotencyKey, key)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, resp.Header.Get(HeaderReplayed), string(body)
	}

	status, replayed, body := send("abc")
	assert.Equal(t, 201, status)
	assert.Empty(t, replayed)
	assert.JSONEq(t, `{"call":1}`, body)

	status, replayed, body = send("abc")
	assert.Equal(t, 201, status)
	assert.Equal(t, "true", replayed)
	assert.JSONEq(t, `{"call":1}`, body)
	assert.Equal(t, 1, calls)

	status, _, body = send("")
	assert.Equal(t, 201, status)
	assert.JSONEq(t, `{"call":2}`, body)
}

func TestIdempotencyReleasesOnServerError(t *testing.T) {
	calls := 0
	app := fiber.New()
	app.Post("/orders", Idempotency(cache.NewMemoryStore(time.Minute), zap.NewNop()), func(c *fiber.Ctx) error {
		calls++
		return c.Status(500).JSON(fiber.Map{"error": "boom"})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/orders", nil)
		req.Header.Set(HeaderIdempotencyKey, "k")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode)
	}
	assert.Equal(t, 2, calls)
}

func TestIdempotencyRejectsInFlight(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute)
	_, claimed, err := store.Reserve(context.Background(), "POST /orders busy")
	require.NoError(t, err)
	require.True(t, claimed)

	app := fiber.New()
	app.Post("/orders", Idempotency(store, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendStatus(201)
	})
	req := httptest.NewRequest("POST", "/orders", nil)
	req.Header.Set(HeaderIdempotencyKey, "busy")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
}

func TestRequireAuthAndPrivilege(t *testing.T) {
	store, err := memory.New()
	require.NoError(t, err)
	tokens := jwt.NewManager("secret", time.Hour)

	user := &model.User{Email: "cashier@example.com", FullName: "Cashier", IsActive: true, TokenVersion: "v1"}
	require.NoError(t, store.Users().Create(context.Background(), user))

	app := fiber.New()
	app.Get("/orders", RequireAuth(tokens, store.Users()), RequirePrivilege(model.PrivOrderView), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})
	app.Get("/cart", OptionalAuth(tokens, store.Users()), func(c *fiber.Ctx) error {
		if id, ok := c.Locals("user_id").(string); ok {
			return c.SendString(id)
		}
		return c.SendString("anonymous")
	})

	get := func(path, token string) (int, string) {
		req := httptest.NewRequest("GET", path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	status, _ := get("/orders", "")
	assert.Equal(t, 401, status)

	viewer, err := tokens.GenerateToken(user.ID, user.Email, user.FullName, model.RoleCashier, []string{model.PrivOrderView}, "v1")
	require.NoError(t, err)
	status, body := get("/orders", viewer)
	assert.Equal(t, 200, status)
	assert.Equal(t, user.ID.String(), body)

	noPriv, err := tokens.GenerateToken(user.ID, user.Email, user.FullName, model.RoleCashier, nil, "v1")
	require.NoError(t, err)
	status, _ = get("/orders", noPriv)
	assert.Equal(t, 403, status)

	stale, err := tokens.GenerateToken(user.ID, user.Email, user.FullName, model.RoleCashier, []string{model.PrivOrderView}, "v0")
	require.NoError(t, err)
	status, _ = get("/orders", stale)
	assert.Equal(t, 401, status)

	status, body = get("/cart", "")
	assert.Equal(t, 200, status)
	assert.Equal(t, "anonymous", body)

	status, body = get("/cart", viewer)
	assert.Equal(t, 200, status)
	assert.Equal(t, user.ID.String(), body)
}
