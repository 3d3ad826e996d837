package handler

import (
	"errors"

	"go-pos-ws/internal/service"
	"go-pos-ws/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler serves staff sessions: login, password change, token checks
// and the idle-timeout heartbeat.
type AuthHandler struct {
	auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,nefield=OldPassword"`
}

type ValidateTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// bindRequest parses and validates the body. On failure the 400 response
// is already written and the returned error is the one to hand to fiber.
func bindRequest(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return false, c.Status(400).JSON(fiber.Map{"error": "Validation failed", "details": errs})
	}
	return true, nil
}

// writeAuthError keeps credential and session failures at 401 and lets
// everything else go through the shared mapping.
func writeAuthError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUserInactive),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrSessionTimeout),
		errors.Is(err, service.ErrSessionReplaced):
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}
	return writeError(c, err)
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := bindRequest(c, &req); !ok {
		return err
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(session)
}

// POST /api/v1/auth/reset-password ends every session of the account.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if ok, err := bindRequest(c, &req); !ok {
		return err
	}

	if err := h.auth.ResetPassword(c.UserContext(), req.Email, req.OldPassword, req.NewPassword); err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// Heartbeat sits behind RequireAuth, so the user id is always present.
func (h *AuthHandler) Heartbeat(c *fiber.Ctx) error {
	userID := getUserUUID(c)
	if userID == nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := h.auth.Heartbeat(c.UserContext(), *userID); err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Heartbeat received", "status": "online"})
}

// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if ok, err := bindRequest(c, &req); !ok {
		return err
	}

	result, err := h.auth.ValidateToken(c.UserContext(), req.Token)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}
