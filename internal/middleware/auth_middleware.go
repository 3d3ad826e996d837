package middleware

import (
	"strings"

	"go-pos-ws/internal/repository"
	"go-pos-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

func bearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// authenticate validates the token against the user's current session and
// stores the user info in Locals.
func authenticate(c *fiber.Ctx, tokens *jwt.Manager, userRepo repository.UserRepository, tokenString string) (int, string) {
	claims, err := tokens.ValidateToken(tokenString)
	if err != nil {
		return 401, "Invalid or expired token"
	}

	// Check strict session against DB
	user, err := userRepo.FindByID(c.UserContext(), claims.UserID)
	if err != nil {
		return 401, "User not found"
	}
	if user.TokenVersion != claims.TokenVersion {
		return 401, "Session expired (logged in on another device)"
	}

	// Set user info in context for downstream handlers
	c.Locals("user_id", claims.UserID.String())
	c.Locals("user_email", claims.Email)
	c.Locals("user_name", claims.Name)
	c.Locals("user_privileges", claims.Privileges)
	return 0, ""
}

// RequireAuth is middleware that validates JWT token and sets user info in context
func RequireAuth(tokens *jwt.Manager, userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}
		if status, msg := authenticate(c, tokens, userRepo, tokenString); status != 0 {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		return c.Next()
	}
}

// OptionalAuth sets user info when a valid token is sent and lets
// anonymous requests through. A bad token is still rejected.
func OptionalAuth(tokens *jwt.Manager, userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}
		if status, msg := authenticate(c, tokens, userRepo, tokenString); status != 0 {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}
		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get privileges from context (set by RequireAuth)
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}
