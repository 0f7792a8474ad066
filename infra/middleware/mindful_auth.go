package middleware

import (
	"strings"

	"mindful_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SessionVerifier resolves a raw session token to a user id.
type SessionVerifier interface {
	RequireSession(token string) (uuid.UUID, error)
}

// ExtractToken reads the Authorization header, accepting both a bare token
// and "Bearer <token>".
func ExtractToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// RequireSession rejects requests without a valid session token and stores
// the user id in Locals("user_id").
func RequireSession(verifier SessionVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		token := ExtractToken(c)
		if token == "" {
			return apperr.InvalidToken("")
		}

		userID, err := verifier.RequireSession(token)
		if err != nil {
			return err
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}

// GetUserID returns the authenticated user id set by RequireSession.
func GetUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals("user_id").(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}
