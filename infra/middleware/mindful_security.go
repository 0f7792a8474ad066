package middleware

import (
	"strings"

	"mindful_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SecurityHeaders adds security headers to all responses
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Set("Server", "")
		return c.Next()
	}
}

// ValidateContentType accepts JSON and form bodies only.
func ValidateContentType() fiber.Handler {
	allowedTypes := []string{
		fiber.MIMEApplicationJSON,
		fiber.MIMEApplicationForm,
		fiber.MIMEMultipartForm,
	}

	return func(c *fiber.Ctx) error {
		method := c.Method()
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch {
			return c.Next()
		}
		if len(c.Body()) == 0 {
			return c.Next()
		}

		contentType := strings.ToLower(c.Get(fiber.HeaderContentType))
		for _, t := range allowedTypes {
			if strings.HasPrefix(contentType, t) {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusUnsupportedMediaType, "unsupported content type")
	}
}

// ValidateUUID rejects requests whose path parameter is not a UUID.
func ValidateUUID(paramName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		value := c.Params(paramName)
		if value == "" {
			return apperr.MissingField(paramName)
		}
		if _, err := uuid.Parse(value); err != nil {
			return apperr.ValidationFailed("invalid UUID format").WithDetail("field", paramName)
		}
		return c.Next()
	}
}
