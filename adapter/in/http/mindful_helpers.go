package http

import (
	"mindful_server/infra/middleware"
	"mindful_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// parseBody binds a JSON or form body into v. An empty body leaves v at its
// zero value so the service reports the missing field.
func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(v); err != nil {
		return apperr.ValidationFailed("invalid request body").WithError(err)
	}
	return nil
}

// uuidParam parses a path parameter already checked by middleware.ValidateUUID.
func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.ValidationFailed("invalid UUID format").WithDetail("field", name)
	}
	return id, nil
}

// requireUserID returns the session user set by middleware.RequireSession.
func requireUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return uuid.Nil, apperr.InvalidToken("")
	}
	return userID, nil
}
