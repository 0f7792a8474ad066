package middleware

import (
	"math"
	"strconv"
	"time"

	"mindful_server/pkg/apperr"
	"mindful_server/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
)

// RateLimit admits requests through limiter, keyed by client IP.
func RateLimit(limiter ratelimit.Limiter, limit int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, wait := limiter.Allow(c.UserContext(), c.IP())
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		if !allowed {
			retry := int(math.Ceil(wait.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(wait).Unix(), 10))
			return apperr.RateLimited(retry)
		}
		return c.Next()
	}
}
