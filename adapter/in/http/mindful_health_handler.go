package http

import (
	"context"
	"time"

	"mindful_server/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// CircuitReporter is implemented by classifiers guarded by a circuit breaker.
type CircuitReporter interface {
	IsCircuitOpen() bool
}

type HealthHandler struct {
	store      HealthChecker
	redis      *redis.Client
	classifier any
	latency    *metrics.LatencyRegistry
}

// NewHealthHandler builds the health checks. redis and classifier may be nil.
func NewHealthHandler(store HealthChecker, redis *redis.Client, classifier any, latency *metrics.LatencyRegistry) *HealthHandler {
	return &HealthHandler{
		store:      store,
		redis:      redis,
		classifier: classifier,
		latency:    latency,
	}
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)
	app.Get("/metrics", h.Metrics)
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			checks["store"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks["store"] = "healthy"
		}
	} else {
		checks["store"] = "not configured"
		allHealthy = false
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "not configured"
	}

	// An open breaker does not fail readiness.
	if cr, ok := h.classifier.(CircuitReporter); ok {
		if cr.IsCircuitOpen() {
			checks["classifier"] = "circuit open"
		} else {
			checks["classifier"] = "healthy"
		}
	}

	status := "ready"
	statusCode := fiber.StatusOK
	if !allHealthy {
		status = "not ready"
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Metrics reports latency percentiles per tracked operation.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	latency := map[string]map[string]any{}
	if h.latency != nil {
		latency = h.latency.Snapshot()
	}
	return c.JSON(fiber.Map{
		"latency":   latency,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
