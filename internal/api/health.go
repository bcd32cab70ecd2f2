package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck is a named dependency probe reported by /health
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Health handles the /health endpoint
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx := c.UserContext()

	status := "healthy"
	httpStatus := fiber.StatusOK
	checks := fiber.Map{}

	for _, hc := range h.checks {
		if err := hc.Check(ctx); err != nil {
			checks[hc.Name] = err.Error()
			status = "unhealthy"
			httpStatus = fiber.StatusServiceUnavailable
			continue
		}
		checks[hc.Name] = "ok"
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":   status,
		"stations": h.stations.Len(),
		"checks":   checks,
	})
}
