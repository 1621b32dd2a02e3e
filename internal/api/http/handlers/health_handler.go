package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// HealthHandler reports service liveness and dependency reachability.
type HealthHandler struct {
	postgres *persistence.Postgres
	version  string
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(postgres *persistence.Postgres, version string) *HealthHandler {
	return &HealthHandler{postgres: postgres, version: version}
}

// Live always answers ok while the process runs.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "version": h.version})
}

// Ready checks the database connection.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if err := h.postgres.Ping(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
			"reason": "database unreachable",
		})
	}
	return c.JSON(fiber.Map{"status": "ok", "version": h.version})
}
