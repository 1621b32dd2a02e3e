package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// DashboardHandler exposes the role-scoped aggregate views.
type DashboardHandler struct {
	dashboards *service.DashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboards *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// Get dispatches to the dashboard matching the principal's role.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	ctx := c.UserContext()
	switch principal.Role {
	case domain.RoleAdmin:
		dash, err := h.dashboards.GetAdminDashboard(ctx, principal)
		if err != nil {
			return err
		}
		return c.JSON(dash)
	case domain.RoleSupport:
		dash, err := h.dashboards.GetSupportDashboard(ctx, principal)
		if err != nil {
			return err
		}
		return c.JSON(dash)
	case domain.RoleUser:
		dash, err := h.dashboards.GetUserDashboard(ctx, principal)
		if err != nil {
			return err
		}
		return c.JSON(dash)
	default:
		return apperrors.NewForbidden("no dashboard for this role")
	}
}

// SupportMemberStats returns one support member's workload and feedback.
func (h *DashboardHandler) SupportMemberStats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	stats, err := h.dashboards.GetSupportMemberStats(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
