package handlers

import (
	"net/http"

	"compliflow/internal/analytics"
	"compliflow/internal/common"

	"github.com/labstack/echo/v4"
)

// DashboardHandlers handles HTTP requests for the compliance dashboard
type DashboardHandlers struct {
	analyticsService *analytics.Service
}

func NewDashboardHandlers(analyticsService *analytics.Service) *DashboardHandlers {
	return &DashboardHandlers{analyticsService: analyticsService}
}

// GetDashboard handles GET /dashboard
func (h *DashboardHandlers) GetDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	data, err := h.analyticsService.Dashboard(ctx)
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, data)
}
