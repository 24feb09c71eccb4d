package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"compliflow/internal/common"
	"compliflow/internal/models"
	"compliflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// OutletHandlers handles HTTP requests for outlets
type OutletHandlers struct {
	outletRepo repositories.OutletRepository
}

func NewOutletHandlers(outletRepo repositories.OutletRepository) *OutletHandlers {
	return &OutletHandlers{outletRepo: outletRepo}
}

// CreateOutlet handles POST /outlets
func (h *OutletHandlers) CreateOutlet(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Name         string  `json:"name"`
		Location     *string `json:"location"`
		ContactEmail *string `json:"contact_email"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendClientError(c, err.Error())
	}

	outlet := &models.Outlet{
		ID:           uuid.New(),
		Name:         req.Name,
		Location:     req.Location,
		ContactEmail: req.ContactEmail,
	}
	if err := h.outletRepo.Create(ctx, outlet); err != nil {
		return common.SendServerError(c, "Failed to create outlet")
	}

	return c.JSON(http.StatusCreated, outlet)
}

// GetOutlet handles GET /outlets/:id
func (h *OutletHandlers) GetOutlet(c echo.Context) error {
	ctx := c.Request().Context()

	outletID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	outlet, err := h.outletRepo.GetByID(ctx, outletID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendNotFoundError(c, "outlet")
		}
		return common.SendServerError(c, "Failed to retrieve outlet")
	}

	return c.JSON(http.StatusOK, outlet)
}

// UpdateOutlet handles PUT /outlets/:id
func (h *OutletHandlers) UpdateOutlet(c echo.Context) error {
	ctx := c.Request().Context()

	outletID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	outlet, err := h.outletRepo.GetByID(ctx, outletID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendNotFoundError(c, "outlet")
		}
		return common.SendServerError(c, "Failed to retrieve outlet")
	}

	var req struct {
		Name         *string `json:"name"`
		Location     *string `json:"location"`
		ContactEmail *string `json:"contact_email"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if req.Name != nil {
		if err := common.ValidateRequiredString(*req.Name, "name"); err != nil {
			return common.SendClientError(c, err.Error())
		}
		outlet.Name = *req.Name
	}
	if req.Location != nil {
		outlet.Location = req.Location
	}
	if req.ContactEmail != nil {
		outlet.ContactEmail = req.ContactEmail
	}

	if err := h.outletRepo.Update(ctx, outlet); err != nil {
		return common.SendServerError(c, "Failed to update outlet")
	}

	return c.JSON(http.StatusOK, outlet)
}

// DeleteOutlet handles DELETE /outlets/:id
func (h *OutletHandlers) DeleteOutlet(c echo.Context) error {
	ctx := c.Request().Context()

	outletID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.outletRepo.Delete(ctx, outletID); err != nil {
		return common.SendServerError(c, "Failed to delete outlet")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Outlet deleted"})
}

// ListOutlets handles GET /outlets
func (h *OutletHandlers) ListOutlets(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	outlets, err := h.outletRepo.List(ctx, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list outlets")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"outlets": outlets,
		"limit":   limit,
		"offset":  offset,
	})
}
