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

// RequirementHandlers handles HTTP requests for compliance requirements
type RequirementHandlers struct {
	requirementRepo repositories.RequirementRepository
}

func NewRequirementHandlers(requirementRepo repositories.RequirementRepository) *RequirementHandlers {
	return &RequirementHandlers{requirementRepo: requirementRepo}
}

// CreateRequirement handles POST /requirements
func (h *RequirementHandlers) CreateRequirement(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
		Frequency   string  `json:"frequency"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Title, "title"); err != nil {
		return common.SendClientError(c, err.Error())
	}
	if err := common.ValidateRequiredString(req.Frequency, "frequency"); err != nil {
		return common.SendClientError(c, err.Error())
	}

	requirement := &models.ComplianceRequirement{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Frequency:   req.Frequency,
	}
	if err := h.requirementRepo.Create(ctx, requirement); err != nil {
		return common.SendServerError(c, "Failed to create requirement")
	}

	return c.JSON(http.StatusCreated, requirement)
}

// GetRequirement handles GET /requirements/:id
func (h *RequirementHandlers) GetRequirement(c echo.Context) error {
	ctx := c.Request().Context()

	requirementID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	requirement, err := h.requirementRepo.GetByID(ctx, requirementID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendNotFoundError(c, "requirement")
		}
		return common.SendServerError(c, "Failed to retrieve requirement")
	}

	return c.JSON(http.StatusOK, requirement)
}

// UpdateRequirement handles PUT /requirements/:id
func (h *RequirementHandlers) UpdateRequirement(c echo.Context) error {
	ctx := c.Request().Context()

	requirementID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	requirement, err := h.requirementRepo.GetByID(ctx, requirementID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendNotFoundError(c, "requirement")
		}
		return common.SendServerError(c, "Failed to retrieve requirement")
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Frequency   *string `json:"frequency"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if req.Title != nil {
		if err := common.ValidateRequiredString(*req.Title, "title"); err != nil {
			return common.SendClientError(c, err.Error())
		}
		requirement.Title = *req.Title
	}
	if req.Description != nil {
		requirement.Description = req.Description
	}
	if req.Frequency != nil {
		if err := common.ValidateRequiredString(*req.Frequency, "frequency"); err != nil {
			return common.SendClientError(c, err.Error())
		}
		requirement.Frequency = *req.Frequency
	}

	if err := h.requirementRepo.Update(ctx, requirement); err != nil {
		return common.SendServerError(c, "Failed to update requirement")
	}

	return c.JSON(http.StatusOK, requirement)
}

// DeleteRequirement handles DELETE /requirements/:id
func (h *RequirementHandlers) DeleteRequirement(c echo.Context) error {
	ctx := c.Request().Context()

	requirementID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.requirementRepo.Delete(ctx, requirementID); err != nil {
		return common.SendServerError(c, "Failed to delete requirement")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Requirement deleted"})
}

// ListRequirements handles GET /requirements
func (h *RequirementHandlers) ListRequirements(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	requirements, err := h.requirementRepo.List(ctx, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list requirements")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"requirements": requirements,
		"limit":        limit,
		"offset":       offset,
	})
}
