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

// TemplateHandlers handles HTTP requests for form templates
type TemplateHandlers struct {
	templateRepo repositories.FormTemplateRepository
}

func NewTemplateHandlers(templateRepo repositories.FormTemplateRepository) *TemplateHandlers {
	return &TemplateHandlers{templateRepo: templateRepo}
}

// CreateTemplate handles POST /form-templates
func (h *TemplateHandlers) CreateTemplate(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Name          string       `json:"name"`
		Structure     models.JSONB `json:"structure"`
		RequirementID *string      `json:"requirement_id"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendClientError(c, err.Error())
	}
	if len(req.Structure) == 0 {
		return common.SendValidationError(c, "structure", "structure must not be empty")
	}

	template := &models.FormTemplate{
		ID:        uuid.New(),
		Name:      req.Name,
		Structure: req.Structure,
	}
	if req.RequirementID != nil && *req.RequirementID != "" {
		requirementID, err := common.ValidateUUID(*req.RequirementID, "requirement_id")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		template.RequirementID = &requirementID
	}

	if err := h.templateRepo.Create(ctx, template); err != nil {
		return common.SendServerError(c, "Failed to create form template")
	}

	return c.JSON(http.StatusCreated, template)
}

// GetTemplate handles GET /form-templates/:id
func (h *TemplateHandlers) GetTemplate(c echo.Context) error {
	ctx := c.Request().Context()

	templateID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	template, err := h.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendNotFoundError(c, "form template")
		}
		return common.SendServerError(c, "Failed to retrieve form template")
	}

	return c.JSON(http.StatusOK, template)
}

// UpdateTemplate handles PUT /form-templates/:id
// Forms already instantiated keep the structure they were created from;
// only future attachments see the update.
func (h *TemplateHandlers) UpdateTemplate(c echo.Context) error {
	ctx := c.Request().Context()

	templateID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	template, err := h.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.SendNotFoundError(c, "form template")
		}
		return common.SendServerError(c, "Failed to retrieve form template")
	}

	var req struct {
		Name      *string      `json:"name"`
		Structure models.JSONB `json:"structure"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if req.Name != nil {
		if err := common.ValidateRequiredString(*req.Name, "name"); err != nil {
			return common.SendClientError(c, err.Error())
		}
		template.Name = *req.Name
	}
	if len(req.Structure) > 0 {
		template.Structure = req.Structure
	}

	if err := h.templateRepo.Update(ctx, template); err != nil {
		return common.SendServerError(c, "Failed to update form template")
	}

	return c.JSON(http.StatusOK, template)
}

// DeleteTemplate handles DELETE /form-templates/:id
func (h *TemplateHandlers) DeleteTemplate(c echo.Context) error {
	ctx := c.Request().Context()

	templateID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.templateRepo.Delete(ctx, templateID); err != nil {
		return common.SendServerError(c, "Failed to delete form template")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Form template deleted"})
}

// ListTemplates handles GET /form-templates
func (h *TemplateHandlers) ListTemplates(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	templates, err := h.templateRepo.List(ctx, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list form templates")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"form_templates": templates,
		"limit":          limit,
		"offset":         offset,
	})
}
