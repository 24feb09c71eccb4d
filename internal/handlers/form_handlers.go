package handlers

import (
	"net/http"

	"compliflow/internal/common"
	"compliflow/internal/models"
	"compliflow/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// FormHandlers handles HTTP requests for audit forms
type FormHandlers struct {
	formService services.FormService
}

func NewFormHandlers(formService services.FormService) *FormHandlers {
	return &FormHandlers{formService: formService}
}

// AttachForm handles POST /audits/:id/forms
func (h *FormHandlers) AttachForm(c echo.Context) error {
	ctx := c.Request().Context()

	auditID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		TemplateID string `json:"template_id"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	templateID, err := common.ValidateUUID(req.TemplateID, "template_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	form, err := h.formService.AttachForm(ctx, auditID, templateID)
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusCreated, form)
}

// GetForm handles GET /forms/:id
func (h *FormHandlers) GetForm(c echo.Context) error {
	ctx := c.Request().Context()

	formID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	form, err := h.formService.GetForm(ctx, formID)
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, form)
}

// SubmitForm handles PUT /forms/:id/submit
func (h *FormHandlers) SubmitForm(c echo.Context) error {
	ctx := c.Request().Context()

	formID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Value models.JSONB `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	var actorPtr *uuid.UUID
	if actorID, ok := common.GetUserIDFromContext(ctx); ok {
		actorPtr = &actorID
	}

	form, err := h.formService.SubmitForm(ctx, formID, req.Value, actorPtr)
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, form)
}

// ReviewForm handles PUT /forms/:id/review
func (h *FormHandlers) ReviewForm(c echo.Context) error {
	ctx := c.Request().Context()

	formID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	var reviewerPtr *uuid.UUID
	if reviewerID, ok := common.GetUserIDFromContext(ctx); ok {
		reviewerPtr = &reviewerID
	}

	if err := h.formService.ReviewForm(ctx, formID, req.Approve, reviewerPtr); err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Form reviewed"})
}

// CurrentAudit handles GET /forms/:id/current-audit
// Resolves which latest-version audit owns the form, following the chain
// across rejections.
func (h *FormHandlers) CurrentAudit(c echo.Context) error {
	ctx := c.Request().Context()

	formID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	audit, err := h.formService.CurrentAudit(ctx, formID)
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, audit)
}
