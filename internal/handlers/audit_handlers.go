package handlers

import (
	"net/http"
	"strconv"
	"time"

	"compliflow/internal/common"
	"compliflow/internal/models"
	"compliflow/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuditHandlers handles HTTP requests for audits and their version history
type AuditHandlers struct {
	auditService   services.AuditService
	reviewService  services.ReviewService
	historyService services.HistoryService
}

// NewAuditHandlers creates a new audit handlers instance
func NewAuditHandlers(auditService services.AuditService, reviewService services.ReviewService, historyService services.HistoryService) *AuditHandlers {
	return &AuditHandlers{
		auditService:   auditService,
		reviewService:  reviewService,
		historyService: historyService,
	}
}

// CreateAudit handles POST /audits
func (h *AuditHandlers) CreateAudit(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		OutletID      string     `json:"outlet_id"`
		RequirementID string     `json:"requirement_id"`
		StartTime     *time.Time `json:"start_time"`
		DueDate       time.Time  `json:"due_date"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	outletID, err := common.ValidateUUID(req.OutletID, "outlet_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	requirementID, err := common.ValidateUUID(req.RequirementID, "requirement_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	audit, err := h.auditService.CreateAudit(ctx, services.AuditCreate{
		OutletID:      outletID,
		RequirementID: requirementID,
		UserID:        userID,
		StartTime:     req.StartTime,
		DueDate:       req.DueDate,
	})
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusCreated, audit)
}

// GetAudit handles GET /audits/:id
func (h *AuditHandlers) GetAudit(c echo.Context) error {
	ctx := c.Request().Context()

	auditID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	audit, err := h.auditService.GetAudit(ctx, auditID)
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, audit)
}

// ListAudits handles GET /audits
// Returns only latest-version audits; superseded versions are reachable
// through the history endpoint.
func (h *AuditHandlers) ListAudits(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	filters := models.AuditFilters{Limit: limit, Offset: offset}
	if statusStr := c.QueryParam("status_id"); statusStr != "" {
		statusID, err := common.ValidateUUID(statusStr, "status_id")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		filters.StatusID = &statusID
	}
	if outletStr := c.QueryParam("outlet_id"); outletStr != "" {
		outletID, err := common.ValidateUUID(outletStr, "outlet_id")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		filters.OutletID = &outletID
	}

	audits, err := h.auditService.ListCurrentAudits(ctx, filters)
	if err != nil {
		return common.SendDomainError(c, err)
	}

	meta, err := h.auditService.FilterMeta(ctx)
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"audits": audits,
		"meta":   meta,
		"limit":  limit,
		"offset": offset,
	})
}

// UpdateAuditStatus handles PUT /audits/:id/status
// Rejection triggers the revision workflow: a successor audit is created,
// registered on the version chain and populated with replicated forms.
func (h *AuditHandlers) UpdateAuditStatus(c echo.Context) error {
	ctx := c.Request().Context()

	auditID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		StatusID string `json:"status_id"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	statusID, err := common.ValidateUUID(req.StatusID, "status_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var reviewerPtr *uuid.UUID
	if reviewerID, ok := common.GetUserIDFromContext(ctx); ok {
		reviewerPtr = &reviewerID
	}

	result, err := h.reviewService.UpdateAuditStatus(ctx, auditID, statusID, reviewerPtr)
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// UpdateProgress handles PUT /audits/:id/progress
func (h *AuditHandlers) UpdateProgress(c echo.Context) error {
	ctx := c.Request().Context()

	auditID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Progress int `json:"progress"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.auditService.UpdateProgress(ctx, auditID, req.Progress); err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Progress updated"})
}

// DeleteAudit handles DELETE /audits/:id
func (h *AuditHandlers) DeleteAudit(c echo.Context) error {
	ctx := c.Request().Context()

	auditID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var actorPtr *uuid.UUID
	if actorID, ok := common.GetUserIDFromContext(ctx); ok {
		actorPtr = &actorID
	}

	if err := h.auditService.DeleteAudit(ctx, auditID, actorPtr); err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Audit deleted"})
}

// CheckRejectedForms handles GET /audits/:id/rejected-forms-check
func (h *AuditHandlers) CheckRejectedForms(c echo.Context) error {
	ctx := c.Request().Context()

	auditID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	has, err := h.auditService.HasRejectedForms(ctx, auditID)
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"has_rejected_forms": has})
}

// History handles GET /audits/history
func (h *AuditHandlers) History(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))

	history, err := h.historyService.BuildHistory(ctx, page, perPage)
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, history)
}
