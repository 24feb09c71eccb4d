package handlers

import (
	"net/http"
	"time"

	"compliflow/internal/common"
	"compliflow/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// IssueHandlers handles HTTP requests for issues and corrective actions
type IssueHandlers struct {
	issueService services.IssueService
}

func NewIssueHandlers(issueService services.IssueService) *IssueHandlers {
	return &IssueHandlers{issueService: issueService}
}

// RaiseIssue handles POST /issues
func (h *IssueHandlers) RaiseIssue(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		AuditFormID string    `json:"audit_form_id"`
		Description string    `json:"description"`
		Severity    string    `json:"severity"`
		DueDate     time.Time `json:"due_date"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	formID, err := common.ValidateUUID(req.AuditFormID, "audit_form_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var actorPtr *uuid.UUID
	if actorID, ok := common.GetUserIDFromContext(ctx); ok {
		actorPtr = &actorID
	}

	issue, err := h.issueService.RaiseIssue(ctx, services.IssueCreate{
		AuditFormID: formID,
		Description: req.Description,
		Severity:    req.Severity,
		DueDate:     req.DueDate,
	}, actorPtr)
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusCreated, issue)
}

// AddCorrectiveAction handles POST /issues/:id/actions
func (h *IssueHandlers) AddCorrectiveAction(c echo.Context) error {
	ctx := c.Request().Context()

	issueID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	action, err := h.issueService.AddCorrectiveAction(ctx, services.ActionCreate{
		IssueID:     issueID,
		Description: req.Description,
	})
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusCreated, action)
}

// CompleteAction handles PUT /actions/:id/complete
func (h *IssueHandlers) CompleteAction(c echo.Context) error {
	ctx := c.Request().Context()

	actionID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.issueService.CompleteAction(ctx, actionID); err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Action completed"})
}

// ResolveIssue handles PUT /issues/:id/resolve
func (h *IssueHandlers) ResolveIssue(c echo.Context) error {
	ctx := c.Request().Context()

	issueID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var actorPtr *uuid.UUID
	if actorID, ok := common.GetUserIDFromContext(ctx); ok {
		actorPtr = &actorID
	}

	if err := h.issueService.ResolveIssue(ctx, issueID, actorPtr); err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Issue resolved"})
}

// ListByAudit handles GET /audits/:id/issues
func (h *IssueHandlers) ListByAudit(c echo.Context) error {
	ctx := c.Request().Context()

	auditID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	issues, err := h.issueService.ListByAudit(ctx, auditID)
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"issues": issues})
}

// ListOverdue handles GET /issues/overdue
func (h *IssueHandlers) ListOverdue(c echo.Context) error {
	ctx := c.Request().Context()

	issues, err := h.issueService.Overdue(ctx, time.Now())
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"issues": issues})
}
