package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"compliflow/internal/common"
	"compliflow/internal/models"
	"compliflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IssueCreate is the input for raising an issue against a form.
type IssueCreate struct {
	AuditFormID uuid.UUID `json:"audit_form_id"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	DueDate     time.Time `json:"due_date"`
}

// ActionCreate is the input for attaching a corrective action to an issue.
type ActionCreate struct {
	IssueID     uuid.UUID `json:"issue_id"`
	Description string    `json:"description"`
}

type IssueService interface {
	RaiseIssue(ctx context.Context, input IssueCreate, actorID *uuid.UUID) (*models.Issue, error)
	AddCorrectiveAction(ctx context.Context, input ActionCreate) (*models.CorrectiveAction, error)

	// CompleteAction stamps the completion date and moves the issue to
	// in_progress if it was still open.
	CompleteAction(ctx context.Context, actionID uuid.UUID) error

	// ResolveIssue marks the issue resolved once remediation is verified.
	ResolveIssue(ctx context.Context, issueID uuid.UUID, actorID *uuid.UUID) error

	ListByAudit(ctx context.Context, auditID uuid.UUID) ([]*models.IssueDetail, error)
	Overdue(ctx context.Context, asOf time.Time) ([]*models.IssueDetail, error)
}

type issueService struct {
	statuses     models.StatusCatalog
	issueRepo    repositories.IssueRepository
	formRepo     repositories.AuditFormRepository
	activityRepo repositories.ActivityLogRepository
}

func NewIssueService(statuses models.StatusCatalog, issueRepo repositories.IssueRepository, formRepo repositories.AuditFormRepository, activityRepo repositories.ActivityLogRepository) IssueService {
	return &issueService{
		statuses:     statuses,
		issueRepo:    issueRepo,
		formRepo:     formRepo,
		activityRepo: activityRepo,
	}
}

func (s *issueService) RaiseIssue(ctx context.Context, input IssueCreate, actorID *uuid.UUID) (*models.Issue, error) {
	if input.Description == "" {
		return nil, fmt.Errorf("%w: description is required", common.ErrValidation)
	}
	if !models.ValidSeverity(input.Severity) {
		return nil, fmt.Errorf("%w: invalid severity %q", common.ErrValidation, input.Severity)
	}
	if input.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due_date is required", common.ErrValidation)
	}
	if _, err := s.formRepo.GetByID(ctx, input.AuditFormID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: form %s", common.ErrValidation, input.AuditFormID)
		}
		return nil, fmt.Errorf("failed to load form %s: %w", input.AuditFormID, err)
	}

	issue := &models.Issue{
		ID:          uuid.New(),
		AuditFormID: input.AuditFormID,
		Description: input.Description,
		Severity:    input.Severity,
		DueDate:     input.DueDate,
		StatusID:    s.statuses.IssueOpen,
	}
	if err := s.issueRepo.Create(ctx, issue); err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	s.logIssueActivity(ctx, actorID, models.ActivityCreate, issue.ID)
	return issue, nil
}

func (s *issueService) AddCorrectiveAction(ctx context.Context, input ActionCreate) (*models.CorrectiveAction, error) {
	if input.Description == "" {
		return nil, fmt.Errorf("%w: description is required", common.ErrValidation)
	}
	if _, err := s.getIssue(ctx, input.IssueID); err != nil {
		return nil, err
	}

	action := &models.CorrectiveAction{
		ID:          uuid.New(),
		IssueID:     input.IssueID,
		Description: input.Description,
		StatusID:    s.statuses.IssueInProgress,
	}
	if err := s.issueRepo.CreateAction(ctx, action); err != nil {
		return nil, fmt.Errorf("failed to create corrective action: %w", err)
	}
	return action, nil
}

func (s *issueService) CompleteAction(ctx context.Context, actionID uuid.UUID) error {
	actions, err := s.findActionIssue(ctx, actionID)
	if err != nil {
		return err
	}

	now := time.Now()
	actions.action.CompletionDate = &now
	if err := s.issueRepo.UpdateAction(ctx, actions.action); err != nil {
		return fmt.Errorf("failed to complete action %s: %w", actionID, err)
	}

	if actions.issue.StatusID == s.statuses.IssueOpen {
		if err := s.issueRepo.UpdateStatus(ctx, actions.issue.ID, s.statuses.IssueInProgress); err != nil {
			return fmt.Errorf("failed to advance issue %s: %w", actions.issue.ID, err)
		}
	}
	return nil
}

func (s *issueService) ResolveIssue(ctx context.Context, issueID uuid.UUID, actorID *uuid.UUID) error {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return err
	}
	if issue.StatusID == s.statuses.IssueResolved || issue.StatusID == s.statuses.IssueClosed {
		return fmt.Errorf("%w: issue %s is already resolved", common.ErrValidation, issueID)
	}

	if err := s.issueRepo.UpdateStatus(ctx, issueID, s.statuses.IssueResolved); err != nil {
		return fmt.Errorf("failed to resolve issue %s: %w", issueID, err)
	}

	now := time.Now()
	actions, err := s.issueRepo.ListActionsByIssue(ctx, issueID)
	if err != nil {
		log.Printf("WARN: failed to list actions for issue %s: %v", issueID, err)
	} else {
		for _, action := range actions {
			if action.VerificationDate != nil {
				continue
			}
			action.VerificationDate = &now
			if err := s.issueRepo.UpdateAction(ctx, action); err != nil {
				log.Printf("WARN: failed to stamp verification on action %s: %v", action.ID, err)
			}
		}
	}

	s.logIssueActivity(ctx, actorID, models.ActivityUpdate, issueID)
	return nil
}

func (s *issueService) ListByAudit(ctx context.Context, auditID uuid.UUID) ([]*models.IssueDetail, error) {
	issues, err := s.issueRepo.ListByAudit(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues for audit %s: %w", auditID, err)
	}
	return issues, nil
}

func (s *issueService) Overdue(ctx context.Context, asOf time.Time) ([]*models.IssueDetail, error) {
	issues, err := s.issueRepo.ListOverdue(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue issues: %w", err)
	}
	return issues, nil
}

func (s *issueService) getIssue(ctx context.Context, issueID uuid.UUID) (*models.Issue, error) {
	issue, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: issue %s", common.ErrNotFound, issueID)
		}
		return nil, fmt.Errorf("failed to load issue %s: %w", issueID, err)
	}
	return issue, nil
}

type actionWithIssue struct {
	action *models.CorrectiveAction
	issue  *models.Issue
}

func (s *issueService) findActionIssue(ctx context.Context, actionID uuid.UUID) (*actionWithIssue, error) {
	action, err := s.issueRepo.GetAction(ctx, actionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: corrective action %s", common.ErrNotFound, actionID)
		}
		return nil, fmt.Errorf("failed to load corrective action %s: %w", actionID, err)
	}
	issue, err := s.getIssue(ctx, action.IssueID)
	if err != nil {
		return nil, err
	}
	return &actionWithIssue{action: action, issue: issue}, nil
}

func (s *issueService) logIssueActivity(ctx context.Context, actorID *uuid.UUID, action string, issueID uuid.UUID) {
	entry := &models.ActivityLog{
		UserID:     actorID,
		Action:     action,
		EntityType: models.EntityIssue,
		EntityID:   issueID,
	}
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		log.Printf("WARN: failed to record %s activity for issue %s: %v", action, issueID, err)
	}
}
