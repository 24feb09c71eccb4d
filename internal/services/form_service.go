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

// FormService manages the lifecycle of filled-in forms: attach from a
// template, submit values, approve or reject during review.
type FormService interface {
	// AttachForm instantiates a template as a pending form and links it to
	// the audit.
	AttachForm(ctx context.Context, auditID, templateID uuid.UUID) (*models.AuditForm, error)

	// SubmitForm stores the submitted values, marks the form submitted and
	// recomputes the owning audit's progress. AI analysis runs in the
	// background and never blocks or fails the submission.
	SubmitForm(ctx context.Context, formID uuid.UUID, value models.JSONB, actorID *uuid.UUID) (*models.AuditForm, error)

	// ReviewForm sets the form's status to approved or rejected.
	ReviewForm(ctx context.Context, formID uuid.UUID, approve bool, reviewerID *uuid.UUID) error

	GetForm(ctx context.Context, formID uuid.UUID) (*models.AuditForm, error)

	// CurrentAudit resolves the latest-version audit the form belongs to.
	CurrentAudit(ctx context.Context, formID uuid.UUID) (*models.AuditDetail, error)
}

type formService struct {
	statuses     models.StatusCatalog
	formRepo     repositories.AuditFormRepository
	templateRepo repositories.FormTemplateRepository
	auditRepo    repositories.AuditRepository
	activityRepo repositories.ActivityLogRepository
	analyzer     AIAnalyzer
}

// NewFormService creates a form service. analyzer may be nil; submissions
// then skip AI analysis entirely.
func NewFormService(statuses models.StatusCatalog, formRepo repositories.AuditFormRepository, templateRepo repositories.FormTemplateRepository, auditRepo repositories.AuditRepository, activityRepo repositories.ActivityLogRepository, analyzer AIAnalyzer) FormService {
	return &formService{
		statuses:     statuses,
		formRepo:     formRepo,
		templateRepo: templateRepo,
		auditRepo:    auditRepo,
		activityRepo: activityRepo,
		analyzer:     analyzer,
	}
}

func (s *formService) AttachForm(ctx context.Context, auditID, templateID uuid.UUID) (*models.AuditForm, error) {
	template, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: form template %s", common.ErrValidation, templateID)
		}
		return nil, fmt.Errorf("failed to load form template %s: %w", templateID, err)
	}
	if _, err := s.auditRepo.GetByID(ctx, auditID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: audit %s", common.ErrNotFound, auditID)
		}
		return nil, fmt.Errorf("failed to load audit %s: %w", auditID, err)
	}

	pending := s.statuses.FormPending
	form := &models.AuditForm{
		ID:         uuid.New(),
		TemplateID: template.ID,
		Name:       template.Name,
		Value:      models.JSONB{},
		StatusID:   &pending,
	}
	if err := s.formRepo.Create(ctx, form); err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}
	if err := s.formRepo.Link(ctx, auditID, form.ID); err != nil {
		return nil, fmt.Errorf("failed to link form %s to audit %s: %w", form.ID, auditID, err)
	}
	return form, nil
}

func (s *formService) SubmitForm(ctx context.Context, formID uuid.UUID, value models.JSONB, actorID *uuid.UUID) (*models.AuditForm, error) {
	if len(value) == 0 {
		return nil, fmt.Errorf("%w: form value must not be empty", common.ErrValidation)
	}

	form, err := s.getForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	if err := s.formRepo.UpdateValue(ctx, formID, value, s.statuses.FormSubmitted); err != nil {
		return nil, fmt.Errorf("failed to submit form %s: %w", formID, err)
	}
	form.Value = value
	submitted := s.statuses.FormSubmitted
	form.StatusID = &submitted

	s.recomputeProgress(ctx, formID)
	s.logFormActivity(ctx, actorID, models.ActivityUpdate, formID)
	s.analyzeAsync(form)

	return form, nil
}

func (s *formService) ReviewForm(ctx context.Context, formID uuid.UUID, approve bool, reviewerID *uuid.UUID) error {
	if _, err := s.getForm(ctx, formID); err != nil {
		return err
	}

	statusID := s.statuses.FormApproved
	if !approve {
		statusID = s.statuses.FormRejected
	}
	if err := s.formRepo.UpdateStatus(ctx, formID, statusID); err != nil {
		return fmt.Errorf("failed to review form %s: %w", formID, err)
	}

	s.logFormActivity(ctx, reviewerID, models.ActivityReview, formID)
	return nil
}

func (s *formService) GetForm(ctx context.Context, formID uuid.UUID) (*models.AuditForm, error) {
	return s.getForm(ctx, formID)
}

func (s *formService) CurrentAudit(ctx context.Context, formID uuid.UUID) (*models.AuditDetail, error) {
	audit, err := s.formRepo.CurrentAuditForForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current audit for form %s: %w", formID, err)
	}
	if audit == nil {
		return nil, fmt.Errorf("%w: no current audit owns form %s", common.ErrNotFound, formID)
	}
	return audit, nil
}

func (s *formService) getForm(ctx context.Context, formID uuid.UUID) (*models.AuditForm, error) {
	form, err := s.formRepo.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: form %s", common.ErrNotFound, formID)
		}
		return nil, fmt.Errorf("failed to load form %s: %w", formID, err)
	}
	return form, nil
}

// recomputeProgress sets the owning audit's progress to the share of its
// forms that have been submitted or approved. Best effort.
func (s *formService) recomputeProgress(ctx context.Context, formID uuid.UUID) {
	audit, err := s.formRepo.CurrentAuditForForm(ctx, formID)
	if err != nil || audit == nil {
		if err != nil {
			log.Printf("WARN: failed to resolve audit for progress recompute on form %s: %v", formID, err)
		}
		return
	}

	total, submitted, err := s.formRepo.CountByAudit(ctx, audit.ID)
	if err != nil {
		log.Printf("WARN: failed to count forms for audit %s: %v", audit.ID, err)
		return
	}
	if total == 0 {
		return
	}

	progress := submitted * 100 / total
	if err := s.auditRepo.UpdateProgress(ctx, audit.ID, progress); err != nil {
		log.Printf("WARN: failed to update progress for audit %s: %v", audit.ID, err)
	}
}

func (s *formService) analyzeAsync(form *models.AuditForm) {
	if s.analyzer == nil {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("ERROR: form analysis panicked for form %s: %v", form.ID, r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		var structure models.JSONB
		if template, err := s.templateRepo.GetByID(ctx, form.TemplateID); err == nil {
			structure = template.Structure
		}

		analysis, err := s.analyzer.AnalyzeForm(ctx, form, structure)
		if err != nil {
			log.Printf("WARN: form analysis failed for form %s: %v", form.ID, err)
			return
		}

		payload := models.JSONB{
			"completeness_score": analysis.CompletenessScore,
			"flags":              analysis.Flags,
			"summary":            analysis.Summary,
			"analyzed_at":        time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.formRepo.SetAIAnalysis(ctx, form.ID, payload); err != nil {
			log.Printf("WARN: failed to store analysis for form %s: %v", form.ID, err)
		}
	}()
}

func (s *formService) logFormActivity(ctx context.Context, actorID *uuid.UUID, action string, formID uuid.UUID) {
	entry := &models.ActivityLog{
		UserID:     actorID,
		Action:     action,
		EntityType: models.EntityAuditForm,
		EntityID:   formID,
	}
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		log.Printf("WARN: failed to record %s activity for form %s: %v", action, formID, err)
	}
}
