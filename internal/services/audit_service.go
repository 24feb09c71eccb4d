package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"compliflow/internal/caching"
	"compliflow/internal/common"
	"compliflow/internal/models"
	"compliflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// latestIDsTTL bounds staleness of the cached latest-version id set between
// invalidations.
const latestIDsTTL = 5 * time.Minute

// AuditCreate is the input for opening a new audit. The audit starts in
// draft with zero progress; forms are attached afterwards from templates.
type AuditCreate struct {
	OutletID      uuid.UUID  `json:"outlet_id"`
	RequirementID uuid.UUID  `json:"requirement_id"`
	UserID        uuid.UUID  `json:"user_id"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	DueDate       time.Time  `json:"due_date"`
}

// AuditWithForms bundles an audit with its attached forms for detail views.
type AuditWithForms struct {
	Audit *models.AuditDetail       `json:"audit"`
	Forms []*models.AuditFormDetail `json:"forms"`
}

// AuditFilterMeta lists the reference values a client can filter audits by,
// plus the size of the current (latest-version) audit set.
type AuditFilterMeta struct {
	Statuses     []*models.Status `json:"statuses"`
	Outlets      []*models.Outlet `json:"outlets"`
	TotalCurrent int              `json:"total_current"`
}

type AuditService interface {
	CreateAudit(ctx context.Context, input AuditCreate) (*models.Audit, error)
	GetAudit(ctx context.Context, id uuid.UUID) (*AuditWithForms, error)
	ListCurrentAudits(ctx context.Context, filters models.AuditFilters) ([]*models.AuditDetail, error)

	// CurrentAuditIDs returns the ids of every latest-version audit: the max
	// version of each chain plus every audit that has no chain row. The set
	// is cached until a rejection or delete changes chain membership.
	CurrentAuditIDs(ctx context.Context) ([]uuid.UUID, error)

	// FilterMeta returns the status and outlet reference lists for the audit
	// list view.
	FilterMeta(ctx context.Context) (*AuditFilterMeta, error)

	DeleteAudit(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) error
	UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error
	HasRejectedForms(ctx context.Context, id uuid.UUID) (bool, error)
}

type auditService struct {
	db           repositories.TxStarter
	statuses     models.StatusCatalog
	auditRepo    repositories.AuditRepository
	versionRepo  repositories.AuditVersionRepository
	formRepo     repositories.AuditFormRepository
	statusRepo   repositories.StatusRepository
	outletRepo   repositories.OutletRepository
	activityRepo repositories.ActivityLogRepository
	cache        caching.CacheService
}

func NewAuditService(db repositories.TxStarter, statuses models.StatusCatalog, auditRepo repositories.AuditRepository, versionRepo repositories.AuditVersionRepository, formRepo repositories.AuditFormRepository, statusRepo repositories.StatusRepository, outletRepo repositories.OutletRepository, activityRepo repositories.ActivityLogRepository, cache caching.CacheService) AuditService {
	return &auditService{
		db:           db,
		statuses:     statuses,
		auditRepo:    auditRepo,
		versionRepo:  versionRepo,
		formRepo:     formRepo,
		statusRepo:   statusRepo,
		outletRepo:   outletRepo,
		activityRepo: activityRepo,
		cache:        cache,
	}
}

func (s *auditService) CreateAudit(ctx context.Context, input AuditCreate) (*models.Audit, error) {
	if input.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due_date is required", common.ErrValidation)
	}

	start := time.Now()
	if input.StartTime != nil {
		start = *input.StartTime
	}
	if input.DueDate.Before(start) {
		return nil, fmt.Errorf("%w: due_date must not precede start_time", common.ErrValidation)
	}

	audit := &models.Audit{
		ID:            uuid.New(),
		OutletID:      input.OutletID,
		RequirementID: input.RequirementID,
		UserID:        input.UserID,
		StatusID:      s.statuses.Draft,
		StartTime:     start,
		DueDate:       input.DueDate,
		Progress:      0,
	}
	if err := s.auditRepo.Create(ctx, audit); err != nil {
		return nil, fmt.Errorf("failed to create audit: %w", err)
	}

	s.logActivity(ctx, &input.UserID, models.ActivityCreate, audit.ID, nil)
	return audit, nil
}

func (s *auditService) GetAudit(ctx context.Context, id uuid.UUID) (*AuditWithForms, error) {
	// Detail lookups must also work for superseded versions, so no latest
	// filter here.
	detail, err := s.auditRepo.GetDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: audit %s", common.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load audit %s: %w", id, err)
	}

	forms, err := s.formRepo.ListByAudit(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load forms for audit %s: %w", id, err)
	}
	return &AuditWithForms{Audit: detail, Forms: forms}, nil
}

func (s *auditService) ListCurrentAudits(ctx context.Context, filters models.AuditFilters) ([]*models.AuditDetail, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	audits, err := s.auditRepo.ListCurrent(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	return audits, nil
}

func (s *auditService) CurrentAuditIDs(ctx context.Context) ([]uuid.UUID, error) {
	if s.cache != nil {
		cached, err := s.cache.GetLatestAuditIDs(ctx)
		if err != nil {
			log.Printf("WARN: latest audit id cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	latest, err := s.versionRepo.LatestVersionIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve latest chain versions: %w", err)
	}
	versioned, err := s.versionRepo.AllVersionedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list versioned audits: %w", err)
	}

	inChain := make(map[uuid.UUID]bool, len(versioned))
	for _, id := range versioned {
		inChain[id] = true
	}

	all, err := s.auditRepo.ListAllDetailed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(all))
	ids = append(ids, latest...)
	for _, a := range all {
		if !inChain[a.ID] {
			ids = append(ids, a.ID)
		}
	}

	if s.cache != nil {
		if err := s.cache.SetLatestAuditIDs(ctx, ids, latestIDsTTL); err != nil {
			log.Printf("WARN: latest audit id cache write failed: %v", err)
		}
	}
	return ids, nil
}

func (s *auditService) FilterMeta(ctx context.Context) (*AuditFilterMeta, error) {
	statuses, err := s.statusRepo.List(ctx, models.StatusCategoryAudit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit statuses: %w", err)
	}
	outlets, err := s.outletRepo.List(ctx, 100, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list outlets: %w", err)
	}
	current, err := s.CurrentAuditIDs(ctx)
	if err != nil {
		return nil, err
	}
	return &AuditFilterMeta{
		Statuses:     statuses,
		Outlets:      outlets,
		TotalCurrent: len(current),
	}, nil
}

// DeleteAudit removes a draft audit together with its form links and chain
// row. Deleting the latest version of a chain makes its predecessor the
// latest again.
func (s *auditService) DeleteAudit(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) error {
	audit, err := s.auditRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: audit %s", common.ErrNotFound, id)
		}
		return fmt.Errorf("failed to load audit %s: %w", id, err)
	}

	status, err := s.statusRepo.GetByID(ctx, audit.StatusID)
	if err != nil {
		return fmt.Errorf("failed to resolve status for audit %s: %w", id, err)
	}
	if status.Code != models.StatusDraft && status.Code != models.StatusRevisionRequested {
		return fmt.Errorf("%w: only draft or revision audits can be deleted", common.ErrValidation)
	}

	// A chain member may only go if it is the chain's maximum version,
	// otherwise the versions left behind would have a gap.
	chain, err := s.versionRepo.GetChainInfo(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to resolve chain position for audit %s: %w", id, err)
	}
	if chain.Versioned {
		maxVersion, err := s.versionRepo.MaxVersion(ctx, chain.FirstAuditID)
		if err != nil {
			return fmt.Errorf("failed to resolve latest version for chain %s: %w", chain.FirstAuditID, err)
		}
		if chain.AuditVersion != maxVersion {
			return fmt.Errorf("%w: only the latest version of a chain can be deleted", common.ErrValidation)
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txForms := repositories.NewAuditFormRepo(tx)
	txVersions := repositories.NewAuditVersionRepo(tx)
	txAudits := repositories.NewAuditRepo(tx)

	if err := txForms.UnlinkAll(ctx, id); err != nil {
		return fmt.Errorf("failed to unlink forms for audit %s: %w", id, err)
	}
	if err := txVersions.DeleteByAuditID(ctx, id); err != nil {
		return fmt.Errorf("failed to remove chain row for audit %s: %w", id, err)
	}
	if err := txAudits.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete audit %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit audit delete: %w", err)
	}

	// Removing a chain's latest member promotes its predecessor.
	if s.cache != nil {
		if err := s.cache.InvalidateLatestAuditIDs(ctx); err != nil {
			log.Printf("WARN: failed to invalidate latest audit id cache: %v", err)
		}
	}

	s.logActivity(ctx, actorID, models.ActivityDelete, id, nil)
	return nil
}

func (s *auditService) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	if progress < 0 || progress > 100 {
		return fmt.Errorf("%w: progress must be between 0 and 100", common.ErrValidation)
	}
	if err := s.auditRepo.UpdateProgress(ctx, id, progress); err != nil {
		return fmt.Errorf("failed to update progress for audit %s: %w", id, err)
	}
	return nil
}

func (s *auditService) HasRejectedForms(ctx context.Context, id uuid.UUID) (bool, error) {
	has, err := s.formRepo.HasRejectedForms(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to check rejected forms for audit %s: %w", id, err)
	}
	return has, nil
}

func (s *auditService) logActivity(ctx context.Context, actorID *uuid.UUID, action string, auditID uuid.UUID, details models.JSONB) {
	entry := &models.ActivityLog{
		UserID:     actorID,
		Action:     action,
		EntityType: models.EntityAudit,
		EntityID:   auditID,
		Details:    details,
	}
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		log.Printf("WARN: failed to record %s activity for audit %s: %v", action, auditID, err)
	}
}
