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
	"github.com/jackc/pgx/v5/pgconn"
)

// ReviewResult is the outcome of a status update. NewAuditID is set only
// when a rejection spawned a successor audit.
type ReviewResult struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	NewAuditID *uuid.UUID `json:"new_audit_id,omitempty"`
}

// ReviewService drives the audit review state machine
// (Draft -> Pending -> Approved | Rejected). A rejection atomically updates
// the audit, creates a successor in Revision Requested, registers both in
// the version chain and replicates the forms; any failure rolls the whole
// sequence back.
type ReviewService interface {
	UpdateAuditStatus(ctx context.Context, auditID, statusID uuid.UUID, reviewerID *uuid.UUID) (*ReviewResult, error)
}

type reviewService struct {
	db         repositories.TxStarter
	statuses   models.StatusCatalog
	statusRepo repositories.StatusRepository
	auditRepo  repositories.AuditRepository
	replicator FormReplicator
	cacheSvc   caching.CacheService
}

// NewReviewService creates a review service. cacheSvc may be nil; cache
// invalidation is then skipped.
func NewReviewService(db repositories.TxStarter, statuses models.StatusCatalog, statusRepo repositories.StatusRepository, auditRepo repositories.AuditRepository, replicator FormReplicator, cacheSvc caching.CacheService) ReviewService {
	return &reviewService{
		db:         db,
		statuses:   statuses,
		statusRepo: statusRepo,
		auditRepo:  auditRepo,
		replicator: replicator,
		cacheSvc:   cacheSvc,
	}
}

func (s *reviewService) UpdateAuditStatus(ctx context.Context, auditID, statusID uuid.UUID, reviewerID *uuid.UUID) (*ReviewResult, error) {
	status, err := s.statusRepo.GetByID(ctx, statusID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: status %s does not exist", common.ErrValidation, statusID)
		}
		return nil, fmt.Errorf("failed to resolve status %s: %w", statusID, err)
	}
	if status.Category != models.StatusCategoryAudit {
		return nil, fmt.Errorf("%w: status %q is not an audit status", common.ErrValidation, status.Code)
	}

	audit, err := s.auditRepo.GetByID(ctx, auditID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: audit %s", common.ErrNotFound, auditID)
		}
		return nil, fmt.Errorf("failed to load audit %s: %w", auditID, err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	txAudits := repositories.NewAuditRepo(tx)
	txActivity := repositories.NewActivityLogRepo(tx)

	if err := txAudits.UpdateStatus(ctx, auditID, statusID); err != nil {
		return nil, fmt.Errorf("failed to update audit status: %w", err)
	}

	result := &ReviewResult{Success: true, Message: "Audit status updated"}

	if statusID == s.statuses.Rejected {
		newAuditID, err := s.rejectAudit(ctx, tx, audit)
		if err != nil {
			return nil, err
		}
		result.Message = "Audit rejected; a new version was created"
		result.NewAuditID = &newAuditID
	}

	if reviewerID != nil {
		entry := &models.ActivityLog{
			UserID:     reviewerID,
			Action:     models.ActivityReview,
			EntityType: models.EntityAudit,
			EntityID:   auditID,
			Details:    models.JSONB{"status_id": statusID.String(), "status_code": status.Code},
		}
		if err := txActivity.Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to record review activity: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	s.invalidateCaches(auditID)

	return result, nil
}

// rejectAudit performs the rejection side effects inside tx: successor
// audit, chain registration, form replication.
func (s *reviewService) rejectAudit(ctx context.Context, tx pgx.Tx, audit *models.Audit) (uuid.UUID, error) {
	txAudits := repositories.NewAuditRepo(tx)
	txVersions := repositories.NewAuditVersionRepo(tx)

	successor := &models.Audit{
		ID:            uuid.New(),
		OutletID:      audit.OutletID,
		RequirementID: audit.RequirementID,
		UserID:        audit.UserID,
		StatusID:      s.statuses.RevisionRequested,
		StartTime:     time.Now(),
		DueDate:       audit.DueDate,
		Progress:      0,
	}
	if err := txAudits.Create(ctx, successor); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create successor audit: %w", err)
	}

	chain, err := txVersions.GetChainInfo(ctx, audit.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read version chain for audit %s: %w", audit.ID, err)
	}

	if !chain.Versioned {
		if err := txVersions.RecordFirstVersion(ctx, audit.ID); err != nil {
			if isUniqueViolation(err) {
				// A concurrent rejection won the race to open the chain.
				return uuid.Nil, fmt.Errorf("%w: audit %s is already being rejected", common.ErrConflict, audit.ID)
			}
			return uuid.Nil, fmt.Errorf("failed to record first chain version: %w", err)
		}
	}

	if _, err := txVersions.RecordNextVersion(ctx, chain.FirstAuditID, successor.ID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to record next chain version: %w", err)
	}

	if _, err := s.replicator.Replicate(ctx, tx, audit.ID, successor.ID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to replicate forms to successor audit: %w", err)
	}

	return successor.ID, nil
}

func (s *reviewService) invalidateCaches(auditID uuid.UUID) {
	if s.cacheSvc == nil {
		return
	}
	ctx := context.Background()
	if err := s.cacheSvc.InvalidateDashboard(ctx); err != nil {
		log.Printf("Failed to invalidate dashboard cache after review of %s: %v", auditID, err)
	}
	if err := s.cacheSvc.InvalidateLatestAuditIDs(ctx); err != nil {
		log.Printf("Failed to invalidate latest-audit cache after review of %s: %v", auditID, err)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
