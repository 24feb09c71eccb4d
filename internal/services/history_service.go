package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"compliflow/internal/models"
	"compliflow/internal/repositories"

	"github.com/google/uuid"
)

// ChainVersion is one audit inside a reconstructed version chain.
type ChainVersion struct {
	AuditID         uuid.UUID                 `json:"audit_id"`
	AuditVersion    int                       `json:"audit_version"`
	SubmittedBy     string                    `json:"submitted_by"`
	SubmittedAt     time.Time                 `json:"submitted_at"`
	StatusCode      string                    `json:"status_code"`
	StatusName      string                    `json:"status_name"`
	Reviewer        *string                   `json:"reviewer,omitempty"`
	RejectionReason *string                   `json:"rejection_reason,omitempty"`
	Issues          []*models.IssueDetail     `json:"issues"`
	Forms           []*models.AuditFormDetail `json:"forms"`
}

// VersionChain is the ordered history of one audit across its rejections.
// Audits never rejected appear as synthetic single-version chains so the
// admin listing is uniform.
type VersionChain struct {
	FirstAuditID      uuid.UUID       `json:"first_audit_id"`
	OutletName        string          `json:"outlet_name"`
	RequirementTitle  string          `json:"requirement_title"`
	NumVersions       int             `json:"num_versions"`
	Versions          []*ChainVersion `json:"versions"`
	InitiatedBy       string          `json:"initiated_by"`
	InitiatedAt       time.Time       `json:"initiated_at"`
	CurrentStatusCode string          `json:"current_status_code"`
	CurrentStatusName string          `json:"current_status_name"`
	LastActionDate    time.Time       `json:"last_action_date"`
}

// HistoryPage is one page of reconstructed chains.
type HistoryPage struct {
	Chains      []*VersionChain `json:"chains"`
	TotalChains int             `json:"total_chains"`
	Page        int             `json:"page"`
	PerPage     int             `json:"per_page"`
}

// HistoryService reconstructs per-chain version histories for reporting.
// It is read-only and best-effort: unresolvable chain rows are dropped and
// logged, never surfaced as errors.
type HistoryService interface {
	BuildHistory(ctx context.Context, page, perPage int) (*HistoryPage, error)
}

type historyService struct {
	auditRepo    repositories.AuditRepository
	versionRepo  repositories.AuditVersionRepository
	formRepo     repositories.AuditFormRepository
	issueRepo    repositories.IssueRepository
	activityRepo repositories.ActivityLogRepository
}

func NewHistoryService(auditRepo repositories.AuditRepository, versionRepo repositories.AuditVersionRepository, formRepo repositories.AuditFormRepository, issueRepo repositories.IssueRepository, activityRepo repositories.ActivityLogRepository) HistoryService {
	return &historyService{
		auditRepo:    auditRepo,
		versionRepo:  versionRepo,
		formRepo:     formRepo,
		issueRepo:    issueRepo,
		activityRepo: activityRepo,
	}
}

func (s *historyService) BuildHistory(ctx context.Context, page, perPage int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}

	audits, err := s.auditRepo.ListAllDetailed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits for history: %w", err)
	}
	auditsByID := make(map[uuid.UUID]*models.AuditDetail, len(audits))
	for _, a := range audits {
		auditsByID[a.ID] = a
	}

	versions, err := s.versionRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list version chains: %w", err)
	}

	reviewers, err := s.activityRepo.LatestReviewers(ctx, models.EntityAudit)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reviewers: %w", err)
	}

	// ListAll orders by (first_audit_id, audit_version), so members arrive
	// grouped and already sorted.
	grouped := make(map[uuid.UUID][]*models.AuditVersion)
	var chainOrder []uuid.UUID
	for _, v := range versions {
		if _, seen := grouped[v.FirstAuditID]; !seen {
			chainOrder = append(chainOrder, v.FirstAuditID)
		}
		grouped[v.FirstAuditID] = append(grouped[v.FirstAuditID], v)
	}

	inChain := make(map[uuid.UUID]bool, len(versions))
	var chains []*VersionChain

	for _, firstID := range chainOrder {
		members := grouped[firstID]
		if _, ok := auditsByID[firstID]; !ok {
			// Orphaned chain: the originating audit no longer resolves.
			log.Printf("WARN: dropping orphaned version chain rooted at %s (%d rows)", firstID, len(members))
			for _, m := range members {
				inChain[m.AuditID] = true
			}
			continue
		}

		chain := &VersionChain{FirstAuditID: firstID}
		for _, member := range members {
			inChain[member.AuditID] = true
			audit, ok := auditsByID[member.AuditID]
			if !ok {
				log.Printf("WARN: version chain %s references missing audit %s; skipping member", firstID, member.AuditID)
				continue
			}
			cv, err := s.buildVersion(ctx, audit, member.AuditVersion, reviewers)
			if err != nil {
				return nil, err
			}
			chain.Versions = append(chain.Versions, cv)
		}
		if len(chain.Versions) == 0 {
			continue
		}
		s.finishChain(chain, auditsByID[firstID])
		chains = append(chains, chain)
	}

	// Every audit that owns no chain row is its own single-version chain.
	for _, audit := range audits {
		if inChain[audit.ID] {
			continue
		}
		cv, err := s.buildVersion(ctx, audit, 1, reviewers)
		if err != nil {
			return nil, err
		}
		chain := &VersionChain{
			FirstAuditID: audit.ID,
			Versions:     []*ChainVersion{cv},
		}
		s.finishChain(chain, audit)
		chains = append(chains, chain)
	}

	sort.SliceStable(chains, func(i, j int) bool {
		return chains[i].LastActionDate.After(chains[j].LastActionDate)
	})

	total := len(chains)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return &HistoryPage{
		Chains:      chains[start:end],
		TotalChains: total,
		Page:        page,
		PerPage:     perPage,
	}, nil
}

func (s *historyService) buildVersion(ctx context.Context, audit *models.AuditDetail, versionNum int, reviewers map[uuid.UUID]string) (*ChainVersion, error) {
	issues, err := s.issueRepo.ListByAudit(ctx, audit.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues for audit %s: %w", audit.ID, err)
	}
	forms, err := s.formRepo.ListByAudit(ctx, audit.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms for audit %s: %w", audit.ID, err)
	}

	cv := &ChainVersion{
		AuditID:      audit.ID,
		AuditVersion: versionNum,
		SubmittedBy:  audit.UserName,
		SubmittedAt:  audit.CreatedAt,
		StatusCode:   audit.StatusCode,
		StatusName:   audit.StatusName,
		Issues:       issues,
		Forms:        forms,
	}

	if name, ok := reviewers[audit.ID]; ok {
		cv.Reviewer = &name
	}

	if audit.StatusCode == models.StatusRejected && len(issues) > 0 {
		reason := issues[0].Description
		cv.RejectionReason = &reason
	}

	return cv, nil
}

func (s *historyService) finishChain(chain *VersionChain, first *models.AuditDetail) {
	chain.NumVersions = len(chain.Versions)
	chain.OutletName = first.OutletName
	chain.RequirementTitle = first.RequirementTitle

	firstVersion := chain.Versions[0]
	lastVersion := chain.Versions[len(chain.Versions)-1]

	chain.InitiatedBy = firstVersion.SubmittedBy
	chain.InitiatedAt = firstVersion.SubmittedAt
	chain.CurrentStatusCode = lastVersion.StatusCode
	chain.CurrentStatusName = lastVersion.StatusName
	chain.LastActionDate = lastVersion.SubmittedAt
}
