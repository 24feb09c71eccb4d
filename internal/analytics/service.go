package analytics

import (
	"context"
	"log"
	"time"

	"compliflow/internal/caching"
	"compliflow/internal/models"
	"compliflow/internal/repositories"
)

// DashboardData is the aggregate compliance picture shown on the admin
// dashboard. Only latest-version audits count; superseded versions would
// double-count their chains.
type DashboardData struct {
	TotalAudits       int            `json:"total_audits"`
	AuditsByStatus    map[string]int `json:"audits_by_status"`
	RejectionChains   int            `json:"rejection_chains"`
	AverageProgress   float64        `json:"average_progress"`
	OpenIssues        int            `json:"open_issues"`
	OverdueIssues     int            `json:"overdue_issues"`
	IssuesBySeverity  map[string]int `json:"issues_by_severity"`
	AuditsDueThisWeek int            `json:"audits_due_this_week"`
	LastUpdated       time.Time      `json:"last_updated"`
}

// Service calculates and caches dashboard analytics.
type Service struct {
	auditRepo    repositories.AuditRepository
	versionRepo  repositories.AuditVersionRepository
	issueRepo    repositories.IssueRepository
	cacheService caching.CacheService
}

const dashboardTTL = 5 * time.Minute

func NewService(auditRepo repositories.AuditRepository, versionRepo repositories.AuditVersionRepository, issueRepo repositories.IssueRepository, cacheService caching.CacheService) *Service {
	return &Service{
		auditRepo:    auditRepo,
		versionRepo:  versionRepo,
		issueRepo:    issueRepo,
		cacheService: cacheService,
	}
}

// Dashboard returns the cached dashboard if fresh, recomputing otherwise.
func (a *Service) Dashboard(ctx context.Context) (*DashboardData, error) {
	if a.cacheService != nil {
		var cached DashboardData
		if hit, err := a.cacheService.GetDashboard(ctx, &cached); err != nil {
			log.Printf("WARN: dashboard cache read failed: %v", err)
		} else if hit {
			return &cached, nil
		}
	}

	data, err := a.calculate(ctx)
	if err != nil {
		return nil, err
	}

	if a.cacheService != nil {
		if err := a.cacheService.SetDashboard(ctx, data, dashboardTTL); err != nil {
			log.Printf("WARN: dashboard cache write failed: %v", err)
		}
	}
	return data, nil
}

func (a *Service) calculate(ctx context.Context) (*DashboardData, error) {
	data := &DashboardData{
		AuditsByStatus:   make(map[string]int),
		IssuesBySeverity: make(map[string]int),
		LastUpdated:      time.Now(),
	}

	latest, err := a.versionRepo.LatestVersionIDs(ctx)
	if err != nil {
		return nil, err
	}
	versioned, err := a.versionRepo.AllVersionedIDs(ctx)
	if err != nil {
		return nil, err
	}
	data.RejectionChains = len(latest)

	isLatest := make(map[string]bool, len(latest))
	for _, id := range latest {
		isLatest[id.String()] = true
	}
	inChain := make(map[string]bool, len(versioned))
	for _, id := range versioned {
		inChain[id.String()] = true
	}

	audits, err := a.auditRepo.ListAllDetailed(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	weekAhead := now.AddDate(0, 0, 7)
	var progressSum int

	for _, audit := range audits {
		key := audit.ID.String()
		if inChain[key] && !isLatest[key] {
			continue
		}

		data.TotalAudits++
		data.AuditsByStatus[audit.StatusCode]++
		progressSum += audit.Progress

		if audit.DueDate.After(now) && audit.DueDate.Before(weekAhead) {
			data.AuditsDueThisWeek++
		}
	}

	if data.TotalAudits > 0 {
		data.AverageProgress = float64(progressSum) / float64(data.TotalAudits)
	}

	overdue, err := a.issueRepo.ListOverdue(ctx, now)
	if err != nil {
		return nil, err
	}
	data.OverdueIssues = len(overdue)
	for _, issue := range overdue {
		data.IssuesBySeverity[issue.Severity]++
		if issue.StatusCode == models.StatusIssueOpen || issue.StatusCode == models.StatusIssueInProgress {
			data.OpenIssues++
		}
	}

	return data, nil
}

// Refresh recomputes the dashboard and rewrites the cache. The scheduler
// calls this so interactive requests mostly hit warm data.
func (a *Service) Refresh(ctx context.Context) error {
	data, err := a.calculate(ctx)
	if err != nil {
		return err
	}
	if a.cacheService != nil {
		if err := a.cacheService.SetDashboard(ctx, data, dashboardTTL); err != nil {
			return err
		}
	}
	return nil
}
