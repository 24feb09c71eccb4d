package jobs

import (
	"context"
	"log"
	"time"

	"compliflow/internal/models"
	"compliflow/internal/services"

	"github.com/google/uuid"
)

// IssueAlertService flags unresolved issues past their due date so the
// scheduler can surface them before audits go stale.
type IssueAlertService struct {
	issueService services.IssueService
}

type IssueAlert struct {
	IssueID     uuid.UUID
	AuditFormID uuid.UUID
	Description string
	Severity    string
	DueDate     time.Time
	DaysOverdue int
}

func NewIssueAlertService(issueService services.IssueService) *IssueAlertService {
	return &IssueAlertService{issueService: issueService}
}

func (a *IssueAlertService) CheckOverdueIssues(ctx context.Context, asOf time.Time) ([]IssueAlert, error) {
	issues, err := a.issueService.Overdue(ctx, asOf)
	if err != nil {
		log.Printf("Failed to list overdue issues: %v", err)
		return nil, err
	}

	var alerts []IssueAlert
	for _, issue := range issues {
		alerts = append(alerts, IssueAlert{
			IssueID:     issue.ID,
			AuditFormID: issue.AuditFormID,
			Description: issue.Description,
			Severity:    issue.Severity,
			DueDate:     issue.DueDate,
			DaysOverdue: int(asOf.Sub(issue.DueDate).Hours() / 24),
		})
	}
	return alerts, nil
}

func (a *IssueAlertService) LogOverdueAlerts(alerts []IssueAlert) {
	if len(alerts) == 0 {
		log.Println("No overdue issue alerts to log")
		return
	}

	log.Printf("Overdue issue alerts: %d", len(alerts))
	for _, alert := range alerts {
		log.Printf("- [%s] issue %s on form %s overdue by %d days: %s",
			alert.Severity,
			alert.IssueID.String(),
			alert.AuditFormID.String(),
			alert.DaysOverdue,
			alert.Description)
	}
}

// ScheduledOverdueCheck runs from the scheduler. Critical alerts are
// counted separately so operators can page on them.
func (a *IssueAlertService) ScheduledOverdueCheck(ctx context.Context) error {
	log.Println("Starting scheduled overdue issue check")

	alerts, err := a.CheckOverdueIssues(ctx, time.Now())
	if err != nil {
		return err
	}
	a.LogOverdueAlerts(alerts)

	critical := 0
	for _, alert := range alerts {
		if alert.Severity == models.SeverityCritical {
			critical++
		}
	}
	if critical > 0 {
		log.Printf("ALERT: %d critical issues are overdue", critical)
	}
	return nil
}
