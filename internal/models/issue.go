package models

import (
	"time"

	"github.com/google/uuid"
)

// Issue is a deficiency raised against an audit form during review.
type Issue struct {
	ID          uuid.UUID `json:"id" db:"id"`
	AuditFormID uuid.UUID `json:"audit_form_id" db:"audit_form_id"`
	Description string    `json:"description" db:"description"`
	Severity    string    `json:"severity" db:"severity"`
	DueDate     time.Time `json:"due_date" db:"due_date"`
	StatusID    uuid.UUID `json:"status_id" db:"status_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Issue severities
const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

// ValidSeverity reports whether s is one of the four issue severities.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// IssueDetail is an issue with its status code and corrective actions.
type IssueDetail struct {
	Issue
	StatusCode        string              `json:"status_code"`
	CorrectiveActions []*CorrectiveAction `json:"corrective_actions"`
}

// CorrectiveAction is a remediation record attached to an issue.
type CorrectiveAction struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	IssueID          uuid.UUID  `json:"issue_id" db:"issue_id"`
	Description      string     `json:"description" db:"description"`
	CompletionDate   *time.Time `json:"completion_date" db:"completion_date"`
	VerificationDate *time.Time `json:"verification_date" db:"verification_date"`
	StatusID         uuid.UUID  `json:"status_id" db:"status_id"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}
