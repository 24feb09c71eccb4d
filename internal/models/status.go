package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is one row of the shared status catalog. Audits, forms and issues
// all reference it; the category column keeps the three vocabularies apart.
type Status struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	Category  string    `json:"category" db:"category"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Status categories
const (
	StatusCategoryAudit = "audit"
	StatusCategoryForm  = "form"
	StatusCategoryIssue = "issue"
)

// Audit status codes
const (
	StatusDraft             = "draft"
	StatusPending           = "pending"
	StatusApproved          = "approved"
	StatusRejected          = "rejected"
	StatusRevisionRequested = "revision_requested"
)

// Form status codes
const (
	StatusFormPending   = "form_pending"
	StatusFormSubmitted = "form_submitted"
	StatusFormApproved  = "form_approved"
	StatusFormRejected  = "form_rejected"
)

// Issue status codes
const (
	StatusIssueOpen       = "open"
	StatusIssueInProgress = "in_progress"
	StatusIssueResolved   = "resolved"
	StatusIssueClosed     = "closed"
)

// StatusCatalog holds the resolved ids for every status code the workflow
// depends on. It is resolved once at startup and injected, so no service
// ever compares against a hard-coded status id.
type StatusCatalog struct {
	Draft             uuid.UUID
	Pending           uuid.UUID
	Approved          uuid.UUID
	Rejected          uuid.UUID
	RevisionRequested uuid.UUID

	FormPending   uuid.UUID
	FormSubmitted uuid.UUID
	FormApproved  uuid.UUID
	FormRejected  uuid.UUID

	IssueOpen       uuid.UUID
	IssueInProgress uuid.UUID
	IssueResolved   uuid.UUID
	IssueClosed     uuid.UUID
}
