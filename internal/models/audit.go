package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit is one compliance check for one outlet against one compliance
// requirement at one point in time. A rejected audit is never edited in
// place; the review workflow spawns a successor and records both in the
// version chain (see AuditVersion).
type Audit struct {
	ID            uuid.UUID `json:"id" db:"id"`
	OutletID      uuid.UUID `json:"outlet_id" db:"outlet_id"`
	RequirementID uuid.UUID `json:"requirement_id" db:"requirement_id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	StatusID      uuid.UUID `json:"status_id" db:"status_id"`
	StartTime     time.Time `json:"start_time" db:"start_time"`
	DueDate       time.Time `json:"due_date" db:"due_date"`
	Progress      int       `json:"progress" db:"progress"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// AuditDetail is an audit with its display relations resolved.
type AuditDetail struct {
	Audit
	OutletName       string `json:"outlet_name"`
	UserName         string `json:"user_name"`
	StatusCode       string `json:"status_code"`
	StatusName       string `json:"status_name"`
	RequirementTitle string `json:"requirement_title"`
}

// AuditFilters narrows audit listings.
type AuditFilters struct {
	StatusID *uuid.UUID
	OutletID *uuid.UUID
	Limit    int
	Offset   int
}
