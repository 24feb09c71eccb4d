package models

import (
	"time"

	"github.com/google/uuid"
)

// JSONB represents a PostgreSQL JSONB column.
type JSONB map[string]interface{}

// AuditForm is one filled-in instance of a form template. It is not linked
// to an audit by foreign key; the audit_audit_form join table carries the
// association so a single form can be shared by several audit versions.
type AuditForm struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TemplateID uuid.UUID  `json:"template_id" db:"template_id"`
	Name       string     `json:"name" db:"name"`
	Value      JSONB      `json:"value" db:"value"`
	StatusID   *uuid.UUID `json:"status_id" db:"status_id"`
	AIAnalysis JSONB      `json:"ai_analysis,omitempty" db:"ai_analysis"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// AuditFormDetail is a form with its status code and template structure
// joined in, as the history view presents it.
type AuditFormDetail struct {
	AuditForm
	StatusCode        *string `json:"status_code"`
	TemplateStructure JSONB   `json:"template_structure,omitempty"`
}

// AuditFormLink is one row of the audit_audit_form join table.
type AuditFormLink struct {
	AuditID     uuid.UUID `json:"audit_id" db:"audit_id"`
	AuditFormID uuid.UUID `json:"audit_form_id" db:"audit_form_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
