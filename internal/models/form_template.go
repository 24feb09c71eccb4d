package models

import (
	"time"

	"github.com/google/uuid"
)

// FormTemplate is an admin-defined dynamic form definition. Structure holds
// the field list (id, label, type, options) that the mobile client renders;
// submitted answers in AuditForm.Value are keyed by those field ids.
type FormTemplate struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Structure     JSONB      `json:"structure" db:"structure"`
	RequirementID *uuid.UUID `json:"requirement_id" db:"requirement_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
