package models

import (
	"time"

	"github.com/google/uuid"
)

// ComplianceRequirement is an admin-defined obligation that audits are
// scheduled against.
type ComplianceRequirement struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	Frequency   string    `json:"frequency" db:"frequency"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
