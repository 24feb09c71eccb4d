package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog records who did what to which entity. The history view reads
// the latest "review" row per audit back out to name the reviewer.
type ActivityLog struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     *uuid.UUID `json:"user_id" db:"user_id"`
	Action     string     `json:"action" db:"action"`
	EntityType string     `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID  `json:"entity_id" db:"entity_id"`
	Details    JSONB      `json:"details,omitempty" db:"details"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Activity actions
const (
	ActivityCreate = "create"
	ActivityUpdate = "update"
	ActivityDelete = "delete"
	ActivityReview = "review"
)

// Activity entity types
const (
	EntityAudit     = "audit"
	EntityAuditForm = "audit_form"
	EntityIssue     = "issue"
)
