package models

import (
	"github.com/google/uuid"
)

// AuditVersion is one row of the version chain: the audit's position within
// the chain rooted at FirstAuditID. An audit with no row here is implicitly
// version 1 of its own singleton chain; GetChainInfo returns that case with
// Versioned=false.
type AuditVersion struct {
	AuditID      uuid.UUID `json:"audit_id" db:"audit_id"`
	FirstAuditID uuid.UUID `json:"first_audit_id" db:"first_audit_id"`
	AuditVersion int       `json:"audit_version" db:"audit_version"`
	Versioned    bool      `json:"is_versioned" db:"-"`
}
