package models

import (
	"time"

	"github.com/google/uuid"
)

// Outlet is one physical location audited for compliance.
type Outlet struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Location     *string   `json:"location" db:"location"`
	ContactEmail *string   `json:"contact_email" db:"contact_email"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
