package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleOutletUser = "outlet_user"
)

// ValidRole reports whether r is one of the three platform roles.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleManager || r == RoleOutletUser
}

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         string     `json:"role" db:"role"`
	OutletID     *uuid.UUID `json:"outlet_id" db:"outlet_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
