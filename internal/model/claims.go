package model

import (
	"github.com/google/uuid"
)

type Role string

const (
	RoleOwner       Role = "OWNER"
	RoleTenantAdmin Role = "TENANT_ADMIN"
	RoleTeam        Role = "TEAM"
	RolePatient     Role = "PATIENT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleTenantAdmin, RoleTeam, RolePatient:
		return true
	}
	return false
}

// Claims is the authenticated identity attached to every call into the
// core. It is produced by the authentication layer and never persisted;
// the transaction scope binds it into transaction-local session state.
type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Role     Role      `json:"role"`
}

// Zero reports whether the claims are missing any of the identity triple.
// Mutating operations reject zero claims before opening a transaction.
func (c Claims) Zero() bool {
	return c.UserID == uuid.Nil || c.TenantID == uuid.Nil || !c.Role.Valid()
}
