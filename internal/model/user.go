package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCitizen    Role = "citizen"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCitizen, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// CanTriage is true for roles allowed to change report status and run
// aggregate summaries.
func (r Role) CanTriage() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     *string   `json:"image,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Actor is the authenticated caller of a workflow operation. It is passed
// explicitly rather than read from ambient session state.
type Actor struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   Role      `json:"role"`
}

func (u User) Actor() Actor {
	return Actor{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

type UpdateRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=citizen admin superadmin"`
}
