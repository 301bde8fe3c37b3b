package model

import (
	"slices"

	"github.com/secmon-lab/riskreg/pkg/domain/types"
)

// User is the authenticated caller as supplied by the session/auth layer
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Department string     `json:"department"`
	Role       types.Role `json:"role"`
}

// HasRole reports whether the user holds one of the roles. Admins hold every role.
func (u *User) HasRole(roles ...types.Role) bool {
	if u == nil {
		return false
	}
	if u.Role == types.RoleAdmin {
		return true
	}
	return slices.Contains(roles, u.Role)
}
