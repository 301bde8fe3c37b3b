package types

import "fmt"

// Role is the authorization role carried by a user
type Role string

const (
	RoleStaff      Role = "staff"
	RoleRiskOwner  Role = "risk_owner"
	RoleCompliance Role = "compliance"
	RoleAdmin      Role = "admin"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleStaff,
		RoleRiskOwner,
		RoleCompliance,
		RoleAdmin:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return r, nil
}
