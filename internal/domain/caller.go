package domain

import "time"

// Role identifies who is invoking an operation.
type Role string

// List of caller roles
const (
	RoleManager Role = "manager"
	RolePartner Role = "partner"
)

// Caller is the resolved identity of a request, produced by the identity
// collaborator. The coordinator trusts it and does not re-derive identity.
type Caller struct {
	Role      Role
	PartnerID string
}

// IsManager reports whether the caller holds the manager role.
func (c Caller) IsManager() bool {
	return c.Role == RoleManager
}

// AssignResult - struct representing the result of a committed assignment.
type AssignResult struct {
	OrderID     string
	OrderNumber string
	PartnerID   string
	Mode        AssignmentMode
	AssignedAt  time.Time
}
