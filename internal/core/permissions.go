package core

import "strings"

// Role names recognized by the deletion gate. Anything else denies.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// CanDelete is the ownership/role gate consulted before a file is
// soft-deleted. Administrators may delete any file; operators only files
// they uploaded themselves; everyone else is denied. Identity and roles
// are passed explicitly rather than read from ambient request state.
func CanDelete(uploadedBy, requesterID string, requesterRoles []string) bool {
	for _, role := range requesterRoles {
		switch strings.ToLower(strings.TrimSpace(role)) {
		case RoleAdmin:
			return true
		case RoleOperator:
			if requesterID != "" && requesterID == uploadedBy {
				return true
			}
		}
	}
	return false
}
