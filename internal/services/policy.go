package services

import (
	"fmt"

	"github.com/Dias221467/CampusHub/internal/models"
)

// sendRule describes which delivery modes a sender role may use toward one
// target role. A pair absent from the matrix is denied outright.
type sendRule struct {
	broadcast  bool
	individual bool
	reason     string
}

// sendMatrix is the single source of truth for who may message whom.
var sendMatrix = map[models.Role]map[models.Role]sendRule{
	models.RoleAdmin: {
		models.RoleStudent: {broadcast: true, reason: "Admins can only broadcast to all students"},
		models.RoleFaculty: {broadcast: true, individual: true},
	},
	models.RoleFaculty: {
		models.RoleStudent: {broadcast: true, individual: true},
		models.RoleAdmin:   {broadcast: true, reason: "Faculty can only broadcast to all admins"},
		models.RoleFaculty: {reason: "Faculty cannot message other faculty"},
	},
	models.RoleStudent: {
		models.RoleFaculty: {individual: true, reason: "Students can only message specific faculty"},
		models.RoleAdmin:   {reason: "Students cannot message admins"},
		models.RoleStudent: {reason: "Students cannot message other students"},
	},
}

// CanSend decides whether senderRole may address targetRole in the given mode.
// The returned error wraps ErrForbidden and names the violated rule.
func CanSend(senderRole, targetRole models.Role, broadcast bool) error {
	rule, ok := sendMatrix[senderRole][targetRole]
	if !ok {
		return fmt.Errorf("%w: %s may not message %s", ErrForbidden, senderRole, targetRole)
	}

	allowed := rule.individual
	if broadcast {
		allowed = rule.broadcast
	}
	if allowed {
		return nil
	}
	if rule.reason != "" {
		return fmt.Errorf("%w: %s", ErrForbidden, rule.reason)
	}
	return fmt.Errorf("%w: %s may not message %s", ErrForbidden, senderRole, targetRole)
}
