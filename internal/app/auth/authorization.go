// Package auth holds the role hierarchy policy used across controllers
// and middleware. All permission checks go through RoleAtLeast so the
// hierarchy lives in exactly one place.
package auth

import "github.com/qbankhq/qbank/internal/app/models"

// roleRank orders roles from least to most privileged
var roleRank = map[models.RoleType]int{
	models.RoleUser:        1,
	models.RoleSuperuser:   2,
	models.RoleSupremeuser: 3,
}

// RoleAtLeast reports whether role meets or exceeds the required role.
// Unknown roles never satisfy any requirement.
func RoleAtLeast(role, required models.RoleType) bool {
	have, ok := roleRank[role]
	if !ok {
		return false
	}
	want, ok := roleRank[required]
	if !ok {
		return false
	}
	return have >= want
}

// CanModerate reports whether the role may act on other users' questions
func CanModerate(role models.RoleType) bool {
	return RoleAtLeast(role, models.RoleSuperuser)
}

// CanApprove reports whether the role may run the approval workflow
func CanApprove(role models.RoleType) bool {
	return RoleAtLeast(role, models.RoleSupremeuser)
}
