package auth

import "github.com/qbankhq/qbank/internal/app/models"

// Principal is the authenticated caller attached to each request by the
// auth middleware. SessionID is the jti of the presented token.
type Principal struct {
	UserID    int64
	Username  string
	Role      models.RoleType
	SessionID string
}

// IsModerator reports whether the principal may act on others' questions
func (p Principal) IsModerator() bool {
	return CanModerate(p.Role)
}

// IsApprover reports whether the principal may run the approval workflow
func (p Principal) IsApprover() bool {
	return CanApprove(p.Role)
}
