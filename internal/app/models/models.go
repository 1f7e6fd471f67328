package models

// RoleType defines the user role type
type RoleType string

const (
	RoleUser        RoleType = "user"
	RoleSuperuser   RoleType = "superuser"
	RoleSupremeuser RoleType = "supremeuser"
)

// PYQType marks whether a question appeared in a prior exam sitting
type PYQType string

const (
	PYQTypeExam PYQType = "exam-PYQ"
	PYQTypeNone PYQType = "not-PYQ"
)

// Shift is the session slot within an exam date
type Shift string

const (
	Shift1    Shift = "Shift 1"
	Shift2    Shift = "Shift 2"
	ShiftNone Shift = "N/A"
)

// ApprovalStatus is the workflow state of a question
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// ValidApprovalStatus reports whether s is one of the three workflow states.
func ValidApprovalStatus(s ApprovalStatus) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}
