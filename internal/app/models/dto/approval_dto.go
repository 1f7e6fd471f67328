package dto

// RejectQuestionRequest carries the optional rejection reason
type RejectQuestionRequest struct {
	Reason string `json:"reason,omitempty"`
}

// BulkApproveRequest lists the question ids to approve
type BulkApproveRequest struct {
	QuestionIDs []int64 `json:"questionIds" binding:"required"`
}

// BulkApproveResponse reports how many approvals actually happened
type BulkApproveResponse struct {
	Message       string `json:"message"`
	ApprovedCount int    `json:"approvedCount"`
}

// ApprovalStatsResponse counts questions per workflow state
type ApprovalStatsResponse struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// MaintenanceResponse reports the effect of an administrative operation
type MaintenanceResponse struct {
	Message       string `json:"message"`
	AffectedCount int64  `json:"affectedCount"`
	RemovedCopies int64  `json:"removedCopies,omitempty"`
}
