package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/app/models/dto"
	"github.com/qbankhq/qbank/internal/app/services"
	"github.com/qbankhq/qbank/internal/middleware"
)

// ApprovalController handles the review workflow
type ApprovalController struct {
	approvalService services.ApprovalService
}

// NewApprovalController creates a new ApprovalController
func NewApprovalController(approvalService services.ApprovalService) *ApprovalController {
	return &ApprovalController{
		approvalService: approvalService,
	}
}

// Approve approves a single pending question
// @Summary Approve a question
// @Description Copies the question into the approved store and marks the original approved, in one transaction. Approving an already approved question is a conflict.
// @Tags approvals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Question approved"
// @Failure 400 {object} dto.ErrorResponse "Already approved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not a supremeuser"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Failure 500 {object} dto.ErrorResponse "Transaction failure"
// @Router /approvals/{id}/approve [post]
func (c *ApprovalController) Approve(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	id, err := parseIDParam(ctx)
	if err != nil {
		return
	}

	if err := c.approvalService.Approve(ctx, principal, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Question approved"},
		Timestamp: time.Now(),
	})
}

// Reject rejects a question with an optional reason
// @Summary Reject a question
// @Description Marks the question rejected. When no reason is given a default one is recorded.
// @Tags approvals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID" Format(int64) minimum(1)
// @Param request body dto.RejectQuestionRequest false "Rejection reason"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Question rejected"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not a supremeuser"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /approvals/{id}/reject [post]
func (c *ApprovalController) Reject(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	id, err := parseIDParam(ctx)
	if err != nil {
		return
	}

	var req dto.RejectQuestionRequest
	// the body is optional; an empty reason gets the default
	_ = ctx.ShouldBindJSON(&req)

	if err := c.approvalService.Reject(ctx, principal, id, req.Reason); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Question rejected"},
		Timestamp: time.Now(),
	})
}

// BulkApprove approves many questions at once
// @Summary Bulk approve questions
// @Description Approves each id independently. Missing or already approved ids are skipped, never failing the batch.
// @Tags approvals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BulkApproveRequest true "Question ids"
// @Success 200 {object} dto.APIResponse{data=dto.BulkApproveResponse} "Approved count"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not a supremeuser"
// @Failure 500 {object} dto.ErrorResponse "Transaction failure"
// @Router /approvals/bulk-approve [post]
func (c *ApprovalController) BulkApprove(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	var req dto.BulkApproveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid bulk approve data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	count, err := c.approvalService.BulkApprove(ctx, principal, req.QuestionIDs)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.BulkApproveResponse{
			Message:       "Bulk approve finished",
			ApprovedCount: count,
		},
		Timestamp: time.Now(),
	})
}

// ListByStatus lists questions in a workflow state
// @Summary List questions by approval status
// @Description Returns every question in the given state, newest first
// @Tags approvals
// @Produce json
// @Security BearerAuth
// @Param status query string true "pending, approved or rejected" default(pending)
// @Success 200 {object} dto.APIResponse{data=[]models.Question} "Questions"
// @Failure 400 {object} dto.ErrorResponse "Unknown status"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not a supremeuser"
// @Router /approvals [get]
func (c *ApprovalController) ListByStatus(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	status := models.ApprovalStatus(ctx.DefaultQuery("status", string(models.StatusPending)))

	questions, err := c.approvalService.ListByStatus(ctx, principal, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      questions,
		Timestamp: time.Now(),
	})
}

// ListApproved lists the approved copies
// @Summary List approved questions
// @Description Returns the approved store, newest approvals first, with the usual filters
// @Tags approvals
// @Produce json
// @Security BearerAuth
// @Param subject query string false "Filter by subject"
// @Param pyqType query string false "Filter by PYQ type"
// @Param year query int false "Filter by exam year"
// @Param shift query string false "Filter by shift"
// @Success 200 {object} dto.APIResponse{data=[]models.ApprovedQuestion} "Approved questions"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /approved-questions [get]
func (c *ApprovalController) ListApproved(ctx *gin.Context) {
	var filter dto.QuestionFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid filter parameters")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	questions, err := c.approvalService.ListApproved(ctx, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      questions,
		Timestamp: time.Now(),
	})
}

// Stats counts questions per workflow state
// @Summary Approval statistics
// @Description Returns pending, approved and rejected counts
// @Tags approvals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ApprovalStatsResponse} "Counts"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not a supremeuser"
// @Router /approvals/stats [get]
func (c *ApprovalController) Stats(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	stats, err := c.approvalService.Stats(ctx, principal)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      stats,
		Timestamp: time.Now(),
	})
}

// BackfillStatus sets missing approval statuses to pending
// @Summary Backfill approval status
// @Description Marks every question lacking a workflow state as pending. Idempotent.
// @Tags maintenance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MaintenanceResponse} "Rows affected"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not a supremeuser"
// @Router /admin/maintenance/backfill-status [post]
func (c *ApprovalController) BackfillStatus(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	affected, err := c.approvalService.BackfillStatus(ctx, principal)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.MaintenanceResponse{
			Message:       "Approval status backfilled",
			AffectedCount: affected,
		},
		Timestamp: time.Now(),
	})
}

// RevertApproved resets all approved questions to pending
// @Summary Revert approved questions
// @Description Resets every approved question back to pending and empties the approved store, in one transaction
// @Tags maintenance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MaintenanceResponse} "Rows affected"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not a supremeuser"
// @Failure 500 {object} dto.ErrorResponse "Transaction failure"
// @Router /admin/maintenance/revert-approved [post]
func (c *ApprovalController) RevertApproved(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	reverted, removed, err := c.approvalService.RevertApproved(ctx, principal)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.MaintenanceResponse{
			Message:       "Approved questions reverted",
			AffectedCount: reverted,
			RemovedCopies: removed,
		},
		Timestamp: time.Now(),
	})
}
