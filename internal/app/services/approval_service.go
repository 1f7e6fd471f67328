package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/qbankhq/qbank/internal/app/auth"
	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/app/models/dto"
	"github.com/qbankhq/qbank/internal/pkg/apperrors"
	"github.com/qbankhq/qbank/internal/pkg/dberrors"
	"github.com/qbankhq/qbank/internal/pkg/logger"
)

// defaultRejectionReason is recorded when a reviewer rejects without
// giving a reason
const defaultRejectionReason = "No reason provided"

// TxRunner executes fn inside a database transaction. Production wires
// db.WithTransaction; tests substitute a pass-through.
type TxRunner func(ctx context.Context, fn func(tx pgx.Tx) error) error

// approvalQuestionStore is the subset of the question repository the
// approval workflow needs
type approvalQuestionStore interface {
	GetByID(ctx context.Context, id int64) (*models.Question, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*models.Question, error)
	SetApprovedTx(ctx context.Context, tx pgx.Tx, id, approvedBy int64, approvedAt time.Time) error
	SetRejected(ctx context.Context, id, rejectedBy int64, reason string) error
	ListByStatus(ctx context.Context, status models.ApprovalStatus) ([]models.Question, error)
	ApprovalStats(ctx context.Context) (*dto.ApprovalStatsResponse, error)
	BackfillStatus(ctx context.Context) (int64, error)
	RevertApprovedTx(ctx context.Context, tx pgx.Tx) (int64, error)
}

// approvedCopyStore is the durable store of approved question copies
type approvedCopyStore interface {
	InsertTx(ctx context.Context, tx pgx.Tx, aq *models.ApprovedQuestion) (int64, error)
	List(ctx context.Context, filter dto.QuestionFilter) ([]models.ApprovedQuestion, error)
	DeleteAllTx(ctx context.Context, tx pgx.Tx) (int64, error)
}

// ApprovalService governs the pending -> approved | rejected workflow
type ApprovalService interface {
	Approve(ctx context.Context, principal auth.Principal, id int64) error
	Reject(ctx context.Context, principal auth.Principal, id int64, reason string) error
	BulkApprove(ctx context.Context, principal auth.Principal, ids []int64) (int, error)
	ListByStatus(ctx context.Context, principal auth.Principal, status models.ApprovalStatus) ([]models.Question, error)
	ListApproved(ctx context.Context, filter dto.QuestionFilter) ([]models.ApprovedQuestion, error)
	Stats(ctx context.Context, principal auth.Principal) (*dto.ApprovalStatsResponse, error)
	BackfillStatus(ctx context.Context, principal auth.Principal) (int64, error)
	RevertApproved(ctx context.Context, principal auth.Principal) (reverted int64, removed int64, err error)
}

type approvalServiceImpl struct {
	questionRepo approvalQuestionStore
	approvedRepo approvedCopyStore
	runTx        TxRunner
}

// NewApprovalService creates a new approval service instance
func NewApprovalService(questionRepo approvalQuestionStore, approvedRepo approvedCopyStore, runTx TxRunner) ApprovalService {
	return &approvalServiceImpl{
		questionRepo: questionRepo,
		approvedRepo: approvedRepo,
		runTx:        runTx,
	}
}

// Approve copies a pending question into the approved store and marks the
// original approved, atomically. Approving twice is a conflict and leaves
// exactly one copy.
func (s *approvalServiceImpl) Approve(ctx context.Context, principal auth.Principal, id int64) error {
	if !principal.IsApprover() {
		return apperrors.ErrPermissionDenied
	}

	err := s.runTx(ctx, func(tx pgx.Tx) error {
		return s.approveInTx(ctx, tx, principal, id)
	})
	if err != nil {
		if isApprovalClientError(err) {
			return err
		}
		return fmt.Errorf("%w: %v", apperrors.ErrTransactionFailed, err)
	}

	logger.Info().
		Int64("questionId", id).
		Int64("reviewerId", principal.UserID).
		Msg("Question approved")

	return nil
}

func (s *approvalServiceImpl) approveInTx(ctx context.Context, tx pgx.Tx, principal auth.Principal, id int64) error {
	question, err := s.questionRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if question == nil {
		return apperrors.ErrQuestionNotFound
	}
	if question.ApprovalStatus == models.StatusApproved {
		return apperrors.ErrAlreadyApproved
	}

	now := time.Now()
	copyRow := &models.ApprovedQuestion{
		OriginalQuestionID: question.ID,
		Serial:             question.Serial,
		Question:           question.Question,
		Options:            question.Options,
		CorrectOption:      question.CorrectOption,
		Subject:            question.Subject,
		Topic:              question.Topic,
		Difficulty:         question.Difficulty,
		Solution:           question.Solution,
		PYQType:            question.PYQType,
		Shift:              question.Shift,
		Year:               question.Year,
		ExamDate:           question.ExamDate,
		AutoClassified:     question.AutoClassified,
		CreatedBy:          question.CreatedBy,
		ApprovedBy:         principal.UserID,
		ApprovedAt:         now,
	}

	if _, err := s.approvedRepo.InsertTx(ctx, tx, copyRow); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrAlreadyApproved
		}
		return err
	}

	return s.questionRepo.SetApprovedTx(ctx, tx, question.ID, principal.UserID, now)
}

// isApprovalClientError distinguishes caller mistakes from real
// transaction failures
func isApprovalClientError(err error) bool {
	return errors.Is(err, apperrors.ErrQuestionNotFound) ||
		errors.Is(err, apperrors.ErrAlreadyApproved) ||
		errors.Is(err, apperrors.ErrPermissionDenied)
}

// Reject marks a question rejected with the given reason, or a default
// when none is supplied
func (s *approvalServiceImpl) Reject(ctx context.Context, principal auth.Principal, id int64, reason string) error {
	if !principal.IsApprover() {
		return apperrors.ErrPermissionDenied
	}

	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get question: %w", err)
	}
	if question == nil {
		return apperrors.ErrQuestionNotFound
	}

	if reason == "" {
		reason = defaultRejectionReason
	}

	if err := s.questionRepo.SetRejected(ctx, id, principal.UserID, reason); err != nil {
		return fmt.Errorf("failed to reject question: %w", err)
	}

	logger.Info().
		Int64("questionId", id).
		Int64("reviewerId", principal.UserID).
		Msg("Question rejected")

	return nil
}

// BulkApprove approves each id independently, skipping ids that are
// missing or already approved, and returns how many went through
func (s *approvalServiceImpl) BulkApprove(ctx context.Context, principal auth.Principal, ids []int64) (int, error) {
	if !principal.IsApprover() {
		return 0, apperrors.ErrPermissionDenied
	}

	approved := 0
	for _, id := range ids {
		err := s.runTx(ctx, func(tx pgx.Tx) error {
			return s.approveInTx(ctx, tx, principal, id)
		})
		if err != nil {
			if isApprovalClientError(err) {
				logger.Debug().
					Int64("questionId", id).
					Err(err).
					Msg("Skipping question in bulk approve")
				continue
			}
			return approved, fmt.Errorf("%w: %v", apperrors.ErrTransactionFailed, err)
		}
		approved++
	}

	logger.Info().
		Int("requested", len(ids)).
		Int("approved", approved).
		Int64("reviewerId", principal.UserID).
		Msg("Bulk approve finished")

	return approved, nil
}

// ListByStatus returns all questions in the given workflow state
func (s *approvalServiceImpl) ListByStatus(ctx context.Context, principal auth.Principal, status models.ApprovalStatus) ([]models.Question, error) {
	if !principal.IsApprover() {
		return nil, apperrors.ErrPermissionDenied
	}
	if !models.ValidApprovalStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidationFailed, status)
	}

	return s.questionRepo.ListByStatus(ctx, status)
}

// ListApproved returns the approved copies, visible to any caller
func (s *approvalServiceImpl) ListApproved(ctx context.Context, filter dto.QuestionFilter) ([]models.ApprovedQuestion, error) {
	return s.approvedRepo.List(ctx, filter)
}

// Stats counts questions per workflow state
func (s *approvalServiceImpl) Stats(ctx context.Context, principal auth.Principal) (*dto.ApprovalStatsResponse, error) {
	if !principal.IsApprover() {
		return nil, apperrors.ErrPermissionDenied
	}
	return s.questionRepo.ApprovalStats(ctx)
}

// BackfillStatus sets the workflow state to pending on any rows missing
// one. Idempotent; running it twice changes nothing the second time.
func (s *approvalServiceImpl) BackfillStatus(ctx context.Context, principal auth.Principal) (int64, error) {
	if !principal.IsApprover() {
		return 0, apperrors.ErrPermissionDenied
	}

	affected, err := s.questionRepo.BackfillStatus(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to backfill status: %w", err)
	}

	logger.Info().Int64("affected", affected).Msg("Backfilled approval status")
	return affected, nil
}

// RevertApproved resets every approved question to pending and clears the
// approved store, atomically
func (s *approvalServiceImpl) RevertApproved(ctx context.Context, principal auth.Principal) (int64, int64, error) {
	if !principal.IsApprover() {
		return 0, 0, apperrors.ErrPermissionDenied
	}

	var reverted, removed int64
	err := s.runTx(ctx, func(tx pgx.Tx) error {
		var err error
		if reverted, err = s.questionRepo.RevertApprovedTx(ctx, tx); err != nil {
			return err
		}
		removed, err = s.approvedRepo.DeleteAllTx(ctx, tx)
		return err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", apperrors.ErrTransactionFailed, err)
	}

	logger.Info().
		Int64("reverted", reverted).
		Int64("removed", removed).
		Msg("Reverted approved questions")

	return reverted, removed, nil
}
