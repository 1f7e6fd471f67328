package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbankhq/qbank/internal/app/auth"
	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/app/models/dto"
	"github.com/qbankhq/qbank/internal/pkg/apperrors"
)

// passTx runs the transaction body directly; the fakes below ignore tx
func passTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeApprovalStore struct {
	questions map[int64]*models.Question
	rejected  map[int64]string
	reverted  int64
}

func newFakeApprovalStore(questions ...*models.Question) *fakeApprovalStore {
	store := &fakeApprovalStore{
		questions: make(map[int64]*models.Question),
		rejected:  make(map[int64]string),
	}
	for _, q := range questions {
		store.questions[q.ID] = q
	}
	return store
}

func (f *fakeApprovalStore) GetByID(_ context.Context, id int64) (*models.Question, error) {
	return f.questions[id], nil
}

func (f *fakeApprovalStore) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id int64) (*models.Question, error) {
	return f.questions[id], nil
}

func (f *fakeApprovalStore) SetApprovedTx(_ context.Context, _ pgx.Tx, id, approvedBy int64, approvedAt time.Time) error {
	q := f.questions[id]
	q.ApprovalStatus = models.StatusApproved
	q.ApprovedBy = &approvedBy
	q.ApprovedAt = &approvedAt
	return nil
}

func (f *fakeApprovalStore) SetRejected(_ context.Context, id, rejectedBy int64, reason string) error {
	q := f.questions[id]
	q.ApprovalStatus = models.StatusRejected
	q.ApprovedBy = &rejectedBy
	q.RejectionReason = &reason
	f.rejected[id] = reason
	return nil
}

func (f *fakeApprovalStore) ListByStatus(_ context.Context, status models.ApprovalStatus) ([]models.Question, error) {
	var out []models.Question
	for _, q := range f.questions {
		if q.ApprovalStatus == status {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeApprovalStore) ApprovalStats(_ context.Context) (*dto.ApprovalStatsResponse, error) {
	stats := &dto.ApprovalStatsResponse{}
	for _, q := range f.questions {
		switch q.ApprovalStatus {
		case models.StatusPending:
			stats.Pending++
		case models.StatusApproved:
			stats.Approved++
		case models.StatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

func (f *fakeApprovalStore) BackfillStatus(_ context.Context) (int64, error) {
	var n int64
	for _, q := range f.questions {
		switch q.ApprovalStatus {
		case models.StatusPending, models.StatusApproved, models.StatusRejected:
			continue
		}
		q.ApprovalStatus = models.StatusPending
		q.ApprovedBy = nil
		q.ApprovedAt = nil
		q.RejectionReason = nil
		n++
	}
	return n, nil
}

func (f *fakeApprovalStore) RevertApprovedTx(_ context.Context, _ pgx.Tx) (int64, error) {
	var n int64
	for _, q := range f.questions {
		if q.ApprovalStatus == models.StatusApproved {
			q.ApprovalStatus = models.StatusPending
			q.ApprovedBy = nil
			q.ApprovedAt = nil
			n++
		}
	}
	f.reverted = n
	return n, nil
}

// duplicateKeyErr mimics the unique violation Postgres raises on a
// second approved copy of the same question
func duplicateKeyErr() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "approved_questions_original_question_id_key"}
}

type fakeApprovedStore struct {
	copies map[int64]*models.ApprovedQuestion
	nextID int64
}

func newFakeApprovedStore() *fakeApprovedStore {
	return &fakeApprovedStore{copies: make(map[int64]*models.ApprovedQuestion)}
}

func (f *fakeApprovedStore) InsertTx(_ context.Context, _ pgx.Tx, aq *models.ApprovedQuestion) (int64, error) {
	for _, existing := range f.copies {
		if existing.OriginalQuestionID == aq.OriginalQuestionID {
			return 0, duplicateKeyErr()
		}
	}
	f.nextID++
	aq.ID = f.nextID
	f.copies[f.nextID] = aq
	return f.nextID, nil
}

func (f *fakeApprovedStore) List(_ context.Context, _ dto.QuestionFilter) ([]models.ApprovedQuestion, error) {
	var out []models.ApprovedQuestion
	for _, aq := range f.copies {
		out = append(out, *aq)
	}
	return out, nil
}

func (f *fakeApprovedStore) DeleteAllTx(_ context.Context, _ pgx.Tx) (int64, error) {
	n := int64(len(f.copies))
	f.copies = make(map[int64]*models.ApprovedQuestion)
	return n, nil
}

func pendingQuestion(id int64) *models.Question {
	return &models.Question{
		ID:             id,
		Serial:         "2024-0127-S1-001",
		Question:       "What is the dimensional formula of torque?",
		Options:        []string{"A", "B", "C", "D"},
		CorrectOption:  1,
		Subject:        "Physics",
		Topic:          "Rotational Motion",
		Difficulty:     "medium",
		PYQType:        models.PYQTypeExam,
		Shift:          models.Shift1,
		CreatedBy:      10,
		ApprovalStatus: models.StatusPending,
	}
}

var supremeuser = auth.Principal{UserID: 1, Username: "root", Role: models.RoleSupremeuser}

func TestApprovePending(t *testing.T) {
	questions := newFakeApprovalStore(pendingQuestion(5))
	copies := newFakeApprovedStore()
	svc := NewApprovalService(questions, copies, passTx)

	require.NoError(t, svc.Approve(context.Background(), supremeuser, 5))

	q := questions.questions[5]
	assert.Equal(t, models.StatusApproved, q.ApprovalStatus)
	require.NotNil(t, q.ApprovedBy)
	assert.Equal(t, int64(1), *q.ApprovedBy)

	require.Len(t, copies.copies, 1)
	for _, aq := range copies.copies {
		assert.Equal(t, int64(5), aq.OriginalQuestionID)
		assert.Equal(t, q.Serial, aq.Serial)
	}
}

func TestApproveTwiceConflicts(t *testing.T) {
	questions := newFakeApprovalStore(pendingQuestion(5))
	copies := newFakeApprovedStore()
	svc := NewApprovalService(questions, copies, passTx)

	require.NoError(t, svc.Approve(context.Background(), supremeuser, 5))

	err := svc.Approve(context.Background(), supremeuser, 5)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyApproved))
	assert.Len(t, copies.copies, 1)
}

func TestApproveMissingQuestion(t *testing.T) {
	svc := NewApprovalService(newFakeApprovalStore(), newFakeApprovedStore(), passTx)

	err := svc.Approve(context.Background(), supremeuser, 99)
	assert.True(t, errors.Is(err, apperrors.ErrQuestionNotFound))
}

func TestApproveRequiresSupremeuser(t *testing.T) {
	svc := NewApprovalService(newFakeApprovalStore(pendingQuestion(5)), newFakeApprovedStore(), passTx)

	for _, role := range []models.RoleType{models.RoleUser, models.RoleSuperuser} {
		principal := auth.Principal{UserID: 2, Role: role}
		err := svc.Approve(context.Background(), principal, 5)
		assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied), "role %s", role)
	}
}

func TestApproveTransactionFailure(t *testing.T) {
	failTx := func(ctx context.Context, fn func(tx pgx.Tx) error) error {
		return errors.New("connection reset")
	}
	svc := NewApprovalService(newFakeApprovalStore(pendingQuestion(5)), newFakeApprovedStore(), failTx)

	err := svc.Approve(context.Background(), supremeuser, 5)
	assert.True(t, errors.Is(err, apperrors.ErrTransactionFailed))
}

func TestRejectWithReason(t *testing.T) {
	questions := newFakeApprovalStore(pendingQuestion(5))
	svc := NewApprovalService(questions, newFakeApprovedStore(), passTx)

	require.NoError(t, svc.Reject(context.Background(), supremeuser, 5, "bad LaTeX"))

	q := questions.questions[5]
	assert.Equal(t, models.StatusRejected, q.ApprovalStatus)
	require.NotNil(t, q.RejectionReason)
	assert.Equal(t, "bad LaTeX", *q.RejectionReason)
}

func TestRejectDefaultReason(t *testing.T) {
	questions := newFakeApprovalStore(pendingQuestion(5))
	svc := NewApprovalService(questions, newFakeApprovedStore(), passTx)

	require.NoError(t, svc.Reject(context.Background(), supremeuser, 5, ""))
	assert.Equal(t, "No reason provided", questions.rejected[5])
}

func TestRejectMissingQuestion(t *testing.T) {
	svc := NewApprovalService(newFakeApprovalStore(), newFakeApprovedStore(), passTx)

	err := svc.Reject(context.Background(), supremeuser, 42, "whatever")
	assert.True(t, errors.Is(err, apperrors.ErrQuestionNotFound))
}

func TestBulkApproveSkipsBadIDs(t *testing.T) {
	questions := newFakeApprovalStore(pendingQuestion(1), pendingQuestion(2))
	copies := newFakeApprovedStore()
	svc := NewApprovalService(questions, copies, passTx)

	count, err := svc.BulkApprove(context.Background(), supremeuser, []int64{1, 2, 999})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, copies.copies, 2)
}

func TestBulkApproveSkipsAlreadyApproved(t *testing.T) {
	questions := newFakeApprovalStore(pendingQuestion(1), pendingQuestion(2))
	copies := newFakeApprovedStore()
	svc := NewApprovalService(questions, copies, passTx)

	require.NoError(t, svc.Approve(context.Background(), supremeuser, 1))

	count, err := svc.BulkApprove(context.Background(), supremeuser, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, copies.copies, 2)
}

func TestListByStatusValidation(t *testing.T) {
	svc := NewApprovalService(newFakeApprovalStore(), newFakeApprovedStore(), passTx)

	_, err := svc.ListByStatus(context.Background(), supremeuser, "archived")
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}

func TestRevertApproved(t *testing.T) {
	questions := newFakeApprovalStore(pendingQuestion(1), pendingQuestion(2))
	copies := newFakeApprovedStore()
	svc := NewApprovalService(questions, copies, passTx)

	require.NoError(t, svc.Approve(context.Background(), supremeuser, 1))
	require.NoError(t, svc.Approve(context.Background(), supremeuser, 2))

	reverted, removed, err := svc.RevertApproved(context.Background(), supremeuser)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reverted)
	assert.Equal(t, int64(2), removed)
	assert.Empty(t, copies.copies)
	assert.Equal(t, models.StatusPending, questions.questions[1].ApprovalStatus)

	// second run is a no-op
	reverted, removed, err = svc.RevertApproved(context.Background(), supremeuser)
	require.NoError(t, err)
	assert.Zero(t, reverted)
	assert.Zero(t, removed)
}

func TestBackfillStatusResetsUnknownStates(t *testing.T) {
	stale := pendingQuestion(7)
	stale.ApprovalStatus = ""
	reviewer := int64(99)
	when := time.Now()
	stale.ApprovedBy = &reviewer
	stale.ApprovedAt = &when

	questions := newFakeApprovalStore(pendingQuestion(1), stale)
	svc := NewApprovalService(questions, newFakeApprovedStore(), passTx)

	affected, err := svc.BackfillStatus(context.Background(), supremeuser)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.Equal(t, models.StatusPending, questions.questions[7].ApprovalStatus)
	assert.Nil(t, questions.questions[7].ApprovedBy)
	assert.Nil(t, questions.questions[7].ApprovedAt)

	affected, err = svc.BackfillStatus(context.Background(), supremeuser)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestApprovalStats(t *testing.T) {
	q1 := pendingQuestion(1)
	q2 := pendingQuestion(2)
	q3 := pendingQuestion(3)
	questions := newFakeApprovalStore(q1, q2, q3)
	svc := NewApprovalService(questions, newFakeApprovedStore(), passTx)

	require.NoError(t, svc.Approve(context.Background(), supremeuser, 1))
	require.NoError(t, svc.Reject(context.Background(), supremeuser, 2, ""))

	stats, err := svc.Stats(context.Background(), supremeuser)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(1), stats.Approved)
	assert.Equal(t, int64(1), stats.Rejected)
}
