package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appauth "github.com/qbankhq/qbank/internal/app/auth"
	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/app/models/dto"
	"github.com/qbankhq/qbank/internal/middleware"
	"github.com/qbankhq/qbank/internal/pkg/apperrors"
)

// fakeApprovalService lets each test script the service behaviour
type fakeApprovalService struct {
	approveFn     func(ctx context.Context, principal appauth.Principal, id int64) error
	rejectFn      func(ctx context.Context, principal appauth.Principal, id int64, reason string) error
	bulkApproveFn func(ctx context.Context, principal appauth.Principal, ids []int64) (int, error)
	listFn        func(ctx context.Context, principal appauth.Principal, status models.ApprovalStatus) ([]models.Question, error)
}

func (f *fakeApprovalService) Approve(ctx context.Context, principal appauth.Principal, id int64) error {
	return f.approveFn(ctx, principal, id)
}

func (f *fakeApprovalService) Reject(ctx context.Context, principal appauth.Principal, id int64, reason string) error {
	return f.rejectFn(ctx, principal, id, reason)
}

func (f *fakeApprovalService) BulkApprove(ctx context.Context, principal appauth.Principal, ids []int64) (int, error) {
	return f.bulkApproveFn(ctx, principal, ids)
}

func (f *fakeApprovalService) ListByStatus(ctx context.Context, principal appauth.Principal, status models.ApprovalStatus) ([]models.Question, error) {
	return f.listFn(ctx, principal, status)
}

func (f *fakeApprovalService) ListApproved(context.Context, dto.QuestionFilter) ([]models.ApprovedQuestion, error) {
	return nil, nil
}

func (f *fakeApprovalService) Stats(context.Context, appauth.Principal) (*dto.ApprovalStatsResponse, error) {
	return &dto.ApprovalStatsResponse{}, nil
}

func (f *fakeApprovalService) BackfillStatus(context.Context, appauth.Principal) (int64, error) {
	return 0, nil
}

func (f *fakeApprovalService) RevertApproved(context.Context, appauth.Principal) (int64, int64, error) {
	return 0, 0, nil
}

func setupApprovalRouter(svc *fakeApprovalService, principal appauth.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetPrincipal(c, principal)
		c.Next()
	})

	controller := NewApprovalController(svc)
	r.POST("/approvals/:id/approve", controller.Approve)
	r.POST("/approvals/:id/reject", controller.Reject)
	r.POST("/approvals/bulk-approve", controller.BulkApprove)
	r.GET("/approvals", controller.ListByStatus)
	return r
}

var reviewer = appauth.Principal{UserID: 1, Username: "root", Role: models.RoleSupremeuser}

func TestApproveEndpoint(t *testing.T) {
	var gotID int64
	svc := &fakeApprovalService{
		approveFn: func(_ context.Context, _ appauth.Principal, id int64) error {
			gotID = id
			return nil
		},
	}
	r := setupApprovalRouter(svc, reviewer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/approvals/42/approve", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(42), gotID)
}

func TestApproveEndpointConflict(t *testing.T) {
	svc := &fakeApprovalService{
		approveFn: func(context.Context, appauth.Principal, int64) error {
			return apperrors.ErrAlreadyApproved
		},
	}
	r := setupApprovalRouter(svc, reviewer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/approvals/42/approve", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrorCodeConflict, resp.Error.Code)
}

func TestApproveEndpointNotFound(t *testing.T) {
	svc := &fakeApprovalService{
		approveFn: func(context.Context, appauth.Principal, int64) error {
			return apperrors.ErrQuestionNotFound
		},
	}
	r := setupApprovalRouter(svc, reviewer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/approvals/42/approve", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApproveEndpointBadID(t *testing.T) {
	svc := &fakeApprovalService{
		approveFn: func(context.Context, appauth.Principal, int64) error {
			t.Fatal("service must not be called for a bad id")
			return nil
		},
	}
	r := setupApprovalRouter(svc, reviewer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/approvals/abc/approve", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRejectEndpointPassesReason(t *testing.T) {
	var gotReason string
	svc := &fakeApprovalService{
		rejectFn: func(_ context.Context, _ appauth.Principal, _ int64, reason string) error {
			gotReason = reason
			return nil
		},
	}
	r := setupApprovalRouter(svc, reviewer)

	body, _ := json.Marshal(dto.RejectQuestionRequest{Reason: "bad LaTeX"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/approvals/7/reject", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bad LaTeX", gotReason)
}

func TestRejectEndpointEmptyBody(t *testing.T) {
	var gotReason string
	svc := &fakeApprovalService{
		rejectFn: func(_ context.Context, _ appauth.Principal, _ int64, reason string) error {
			gotReason = reason
			return nil
		},
	}
	r := setupApprovalRouter(svc, reviewer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/approvals/7/reject", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, gotReason)
}

func TestBulkApproveEndpoint(t *testing.T) {
	svc := &fakeApprovalService{
		bulkApproveFn: func(_ context.Context, _ appauth.Principal, ids []int64) (int, error) {
			assert.Equal(t, []int64{1, 2, 999}, ids)
			return 2, nil
		},
	}
	r := setupApprovalRouter(svc, reviewer)

	body, _ := json.Marshal(dto.BulkApproveRequest{QuestionIDs: []int64{1, 2, 999}})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/approvals/bulk-approve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data dto.BulkApproveResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.ApprovedCount)
}

func TestListByStatusEndpointDefaultsToPending(t *testing.T) {
	var gotStatus models.ApprovalStatus
	svc := &fakeApprovalService{
		listFn: func(_ context.Context, _ appauth.Principal, status models.ApprovalStatus) ([]models.Question, error) {
			gotStatus = status
			return nil, nil
		},
	}
	r := setupApprovalRouter(svc, reviewer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/approvals", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusPending, gotStatus)
}

func TestPermissionDeniedMapsTo403(t *testing.T) {
	svc := &fakeApprovalService{
		approveFn: func(context.Context, appauth.Principal, int64) error {
			return apperrors.ErrPermissionDenied
		},
	}
	r := setupApprovalRouter(svc, appauth.Principal{UserID: 5, Role: models.RoleUser})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/approvals/1/approve", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
