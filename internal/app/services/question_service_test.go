package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbankhq/qbank/internal/app/auth"
	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/app/models/dto"
	"github.com/qbankhq/qbank/internal/pkg/apperrors"
	"github.com/qbankhq/qbank/internal/pkg/classifier"
)

type fakeQuestionStore struct {
	questions   map[int64]*models.Question
	nextID      int64
	texts       map[string]bool
	serials     map[string]bool
	listOwnerID *int64
	distinctYrs []int
	stats       *dto.QuestionStatsResponse
	lastCreated *models.Question
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{
		questions: make(map[int64]*models.Question),
		texts:     make(map[string]bool),
		serials:   make(map[string]bool),
	}
}

func (f *fakeQuestionStore) Create(_ context.Context, q *models.Question) (int64, error) {
	if f.serials[q.Serial] {
		return 0, duplicateKeyErr()
	}
	f.nextID++
	q.ID = f.nextID
	f.questions[q.ID] = q
	f.texts[q.Question] = true
	f.serials[q.Serial] = true
	f.lastCreated = q
	return q.ID, nil
}

func (f *fakeQuestionStore) GetByID(_ context.Context, id int64) (*models.Question, error) {
	return f.questions[id], nil
}

func (f *fakeQuestionStore) List(_ context.Context, _ dto.QuestionFilter, ownerID *int64) ([]models.Question, error) {
	f.listOwnerID = ownerID
	var out []models.Question
	for _, q := range f.questions {
		if ownerID != nil && q.CreatedBy != *ownerID {
			continue
		}
		out = append(out, *q)
	}
	return out, nil
}

func (f *fakeQuestionStore) ExistsByText(_ context.Context, text string) (bool, error) {
	return f.texts[text], nil
}

func (f *fakeQuestionStore) Update(_ context.Context, q *models.Question) error {
	f.questions[q.ID] = q
	return nil
}

func (f *fakeQuestionStore) Delete(_ context.Context, id int64) error {
	delete(f.questions, id)
	return nil
}

func (f *fakeQuestionStore) DistinctYears(_ context.Context) ([]int, error) {
	return f.distinctYrs, nil
}

func (f *fakeQuestionStore) Stats(_ context.Context, ownerID *int64) (*dto.QuestionStatsResponse, error) {
	f.listOwnerID = ownerID
	return f.stats, nil
}

type fakeYearStore struct {
	years []int
}

func (f *fakeYearStore) ListYears(_ context.Context) ([]int, error) {
	return f.years, nil
}

func disabledClassifier() *classifier.Client {
	return classifier.NewClient("", time.Second)
}

func validSubmission() *dto.SubmitQuestionRequest {
	year := 2024
	date := "2024-01-27"
	return &dto.SubmitQuestionRequest{
		Serial:        "2024-0127-S1-001",
		Question:      "A particle moves in a circle of radius r...",
		Options:       []string{"2r", "r/2", "4r", "r"},
		CorrectOption: 2,
		Subject:       "Physics",
		Topic:         "Circular Motion",
		Difficulty:    "hard",
		PYQType:       models.PYQTypeExam,
		Shift:         models.Shift1,
		Year:          &year,
		ExamDate:      &date,
	}
}

var submitter = auth.Principal{UserID: 10, Username: "alice", Role: models.RoleUser, SessionID: "sid-1"}

var elevatedSubmitter = auth.Principal{UserID: 20, Username: "bob", Role: models.RoleSuperuser, SessionID: "sid-2"}

func TestSubmitManualDifficulty(t *testing.T) {
	store := newFakeQuestionStore()
	svc := NewQuestionService(store, &fakeYearStore{}, disabledClassifier())

	resp, err := svc.Submit(context.Background(), elevatedSubmitter, validSubmission())
	require.NoError(t, err)

	assert.Equal(t, "hard", resp.Difficulty)
	assert.False(t, resp.WasAutoClassified)
	assert.Equal(t, "2024-0127-S1-001", resp.Serial)

	created := store.lastCreated
	assert.Equal(t, models.StatusPending, created.ApprovalStatus)
	assert.Equal(t, int64(20), created.CreatedBy)
	require.NotNil(t, created.ExamDate)
	assert.Equal(t, "2024-01-27", created.ExamDate.Format("2006-01-02"))
}

func TestSubmitManualDifficultyIgnoredForPlainUser(t *testing.T) {
	store := newFakeQuestionStore()
	svc := NewQuestionService(store, &fakeYearStore{}, disabledClassifier())

	resp, err := svc.Submit(context.Background(), submitter, validSubmission())
	require.NoError(t, err)

	assert.Equal(t, "easy", resp.Difficulty)
	assert.False(t, resp.WasAutoClassified)
}

func TestSubmitDefaultDifficulty(t *testing.T) {
	store := newFakeQuestionStore()
	svc := NewQuestionService(store, &fakeYearStore{}, disabledClassifier())

	req := validSubmission()
	req.Difficulty = ""

	resp, err := svc.Submit(context.Background(), submitter, req)
	require.NoError(t, err)
	assert.Equal(t, "easy", resp.Difficulty)
	assert.False(t, resp.WasAutoClassified)
}

func TestSubmitAutoClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"difficulty": "medium"})
	}))
	defer srv.Close()

	store := newFakeQuestionStore()
	svc := NewQuestionService(store, &fakeYearStore{}, classifier.NewClient(srv.URL, time.Second))

	req := validSubmission()
	req.AutoClassified = true
	req.Difficulty = "hard"

	resp, err := svc.Submit(context.Background(), submitter, req)
	require.NoError(t, err)
	assert.Equal(t, "medium", resp.Difficulty)
	assert.True(t, resp.WasAutoClassified)
	assert.True(t, store.lastCreated.AutoClassified)
}

func TestSubmitClassifierFallback(t *testing.T) {
	store := newFakeQuestionStore()
	svc := NewQuestionService(store, &fakeYearStore{}, disabledClassifier())

	req := validSubmission()
	req.AutoClassified = true
	req.Difficulty = ""

	resp, err := svc.Submit(context.Background(), submitter, req)
	require.NoError(t, err)
	assert.Equal(t, "easy", resp.Difficulty)
	assert.False(t, resp.WasAutoClassified)
	assert.False(t, store.lastCreated.AutoClassified)
}

func TestSubmitDuplicateText(t *testing.T) {
	store := newFakeQuestionStore()
	svc := NewQuestionService(store, &fakeYearStore{}, disabledClassifier())

	_, err := svc.Submit(context.Background(), submitter, validSubmission())
	require.NoError(t, err)

	dup := validSubmission()
	dup.Serial = "2024-0127-S1-002"
	_, err = svc.Submit(context.Background(), submitter, dup)
	assert.True(t, errors.Is(err, apperrors.ErrDuplicateQuestion))
}

func TestSubmitTrimsQuestionText(t *testing.T) {
	store := newFakeQuestionStore()
	svc := NewQuestionService(store, &fakeYearStore{}, disabledClassifier())

	_, err := svc.Submit(context.Background(), submitter, validSubmission())
	require.NoError(t, err)

	padded := validSubmission()
	padded.Serial = "2024-0127-S1-002"
	padded.Question = "  " + padded.Question + "  "
	_, err = svc.Submit(context.Background(), submitter, padded)
	assert.True(t, errors.Is(err, apperrors.ErrDuplicateQuestion))

	fresh := validSubmission()
	fresh.Serial = "2024-0127-S1-003"
	fresh.Question = "  A charge q moves through a potential difference V...  "
	_, err = svc.Submit(context.Background(), submitter, fresh)
	require.NoError(t, err)
	assert.Equal(t, "A charge q moves through a potential difference V...", store.lastCreated.Question)
}

func TestSubmitSerialConflict(t *testing.T) {
	store := newFakeQuestionStore()
	svc := NewQuestionService(store, &fakeYearStore{}, disabledClassifier())

	_, err := svc.Submit(context.Background(), submitter, validSubmission())
	require.NoError(t, err)

	conflicting := validSubmission()
	conflicting.Question = "A different question entirely"
	_, err = svc.Submit(context.Background(), submitter, conflicting)
	assert.True(t, errors.Is(err, apperrors.ErrSerialExists))
}

func TestSubmitValidation(t *testing.T) {
	svc := NewQuestionService(newFakeQuestionStore(), &fakeYearStore{}, disabledClassifier())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*dto.SubmitQuestionRequest)
	}{
		{"empty serial", func(r *dto.SubmitQuestionRequest) { r.Serial = " " }},
		{"empty question", func(r *dto.SubmitQuestionRequest) { r.Question = "" }},
		{"three options", func(r *dto.SubmitQuestionRequest) { r.Options = r.Options[:3] }},
		{"five options", func(r *dto.SubmitQuestionRequest) { r.Options = append(r.Options, "extra") }},
		{"blank option", func(r *dto.SubmitQuestionRequest) { r.Options[1] = "  " }},
		{"correct option too high", func(r *dto.SubmitQuestionRequest) { r.CorrectOption = 4 }},
		{"correct option negative", func(r *dto.SubmitQuestionRequest) { r.CorrectOption = -1 }},
		{"missing subject", func(r *dto.SubmitQuestionRequest) { r.Subject = "" }},
		{"missing topic", func(r *dto.SubmitQuestionRequest) { r.Topic = "" }},
		{"exam PYQ without shift", func(r *dto.SubmitQuestionRequest) { r.Shift = models.ShiftNone }},
		{"exam PYQ without year", func(r *dto.SubmitQuestionRequest) { r.Year = nil }},
		{"exam PYQ with short year", func(r *dto.SubmitQuestionRequest) { y := 999; r.Year = &y }},
		{"unknown pyq type", func(r *dto.SubmitQuestionRequest) { r.PYQType = "maybe-PYQ" }},
		{"bad exam date", func(r *dto.SubmitQuestionRequest) { d := "27-01-2024"; r.ExamDate = &d }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSubmission()
			tt.mutate(req)
			_, err := svc.Submit(ctx, submitter, req)
			assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
		})
	}
}

func TestGetByIDOwnership(t *testing.T) {
	store := newFakeQuestionStore()
	svc := NewQuestionService(store, &fakeYearStore{}, disabledClassifier())

	_, err := svc.Submit(context.Background(), submitter, validSubmission())
	require.NoError(t, err)

	// owner sees it
	q, err := svc.GetByID(context.Background(), submitter, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), q.CreatedBy)

	// another regular user gets not-found, not forbidden
	stranger := auth.Principal{UserID: 11, Role: models.RoleUser}
	_, err = svc.GetByID(context.Background(), stranger, 1)
	assert.True(t, errors.Is(err, apperrors.ErrQuestionNotFound))

	// a superuser sees everything
	moderator := auth.Principal{UserID: 12, Role: models.RoleSuperuser}
	_, err = svc.GetByID(context.Background(), moderator, 1)
	assert.NoError(t, err)
}

func TestListScoping(t *testing.T) {
	store := newFakeQuestionStore()
	svc := NewQuestionService(store, &fakeYearStore{}, disabledClassifier())

	_, err := svc.List(context.Background(), submitter, dto.QuestionFilter{})
	require.NoError(t, err)
	require.NotNil(t, store.listOwnerID)
	assert.Equal(t, int64(10), *store.listOwnerID)

	moderator := auth.Principal{UserID: 12, Role: models.RoleSuperuser}
	_, err = svc.List(context.Background(), moderator, dto.QuestionFilter{})
	require.NoError(t, err)
	assert.Nil(t, store.listOwnerID)
}

func TestDeleteOwnership(t *testing.T) {
	store := newFakeQuestionStore()
	svc := NewQuestionService(store, &fakeYearStore{}, disabledClassifier())

	_, err := svc.Submit(context.Background(), submitter, validSubmission())
	require.NoError(t, err)

	stranger := auth.Principal{UserID: 11, Role: models.RoleUser}
	err = svc.Delete(context.Background(), stranger, 1)
	assert.True(t, errors.Is(err, apperrors.ErrQuestionNotFound))

	require.NoError(t, svc.Delete(context.Background(), submitter, 1))
	assert.Empty(t, store.questions)
}

func TestAvailableYearsMerge(t *testing.T) {
	store := newFakeQuestionStore()
	store.distinctYrs = []int{2024, 2019}
	svc := NewQuestionService(store, &fakeYearStore{years: []int{2023, 2024}}, disabledClassifier())

	years, err := svc.AvailableYears(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2019, 2023, 2024}, years)
}

func TestClassifyPassthroughValidation(t *testing.T) {
	svc := NewQuestionService(newFakeQuestionStore(), &fakeYearStore{}, disabledClassifier())

	_, err := svc.Classify(context.Background(), submitter, "  ")
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))

	_, err = svc.Classify(context.Background(), submitter, "real question")
	assert.True(t, errors.Is(err, apperrors.ErrClassifierDisabled))
}
