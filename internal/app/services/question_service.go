package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/qbankhq/qbank/internal/app/auth"
	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/app/models/dto"
	"github.com/qbankhq/qbank/internal/pkg/apperrors"
	"github.com/qbankhq/qbank/internal/pkg/classifier"
	"github.com/qbankhq/qbank/internal/pkg/dberrors"
	"github.com/qbankhq/qbank/internal/pkg/logger"
)

const (
	// defaultDifficulty is persisted when neither the caller nor the
	// classifier provides a label
	defaultDifficulty = "easy"

	optionCount    = 4
	minPYQYear     = 1000
	examDateLayout = "2006-01-02"
)

// questionStore is the subset of the question repository the service needs
type questionStore interface {
	Create(ctx context.Context, q *models.Question) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Question, error)
	List(ctx context.Context, filter dto.QuestionFilter, ownerID *int64) ([]models.Question, error)
	ExistsByText(ctx context.Context, text string) (bool, error)
	Update(ctx context.Context, q *models.Question) error
	Delete(ctx context.Context, id int64) error
	DistinctYears(ctx context.Context) ([]int, error)
	Stats(ctx context.Context, ownerID *int64) (*dto.QuestionStatsResponse, error)
}

// yearStore lists the configured reference years
type yearStore interface {
	ListYears(ctx context.Context) ([]int, error)
}

// QuestionService defines the interface for question-related operations
type QuestionService interface {
	Submit(ctx context.Context, principal auth.Principal, req *dto.SubmitQuestionRequest) (*dto.SubmitQuestionResponse, error)
	GetByID(ctx context.Context, principal auth.Principal, id int64) (*models.Question, error)
	List(ctx context.Context, principal auth.Principal, filter dto.QuestionFilter) ([]models.Question, error)
	Update(ctx context.Context, principal auth.Principal, id int64, req *dto.UpdateQuestionRequest) (*models.Question, error)
	Delete(ctx context.Context, principal auth.Principal, id int64) error
	Stats(ctx context.Context, principal auth.Principal) (*dto.QuestionStatsResponse, error)
	AvailableYears(ctx context.Context) ([]int, error)
	Classify(ctx context.Context, principal auth.Principal, question string) (string, error)
}

type questionServiceImpl struct {
	questionRepo questionStore
	examRepo     yearStore
	classifier   *classifier.Client
}

// NewQuestionService creates a new question service instance
func NewQuestionService(questionRepo questionStore, examRepo yearStore, classifierClient *classifier.Client) QuestionService {
	return &questionServiceImpl{
		questionRepo: questionRepo,
		examRepo:     examRepo,
		classifier:   classifierClient,
	}
}

// validateContent checks the content rules shared by submit and update
func validateContent(question string, options []string, correctOption int, subject, topic string) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("%w: question text cannot be empty", apperrors.ErrValidationFailed)
	}
	if len(options) != optionCount {
		return fmt.Errorf("%w: exactly %d options are required", apperrors.ErrValidationFailed, optionCount)
	}
	for i, opt := range options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: option %d cannot be empty", apperrors.ErrValidationFailed, i+1)
		}
	}
	if correctOption < 0 || correctOption >= optionCount {
		return fmt.Errorf("%w: correctOption must be between 0 and %d", apperrors.ErrValidationFailed, optionCount-1)
	}
	if strings.TrimSpace(subject) == "" {
		return fmt.Errorf("%w: subject cannot be empty", apperrors.ErrValidationFailed)
	}
	if strings.TrimSpace(topic) == "" {
		return fmt.Errorf("%w: topic cannot be empty", apperrors.ErrValidationFailed)
	}
	return nil
}

// validateProvenance checks the PYQ tagging rules: exam questions need a
// real shift and a plausible year
func validateProvenance(pyqType models.PYQType, shift models.Shift, year *int) error {
	switch pyqType {
	case models.PYQTypeExam:
		if shift != models.Shift1 && shift != models.Shift2 {
			return fmt.Errorf("%w: exam-PYQ questions require a shift", apperrors.ErrValidationFailed)
		}
		if year == nil || *year < minPYQYear {
			return fmt.Errorf("%w: exam-PYQ questions require a valid year", apperrors.ErrValidationFailed)
		}
	case models.PYQTypeNone, "":
	default:
		return fmt.Errorf("%w: unknown pyqType %q", apperrors.ErrValidationFailed, pyqType)
	}
	return nil
}

func parseExamDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(examDateLayout, *raw)
	if err != nil {
		return nil, fmt.Errorf("%w: examDate must be YYYY-MM-DD", apperrors.ErrValidationFailed)
	}
	return &parsed, nil
}

// resolveDifficulty decides the persisted difficulty label. Only superusers
// and above may set it manually; for everyone else the classifier gets the
// final word when auto classification is requested. Any classifier failure
// falls back to the manual or default label and the stored row is marked as
// not auto classified.
func (s *questionServiceImpl) resolveDifficulty(ctx context.Context, principal auth.Principal, req *dto.SubmitQuestionRequest) (difficulty string, autoClassified bool) {
	manual := ""
	if principal.IsModerator() {
		manual = strings.TrimSpace(req.Difficulty)
	}
	if manual == "" {
		manual = defaultDifficulty
	}

	if !req.AutoClassified {
		return manual, false
	}

	label, err := s.classifier.Classify(ctx, principal.SessionID, req.Question)
	if err != nil {
		logger.Warn().
			Err(err).
			Int64("userId", principal.UserID).
			Msg("Difficulty classification failed, falling back")
		return manual, false
	}

	return label, true
}

// Submit validates and persists a new question in pending state
func (s *questionServiceImpl) Submit(ctx context.Context, principal auth.Principal, req *dto.SubmitQuestionRequest) (*dto.SubmitQuestionResponse, error) {
	req.Question = strings.TrimSpace(req.Question)
	if strings.TrimSpace(req.Serial) == "" {
		return nil, fmt.Errorf("%w: serial cannot be empty", apperrors.ErrValidationFailed)
	}
	if err := validateContent(req.Question, req.Options, req.CorrectOption, req.Subject, req.Topic); err != nil {
		return nil, err
	}
	if err := validateProvenance(req.PYQType, req.Shift, req.Year); err != nil {
		return nil, err
	}

	examDate, err := parseExamDate(req.ExamDate)
	if err != nil {
		return nil, err
	}

	exists, err := s.questionRepo.ExistsByText(ctx, req.Question)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if exists {
		return nil, apperrors.ErrDuplicateQuestion
	}

	difficulty, autoClassified := s.resolveDifficulty(ctx, principal, req)

	pyqType := req.PYQType
	if pyqType == "" {
		pyqType = models.PYQTypeNone
	}
	shift := req.Shift
	if shift == "" {
		shift = models.ShiftNone
	}

	question := &models.Question{
		Serial:         req.Serial,
		Question:       req.Question,
		Options:        req.Options,
		CorrectOption:  req.CorrectOption,
		Subject:        req.Subject,
		Topic:          req.Topic,
		Difficulty:     difficulty,
		Solution:       req.Solution,
		PYQType:        pyqType,
		Shift:          shift,
		Year:           req.Year,
		ExamDate:       examDate,
		AutoClassified: autoClassified,
		CreatedBy:      principal.UserID,
		ApprovalStatus: models.StatusPending,
	}

	id, err := s.questionRepo.Create(ctx, question)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return nil, apperrors.ErrSerialExists
		}
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	logger.Info().
		Int64("questionId", id).
		Str("serial", req.Serial).
		Int64("userId", principal.UserID).
		Bool("autoClassified", autoClassified).
		Msg("Question submitted")

	return &dto.SubmitQuestionResponse{
		Message:           "Question submitted for review",
		QuestionID:        id,
		Serial:            req.Serial,
		Difficulty:        difficulty,
		WasAutoClassified: autoClassified,
	}, nil
}

// GetByID retrieves one question. Regular users can only see their own;
// a foreign id reads the same as a missing one.
func (s *questionServiceImpl) GetByID(ctx context.Context, principal auth.Principal, id int64) (*models.Question, error) {
	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question == nil {
		return nil, apperrors.ErrQuestionNotFound
	}
	if !principal.IsModerator() && question.CreatedBy != principal.UserID {
		return nil, apperrors.ErrQuestionNotFound
	}
	return question, nil
}

// List retrieves questions visible to the principal with filters applied
func (s *questionServiceImpl) List(ctx context.Context, principal auth.Principal, filter dto.QuestionFilter) ([]models.Question, error) {
	var ownerID *int64
	if !principal.IsModerator() {
		ownerID = &principal.UserID
	}

	questions, err := s.questionRepo.List(ctx, filter, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, nil
}

// Update rewrites the content of an existing question the principal owns
// or moderates. The serial stays fixed.
func (s *questionServiceImpl) Update(ctx context.Context, principal auth.Principal, id int64, req *dto.UpdateQuestionRequest) (*models.Question, error) {
	question, err := s.GetByID(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	req.Question = strings.TrimSpace(req.Question)
	if err := validateContent(req.Question, req.Options, req.CorrectOption, req.Subject, req.Topic); err != nil {
		return nil, err
	}
	if err := validateProvenance(req.PYQType, req.Shift, req.Year); err != nil {
		return nil, err
	}

	examDate, err := parseExamDate(req.ExamDate)
	if err != nil {
		return nil, err
	}

	question.Question = req.Question
	question.Options = req.Options
	question.CorrectOption = req.CorrectOption
	question.Subject = req.Subject
	question.Topic = req.Topic
	question.Solution = req.Solution
	if req.Difficulty != "" && principal.IsModerator() {
		question.Difficulty = req.Difficulty
		question.AutoClassified = false
	}
	if req.PYQType != "" {
		question.PYQType = req.PYQType
	}
	if req.Shift != "" {
		question.Shift = req.Shift
	}
	question.Year = req.Year
	question.ExamDate = examDate

	if err := s.questionRepo.Update(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	return question, nil
}

// Delete removes a question the principal owns or moderates
func (s *questionServiceImpl) Delete(ctx context.Context, principal auth.Principal, id int64) error {
	if _, err := s.GetByID(ctx, principal, id); err != nil {
		return err
	}

	if err := s.questionRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	logger.Info().
		Int64("questionId", id).
		Int64("userId", principal.UserID).
		Msg("Question deleted")

	return nil
}

// Stats aggregates question counts, bank-wide for moderators and scoped
// to the caller's own questions otherwise
func (s *questionServiceImpl) Stats(ctx context.Context, principal auth.Principal) (*dto.QuestionStatsResponse, error) {
	var ownerID *int64
	if !principal.IsModerator() {
		ownerID = &principal.UserID
	}

	stats, err := s.questionRepo.Stats(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	return stats, nil
}

// AvailableYears merges the configured reference years with the years
// actually present on stored questions
func (s *questionServiceImpl) AvailableYears(ctx context.Context) ([]int, error) {
	configured, err := s.examRepo.ListYears(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reference years: %w", err)
	}

	used, err := s.questionRepo.DistinctYears(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list question years: %w", err)
	}

	seen := make(map[int]bool, len(configured)+len(used))
	var years []int
	for _, y := range append(configured, used...) {
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)

	return years, nil
}

// Classify forwards a question to the classifier with a short deadline.
// Unlike the submit path, errors here reach the caller.
func (s *questionServiceImpl) Classify(ctx context.Context, principal auth.Principal, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question text cannot be empty", apperrors.ErrValidationFailed)
	}

	return s.classifier.ClassifyQuick(ctx, principal.SessionID, question)
}
