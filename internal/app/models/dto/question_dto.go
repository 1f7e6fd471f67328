package dto

import (
	"github.com/qbankhq/qbank/internal/app/models"
)

// SubmitQuestionRequest carries a new question submission.
// Serial is the pre-allocated identifier for dated items; free-form but
// globally unique otherwise. CorrectOption is zero-based.
type SubmitQuestionRequest struct {
	Serial         string   `json:"serial" binding:"required"`
	Question       string   `json:"question" binding:"required"`
	Options        []string `json:"options" binding:"required"`
	CorrectOption  int      `json:"correctOption"`
	Subject        string   `json:"subject" binding:"required"`
	Topic          string   `json:"topic" binding:"required"`
	Difficulty     string   `json:"difficulty,omitempty"`
	Solution       string   `json:"solution,omitempty"`
	PYQType        models.PYQType `json:"pyqType,omitempty"`
	Shift          models.Shift   `json:"shift,omitempty"`
	Year           *int           `json:"year,omitempty"`
	ExamDate       *string        `json:"examDate,omitempty" example:"2024-01-27"`
	AutoClassified bool           `json:"autoClassified,omitempty"`
}

// SubmitQuestionResponse reports the stored question id and the difficulty
// that was finally persisted (classifier output, manual, or fallback)
type SubmitQuestionResponse struct {
	Message           string `json:"message"`
	QuestionID        int64  `json:"questionId"`
	Serial            string `json:"serial"`
	Difficulty        string `json:"difficulty"`
	WasAutoClassified bool   `json:"wasAutoClassified"`
}

// UpdateQuestionRequest carries content edits for an existing question
type UpdateQuestionRequest struct {
	Question      string   `json:"question" binding:"required"`
	Options       []string `json:"options" binding:"required"`
	CorrectOption int      `json:"correctOption"`
	Subject       string   `json:"subject" binding:"required"`
	Topic         string   `json:"topic" binding:"required"`
	Difficulty    string   `json:"difficulty,omitempty"`
	Solution      string   `json:"solution"`
	PYQType       models.PYQType `json:"pyqType,omitempty"`
	Shift         models.Shift   `json:"shift,omitempty"`
	Year          *int           `json:"year,omitempty"`
	ExamDate      *string        `json:"examDate,omitempty"`
}

// QuestionFilter captures the listing query parameters
type QuestionFilter struct {
	Subject   string `form:"subject"`
	PYQType   string `form:"pyqType"`
	Year      *int   `form:"year"`
	Shift     string `form:"shift"`
	SortBy    string `form:"sortBy,default=createdAt"`
	SortOrder string `form:"sortOrder,default=desc"`
}

// SerialResponse carries a freshly allocated serial
type SerialResponse struct {
	Serial string `json:"serial"`
}

// CountResponse carries a prefix count
type CountResponse struct {
	Count int64 `json:"count"`
}

// QuestionStatsResponse aggregates bank-wide statistics scoped to the caller
type QuestionStatsResponse struct {
	TotalQuestions         int64            `json:"totalQuestions"`
	QuestionsWithSolutions int64            `json:"questionsWithSolutions"`
	SolutionPercentage     float64          `json:"solutionPercentage"`
	Subjects               map[string]int64 `json:"subjects"`
	PYQTypes               map[string]int64 `json:"pyqTypes"`
	Difficulties           map[string]int64 `json:"difficulties"`
}

// ClassifyRequest is the passthrough payload for the classifier service
type ClassifyRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question" binding:"required"`
}

// ClassifyResponse is the classifier verdict
type ClassifyResponse struct {
	Difficulty string `json:"difficulty"`
}

// YearListResponse wraps the merged year list
type YearListResponse struct {
	Years []int `json:"years"`
}

// ExamDateEntry is one selectable exam sitting date
type ExamDateEntry struct {
	Date  string `json:"date" example:"2024-01-27"`
	Label string `json:"label" example:"January 27, 2024"`
}

// AddYearRequest adds a reference year
type AddYearRequest struct {
	Year int `json:"year" binding:"required"`
}

// AddExamDateRequest adds a reference exam date
type AddExamDateRequest struct {
	Year int    `json:"year" binding:"required"`
	Date string `json:"date" binding:"required" example:"2024-04-15"`
}

// DeleteExamDateRequest removes a stored exam date
type DeleteExamDateRequest struct {
	Year int    `json:"year" binding:"required"`
	Date string `json:"date" binding:"required"`
}
