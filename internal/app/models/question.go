package models

import (
	"time"
)

// Question defines the question model based on the 'questions' table.
// Serial is the human-readable identifier ({year}-{MMDD}-{shiftCode}-{seq})
// and is immutable once assigned.
type Question struct {
	ID            int64      `json:"id" db:"id"`
	Serial        string     `json:"serial" db:"serial" example:"2024-0127-S1-001"`
	Question      string     `json:"question" db:"question"`
	Options       []string   `json:"options" db:"options"` // exactly 4, ordered
	CorrectOption int        `json:"correctOption" db:"correct_option" example:"2"`
	Subject       string     `json:"subject" db:"subject" example:"Physics"`
	Topic         string     `json:"topic" db:"topic" example:"Rotational Motion"`
	Difficulty    string     `json:"difficulty" db:"difficulty" example:"medium"`
	Solution      string     `json:"solution" db:"solution"`
	PYQType       PYQType    `json:"pyqType" db:"pyq_type"`
	Shift         Shift      `json:"shift" db:"shift"`
	Year          *int       `json:"year,omitempty" db:"year"`
	ExamDate      *time.Time `json:"examDate,omitempty" db:"exam_date"`

	AutoClassified bool `json:"autoClassified" db:"auto_classified"`

	CreatedBy       int64   `json:"createdBy" db:"created_by"`
	CreatedByName   string  `json:"createdByName,omitempty" db:"-"` // joined username, superuser listings only
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`

	ApprovalStatus  ApprovalStatus `json:"approvalStatus" db:"approval_status"`
	ApprovedBy      *int64         `json:"approvedBy,omitempty" db:"approved_by"`
	ApprovedAt      *time.Time     `json:"approvedAt,omitempty" db:"approved_at"`
	RejectionReason *string        `json:"rejectionReason,omitempty" db:"rejection_reason"`
}

// ApprovedQuestion is the denormalized copy of a Question written at the
// moment of approval. It carries a back-reference to the original by id and
// is never mutated afterwards, except by the revert-approved maintenance
// operation which deletes it.
type ApprovedQuestion struct {
	ID                 int64      `json:"id" db:"id"`
	OriginalQuestionID int64      `json:"originalQuestionId" db:"original_question_id"`
	Serial             string     `json:"serial" db:"serial"`
	Question           string     `json:"question" db:"question"`
	Options            []string   `json:"options" db:"options"`
	CorrectOption      int        `json:"correctOption" db:"correct_option"`
	Subject            string     `json:"subject" db:"subject"`
	Topic              string     `json:"topic" db:"topic"`
	Difficulty         string     `json:"difficulty" db:"difficulty"`
	Solution           string     `json:"solution" db:"solution"`
	PYQType            PYQType    `json:"pyqType" db:"pyq_type"`
	Shift              Shift      `json:"shift" db:"shift"`
	Year               *int       `json:"year,omitempty" db:"year"`
	ExamDate           *time.Time `json:"examDate,omitempty" db:"exam_date"`
	AutoClassified     bool       `json:"autoClassified" db:"auto_classified"`
	CreatedBy          int64      `json:"createdBy" db:"created_by"`
	ApprovedBy         int64      `json:"approvedBy" db:"approved_by"`
	ApprovedAt         time.Time  `json:"approvedAt" db:"approved_at"`
}
