package models

import (
	"time"
)

// ExamYear defines a valid exam year based on the 'years' table
type ExamYear struct {
	ID   int64 `json:"id" db:"id"`
	Year int   `json:"year" db:"year" example:"2024"`
}

// ExamDate defines an exam sitting date based on the 'exam_dates' table
type ExamDate struct {
	ID    int64     `json:"id" db:"id"`
	Year  int       `json:"year" db:"year"`
	Date  time.Time `json:"date" db:"date"`
	Label string    `json:"label" db:"label" example:"January 27, 2024"`
}
