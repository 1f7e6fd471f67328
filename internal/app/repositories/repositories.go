package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository             *UserRepository
	QuestionRepository         *QuestionRepository
	ApprovedQuestionRepository *ApprovedQuestionRepository
	ExamRepository             *ExamRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:             NewUserRepository(db),
		QuestionRepository:         NewQuestionRepository(db),
		ApprovedQuestionRepository: NewApprovedQuestionRepository(db),
		ExamRepository:             NewExamRepository(db),
	}
}
