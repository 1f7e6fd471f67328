package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/app/models/dto"
	"github.com/qbankhq/qbank/internal/pkg/dberrors"
)

// ApprovedQuestionRepository handles database operations for the
// approved question copies
type ApprovedQuestionRepository struct {
	db *pgxpool.Pool
}

// NewApprovedQuestionRepository creates a new ApprovedQuestionRepository
func NewApprovedQuestionRepository(db *pgxpool.Pool) *ApprovedQuestionRepository {
	return &ApprovedQuestionRepository{db: db}
}

// InsertTx writes an approved copy inside a transaction and returns its id.
// The unique constraint on original_question_id surfaces through
// dberrors.IsUniqueViolation when a question is approved twice.
func (r *ApprovedQuestionRepository) InsertTx(ctx context.Context, tx pgx.Tx, aq *models.ApprovedQuestion) (int64, error) {
	query := squirrel.Insert("approved_questions").
		Columns("original_question_id", "serial", "question", "options", "correct_option",
			"subject", "topic", "difficulty", "solution",
			"pyq_type", "shift", "year", "exam_date", "auto_classified",
			"created_by", "approved_by", "approved_at").
		Values(aq.OriginalQuestionID, aq.Serial, aq.Question, aq.Options, aq.CorrectOption,
			aq.Subject, aq.Topic, aq.Difficulty, aq.Solution,
			aq.PYQType, aq.Shift, aq.Year, aq.ExamDate, aq.AutoClassified,
			aq.CreatedBy, aq.ApprovedBy, aq.ApprovedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var id int64
	err = tx.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return 0, err
		}
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return id, nil
}

// List retrieves approved copies with filtering and sorting
func (r *ApprovedQuestionRepository) List(ctx context.Context, filter dto.QuestionFilter) ([]models.ApprovedQuestion, error) {
	query := squirrel.Select(
		"q.id", "q.original_question_id", "q.serial", "q.question", "q.options",
		"q.correct_option", "q.subject", "q.topic", "q.difficulty", "q.solution",
		"q.pyq_type", "q.shift", "q.year", "q.exam_date", "q.auto_classified",
		"q.created_by", "q.approved_by", "q.approved_at").
		From("approved_questions q").
		PlaceholderFormat(squirrel.Dollar)

	if filter.Subject != "" {
		query = query.Where("q.subject = ?", filter.Subject)
	}
	if filter.PYQType != "" {
		query = query.Where("q.pyq_type = ?", filter.PYQType)
	}
	if filter.Year != nil {
		query = query.Where("q.year = ?", *filter.Year)
	}
	if filter.Shift != "" {
		query = query.Where("q.shift = ?", filter.Shift)
	}
	query = query.OrderBy("q.approved_at DESC")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var questions []models.ApprovedQuestion
	for rows.Next() {
		var q models.ApprovedQuestion
		err := rows.Scan(
			&q.ID, &q.OriginalQuestionID, &q.Serial, &q.Question, &q.Options,
			&q.CorrectOption, &q.Subject, &q.Topic, &q.Difficulty, &q.Solution,
			&q.PYQType, &q.Shift, &q.Year, &q.ExamDate, &q.AutoClassified,
			&q.CreatedBy, &q.ApprovedBy, &q.ApprovedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		questions = append(questions, q)
	}

	return questions, nil
}

// ExistsByOriginalID reports whether an approved copy exists for the question
func (r *ApprovedQuestionRepository) ExistsByOriginalID(ctx context.Context, originalID int64) (bool, error) {
	query := squirrel.Select("1").
		From("approved_questions").
		Where("original_question_id = ?", originalID).
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	var one int
	err = r.db.QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("error executing query: %w", err)
	}

	return true, nil
}

// DeleteAllTx removes every approved copy inside a transaction and
// returns how many rows were deleted
func (r *ApprovedQuestionRepository) DeleteAllTx(ctx context.Context, tx pgx.Tx) (int64, error) {
	result, err := tx.Exec(ctx, "DELETE FROM approved_questions")
	if err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}
	return result.RowsAffected(), nil
}
