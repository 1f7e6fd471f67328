package repositories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/app/models/dto"
	"github.com/qbankhq/qbank/internal/pkg/dberrors"
)

var questionColumns = []string{
	"id", "serial", "question", "options", "correct_option",
	"subject", "topic", "difficulty", "solution",
	"pyq_type", "shift", "year", "exam_date", "auto_classified",
	"created_by", "created_at",
	"approval_status", "approved_by", "approved_at", "rejection_reason",
}

// sortColumns maps API sort keys to table columns. Anything else
// falls back to created_at.
var sortColumns = map[string]string{
	"createdAt":  "created_at",
	"serial":     "serial",
	"subject":    "subject",
	"difficulty": "difficulty",
	"year":       "year",
}

// QuestionRepository handles database operations for questions
type QuestionRepository struct {
	db *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository
func NewQuestionRepository(db *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func scanQuestion(row pgx.Row) (*models.Question, error) {
	var q models.Question
	err := row.Scan(
		&q.ID,
		&q.Serial,
		&q.Question,
		&q.Options,
		&q.CorrectOption,
		&q.Subject,
		&q.Topic,
		&q.Difficulty,
		&q.Solution,
		&q.PYQType,
		&q.Shift,
		&q.Year,
		&q.ExamDate,
		&q.AutoClassified,
		&q.CreatedBy,
		&q.CreatedAt,
		&q.ApprovalStatus,
		&q.ApprovedBy,
		&q.ApprovedAt,
		&q.RejectionReason,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning row: %w", err)
	}
	return &q, nil
}

// Create inserts a new question and returns its id. Unique violations
// on the serial column surface through dberrors.IsDuplicateConstraintError.
func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) (int64, error) {
	query := squirrel.Insert("questions").
		Columns("serial", "question", "options", "correct_option",
			"subject", "topic", "difficulty", "solution",
			"pyq_type", "shift", "year", "exam_date", "auto_classified",
			"created_by", "approval_status").
		Values(q.Serial, q.Question, q.Options, q.CorrectOption,
			q.Subject, q.Topic, q.Difficulty, q.Solution,
			q.PYQType, q.Shift, q.Year, q.ExamDate, q.AutoClassified,
			q.CreatedBy, q.ApprovalStatus).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return 0, err
		}
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return id, nil
}

// GetByID retrieves a question by id, returning nil when not found
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*models.Question, error) {
	query := squirrel.Select(questionColumns...).
		From("questions").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	return scanQuestion(r.db.QueryRow(ctx, sql, args...))
}

// GetByIDForUpdate retrieves a question inside a transaction with a row
// lock, so the approval workflow sees a stable status.
func (r *QuestionRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*models.Question, error) {
	query := squirrel.Select(questionColumns...).
		From("questions").
		Where("id = ?", id).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	return scanQuestion(tx.QueryRow(ctx, sql, args...))
}

// applyFilter adds the listing filters shared by List and ListByStatus
func applyFilter(query squirrel.SelectBuilder, filter dto.QuestionFilter) squirrel.SelectBuilder {
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

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.SortOrder == "asc" {
		direction = "ASC"
	}

	return query.OrderBy(fmt.Sprintf("q.%s %s", column, direction))
}

// List retrieves questions with filtering and sorting. When ownerID is
// non-nil only that user's questions are returned.
func (r *QuestionRepository) List(ctx context.Context, filter dto.QuestionFilter, ownerID *int64) ([]models.Question, error) {
	query := squirrel.Select(
		"q.id", "q.serial", "q.question", "q.options", "q.correct_option",
		"q.subject", "q.topic", "q.difficulty", "q.solution",
		"q.pyq_type", "q.shift", "q.year", "q.exam_date", "q.auto_classified",
		"q.created_by", "q.created_at",
		"q.approval_status", "q.approved_by", "q.approved_at", "q.rejection_reason",
		"u.username").
		From("questions q").
		Join("users u ON u.id = q.created_by").
		PlaceholderFormat(squirrel.Dollar)

	if ownerID != nil {
		query = query.Where("q.created_by = ?", *ownerID)
	}

	query = applyFilter(query, filter)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		err := rows.Scan(
			&q.ID, &q.Serial, &q.Question, &q.Options, &q.CorrectOption,
			&q.Subject, &q.Topic, &q.Difficulty, &q.Solution,
			&q.PYQType, &q.Shift, &q.Year, &q.ExamDate, &q.AutoClassified,
			&q.CreatedBy, &q.CreatedAt,
			&q.ApprovalStatus, &q.ApprovedBy, &q.ApprovedAt, &q.RejectionReason,
			&q.CreatedByName,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		questions = append(questions, q)
	}

	return questions, nil
}

// ListByStatus retrieves questions in the given approval status,
// newest first
func (r *QuestionRepository) ListByStatus(ctx context.Context, status models.ApprovalStatus) ([]models.Question, error) {
	query := squirrel.Select(
		"q.id", "q.serial", "q.question", "q.options", "q.correct_option",
		"q.subject", "q.topic", "q.difficulty", "q.solution",
		"q.pyq_type", "q.shift", "q.year", "q.exam_date", "q.auto_classified",
		"q.created_by", "q.created_at",
		"q.approval_status", "q.approved_by", "q.approved_at", "q.rejection_reason",
		"u.username").
		From("questions q").
		Join("users u ON u.id = q.created_by").
		Where("q.approval_status = ?", status).
		OrderBy("q.created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		err := rows.Scan(
			&q.ID, &q.Serial, &q.Question, &q.Options, &q.CorrectOption,
			&q.Subject, &q.Topic, &q.Difficulty, &q.Solution,
			&q.PYQType, &q.Shift, &q.Year, &q.ExamDate, &q.AutoClassified,
			&q.CreatedBy, &q.CreatedAt,
			&q.ApprovalStatus, &q.ApprovedBy, &q.ApprovedAt, &q.RejectionReason,
			&q.CreatedByName,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		questions = append(questions, q)
	}

	return questions, nil
}

// ListSerialsByPrefix returns every serial matching the exact pattern
// {prefix}-NNN, ordered ascending
func (r *QuestionRepository) ListSerialsByPrefix(ctx context.Context, prefix string) ([]string, error) {
	pattern := "^" + regexp.QuoteMeta(prefix) + "-[0-9]{3}$"

	query := squirrel.Select("serial").
		From("questions").
		Where("serial ~ ?", pattern).
		OrderBy("serial ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var serials []string
	for rows.Next() {
		var serial string
		if err := rows.Scan(&serial); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		serials = append(serials, serial)
	}

	return serials, nil
}

// CountByPrefix counts serials starting with the prefix, case-insensitively
func (r *QuestionRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	query := squirrel.Select("COUNT(*)").
		From("questions").
		Where("serial ILIKE ?", likeEscape(prefix)+"%").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return count, nil
}

// ExistsByText reports whether a question with exactly this text exists
func (r *QuestionRepository) ExistsByText(ctx context.Context, text string) (bool, error) {
	query := squirrel.Select("1").
		From("questions").
		Where("question = ?", text).
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

// Update rewrites the editable fields of a question. The serial and
// ownership columns are never touched.
func (r *QuestionRepository) Update(ctx context.Context, q *models.Question) error {
	query := squirrel.Update("questions").
		Set("question", q.Question).
		Set("options", q.Options).
		Set("correct_option", q.CorrectOption).
		Set("subject", q.Subject).
		Set("topic", q.Topic).
		Set("difficulty", q.Difficulty).
		Set("solution", q.Solution).
		Set("pyq_type", q.PYQType).
		Set("shift", q.Shift).
		Set("year", q.Year).
		Set("exam_date", q.ExamDate).
		Set("auto_classified", q.AutoClassified).
		Where("id = ?", q.ID).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("no rows affected")
	}

	return nil
}

// Delete removes a question by id
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	query := squirrel.Delete("questions").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("no rows affected")
	}

	return nil
}

// SetApprovedTx marks a question approved inside a transaction
func (r *QuestionRepository) SetApprovedTx(ctx context.Context, tx pgx.Tx, id, approvedBy int64, approvedAt time.Time) error {
	query := squirrel.Update("questions").
		Set("approval_status", models.StatusApproved).
		Set("approved_by", approvedBy).
		Set("approved_at", approvedAt).
		Set("rejection_reason", nil).
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	result, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("no rows affected")
	}

	return nil
}

// SetRejected marks a question rejected, recording who and why
func (r *QuestionRepository) SetRejected(ctx context.Context, id, rejectedBy int64, reason string) error {
	query := squirrel.Update("questions").
		Set("approval_status", models.StatusRejected).
		Set("approved_by", rejectedBy).
		Set("approved_at", time.Now()).
		Set("rejection_reason", reason).
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("no rows affected")
	}

	return nil
}

// DistinctYears returns the distinct non-null years present among
// questions, ascending
func (r *QuestionRepository) DistinctYears(ctx context.Context) ([]int, error) {
	query := squirrel.Select("DISTINCT year").
		From("questions").
		Where("year IS NOT NULL").
		OrderBy("year ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		years = append(years, year)
	}

	return years, nil
}

// CountByYear counts questions tagged with the given exam year
func (r *QuestionRepository) CountByYear(ctx context.Context, year int) (int64, error) {
	return r.countWhere(ctx, squirrel.Eq{"year": year})
}

// CountByExamDate counts questions tagged with the given exam date
func (r *QuestionRepository) CountByExamDate(ctx context.Context, date time.Time) (int64, error) {
	return r.countWhere(ctx, squirrel.Eq{"exam_date": date})
}

func (r *QuestionRepository) countWhere(ctx context.Context, cond squirrel.Eq) (int64, error) {
	query := squirrel.Select("COUNT(*)").
		From("questions").
		Where(cond).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return count, nil
}

// Stats aggregates question counts, optionally scoped to one owner
func (r *QuestionRepository) Stats(ctx context.Context, ownerID *int64) (*dto.QuestionStatsResponse, error) {
	stats := &dto.QuestionStatsResponse{
		Subjects:     make(map[string]int64),
		PYQTypes:     make(map[string]int64),
		Difficulties: make(map[string]int64),
	}

	totalsQuery := squirrel.Select(
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE solution IS NOT NULL AND solution <> '')").
		From("questions").
		PlaceholderFormat(squirrel.Dollar)
	if ownerID != nil {
		totalsQuery = totalsQuery.Where("created_by = ?", *ownerID)
	}

	sql, args, err := totalsQuery.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&stats.TotalQuestions, &stats.QuestionsWithSolutions); err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	if stats.TotalQuestions > 0 {
		stats.SolutionPercentage = float64(stats.QuestionsWithSolutions) / float64(stats.TotalQuestions) * 100
	}

	for column, target := range map[string]map[string]int64{
		"subject":    stats.Subjects,
		"pyq_type":   stats.PYQTypes,
		"difficulty": stats.Difficulties,
	} {
		if err := r.groupCounts(ctx, column, ownerID, target); err != nil {
			return nil, err
		}
	}

	return stats, nil
}

func (r *QuestionRepository) groupCounts(ctx context.Context, column string, ownerID *int64, target map[string]int64) error {
	query := squirrel.Select(column, "COUNT(*)").
		From("questions").
		GroupBy(column).
		PlaceholderFormat(squirrel.Dollar)
	if ownerID != nil {
		query = query.Where("created_by = ?", *ownerID)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		target[key] = count
	}

	return nil
}

// ApprovalStats counts questions per approval status
func (r *QuestionRepository) ApprovalStats(ctx context.Context) (*dto.ApprovalStatsResponse, error) {
	query := squirrel.Select("approval_status", "COUNT(*)").
		From("questions").
		GroupBy("approval_status").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	stats := &dto.ApprovalStatsResponse{}
	for rows.Next() {
		var status models.ApprovalStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		switch status {
		case models.StatusPending:
			stats.Pending = count
		case models.StatusApproved:
			stats.Approved = count
		case models.StatusRejected:
			stats.Rejected = count
		}
	}

	return stats, nil
}

// BackfillStatus resets rows whose approval_status is missing or not a
// known state back to pending, clears the reviewer fields, and returns how
// many rows changed. Targets rows imported before the status constraint
// existed; safe to run repeatedly.
func (r *QuestionRepository) BackfillStatus(ctx context.Context) (int64, error) {
	query := squirrel.Update("questions").
		Set("approval_status", models.StatusPending).
		Set("approved_by", nil).
		Set("approved_at", nil).
		Set("rejection_reason", nil).
		Where("approval_status IS NULL OR approval_status NOT IN (?, ?, ?)",
			models.StatusPending, models.StatusApproved, models.StatusRejected).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return result.RowsAffected(), nil
}

// RevertApprovedTx resets every approved question back to pending inside
// a transaction and returns how many rows changed
func (r *QuestionRepository) RevertApprovedTx(ctx context.Context, tx pgx.Tx) (int64, error) {
	query := squirrel.Update("questions").
		Set("approval_status", models.StatusPending).
		Set("approved_by", nil).
		Set("approved_at", nil).
		Where("approval_status = ?", models.StatusApproved).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	result, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}

	return result.RowsAffected(), nil
}

// likeEscape escapes LIKE metacharacters in user-derived prefixes
func likeEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
