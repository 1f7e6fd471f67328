package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/pkg/dberrors"
)

// ExamRepository handles database operations for the exam reference
// data: available years and the exam date calendar
type ExamRepository struct {
	db *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository
func NewExamRepository(db *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{db: db}
}

// ListYears returns all configured exam years, ascending
func (r *ExamRepository) ListYears(ctx context.Context) ([]int, error) {
	query := squirrel.Select("year").
		From("exam_years").
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

// AddYear inserts a new exam year. A duplicate year surfaces through
// dberrors.IsUniqueViolation.
func (r *ExamRepository) AddYear(ctx context.Context, year int) error {
	query := squirrel.Insert("exam_years").
		Columns("year").
		Values(year).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

// DeleteYear removes an exam year, reporting whether a row was deleted
func (r *ExamRepository) DeleteYear(ctx context.Context, year int) (bool, error) {
	query := squirrel.Delete("exam_years").
		Where("year = ?", year).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error executing query: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// YearExists reports whether the year is configured
func (r *ExamRepository) YearExists(ctx context.Context, year int) (bool, error) {
	query := squirrel.Select("1").
		From("exam_years").
		Where("year = ?", year).
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

// ListExamDates returns the exam dates configured for a year, ascending
func (r *ExamRepository) ListExamDates(ctx context.Context, year int) ([]models.ExamDate, error) {
	query := squirrel.Select("id", "year", "date", "label").
		From("exam_dates").
		Where("year = ?", year).
		OrderBy("date ASC").
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

	var dates []models.ExamDate
	for rows.Next() {
		var d models.ExamDate
		if err := rows.Scan(&d.ID, &d.Year, &d.Date, &d.Label); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		dates = append(dates, d)
	}

	return dates, nil
}

// AddExamDate inserts a new exam date. A duplicate (year, date) pair
// surfaces through dberrors.IsUniqueViolation.
func (r *ExamRepository) AddExamDate(ctx context.Context, date *models.ExamDate) error {
	query := squirrel.Insert("exam_dates").
		Columns("year", "date", "label").
		Values(date.Year, date.Date, date.Label).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

// DeleteExamDate removes an exam date, reporting whether a row was deleted
func (r *ExamRepository) DeleteExamDate(ctx context.Context, year int, date time.Time) (bool, error) {
	query := squirrel.Delete("exam_dates").
		Where("year = ?", year).
		Where("date = ?", date).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error executing query: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
