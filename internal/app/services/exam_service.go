package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/qbankhq/qbank/internal/app/auth"
	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/app/models/dto"
	"github.com/qbankhq/qbank/internal/pkg/apperrors"
	"github.com/qbankhq/qbank/internal/pkg/dberrors"
	"github.com/qbankhq/qbank/internal/pkg/logger"
)

// examStore is the reference-data repository surface
type examStore interface {
	ListYears(ctx context.Context) ([]int, error)
	AddYear(ctx context.Context, year int) error
	DeleteYear(ctx context.Context, year int) (bool, error)
	ListExamDates(ctx context.Context, year int) ([]models.ExamDate, error)
	AddExamDate(ctx context.Context, date *models.ExamDate) error
	DeleteExamDate(ctx context.Context, year int, date time.Time) (bool, error)
}

// examUsageStore answers whether reference data is still in use
type examUsageStore interface {
	CountByYear(ctx context.Context, year int) (int64, error)
	CountByExamDate(ctx context.Context, date time.Time) (int64, error)
}

// ExamService manages the exam year and date reference data
type ExamService interface {
	ListYears(ctx context.Context) ([]int, error)
	AddYear(ctx context.Context, principal auth.Principal, year int) error
	DeleteYear(ctx context.Context, principal auth.Principal, year int) error
	ListExamDates(ctx context.Context, year int) ([]dto.ExamDateEntry, error)
	AddExamDate(ctx context.Context, principal auth.Principal, year int, date string) error
	DeleteExamDate(ctx context.Context, principal auth.Principal, year int, date string) error
}

type examServiceImpl struct {
	examRepo  examStore
	usageRepo examUsageStore
}

// NewExamService creates a new exam reference-data service instance
func NewExamService(examRepo examStore, usageRepo examUsageStore) ExamService {
	return &examServiceImpl{examRepo: examRepo, usageRepo: usageRepo}
}

// ListYears merges stored years with the built-in defaults, descending
func (s *examServiceImpl) ListYears(ctx context.Context) ([]int, error) {
	stored, err := s.examRepo.ListYears(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list years: %w", err)
	}

	seen := make(map[int]bool)
	var years []int
	for _, y := range append(stored, models.DefaultYears...) {
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	return years, nil
}

// AddYear stores a new selectable year
func (s *examServiceImpl) AddYear(ctx context.Context, principal auth.Principal, year int) error {
	if !principal.IsModerator() {
		return apperrors.ErrPermissionDenied
	}
	if year < 1000 || year > 9999 {
		return fmt.Errorf("%w: year must have four digits", apperrors.ErrValidationFailed)
	}

	if err := s.examRepo.AddYear(ctx, year); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrYearExists
		}
		return fmt.Errorf("failed to add year: %w", err)
	}

	logger.Info().Int("year", year).Int64("userId", principal.UserID).Msg("Reference year added")
	return nil
}

// DeleteYear removes a stored year. Built-in years and years still carried
// by questions are protected.
func (s *examServiceImpl) DeleteYear(ctx context.Context, principal auth.Principal, year int) error {
	if !principal.IsModerator() {
		return apperrors.ErrPermissionDenied
	}
	if models.IsDefaultYear(year) {
		return apperrors.ErrDefaultReferenceData
	}

	used, err := s.usageRepo.CountByYear(ctx, year)
	if err != nil {
		return fmt.Errorf("failed to check year usage: %w", err)
	}
	if used > 0 {
		return apperrors.ErrReferencedByQuestions
	}

	deleted, err := s.examRepo.DeleteYear(ctx, year)
	if err != nil {
		return fmt.Errorf("failed to delete year: %w", err)
	}
	if !deleted {
		return apperrors.ErrResourceNotFound
	}

	logger.Info().Int("year", year).Int64("userId", principal.UserID).Msg("Reference year deleted")
	return nil
}

// ListExamDates returns the stored calendar for a year merged with the
// built-in dates, ascending
func (s *examServiceImpl) ListExamDates(ctx context.Context, year int) ([]dto.ExamDateEntry, error) {
	stored, err := s.examRepo.ListExamDates(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list exam dates: %w", err)
	}

	seen := make(map[string]bool)
	var entries []dto.ExamDateEntry
	for _, d := range stored {
		key := d.Date.Format("2006-01-02")
		if !seen[key] {
			seen[key] = true
			entries = append(entries, dto.ExamDateEntry{Date: key, Label: d.Label})
		}
	}
	for _, d := range models.DefaultExamDates[year] {
		if !seen[d.Date] {
			seen[d.Date] = true
			entries = append(entries, dto.ExamDateEntry{Date: d.Date, Label: d.Label})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })

	return entries, nil
}

// AddExamDate stores a new exam sitting for a year
func (s *examServiceImpl) AddExamDate(ctx context.Context, principal auth.Principal, year int, date string) error {
	if !principal.IsModerator() {
		return apperrors.ErrPermissionDenied
	}

	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", apperrors.ErrValidationFailed)
	}
	if parsed.Year() != year {
		return fmt.Errorf("%w: date does not fall in year %d", apperrors.ErrValidationFailed, year)
	}
	if models.IsDefaultExamDate(year, date) {
		return apperrors.ErrExamDateExists
	}

	entry := &models.ExamDate{
		Year:  year,
		Date:  parsed,
		Label: parsed.Format("January 2, 2006"),
	}
	if err := s.examRepo.AddExamDate(ctx, entry); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrExamDateExists
		}
		return fmt.Errorf("failed to add exam date: %w", err)
	}

	logger.Info().Int("year", year).Str("date", date).Int64("userId", principal.UserID).Msg("Exam date added")
	return nil
}

// DeleteExamDate removes a stored exam date. Built-in calendar entries and
// dates still carried by questions are protected.
func (s *examServiceImpl) DeleteExamDate(ctx context.Context, principal auth.Principal, year int, date string) error {
	if !principal.IsModerator() {
		return apperrors.ErrPermissionDenied
	}

	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", apperrors.ErrValidationFailed)
	}
	if models.IsDefaultExamDate(year, date) {
		return apperrors.ErrDefaultReferenceData
	}

	used, err := s.usageRepo.CountByExamDate(ctx, parsed)
	if err != nil {
		return fmt.Errorf("failed to check exam date usage: %w", err)
	}
	if used > 0 {
		return apperrors.ErrReferencedByQuestions
	}

	deleted, err := s.examRepo.DeleteExamDate(ctx, year, parsed)
	if err != nil {
		return fmt.Errorf("failed to delete exam date: %w", err)
	}
	if !deleted {
		return apperrors.ErrResourceNotFound
	}

	logger.Info().Int("year", year).Str("date", date).Int64("userId", principal.UserID).Msg("Exam date deleted")
	return nil
}
