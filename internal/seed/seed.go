package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appModels "github.com/qbankhq/qbank/internal/app/models"
	appRepos "github.com/qbankhq/qbank/internal/app/repositories"
	"github.com/qbankhq/qbank/internal/config"
	pkgAuth "github.com/qbankhq/qbank/internal/pkg/auth"
)

// CreateDefaultData seeds the exam reference calendar and the initial
// supremeuser account. Every step is idempotent so it is safe to run on
// each startup.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	var finalErr error

	if err := seedExamCalendar(ctx, dbPool); err != nil {
		lgr.Error().Err(err).Msg("Error seeding exam calendar")
		finalErr = errors.Join(finalErr, err)
	}

	if err := seedSupremeuser(ctx, dbPool, lgr); err != nil {
		lgr.Error().Err(err).Msg("Error seeding supremeuser account")
		finalErr = errors.Join(finalErr, err)
	}

	return finalErr
}

// seedExamCalendar writes the built-in years and exam dates so they are
// queryable alongside user-added entries. Conflicts mean a previous run
// already inserted the row.
func seedExamCalendar(ctx context.Context, dbPool *pgxpool.Pool) error {
	for _, year := range appModels.DefaultYears {
		if _, err := dbPool.Exec(ctx,
			`INSERT INTO exam_years (year) VALUES ($1) ON CONFLICT (year) DO NOTHING`, year); err != nil {
			return fmt.Errorf("failed to seed year %d: %w", year, err)
		}
	}

	for year, dates := range appModels.DefaultExamDates {
		for _, d := range dates {
			date, err := time.Parse("2006-01-02", d.Date)
			if err != nil {
				return fmt.Errorf("invalid built-in exam date %q: %w", d.Date, err)
			}
			if _, err := dbPool.Exec(ctx,
				`INSERT INTO exam_dates (year, date, label) VALUES ($1, $2, $3) ON CONFLICT (year, date) DO NOTHING`,
				year, date, d.Label); err != nil {
				return fmt.Errorf("failed to seed exam date %s: %w", d.Date, err)
			}
		}
	}

	return nil
}

// seedSupremeuser creates the bootstrap approver account from environment
// variables when no supremeuser exists yet. Without one, nothing in the
// approval workflow is reachable.
func seedSupremeuser(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)

	count, err := userRepo.CountByRole(ctx, appModels.RoleSupremeuser)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := config.GetEnv("SUPREMEUSER_PASSWORD", "")
	if password == "" {
		lgr.Warn().Msg("No supremeuser exists and SUPREMEUSER_PASSWORD is not set, skipping bootstrap account")
		return nil
	}

	username := config.GetEnv("SUPREMEUSER_USERNAME", "supremeuser")
	email := config.GetEnv("SUPREMEUSER_EMAIL", "supremeuser@localhost")

	hashed, err := pkgAuth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash supremeuser password: %w", err)
	}

	id, err := userRepo.Create(ctx, &appModels.User{
		Username: username,
		Email:    email,
		Password: hashed,
		Role:     appModels.RoleSupremeuser,
	})
	if err != nil {
		return fmt.Errorf("failed to create supremeuser: %w", err)
	}

	lgr.Info().Int64("userId", id).Str("username", username).Msg("Bootstrap supremeuser created")
	return nil
}
