package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/qbankhq/qbank/internal/app/controllers"
	appMigrations "github.com/qbankhq/qbank/internal/app/migrations"
	appRepos "github.com/qbankhq/qbank/internal/app/repositories"
	appRoutes "github.com/qbankhq/qbank/internal/app/routes"
	appServices "github.com/qbankhq/qbank/internal/app/services"
	"github.com/qbankhq/qbank/internal/config"
	"github.com/qbankhq/qbank/internal/db"
	appMiddleware "github.com/qbankhq/qbank/internal/middleware"
	pkgAuth "github.com/qbankhq/qbank/internal/pkg/auth"
	"github.com/qbankhq/qbank/internal/pkg/classifier"
	"github.com/qbankhq/qbank/internal/pkg/logger"
	"github.com/qbankhq/qbank/internal/pkg/session"
	"github.com/qbankhq/qbank/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService     appServices.AuthService
	QuestionService appServices.QuestionService
	SerialService   appServices.SerialService
	ApprovalService appServices.ApprovalService
	ExamService     appServices.ExamService

	AuthController     *appControllers.AuthController
	QuestionController *appControllers.QuestionController
	SerialController   *appControllers.SerialController
	ApprovalController *appControllers.ApprovalController
	AdminController    *appControllers.AdminController

	Repos      *appRepos.Repositories
	JWTService *pkgAuth.JWTService
	Sessions   *session.Store
	Classifier *classifier.Client
	Logger     zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds the reference data.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	dbPool, err := db.NewConnection(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		// Log the error but don't fail the startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// SetupRedis connects the session store backend.
func SetupRedis(cfg *config.Config, lgr zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		lgr.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")
	return client, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, redisClient *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)
	deps.Sessions = session.NewStore(redisClient)

	deps.JWTService = pkgAuth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.AccessTokenTTL())
	deps.Classifier = classifier.NewClient(cfg.Classifier.URL, cfg.ClassifierTimeout())

	runTx := func(ctx context.Context, fn func(tx pgx.Tx) error) error {
		return db.WithTransaction(ctx, dbPool, fn)
	}

	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository, deps.Sessions, deps.JWTService)
	deps.QuestionService = appServices.NewQuestionService(deps.Repos.QuestionRepository, deps.Repos.ExamRepository, deps.Classifier)
	deps.SerialService = appServices.NewSerialService(deps.Repos.QuestionRepository)
	deps.ApprovalService = appServices.NewApprovalService(deps.Repos.QuestionRepository, deps.Repos.ApprovedQuestionRepository, runTx)
	deps.ExamService = appServices.NewExamService(deps.Repos.ExamRepository, deps.Repos.QuestionRepository)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService)
	deps.QuestionController = appControllers.NewQuestionController(deps.QuestionService)
	deps.SerialController = appControllers.NewSerialController(deps.SerialService)
	deps.ApprovalController = appControllers.NewApprovalController(deps.ApprovalService)
	deps.AdminController = appControllers.NewAdminController(deps.ExamService)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(appMiddleware.RequestLogger())
	router.Use(gin.Recovery())

	appRoutes.SetupSwagger(router)

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.QuestionController,
		deps.SerialController,
		deps.ApprovalController,
		deps.AdminController,
		deps.JWTService,
		deps.Sessions,
	)

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
