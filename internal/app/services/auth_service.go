package services

import (
	"context"
	"fmt"
	"strings"

	appauth "github.com/qbankhq/qbank/internal/app/auth"
	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/app/models/dto"
	"github.com/qbankhq/qbank/internal/pkg/apperrors"
	"github.com/qbankhq/qbank/internal/pkg/auth"
	"github.com/qbankhq/qbank/internal/pkg/dberrors"
	"github.com/qbankhq/qbank/internal/pkg/logger"
	"github.com/qbankhq/qbank/internal/pkg/session"
)

// userStore is the subset of the user repository the auth flow needs
type userStore interface {
	Create(ctx context.Context, user *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Logout(ctx context.Context, sessionID string) error
	ListUsers(ctx context.Context, principal appauth.Principal) ([]dto.UserResponse, error)
}

type authServiceImpl struct {
	userRepo userStore
	sessions *session.Store
	jwt      *auth.JWTService
}

// NewAuthService creates a new auth service instance
func NewAuthService(userRepo userStore, sessions *session.Store, jwtService *auth.JWTService) AuthService {
	return &authServiceImpl{
		userRepo: userRepo,
		sessions: sessions,
		jwt:      jwtService,
	}
}

// Register creates a new account. Open registration only grants the user
// and superuser roles; supremeusers are provisioned at bootstrap.
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleSuperuser {
		return nil, fmt.Errorf("%w: role %q cannot be self-assigned", apperrors.ErrValidationFailed, role)
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: hashed,
		Role:     role,
	}

	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return nil, apperrors.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id

	logger.Info().
		Int64("userId", id).
		Str("username", user.Username).
		Str("role", string(role)).
		Msg("User registered")

	return &dto.UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	}, nil
}

// Login verifies credentials, issues a token and records the session
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByUsernameOrEmail(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, sessionID, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	record := session.Record{UserID: user.ID, Username: user.Username, Role: user.Role}
	if err := s.sessions.Save(ctx, sessionID, record, s.jwt.TokenTTL()); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	logger.Info().
		Int64("userId", user.ID).
		Str("username", user.Username).
		Msg("User logged in")

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(s.jwt.TokenTTL().Seconds()),
		},
		User: dto.UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     string(user.Role),
		},
	}, nil
}

// Logout revokes the caller's session; the token stops working even
// before it expires
func (s *authServiceImpl) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListUsers returns every registered account. Restricted to superuser
// and above.
func (s *authServiceImpl) ListUsers(ctx context.Context, principal appauth.Principal) ([]dto.UserResponse, error) {
	if !principal.IsModerator() {
		return nil, apperrors.ErrPermissionDenied
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	result := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		result = append(result, dto.UserResponse{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			Role:     string(u.Role),
		})
	}
	return result, nil
}
