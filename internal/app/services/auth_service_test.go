package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appauth "github.com/qbankhq/qbank/internal/app/auth"
	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/app/models/dto"
	"github.com/qbankhq/qbank/internal/pkg/apperrors"
	"github.com/qbankhq/qbank/internal/pkg/auth"
	"github.com/qbankhq/qbank/internal/pkg/session"
)

type fakeUserStore struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*models.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) (int64, error) {
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return 0, duplicateKeyErr()
		}
	}
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = user
	return user.ID, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUserStore) GetByUsernameOrEmail(_ context.Context, identifier string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) List(_ context.Context) ([]models.User, error) {
	result := make([]models.User, 0, len(f.users))
	for id := int64(1); id <= f.nextID; id++ {
		if u, ok := f.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func setupAuthService(t *testing.T) (AuthService, *session.Store, *fakeUserStore) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := session.NewStore(client)
	jwtService := auth.NewJWTService("test-secret", "qbank.test", time.Hour)
	users := newFakeUserStore()

	return NewAuthService(users, sessions, jwtService), sessions, users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, sessions, _ := setupAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, &dto.RegisterRequest{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "user", user.Role)

	resp, err := svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.Equal(t, "Bearer", resp.Token.TokenType)

	// login by email works too
	resp, err = svc.Login(ctx, &dto.LoginRequest{Username: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)

	// the session record is live
	jwtService := auth.NewJWTService("test-secret", "qbank.test", time.Hour)
	claims, err := jwtService.ValidateToken(resp.Token.AccessToken)
	require.NoError(t, err)

	record, err := sessions.Get(ctx, claims.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, record.UserID)
	assert.Equal(t, models.RoleUser, record.Role)
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "c@d.com", Password: "password123"})
	assert.True(t, errors.Is(err, apperrors.ErrUserAlreadyExists))
}

func TestRegisterRejectsSupremeuser(t *testing.T) {
	svc, _, _ := setupAuthService(t)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Username: "mallory",
		Email:    "m@b.com",
		Password: "password123",
		Role:     models.RoleSupremeuser,
	})
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}

func TestLoginBadCredentials(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "wrong"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))

	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "password123"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCredentials))
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, sessions, _ := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	jwtService := auth.NewJWTService("test-secret", "qbank.test", time.Hour)
	claims, err := jwtService.ValidateToken(resp.Token.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims.ID))

	_, err = sessions.Get(ctx, claims.ID)
	assert.True(t, errors.Is(err, apperrors.ErrSessionNotFound))
}

func TestListUsers(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, &dto.RegisterRequest{Username: "bob", Email: "b@b.com", Password: "password123", Role: models.RoleSuperuser})
	require.NoError(t, err)

	reviewer := appauth.Principal{UserID: 2, Username: "bob", Role: models.RoleSuperuser}
	users, err := svc.ListUsers(ctx, reviewer)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "user", users[0].Role)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, "superuser", users[1].Role)
}

func TestListUsersRequiresSuperuser(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	plain := appauth.Principal{UserID: 1, Username: "alice", Role: models.RoleUser}
	_, err = svc.ListUsers(ctx, plain)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
}
