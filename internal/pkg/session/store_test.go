package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/pkg/apperrors"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStore(client), mr
}

func TestStoreSaveAndGet(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	record := Record{UserID: 7, Username: "alice", Role: models.RoleSuperuser}
	require.NoError(t, store.Save(ctx, "sid-1", record, time.Minute))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, record, *got)
}

func TestStoreGetMissing(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.Get(context.Background(), "unknown")
	assert.True(t, errors.Is(err, apperrors.ErrSessionNotFound))
}

func TestStoreExpiry(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	record := Record{UserID: 1, Username: "bob", Role: models.RoleUser}
	require.NoError(t, store.Save(ctx, "sid-2", record, time.Second))

	mr.FastForward(2 * time.Second)

	_, err := store.Get(ctx, "sid-2")
	assert.True(t, errors.Is(err, apperrors.ErrSessionNotFound))
}

func TestStoreDelete(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	record := Record{UserID: 3, Username: "carol", Role: models.RoleSupremeuser}
	require.NoError(t, store.Save(ctx, "sid-3", record, time.Minute))
	require.NoError(t, store.Delete(ctx, "sid-3"))

	_, err := store.Get(ctx, "sid-3")
	assert.True(t, errors.Is(err, apperrors.ErrSessionNotFound))

	// deleting again is a no-op
	assert.NoError(t, store.Delete(ctx, "sid-3"))
}
