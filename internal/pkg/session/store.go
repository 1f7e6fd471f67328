// Package session stores active login sessions in Redis. A session record
// is written on login keyed by the token's jti and removed on logout, so
// tokens can be revoked before they expire.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/pkg/apperrors"
)

const keyPrefix = "session:"

// Record is the payload stored per active session
type Record struct {
	UserID   int64           `json:"userId"`
	Username string          `json:"username"`
	Role     models.RoleType `json:"role"`
}

// Store persists session records in Redis with a TTL
type Store struct {
	client *redis.Client
}

// NewStore creates a session store backed by the given Redis client
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}

// Save writes a session record with the given lifetime
func (s *Store) Save(ctx context.Context, sessionID string, record Record, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sessionID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// Get fetches a session record, returning apperrors.ErrSessionNotFound
// when the session is missing or expired
func (s *Store) Get(ctx context.Context, sessionID string) (*Record, error) {
	payload, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("failed to decode session record: %w", err)
	}

	return &record, nil
}

// Delete removes a session record. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
