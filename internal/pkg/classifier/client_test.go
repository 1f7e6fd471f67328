package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbankhq/qbank/internal/pkg/apperrors"
)

func TestClassifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/classify", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sid-1", body["session_id"])
		assert.Equal(t, "What is 2+2?", body["question"])

		json.NewEncoder(w).Encode(map[string]string{"difficulty": "medium"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	difficulty, err := client.Classify(context.Background(), "sid-1", "What is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, "medium", difficulty)
}

func TestClassifyDisabled(t *testing.T) {
	client := NewClient("", time.Second)
	assert.False(t, client.Enabled())

	_, err := client.Classify(context.Background(), "sid", "question")
	assert.True(t, errors.Is(err, apperrors.ErrClassifierDisabled))
}

func TestClassifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Classify(context.Background(), "sid", "question")
	assert.True(t, errors.Is(err, apperrors.ErrClassifierUnavailable))
}

func TestClassifyTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"difficulty": "easy"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 50*time.Millisecond)
	_, err := client.Classify(context.Background(), "sid", "question")
	assert.True(t, errors.Is(err, apperrors.ErrClassifierUnavailable))
}

func TestClassifyEmptyDifficulty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Classify(context.Background(), "sid", "question")
	assert.True(t, errors.Is(err, apperrors.ErrClassifierUnavailable))
}
