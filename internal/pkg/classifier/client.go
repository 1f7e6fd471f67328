// Package classifier calls the external difficulty classification service.
// The service is optional; when no URL is configured every call reports
// apperrors.ErrClassifierDisabled and callers fall back to a default.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/qbankhq/qbank/internal/pkg/apperrors"
)

type classifyRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type classifyResponse struct {
	Difficulty string `json:"difficulty"`
}

// Client talks to the classifier service over HTTP
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a classifier client. An empty baseURL disables it.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Enabled reports whether a classifier service is configured
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Classify sends a question to the classifier and returns the predicted
// difficulty. The sessionID ties the request to the submitting user's session.
func (c *Client) Classify(ctx context.Context, sessionID, question string) (string, error) {
	return c.classify(ctx, sessionID, question, c.timeout)
}

// ClassifyQuick is Classify with a shorter deadline, used by the
// interactive passthrough endpoint.
func (c *Client) ClassifyQuick(ctx context.Context, sessionID, question string) (string, error) {
	return c.classify(ctx, sessionID, question, 15*time.Second)
}

func (c *Client) classify(ctx context.Context, sessionID, question string, timeout time.Duration) (string, error) {
	if !c.Enabled() {
		return "", apperrors.ErrClassifierDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(classifyRequest{SessionID: sessionID, Question: question})
	if err != nil {
		return "", fmt.Errorf("failed to marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", apperrors.ErrClassifierUnavailable, resp.StatusCode)
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: invalid response body", apperrors.ErrClassifierUnavailable)
	}

	if result.Difficulty == "" {
		return "", fmt.Errorf("%w: empty difficulty", apperrors.ErrClassifierUnavailable)
	}

	return result.Difficulty, nil
}
