// MediaTracker API client
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/shelfbridge/internal/shared"
)

const (
	defaultMTBaseURL = "http://localhost:7481"
	progressEndpoint = "/api/progress/by-external-id/"
)

// MediaTracker is a client for the MediaTracker progress API.
type MediaTracker struct {
	baseURL    string
	httpClient *http.Client
}

// NewMediaTracker creates a client that authenticates every request with token.
func NewMediaTracker(baseURL, token string, client *http.Client) *MediaTracker {
	if baseURL == "" {
		baseURL = defaultMTBaseURL
	}

	return &MediaTracker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: authorizedClient(client, BearerToken(token)),
	}
}

// BaseURL returns the server address.
func (m *MediaTracker) BaseURL() string {
	return m.baseURL
}

// PutProgress upserts progress for the item identified by req.ID.
func (m *MediaTracker) PutProgress(ctx context.Context, req ProgressRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, joinURL(m.baseURL, progressEndpoint), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: progress request failed: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return statusError(resp, shared.ErrAPIRequest)
	}

	return nil
}
