// Audiobookshelf API client
//
// Endpoints based on https://api.audiobookshelf.org/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/shelfbridge/internal/shared"
	"golang.org/x/oauth2"
)

const defaultABSBaseURL = "http://localhost:13378"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User struct {
		ID          string `json:"id"`
		Username    string `json:"username"`
		Token       string `json:"token"`
		AccessToken string `json:"accessToken"`
	} `json:"user"`
}

// Audiobookshelf is a client for the Audiobookshelf REST API.
type Audiobookshelf struct {
	baseURL    string
	httpClient *http.Client
}

// NewAudiobookshelf creates a client for the server at baseURL.
//
// client carries the request timeout; nil uses [http.DefaultClient].
func NewAudiobookshelf(baseURL string, client *http.Client) *Audiobookshelf {
	if baseURL == "" {
		baseURL = defaultABSBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Audiobookshelf{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the server address.
func (a *Audiobookshelf) BaseURL() string {
	return a.baseURL
}

// Login exchanges a username and password for the user's API token.
func (a *Audiobookshelf) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, joinURL(a.baseURL, "/login"), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: login request failed: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", statusError(resp, shared.ErrAuthFailed)
	}

	var result loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: failed to decode login response: %v", shared.ErrAuthFailed, err)
	}

	token := result.User.Token
	if token == "" {
		token = result.User.AccessToken
	}
	if token == "" {
		return "", fmt.Errorf("%w: login response has no token", shared.ErrAuthFailed)
	}

	return token, nil
}

// GetItem fetches a library item using token as the bearer credential.
func (a *Audiobookshelf) GetItem(ctx context.Context, token *oauth2.Token, itemID string) (*LibraryItem, error) {
	if token == nil || token.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	endpoint := joinURL(a.baseURL, "/api/items/"+url.PathEscape(itemID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := authorizedClient(a.httpClient, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: item request failed: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, statusError(resp, shared.ErrItemNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthRejected, statusError(resp, shared.ErrAPIRequest))
	case !isSuccess(resp.StatusCode):
		return nil, statusError(resp, shared.ErrAPIRequest)
	}

	var item LibraryItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("%w: failed to decode item: %v", shared.ErrAPIRequest, err)
	}
	if item.ID == "" {
		item.ID = itemID
	}

	return &item, nil
}
