package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/shelfbridge/internal/shared"
)

// CredentialRepository stores tokens from the login exchange, one per server URL and username.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new CredentialRepository with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Load returns the stored token, or an error wrapping [shared.ErrMissingCredentials].
func (r *CredentialRepository) Load(serverURL, username string) (string, error) {
	var token string
	err := r.db.QueryRow(
		`SELECT token FROM credentials WHERE server_url = ? AND username = ?`,
		serverURL, username,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: no stored token for %s@%s", shared.ErrMissingCredentials, username, serverURL)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	return token, nil
}

// Save stores token, replacing any previous one.
func (r *CredentialRepository) Save(serverURL, username, token string) error {
	query := `
		INSERT INTO credentials (id, server_url, username, token, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (server_url, username) DO UPDATE SET token = excluded.token, created_at = excluded.created_at
	`

	if _, err := r.db.Exec(query, shared.GenerateID(), serverURL, username, token, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing a missing token is not an error.
func (r *CredentialRepository) Clear(serverURL, username string) error {
	if _, err := r.db.Exec(`DELETE FROM credentials WHERE server_url = ? AND username = ?`, serverURL, username); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
