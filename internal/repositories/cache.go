package repositories

import (
	"fmt"

	"github.com/desertthunder/shelfbridge/internal/models"
)

// ItemCacheAdapter implements bridge.ItemRecorder using ItemRepository.
//
// Re-resolving an item updates its row, so the cache always holds the latest ASIN.
type ItemCacheAdapter struct {
	repo *ItemRepository
}

// NewItemCacheAdapter creates a new ItemCacheAdapter with the given repository
func NewItemCacheAdapter(repo *ItemRepository) *ItemCacheAdapter {
	return &ItemCacheAdapter{repo: repo}
}

// RecordItem caches a resolved item.
func (a *ItemCacheAdapter) RecordItem(itemID, externalID, title, author string) error {
	if err := a.repo.Upsert(models.NewItem(itemID, externalID, title, author)); err != nil {
		return fmt.Errorf("failed to cache item: %w", err)
	}
	return nil
}

// CredentialCacheAdapter implements bridge.CredentialCache for one server and user.
type CredentialCacheAdapter struct {
	repo      *CredentialRepository
	serverURL string
	username  string
}

// NewCredentialCacheAdapter binds repo to serverURL and username.
func NewCredentialCacheAdapter(repo *CredentialRepository, serverURL, username string) *CredentialCacheAdapter {
	return &CredentialCacheAdapter{repo: repo, serverURL: serverURL, username: username}
}

func (a *CredentialCacheAdapter) Load() (string, error) {
	return a.repo.Load(a.serverURL, a.username)
}

func (a *CredentialCacheAdapter) Save(token string) error {
	return a.repo.Save(a.serverURL, a.username, token)
}

func (a *CredentialCacheAdapter) Clear() error {
	return a.repo.Clear(a.serverURL, a.username)
}
