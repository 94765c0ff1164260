package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/shelfbridge/internal/models"
	"github.com/desertthunder/shelfbridge/internal/shared"
)

const itemColumns = "id, sequence, item_id, external_id, title, author, resolved_at, created_at, updated_at"

// ItemRepository implements models.Repository[*models.Item] for resolved library items.
type ItemRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Item] = (*ItemRepository)(nil)

// NewItemRepository creates a new ItemRepository with the given database connection
func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts a new [models.Item] with generated ID and sequence
func (r *ItemRepository) Create(item *models.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "items")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	item.SetID(id)
	item.SetSequence(sequence)

	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		item.ItemID(),
		item.ExternalID(),
		item.Title(),
		item.Author(),
		item.ResolvedAt(),
		item.CreatedAt(),
		item.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

// Get retrieves an item by row ID
func (r *ItemRepository) Get(id string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`
	return scanItem(r.db.QueryRow(query, id))
}

// GetByItemID retrieves an item by its Audiobookshelf library item id
func (r *ItemRepository) GetByItemID(itemID string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE item_id = ?`
	return scanItem(r.db.QueryRow(query, itemID))
}

// Update rewrites the ASIN and details of an existing item and marks it resolved now
func (r *ItemRepository) Update(item *models.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	item.SetUpdatedAt(now)
	item.SetResolvedAt(now)

	query := `
		UPDATE items
		SET external_id = ?, title = ?, author = ?, resolved_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, item.ExternalID(), item.Title(), item.Author(), now, now, item.ID())
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrItemNotFound, item.ID())
	}

	return nil
}

// Delete removes an item by row ID
func (r *ItemRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrItemNotFound, id)
	}

	return nil
}

// List retrieves items in sequence order.
//
// Supported criteria: "external_id" (string) and "limit" (int).
func (r *ItemRepository) List(criteria map[string]any) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1 = 1`
	args := []any{}

	if asin, ok := criteria["external_id"].(string); ok && asin != "" {
		query += " AND external_id = ?"
		args = append(args, asin)
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// Upsert stores a resolution, updating the existing row for the same library item.
func (r *ItemRepository) Upsert(item *models.Item) error {
	existing, err := r.GetByItemID(item.ItemID())
	if errors.Is(err, shared.ErrItemNotFound) {
		return r.Create(item)
	}
	if err != nil {
		return err
	}

	existing.SetExternalID(item.ExternalID())
	existing.SetDetails(item.Title(), item.Author())
	if err := r.Update(existing); err != nil {
		return err
	}

	item.SetID(existing.ID())
	item.SetSequence(existing.Sequence())
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanItem scans a [sql.Row] or the current row of [sql.Rows] into a [models.Item]
func scanItem(s scanner) (*models.Item, error) {
	var (
		id, itemID, externalID, title, author string
		sequence                              int
		resolvedAt, createdAt, updatedAt      time.Time
	)

	err := s.Scan(&id, &sequence, &itemID, &externalID, &title, &author, &resolvedAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	return models.RestoreItem(id, sequence, itemID, externalID, title, author, resolvedAt, createdAt, updatedAt), nil
}
