package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/shelfbridge/internal/formatter"
	"github.com/desertthunder/shelfbridge/internal/repositories"
	"github.com/desertthunder/shelfbridge/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheList prints the resolved item cache in the requested format.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	repo, closeDB, err := r.itemRepository()
	if err != nil {
		return err
	}
	defer closeDB()

	items, err := repo.List(map[string]any{
		"external_id": cmd.String("asin"),
		"limit":       int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	r.logger.Debug("listing cached items", "count", len(items), "format", format)
	output := cmd.String("output")
	if err := formatter.WriteExport(items, format, output, r.output); err != nil {
		return err
	}
	if output != "" {
		r.writePlain("✓ %d items written to %s\n", len(items), output)
	}
	return nil
}

// CacheClear deletes every cached item.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.itemRepository()
	if err != nil {
		return err
	}
	defer closeDB()

	items, err := repo.List(nil)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := repo.Delete(item.ID()); err != nil {
			return err
		}
	}
	return r.writePlain("✓ Removed %d cached items\n", len(items))
}

func (r *Runner) itemRepository() (*repositories.ItemRepository, func(), error) {
	db, err := r.openDatabase()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if db == nil {
		return nil, nil, fmt.Errorf("%w: database disabled", shared.ErrInvalidInput)
	}
	return repositories.NewItemRepository(db), func() { db.Close() }, nil
}
