package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/shelfbridge/internal/bridge"
	"github.com/desertthunder/shelfbridge/internal/formatter"
	"github.com/desertthunder/shelfbridge/internal/models"
	"github.com/desertthunder/shelfbridge/internal/repositories"
	"github.com/desertthunder/shelfbridge/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// heldToken adapts a resolved token to [bridge.CredentialSource].
type heldToken struct {
	token *oauth2.Token
}

func (h heldToken) Credential() *oauth2.Token { return h.token }

// Lookup resolves one library item to its ASIN using the same translator as the bridge.
func (r *Runner) Lookup(ctx context.Context, cmd *cli.Command) error {
	itemID := strings.TrimSpace(cmd.StringArg("item-id"))
	if itemID == "" {
		return fmt.Errorf("%w: item-id", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("cache database unavailable", "error", err)
	}
	if db != nil {
		defer db.Close()
	}

	abs := r.source()
	token, err := r.sourceToken(ctx, abs, db)
	if err != nil {
		return err
	}

	translator := bridge.NewTranslator(abs, heldToken{token: token}, r.logger)
	if db != nil {
		translator.SetRecorder(repositories.NewItemCacheAdapter(repositories.NewItemRepository(db)))
	}

	update, err := translator.Translate(ctx, models.RawProgressEvent{SourceItemID: itemID})
	if err != nil {
		if errors.Is(err, shared.ErrAuthRejected) {
			r.forgetCredential(abs, db)
		}
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"item_id":     update.SourceItemID,
			"external_id": update.ExternalID,
			"observed_at": update.ObservedTime(),
		}, true)
	}

	r.writePlain("✓ %s → %s\n", update.SourceItemID, update.ExternalID)
	if db != nil {
		if item, err := repositories.NewItemRepository(db).GetByItemID(itemID); err == nil {
			out, _ := formatter.ItemsToText([]*models.Item{item})
			r.writePlain("%s", out)
		}
	}
	return nil
}
