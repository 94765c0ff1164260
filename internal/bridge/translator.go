package bridge

import (
	"context"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelfbridge/internal/models"
	"github.com/desertthunder/shelfbridge/internal/services"
	"github.com/desertthunder/shelfbridge/internal/shared"
	"golang.org/x/oauth2"
)

// ItemLookup fetches library item metadata from the source server.
type ItemLookup interface {
	GetItem(ctx context.Context, token *oauth2.Token, itemID string) (*services.LibraryItem, error)
}

// CredentialSource exposes the held source credential. [*Session] implements it.
type CredentialSource interface {
	Credential() *oauth2.Token
}

// ItemRecorder persists resolved items (see repositories.ItemCacheAdapter).
//
// Errors are logged and otherwise ignored.
type ItemRecorder interface {
	RecordItem(itemID, externalID, title, author string) error
}

// Translator turns a [models.RawProgressEvent] into a [models.ResolvedUpdate].
//
// It keeps no per-event state and is safe for concurrent use.
type Translator struct {
	lookup   ItemLookup
	creds    CredentialSource
	recorder ItemRecorder
	now      func() time.Time
	logger   *log.Logger
}

func NewTranslator(lookup ItemLookup, creds CredentialSource, logger *log.Logger) *Translator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Translator{lookup: lookup, creds: creds, now: time.Now, logger: logger}
}

// SetRecorder enables the item cache. Call before the translator is shared.
func (t *Translator) SetRecorder(r ItemRecorder) {
	t.recorder = r
}

// Translate resolves the event's item to its ASIN. Failures are [*TranslationError] and are never retried.
func (t *Translator) Translate(ctx context.Context, ev models.RawProgressEvent) (*models.ResolvedUpdate, error) {
	if ev.SourceItemID == "" {
		return nil, &TranslationError{Kind: MissingID}
	}

	token := t.creds.Credential()
	if token == nil || token.AccessToken == "" {
		return nil, &TranslationError{Kind: LookupFailed, ItemID: ev.SourceItemID, Err: shared.ErrNotAuthenticated}
	}

	item, err := t.lookup.GetItem(ctx, token, ev.SourceItemID)
	if err != nil {
		return nil, &TranslationError{Kind: LookupFailed, ItemID: ev.SourceItemID, Err: err}
	}

	asin := item.ExternalID()
	if asin == "" {
		return nil, &TranslationError{Kind: NoExternalID, ItemID: ev.SourceItemID}
	}

	if t.recorder != nil {
		if err := t.recorder.RecordItem(ev.SourceItemID, asin, item.Title(), item.Author()); err != nil {
			t.logger.Debug("failed to cache item", "item", ev.SourceItemID, "error", err)
		}
	}

	return &models.ResolvedUpdate{
		ExternalID:       asin,
		SourceItemID:     ev.SourceItemID,
		ProgressFraction: clamp(ev.ProgressFraction, 0, 1),
		PositionSeconds:  clamp(ev.PositionSeconds, 0, math.Inf(1)),
		DurationSeconds:  clamp(ev.DurationSeconds, 0, math.Inf(1)),
		ObservedAt:       t.now().UnixMilli(),
	}, nil
}

// clamp bounds v to [lo, hi]; NaN becomes lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
