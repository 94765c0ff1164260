package bridge

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/desertthunder/shelfbridge/internal/models"
	"github.com/desertthunder/shelfbridge/internal/services"
	"github.com/desertthunder/shelfbridge/internal/shared"
)

func newTestTranslator(lookup ItemLookup) *Translator {
	tr := NewTranslator(lookup, staticCreds{bearer("abs-token")}, shared.NewLogger(io.Discard))
	tr.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return tr
}

func translationKind(t *testing.T, err error) TranslationKind {
	t.Helper()
	var terr *TranslationError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TranslationError, got %v", err)
	}
	return terr.Kind
}

func TestTranslator(t *testing.T) {
	t.Run("Resolves ASIN And Stamps Translation Time", func(t *testing.T) {
		lookup := &fakeLookup{items: map[string]*services.LibraryItem{"L1": itemWithASIN("L1", "B001")}}
		tr := newTestTranslator(lookup)

		u, err := tr.Translate(context.Background(), models.RawProgressEvent{
			SourceItemID: "L1", ProgressFraction: 0.42, PositionSeconds: 630, DurationSeconds: 1500,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := models.ResolvedUpdate{
			ExternalID: "B001", SourceItemID: "L1", ProgressFraction: 0.42,
			PositionSeconds: 630, DurationSeconds: 1500, ObservedAt: 1700000000000,
		}
		if *u != want {
			t.Errorf("got %+v, want %+v", *u, want)
		}
		if lookup.seen[0] != "abs-token" {
			t.Errorf("expected lookup with session credential, got %q", lookup.seen[0])
		}
	})

	t.Run("Missing ID", func(t *testing.T) {
		lookup := &fakeLookup{}
		_, err := newTestTranslator(lookup).Translate(context.Background(), models.RawProgressEvent{ProgressFraction: 0.5})

		if kind := translationKind(t, err); kind != MissingID {
			t.Errorf("expected MissingID, got %s", kind)
		}
		if !errors.Is(err, shared.ErrMissingID) {
			t.Error("expected error to match ErrMissingID")
		}
		if lookup.calls != 0 {
			t.Error("expected no lookup for an event without an item id")
		}
	})

	t.Run("Fails Fast Without Credential", func(t *testing.T) {
		lookup := &fakeLookup{}
		tr := NewTranslator(lookup, NewSession(), shared.NewLogger(io.Discard))

		_, err := tr.Translate(context.Background(), models.RawProgressEvent{SourceItemID: "L1"})
		if kind := translationKind(t, err); kind != LookupFailed {
			t.Errorf("expected LookupFailed, got %s", kind)
		}
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if lookup.calls != 0 {
			t.Error("expected no lookup without a credential")
		}
	})

	t.Run("Lookup Failed", func(t *testing.T) {
		lookup := &fakeLookup{err: shared.ErrTransport}
		_, err := newTestTranslator(lookup).Translate(context.Background(), models.RawProgressEvent{SourceItemID: "L1"})

		if kind := translationKind(t, err); kind != LookupFailed {
			t.Errorf("expected LookupFailed, got %s", kind)
		}
		if !errors.Is(err, shared.ErrLookupFailed) || !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected lookup and transport sentinels, got %v", err)
		}
		if lookup.calls != 1 {
			t.Errorf("expected exactly one lookup, got %d", lookup.calls)
		}
	})

	t.Run("No External ID", func(t *testing.T) {
		lookup := &fakeLookup{items: map[string]*services.LibraryItem{"L1": itemWithASIN("L1", "")}}
		_, err := newTestTranslator(lookup).Translate(context.Background(), models.RawProgressEvent{SourceItemID: "L1"})

		if kind := translationKind(t, err); kind != NoExternalID {
			t.Errorf("expected NoExternalID, got %s", kind)
		}
	})

	t.Run("Clamps Out Of Range Values", func(t *testing.T) {
		lookup := &fakeLookup{items: map[string]*services.LibraryItem{"L1": itemWithASIN("L1", "B001")}}
		tr := newTestTranslator(lookup)

		tc := []struct {
			name     string
			in       models.RawProgressEvent
			progress float64
			position float64
		}{
			{"above one", models.RawProgressEvent{SourceItemID: "L1", ProgressFraction: 1.7}, 1, 0},
			{"negative", models.RawProgressEvent{SourceItemID: "L1", ProgressFraction: -0.2, PositionSeconds: -3}, 0, 0},
			{"nan", models.RawProgressEvent{SourceItemID: "L1", ProgressFraction: math.NaN(), PositionSeconds: 12}, 0, 12},
			{"missing fields", models.RawProgressEvent{SourceItemID: "L1"}, 0, 0},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				u, err := tr.Translate(context.Background(), tt.in)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if u.ProgressFraction != tt.progress || u.PositionSeconds != tt.position {
					t.Errorf("got progress=%v position=%v", u.ProgressFraction, u.PositionSeconds)
				}
			})
		}
	})

	t.Run("Records Items And Ignores Recorder Errors", func(t *testing.T) {
		lookup := &fakeLookup{items: map[string]*services.LibraryItem{"L1": itemWithASIN("L1", "B001")}}
		tr := newTestTranslator(lookup)
		rec := &fakeRecorder{err: errors.New("disk full")}
		tr.SetRecorder(rec)

		if _, err := tr.Translate(context.Background(), models.RawProgressEvent{SourceItemID: "L1"}); err != nil {
			t.Fatalf("expected recorder error to be ignored, got %v", err)
		}
		if rec.items["L1"] != "B001" {
			t.Errorf("expected item to be recorded, got %v", rec.items)
		}
	})
}

func TestTranslationError(t *testing.T) {
	err := &TranslationError{Kind: LookupFailed, ItemID: "L1", Err: shared.ErrItemNotFound}
	if err.Error() != "item lookup failed for item L1: item not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if MissingID.String() != "missing_id" || NoExternalID.String() != "no_external_id" {
		t.Error("unexpected kind names")
	}
}
