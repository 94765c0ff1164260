package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/desertthunder/shelfbridge/internal/models"
	"github.com/desertthunder/shelfbridge/internal/shared"
)

func TestParseProgressEvent(t *testing.T) {
	full := models.RawProgressEvent{SourceItemID: "L1", ProgressFraction: 0.42, PositionSeconds: 630, DurationSeconds: 1500}

	tc := []struct {
		name string
		in   string
		want models.RawProgressEvent
	}{
		{
			name: "data envelope flat",
			in:   `{"id":"p1","data":{"libraryItemId":"L1","progress":0.42,"currentTime":630,"duration":1500}}`,
			want: full,
		},
		{
			name: "data envelope with mediaProgress",
			in:   `{"data":{"mediaProgress":{"libraryItemId":"L1","progress":0.42,"currentTime":630,"duration":1500}}}`,
			want: full,
		},
		{
			name: "no envelope flat",
			in:   `{"libraryItemId":"L1","progress":0.42,"currentTime":630,"duration":1500}`,
			want: full,
		},
		{
			name: "no envelope with mediaProgress",
			in:   `{"mediaProgress":{"libraryItemId":"L1","progress":0.42,"currentTime":630,"duration":1500}}`,
			want: full,
		},
		{
			name: "nested falls back to outer fields",
			in:   `{"data":{"libraryItemId":"L1","duration":1500,"mediaProgress":{"progress":0.42,"currentTime":630}}}`,
			want: full,
		},
		{
			name: "partial payload defaults to zero",
			in:   `{"data":{"libraryItemId":"L1"}}`,
			want: models.RawProgressEvent{SourceItemID: "L1"},
		},
		{
			name: "non-string item id is absent",
			in:   `{"data":{"libraryItemId":123,"progress":0.42}}`,
			want: models.RawProgressEvent{ProgressFraction: 0.42},
		},
		{
			name: "empty",
			in:   ``,
			want: models.RawProgressEvent{},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProgressEvent(json.RawMessage(tt.in))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	t.Run("numeric item id translates as missing", func(t *testing.T) {
		ev, err := ParseProgressEvent(json.RawMessage(`{"data":{"libraryItemId":123}}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err = newTestTranslator(&fakeLookup{}).Translate(context.Background(), ev)
		var terr *TranslationError
		if !errors.As(err, &terr) || terr.Kind != MissingID || !errors.Is(err, shared.ErrMissingID) {
			t.Errorf("expected MissingID, got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := ParseProgressEvent(json.RawMessage(`{"data":`)); err == nil {
			t.Error("expected error")
		}
	})
}
