package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/shelfbridge/internal/models"
)

// itemID decodes a JSON string. Any other value decodes as empty so the event is still delivered.
type itemID string

func (id *itemID) UnmarshalJSON(b []byte) error {
	var s string
	if json.Unmarshal(b, &s) == nil {
		*id = itemID(s)
	}
	return nil
}

type progressFields struct {
	LibraryItemID itemID          `json:"libraryItemId"`
	Progress      *float64        `json:"progress"`
	CurrentTime   *float64        `json:"currentTime"`
	Duration      *float64        `json:"duration"`
	MediaProgress *progressFields `json:"mediaProgress"`
}

type progressEnvelope struct {
	Data *progressFields `json:"data"`
	progressFields
}

// ParseProgressEvent decodes a progress event payload.
//
// Fields may sit under a data envelope or at the top level, and either flat or nested under mediaProgress.
// Nested values win; missing numbers are zero. A libraryItemId that is not a string
// is treated as absent. Only malformed JSON is an error.
func ParseProgressEvent(raw json.RawMessage) (models.RawProgressEvent, error) {
	var ev models.RawProgressEvent
	if len(raw) == 0 {
		return ev, nil
	}

	var env progressEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ev, fmt.Errorf("invalid progress payload: %w", err)
	}

	body := &env.progressFields
	if env.Data != nil {
		body = env.Data
	}
	fields := []*progressFields{body.MediaProgress, body}

	ev.SourceItemID = firstString(fields, func(f *progressFields) string { return string(f.LibraryItemID) })
	ev.ProgressFraction = firstNumber(fields, func(f *progressFields) *float64 { return f.Progress })
	ev.PositionSeconds = firstNumber(fields, func(f *progressFields) *float64 { return f.CurrentTime })
	ev.DurationSeconds = firstNumber(fields, func(f *progressFields) *float64 { return f.Duration })
	return ev, nil
}

func firstString(fields []*progressFields, get func(*progressFields) string) string {
	for _, f := range fields {
		if f == nil {
			continue
		}
		if v := get(f); v != "" {
			return v
		}
	}
	return ""
}

func firstNumber(fields []*progressFields, get func(*progressFields) *float64) float64 {
	for _, f := range fields {
		if f == nil {
			continue
		}
		if v := get(f); v != nil {
			return *v
		}
	}
	return 0
}
