package bridge

import (
	"fmt"
	"time"

	"github.com/desertthunder/shelfbridge/internal/models"
)

// Update is a status event for CLI or UI display.
type Update struct {
	Kind       UpdateKind
	State      State  // Connection state after the change
	SessionID  string // Connection attempt the update belongs to
	ItemID     string
	ExternalID string
	Progress   float64
	Message    string // Human-readable message for display
	Err        error
	At         time.Time
}

// UpdateKind enumerates [Update] sources.
type UpdateKind int

const (
	StateChanged UpdateKind = iota
	Subscribed
	Published
	Dropped
)

func (k UpdateKind) String() string {
	switch k {
	case StateChanged:
		return "state"
	case Subscribed:
		return "subscribed"
	case Published:
		return "published"
	case Dropped:
		return "dropped"
	default:
		return ""
	}
}

// sendUpdate delivers u without blocking; full or nil channels drop it.
func sendUpdate(ch chan<- Update, u Update) {
	if ch == nil {
		return
	}
	if u.At.IsZero() {
		u.At = time.Now()
	}
	select {
	case ch <- u:
	default:
	}
}

func stateUpdate(id string, st State) Update {
	return Update{
		Kind:      StateChanged,
		State:     st,
		SessionID: id,
		Message:   fmt.Sprintf("Connection %s", st),
	}
}

func subscribedUpdate(id, event string) Update {
	return Update{
		Kind:      Subscribed,
		State:     Authenticated,
		SessionID: id,
		Message:   fmt.Sprintf("Subscribed to %s", event),
	}
}

func publishedUpdate(u *models.ResolvedUpdate) Update {
	return Update{
		Kind:       Published,
		State:      Authenticated,
		ItemID:     u.SourceItemID,
		ExternalID: u.ExternalID,
		Progress:   u.ProgressFraction,
		Message:    fmt.Sprintf("✓ %s → %s (%.1f%%)", u.SourceItemID, u.ExternalID, u.Percent()),
	}
}

func droppedUpdate(itemID, asin string, err error) Update {
	label := itemID
	if label == "" {
		label = "<no item id>"
	}
	return Update{
		Kind:       Dropped,
		State:      Authenticated,
		ItemID:     itemID,
		ExternalID: asin,
		Err:        err,
		Message:    fmt.Sprintf("✗ %s: %v", label, err),
	}
}
