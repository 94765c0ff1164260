package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/shelfbridge/internal/bridge"
)

var (
	_ list.Item = eventItem{}
)

// eventItem wraps a per-event [bridge.Update] to implement [list.Item].
type eventItem struct {
	update bridge.Update
}

func (i eventItem) FilterValue() string { return i.update.ItemID + " " + i.update.ExternalID }
func (i eventItem) Title() string       { return i.update.Message }
func (i eventItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.update.At.Format("15:04:05"), i.update.Kind)
	if i.update.ExternalID != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.update.ExternalID)
	}
	return desc
}
