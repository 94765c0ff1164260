// Package ui implements a live terminal monitor using bubbletea's Elm architecture.
//
// The monitor shows the connection state of the bridge with a spinner while it is not authenticated,
// counters for published and dropped events, and a scrollable list of recent [bridge.Update] values.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Updates flow through the same non-blocking channel the bridge reports to, so a slow terminal never stalls event handling.
//
// Keyboard navigation uses vim-style bindings (j/k, c, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
