package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shelfbridge/internal/bridge"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgBridgeUpdate MsgKind = iota
	MsgBridgeStopped
)

// bridgeUpdateMsg is the constructor for [MsgBridgeUpdate]
func bridgeUpdateMsg(u bridge.Update) Msg {
	return Msg{kind: MsgBridgeUpdate, data: u}
}

// bridgeStoppedMsg is the constructor for [MsgBridgeStopped]
func bridgeStoppedMsg(err error) Msg {
	return Msg{kind: MsgBridgeStopped, data: err}
}
