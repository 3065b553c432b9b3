package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spool/internal/tasks"
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
	MsgActionDone MsgKind = iota
	MsgAccountsLoaded
)

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(result tasks.Result) Msg {
	return Msg{kind: MsgActionDone, data: result}
}

// accountsLoadedMsg is the constructor for [MsgAccountsLoaded]
func accountsLoadedMsg(accounts []string) Msg {
	return Msg{kind: MsgAccountsLoaded, data: accounts}
}
