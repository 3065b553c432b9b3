package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Action keys use ctrl chords that the text inputs leave unbound.
type keyMap struct {
	next      key.Binding
	prev      key.Binding
	switchTab key.Binding
	accounts  key.Binding
	playlists key.Binding
	submit    key.Binding
	create    key.Binding
	addTrack  key.Binding
	play      key.Binding
	clear     key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		next:      key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab/↓", "next field")),
		prev:      key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab/↑", "prev field")),
		switchTab: key.NewBinding(key.WithKeys("ctrl+right", "ctrl+left"), key.WithHelp("ctrl+←/→", "switch tab")),
		accounts:  key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "accounts")),
		playlists: key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2", "playlists")),
		submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add account")),
		create:    key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "create playlist")),
		addTrack:  key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "add song")),
		play:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "play song")),
		clear:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear log")),
		quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.switchTab, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.next, k.prev, k.switchTab},
		{k.submit, k.create, k.addTrack, k.play},
		{k.clear, k.quit},
	}
}
