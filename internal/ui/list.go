package ui

import (
	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = accountItem{}
)

// accountItem wraps a pool account id to implement [list.Item].
type accountItem struct {
	id       string
	loggedIn bool
}

func (i accountItem) FilterValue() string { return i.id }
func (i accountItem) Title() string       { return i.id }
func (i accountItem) Description() string {
	if i.loggedIn {
		return "token cached"
	}
	return "login required: spool auth login " + i.id
}
