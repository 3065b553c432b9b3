package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#1DB954", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title     lipgloss.Style
	ok        lipgloss.Style
	err       lipgloss.Style
	warn      lipgloss.Style
	help      lipgloss.Style
	label     lipgloss.Style
	tab       lipgloss.Style
	activeTab lipgloss.Style
	pane      lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	tab := lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.RoundedBorder(), true, true, false, true)
	return &Palette{
		title:     NewBold(t).MarginBottom(1),
		ok:        NewBold(s),
		err:       NewBold(e),
		warn:      NewStyle(w),
		help:      NewEm(h),
		label:     NewStyle(h).Width(14),
		tab:       tab.Foreground(lipgloss.Color(h)).BorderForeground(lipgloss.Color(h)),
		activeTab: tab.Foreground(lipgloss.Color(t)).BorderForeground(lipgloss.Color(t)).Bold(true),
		pane:      lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color(h)).Padding(0, 1),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
