package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/spool/internal/models"
	"github.com/desertthunder/spool/internal/shared"
	"github.com/desertthunder/spool/internal/tasks"
)

// Tab identifies one of the two screens.
type Tab int

const (
	AccountsTab Tab = iota
	PlaylistsTab
)

func (t Tab) String() string {
	if t == AccountsTab {
		return "Accounts"
	}
	return "Playlists"
}

// Accounts tab fields
const (
	fieldUsername = iota
	fieldPassword
)

// Playlists tab fields
const (
	fieldAccount = iota
	fieldName
	fieldDescription
	fieldPlaylistID
	fieldTrackURI
)

const defaultMaxLog = 200

// Dispatcher starts actions in the background. [tasks.Dispatcher] implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req tasks.Request) *tasks.Task
}

// AccountLister lists pool accounts. [vault.Store] implements it.
type AccountLister interface {
	Accounts() []string
}

// TokenChecker reports whether an account has a cached login.
type TokenChecker interface {
	Has(account string) bool
}

// Options holds the dependencies of a [Model].
type Options struct {
	Dispatcher Dispatcher
	Accounts   AccountLister
	Tokens     TokenChecker // optional
	Playlist   shared.PlaylistConfig
	MaxLog     int
}

type statusLine struct {
	at   time.Time
	ok   bool
	text string
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	dispatcher Dispatcher
	accounts   AccountLister
	tokens     TokenChecker

	tab            Tab
	focus          int
	accountInputs  []textinput.Model
	playlistInputs []textinput.Model
	accountList    list.Model

	status  []statusLine
	maxLog  int
	log     viewport.Model
	spinner spinner.Model
	pending int

	width  int
	height int
	help   help.Model
	keys   keyMap
	now    func() time.Time
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.MaxLog <= 0 {
		opts.MaxLog = defaultMaxLog
	}

	username := newInput("spotify username")
	password := newInput("password")
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	account := newInput("account from the pool")
	account.ShowSuggestions = true
	account.KeyMap.AcceptSuggestion = key.NewBinding(key.WithKeys("right"))
	name := newInput(placeholder(opts.Playlist.DefaultName, "playlist name"))
	description := newInput(placeholder(opts.Playlist.DefaultDescription, "optional"))
	playlistID := newInput("filled in after create")
	trackURI := newInput("spotify:track:...")

	accountList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	accountList.Title = "Pool"
	accountList.SetShowHelp(false)
	accountList.SetFilteringEnabled(false)

	m := &Model{
		ctx:            ctx,
		dispatcher:     opts.Dispatcher,
		accounts:       opts.Accounts,
		tokens:         opts.Tokens,
		tab:            AccountsTab,
		accountInputs:  []textinput.Model{username, password},
		playlistInputs: []textinput.Model{account, name, description, playlistID, trackURI},
		accountList:    accountList,
		maxLog:         opts.MaxLog,
		log:            viewport.New(80, 8),
		spinner:        spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:           help.New(),
		keys:           newKeyMap(),
		now:            time.Now,
	}
	m.setFocus(0)
	return m
}

func newInput(ph string) textinput.Model {
	in := textinput.New()
	in.Placeholder = ph
	in.Prompt = ""
	in.Width = 40
	return in
}

func placeholder(def, fallback string) string {
	if def != "" {
		return def
	}
	return fallback
}

// Init initializes the TUI by loading the pool's accounts.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadAccounts())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.accountList.SetSize(max(msg.Width/3, 20), max(msg.Height-16, 5))
		m.log.Width = max(msg.Width-4, 20)
		m.log.Height = max(msg.Height/3, 5)
		m.refreshLog()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgActionDone:
			return m, m.handleResult(msg.data.(tasks.Result))
		case MsgAccountsLoaded:
			m.setAccounts(msg.data.([]string))
			return m, nil
		}
	}

	return m.updateInput(msg)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.switchTab):
		return m, m.setTab(1 - m.tab)
	case key.Matches(msg, m.keys.accounts):
		return m, m.setTab(AccountsTab)
	case key.Matches(msg, m.keys.playlists):
		return m, m.setTab(PlaylistsTab)
	case key.Matches(msg, m.keys.clear):
		m.status = nil
		m.refreshLog()
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.setFocus((m.focus + 1) % len(m.inputs()))
	case key.Matches(msg, m.keys.prev):
		n := len(m.inputs())
		return m, m.setFocus((m.focus - 1 + n) % n)
	}

	if m.tab == AccountsTab {
		if key.Matches(msg, m.keys.submit) {
			return m, m.addAccount()
		}
		return m.updateInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.create):
		return m, m.playlistAction(models.ActionCreatePlaylist)
	case key.Matches(msg, m.keys.addTrack):
		return m, m.playlistAction(models.ActionAddTrack)
	case key.Matches(msg, m.keys.play):
		return m, m.playlistAction(models.ActionPlayTrack)
	case key.Matches(msg, m.keys.submit):
		return m, m.setFocus((m.focus + 1) % len(m.inputs()))
	}
	return m.updateInput(msg)
}

func (m *Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	inputs := m.inputs()
	var cmd tea.Cmd
	inputs[m.focus], cmd = inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) inputs() []textinput.Model {
	if m.tab == AccountsTab {
		return m.accountInputs
	}
	return m.playlistInputs
}

func (m *Model) setTab(t Tab) tea.Cmd {
	m.tab = t
	return m.setFocus(0)
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.focus = i
	for _, inputs := range [][]textinput.Model{m.accountInputs, m.playlistInputs} {
		for j := range inputs {
			inputs[j].Blur()
		}
	}
	return m.inputs()[i].Focus()
}

func (m *Model) value(inputs []textinput.Model, field int) string {
	return strings.TrimSpace(inputs[field].Value())
}

func (m *Model) addAccount() tea.Cmd {
	req := tasks.Request{
		Action:   models.ActionAddAccount,
		Account:  m.value(m.accountInputs, fieldUsername),
		Password: m.accountInputs[fieldPassword].Value(),
	}
	m.accountInputs[fieldPassword].Reset()
	return m.dispatch(req)
}

func (m *Model) playlistAction(action models.Action) tea.Cmd {
	in := m.playlistInputs
	req := tasks.Request{Action: action, Account: m.value(in, fieldAccount)}

	switch action {
	case models.ActionCreatePlaylist:
		req.Name = m.value(in, fieldName)
		req.Description = m.value(in, fieldDescription)
	case models.ActionAddTrack:
		req.PlaylistID = m.value(in, fieldPlaylistID)
		req.TrackURI = m.value(in, fieldTrackURI)
	case models.ActionPlayTrack:
		req.TrackURI = m.value(in, fieldTrackURI)
	}
	return m.dispatch(req)
}

// dispatch starts req in the background and returns a command that waits for its result.
func (m *Model) dispatch(req tasks.Request) tea.Cmd {
	if m.dispatcher == nil {
		m.appendStatus(false, "Error: no dispatcher configured")
		return nil
	}

	task := m.dispatcher.Dispatch(m.ctx, req)
	m.pending++
	wait := func() tea.Msg { return actionDoneMsg(task.Result()) }
	if m.pending == 1 {
		return tea.Batch(wait, m.spinner.Tick)
	}
	return wait
}

func (m *Model) handleResult(res tasks.Result) tea.Cmd {
	if m.pending > 0 {
		m.pending--
	}
	m.appendStatus(res.OK(), res.Message())

	if !res.OK() {
		return nil
	}

	switch res.Request.Action {
	case models.ActionAddAccount:
		m.accountInputs[fieldUsername].Reset()
		return m.loadAccounts()
	case models.ActionCreatePlaylist:
		m.playlistInputs[fieldPlaylistID].SetValue(res.Value)
	}
	return nil
}

func (m *Model) loadAccounts() tea.Cmd {
	if m.accounts == nil {
		return nil
	}
	return func() tea.Msg { return accountsLoadedMsg(m.accounts.Accounts()) }
}

func (m *Model) setAccounts(ids []string) {
	items := make([]list.Item, len(ids))
	for i, id := range ids {
		items[i] = accountItem{id: id, loggedIn: m.tokens != nil && m.tokens.Has(id)}
	}
	m.accountList.SetItems(items)
	m.playlistInputs[fieldAccount].SetSuggestions(ids)
}

func (m *Model) appendStatus(ok bool, text string) {
	m.status = append(m.status, statusLine{at: m.now(), ok: ok, text: text})
	if len(m.status) > m.maxLog {
		m.status = m.status[len(m.status)-m.maxLog:]
	}
	m.refreshLog()
}

func (m *Model) refreshLog() {
	lines := make([]string, len(m.status))
	for i, s := range m.status {
		mark := styles.ok.Render("✓")
		if !s.ok {
			mark = styles.err.Render("✗")
		}
		lines[i] = fmt.Sprintf("%s %s %s", styles.help.Render(s.at.Format("15:04:05")), mark, s.text)
	}
	m.log.SetContent(strings.Join(lines, "\n"))
	m.log.GotoBottom()
}

// View renders the active tab, the status log and contextual help.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("spool"))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.tab == AccountsTab {
		b.WriteString(m.renderAccounts())
	} else {
		b.WriteString(m.renderPlaylists())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m *Model) renderTabs() string {
	var tabs []string
	for _, t := range []Tab{AccountsTab, PlaylistsTab} {
		style := styles.tab
		if t == m.tab {
			style = styles.activeTab
		}
		tabs = append(tabs, style.Render(t.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}

func (m *Model) renderForm(labels []string, inputs []textinput.Model) string {
	rows := make([]string, len(inputs))
	for i, in := range inputs {
		rows[i] = styles.label.Render(labels[i]) + in.View()
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderAccounts() string {
	form := m.renderForm([]string{"Username", "Password"}, m.accountInputs)
	if len(m.accountList.Items()) == 0 {
		return form + "\n\n" + styles.help.Render("No accounts yet.")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, form, "    ", m.accountList.View())
}

func (m *Model) renderPlaylists() string {
	return m.renderForm([]string{"Account", "Name", "Description", "Playlist ID", "Track URI"}, m.playlistInputs)
}

func (m *Model) renderStatus() string {
	header := "Status"
	if m.pending > 0 {
		header = fmt.Sprintf("Status %s %d running", m.spinner.View(), m.pending)
	}
	return styles.pane.Render(header + "\n" + m.log.View())
}

func (m *Model) renderHelp() string {
	bindings := []key.Binding{m.keys.next, m.keys.switchTab}
	if m.tab == AccountsTab {
		bindings = append(bindings, m.keys.submit)
	} else {
		bindings = append(bindings, m.keys.create, m.keys.addTrack, m.keys.play)
	}
	bindings = append(bindings, m.keys.clear, m.keys.quit)
	return m.help.ShortHelpView(bindings)
}
