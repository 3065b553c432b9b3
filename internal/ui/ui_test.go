package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spool/internal/shared"
	"github.com/desertthunder/spool/internal/tasks"
)

type fakePool struct {
	mu       sync.Mutex
	accounts []string
	failPlay error
}

func (f *fakePool) Accounts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.accounts...)
}

func (f *fakePool) Has(account string) bool { return account == "alice" }

func (f *fakePool) AddAccount(ctx context.Context, username, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = append(f.accounts, username)
	return nil
}

func (f *fakePool) CreatePlaylist(ctx context.Context, account, name, description string) (string, error) {
	return "pl-" + account, nil
}

func (f *fakePool) AddTrackToPlaylist(ctx context.Context, account, playlistID, trackURI string) error {
	return nil
}

func (f *fakePool) PlayTrack(ctx context.Context, account, trackURI string) error {
	return f.failPlay
}

func newTestModel(pool *fakePool, requireName bool) *Model {
	d := tasks.NewDispatcher(tasks.DispatcherOpts{Actions: pool, RequireName: requireName})
	return NewModel(context.Background(), Options{
		Dispatcher: d,
		Accounts:   pool,
		Tokens:     pool,
		Playlist:   shared.PlaylistConfig{DefaultName: "Spool Mix"},
	})
}

// run executes cmd and feeds the application messages it produces back into the model.
// Cursor blinks and spinner ticks are dropped.
func run(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(m, c)
		}
	case Msg:
		_, next := m.Update(msg)
		run(m, next)
	}
}

func press(m *Model, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

func typeText(m *Model, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func lastStatus(t *testing.T, m *Model) statusLine {
	t.Helper()
	if len(m.status) == 0 {
		t.Fatal("status log is empty")
	}
	return m.status[len(m.status)-1]
}

func TestAccountsTab(t *testing.T) {
	t.Run("adds an account", func(t *testing.T) {
		pool := &fakePool{}
		m := newTestModel(pool, false)

		typeText(m, "alice")
		press(m, tea.KeyTab)
		typeText(m, "p@ss")
		cmd := press(m, tea.KeyEnter)

		if m.accountInputs[fieldPassword].Value() != "" {
			t.Error("password should be cleared once dispatched")
		}

		run(m, cmd)

		status := lastStatus(t, m)
		if !status.ok || status.text != "Account alice added successfully" {
			t.Errorf("status = %+v", status)
		}
		if m.accountInputs[fieldUsername].Value() != "" {
			t.Error("username should be cleared after success")
		}
		if len(m.accountList.Items()) != 1 {
			t.Fatalf("expected the pool list to refresh, got %d items", len(m.accountList.Items()))
		}
		if item := m.accountList.Items()[0].(accountItem); item.id != "alice" || !item.loggedIn {
			t.Errorf("unexpected item: %+v", item)
		}
		if m.pending != 0 {
			t.Errorf("pending = %d, want 0", m.pending)
		}
	})

	t.Run("requires both fields", func(t *testing.T) {
		m := newTestModel(&fakePool{}, false)
		typeText(m, "alice")
		run(m, press(m, tea.KeyEnter))

		status := lastStatus(t, m)
		if status.ok || status.text != "Please enter both username and password" {
			t.Errorf("status = %+v", status)
		}
	})
}

func TestPlaylistsTab(t *testing.T) {
	focusField := func(m *Model, field int) {
		for m.focus != field {
			press(m, tea.KeyTab)
		}
	}

	t.Run("create then add and play", func(t *testing.T) {
		m := newTestModel(&fakePool{accounts: []string{"alice"}}, false)
		press(m, tea.KeyF2)
		if m.tab != PlaylistsTab {
			t.Fatal("f2 should open the playlists tab")
		}

		typeText(m, "alice")
		run(m, press(m, tea.KeyCtrlO))

		if status := lastStatus(t, m); status.text != "Playlist created: pl-alice" {
			t.Errorf("status = %+v", status)
		}
		if got := m.playlistInputs[fieldPlaylistID].Value(); got != "pl-alice" {
			t.Errorf("playlist id field = %q, want pl-alice", got)
		}

		focusField(m, fieldTrackURI)
		typeText(m, "spotify:track:1")

		run(m, press(m, tea.KeyCtrlT))
		if status := lastStatus(t, m); status.text != "Song added successfully" {
			t.Errorf("status = %+v", status)
		}

		run(m, press(m, tea.KeyCtrlY))
		if status := lastStatus(t, m); status.text != "Song started playing" {
			t.Errorf("status = %+v", status)
		}
	})

	t.Run("validation messages", func(t *testing.T) {
		m := newTestModel(&fakePool{}, true)
		press(m, tea.KeyF2)
		typeText(m, "alice")

		run(m, press(m, tea.KeyCtrlO))
		if status := lastStatus(t, m); status.ok || status.text != "Please enter a playlist name" {
			t.Errorf("status = %+v", status)
		}

		run(m, press(m, tea.KeyCtrlY))
		if status := lastStatus(t, m); status.text != "Please enter a track URI" {
			t.Errorf("status = %+v", status)
		}
	})

	t.Run("remote failure", func(t *testing.T) {
		m := newTestModel(&fakePool{failPlay: errors.New("no active device")}, false)
		press(m, tea.KeyF2)
		typeText(m, "bob")
		focusField(m, fieldTrackURI)
		typeText(m, "spotify:track:1")

		run(m, press(m, tea.KeyCtrlY))
		if status := lastStatus(t, m); status.ok || status.text != "Failed to play song: no active device" {
			t.Errorf("status = %+v", status)
		}
	})

	t.Run("enter moves to the next field", func(t *testing.T) {
		m := newTestModel(&fakePool{}, false)
		press(m, tea.KeyF2)
		press(m, tea.KeyEnter)
		if m.focus != fieldName {
			t.Errorf("focus = %d, want %d", m.focus, fieldName)
		}
		press(m, tea.KeyShiftTab)
		press(m, tea.KeyShiftTab)
		if m.focus != fieldTrackURI {
			t.Errorf("focus should wrap, got %d", m.focus)
		}
	})
}

func TestModel(t *testing.T) {
	t.Run("switch tabs", func(t *testing.T) {
		m := newTestModel(&fakePool{}, false)
		press(m, tea.KeyCtrlRight)
		if m.tab != PlaylistsTab {
			t.Error("expected playlists tab")
		}
		press(m, tea.KeyCtrlLeft)
		if m.tab != AccountsTab {
			t.Error("expected accounts tab")
		}
		press(m, tea.KeyF2)
		press(m, tea.KeyF1)
		if m.tab != AccountsTab || m.focus != 0 {
			t.Error("f1 should reset to the first accounts field")
		}
	})

	t.Run("quit", func(t *testing.T) {
		m := newTestModel(&fakePool{}, false)
		cmd := press(m, tea.KeyEsc)
		if cmd == nil {
			t.Fatal("expected a quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("esc should quit")
		}
	})

	t.Run("status log is bounded and clearable", func(t *testing.T) {
		m := NewModel(context.Background(), Options{MaxLog: 3})
		for i := 0; i < 5; i++ {
			m.appendStatus(true, strings.Repeat("x", i+1))
		}
		if len(m.status) != 3 || m.status[0].text != "xxx" {
			t.Errorf("status = %+v", m.status)
		}

		press(m, tea.KeyCtrlL)
		if len(m.status) != 0 {
			t.Error("ctrl+l should clear the log")
		}
	})

	t.Run("without a dispatcher", func(t *testing.T) {
		m := NewModel(context.Background(), Options{})
		typeText(m, "alice")
		press(m, tea.KeyTab)
		typeText(m, "x")
		if cmd := press(m, tea.KeyEnter); cmd != nil {
			t.Error("expected no command")
		}
		if status := lastStatus(t, m); status.ok {
			t.Error("expected an error line")
		}
	})

	t.Run("Init loads accounts", func(t *testing.T) {
		m := newTestModel(&fakePool{accounts: []string{"alice", "bob"}}, false)
		run(m, m.loadAccounts())
		if len(m.accountList.Items()) != 2 {
			t.Errorf("expected 2 accounts, got %d", len(m.accountList.Items()))
		}
	})

	t.Run("View", func(t *testing.T) {
		m := newTestModel(&fakePool{}, false)
		m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
		m.appendStatus(false, "Please enter a track URI")

		out := m.View()
		for _, want := range []string{"Accounts", "Playlists", "Username", "Status", "Please enter a track URI", "add account"} {
			if !strings.Contains(out, want) {
				t.Errorf("view missing %q", want)
			}
		}
		if strings.Contains(out, "Track URI") {
			t.Error("accounts tab should not show playlist fields")
		}

		press(m, tea.KeyF2)
		if out := m.View(); !strings.Contains(out, "Track URI") || !strings.Contains(out, "create playlist") {
			t.Error("playlists tab missing its fields or help")
		}
	})
}
