package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spool/internal/shared"
)

func newTestManager(remote *fakeRemote, accounts *fakeAccounts) (*Manager, *fakeProvider, *bytes.Buffer) {
	var buf bytes.Buffer
	provider := &fakeProvider{remote: remote}
	m := NewManager(ManagerOpts{
		Accounts: accounts,
		Clients:  provider,
		Playlist: shared.PlaylistConfig{
			DefaultName:        "Auto Generated Playlist",
			DefaultDescription: "Automatically generated playlist",
		},
		MaxAccounts: 2,
		Logger:      log.New(&buf),
	})
	return m, provider, &buf
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("AddAccount", func(t *testing.T) {
		t.Run("stores credentials", func(t *testing.T) {
			accounts := newFakeAccounts()
			m, provider, _ := newTestManager(&fakeRemote{}, accounts)

			if err := m.AddAccount(ctx, " alice ", "p@ss"); err != nil {
				t.Fatalf("AddAccount() error = %v", err)
			}
			if accounts.secrets["alice"] != "p@ss" {
				t.Errorf("stored secret = %q", accounts.secrets["alice"])
			}
			if len(provider.accounts) != 0 {
				t.Error("AddAccount must not contact the remote service")
			}
		})

		t.Run("requires both fields", func(t *testing.T) {
			m, _, _ := newTestManager(&fakeRemote{}, newFakeAccounts())
			for _, tc := range [][2]string{{"", "p"}, {"u", ""}, {"  ", "p"}} {
				if err := m.AddAccount(ctx, tc[0], tc[1]); !errors.Is(err, shared.ErrMissingArgument) {
					t.Errorf("AddAccount(%q, %q) expected ErrMissingArgument, got %v", tc[0], tc[1], err)
				}
			}
		})

		t.Run("propagates store errors", func(t *testing.T) {
			accounts := newFakeAccounts()
			accounts.err = errors.New("disk full")
			m, _, _ := newTestManager(&fakeRemote{}, accounts)

			if err := m.AddAccount(ctx, "alice", "p"); err == nil || !strings.Contains(err.Error(), "disk full") {
				t.Errorf("expected store error, got %v", err)
			}
		})

		t.Run("warns past the configured maximum", func(t *testing.T) {
			m, _, buf := newTestManager(&fakeRemote{}, newFakeAccounts("a", "b"))

			if err := m.AddAccount(ctx, "c", "p"); err != nil {
				t.Fatalf("AddAccount() error = %v", err)
			}
			if !strings.Contains(buf.String(), "exceeds configured maximum") {
				t.Errorf("expected warning, log = %q", buf.String())
			}
		})
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		t.Run("uses defaults", func(t *testing.T) {
			remote := &fakeRemote{userID: "spotify-user", playlistID: "pl1"}
			m, provider, _ := newTestManager(remote, newFakeAccounts("alice"))

			id, err := m.CreatePlaylist(ctx, "alice", "", "")
			if err != nil {
				t.Fatalf("CreatePlaylist() error = %v", err)
			}
			if id != "pl1" {
				t.Errorf("CreatePlaylist() = %q, want pl1", id)
			}
			if remote.createdFor != "spotify-user" {
				t.Errorf("created for %q, want spotify-user", remote.createdFor)
			}
			if remote.name != "Auto Generated Playlist" || remote.description != "Automatically generated playlist" {
				t.Errorf("defaults not applied: %q / %q", remote.name, remote.description)
			}
			if len(provider.accounts) != 1 || provider.accounts[0] != "alice" {
				t.Errorf("client requested for %v", provider.accounts)
			}
		})

		t.Run("uses given name and description", func(t *testing.T) {
			remote := &fakeRemote{userID: "u", playlistID: "pl2"}
			m, _, _ := newTestManager(remote, newFakeAccounts("alice"))

			if _, err := m.CreatePlaylist(ctx, "alice", "Mix", "Mine"); err != nil {
				t.Fatalf("CreatePlaylist() error = %v", err)
			}
			if remote.name != "Mix" || remote.description != "Mine" {
				t.Errorf("got %q / %q", remote.name, remote.description)
			}
		})

		t.Run("unknown account", func(t *testing.T) {
			m, provider, _ := newTestManager(&fakeRemote{}, newFakeAccounts())
			provider.err = shared.ErrAccountNotFound

			if _, err := m.CreatePlaylist(ctx, "ghost", "", ""); !errors.Is(err, shared.ErrAccountNotFound) {
				t.Errorf("expected ErrAccountNotFound, got %v", err)
			}
		})

		t.Run("remote failure", func(t *testing.T) {
			remote := &fakeRemote{err: &RemoteError{StatusCode: 401, Message: "expired"}}
			m, _, _ := newTestManager(remote, newFakeAccounts("alice"))

			if _, err := m.CreatePlaylist(ctx, "alice", "", ""); !errors.Is(err, shared.ErrRemoteCall) {
				t.Errorf("expected ErrRemoteCall, got %v", err)
			}
		})
	})

	t.Run("AddTrackToPlaylist", func(t *testing.T) {
		remote := &fakeRemote{}
		m, _, _ := newTestManager(remote, newFakeAccounts("alice"))

		if err := m.AddTrackToPlaylist(ctx, "alice", "pl1", "spotify:track:abc"); err != nil {
			t.Fatalf("AddTrackToPlaylist() error = %v", err)
		}
		if got := remote.added["pl1"]; len(got) != 1 || got[0] != "spotify:track:abc" {
			t.Errorf("added = %v", remote.added)
		}

		if err := m.AddTrackToPlaylist(ctx, "alice", "pl1", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("PlayTrack", func(t *testing.T) {
		remote := &fakeRemote{}
		m, _, _ := newTestManager(remote, newFakeAccounts("alice"))

		if err := m.PlayTrack(ctx, "alice", "spotify:track:abc"); err != nil {
			t.Fatalf("PlayTrack() error = %v", err)
		}
		if len(remote.played) != 1 || remote.played[0][0] != "spotify:track:abc" {
			t.Errorf("played = %v", remote.played)
		}

		if err := m.PlayTrack(ctx, "alice", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}
