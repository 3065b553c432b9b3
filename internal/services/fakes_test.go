package services

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// mockTokenSource implements [oauth2.TokenSource] for testing
type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}

// fakeAccounts implements [AccountLookup] and [AccountStore].
type fakeAccounts struct {
	mu      sync.Mutex
	secrets map[string]string
	err     error
}

func newFakeAccounts(ids ...string) *fakeAccounts {
	f := &fakeAccounts{secrets: map[string]string{}}
	for _, id := range ids {
		f.secrets[id] = "secret"
	}
	return f
}

func (f *fakeAccounts) Has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.secrets[id]
	return ok
}

func (f *fakeAccounts) AddAccount(id, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.secrets[id] = secret
	return nil
}

func (f *fakeAccounts) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.secrets)
}

// spyPicker implements [ProxyPicker] and counts calls.
type spyPicker struct {
	mu    sync.Mutex
	url   string
	calls int
}

func (s *spyPicker) PickURL() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.url, s.url != ""
}

func (s *spyPicker) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeRemote implements [Remote] and records what it was asked to do.
type fakeRemote struct {
	userID     string
	playlistID string
	err        error

	createdFor  string
	name        string
	description string
	added       map[string][]string
	played      [][]string
}

func (f *fakeRemote) CurrentUserID(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.userID, nil
}

func (f *fakeRemote) CreatePlaylist(ctx context.Context, userID, name, description string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.createdFor, f.name, f.description = userID, name, description
	return f.playlistID, nil
}

func (f *fakeRemote) AddItemsToPlaylist(ctx context.Context, playlistID string, uris []string) error {
	if f.err != nil {
		return f.err
	}
	if f.added == nil {
		f.added = map[string][]string{}
	}
	f.added[playlistID] = append(f.added[playlistID], uris...)
	return nil
}

func (f *fakeRemote) StartPlayback(ctx context.Context, uris []string) error {
	if f.err != nil {
		return f.err
	}
	f.played = append(f.played, uris)
	return nil
}

// fakeProvider implements [ClientProvider].
type fakeProvider struct {
	remote   Remote
	err      error
	accounts []string
}

func (f *fakeProvider) Client(ctx context.Context, accountID string) (Remote, error) {
	f.accounts = append(f.accounts, accountID)
	if f.err != nil {
		return nil, f.err
	}
	return f.remote, nil
}
