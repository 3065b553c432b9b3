package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spool/internal/models"
	"github.com/desertthunder/spool/internal/shared"
)

type mockActions struct {
	mu        sync.Mutex
	calls     []string
	failFor   map[string]error
	inFlight  map[string]int
	overlap   bool
	delay     time.Duration
	release   chan struct{}
	passwords map[string]string
}

func newMockActions() *mockActions {
	return &mockActions{
		failFor:   map[string]error{},
		inFlight:  map[string]int{},
		passwords: map[string]string{},
	}
}

func (m *mockActions) enter(account, call string) error {
	m.mu.Lock()
	m.calls = append(m.calls, call+":"+account)
	m.inFlight[account]++
	if m.inFlight[account] > 1 {
		m.overlap = true
	}
	err := m.failFor[account]
	m.mu.Unlock()

	if m.release != nil {
		<-m.release
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.inFlight[account]--
	m.mu.Unlock()
	return err
}

func (m *mockActions) AddAccount(ctx context.Context, username, password string) error {
	m.mu.Lock()
	m.passwords[username] = password
	m.mu.Unlock()
	return m.enter(username, "add")
}

func (m *mockActions) CreatePlaylist(ctx context.Context, account, name, description string) (string, error) {
	if err := m.enter(account, "create"); err != nil {
		return "", err
	}
	return "pl-" + account, nil
}

func (m *mockActions) AddTrackToPlaylist(ctx context.Context, account, playlistID, trackURI string) error {
	return m.enter(account, "track")
}

func (m *mockActions) PlayTrack(ctx context.Context, account, trackURI string) error {
	return m.enter(account, "play")
}

func (m *mockActions) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type mockRecorder struct {
	mu      sync.Mutex
	records []*models.ActionRecord
	err     error
}

func (m *mockRecorder) Record(r *models.ActionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return m.err
}

func TestRequest(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name string
			req  Request
			want error
		}{
			{name: "add account ok", req: Request{Action: models.ActionAddAccount, Account: "alice", Password: "p"}},
			{name: "add account no password", req: Request{Action: models.ActionAddAccount, Account: "alice"}, want: ErrMissingCredentials},
			{name: "add account no username", req: Request{Action: models.ActionAddAccount, Password: "p"}, want: ErrMissingCredentials},
			{name: "create playlist without name uses default", req: Request{Action: models.ActionCreatePlaylist, Account: "alice"}},
			{name: "create playlist no account", req: Request{Action: models.ActionCreatePlaylist, Name: "x"}, want: ErrMissingAccount},
			{name: "add track no uri", req: Request{Action: models.ActionAddTrack, Account: "alice", PlaylistID: "pl"}, want: ErrMissingTrack},
			{name: "add track no playlist", req: Request{Action: models.ActionAddTrack, Account: "alice", TrackURI: "u"}, want: ErrMissingPlaylistID},
			{name: "play no uri", req: Request{Action: models.ActionPlayTrack, Account: "alice"}, want: ErrMissingTrack},
			{name: "unknown action", req: Request{Action: "dance", Account: "alice"}, want: shared.ErrInvalidArgument},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				err := tc.req.Validate()
				if tc.want == nil && err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				if tc.want != nil && !errors.Is(err, tc.want) {
					t.Errorf("Validate() = %v, want %v", err, tc.want)
				}
			})
		}
	})

	t.Run("Target omits secrets", func(t *testing.T) {
		req := Request{Action: models.ActionAddAccount, Account: "alice", Password: "p@ss"}
		if strings.Contains(req.Target(), "p@ss") {
			t.Errorf("Target() leaked password: %q", req.Target())
		}

		req = Request{Action: models.ActionAddTrack, Account: "alice", PlaylistID: "pl1", TrackURI: "spotify:track:1"}
		if got := req.Target(); got != "playlist=pl1 track=spotify:track:1" {
			t.Errorf("Target() = %q", got)
		}
	})
}

func TestResultMessage(t *testing.T) {
	tt := []struct {
		name string
		res  Result
		want string
	}{
		{name: "account added", res: Result{Request: Request{Action: models.ActionAddAccount, Account: "alice"}}, want: "Account alice added successfully"},
		{name: "playlist created", res: Result{Request: Request{Action: models.ActionCreatePlaylist}, Value: "pl1"}, want: "Playlist created: pl1"},
		{name: "song added", res: Result{Request: Request{Action: models.ActionAddTrack}}, want: "Song added successfully"},
		{name: "song playing", res: Result{Request: Request{Action: models.ActionPlayTrack}}, want: "Song started playing"},
		{name: "validation", res: Result{Request: Request{Action: models.ActionPlayTrack}, Err: ErrMissingTrack}, want: "Please enter a track URI"},
		{name: "failure", res: Result{Request: Request{Action: models.ActionPlayTrack}, Err: errors.New("no device")}, want: "Failed to play song: no device"},
		{name: "create failure", res: Result{Request: Request{Action: models.ActionCreatePlaylist}, Err: errors.New("x")}, want: "Failed to create playlist: x"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.res.Message(); got != tc.want {
				t.Errorf("Message() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("Run", func(t *testing.T) {
		t.Run("routes each action", func(t *testing.T) {
			actions := newMockActions()
			d := NewDispatcher(DispatcherOpts{Actions: actions})

			reqs := []Request{
				{Action: models.ActionAddAccount, Account: "alice", Password: "p"},
				{Action: models.ActionCreatePlaylist, Account: "alice", Name: "Mix"},
				{Action: models.ActionAddTrack, Account: "alice", PlaylistID: "pl", TrackURI: "u"},
				{Action: models.ActionPlayTrack, Account: "alice", TrackURI: "u"},
			}
			for _, req := range reqs {
				if res := d.Run(ctx, req); !res.OK() {
					t.Fatalf("Run(%s) error = %v", req.Action, res.Err)
				}
			}

			want := "add:alice,create:alice,track:alice,play:alice"
			if got := strings.Join(actions.Calls(), ","); got != want {
				t.Errorf("calls = %s, want %s", got, want)
			}
		})

		t.Run("returns the playlist id", func(t *testing.T) {
			d := NewDispatcher(DispatcherOpts{Actions: newMockActions()})
			res := d.Run(ctx, Request{Action: models.ActionCreatePlaylist, Account: "bob"})
			if res.Value != "pl-bob" {
				t.Errorf("Value = %q, want pl-bob", res.Value)
			}
		})

		t.Run("invalid requests are not executed or recorded", func(t *testing.T) {
			actions := newMockActions()
			recorder := &mockRecorder{}
			d := NewDispatcher(DispatcherOpts{Actions: actions, Recorder: recorder})

			res := d.Run(ctx, Request{Action: models.ActionPlayTrack, Account: "alice"})
			if !errors.Is(res.Err, ErrMissingTrack) {
				t.Errorf("expected ErrMissingTrack, got %v", res.Err)
			}
			if len(actions.Calls()) != 0 || len(recorder.records) != 0 {
				t.Error("invalid request reached the actions or the recorder")
			}
		})

		t.Run("require name", func(t *testing.T) {
			d := NewDispatcher(DispatcherOpts{Actions: newMockActions(), RequireName: true})
			res := d.Run(ctx, Request{Action: models.ActionCreatePlaylist, Account: "alice"})
			if !errors.Is(res.Err, ErrMissingPlaylist) {
				t.Errorf("expected ErrMissingPlaylist, got %v", res.Err)
			}
		})

		t.Run("no actions configured", func(t *testing.T) {
			d := NewDispatcher(DispatcherOpts{})
			res := d.Run(ctx, Request{Action: models.ActionPlayTrack, Account: "alice", TrackURI: "u"})
			if !errors.Is(res.Err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", res.Err)
			}
		})

		t.Run("records outcomes without secrets", func(t *testing.T) {
			actions := newMockActions()
			actions.failFor["bob"] = errors.New("premium required")
			recorder := &mockRecorder{}
			d := NewDispatcher(DispatcherOpts{Actions: actions, Recorder: recorder})

			d.Run(ctx, Request{Action: models.ActionAddAccount, Account: "alice", Password: "hunter2"})
			d.Run(ctx, Request{Action: models.ActionPlayTrack, Account: "bob", TrackURI: "spotify:track:1"})

			if len(recorder.records) != 2 {
				t.Fatalf("expected 2 records, got %d", len(recorder.records))
			}
			for _, r := range recorder.records {
				if strings.Contains(r.Target(), "hunter2") || strings.Contains(r.Result(), "hunter2") {
					t.Error("record leaked the password")
				}
			}

			failed := recorder.records[1]
			if failed.Succeeded() || failed.ErrorMessage() != "premium required" {
				t.Errorf("failure not recorded: %q", failed.ErrorMessage())
			}
			if failed.Target() != "track=spotify:track:1" {
				t.Errorf("Target = %q", failed.Target())
			}
		})

		t.Run("recorder errors do not fail the action", func(t *testing.T) {
			recorder := &mockRecorder{err: errors.New("db locked")}
			d := NewDispatcher(DispatcherOpts{Actions: newMockActions(), Recorder: recorder})

			if res := d.Run(ctx, Request{Action: models.ActionPlayTrack, Account: "alice", TrackURI: "u"}); !res.OK() {
				t.Errorf("Run() error = %v", res.Err)
			}
		})
	})

	t.Run("Dispatch", func(t *testing.T) {
		t.Run("returns before the action completes", func(t *testing.T) {
			actions := newMockActions()
			actions.release = make(chan struct{})
			d := NewDispatcher(DispatcherOpts{Actions: actions})

			task := d.Dispatch(ctx, Request{Action: models.ActionCreatePlaylist, Account: "alice"})

			select {
			case <-task.Done():
				t.Fatal("task finished before the action was released")
			default:
			}

			close(actions.release)
			res := task.Result()
			if !res.OK() || res.Value != "pl-alice" {
				t.Errorf("Result() = %+v", res)
			}
		})

		t.Run("Wait honours context", func(t *testing.T) {
			actions := newMockActions()
			actions.release = make(chan struct{})
			defer close(actions.release)
			d := NewDispatcher(DispatcherOpts{Actions: actions})

			task := d.Dispatch(ctx, Request{Action: models.ActionPlayTrack, Account: "alice", TrackURI: "u"})

			waitCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
			defer cancel()
			if _, err := task.Wait(waitCtx); !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("expected DeadlineExceeded, got %v", err)
			}
		})

		t.Run("many tasks", func(t *testing.T) {
			d := NewDispatcher(DispatcherOpts{Actions: newMockActions()})

			var tasks []*Task
			for i := range 10 {
				tasks = append(tasks, d.Dispatch(ctx, Request{Action: models.ActionCreatePlaylist, Account: fmt.Sprintf("user%d", i)}))
			}
			for i, task := range tasks {
				if got := task.Result().Value; got != fmt.Sprintf("pl-user%d", i) {
					t.Errorf("task %d Value = %q", i, got)
				}
			}
		})
	})
}
