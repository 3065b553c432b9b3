package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spool/internal/models"
	"github.com/desertthunder/spool/internal/shared"
)

// Validation messages shown to the operator.
var (
	ErrMissingCredentials = fmt.Errorf("%w: Please enter both username and password", shared.ErrMissingArgument)
	ErrMissingPlaylist    = fmt.Errorf("%w: Please enter a playlist name", shared.ErrMissingArgument)
	ErrMissingTrack       = fmt.Errorf("%w: Please enter a track URI", shared.ErrMissingArgument)
	ErrMissingAccount     = fmt.Errorf("%w: Please choose an account", shared.ErrMissingArgument)
	ErrMissingPlaylistID  = fmt.Errorf("%w: Please enter a playlist ID", shared.ErrMissingArgument)
)

// Actions performs the pool's operations. [services.Manager] implements it.
type Actions interface {
	AddAccount(ctx context.Context, username, password string) error
	CreatePlaylist(ctx context.Context, account, name, description string) (string, error)
	AddTrackToPlaylist(ctx context.Context, account, playlistID, trackURI string) error
	PlayTrack(ctx context.Context, account, trackURI string) error
}

// Recorder persists finished actions. [repositories.HistoryRepository] implements it.
type Recorder interface {
	Record(record *models.ActionRecord) error
}

// Request describes one action for one account.
type Request struct {
	Action      models.Action
	Account     string
	Password    string // add_account only, never recorded
	PlaylistID  string // add_track
	Name        string // create_playlist
	Description string // create_playlist
	TrackURI    string // add_track, play_track
}

type validateOpts struct {
	requireName bool
}

// Validate checks that the fields the action needs are present.
func (r Request) Validate() error {
	return r.validate(validateOpts{})
}

func (r Request) validate(opts validateOpts) error {
	switch r.Action {
	case models.ActionAddAccount:
		if strings.TrimSpace(r.Account) == "" || r.Password == "" {
			return ErrMissingCredentials
		}
	case models.ActionCreatePlaylist:
		if strings.TrimSpace(r.Account) == "" {
			return ErrMissingAccount
		}
		if opts.requireName && strings.TrimSpace(r.Name) == "" {
			return ErrMissingPlaylist
		}
	case models.ActionAddTrack:
		if strings.TrimSpace(r.Account) == "" {
			return ErrMissingAccount
		}
		if strings.TrimSpace(r.PlaylistID) == "" {
			return ErrMissingPlaylistID
		}
		if strings.TrimSpace(r.TrackURI) == "" {
			return ErrMissingTrack
		}
	case models.ActionPlayTrack:
		if strings.TrimSpace(r.Account) == "" {
			return ErrMissingAccount
		}
		if strings.TrimSpace(r.TrackURI) == "" {
			return ErrMissingTrack
		}
	default:
		return fmt.Errorf("%w: unknown action %q", shared.ErrInvalidArgument, r.Action)
	}
	return nil
}

// Target renders the request arguments for history. Secrets are left out.
func (r Request) Target() string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}

	switch r.Action {
	case models.ActionCreatePlaylist:
		add("name", r.Name)
		add("description", r.Description)
	case models.ActionAddTrack:
		add("playlist", r.PlaylistID)
		add("track", r.TrackURI)
	case models.ActionPlayTrack:
		add("track", r.TrackURI)
	}
	return strings.Join(parts, " ")
}

// Result is the outcome of a [Request]. Value is the stringified success value.
type Result struct {
	Request    Request
	Value      string
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// OK reports whether the action succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Message renders the result the way the status log shows it.
func (r Result) Message() string {
	if r.Err != nil {
		if errors.Is(r.Err, shared.ErrMissingArgument) {
			return strings.TrimPrefix(r.Err.Error(), shared.ErrMissingArgument.Error()+": ")
		}
		return failurePrefix(r.Request.Action) + r.Err.Error()
	}

	switch r.Request.Action {
	case models.ActionAddAccount:
		return fmt.Sprintf("Account %s added successfully", r.Request.Account)
	case models.ActionCreatePlaylist:
		return fmt.Sprintf("Playlist created: %s", r.Value)
	case models.ActionAddTrack:
		return "Song added successfully"
	case models.ActionPlayTrack:
		return "Song started playing"
	default:
		return r.Value
	}
}

func failurePrefix(a models.Action) string {
	switch a {
	case models.ActionAddAccount:
		return "Failed to add account: "
	case models.ActionCreatePlaylist:
		return "Failed to create playlist: "
	case models.ActionAddTrack:
		return "Failed to add song: "
	case models.ActionPlayTrack:
		return "Failed to play song: "
	default:
		return "Error: "
	}
}

// DispatcherOpts holds the dependencies of a [Dispatcher].
type DispatcherOpts struct {
	Actions  Actions
	Recorder Recorder // optional
	Logger   *log.Logger

	// RequireName rejects create_playlist requests without a name.
	RequireName bool
}

// Dispatcher executes [Request]s against [Actions] and records their outcomes.
type Dispatcher struct {
	actions     Actions
	recorder    Recorder
	logger      *log.Logger
	requireName bool
	now         func() time.Time
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts DispatcherOpts) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Dispatcher{
		actions:     opts.Actions,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
		requireName: opts.RequireName,
		now:         time.Now,
	}
}

// Run executes req on the calling goroutine.
//
// Invalid requests fail without touching the store, the network or the history.
func (d *Dispatcher) Run(ctx context.Context, req Request) Result {
	res := Result{Request: req, StartedAt: d.now()}

	if err := req.validate(validateOpts{requireName: d.requireName}); err != nil {
		res.Err = err
		res.FinishedAt = res.StartedAt
		return res
	}
	if d.actions == nil {
		res.Err = fmt.Errorf("%w: no action handler configured", shared.ErrServiceUnavailable)
		res.FinishedAt = res.StartedAt
		return res
	}

	switch req.Action {
	case models.ActionAddAccount:
		res.Err = d.actions.AddAccount(ctx, req.Account, req.Password)
	case models.ActionCreatePlaylist:
		res.Value, res.Err = d.actions.CreatePlaylist(ctx, req.Account, req.Name, req.Description)
	case models.ActionAddTrack:
		res.Err = d.actions.AddTrackToPlaylist(ctx, req.Account, req.PlaylistID, req.TrackURI)
	case models.ActionPlayTrack:
		res.Err = d.actions.PlayTrack(ctx, req.Account, req.TrackURI)
	}
	res.FinishedAt = d.now()

	d.record(res)
	return res
}

func (d *Dispatcher) record(res Result) {
	logger := d.logger.With("action", res.Request.Action, "account", res.Request.Account)
	if res.Err != nil {
		logger.Warn("action failed", "error", res.Err)
	} else {
		logger.Debug("action completed", "value", res.Value, "elapsed", res.FinishedAt.Sub(res.StartedAt))
	}

	if d.recorder == nil {
		return
	}

	record := models.NewActionRecord(res.Request.Account, res.Request.Action, res.Request.Target())
	record.SetStartedAt(res.StartedAt)
	record.SetCreatedAt(res.StartedAt)
	record.Finish(resultValue(res), res.Err, res.FinishedAt)

	if err := d.recorder.Record(record); err != nil {
		logger.Warn("failed to record action history", "error", err)
	}
}

func resultValue(res Result) string {
	if res.Err != nil {
		return ""
	}
	return res.Value
}

// Task is a handle to an action running in the background.
type Task struct {
	done   chan struct{}
	result Result
}

// Dispatch runs req on a new goroutine and returns immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.result = d.Run(ctx, req)
	}()
	return t
}

// Done is closed when the action has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Result blocks until the action finishes and returns its outcome.
func (t *Task) Result() Result {
	<-t.done
	return t.result
}

// Wait returns the outcome, or the context's error if ctx ends first.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
