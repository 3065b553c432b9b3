package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spool/internal/shared"
)

// Action names a pool operation.
type Action string

const (
	ActionAddAccount     Action = "add_account"
	ActionCreatePlaylist Action = "create_playlist"
	ActionAddTrack       Action = "add_track"
	ActionPlayTrack      Action = "play_track"
)

// Actions lists every known action in display order.
var Actions = []Action{ActionAddAccount, ActionCreatePlaylist, ActionAddTrack, ActionPlayTrack}

// ParseAction accepts an action name, ignoring case and treating dashes as underscores.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !a.Valid() {
		return "", fmt.Errorf("%w: unknown action %q", shared.ErrInvalidArgument, s)
	}
	return a, nil
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

func (a Action) String() string { return string(a) }

// ActionRecord is the persisted outcome of one dispatched action.
type ActionRecord struct {
	id         string
	sequence   int
	accountID  string
	action     Action
	target     string
	result     string
	errMsg     string
	startedAt  time.Time
	finishedAt time.Time
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewActionRecord starts a record for action on accountID. target describes the request arguments.
func NewActionRecord(accountID string, action Action, target string) *ActionRecord {
	now := time.Now()
	return &ActionRecord{
		accountID:  accountID,
		action:     action,
		target:     target,
		startedAt:  now,
		finishedAt: now,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (r *ActionRecord) ID() string { return r.id }
func (r *ActionRecord) Sequence() int { return r.sequence }
func (r *ActionRecord) AccountID() string { return r.accountID }
func (r *ActionRecord) Action() Action { return r.action }
func (r *ActionRecord) Target() string { return r.target }
func (r *ActionRecord) Result() string { return r.result }
func (r *ActionRecord) ErrorMessage() string { return r.errMsg }
func (r *ActionRecord) StartedAt() time.Time { return r.startedAt }
func (r *ActionRecord) FinishedAt() time.Time { return r.finishedAt }
func (r *ActionRecord) CreatedAt() time.Time { return r.createdAt }
func (r *ActionRecord) UpdatedAt() time.Time { return r.updatedAt }
func (r *ActionRecord) DeletedAt() *time.Time { return r.deletedAt }

// Succeeded reports whether the action finished without an error.
func (r *ActionRecord) Succeeded() bool { return r.errMsg == "" }

// Duration is the time between start and finish.
func (r *ActionRecord) Duration() time.Duration { return r.finishedAt.Sub(r.startedAt) }

func (r *ActionRecord) SetID(id string) { r.id = id }
func (r *ActionRecord) SetSequence(seq int) { r.sequence = seq }
func (r *ActionRecord) SetStartedAt(t time.Time) { r.startedAt = t }
func (r *ActionRecord) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *ActionRecord) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *ActionRecord) SetDeletedAt(t *time.Time) { r.deletedAt = t }
func (r *ActionRecord) SetOutcome(result, errMsg string) { r.result, r.errMsg = result, errMsg }
func (r *ActionRecord) SetFinishedAt(t time.Time) { r.finishedAt = t }

// Finish records the outcome at the given time. A nil err marks success.
func (r *ActionRecord) Finish(result string, err error, at time.Time) {
	r.result = result
	r.errMsg = ""
	if err != nil {
		r.errMsg = err.Error()
	}
	r.finishedAt = at
	r.updatedAt = at
}

// Validate checks required fields and timing.
func (r *ActionRecord) Validate() error {
	if strings.TrimSpace(r.accountID) == "" {
		return fmt.Errorf("%w: account id is required", shared.ErrInvalidInput)
	}
	if !r.action.Valid() {
		return fmt.Errorf("%w: unknown action %q", shared.ErrInvalidInput, r.action)
	}
	if r.startedAt.IsZero() {
		return fmt.Errorf("%w: start time is required", shared.ErrInvalidInput)
	}
	if r.finishedAt.Before(r.startedAt) {
		return fmt.Errorf("%w: finished before it started", shared.ErrInvalidInput)
	}
	return nil
}
