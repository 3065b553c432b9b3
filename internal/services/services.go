// package services defines the [Remote] capability set and implements it for Spotify behind rotating proxies
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/spool/internal/shared"
)

// Scopes requested for every pooled account.
var Scopes = []string{
	"playlist-modify-public",
	"user-modify-playback-state",
}

// Remote is the set of streaming-service calls performed on behalf of one account.
type Remote interface {
	// CurrentUserID returns the remote user identifier of the authenticated account.
	CurrentUserID(ctx context.Context) (string, error)

	// CreatePlaylist creates a public playlist owned by userID and returns its identifier.
	CreatePlaylist(ctx context.Context, userID, name, description string) (string, error)

	// AddItemsToPlaylist appends track URIs to a playlist.
	AddItemsToPlaylist(ctx context.Context, playlistID string, uris []string) error

	// StartPlayback starts playing uris on the account's active device.
	StartPlayback(ctx context.Context, uris []string) error
}

// ClientProvider builds a [Remote] bound to one stored account.
type ClientProvider interface {
	Client(ctx context.Context, accountID string) (Remote, error)
}

// AccountLookup reports whether an account is present in the credential store.
type AccountLookup interface {
	Has(id string) bool
}

// ProxyPicker chooses an egress proxy URL, or reports that none is configured.
type ProxyPicker interface {
	PickURL() (string, bool)
}

// RemoteError describes a failed call to the streaming service.
//
// It matches [shared.ErrRemoteCall] with [errors.Is] and unwraps to the transport or token error, if any.
type RemoteError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%v: status %d: %s", shared.ErrRemoteCall, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%v: status %d", shared.ErrRemoteCall, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", shared.ErrRemoteCall, e.Message, e.Err)
	default:
		return fmt.Sprintf("%v: %s", shared.ErrRemoteCall, e.Message)
	}
}

func (e *RemoteError) Is(target error) bool {
	return target == shared.ErrRemoteCall
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
