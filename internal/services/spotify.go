// Spotify Web API implementation of [Remote]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyUser represents the subset of a Spotify user profile the pool needs.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyPlaylist represents a playlist returned by the create endpoint.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	URI         string `json:"uri"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

type urisRequest struct {
	URIs []string `json:"uris"`
}

type snapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

// spotifyError is the body Spotify returns alongside non-2xx statuses.
type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

// SpotifyClient performs [Remote] calls for one account through one (optional) proxy.
//
// The underlying HTTP client attaches and refreshes the account's OAuth token.
type SpotifyClient struct {
	accountID string
	proxyURL  string
	http      *resty.Client
	logger    *log.Logger
}

// NewSpotifyClient wraps hc, which must already authorize requests, in a resty client rooted at baseURL.
func NewSpotifyClient(accountID, proxyURL, baseURL string, hc *http.Client, logger *log.Logger) *SpotifyClient {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}

	rc := resty.NewWithClient(hc).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &SpotifyClient{
		accountID: accountID,
		proxyURL:  proxyURL,
		http:      rc,
		logger:    logger,
	}
}

// AccountID returns the stored account this client acts for.
func (c *SpotifyClient) AccountID() string { return c.accountID }

// ProxyURL returns the proxy chosen at construction, or "" for a direct connection.
func (c *SpotifyClient) ProxyURL() string { return c.proxyURL }

// doRequest performs an authenticated request and decodes a JSON result when one is given.
func (c *SpotifyClient) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	req := c.http.R().
		SetContext(ctx).
		SetError(&spotifyError{})
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return &RemoteError{Message: fmt.Sprintf("%s %s", method, endpoint), Err: err}
	}

	c.logger.Debug("spotify request", "method", method, "endpoint", endpoint, "status", resp.StatusCode(), "elapsed", resp.Time())

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		msg := http.StatusText(resp.StatusCode())
		if apiErr, ok := resp.Error().(*spotifyError); ok && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return &RemoteError{StatusCode: resp.StatusCode(), Message: msg}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (c *SpotifyClient) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := c.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUserID implements [Remote].
func (c *SpotifyClient) CurrentUserID(ctx context.Context) (string, error) {
	user, err := c.UserProfile(ctx)
	if err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", &RemoteError{Message: "profile response has no id"}
	}
	return user.ID, nil
}

// CreatePlaylist implements [Remote]. Playlists are always public.
func (c *SpotifyClient) CreatePlaylist(ctx context.Context, userID, name, description string) (string, error) {
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	body := createPlaylistRequest{Name: name, Description: description, Public: true}

	var playlist SpotifyPlaylist
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return "", err
	}
	if playlist.ID == "" {
		return "", &RemoteError{Message: "create playlist response has no id"}
	}
	return playlist.ID, nil
}

// AddItemsToPlaylist implements [Remote].
func (c *SpotifyClient) AddItemsToPlaylist(ctx context.Context, playlistID string, uris []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return c.doRequest(ctx, http.MethodPost, endpoint, urisRequest{URIs: uris}, &snapshotResponse{})
}

// StartPlayback implements [Remote].
func (c *SpotifyClient) StartPlayback(ctx context.Context, uris []string) error {
	return c.doRequest(ctx, http.MethodPut, "/me/player/play", urisRequest{URIs: uris}, nil)
}
