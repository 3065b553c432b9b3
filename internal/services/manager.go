package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spool/internal/shared"
)

// AccountStore is the part of the credential store the [Manager] writes to.
type AccountStore interface {
	AddAccount(id, secret string) error
	Len() int
}

// ManagerOpts holds the dependencies of a [Manager].
type ManagerOpts struct {
	Accounts    AccountStore
	Clients     ClientProvider
	Playlist    shared.PlaylistConfig
	MaxAccounts int
	Logger      *log.Logger
}

// Manager performs the pool's user-facing actions. Each remote action builds a fresh client.
type Manager struct {
	accounts    AccountStore
	clients     ClientProvider
	playlist    shared.PlaylistConfig
	maxAccounts int
	logger      *log.Logger
}

// NewManager creates a Manager.
func NewManager(opts ManagerOpts) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Manager{
		accounts:    opts.Accounts,
		clients:     opts.Clients,
		playlist:    opts.Playlist,
		maxAccounts: opts.MaxAccounts,
		logger:      opts.Logger,
	}
}

// AddAccount stores the credentials for username. Nothing is checked against the remote service.
func (m *Manager) AddAccount(ctx context.Context, username, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", shared.ErrMissingArgument)
	}

	if err := m.accounts.AddAccount(username, password); err != nil {
		return err
	}

	if m.maxAccounts > 0 && m.accounts.Len() > m.maxAccounts {
		m.logger.Warn("account pool exceeds configured maximum", "accounts", m.accounts.Len(), "max", m.maxAccounts)
	}
	return nil
}

// CreatePlaylist creates a playlist owned by account and returns its id.
// Empty name or description fall back to the configured defaults.
func (m *Manager) CreatePlaylist(ctx context.Context, account, name, description string) (string, error) {
	client, err := m.clients.Client(ctx, account)
	if err != nil {
		return "", err
	}

	if name == "" {
		name = m.playlist.DefaultName
	}
	if description == "" {
		description = m.playlist.DefaultDescription
	}

	userID, err := client.CurrentUserID(ctx)
	if err != nil {
		return "", err
	}

	id, err := client.CreatePlaylist(ctx, userID, name, description)
	if err != nil {
		return "", err
	}

	m.logger.Info("playlist created", "account", account, "playlist", id)
	return id, nil
}

// AddTrackToPlaylist appends trackURI to playlistID using account.
func (m *Manager) AddTrackToPlaylist(ctx context.Context, account, playlistID, trackURI string) error {
	if playlistID == "" || trackURI == "" {
		return fmt.Errorf("%w: playlist id and track uri are required", shared.ErrMissingArgument)
	}

	client, err := m.clients.Client(ctx, account)
	if err != nil {
		return err
	}

	if err := client.AddItemsToPlaylist(ctx, playlistID, []string{trackURI}); err != nil {
		return err
	}

	m.logger.Info("track added", "account", account, "playlist", playlistID, "track", trackURI)
	return nil
}

// PlayTrack starts playback of trackURI on account's active device.
func (m *Manager) PlayTrack(ctx context.Context, account, trackURI string) error {
	if trackURI == "" {
		return fmt.Errorf("%w: track uri is required", shared.ErrMissingArgument)
	}

	client, err := m.clients.Client(ctx, account)
	if err != nil {
		return err
	}

	if err := client.StartPlayback(ctx, []string{trackURI}); err != nil {
		return err
	}

	m.logger.Info("playback started", "account", account, "track", trackURI)
	return nil
}
