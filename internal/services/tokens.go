package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spool/internal/shared"
	"golang.org/x/oauth2"
)

// TokenCache stores one OAuth token per account as JSON under dir, named cache_<account>.json.
type TokenCache struct {
	dir string
	mu  sync.Mutex
}

// NewTokenCache returns a cache rooted at dir. The directory is created on first save.
func NewTokenCache(dir string) *TokenCache {
	if dir == "" {
		dir = "."
	}
	return &TokenCache{dir: dir}
}

// Path returns the cache file for account.
func (c *TokenCache) Path(account string) string {
	return filepath.Join(c.dir, "cache_"+url.PathEscape(account)+".json")
}

// Load reads the cached token for account. A missing cache wraps [shared.ErrNotAuthenticated].
func (c *TokenCache) Load(account string) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.Path(account))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no cached token for %s, run auth login", shared.ErrNotAuthenticated, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: token cache for %s is corrupt: %v", shared.ErrNotAuthenticated, account, err)
	}
	return &token, nil
}

// Save writes token for account with owner-only permissions.
func (c *TokenCache) Save(account string, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", shared.ErrInvalidInput)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := shared.WriteFileAtomic(c.Path(account), data, 0o600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}

// Has reports whether a token is cached for account.
func (c *TokenCache) Has(account string) bool {
	_, err := os.Stat(c.Path(account))
	return err == nil
}

// Remove deletes the cached token for account. A missing cache is not an error.
func (c *TokenCache) Remove(account string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.Path(account)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token cache: %w", err)
	}
	return nil
}

// TokenSource returns a source that loads the cached token lazily, refreshes it through config
// using the HTTP client carried by ctx, and writes refreshed tokens back to the cache.
func (c *TokenCache) TokenSource(ctx context.Context, config *oauth2.Config, account string, logger *log.Logger) oauth2.TokenSource {
	if logger == nil {
		logger = log.Default()
	}
	return &cachedTokenSource{
		ctx:     ctx,
		config:  config,
		cache:   c,
		account: account,
		logger:  logger,
	}
}

// cachedTokenSource defers reading the cache until the first request needs a token.
type cachedTokenSource struct {
	ctx     context.Context
	config  *oauth2.Config
	cache   *TokenCache
	account string
	logger  *log.Logger

	mu     sync.Mutex
	source oauth2.TokenSource
}

func (s *cachedTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == nil {
		token, err := s.cache.Load(s.account)
		if err != nil {
			return nil, err
		}
		s.source = &refreshableTokenSource{
			source: s.config.TokenSource(s.ctx, token),
			last:   token.AccessToken,
			callback: func(t *oauth2.Token) {
				if err := s.cache.Save(s.account, t); err != nil {
					s.logger.Warn("failed to persist refreshed token", "account", s.account, "error", err)
					return
				}
				s.logger.Debug("token refreshed", "account", s.account)
			},
		}
	}
	return s.source.Token()
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and invokes callback whenever the access token changes.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	last     string
	mu       sync.Mutex
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}
