package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spool/internal/shared"
	"golang.org/x/oauth2"
)

// FactoryOpts holds the dependencies of a [Factory].
type FactoryOpts struct {
	Config   *shared.Config
	Accounts AccountLookup
	Proxies  ProxyPicker
	Tokens   *TokenCache
	Logger   *log.Logger
}

// Factory builds a fresh, proxied [SpotifyClient] for a stored account on every call.
//
// Clients are never cached, so each call may egress through a different proxy.
type Factory struct {
	config   *shared.Config
	accounts AccountLookup
	proxies  ProxyPicker
	tokens   *TokenCache
	logger   *log.Logger
}

// NewFactory creates a Factory. Missing config, token cache and logger fall back to defaults.
func NewFactory(opts FactoryOpts) *Factory {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Tokens == nil {
		opts.Tokens = NewTokenCache(opts.Config.Store.TokenCacheDir)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Factory{
		config:   opts.Config,
		accounts: opts.Accounts,
		proxies:  opts.Proxies,
		tokens:   opts.Tokens,
		logger:   opts.Logger,
	}
}

// OAuthConfig returns the application's OAuth2 configuration with the pool scopes.
func (f *Factory) OAuthConfig() *oauth2.Config {
	sc := f.config.Spotify

	authURL, tokenURL := sc.AuthURL, sc.TokenURL
	if authURL == "" {
		authURL = spotifyAuthURL
	}
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}

	return &oauth2.Config{
		ClientID:     sc.ClientID,
		ClientSecret: sc.ClientSecret,
		RedirectURL:  sc.RedirectURI,
		Scopes:       append([]string(nil), Scopes...),
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}
}

// Client returns a [Remote] acting for accountID.
//
// An unknown account fails with [shared.ErrAccountNotFound] before a proxy is chosen.
// No network traffic happens until a method on the returned client is called.
func (f *Factory) Client(ctx context.Context, accountID string) (Remote, error) {
	return f.SpotifyClient(ctx, accountID)
}

// SpotifyClient is [Factory.Client] returning the concrete type.
func (f *Factory) SpotifyClient(ctx context.Context, accountID string) (*SpotifyClient, error) {
	if err := f.checkAccount(accountID); err != nil {
		return nil, err
	}

	proxyURL, base, err := f.baseClient()
	if err != nil {
		return nil, err
	}

	logger := f.logger.With("account", accountID)
	logger.Debug("building client", "proxy", shared.RedactURL(proxyURL))

	// Token refreshes travel through the same proxied client as API calls.
	refreshCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, base)
	source := f.tokens.TokenSource(refreshCtx, f.OAuthConfig(), accountID, logger)

	hc := &http.Client{
		Transport: &oauth2.Transport{Source: source, Base: base.Transport},
		Timeout:   f.config.App.Timeout(),
	}

	return NewSpotifyClient(accountID, proxyURL, f.config.Spotify.APIBaseURL, hc, logger), nil
}

// Authorizer returns the login helper for accountID, bound to a freshly picked proxy.
func (f *Factory) Authorizer(accountID string) (*Authorizer, error) {
	if err := f.checkAccount(accountID); err != nil {
		return nil, err
	}

	proxyURL, base, err := f.baseClient()
	if err != nil {
		return nil, err
	}

	return &Authorizer{
		accountID: accountID,
		proxyURL:  proxyURL,
		config:    f.OAuthConfig(),
		client:    base,
		tokens:    f.tokens,
		logger:    f.logger.With("account", accountID),
	}, nil
}

func (f *Factory) checkAccount(accountID string) error {
	if f.accounts == nil || !f.accounts.Has(accountID) {
		return fmt.Errorf("%w: %s", shared.ErrAccountNotFound, accountID)
	}
	return nil
}

// baseClient picks a proxy and returns an unauthenticated client routed through it.
func (f *Factory) baseClient() (string, *http.Client, error) {
	var proxyURL string
	if f.proxies != nil {
		proxyURL, _ = f.proxies.PickURL()
	}

	transport, err := NewProxyTransport(proxyURL)
	if err != nil {
		return "", nil, err
	}
	return proxyURL, &http.Client{Transport: transport, Timeout: f.config.App.Timeout()}, nil
}

// NewProxyTransport clones the default transport and routes both http and https through proxyURL.
// An empty proxyURL keeps the environment's proxy settings.
func NewProxyTransport(proxyURL string) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL == "" {
		return transport, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("%w: proxy %s: %v", shared.ErrInvalidConfig, shared.RedactURL(proxyURL), err)
	}
	transport.Proxy = http.ProxyURL(u)
	return transport, nil
}

// Authorizer runs the authorization-code exchange for one account through a proxy
// and seeds that account's token cache.
type Authorizer struct {
	accountID string
	proxyURL  string
	config    *oauth2.Config
	client    *http.Client
	tokens    *TokenCache
	logger    *log.Logger
}

// AccountID returns the account being authorized.
func (a *Authorizer) AccountID() string { return a.accountID }

// ProxyURL returns the proxy used for the exchange, or "".
func (a *Authorizer) ProxyURL() string { return a.proxyURL }

// Config returns the OAuth2 configuration in use.
func (a *Authorizer) Config() *oauth2.Config { return a.config }

// AuthURL returns the consent page URL for state.
func (a *Authorizer) AuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades an authorization code for a token and writes it to the account's cache.
func (a *Authorizer) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)

	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if err := a.tokens.Save(a.accountID, token); err != nil {
		return nil, err
	}

	a.logger.Info("token cached", "path", a.tokens.Path(a.accountID))
	return token, nil
}
