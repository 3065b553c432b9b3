package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/spool/internal/server"
	"github.com/desertthunder/spool/internal/services"
	"github.com/desertthunder/spool/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const defaultLoginTimeout = 2 * time.Minute

// AuthLogin runs the authorization code flow for one account and caches its token.
//
// The code exchange goes through the proxy picked for this login.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	account := strings.TrimSpace(cmd.StringArg("account"))
	if account == "" {
		return fmt.Errorf("%w: account", shared.ErrMissingArgument)
	}

	cfg := r.cfg()
	if err := cfg.Spotify.Validate(); err != nil {
		return err
	}
	if err := r.openPool(); err != nil {
		return err
	}

	authorizer, err := r.factory.Authorizer(account)
	if err != nil {
		return err
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = defaultLoginTimeout
	}

	token, err := r.doOAuth(ctx, authorizer, timeout, !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	r.writePlain("✓ Logged in as %s\n", account)
	if p := authorizer.ProxyURL(); p != "" {
		r.writePlain("Proxy: %s\n", shared.RedactURL(p))
	}
	if !token.Expiry.IsZero() {
		r.writePlain("Token expires: %s\n", token.Expiry.Local().Format(time.RFC1123))
	}
	return nil
}

// doOAuth serves the callback on the configured host and port until the first callback,
// the timeout, or cancellation of ctx.
func (r *Runner) doOAuth(ctx context.Context, authorizer *services.Authorizer, timeout time.Duration, openBrowser bool) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	account := authorizer.AccountID()
	handler := server.NewOAuthHandler(authorizer, account, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	cfg := r.cfg()
	if u, err := url.Parse(cfg.Spotify.RedirectURI); err != nil || u.Path != server.CallbackPath {
		return nil, fmt.Errorf("%w: redirect_uri must end in %s, got %q", shared.ErrInvalidConfig, server.CallbackPath, cfg.Spotify.RedirectURI)
	}
	addr := net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: callback server: %v", shared.ErrServiceUnavailable, err)
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", account, addr)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := authorizer.AuthURL(state)
	if openBrowser {
		r.writePlain("→ Opening browser to log in %s...\n", account)
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			openBrowser = false
		}
	}
	if !openBrowser {
		r.writePlain("Open this URL while logged in to Spotify as %s:\n%s\n\n", account, authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

// AuthStatus reports the cached token state of one account, or of every stored account.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.openPool(); err != nil {
		return err
	}

	accounts := r.store.Accounts()
	if account := strings.TrimSpace(cmd.StringArg("account")); account != "" {
		if !r.store.Has(account) {
			return fmt.Errorf("%w: %s", shared.ErrAccountNotFound, account)
		}
		accounts = []string{account}
	}

	if len(accounts) == 0 {
		return r.writePlain("No accounts stored\n")
	}

	for _, id := range accounts {
		token, err := r.tokens.Load(id)
		switch {
		case err != nil:
			r.writePlain("✗ %s: not logged in (spool auth login %s)\n", id, id)
		case token.RefreshToken == "" && !token.Valid():
			r.writePlain("✗ %s: token expired at %s and cannot be refreshed\n", id, token.Expiry.Local().Format(time.RFC1123))
		case token.Valid() && token.Expiry.IsZero():
			r.writePlain("✓ %s: token cached\n", id)
		case token.Valid():
			r.writePlain("✓ %s: token valid until %s\n", id, token.Expiry.Local().Format(time.RFC1123))
		default:
			r.writePlain("✓ %s: token expired, refreshed on next use\n", id)
		}
	}
	return nil
}
