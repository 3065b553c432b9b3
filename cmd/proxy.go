package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spool/internal/proxy"
	"github.com/desertthunder/spool/internal/shared"
	"github.com/urfave/cli/v3"
)

// loadProxies reads the proxy list without opening the credential store.
func (r *Runner) loadProxies() (*proxy.Selector, error) {
	if r.proxies != nil {
		return r.proxies, nil
	}

	cfg := r.cfg()
	entries, err := proxy.Load(cfg.Proxy.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load proxies: %w", err)
	}
	r.proxies = proxy.NewSelector(entries, proxy.Credentials{Username: cfg.Proxy.Username, Password: cfg.Proxy.Password})
	return r.proxies, nil
}

// ProxyList prints the loaded proxy entries.
func (r *Runner) ProxyList(ctx context.Context, cmd *cli.Command) error {
	proxies, err := r.loadProxies()
	if err != nil {
		return err
	}

	if proxies.Len() == 0 {
		return r.writePlain("No proxies loaded from %s; requests use the environment's proxy settings\n", r.cfg().Proxy.File)
	}

	r.writePlainHeader(fmt.Sprintf("Proxies (%d)", proxies.Len()))
	for i, entry := range proxies.Entries() {
		r.writePlain("%3d. %s\n", i+1, entry)
	}
	return nil
}

// ProxyPick picks one proxy the way clients do and prints its URL with the password redacted.
func (r *Runner) ProxyPick(ctx context.Context, cmd *cli.Command) error {
	proxies, err := r.loadProxies()
	if err != nil {
		return err
	}

	url, ok := proxies.PickURL()
	if !ok {
		return fmt.Errorf("%w: proxy list %s is empty", shared.ErrMissingConfig, r.cfg().Proxy.File)
	}
	return r.writePlain("%s\n", shared.RedactURL(url))
}
