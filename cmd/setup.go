package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/spool/internal/shared"
	"github.com/desertthunder/spool/internal/vault"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err == nil {
		r.logger.Info("config file already exists", "path", r.configPath)
		return r.writePlain("✓ Config already present at %s\n", r.configPath)
	}

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	r.logger.Info("config file created", "path", r.configPath)

	r.writePlain("✓ Config written to %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set spotify.client_id and spotify.client_secret (or SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET)\n")
	r.writePlain("2. Put one host:port per line in %s\n", r.cfg().Proxy.File)
	r.writePlain("3. Run 'spool setup key' and 'spool account add <username>'\n")
	return nil
}

// SetupKey creates the store key if it is missing and verifies it otherwise.
//
// With SPOOL_PASSPHRASE (or store.passphrase) set, the key is derived with scrypt
// and only a salt and a check value are written to disk.
func (r *Runner) SetupKey(ctx context.Context, cmd *cli.Command) error {
	cfg := r.cfg()

	_, statErr := os.Stat(cfg.Store.KeyFile)
	existed := statErr == nil

	if _, err := vault.LoadKey(cfg.Store.KeyFile, cfg.Store.Passphrase); err != nil {
		return fmt.Errorf("failed to load key: %w", err)
	}

	mode := "random key"
	if cfg.Store.Passphrase != "" {
		mode = "passphrase"
	}

	if existed {
		r.logger.Info("key verified", "path", cfg.Store.KeyFile, "mode", mode)
		return r.writePlain("✓ Key at %s is valid (%s)\n", cfg.Store.KeyFile, mode)
	}

	r.logger.Info("key created", "path", cfg.Store.KeyFile, "mode", mode)
	r.writePlain("✓ Key created at %s (%s)\n", cfg.Store.KeyFile, mode)
	if mode == "random key" {
		r.writePlain("⚠ Anyone who can read this file can decrypt %s\n", cfg.Store.AccountsFile)
	}
	return nil
}

// SetupDatabase initializes the history database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	cfg := r.cfg()
	r.logger.Info("initializing database", "path", cfg.Database.Path)

	db, err := shared.OpenDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", cfg.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", cfg.Database.Path)
}
