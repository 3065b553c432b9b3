package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/spool/internal/models"
	"github.com/desertthunder/spool/internal/shared"
	"github.com/desertthunder/spool/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

type accountStatus struct {
	Username string `json:"username"`
	LoggedIn bool   `json:"logged_in"`
	Cache    string `json:"token_cache"`
}

// AccountAdd encrypts and stores a username/password pair.
func (r *Runner) AccountAdd(ctx context.Context, cmd *cli.Command) error {
	username := strings.TrimSpace(cmd.StringArg("username"))
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	password := cmd.String("password")
	if password == "" {
		p, err := r.readPassword(fmt.Sprintf("Password for %s: ", username))
		if err != nil {
			return err
		}
		password = p
	}

	return r.run(ctx, tasks.Request{
		Action:   models.ActionAddAccount,
		Account:  username,
		Password: password,
	})
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func (r *Runner) readPassword(prompt string) (string, error) {
	if f, ok := r.inputFile(); ok && term.IsTerminal(int(f.Fd())) {
		r.writePlain("%s", prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		r.writePlain("\n")
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := r.input.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *Runner) inputFile() (*os.File, bool) {
	f, ok := r.rawInput.(*os.File)
	return f, ok
}

// AccountList prints stored account ids and whether each has a cached token. Passwords are never shown.
func (r *Runner) AccountList(ctx context.Context, cmd *cli.Command) error {
	if err := r.openPool(); err != nil {
		return err
	}

	accounts := r.store.Accounts()
	statuses := make([]accountStatus, 0, len(accounts))
	for _, id := range accounts {
		statuses = append(statuses, accountStatus{
			Username: id,
			LoggedIn: r.tokens.Has(id),
			Cache:    r.tokens.Path(id),
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(statuses, true)
	}

	if len(statuses) == 0 {
		r.writePlain("No accounts stored in %s\n", r.store.Path())
		return r.writePlain("Add one with 'spool account add <username>'\n")
	}

	r.writePlainHeader(fmt.Sprintf("Accounts (%d)", len(statuses)))
	for _, s := range statuses {
		mark := "✗ login required"
		if s.LoggedIn {
			mark = "✓ token cached"
		}
		r.writePlain("%-32s %s\n", s.Username, mark)
	}
	return nil
}

// AccountRemove deletes an account from the store along with its cached token.
func (r *Runner) AccountRemove(ctx context.Context, cmd *cli.Command) error {
	username := strings.TrimSpace(cmd.StringArg("username"))
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	if err := r.openPool(); err != nil {
		return err
	}

	if err := r.store.RemoveAccount(username); err != nil {
		return err
	}
	if err := r.tokens.Remove(username); err != nil {
		r.logger.Warn("failed to remove cached token", "account", username, "error", err)
	}

	return r.writePlain("✓ Account %s removed\n", username)
}
