package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spool/internal/proxy"
	"github.com/desertthunder/spool/internal/repositories"
	"github.com/desertthunder/spool/internal/services"
	"github.com/desertthunder/spool/internal/shared"
	"github.com/desertthunder/spool/internal/tasks"
	"github.com/desertthunder/spool/internal/vault"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The pool (store, proxies, token cache, client factory) is opened on first use so that
// setup commands work before a key or store exists.
type Runner struct {
	config     *shared.Config
	configPath string
	envPath    string
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
	rawInput   io.Reader

	store    *vault.Store
	proxies  *proxy.Selector
	tokens   *services.TokenCache
	factory  *services.Factory
	manager  *services.Manager
	history  *repositories.HistoryRepository
	recorder tasks.Recorder
	db       *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
		rawInput:   opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, accountCommand, authCommand, playlistCommand, playCommand, batchCommand, proxyCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and everything it opens afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Before loads .env and the config file once flags are parsed.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if path := cmd.String("config"); path != "" && (cmd.IsSet("config") || r.configPath == "") {
		r.configPath = path
	}
	if path := cmd.String("env"); path != "" && (cmd.IsSet("env") || r.envPath == "") {
		r.envPath = path
	}

	if r.config != nil {
		return ctx, nil
	}

	if err := shared.LoadDotEnv(r.envPath); err != nil {
		r.logger.Warn("failed to load .env", "error", err)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(r.configPath); err == nil {
		if config, err = shared.LoadConfig(r.configPath); err != nil {
			return ctx, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
		}
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}
	config.ApplyEnv(nil)

	r.config = config
	return ctx, nil
}

// cfg returns the loaded config, falling back to defaults when Before has not run.
func (r *Runner) cfg() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// openPool opens the credential store and builds the client factory.
//
// A store that fails to decrypt aborts with [shared.ErrDecryption]; the history database is optional.
func (r *Runner) openPool() error {
	if r.manager != nil {
		return nil
	}
	cfg := r.cfg()

	key, err := vault.LoadKey(cfg.Store.KeyFile, cfg.Store.Passphrase)
	if err != nil {
		return fmt.Errorf("failed to load key: %w", err)
	}
	cipher, err := vault.NewCipher(key)
	if err != nil {
		return err
	}

	store, err := vault.Open(cfg.Store.AccountsFile, cipher, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	proxies, err := r.loadProxies()
	if err != nil {
		return err
	}
	if proxies.Len() == 0 {
		r.logger.Warn("no proxies loaded, requests use the environment's proxy settings", "file", cfg.Proxy.File)
	}

	tokens := services.NewTokenCache(cfg.Store.TokenCacheDir)
	factory := services.NewFactory(services.FactoryOpts{
		Config:   cfg,
		Accounts: store,
		Proxies:  proxies,
		Tokens:   tokens,
		Logger:   r.logger,
	})

	r.store, r.tokens, r.factory = store, tokens, factory
	r.manager = services.NewManager(services.ManagerOpts{
		Accounts:    store,
		Clients:     factory,
		Playlist:    cfg.Playlist,
		MaxAccounts: cfg.App.MaxConcurrentAccounts,
		Logger:      r.logger,
	})

	r.logger.Debug("pool opened", "accounts", store.Len(), "proxies", proxies.Len())
	r.openHistory()
	return nil
}

// openHistory connects the action history. Failures are logged and history is skipped.
func (r *Runner) openHistory() {
	if r.history != nil {
		return
	}

	db, err := shared.OpenDatabase(r.cfg().Database)
	if err != nil {
		r.logger.Warn("action history disabled", "error", err)
		return
	}
	r.db = db
	r.history = repositories.NewHistoryRepository(db)
	r.recorder = r.history
}

// dispatcher returns a Dispatcher over the pool. The TUI passes requireName.
func (r *Runner) dispatcher(requireName bool) (*tasks.Dispatcher, error) {
	if err := r.openPool(); err != nil {
		return nil, err
	}
	return tasks.NewDispatcher(tasks.DispatcherOpts{
		Actions:     r.manager,
		Recorder:    r.recorder,
		Logger:      r.logger,
		RequireName: requireName,
	}), nil
}

// run executes one request in the foreground and reports its status line.
func (r *Runner) run(ctx context.Context, req tasks.Request) error {
	d, err := r.dispatcher(false)
	if err != nil {
		return err
	}

	res := d.Run(ctx, req)
	if !res.OK() {
		r.writePlain("✗ %s\n", res.Message())
		return res.Err
	}
	return r.writePlain("✓ %s\n", res.Message())
}

// Close releases the history database.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// isUsageError reports whether err came from bad input rather than a failed operation.
func isUsageError(err error) bool {
	return errors.Is(err, shared.ErrMissingArgument) || errors.Is(err, shared.ErrInvalidArgument)
}
