package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iudanet/notesync/internal/client/api"
	"github.com/iudanet/notesync/internal/client/auth"
	"github.com/iudanet/notesync/internal/client/docs"
	"github.com/iudanet/notesync/internal/client/iocli"
	"github.com/iudanet/notesync/internal/client/live"
	"github.com/iudanet/notesync/internal/client/storage/boltdb"
	clientsync "github.com/iudanet/notesync/internal/client/sync"
	"github.com/iudanet/notesync/internal/config"
	"github.com/iudanet/notesync/internal/logging"
)

// app хранит конфиг одного запуска клиента
type app struct {
	v       *viper.Viper
	stdio   iocli.IO
	stderr  io.Writer
	cfgFile string
}

// NewRootCommand собирает дерево команд клиента
func NewRootCommand(version string, stdio iocli.IO, stderr io.Writer) *cobra.Command {
	a := &app{v: config.New(), stdio: stdio, stderr: stderr}

	root := &cobra.Command{
		Use:           "notesync",
		Short:         "Offline-first document sync client",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdio)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "path to YAML config file")
	flags.String("server", "http://localhost:8080", "server URL")
	flags.String("db", "notesync-client.db", "path to local database")
	flags.String("log.level", "warn", "log level (debug, info, warn, error)")
	flags.String("log.file", "", "log file (rotated), stderr if empty")

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.guestCmd(),
		a.statusCmd(),
		a.syncCmd(),
		a.liveCmd(),
		a.docCmd(),
	)
	return root
}

// Execute запускает клиент на stdin/stdout
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version, iocli.NewStdio(), os.Stderr).ExecuteContext(ctx)
}

// run открывает базу и сервисы на время выполнения команды
func (a *app) run(fn func(ctx context.Context, c *Cli, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		config.SetClientDefaults(a.v)
		if err := config.Read(a.v, a.cfgFile, cmd.Flags()); err != nil {
			return err
		}
		cfg, err := config.LoadClient(a.v)
		if err != nil {
			return err
		}

		logger, logCloser, err := logging.New(cfg.Log, a.stderr)
		if err != nil {
			return err
		}
		defer logCloser.Close()

		ctx := cmd.Context()
		store, err := boltdb.New(ctx, cfg.DBPath)
		if err != nil {
			if errors.Is(err, boltdb.ErrLocked) {
				return fmt.Errorf("%w (is 'notesync live' running?)", err)
			}
			return err
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				logger.Warn("failed to close storage", slog.Any("error", cerr))
			}
		}()

		apiClient := api.NewClient(cfg.ServerURL, cfg.Timeout)
		authService := auth.NewService(apiClient, store, logger)
		coord := clientsync.NewCoordinator(apiClient, store, store, authService,
			clientsync.NewState(), clientsync.NewStaleQueue(), logger, cfg.BatchSize)

		opts := live.Options{
			Debounce:     cfg.Debounce,
			ReconnectMin: cfg.ReconnectMin,
			ReconnectMax: cfg.ReconnectMax,
		}
		newLive := func(display *live.DisplaySet) *live.Manager {
			return live.NewManager(apiClient, store, authService, coord, live.NewWebsocketDialer(), display, logger, opts)
		}

		c := New(a.stdio, authService, docs.NewService(store), coord, store, store, newLive, logger)
		return fn(ctx, c, args)
	}
}

func passwordFlags(cmd *cobra.Command, p *Passwords) {
	cmd.Flags().StringVar(&p.FromArgs, "password", "", "account password (not recommended, use "+PasswordEnv+" or a file)")
	cmd.Flags().StringVar(&p.FromFile, "password-file", "", "path to file containing account password")
}

func (a *app) registerCmd() *cobra.Command {
	var passwords Passwords
	cmd := &cobra.Command{
		Use:   "register [username]",
		Short: "Register a new account and login",
		Long: `Register a new account and login.

Password priority (highest to lowest):
  1. ` + PasswordEnv + ` environment variable
  2. --password-file
  3. --password
  4. interactive prompt`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.run(func(ctx context.Context, c *Cli, args []string) error {
			return c.runRegister(ctx, args, passwords)
		}),
	}
	passwordFlags(cmd, &passwords)
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var passwords Passwords
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Login to the sync server",
		Long: `Login to the sync server.

A guest database is adopted by the account on the next sync.
A database bound to another account is refused.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.run(func(ctx context.Context, c *Cli, args []string) error {
			return c.runLogin(ctx, args, passwords)
		}),
	}
	passwordFlags(cmd, &passwords)
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout and forget the local session",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runLogout(ctx)
		}),
	}
}

func (a *app) guestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guest",
		Short: "Use the local database without an account (no sync)",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runGuest(ctx)
		}),
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and local database status",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runStatus(ctx)
		}),
	}
}

func (a *app) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a full synchronization with the server",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runSync(ctx)
		}),
	}
}

func (a *app) liveCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Keep a live sync channel open and edit documents interactively",
		Long: `Keep a live sync channel open.

On every (re)connect a full sync runs first, then local edits are pushed
and remote edits are applied as they happen. Documents matching --prefix
are printed when they change.

` + liveHelp,
		Args: cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runLive(ctx, prefix)
		}),
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "display documents whose id starts with prefix")
	return cmd
}

func (a *app) docCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Manage local documents",
	}

	var rev, file string
	put := &cobra.Command{
		Use:   "put <kind:subkind|id> [json]",
		Short: "Create a document or write a new revision",
		Example: `  notesync doc put note:text '{"title":"groceries"}'
  notesync doc put note:text:2f1c... --rev 1-ab12 '{"title":"milk"}'
  notesync doc put note:text -f body.json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: a.run(func(ctx context.Context, c *Cli, args []string) error {
			body, err := readBody(args[1:], file)
			if err != nil {
				return err
			}
			return c.runDocPut(ctx, args[0], rev, body)
		}),
	}
	put.Flags().StringVar(&rev, "rev", "", "expected current revision (default: latest)")
	put.Flags().StringVarP(&file, "file", "f", "", "read JSON body from file")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a document",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, c *Cli, args []string) error {
			return c.runDocGet(ctx, args[0])
		}),
	}

	rm := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a document (tombstone)",
		Args:    cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, c *Cli, args []string) error {
			return c.runDocRm(ctx, args[0])
		}),
	}

	ls := &cobra.Command{
		Use:     "ls [prefix]",
		Aliases: []string{"list"},
		Short:   "List documents, optionally by id prefix (e.g. note:)",
		Args:    cobra.MaximumNArgs(1),
		RunE: a.run(func(ctx context.Context, c *Cli, args []string) error {
			var prefix string
			if len(args) > 0 {
				prefix = args[0]
			}
			return c.runDocLs(ctx, prefix)
		}),
	}

	log := &cobra.Command{
		Use:   "log <id>",
		Short: "Show the local revision history of a document",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, c *Cli, args []string) error {
			return c.runDocLog(ctx, args[0])
		}),
	}

	cmd.AddCommand(put, get, rm, ls, log)
	return cmd
}

func readBody(args []string, file string) ([]byte, error) {
	switch {
	case file != "" && len(args) > 0:
		return nil, errors.New("pass the body either as an argument or with --file")
	case file != "":
		body, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}
		return body, nil
	case len(args) > 0:
		return []byte(args[0]), nil
	default:
		return nil, errors.New("document body is required")
	}
}
