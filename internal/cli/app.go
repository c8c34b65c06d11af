// Package cli is the bookreview command tree.
//
// Every invocation loads config, opens the configured key-value backend,
// opens a catalog.Store over it (which runs the integrity pass) and closes
// the backend when the command returns. The session lives in the backend,
// so "bookreview login" in one invocation is still in effect in the next.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sakif/bookreview/internal/auth"
	"github.com/sakif/bookreview/internal/catalog"
	"github.com/sakif/bookreview/internal/config"
	"github.com/sakif/bookreview/internal/repository"
	"github.com/sakif/bookreview/internal/repository/memory"
	"github.com/sakif/bookreview/internal/repository/redis"
	"github.com/sakif/bookreview/internal/repository/sqlite"
)

// BackendOpener opens the key-value store a config points at.
type BackendOpener func(ctx context.Context, cfg config.Config) (repository.KeyValueStore, error)

// App holds the I/O streams and the per-invocation state of the CLI.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// OpenBackend defaults to OpenBackend; tests swap in a shared memory store.
	OpenBackend BackendOpener
	// StoreOptions are appended to the options derived from config.
	StoreOptions []catalog.Option

	configPath string
	cfg        config.Config
	logger     *slog.Logger
	kv         repository.KeyValueStore
	store      *catalog.Store
}

// NewApp returns an App wired to the process streams and OpenBackend.
func NewApp() *App {
	return &App{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		OpenBackend: OpenBackend,
	}
}

// Execute runs the command line in args and releases the backend, whatever
// the outcome.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.Command()
	root.SetArgs(args)
	root.SetIn(a.Stdin)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Command builds the root command.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "bookreview",
		Short: "A book review catalog: readers, books, reviews and statistics",
		Long: `bookreview keeps a catalog of books and the reviews readers write about them.

Log in once and the session persists in the configured backend until you log out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath+")")

	root.AddCommand(
		a.registerCommand(),
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.bookCommand(),
		a.reviewCommand(),
		a.popularCommand(),
		a.recentCommand(),
		a.statsCommand(),
		a.seedCommand(),
		a.checkCommand(),
		a.exportCommand(),
		a.importCommand(),
		a.serveCommand(),
	)
	return root
}

func (a *App) open(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = NewLogger(a.Stderr, cfg.LogLevel, cfg.LogFormat)

	hasher, err := auth.NewHasher(cfg.PasswordScheme, cfg.BcryptCost)
	if err != nil {
		return err
	}

	kv, err := a.OpenBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening %s backend: %w", cfg.Backend, err)
	}
	a.kv = kv

	opts := append([]catalog.Option{
		catalog.WithLogger(a.logger),
		catalog.WithPasswordHasher(hasher),
	}, a.StoreOptions...)

	store, err := catalog.Open(ctx, kv, opts...)
	if err != nil {
		return err
	}
	a.store = store
	a.logger.Debug("catalog opened", slog.String("backend", cfg.Backend))
	return nil
}

func (a *App) close() error {
	if a.kv == nil {
		return nil
	}
	err := a.kv.Close()
	a.kv, a.store = nil, nil
	return err
}

// OpenBackend opens the backend named by cfg.Backend.
func OpenBackend(ctx context.Context, cfg config.Config) (repository.KeyValueStore, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating %s: %w", dir, err)
			}
		}
		db, err := sqlite.New(cfg.SQLitePath, cfg.Namespace)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.BackendRedis:
		rs, err := redis.New(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Namespace,
		})
		if err != nil {
			return nil, err
		}
		return rs, nil
	case config.BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// requireFlags marks names as required on cmd. An unknown name is a bug in
// the command definition, so it panics the way cobra's flag-group helpers do.
func requireFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("cli: %s: %v", cmd.Name(), err))
		}
	}
}

// readPassword returns the --password flag when given, otherwise prompts.
// A terminal gets a masked prompt; piped input is read one line at a time.
func (a *App) readPassword(cmd *cobra.Command, flagValue, prompt string) (string, error) {
	if cmd.Flags().Changed("password") {
		return flagValue, nil
	}

	if f, ok := a.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.Stderr, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(a.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
