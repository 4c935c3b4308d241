// Package ui implements the planboard command line.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/planboard/internal/client"
	"github.com/javiermolinar/planboard/internal/config"
	"github.com/javiermolinar/planboard/internal/logger"
	"github.com/javiermolinar/planboard/internal/planner"
	"github.com/javiermolinar/planboard/internal/store"
	"github.com/javiermolinar/planboard/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// ErrNoUser is returned when a command needs a user and none is configured.
var ErrNoUser = errors.New("no user configured; pass --user or set planner.user")

// App holds the CLI application state.
type App struct {
	config *config.Config
	root   *cobra.Command
	stdin  *bufio.Reader

	// Global flags
	configPath string
	debug      bool
	user       string
	server     string
	noColor    bool
}

// NewApp creates the CLI application. Configuration is loaded when a command
// runs so that --config can point elsewhere.
func NewApp() *App {
	a := &App{}

	a.root = &cobra.Command{
		Use:   "planboard",
		Short: "A day, week and month time-block planner",
		Long: `Planboard is a time-block planner for the terminal.

Blocks are created, moved, resized and duplicated with the mouse on a
day, week or month grid, and saved locally or to a planboard server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = logger.Close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI(cmd.Context(), cmd)
		},
	}

	flags := a.root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultConfigPath(), "Config file path")
	flags.BoolVar(&a.debug, "debug", false, "Enable debug logging")
	flags.StringVar(&a.user, "user", "", "User whose plan to open")
	flags.StringVar(&a.server, "server", "", "Planboard server URL (remote mode)")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable color output")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.serveCmd())
	a.root.AddCommand(a.userCmd())
	a.root.AddCommand(a.planCmd())
	a.root.AddCommand(a.historyCmd())

	return a
}

// setup loads the configuration, applies the global flags and starts logging.
func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadFrom(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if a.debug {
		cfg.Log.Debug = true
	}
	if a.user != "" {
		cfg.Planner.User = a.user
	}
	if a.server != "" {
		cfg.Server.URL = a.server
	}
	if a.noColor {
		cfg.UI.NoColor = true
	}
	if cfg.UI.NoColor {
		DisableColor()
	}
	a.config = cfg

	return logger.Init(logger.Config{
		Debug:  cfg.Log.Debug,
		File:   cfg.Log.File,
		Stderr: cmd.Name() == "serve" || (cfg.Log.Debug && cmd != a.root),
	})
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "planboard %s (commit: %s)\n", Version, Commit)
		},
	}
}

// runTUI opens the configured user's plans and runs the terminal planner.
// Without a user the planner still runs but cannot save.
func (a *App) runTUI(ctx context.Context, cmd *cobra.Command) error {
	if a.config.Planner.User == "" {
		return tui.Run(ctx, a.config, nil)
	}
	plans, closeFn, err := a.openPlans(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()
	return tui.Run(ctx, a.config, plans)
}

// openPlans returns the configured user's plan store: the server in remote
// mode, the local store otherwise. Remote mode logs in first.
func (a *App) openPlans(ctx context.Context, cmd *cobra.Command) (planner.PlanStore, func(), error) {
	user := a.config.Planner.User
	if user == "" {
		return nil, nil, ErrNoUser
	}

	if a.config.Server.URL != "" {
		c, err := client.New(a.config.Server.URL)
		if err != nil {
			return nil, nil, err
		}
		password, err := a.readPassword(cmd, fmt.Sprintf("Password for %s: ", user))
		if err != nil {
			return nil, nil, err
		}
		if _, err := c.Login(ctx, user, password, false); err != nil {
			return nil, nil, fmt.Errorf("logging in to %s: %w", a.config.Server.URL, err)
		}
		logger.Info("logged in", "user", user, "server", a.config.Server.URL)
		return c, func() { _ = c.Logout(context.Background()) }, nil
	}

	st, err := store.Open(a.config.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return store.UserPlans{Store: st, Username: user}, func() { _ = st.Close() }, nil
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}
