package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/gallery/internal/adapter"
	"github.com/mmcdole/gallery/internal/app"
	"github.com/mmcdole/gallery/internal/favorites"
	"github.com/mmcdole/gallery/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// shutdownTimeout bounds the final flush of pending writes
const shutdownTimeout = 5 * time.Second

// env holds what commands need from the outside world
type env struct {
	loadConfig func() (*adapter.Config, error)
	saveConfig func(*adapter.Config) error
	appOpts    []app.Option
	isTerminal func() bool
	readSecret func() (string, error)
}

func defaultEnv() *env {
	return &env{
		loadConfig: adapter.LoadConfig,
		saveConfig: adapter.SaveConfig,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		},
		readSecret: func() (string, error) {
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			return string(b), err
		},
	}
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, defaultEnv())
}

func newRootCommand(version string, e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gallery",
		Short:         "Gallery - browse cat breeds from the terminal",
		Long:          "Gallery pages through a remote cat image catalog, keeps favorites on disk and works offline from the last pages it saw.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, e, version)
		},
	}

	// Add subcommands
	cmd.AddCommand(newSetupCommand(e))
	cmd.AddCommand(newFavoritesCommand(e))
	cmd.AddCommand(newPageCommand(e))
	cmd.AddCommand(newShowCommand(e))

	return cmd
}

// withApp loads configuration, builds the application, runs fn and closes
// the application even when fn fails.
func withApp(cmd *cobra.Command, e *env, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, e.appOpts...)
	if err != nil {
		return err
	}

	runErr := fn(ctx, a)

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(runErr, a.Close(closeCtx))
}

// runTUI starts the TUI application
func runTUI(cmd *cobra.Command, e *env, version string) error {
	if !e.isTerminal() {
		return errors.New("gallery needs an interactive terminal; try 'gallery page 1' instead")
	}

	cfg, err := e.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.IsConfigured() {
		if err := runSetup(cmd.OutOrStdout(), e, cfg); err != nil {
			return err
		}
	}

	return withApp(cmd, e, func(ctx context.Context, a *app.App) error {
		a.Logger.Info("starting gallery", "version", version)

		changes := make(chan favorites.Change, 16)
		unsubscribe := a.Favorites.Subscribe(tui.NewChannelObserver(changes).OnChange)
		defer unsubscribe()

		model := tui.NewModel(a.Gallery, a.Opener, changes, a.Logger)
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

		a.Logger.Info("starting TUI")
		if _, err := p.Run(); err != nil {
			a.Logger.Error("TUI error", "error", err)
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}
