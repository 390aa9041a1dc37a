// Package main is the entry point for the Neon usage dashboard. Without a
// subcommand it runs the Bubble Tea program; usage and projects print to
// stdout.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/neon-usage-tui/internal/app"
	"github.com/j-veylop/neon-usage-tui/internal/config"
	"github.com/j-veylop/neon-usage-tui/internal/logger"
	"github.com/j-veylop/neon-usage-tui/internal/services"
	"github.com/j-veylop/neon-usage-tui/internal/ui/tabs/daily"
	"github.com/j-veylop/neon-usage-tui/internal/ui/tabs/dashboard"
	"github.com/j-veylop/neon-usage-tui/internal/ui/tabs/info"
	"github.com/j-veylop/neon-usage-tui/internal/ui/tabs/projects"
	"github.com/j-veylop/neon-usage-tui/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   version.Name,
		Short: "Terminal dashboard for Neon organization consumption",
		Long: `Shows the last thirty days of Neon billing consumption for an organization,
aggregated per day, optionally restricted to a saved set of projects.

Configuration is read from the environment or a .env file:
  NEON_API_KEY         API key (falls back to neonctl credentials)
  NEON_ORG_ID          Organization id (org-...)
  NEON_API_BASE_URL    Billing API base URL
  CACHE_TTL            Response cache lifetime, 0 disables (default: 15m)
  REFRESH_INTERVAL     Background refresh interval (default: 15m)
  COMPUTE_ALERT_HOURS  Desktop alert threshold for 30-day compute hours
  LOG_PATH, LOG_LEVEL  Log file and level`,
		Version:       version.Info(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI()
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddCommand(newUsageCmd(), newProjectsCmd())

	return root
}

// setup loads configuration and starts the services shared by every command.
func setup() (*config.Config, *services.Manager, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logCloser, err := logger.Init(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	mgr, err := services.NewManager(cfg)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return cfg, mgr, logCloser, nil
}

func shutdown(mgr *services.Manager, logCloser io.Closer) {
	if err := mgr.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", err)
	}
	_ = logCloser.Close()
}

func runTUI() error {
	cfg, mgr, logCloser, err := setup()
	if err != nil {
		return err
	}
	defer shutdown(mgr, logCloser)

	logger.Info("starting", "version", version.GetVersion(), "org", cfg.OrgID)

	model := app.NewModel(mgr)

	state := model.GetState()
	model.SetTabs([]app.Tab{
		dashboard.New(state, cfg.OrgID).WithProjection(mgr.Projection()),
		daily.New(state),
		projects.New(state),
		info.New(state, cfg),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		if _, ok := <-sigChan; ok {
			p.Send(tea.Quit())
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
