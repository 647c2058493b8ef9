package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Gaurav-Gosain/surf/internal/config"
	"github.com/Gaurav-Gosain/surf/internal/ipc"
	"github.com/Gaurav-Gosain/surf/internal/provider"
	"github.com/Gaurav-Gosain/surf/internal/surface"
	"github.com/Gaurav-Gosain/surf/internal/tmuxhost"
)

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the surface daemon",
		Long: `Run the daemon that owns all surfaces.

The daemon talks to the surrounding tmux session for windows, splits, and
tabs, and answers commands from other surf invocations over a unix socket.
It watches the config file and picks up edits without a restart.`,
		Example: `  # Start from a tmux session, e.g. in a shell or via run-shell
  surf daemon

  # With verbose logging
  surf daemon --debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}
}

func runDaemon() error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "surf",
	})
	if debugMode {
		logger.SetLevel(log.DebugLevel)
	}

	if os.Getenv("TMUX") == "" {
		return fmt.Errorf("no tmux session: surf daemon must run inside tmux")
	}

	cfg, err := config.LoadUserConfig()
	if err != nil {
		logger.Warn("failed to load config, using defaults", "err", err)
		cfg = config.DefaultConfig()
	}
	if path, err := config.GetConfigPath(); err == nil {
		logger.Info("configuration", "path", path)
	}

	display := tmuxhost.New(logger)
	reg := surface.New(display, display, provider.NewRegistry(), logger)

	srv := ipc.NewServer(reg, cfg, socketPath, logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer srv.Stop()

	// Pick up config edits while running.
	if path, err := config.GetConfigPath(); err == nil {
		watcher, err := config.Watch(path, logger, srv.SetConfig)
		if err != nil {
			logger.Warn("config watch unavailable", "err", err)
		} else {
			defer watcher.Close()
		}
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Info("shutting down", "signal", sig)
	case <-srv.Done():
		logger.Info("shutting down", "reason", "stop command")
	}
	return nil
}
