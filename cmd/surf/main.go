// Package main implements surf, a surface engine for terminal multiplexers.
// A surface is a named, toggleable workspace (a floating overlay, a docked
// split, or a dedicated tab) that keeps its running program alive while it
// is hidden. A long-lived daemon owns the surfaces; one-shot CLI commands
// talk to it over a unix socket.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/Gaurav-Gosain/surf/internal/config"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	debugMode  bool
	socketPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "surf",
		Short: "Named toggleable surfaces for your terminal",
		Long: `surf - named toggleable surfaces for your terminal

A surface is a named workspace presented as a floating overlay, a docked
split, or a dedicated tab. Its program keeps running while the surface is
hidden, so toggling one in and out is instant. Surfaces are managed by a
daemon and driven from the command line, typically through multiplexer
keybindings.`,
		Example: `  # Start the daemon (inside a tmux session)
  surf daemon

  # Toggle a floating scratch terminal
  surf toggle scratch

  # Open a log viewer docked to the bottom third
  surf open logs --mode split --direction bottom --size 30% --cmd "tail -f /var/log/syslog"

  # Move and resize a floating surface
  surf move scratch --position top-right
  surf resize scratch --width +10%

  # Edit configuration
  surf config edit`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "Daemon socket path (default: $XDG_RUNTIME_DIR/surf.sock)")

	// Config command group
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage surf configuration",
		Long:  `Manage the surf configuration file and settings`,
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printConfigPath()
		},
	}

	configEditCmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit configuration in $EDITOR",
		Long: `Open the surf configuration file in your default editor

The editor is determined by checking $EDITOR, $VISUAL, or common editors
like vim, vi, nano, and emacs in that order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfigFile()
		},
	}

	configResetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		Long: `Reset the surf configuration file to default settings

This will overwrite your existing configuration after confirmation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resetConfigToDefaults()
		},
	}

	configCmd.AddCommand(configPathCmd, configEditCmd, configResetCmd)

	rootCmd.AddCommand(
		newDaemonCmd(),
		newOpenCmd(),
		newToggleCmd(),
		newHideCmd(),
		newResizeCmd(),
		newMoveCmd(),
		newNextCmd(),
		newPrevCmd(),
		newListCmd(),
		newStopCmd(),
		configCmd,
	)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}

// printConfigPath prints the config file path
func printConfigPath() error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}
	fmt.Println(path)
	return nil
}

// editConfigFile opens the config file in $EDITOR
func editConfigFile() error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}

	// Ensure config file exists (create default if needed)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("Config file doesn't exist, creating default at: %s\n", configPath)
		if _, err := config.LoadUserConfig(); err != nil {
			return fmt.Errorf("could not create config file: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"vim", "vi", "nano", "emacs"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Please set $EDITOR environment variable")
	}

	cmd := exec.Command(editor, configPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// resetConfigToDefaults resets the configuration file to default settings
func resetConfigToDefaults() error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}

	// Check if config exists and ask for confirmation
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Warning: This will overwrite your existing configuration at:\n")
		fmt.Printf("  %s\n\n", configPath)
		fmt.Printf("Are you sure you want to reset to defaults? (yes/no): ")

		var response string
		fmt.Scanln(&response)
		response = strings.ToLower(strings.TrimSpace(response))

		if response != "yes" && response != "y" {
			fmt.Println("Reset cancelled.")
			return nil
		}
	}

	var sb strings.Builder
	sb.WriteString("# surf configuration\n")
	sb.WriteString("# Defaults apply to every surface; [surfaces.<name>] tables override\n")
	sb.WriteString("# them per surface, and command-line flags override both.\n")
	sb.WriteString("#\n")
	sb.WriteString("# Configuration location: " + configPath + "\n\n")

	data, err := toml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	sb.Write(data)

	if err := os.WriteFile(configPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	fmt.Printf("Configuration reset to defaults at: %s\n", configPath)
	return nil
}
