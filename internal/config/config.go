// Package config loads surf's TOML configuration and resolves it, together
// with per-surface overrides and command-line flags, into the presentation
// configs the engine applies.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"

	"github.com/Gaurav-Gosain/surf/internal/surface"
)

// SurfaceConfig is one layer of presentation settings. Empty fields mean
// "inherit from the layer below"; layers stack defaults < per-surface
// < command line.
type SurfaceConfig struct {
	Mode      string `toml:"mode,omitempty"`
	Width     string `toml:"width,omitempty"`
	Height    string `toml:"height,omitempty"`
	Position  string `toml:"position,omitempty"`
	Margin    string `toml:"margin,omitempty"`
	Direction string `toml:"direction,omitempty"`
	Size      string `toml:"size,omitempty"`
	Command   string `toml:"command,omitempty"`
	Provider  string `toml:"provider,omitempty"`
	Ephemeral *bool  `toml:"ephemeral,omitempty"`
	Send      string `toml:"send,omitempty"`
}

// Config is the on-disk configuration.
type Config struct {
	// Provider is the default session provider; empty runs commands as
	// plain local jobs.
	Provider string `toml:"provider,omitempty"`
	// SendDelayMS delays the post-open send this many milliseconds.
	SendDelayMS int `toml:"send_delay_ms"`
	// RawFallback runs commands unmodified when the session backend is
	// unavailable instead of failing.
	RawFallback bool `toml:"raw_fallback"`

	Defaults SurfaceConfig            `toml:"defaults"`
	Surfaces map[string]SurfaceConfig `toml:"surfaces,omitempty"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		SendDelayMS: 500,
		Defaults: SurfaceConfig{
			Mode:      "float",
			Width:     "80%",
			Height:    "60%",
			Position:  "center",
			Margin:    "0",
			Direction: "bottom",
			Size:      "30%",
		},
	}
}

// GetConfigPath returns the config file location under the XDG config home.
func GetConfigPath() (string, error) {
	path, err := xdg.ConfigFile("surf/config.toml")
	if err != nil {
		return "", fmt.Errorf("could not resolve config path: %w", err)
	}
	return path, nil
}

// LoadUserConfig reads the user's config file, creating it with defaults
// if it does not exist. Unset keys keep their default values.
func LoadUserConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := SaveDefaultConfig(); err != nil {
			return nil, err
		}
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveDefaultConfig writes the default config file, overwriting any
// existing one.
func SaveDefaultConfig() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	data, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := "# surf configuration\n" +
		"# Defaults apply to every surface; [surfaces.<name>] tables override\n" +
		"# them per surface, and command-line flags override both.\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Resolve merges the defaults, the named surface's overrides, and the
// command-line layer into one engine config. Contradictory command-line
// settings (a split size together with float dimensions) are rejected
// before anything reaches the host.
func (c *Config) Resolve(name string, cli SurfaceConfig) (surface.Config, error) {
	if cli.Size != "" && (cli.Width != "" || cli.Height != "") {
		return surface.Config{}, fmt.Errorf("%w: size conflicts with width/height",
			surface.ErrConfiguration)
	}

	merged := c.Defaults
	if per, ok := c.Surfaces[name]; ok {
		merged = overlay(merged, per)
	}
	merged = overlay(merged, cli)

	mode, err := surface.ParseMode(merged.Mode)
	if err != nil {
		return surface.Config{}, err
	}
	if cli.Size != "" && mode != surface.ModeSplit {
		return surface.Config{}, fmt.Errorf("%w: size applies only to split surfaces",
			surface.ErrConfiguration)
	}

	providerName := merged.Provider
	if providerName == "" {
		providerName = c.Provider
	}
	ephemeral := false
	if merged.Ephemeral != nil {
		ephemeral = *merged.Ephemeral
	}

	out := surface.Config{
		Mode:        mode,
		Command:     merged.Command,
		Provider:    providerName,
		Ephemeral:   ephemeral,
		Send:        merged.Send,
		SendDelay:   time.Duration(c.SendDelayMS) * time.Millisecond,
		RawFallback: c.RawFallback,
	}
	out.Float.Position = merged.Position
	out.Float.Width = merged.Width
	out.Float.Height = merged.Height
	out.Float.Margin = merged.Margin
	out.Split.Direction = merged.Direction
	out.Split.Size = merged.Size
	return out, nil
}

// overlay returns base with every non-empty field of over applied on top.
func overlay(base, over SurfaceConfig) SurfaceConfig {
	if over.Mode != "" {
		base.Mode = over.Mode
	}
	if over.Width != "" {
		base.Width = over.Width
	}
	if over.Height != "" {
		base.Height = over.Height
	}
	if over.Position != "" {
		base.Position = over.Position
	}
	if over.Margin != "" {
		base.Margin = over.Margin
	}
	if over.Direction != "" {
		base.Direction = over.Direction
	}
	if over.Size != "" {
		base.Size = over.Size
	}
	if over.Command != "" {
		base.Command = over.Command
	}
	if over.Provider != "" {
		base.Provider = over.Provider
	}
	if over.Ephemeral != nil {
		base.Ephemeral = over.Ephemeral
	}
	if over.Send != "" {
		base.Send = over.Send
	}
	return base
}
