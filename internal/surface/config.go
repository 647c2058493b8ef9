package surface

import (
	"errors"
	"fmt"
	"time"

	"github.com/Gaurav-Gosain/surf/internal/geometry"
)

// ErrConfiguration is returned for a malformed or contradictory
// presentation config. It always fires before any host mutation.
var ErrConfiguration = errors.New("invalid surface configuration")

// ErrNotFound is returned when an operation references an unknown surface
// name.
var ErrNotFound = errors.New("surface not found")

// Mode is how a surface is presented.
type Mode int

const (
	// ModeFloat shows the surface as a floating overlay.
	ModeFloat Mode = iota
	// ModeSplit docks the surface as a split pane.
	ModeSplit
	// ModeTab gives the surface a dedicated tab.
	ModeTab
)

func (m Mode) String() string {
	switch m {
	case ModeFloat:
		return "float"
	case ModeSplit:
		return "split"
	case ModeTab:
		return "tab"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a config string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "float", "floating":
		return ModeFloat, nil
	case "split":
		return ModeSplit, nil
	case "tab":
		return ModeTab, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrConfiguration, s)
}

// SplitSpec describes a docked split declaratively. Size is a unit token
// resolved against the screen dimension the direction cuts.
type SplitSpec struct {
	Direction string
	Size      string
}

// Config is the presentation config applied at open time. Float and Split
// are variants selected by Mode, so a floating width and a split size can
// never conflict.
type Config struct {
	Mode  Mode
	Float geometry.FloatSpec
	Split SplitSpec

	// Command is the backing process command line, before session-provider
	// substitution. Empty means content-only, no process.
	Command string
	// Provider names the session provider backing Command, or "" to run
	// the command as a plain local job.
	Provider string
	// Ephemeral surfaces tear their content down on hide instead of
	// keeping it alive in the background.
	Ephemeral bool

	// Send is written to the backing process shortly after a cold start.
	Send string
	// SendDelay is how long to wait before writing Send; fresh processes
	// are rarely ready for input immediately.
	SendDelay time.Duration
	// RawFallback runs Command unmodified when the session backend is
	// unavailable instead of failing the open.
	RawFallback bool
}

// Validate rejects configs that cannot be applied. Position and direction
// keywords are checked strictly here; a typo is an error, not a silent
// fallback to center.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeFloat, ModeTab:
		if c.Mode == ModeTab {
			return nil
		}
		if c.Float.Width == "" || c.Float.Height == "" {
			return fmt.Errorf("%w: float mode requires width and height", ErrConfiguration)
		}
		if !geometry.KnownPosition(c.Float.Position) {
			return fmt.Errorf("%w: unknown position %q", ErrConfiguration, c.Float.Position)
		}
		return nil
	case ModeSplit:
		if !geometry.KnownDirection(c.Split.Direction) {
			return fmt.Errorf("%w: unknown split direction %q", ErrConfiguration, c.Split.Direction)
		}
		if c.Split.Size == "" {
			return fmt.Errorf("%w: split mode requires a size", ErrConfiguration)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown mode %d", ErrConfiguration, int(c.Mode))
}
