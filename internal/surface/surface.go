// Package surface implements the lifecycle engine for named, toggleable
// surfaces: the state machine that opens, hides, and toggles a surface
// across floating, split, and tab presentation, the registry that keeps
// name and window lookups consistent, and the resize/reposition operations
// on live windows.
package surface

import (
	"time"

	"github.com/Gaurav-Gosain/surf/internal/host"
)

// Surface is one named, toggleable unit of content plus its window or tab
// binding. All mutation goes through the owning Registry; the fields here
// are the state the Registry's state machine transitions.
type Surface struct {
	// Name is the unique key, stable for the surface's lifetime.
	Name string

	mode    Mode
	content host.ContentHandle
	// window is the currently displayed window, zero when hidden.
	// Tab-mode surfaces keep their window across hide; they are merely
	// switched away from.
	window host.WindowHandle
	// tab persists across hide/reopen so a tab-mode surface gets its
	// original tab back.
	tab     host.TabHandle
	process host.ProcessHandle
	// backingCommand is the resolved command line after session-provider
	// substitution.
	backingCommand string
	lastConfig     Config
	ephemeral      bool
	// pendingSend is the timer for the deferred post-open send; reopens
	// replace it rather than stacking a second one.
	pendingSend *time.Timer
}

// Mode reports the surface's presentation mode from its last open.
func (s *Surface) Mode() Mode { return s.mode }

// Visible reports whether the surface currently has a window handle. For
// tab mode this means the tab was created and not closed, not that it is
// the focused tab.
func (s *Surface) Visible() bool { return !s.window.Zero() }

// cancelPendingSend stops a not-yet-fired deferred send, if any.
func (s *Surface) cancelPendingSend() {
	if s.pendingSend != nil {
		s.pendingSend.Stop()
		s.pendingSend = nil
	}
}

// Info is a read-only snapshot of one surface for listings.
type Info struct {
	Name      string `json:"name"`
	Mode      string `json:"mode"`
	Open      bool   `json:"open"`
	WindowID  string `json:"window_id,omitempty"`
	ProcessID string `json:"process_id,omitempty"`
	Command   string `json:"command,omitempty"`
	Ephemeral bool   `json:"ephemeral,omitempty"`
}
