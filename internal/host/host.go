// Package host defines the boundary between the surface engine and the
// display environment. The engine only ever talks to a WindowAPI and a
// ContentHost; concrete adapters (a live tmux server, a local PTY host)
// live in their own packages and tests substitute in-memory fakes.
package host

import (
	"errors"

	"github.com/Gaurav-Gosain/surf/internal/geometry"
)

// ErrOperationFailed is returned when the display environment rejects a
// window, tab, or content mutation.
var ErrOperationFailed = errors.New("host operation failed")

// WindowHandle identifies one live window or pane. Hosts recycle raw
// identifiers after closure, so a handle pairs the identifier with a
// monotonic generation; two handles are the same window only if both
// fields match. The zero value means "no window".
type WindowHandle struct {
	ID  string
	Gen uint64
}

// Zero reports whether h refers to no window at all.
func (h WindowHandle) Zero() bool { return h == WindowHandle{} }

// TabHandle identifies a dedicated tab container. Tabs outlive the windows
// shown inside them, so a tab handle stays valid across hide/reopen.
// The zero value means "no tab".
type TabHandle struct {
	ID string
}

// Zero reports whether t refers to no tab.
func (t TabHandle) Zero() bool { return t == TabHandle{} }

// ContentHandle identifies a content container owned by a ContentHost.
// The zero value means "no content".
type ContentHandle struct {
	ID string
}

// Zero reports whether c refers to no content container.
func (c ContentHandle) Zero() bool { return c == ContentHandle{} }

// ProcessHandle identifies one backing process start. Gen distinguishes a
// fresh process from an earlier one that reused the same container, so a
// late exit notification for a dead generation can be discarded.
type ProcessHandle struct {
	ID  string
	Gen uint64
}

// Zero reports whether p refers to no process.
func (p ProcessHandle) Zero() bool { return p == ProcessHandle{} }

// ProcessExit is delivered, possibly much later and from another goroutine,
// when a backing process terminates. A non-zero exit code is information,
// not an error.
type ProcessExit struct {
	Process  ProcessHandle
	ExitCode int
	Err      error
}

// ExitFunc receives process-exit events.
type ExitFunc func(ProcessExit)

// WindowAPI is the window/tab surface of the display environment.
//
// Open* calls bind an existing content container to a newly created window
// and return its handle. Placement passed to OpenFloat is advisory but
// already clamped to the reported screen size.
type WindowAPI interface {
	// ScreenSize reports the host screen in columns x rows.
	ScreenSize() (width, height int, err error)

	OpenFloat(content ContentHandle, rect geometry.Rect) (WindowHandle, error)
	OpenSplit(content ContentHandle, direction string, size int) (WindowHandle, error)
	// OpenTab creates a dedicated tab showing content and returns both the
	// window inside it and the tab container itself.
	OpenTab(content ContentHandle, title string) (WindowHandle, TabHandle, error)
	// OpenInTab creates a window bound to content inside an existing tab.
	OpenInTab(content ContentHandle, tab TabHandle) (WindowHandle, error)

	CloseWindow(h WindowHandle) error
	Focus(h WindowHandle) error
	// Valid reports whether h still refers to a live window of the same
	// generation.
	Valid(h WindowHandle) bool

	Rect(h WindowHandle) (geometry.Rect, error)
	SetRect(h WindowHandle, r geometry.Rect) error
	// SetSplitWidth and SetSplitHeight adjust one dimension of a split
	// window; splits have no combined rect update.
	SetSplitWidth(h WindowHandle, cells int) error
	SetSplitHeight(h WindowHandle, cells int) error

	TabExists(t TabHandle) bool
	SwitchToTab(t TabHandle) error
	// SwitchAway moves host focus to a tab adjacent to t, if any exists.
	SwitchAway(t TabHandle) error
}

// ContentHost owns content containers and the processes attached to them.
type ContentHost interface {
	CreateContent() (ContentHandle, error)
	DestroyContent(c ContentHandle) error
	// StartProcess launches command attached to c. Start is fire-and-forget;
	// exit arrives later through onExit, which must tolerate the rest of the
	// engine having moved on by the time it runs.
	StartProcess(c ContentHandle, command string, onExit ExitFunc) (ProcessHandle, error)
	// Send writes raw bytes to a running process.
	Send(p ProcessHandle, data []byte) error
}
