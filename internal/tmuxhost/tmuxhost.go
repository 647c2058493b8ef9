// Package tmuxhost drives a live tmux server as the display environment:
// splits become panes, tabs become tmux windows, and floating overlays
// become display-popup clients. It implements both host.WindowAPI and
// host.ContentHost.
//
// Content containers are virtual here. tmux panes run their command
// themselves, so CreateContent only allocates an id, StartProcess records
// the command, and the recorded command is injected when the pane or popup
// is created. Process exit is owned by tmux (a pane closes itself when its
// command ends), so no ProcessExit events are delivered from this host.
package tmuxhost

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Gaurav-Gosain/surf/internal/geometry"
	"github.com/Gaurav-Gosain/surf/internal/host"
)

type windowKind int

const (
	kindPane windowKind = iota
	kindPopup
)

type window struct {
	kind windowKind
	// pane is the tmux pane id ("%12") for splits and tab windows.
	pane string
	// popup state: the running display-popup client and the cached rect,
	// since popups are not addressable once shown.
	popup *exec.Cmd
	rect  geometry.Rect
	alive bool

	content host.ContentHandle
}

type virtualContent struct {
	command string
	proc    host.ProcessHandle
	// pane is filled in once the content is displayed somewhere, so Send
	// has a target.
	pane string
}

// Host is a tmux-backed display host. Safe for concurrent use.
type Host struct {
	mu  sync.Mutex
	bin string
	log *log.Logger
	gen uint64

	windows  map[host.WindowHandle]*window
	tabs     map[host.TabHandle]bool
	contents map[host.ContentHandle]*virtualContent
	byProc   map[host.ProcessHandle]*virtualContent
}

// New returns a Host talking to the tmux server reachable from this
// process's environment. A nil logger discards output.
func New(logger *log.Logger) *Host {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Host{
		bin:      "tmux",
		log:      logger,
		windows:  make(map[host.WindowHandle]*window),
		tabs:     make(map[host.TabHandle]bool),
		contents: make(map[host.ContentHandle]*virtualContent),
		byProc:   make(map[host.ProcessHandle]*virtualContent),
	}
}

// Available reports whether tmux is installed.
func (h *Host) Available() bool {
	_, err := exec.LookPath(h.bin)
	return err == nil
}

// run executes one tmux command and returns trimmed stdout.
func (h *Host) run(args ...string) (string, error) {
	cmd := exec.Command(h.bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return "", fmt.Errorf("%w: tmux %s: %s", host.ErrOperationFailed, args[0], msg)
		}
		return "", fmt.Errorf("%w: tmux %s: %v", host.ErrOperationFailed, args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ScreenSize implements host.WindowAPI using the attached client's size.
func (h *Host) ScreenSize() (int, int, error) {
	out, err := h.run("display-message", "-p", "#{client_width} #{client_height}")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w: unexpected size output %q", host.ErrOperationFailed, out)
	}
	w, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad width %q", host.ErrOperationFailed, fields[0])
	}
	ht, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad height %q", host.ErrOperationFailed, fields[1])
	}
	return w, ht, nil
}

// paneCommand resolves the shell command a new pane should run for the
// given content.
func (h *Host) paneCommand(c host.ContentHandle) string {
	if ct, ok := h.contents[c]; ok {
		return ct.command
	}
	return ""
}

func (h *Host) bindPane(c host.ContentHandle, pane string) {
	if ct, ok := h.contents[c]; ok {
		ct.pane = pane
	}
}

func (h *Host) nextHandle(id string) host.WindowHandle {
	h.gen++
	return host.WindowHandle{ID: id, Gen: h.gen}
}

// OpenFloat implements host.WindowAPI with a display-popup client. The
// popup client stays running until the popup closes; its rect is cached
// because tmux offers no way to query or move a live popup.
func (h *Host) OpenFloat(content host.ContentHandle, rect geometry.Rect) (host.WindowHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.openPopup(content, rect)
}

func (h *Host) openPopup(content host.ContentHandle, rect geometry.Rect) (host.WindowHandle, error) {
	args := []string{
		"display-popup",
		"-x", strconv.Itoa(rect.Col),
		"-y", strconv.Itoa(rect.Row + rect.Height), // -y is the popup's bottom edge
		"-w", strconv.Itoa(rect.Width),
		"-h", strconv.Itoa(rect.Height),
		"-E",
	}
	if cmd := h.paneCommand(content); cmd != "" {
		args = append(args, cmd)
	}
	popup := exec.Command(h.bin, args...)
	if err := popup.Start(); err != nil {
		return host.WindowHandle{}, fmt.Errorf("%w: display-popup: %v", host.ErrOperationFailed, err)
	}

	handle := h.nextHandle("popup-" + uuid.NewString())
	w := &window{kind: kindPopup, popup: popup, rect: rect, alive: true, content: content}
	h.windows[handle] = w

	// The popup client exits when the popup closes, however that happens.
	go func() {
		_ = popup.Wait()
		h.mu.Lock()
		w.alive = false
		h.mu.Unlock()
	}()
	return handle, nil
}

// OpenSplit implements host.WindowAPI with split-window. Top and left
// splits place the new pane before the current one.
func (h *Host) OpenSplit(content host.ContentHandle, direction string, size int) (host.WindowHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	args := []string{"split-window", "-P", "-F", "#{pane_id}", "-l", strconv.Itoa(size)}
	switch direction {
	case geometry.DirectionTop:
		args = append(args, "-v", "-b")
	case geometry.DirectionBottom:
		args = append(args, "-v")
	case geometry.DirectionLeft:
		args = append(args, "-h", "-b")
	case geometry.DirectionRight:
		args = append(args, "-h")
	default:
		return host.WindowHandle{}, fmt.Errorf("%w: unknown split direction %q", host.ErrOperationFailed, direction)
	}
	if cmd := h.paneCommand(content); cmd != "" {
		args = append(args, cmd)
	}

	pane, err := h.run(args...)
	if err != nil {
		return host.WindowHandle{}, err
	}
	handle := h.nextHandle(pane)
	h.windows[handle] = &window{kind: kindPane, pane: pane, alive: true, content: content}
	h.bindPane(content, pane)
	return handle, nil
}

// OpenTab implements host.WindowAPI with new-window.
func (h *Host) OpenTab(content host.ContentHandle, title string) (host.WindowHandle, host.TabHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	args := []string{"new-window", "-P", "-F", "#{window_id} #{pane_id}", "-n", title}
	if cmd := h.paneCommand(content); cmd != "" {
		args = append(args, cmd)
	}
	out, err := h.run(args...)
	if err != nil {
		return host.WindowHandle{}, host.TabHandle{}, err
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return host.WindowHandle{}, host.TabHandle{}, fmt.Errorf("%w: unexpected new-window output %q", host.ErrOperationFailed, out)
	}
	tab := host.TabHandle{ID: fields[0]}
	h.tabs[tab] = true
	handle := h.nextHandle(fields[1])
	h.windows[handle] = &window{kind: kindPane, pane: fields[1], alive: true, content: content}
	h.bindPane(content, fields[1])
	return handle, tab, nil
}

// OpenInTab implements host.WindowAPI by adopting the pane already living
// in the tab; tmux tab windows keep their pane across hide.
func (h *Host) OpenInTab(content host.ContentHandle, tab host.TabHandle) (host.WindowHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	pane, err := h.run("list-panes", "-t", tab.ID, "-F", "#{pane_id}")
	if err != nil {
		return host.WindowHandle{}, err
	}
	first, _, _ := strings.Cut(pane, "\n")
	if first == "" {
		return host.WindowHandle{}, fmt.Errorf("%w: tab %s has no panes", host.ErrOperationFailed, tab.ID)
	}
	handle := h.nextHandle(first)
	h.windows[handle] = &window{kind: kindPane, pane: first, alive: true, content: content}
	h.bindPane(content, first)
	return handle, nil
}

// CloseWindow implements host.WindowAPI.
func (h *Host) CloseWindow(handle host.WindowHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeWindow(handle)
}

func (h *Host) closeWindow(handle host.WindowHandle) error {
	w, ok := h.windows[handle]
	if !ok {
		return fmt.Errorf("%w: unknown window %s", host.ErrOperationFailed, handle.ID)
	}
	delete(h.windows, handle)

	if w.kind == kindPopup {
		if w.alive {
			// Close whatever popup is showing; tmux allows only one.
			if _, err := h.run("display-popup", "-C"); err != nil {
				return err
			}
			w.alive = false
		}
		return nil
	}
	if _, err := h.run("kill-pane", "-t", w.pane); err != nil {
		return err
	}
	return nil
}

// Focus implements host.WindowAPI. Popups hold focus by themselves.
func (h *Host) Focus(handle host.WindowHandle) error {
	h.mu.Lock()
	w, ok := h.windows[handle]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: unknown window %s", host.ErrOperationFailed, handle.ID)
	}
	if w.kind == kindPopup {
		return nil
	}
	_, err := h.run("select-pane", "-t", w.pane)
	return err
}

// Valid implements host.WindowAPI.
func (h *Host) Valid(handle host.WindowHandle) bool {
	h.mu.Lock()
	w, ok := h.windows[handle]
	h.mu.Unlock()
	if !ok {
		return false
	}
	if w.kind == kindPopup {
		return w.alive
	}
	_, err := h.run("display-message", "-p", "-t", w.pane, "#{pane_id}")
	return err == nil
}

// Rect implements host.WindowAPI. Popup rects come from the cache; pane
// rects are queried live.
func (h *Host) Rect(handle host.WindowHandle) (geometry.Rect, error) {
	h.mu.Lock()
	w, ok := h.windows[handle]
	h.mu.Unlock()
	if !ok {
		return geometry.Rect{}, fmt.Errorf("%w: unknown window %s", host.ErrOperationFailed, handle.ID)
	}
	if w.kind == kindPopup {
		return w.rect, nil
	}
	out, err := h.run("display-message", "-p", "-t", w.pane,
		"#{pane_top} #{pane_left} #{pane_width} #{pane_height}")
	if err != nil {
		return geometry.Rect{}, err
	}
	fields := strings.Fields(out)
	if len(fields) != 4 {
		return geometry.Rect{}, fmt.Errorf("%w: unexpected pane geometry %q", host.ErrOperationFailed, out)
	}
	nums := make([]int, 4)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return geometry.Rect{}, fmt.Errorf("%w: bad pane geometry %q", host.ErrOperationFailed, out)
		}
		nums[i] = n
	}
	return geometry.Rect{Row: nums[0], Col: nums[1], Width: nums[2], Height: nums[3]}, nil
}

// SetRect implements host.WindowAPI. tmux popups cannot be moved or
// resized in place, so the popup is closed and reopened at the new rect
// under the same handle.
func (h *Host) SetRect(handle host.WindowHandle, rect geometry.Rect) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	w, ok := h.windows[handle]
	if !ok {
		return fmt.Errorf("%w: unknown window %s", host.ErrOperationFailed, handle.ID)
	}
	if w.kind != kindPopup {
		if _, err := h.run("resize-pane", "-t", w.pane,
			"-x", strconv.Itoa(rect.Width), "-y", strconv.Itoa(rect.Height)); err != nil {
			return err
		}
		return nil
	}

	if w.alive {
		if _, err := h.run("display-popup", "-C"); err != nil {
			return err
		}
		w.alive = false
	}
	fresh, err := h.openPopup(w.content, rect)
	if err != nil {
		delete(h.windows, handle)
		return err
	}
	// Keep the caller's handle pointing at the recreated popup.
	h.windows[handle] = h.windows[fresh]
	delete(h.windows, fresh)
	return nil
}

// SetSplitWidth implements host.WindowAPI.
func (h *Host) SetSplitWidth(handle host.WindowHandle, cells int) error {
	return h.resizePane(handle, "-x", cells)
}

// SetSplitHeight implements host.WindowAPI.
func (h *Host) SetSplitHeight(handle host.WindowHandle, cells int) error {
	return h.resizePane(handle, "-y", cells)
}

func (h *Host) resizePane(handle host.WindowHandle, axis string, cells int) error {
	h.mu.Lock()
	w, ok := h.windows[handle]
	h.mu.Unlock()
	if !ok || w.kind != kindPane {
		return fmt.Errorf("%w: window %s is not a pane", host.ErrOperationFailed, handle.ID)
	}
	_, err := h.run("resize-pane", "-t", w.pane, axis, strconv.Itoa(cells))
	return err
}

// TabExists implements host.WindowAPI.
func (h *Host) TabExists(tab host.TabHandle) bool {
	out, err := h.run("list-windows", "-F", "#{window_id}")
	if err != nil {
		return false
	}
	for _, id := range strings.Fields(out) {
		if id == tab.ID {
			return true
		}
	}
	return false
}

// SwitchToTab implements host.WindowAPI.
func (h *Host) SwitchToTab(tab host.TabHandle) error {
	_, err := h.run("select-window", "-t", tab.ID)
	return err
}

// SwitchAway implements host.WindowAPI by returning to the previously
// active tab, falling back to the next one.
func (h *Host) SwitchAway(tab host.TabHandle) error {
	if _, err := h.run("select-window", "-l"); err == nil {
		return nil
	}
	_, err := h.run("next-window")
	return err
}

// CreateContent implements host.ContentHost. Containers are virtual until
// a window displays them.
func (h *Host) CreateContent() (host.ContentHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := host.ContentHandle{ID: uuid.NewString()}
	h.contents[c] = &virtualContent{}
	return c, nil
}

// DestroyContent implements host.ContentHost, killing the displaying pane
// if one exists.
func (h *Host) DestroyContent(c host.ContentHandle) error {
	h.mu.Lock()
	ct, ok := h.contents[c]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("%w: unknown content %s", host.ErrOperationFailed, c.ID)
	}
	delete(h.contents, c)
	if !ct.proc.Zero() {
		delete(h.byProc, ct.proc)
	}
	pane := ct.pane
	h.mu.Unlock()

	if pane != "" {
		// Best effort; the pane may already be gone with its window.
		if _, err := h.run("kill-pane", "-t", pane); err != nil {
			h.log.Debug("kill-pane during content destroy", "pane", pane, "err", err)
		}
	}
	return nil
}

// StartProcess implements host.ContentHost by recording the command for
// injection at window creation. tmux owns the resulting process, so onExit
// is never invoked by this host.
func (h *Host) StartProcess(c host.ContentHandle, command string, _ host.ExitFunc) (host.ProcessHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ct, ok := h.contents[c]
	if !ok {
		return host.ProcessHandle{}, fmt.Errorf("%w: unknown content %s", host.ErrOperationFailed, c.ID)
	}
	ct.command = command
	h.gen++
	ct.proc = host.ProcessHandle{ID: uuid.NewString(), Gen: h.gen}
	h.byProc[ct.proc] = ct
	return ct.proc, nil
}

// Send implements host.ContentHost with send-keys to the displaying pane.
func (h *Host) Send(p host.ProcessHandle, data []byte) error {
	h.mu.Lock()
	ct, ok := h.byProc[p]
	pane := ""
	if ok {
		pane = ct.pane
	}
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: no process %s", host.ErrOperationFailed, p.ID)
	}
	if pane == "" {
		return fmt.Errorf("%w: process %s is not displayed anywhere", host.ErrOperationFailed, p.ID)
	}
	_, err := h.run("send-keys", "-t", pane, "-l", string(data))
	return err
}
