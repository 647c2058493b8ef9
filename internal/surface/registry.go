package surface

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Gaurav-Gosain/surf/internal/geometry"
	"github.com/Gaurav-Gosain/surf/internal/host"
	"github.com/Gaurav-Gosain/surf/internal/provider"
)

// DefaultSendDelay is how long a deferred post-open send waits when the
// config does not say otherwise. Fresh shells need a moment before they
// accept input.
const DefaultSendDelay = 500 * time.Millisecond

// Registry owns every surface and is the single mutation path for all of
// them. It keeps the name table and the window reverse table consistent on
// every transition: any code path that sets or clears a window handle also
// updates byWindow in the same step.
type Registry struct {
	mu sync.Mutex

	windows   host.WindowAPI
	content   host.ContentHost
	providers *provider.Registry
	log       *log.Logger

	byName   map[string]*Surface
	order    []string
	byWindow map[host.WindowHandle]*Surface
	// cursor indexes order for next/prev cycling, -1 when unset.
	cursor int
}

// New builds a registry over the given host adapters. A nil logger
// discards all output.
func New(windows host.WindowAPI, contentHost host.ContentHost, providers *provider.Registry, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Registry{
		windows:   windows,
		content:   contentHost,
		providers: providers,
		log:       logger,
		byName:    make(map[string]*Surface),
		byWindow:  make(map[host.WindowHandle]*Surface),
		cursor:    -1,
	}
}

// Open shows the surface called name, creating content, process, and
// window as needed. Opening an already-visible surface just focuses it.
func (r *Registry) Open(name string, cfg Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open(name, cfg)
}

func (r *Registry) open(name string, cfg Config) error {
	if name == "" {
		return fmt.Errorf("open: %w: empty surface name", ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}

	s := r.byName[name]
	if s == nil {
		s = &Surface{Name: name}
		r.byName[name] = s
		r.order = append(r.order, name)
	}

	// Already visible: focus, do not rebuild.
	if !s.window.Zero() && r.windows.Valid(s.window) {
		if s.mode == ModeTab && !s.tab.Zero() {
			if err := r.windows.SwitchToTab(s.tab); err != nil {
				return fmt.Errorf("open %q: switch tab: %w", name, err)
			}
		}
		if err := r.windows.Focus(s.window); err != nil {
			return fmt.Errorf("open %q: focus: %w", name, err)
		}
		r.pointCursorAt(name)
		return nil
	}
	if !s.window.Zero() {
		// The host closed this window behind our back.
		r.clearWindow(s)
	}

	s.mode = cfg.Mode
	s.ephemeral = cfg.Ephemeral
	s.lastConfig = cfg

	// Warm reopen: content survived the last hide, bind it to a fresh
	// window (or the surviving tab).
	if !s.content.Zero() {
		if err := r.attach(s, cfg); err != nil {
			return fmt.Errorf("open %q: %w", name, err)
		}
		r.pointCursorAt(name)
		return nil
	}

	// Cold start. Resolve the command before touching the host so config
	// and backend failures leave nothing behind.
	command, err := r.resolveCommand(name, cfg)
	if err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}

	contentHandle, err := r.content.CreateContent()
	if err != nil {
		return fmt.Errorf("open %q: create content: %w", name, err)
	}
	s.content = contentHandle
	s.backingCommand = command

	if command != "" {
		proc, err := r.content.StartProcess(contentHandle, command, r.HandleProcessExit)
		if err != nil {
			r.teardownContent(s)
			return fmt.Errorf("open %q: start process: %w", name, err)
		}
		s.process = proc
	}

	if err := r.attach(s, cfg); err != nil {
		// The window never appeared; do not leave orphaned content behind.
		r.teardownContent(s)
		return fmt.Errorf("open %q: %w", name, err)
	}

	r.pointCursorAt(name)
	r.scheduleSend(s, cfg)
	r.log.Debug("surface opened", "surface", name, "mode", cfg.Mode.String())
	return nil
}

// Toggle with a config shows or refreshes the surface; with a nil config
// it hides it.
func (r *Registry) Toggle(name string, cfg *Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg == nil {
		s := r.byName[name]
		if s == nil {
			return fmt.Errorf("toggle %q: %w", name, ErrNotFound)
		}
		return r.hide(s)
	}

	s := r.byName[name]
	if s == nil || !r.isOpen(s) {
		return r.open(name, *cfg)
	}

	switch s.mode {
	case ModeFloat:
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("toggle %q: %w", name, err)
		}
		screenW, screenH, err := r.windows.ScreenSize()
		if err != nil {
			return fmt.Errorf("toggle %q: screen size: %w", name, err)
		}
		rect, err := geometry.ComputeFloating(cfg.Float, screenW, screenH)
		if err != nil {
			return fmt.Errorf("toggle %q: %w", name, err)
		}
		if err := r.windows.SetRect(s.window, rect); err != nil {
			return fmt.Errorf("toggle %q: set rect: %w", name, err)
		}
		s.lastConfig.Float = cfg.Float
		if err := r.windows.Focus(s.window); err != nil {
			return fmt.Errorf("toggle %q: focus: %w", name, err)
		}
	case ModeSplit:
		// Splits are not live-reconfigured by a toggle, only focused;
		// geometry changes go through Resize/Reposition.
		if err := r.windows.Focus(s.window); err != nil {
			return fmt.Errorf("toggle %q: focus: %w", name, err)
		}
	case ModeTab:
		if err := r.windows.SwitchToTab(s.tab); err != nil {
			return fmt.Errorf("toggle %q: switch tab: %w", name, err)
		}
		if !s.window.Zero() && r.windows.Valid(s.window) {
			if err := r.windows.Focus(s.window); err != nil {
				return fmt.Errorf("toggle %q: focus: %w", name, err)
			}
		}
	}
	r.pointCursorAt(name)
	return nil
}

// Hide removes the surface from view. Float and split windows are closed;
// a tab surface is only switched away from, keeping its tab and window for
// the next open. Persistent content stays alive; ephemeral content is torn
// down with the window.
func (r *Registry) Hide(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.byName[name]
	if s == nil {
		return fmt.Errorf("hide %q: %w", name, ErrNotFound)
	}
	return r.hide(s)
}

func (r *Registry) hide(s *Surface) error {
	if s.mode == ModeTab {
		if !s.tab.Zero() && r.windows.TabExists(s.tab) {
			if err := r.windows.SwitchAway(s.tab); err != nil {
				return fmt.Errorf("hide %q: %w", s.Name, err)
			}
		}
		r.dropCursorFrom(s.Name)
		return nil
	}

	if !s.window.Zero() {
		if r.windows.Valid(s.window) {
			if err := r.windows.CloseWindow(s.window); err != nil {
				return fmt.Errorf("hide %q: %w", s.Name, err)
			}
		}
		r.clearWindow(s)
	}
	if s.ephemeral {
		r.teardownContent(s)
	}
	r.dropCursorFrom(s.Name)
	return nil
}

// HandleProcessExit applies a process-exit event to whichever surface owns
// that exact process generation. Events for unknown or already-replaced
// processes are discarded, so a late exit after teardown is harmless.
func (r *Registry) HandleProcessExit(ev host.ProcessExit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.Process.Zero() {
		return
	}
	for _, name := range r.order {
		s := r.byName[name]
		if s.process != ev.Process {
			continue
		}
		s.process = host.ProcessHandle{}
		s.cancelPendingSend()
		if ev.ExitCode != 0 {
			r.log.Warn("surface process exited", "surface", name, "code", ev.ExitCode)
		} else {
			r.log.Debug("surface process exited", "surface", name)
		}
		if s.ephemeral {
			if !s.window.Zero() {
				if r.windows.Valid(s.window) {
					if err := r.windows.CloseWindow(s.window); err != nil {
						r.log.Error("close window after exit", "surface", name, "err", err)
					}
				}
				r.clearWindow(s)
			}
			r.teardownContent(s)
			r.dropCursorFrom(name)
		}
		return
	}
}

// Next cycles the navigation cursor forward and focuses the surface it
// lands on, wrapping past the end. With no cursor set it starts at the
// first surface.
func (r *Registry) Next() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step(1)
}

// Prev cycles the navigation cursor backward; with no cursor set it starts
// at the last surface.
func (r *Registry) Prev() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step(-1)
}

func (r *Registry) step(delta int) (string, error) {
	n := len(r.order)
	if n == 0 {
		return "", fmt.Errorf("cycle: %w: no surfaces", ErrNotFound)
	}
	var idx int
	switch {
	case r.cursor < 0 && delta > 0:
		idx = 0
	case r.cursor < 0:
		idx = n - 1
	default:
		idx = ((r.cursor+delta)%n + n) % n
	}
	r.cursor = idx
	name := r.order[idx]

	s := r.byName[name]
	if !s.window.Zero() && r.windows.Valid(s.window) {
		if s.mode == ModeTab && !s.tab.Zero() {
			if err := r.windows.SwitchToTab(s.tab); err != nil {
				return name, fmt.Errorf("cycle to %q: %w", name, err)
			}
		}
		if err := r.windows.Focus(s.window); err != nil {
			return name, fmt.Errorf("cycle to %q: %w", name, err)
		}
	}
	return name, nil
}

// List snapshots every known surface in insertion order.
func (r *Registry) List() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		s := r.byName[name]
		out = append(out, Info{
			Name:      name,
			Mode:      s.mode.String(),
			Open:      r.isOpen(s),
			WindowID:  s.window.ID,
			ProcessID: s.process.ID,
			Command:   s.backingCommand,
			Ephemeral: s.ephemeral,
		})
	}
	return out
}

// SurfaceAt resolves a live window handle to its owning surface name.
func (r *Registry) SurfaceAt(h host.WindowHandle) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byWindow[h]
	if !ok {
		return "", false
	}
	return s.Name, true
}

// attach binds s's existing content to a new window of the configured
// mode, or to its surviving tab.
func (r *Registry) attach(s *Surface, cfg Config) error {
	switch cfg.Mode {
	case ModeFloat:
		screenW, screenH, err := r.windows.ScreenSize()
		if err != nil {
			return fmt.Errorf("screen size: %w", err)
		}
		rect, err := geometry.ComputeFloating(cfg.Float, screenW, screenH)
		if err != nil {
			return err
		}
		win, err := r.windows.OpenFloat(s.content, rect)
		if err != nil {
			return err
		}
		r.setWindow(s, win)

	case ModeSplit:
		screenW, screenH, err := r.windows.ScreenSize()
		if err != nil {
			return fmt.Errorf("screen size: %w", err)
		}
		split, err := geometry.ComputeSplit(cfg.Split.Direction, cfg.Split.Size, screenW, screenH)
		if err != nil {
			return err
		}
		win, err := r.windows.OpenSplit(s.content, cfg.Split.Direction, split.Size)
		if err != nil {
			return err
		}
		r.setWindow(s, win)

	case ModeTab:
		if !s.tab.Zero() && r.windows.TabExists(s.tab) {
			if err := r.windows.SwitchToTab(s.tab); err != nil {
				return fmt.Errorf("switch tab: %w", err)
			}
			win, err := r.windows.OpenInTab(s.content, s.tab)
			if err != nil {
				return err
			}
			r.setWindow(s, win)
			return nil
		}
		win, tab, err := r.windows.OpenTab(s.content, s.Name)
		if err != nil {
			return err
		}
		s.tab = tab
		r.setWindow(s, win)
	}
	return nil
}

// resolveCommand runs session-provider substitution for process-backed
// surfaces. Backend unavailability degrades to the raw command only when
// the config opts in.
func (r *Registry) resolveCommand(name string, cfg Config) (string, error) {
	if cfg.Command == "" || cfg.Provider == "" {
		return cfg.Command, nil
	}
	p, err := r.providers.Get(cfg.Provider)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	resolved, err := p.CreateOrAttach(provider.SessionID(name), cfg.Command)
	if err != nil {
		if cfg.RawFallback && errors.Is(err, provider.ErrBackendUnavailable) {
			r.log.Warn("session backend unavailable, running raw command",
				"surface", name, "provider", cfg.Provider, "err", err)
			return cfg.Command, nil
		}
		return "", err
	}
	return resolved, nil
}

// scheduleSend arms the deferred post-open send. A reopen replaces any
// pending send instead of stacking a second one, and a send whose process
// has since been replaced or torn down is dropped.
func (r *Registry) scheduleSend(s *Surface, cfg Config) {
	if cfg.Send == "" || s.process.Zero() {
		return
	}
	s.cancelPendingSend()

	delay := cfg.SendDelay
	if delay <= 0 {
		delay = DefaultSendDelay
	}
	name := s.Name
	proc := s.process
	data := []byte(cfg.Send)
	s.pendingSend = time.AfterFunc(delay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		cur := r.byName[name]
		if cur == nil || cur.process != proc {
			return
		}
		cur.pendingSend = nil
		if err := r.content.Send(proc, data); err != nil {
			r.log.Error("deferred send failed", "surface", name, "err", err)
		}
	})
}

// teardownContent destroys s's content container (which also stops any
// attached process) and clears the related handles. Used both for ephemeral
// hide and for rolling back a half-finished cold start.
func (r *Registry) teardownContent(s *Surface) {
	s.cancelPendingSend()
	if !s.content.Zero() {
		if err := r.content.DestroyContent(s.content); err != nil {
			r.log.Error("destroy content", "surface", s.Name, "err", err)
		}
	}
	s.content = host.ContentHandle{}
	s.process = host.ProcessHandle{}
	s.backingCommand = ""
}

func (r *Registry) isOpen(s *Surface) bool {
	if s.mode == ModeTab {
		return !s.tab.Zero() && r.windows.TabExists(s.tab)
	}
	return !s.window.Zero() && r.windows.Valid(s.window)
}

func (r *Registry) setWindow(s *Surface, h host.WindowHandle) {
	s.window = h
	r.byWindow[h] = s
}

func (r *Registry) clearWindow(s *Surface) {
	delete(r.byWindow, s.window)
	s.window = host.WindowHandle{}
}

func (r *Registry) pointCursorAt(name string) {
	for i, n := range r.order {
		if n == name {
			r.cursor = i
			return
		}
	}
}

func (r *Registry) dropCursorFrom(name string) {
	if r.cursor >= 0 && r.cursor < len(r.order) && r.order[r.cursor] == name {
		r.cursor = -1
	}
}
