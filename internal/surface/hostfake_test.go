package surface

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Gaurav-Gosain/surf/internal/geometry"
	"github.com/Gaurav-Gosain/surf/internal/host"
)

// fakeHost implements host.WindowAPI and host.ContentHost in memory so the
// lifecycle engine can be exercised without a display environment.
type fakeHost struct {
	screenW, screenH int

	seq      int
	gen      uint64
	windows  map[host.WindowHandle]*fakeWindow
	tabs     map[host.TabHandle]bool
	contents map[host.ContentHandle]bool
	procs    map[host.ProcessHandle]*fakeProc

	focused   host.WindowHandle
	activeTab host.TabHandle
	sent      map[host.ProcessHandle][]string

	failOpen    error // injected into the next Open* call
	failProcess error // injected into the next StartProcess call
}

type fakeWindow struct {
	content  host.ContentHandle
	rect     geometry.Rect
	splitDir string
	tab      host.TabHandle
}

type fakeProc struct {
	content host.ContentHandle
	command string
	onExit  host.ExitFunc
	alive   bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		screenW:  120,
		screenH:  40,
		windows:  make(map[host.WindowHandle]*fakeWindow),
		tabs:     make(map[host.TabHandle]bool),
		contents: make(map[host.ContentHandle]bool),
		procs:    make(map[host.ProcessHandle]*fakeProc),
		sent:     make(map[host.ProcessHandle][]string),
	}
}

func (f *fakeHost) nextWindow() host.WindowHandle {
	f.seq++
	f.gen++
	return host.WindowHandle{ID: fmt.Sprintf("w%d", f.seq), Gen: f.gen}
}

func (f *fakeHost) ScreenSize() (int, int, error) { return f.screenW, f.screenH, nil }

func (f *fakeHost) OpenFloat(content host.ContentHandle, rect geometry.Rect) (host.WindowHandle, error) {
	if err := f.takeOpenErr(); err != nil {
		return host.WindowHandle{}, err
	}
	h := f.nextWindow()
	f.windows[h] = &fakeWindow{content: content, rect: rect}
	f.focused = h
	return h, nil
}

func (f *fakeHost) OpenSplit(content host.ContentHandle, direction string, size int) (host.WindowHandle, error) {
	if err := f.takeOpenErr(); err != nil {
		return host.WindowHandle{}, err
	}
	h := f.nextWindow()
	rect := geometry.Rect{Width: f.screenW, Height: f.screenH}
	switch direction {
	case geometry.DirectionTop, geometry.DirectionBottom:
		rect.Height = size
	default:
		rect.Width = size
	}
	f.windows[h] = &fakeWindow{content: content, rect: rect, splitDir: direction}
	f.focused = h
	return h, nil
}

func (f *fakeHost) OpenTab(content host.ContentHandle, title string) (host.WindowHandle, host.TabHandle, error) {
	if err := f.takeOpenErr(); err != nil {
		return host.WindowHandle{}, host.TabHandle{}, err
	}
	tab := host.TabHandle{ID: "tab-" + title}
	f.tabs[tab] = true
	f.activeTab = tab
	h := f.nextWindow()
	f.windows[h] = &fakeWindow{content: content, tab: tab, rect: geometry.Rect{Width: f.screenW, Height: f.screenH}}
	f.focused = h
	return h, tab, nil
}

func (f *fakeHost) OpenInTab(content host.ContentHandle, tab host.TabHandle) (host.WindowHandle, error) {
	if err := f.takeOpenErr(); err != nil {
		return host.WindowHandle{}, err
	}
	if !f.tabs[tab] {
		return host.WindowHandle{}, fmt.Errorf("%w: no such tab %s", host.ErrOperationFailed, tab.ID)
	}
	h := f.nextWindow()
	f.windows[h] = &fakeWindow{content: content, tab: tab, rect: geometry.Rect{Width: f.screenW, Height: f.screenH}}
	f.focused = h
	return h, nil
}

func (f *fakeHost) takeOpenErr() error {
	err := f.failOpen
	f.failOpen = nil
	return err
}

func (f *fakeHost) CloseWindow(h host.WindowHandle) error {
	if _, ok := f.windows[h]; !ok {
		return fmt.Errorf("%w: close of unknown window %s", host.ErrOperationFailed, h.ID)
	}
	delete(f.windows, h)
	if f.focused == h {
		f.focused = host.WindowHandle{}
	}
	return nil
}

func (f *fakeHost) Focus(h host.WindowHandle) error {
	if _, ok := f.windows[h]; !ok {
		return fmt.Errorf("%w: focus of unknown window %s", host.ErrOperationFailed, h.ID)
	}
	f.focused = h
	return nil
}

func (f *fakeHost) Valid(h host.WindowHandle) bool {
	_, ok := f.windows[h]
	return ok
}

func (f *fakeHost) Rect(h host.WindowHandle) (geometry.Rect, error) {
	w, ok := f.windows[h]
	if !ok {
		return geometry.Rect{}, fmt.Errorf("%w: rect of unknown window %s", host.ErrOperationFailed, h.ID)
	}
	return w.rect, nil
}

func (f *fakeHost) SetRect(h host.WindowHandle, r geometry.Rect) error {
	w, ok := f.windows[h]
	if !ok {
		return fmt.Errorf("%w: set rect of unknown window %s", host.ErrOperationFailed, h.ID)
	}
	w.rect = r
	return nil
}

func (f *fakeHost) SetSplitWidth(h host.WindowHandle, cells int) error {
	w, ok := f.windows[h]
	if !ok {
		return fmt.Errorf("%w: unknown window %s", host.ErrOperationFailed, h.ID)
	}
	w.rect.Width = cells
	return nil
}

func (f *fakeHost) SetSplitHeight(h host.WindowHandle, cells int) error {
	w, ok := f.windows[h]
	if !ok {
		return fmt.Errorf("%w: unknown window %s", host.ErrOperationFailed, h.ID)
	}
	w.rect.Height = cells
	return nil
}

func (f *fakeHost) TabExists(t host.TabHandle) bool { return f.tabs[t] }

func (f *fakeHost) SwitchToTab(t host.TabHandle) error {
	if !f.tabs[t] {
		return fmt.Errorf("%w: no such tab %s", host.ErrOperationFailed, t.ID)
	}
	f.activeTab = t
	return nil
}

func (f *fakeHost) SwitchAway(t host.TabHandle) error {
	if f.activeTab == t {
		f.activeTab = host.TabHandle{}
	}
	return nil
}

func (f *fakeHost) CreateContent() (host.ContentHandle, error) {
	f.seq++
	c := host.ContentHandle{ID: fmt.Sprintf("c%d", f.seq)}
	f.contents[c] = true
	return c, nil
}

func (f *fakeHost) DestroyContent(c host.ContentHandle) error {
	if !f.contents[c] {
		return fmt.Errorf("%w: destroy of unknown content %s", host.ErrOperationFailed, c.ID)
	}
	delete(f.contents, c)
	for h, p := range f.procs {
		if p.content == c {
			p.alive = false
			delete(f.procs, h)
		}
	}
	return nil
}

func (f *fakeHost) StartProcess(c host.ContentHandle, command string, onExit host.ExitFunc) (host.ProcessHandle, error) {
	if err := f.failProcess; err != nil {
		f.failProcess = nil
		return host.ProcessHandle{}, err
	}
	if !f.contents[c] {
		return host.ProcessHandle{}, fmt.Errorf("%w: start in unknown content %s", host.ErrOperationFailed, c.ID)
	}
	f.seq++
	f.gen++
	h := host.ProcessHandle{ID: fmt.Sprintf("p%d", f.seq), Gen: f.gen}
	f.procs[h] = &fakeProc{content: c, command: command, onExit: onExit, alive: true}
	return h, nil
}

func (f *fakeHost) Send(p host.ProcessHandle, data []byte) error {
	proc, ok := f.procs[p]
	if !ok || !proc.alive {
		return fmt.Errorf("%w: send to dead process %s", host.ErrOperationFailed, p.ID)
	}
	f.sent[p] = append(f.sent[p], string(data))
	return nil
}

// exit simulates the process monitor delivering an exit event.
func (f *fakeHost) exit(p host.ProcessHandle, code int) {
	proc, ok := f.procs[p]
	if !ok {
		return
	}
	proc.alive = false
	delete(f.procs, p)
	if proc.onExit != nil {
		proc.onExit(host.ProcessExit{Process: p, ExitCode: code})
	}
}

var errHostDown = errors.New("host down")

// assertConsistent checks the byName / byWindow invariant: every reverse
// mapping points at a surface holding exactly that handle, and every
// surface with a window appears in the reverse map.
func assertConsistent(t *testing.T, r *Registry) {
	t.Helper()
	for h, s := range r.byWindow {
		if s.window != h {
			t.Errorf("byWindow[%v] points at %q whose window is %v", h, s.Name, s.window)
		}
	}
	for name, s := range r.byName {
		if s.window.Zero() {
			continue
		}
		if got := r.byWindow[s.window]; got != s {
			t.Errorf("surface %q window %v not in byWindow (got %v)", name, s.window, got)
		}
	}
}
