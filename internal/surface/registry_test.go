package surface

import (
	"errors"
	"testing"
	"time"

	"github.com/Gaurav-Gosain/surf/internal/geometry"
	"github.com/Gaurav-Gosain/surf/internal/host"
	"github.com/Gaurav-Gosain/surf/internal/provider"
)

func newTestRegistry() (*Registry, *fakeHost) {
	f := newFakeHost()
	return New(f, f, provider.NewRegistry(), nil), f
}

func floatConfig() Config {
	return Config{
		Mode: ModeFloat,
		Float: geometry.FloatSpec{
			Position: geometry.Center,
			Width:    "80%",
			Height:   "60%",
			Margin:   "0",
		},
	}
}

func splitConfig(direction string) Config {
	return Config{
		Mode:  ModeSplit,
		Split: SplitSpec{Direction: direction, Size: "30%"},
	}
}

func TestOpenFloat(t *testing.T) {
	r, f := newTestRegistry()

	if err := r.Open("logs", floatConfig()); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	s := r.byName["logs"]
	if s == nil {
		t.Fatal("surface not registered")
	}
	if s.window.Zero() {
		t.Fatal("surface has no window after open")
	}
	rect := f.windows[s.window].rect
	want := geometry.Rect{Row: 8, Col: 12, Width: 96, Height: 24}
	if rect != want {
		t.Errorf("window rect = %+v, want %+v", rect, want)
	}
	if f.focused != s.window {
		t.Errorf("window not focused after open")
	}
	assertConsistent(t, r)
}

func TestOpenTwiceFocusesExistingWindow(t *testing.T) {
	r, f := newTestRegistry()

	if err := r.Open("logs", floatConfig()); err != nil {
		t.Fatalf("first open: %v", err)
	}
	first := r.byName["logs"].window

	if err := r.Open("logs", floatConfig()); err != nil {
		t.Fatalf("second open: %v", err)
	}
	if got := r.byName["logs"].window; got != first {
		t.Errorf("reopen created a new window: %v then %v", first, got)
	}
	if len(f.windows) != 1 {
		t.Errorf("expected 1 window, have %d", len(f.windows))
	}
	assertConsistent(t, r)
}

func TestOpenRejectsBadConfig(t *testing.T) {
	r, f := newTestRegistry()

	cfg := floatConfig()
	cfg.Float.Position = "somwhere" // typo must not fall back to center
	err := r.Open("logs", cfg)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("Open error = %v, want ErrConfiguration", err)
	}
	if len(f.contents) != 0 || len(f.windows) != 0 {
		t.Error("failed open left host objects behind")
	}
}

func TestHideFloatKeepsContent(t *testing.T) {
	r, f := newTestRegistry()

	cfg := floatConfig()
	cfg.Command = "htop"
	if err := r.Open("logs", cfg); err != nil {
		t.Fatalf("open: %v", err)
	}
	s := r.byName["logs"]
	content := s.content
	proc := s.process

	if err := r.Hide("logs"); err != nil {
		t.Fatalf("hide: %v", err)
	}
	if !s.window.Zero() {
		t.Error("window handle not cleared on hide")
	}
	if len(f.windows) != 0 {
		t.Error("host window not closed on hide")
	}
	if !f.contents[content] {
		t.Error("persistent content destroyed on hide")
	}
	if s.process != proc {
		t.Error("process handle lost on hide")
	}
	assertConsistent(t, r)

	// Warm reopen binds the surviving content to a new window.
	if err := r.Open("logs", cfg); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if s.content != content {
		t.Errorf("reopen replaced content: %v then %v", content, s.content)
	}
	if s.window.Zero() {
		t.Error("reopen did not produce a window")
	}
	assertConsistent(t, r)
}

func TestHideEphemeralTearsDownContent(t *testing.T) {
	r, f := newTestRegistry()

	cfg := floatConfig()
	cfg.Command = "htop"
	cfg.Ephemeral = true
	if err := r.Open("scratch", cfg); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := r.Hide("scratch"); err != nil {
		t.Fatalf("hide: %v", err)
	}

	s := r.byName["scratch"]
	if !s.content.Zero() || !s.process.Zero() || !s.window.Zero() {
		t.Errorf("ephemeral hide left handles: content=%v process=%v window=%v",
			s.content, s.process, s.window)
	}
	if len(f.contents) != 0 || len(f.procs) != 0 {
		t.Error("ephemeral hide left host content or process alive")
	}
	assertConsistent(t, r)
}

func TestTabHideReopenReusesTab(t *testing.T) {
	r, f := newTestRegistry()

	cfg := Config{Mode: ModeTab}
	if err := r.Open("notes", cfg); err != nil {
		t.Fatalf("open: %v", err)
	}
	s := r.byName["notes"]
	tab := s.tab
	if tab.Zero() {
		t.Fatal("tab-mode open created no tab")
	}
	win := s.window

	if err := r.Hide("notes"); err != nil {
		t.Fatalf("hide: %v", err)
	}
	// Hiding a tab switches away; nothing is destroyed.
	if s.tab != tab || s.window != win {
		t.Error("tab hide destroyed tab or window handle")
	}
	if !f.tabs[tab] {
		t.Error("host tab destroyed on hide")
	}
	if f.activeTab == tab {
		t.Error("hide left the tab focused")
	}

	if err := r.Open("notes", cfg); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if s.tab != tab {
		t.Errorf("reopen recreated the tab: %v then %v", tab, s.tab)
	}
	if f.activeTab != tab {
		t.Error("reopen did not switch back to the tab")
	}
	if len(f.tabs) != 1 {
		t.Errorf("expected 1 tab, have %d", len(f.tabs))
	}
	assertConsistent(t, r)
}

func TestColdStartRollbackOnWindowFailure(t *testing.T) {
	r, f := newTestRegistry()

	cfg := floatConfig()
	cfg.Command = "htop"
	f.failOpen = errHostDown

	err := r.Open("logs", cfg)
	if err == nil {
		t.Fatal("Open succeeded despite window failure")
	}
	if !errors.Is(err, errHostDown) {
		t.Errorf("Open error = %v, want wrapped host failure", err)
	}
	// No orphaned content or process may survive the failed open.
	if len(f.contents) != 0 || len(f.procs) != 0 {
		t.Errorf("rollback incomplete: %d contents, %d procs", len(f.contents), len(f.procs))
	}
	s := r.byName["logs"]
	if !s.content.Zero() || !s.process.Zero() || !s.window.Zero() {
		t.Error("rollback left handles on the surface")
	}
	assertConsistent(t, r)
}

func TestProcessExitClearsHandle(t *testing.T) {
	r, f := newTestRegistry()

	cfg := floatConfig()
	cfg.Command = "htop"
	if err := r.Open("logs", cfg); err != nil {
		t.Fatalf("open: %v", err)
	}
	s := r.byName["logs"]
	proc := s.process

	f.exit(proc, 0)

	if !s.process.Zero() {
		t.Error("process handle not cleared after exit")
	}
	// Persistent surface keeps window and content after exit.
	if s.window.Zero() || s.content.Zero() {
		t.Error("process exit tore down a persistent surface")
	}
	assertConsistent(t, r)
}

func TestProcessExitStaleGenerationIgnored(t *testing.T) {
	r, _ := newTestRegistry()

	cfg := floatConfig()
	cfg.Command = "htop"
	if err := r.Open("logs", cfg); err != nil {
		t.Fatalf("open: %v", err)
	}
	s := r.byName["logs"]
	live := s.process

	// Same raw id, older generation: must be discarded.
	stale := host.ProcessHandle{ID: live.ID, Gen: live.Gen - 1}
	r.HandleProcessExit(host.ProcessExit{Process: stale, ExitCode: 1})

	if s.process != live {
		t.Error("stale-generation exit cleared a live process handle")
	}
}

func TestProcessExitEphemeralClosesSurface(t *testing.T) {
	r, f := newTestRegistry()

	cfg := floatConfig()
	cfg.Command = "htop"
	cfg.Ephemeral = true
	if err := r.Open("scratch", cfg); err != nil {
		t.Fatalf("open: %v", err)
	}
	s := r.byName["scratch"]

	f.exit(s.process, 0)

	if !s.window.Zero() || !s.content.Zero() || !s.process.Zero() {
		t.Error("ephemeral surface not fully closed after process exit")
	}
	if len(f.windows) != 0 || len(f.contents) != 0 {
		t.Error("host objects survived ephemeral process exit")
	}
	assertConsistent(t, r)
}

func TestToggleNilConfigHides(t *testing.T) {
	r, f := newTestRegistry()

	if err := r.Open("logs", floatConfig()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := r.Toggle("logs", nil); err != nil {
		t.Fatalf("toggle nil: %v", err)
	}
	if len(f.windows) != 0 {
		t.Error("toggle with nil config did not hide")
	}
	assertConsistent(t, r)
}

func TestToggleOpensWhenHidden(t *testing.T) {
	r, _ := newTestRegistry()

	cfg := floatConfig()
	if err := r.Toggle("logs", &cfg); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if r.byName["logs"] == nil || r.byName["logs"].window.Zero() {
		t.Error("toggle on unknown surface did not open it")
	}
	assertConsistent(t, r)
}

func TestToggleFloatUpdatesGeometryInPlace(t *testing.T) {
	r, f := newTestRegistry()

	cfg := floatConfig()
	if err := r.Open("logs", cfg); err != nil {
		t.Fatalf("open: %v", err)
	}
	s := r.byName["logs"]
	win := s.window

	cfg.Float.Width = "50%"
	cfg.Float.Height = "50%"
	if err := r.Toggle("logs", &cfg); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if s.window != win {
		t.Error("toggle of an open float recreated the window")
	}
	rect := f.windows[win].rect
	if rect.Width != 60 || rect.Height != 20 {
		t.Errorf("toggle did not update geometry: %+v", rect)
	}
	assertConsistent(t, r)
}

func TestToggleSplitFocusesOnly(t *testing.T) {
	r, f := newTestRegistry()

	cfg := splitConfig(geometry.DirectionBottom)
	if err := r.Open("term", cfg); err != nil {
		t.Fatalf("open: %v", err)
	}
	s := r.byName["term"]
	rect := f.windows[s.window].rect

	cfg.Split.Size = "50%"
	if err := r.Toggle("term", &cfg); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if f.windows[s.window].rect != rect {
		t.Error("toggle resized an open split; only resize/reposition may")
	}
	if f.focused != s.window {
		t.Error("toggle did not focus the split")
	}
}

func TestHideUnknownSurface(t *testing.T) {
	r, _ := newTestRegistry()
	if err := r.Hide("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Hide(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestNavigationWraparound(t *testing.T) {
	r, _ := newTestRegistry()

	for _, name := range []string{"a", "b", "c"} {
		if err := r.Open(name, floatConfig()); err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
	}
	r.cursor = -1 // start from no current surface

	var visited []string
	for i := 0; i < 4; i++ {
		name, err := r.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		visited = append(visited, name)
	}
	want := []string{"a", "b", "c", "a"}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("Next sequence = %v, want %v", visited, want)
		}
	}

	r.cursor = -1
	name, err := r.Prev()
	if err != nil {
		t.Fatalf("Prev: %v", err)
	}
	if name != "c" {
		t.Errorf("Prev from no cursor = %q, want c", name)
	}
	name, err = r.Prev()
	if err != nil {
		t.Fatalf("Prev: %v", err)
	}
	if name != "b" {
		t.Errorf("second Prev = %q, want b", name)
	}
}

func TestNavigationEmpty(t *testing.T) {
	r, _ := newTestRegistry()
	if _, err := r.Next(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Next on empty registry: error = %v, want ErrNotFound", err)
	}
}

func TestListInsertionOrder(t *testing.T) {
	r, _ := newTestRegistry()

	for _, name := range []string{"b", "a", "c"} {
		if err := r.Open(name, floatConfig()); err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
	}
	if err := r.Hide("a"); err != nil {
		t.Fatalf("hide: %v", err)
	}

	infos := r.List()
	if len(infos) != 3 {
		t.Fatalf("List returned %d entries, want 3", len(infos))
	}
	for i, want := range []string{"b", "a", "c"} {
		if infos[i].Name != want {
			t.Errorf("List[%d].Name = %q, want %q", i, infos[i].Name, want)
		}
	}
	if infos[1].Open {
		t.Error("hidden surface listed as open")
	}
	if !infos[0].Open || !infos[2].Open {
		t.Error("open surfaces listed as hidden")
	}
}

func TestSurfaceAt(t *testing.T) {
	r, _ := newTestRegistry()

	if err := r.Open("logs", floatConfig()); err != nil {
		t.Fatalf("open: %v", err)
	}
	win := r.byName["logs"].window

	if name, ok := r.SurfaceAt(win); !ok || name != "logs" {
		t.Errorf("SurfaceAt(%v) = %q, %v; want logs, true", win, name, ok)
	}
	if _, ok := r.SurfaceAt(host.WindowHandle{ID: win.ID, Gen: win.Gen + 1}); ok {
		t.Error("SurfaceAt matched a different generation of the same id")
	}
}

func TestDeferredSendDelivered(t *testing.T) {
	r, f := newTestRegistry()

	cfg := floatConfig()
	cfg.Command = "python3"
	cfg.Send = "import this\n"
	cfg.SendDelay = 5 * time.Millisecond
	if err := r.Open("repl", cfg); err != nil {
		t.Fatalf("open: %v", err)
	}
	proc := r.byName["repl"].process

	deadline := time.Now().Add(time.Second)
	for {
		r.mu.Lock()
		n := len(f.sent[proc])
		r.mu.Unlock()
		if n > 0 {
			if n != 1 {
				t.Fatalf("deferred send fired %d times, want 1", n)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("deferred send never fired")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDeferredSendCancelledByTeardown(t *testing.T) {
	r, f := newTestRegistry()

	cfg := floatConfig()
	cfg.Command = "python3"
	cfg.Send = "import this\n"
	cfg.SendDelay = 20 * time.Millisecond
	cfg.Ephemeral = true
	if err := r.Open("repl", cfg); err != nil {
		t.Fatalf("open: %v", err)
	}
	proc := r.byName["repl"].process
	if err := r.Hide("repl"); err != nil {
		t.Fatalf("hide: %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	r.mu.Lock()
	n := len(f.sent[proc])
	r.mu.Unlock()
	if n != 0 {
		t.Fatalf("send fired %d times after teardown, want 0", n)
	}
}

type fakeProvider struct {
	name string
	err  error
}

func (p *fakeProvider) Name() string    { return p.name }
func (p *fakeProvider) Available() bool { return p.err == nil }
func (p *fakeProvider) CreateOrAttach(sessionID, command string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "fake attach " + sessionID + " " + command, nil
}

func TestOpenResolvesCommandThroughProvider(t *testing.T) {
	f := newFakeHost()
	providers := provider.NewRegistry()
	providers.Register(&fakeProvider{name: "fake"})
	r := New(f, f, providers, nil)

	cfg := floatConfig()
	cfg.Command = "htop"
	cfg.Provider = "fake"
	if err := r.Open("mon", cfg); err != nil {
		t.Fatalf("open: %v", err)
	}
	want := "fake attach surf-mon htop"
	if got := r.byName["mon"].backingCommand; got != want {
		t.Errorf("backing command = %q, want %q", got, want)
	}
}

func TestOpenBackendUnavailable(t *testing.T) {
	f := newFakeHost()
	providers := provider.NewRegistry()
	providers.Register(&fakeProvider{name: "fake", err: provider.ErrBackendUnavailable})
	r := New(f, f, providers, nil)

	cfg := floatConfig()
	cfg.Command = "htop"
	cfg.Provider = "fake"

	err := r.Open("mon", cfg)
	if !errors.Is(err, provider.ErrBackendUnavailable) {
		t.Fatalf("Open error = %v, want ErrBackendUnavailable", err)
	}
	if len(f.contents) != 0 {
		t.Error("backend failure left content behind")
	}

	// With the raw fallback enabled the unmodified command runs instead.
	cfg.RawFallback = true
	if err := r.Open("mon", cfg); err != nil {
		t.Fatalf("open with fallback: %v", err)
	}
	if got := r.byName["mon"].backingCommand; got != "htop" {
		t.Errorf("backing command = %q, want raw htop", got)
	}
}

func TestOpenUnknownProvider(t *testing.T) {
	r, _ := newTestRegistry()

	cfg := floatConfig()
	cfg.Command = "htop"
	cfg.Provider = "screen"
	if err := r.Open("mon", cfg); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("Open error = %v, want ErrConfiguration", err)
	}
}
