// Package content provides a local PTY-backed content host: each container
// is a pseudo-terminal, and processes run attached to it through a shell.
// It implements host.ContentHost for display environments that render PTY
// output themselves rather than owning the processes.
package content

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	xpty "github.com/charmbracelet/x/xpty"
	"github.com/google/uuid"

	"github.com/Gaurav-Gosain/surf/internal/host"
)

const (
	defaultWidth  = 80
	defaultHeight = 24

	// killTimeout bounds how long teardown waits for a process to die.
	killTimeout = 500 * time.Millisecond
)

// LocalHost implements host.ContentHost with one PTY per container.
type LocalHost struct {
	mu     sync.Mutex
	log    *log.Logger
	width  int
	height int
	gen    uint64

	containers map[host.ContentHandle]*container
	byProcess  map[host.ProcessHandle]*container
}

type container struct {
	pty     xpty.Pty
	cmd     *exec.Cmd
	proc    host.ProcessHandle
	cancel  context.CancelFunc
	running bool
}

// NewLocalHost builds a content host whose PTYs start at width x height
// cells. Zero dimensions fall back to 80x24. A nil logger discards output.
func NewLocalHost(width, height int, logger *log.Logger) *LocalHost {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &LocalHost{
		log:        logger,
		width:      width,
		height:     height,
		containers: make(map[host.ContentHandle]*container),
		byProcess:  make(map[host.ProcessHandle]*container),
	}
}

// CreateContent implements host.ContentHost. The PTY is created up front;
// xpty requires dimensions at creation time.
func (l *LocalHost) CreateContent() (host.ContentHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pty, err := xpty.NewPty(l.width, l.height)
	if err != nil {
		return host.ContentHandle{}, fmt.Errorf("%w: create pty: %v", host.ErrOperationFailed, err)
	}
	h := host.ContentHandle{ID: uuid.NewString()}
	l.containers[h] = &container{pty: pty}
	return h, nil
}

// DestroyContent implements host.ContentHost. Any attached process is
// killed along with the PTY.
func (l *LocalHost) DestroyContent(c host.ContentHandle) error {
	l.mu.Lock()
	ct, ok := l.containers[c]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: unknown content %s", host.ErrOperationFailed, c.ID)
	}
	delete(l.containers, c)
	if !ct.proc.Zero() {
		delete(l.byProcess, ct.proc)
	}
	l.mu.Unlock()

	ct.teardown()
	return nil
}

// StartProcess implements host.ContentHost. The command line runs through
// the user's shell with the container's PTY as its controlling terminal.
// Exit is observed on a monitor goroutine and delivered through onExit.
func (l *LocalHost) StartProcess(c host.ContentHandle, command string, onExit host.ExitFunc) (host.ProcessHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ct, ok := l.containers[c]
	if !ok {
		return host.ProcessHandle{}, fmt.Errorf("%w: unknown content %s", host.ErrOperationFailed, c.ID)
	}
	if ct.running {
		return host.ProcessHandle{}, fmt.Errorf("%w: content %s already has a process", host.ErrOperationFailed, c.ID)
	}

	// #nosec G204 - the command is intentionally user-controlled
	cmd := exec.Command(userShell(), "-c", command)
	cmd.Env = os.Environ()
	setControllingTerminal(cmd)

	if err := ct.pty.Start(cmd); err != nil {
		return host.ProcessHandle{}, fmt.Errorf("%w: start %q: %v", host.ErrOperationFailed, command, err)
	}
	// Some PTY implementations only accept a resize once the process runs.
	if err := ct.pty.Resize(l.width, l.height); err != nil {
		l.log.Debug("post-start pty resize failed", "err", err)
	}

	l.gen++
	proc := host.ProcessHandle{ID: uuid.NewString(), Gen: l.gen}
	ctx, cancel := context.WithCancel(context.Background())
	ct.cmd = cmd
	ct.proc = proc
	ct.cancel = cancel
	ct.running = true
	l.byProcess[proc] = ct

	go l.monitor(ctx, cmd, proc, onExit)
	return proc, nil
}

func (l *LocalHost) monitor(ctx context.Context, cmd *exec.Cmd, proc host.ProcessHandle, onExit host.ExitFunc) {
	// WaitProcess is the cross-platform wait; ConPTY needs it on Windows.
	_ = xpty.WaitProcess(ctx, cmd)

	code := 0
	if state := cmd.ProcessState; state != nil {
		code = state.ExitCode()
	}

	l.mu.Lock()
	ct, live := l.byProcess[proc]
	if live {
		delete(l.byProcess, proc)
		ct.running = false
		ct.proc = host.ProcessHandle{}
	}
	l.mu.Unlock()

	// Torn-down containers already reported nothing to wait for.
	if live && onExit != nil {
		onExit(host.ProcessExit{Process: proc, ExitCode: code})
	}
}

// Send implements host.ContentHost by writing raw bytes to the process's
// PTY.
func (l *LocalHost) Send(p host.ProcessHandle, data []byte) error {
	l.mu.Lock()
	ct, ok := l.byProcess[p]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: no process %s", host.ErrOperationFailed, p.ID)
	}
	if _, err := ct.pty.Write(data); err != nil {
		return fmt.Errorf("%w: send: %v", host.ErrOperationFailed, err)
	}
	return nil
}

// Resize propagates a new cell size to every container's PTY and becomes
// the default for containers created afterwards.
func (l *LocalHost) Resize(width, height int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if width > 0 {
		l.width = width
	}
	if height > 0 {
		l.height = height
	}
	for _, ct := range l.containers {
		if err := ct.pty.Resize(l.width, l.height); err != nil {
			l.log.Debug("pty resize failed", "err", err)
		}
	}
}

// Close tears down every container.
func (l *LocalHost) Close() {
	l.mu.Lock()
	containers := make([]*container, 0, len(l.containers))
	for _, ct := range l.containers {
		containers = append(containers, ct)
	}
	l.containers = make(map[host.ContentHandle]*container)
	l.byProcess = make(map[host.ProcessHandle]*container)
	l.mu.Unlock()

	for _, ct := range containers {
		ct.teardown()
	}
}

// teardown closes the PTY first to stop I/O, then kills the process with a
// bounded wait.
func (ct *container) teardown() {
	if ct.cancel != nil {
		ct.cancel()
		ct.cancel = nil
	}
	if ct.pty != nil {
		_ = ct.pty.Close()
	}
	if ct.cmd != nil && ct.cmd.Process != nil {
		done := make(chan struct{}, 1)
		go func() {
			_ = ct.cmd.Process.Kill()
			_ = ct.cmd.Wait()
			done <- struct{}{}
		}()
		select {
		case <-done:
		case <-time.After(killTimeout):
		}
	}
	ct.cmd = nil
	ct.running = false
}

// userShell prefers $SHELL and falls back to a platform default.
func userShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return fallbackShell
}
