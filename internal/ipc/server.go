package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Gaurav-Gosain/surf/internal/config"
	"github.com/Gaurav-Gosain/surf/internal/surface"
)

// Server answers IPC requests against one surface registry. It owns the
// active config and resolves each request's override layer against it, so
// a config reload takes effect for every later command.
type Server struct {
	socketPath string
	listener   net.Listener
	reg        *surface.Registry
	log        *log.Logger

	cfgMu sync.RWMutex
	cfg   *config.Config

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewServer builds a server for reg listening at socketPath (empty means
// SocketPath()). A nil cfg uses the built-in defaults; a nil logger
// discards output.
func NewServer(reg *surface.Registry, cfg *config.Config, socketPath string, logger *log.Logger) *Server {
	if socketPath == "" {
		socketPath = SocketPath()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		socketPath: socketPath,
		reg:        reg,
		cfg:        cfg,
		log:        logger,
		shutdown:   make(chan struct{}),
	}
}

// SetConfig swaps the active config; the watcher calls this on reload.
func (s *Server) SetConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

func (s *Server) config() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// Start listens on the unix socket and serves connections until Stop.
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o700); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	// A previous daemon may have left its socket behind.
	_ = os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("restrict socket permissions: %w", err)
	}
	s.listener = listener
	s.log.Info("listening", "socket", s.socketPath)

	go s.acceptLoop()
	return nil
}

// Done is closed when a SHUTDOWN command arrives.
func (s *Server) Done() <-chan struct{} { return s.shutdown }

// Stop closes the listener and removes the socket.
func (s *Server) Stop() {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
	if s.listener != nil {
		_ = s.listener.Close()
	}
	_ = os.Remove(s.socketPath)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("accept", "err", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		s.log.Error("read request", "err", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.reply(conn, NewErrorResponse(err.Error()))
		return
	}
	s.reply(conn, s.handle(req))
}

func (s *Server) reply(conn net.Conn, resp *Response) {
	b, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("marshal response", "err", err)
		return
	}
	b = append(b, '\n')
	if _, err := conn.Write(b); err != nil {
		s.log.Error("write response", "err", err)
	}
}

func (s *Server) handle(req *Request) *Response {
	switch req.Command {
	case CommandOpen:
		var p OpenPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		cfg, err := s.config().Resolve(p.Name, p.Overrides)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		if err := s.reg.Open(p.Name, cfg); err != nil {
			return NewErrorResponse(err.Error())
		}
		return mustOK(nil)

	case CommandToggle:
		var p TogglePayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		var cfg *surface.Config
		if p.Overrides != nil {
			resolved, err := s.config().Resolve(p.Name, *p.Overrides)
			if err != nil {
				return NewErrorResponse(err.Error())
			}
			cfg = &resolved
		}
		if err := s.reg.Toggle(p.Name, cfg); err != nil {
			return NewErrorResponse(err.Error())
		}
		return mustOK(nil)

	case CommandHide:
		var p NamePayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		if err := s.reg.Hide(p.Name); err != nil {
			return NewErrorResponse(err.Error())
		}
		return mustOK(nil)

	case CommandResize:
		var p ResizePayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		if err := s.reg.Resize(p.Name, surface.ResizeOpts{Width: p.Width, Height: p.Height}); err != nil {
			return NewErrorResponse(err.Error())
		}
		return mustOK(nil)

	case CommandMove:
		var p MovePayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		opts := surface.RepositionOpts{
			Position:  p.Position,
			Row:       p.Row,
			Col:       p.Col,
			Direction: p.Direction,
		}
		if err := s.reg.Reposition(p.Name, opts); err != nil {
			return NewErrorResponse(err.Error())
		}
		return mustOK(nil)

	case CommandNext:
		name, err := s.reg.Next()
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return mustOK(CycleData{Name: name})

	case CommandPrev:
		name, err := s.reg.Prev()
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return mustOK(CycleData{Name: name})

	case CommandList:
		return mustOK(ListData{Surfaces: s.reg.List()})

	case CommandShutdown:
		s.shutdownOnce.Do(func() { close(s.shutdown) })
		return mustOK(nil)
	}
	return NewErrorResponse(fmt.Sprintf("unknown command %q", req.Command))
}

func mustOK(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}
