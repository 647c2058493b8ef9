// Package ipc carries commands from one-shot CLI invocations to the
// long-lived daemon that owns the surface registry. The protocol is one
// JSON request line and one JSON response line over a unix socket.
package ipc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/Gaurav-Gosain/surf/internal/config"
	"github.com/Gaurav-Gosain/surf/internal/surface"
)

// CommandType names a daemon operation.
type CommandType string

const (
	CommandOpen     CommandType = "OPEN"
	CommandToggle   CommandType = "TOGGLE"
	CommandHide     CommandType = "HIDE"
	CommandResize   CommandType = "RESIZE"
	CommandMove     CommandType = "MOVE"
	CommandNext     CommandType = "NEXT"
	CommandPrev     CommandType = "PREV"
	CommandList     CommandType = "LIST"
	CommandShutdown CommandType = "SHUTDOWN"
)

// Request is one command from client to daemon.
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the daemon's answer.
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// OpenPayload carries only the command-line override layer; the daemon
// resolves it against its (hot-reloaded) config file defaults.
type OpenPayload struct {
	Name      string               `json:"name"`
	Overrides config.SurfaceConfig `json:"overrides"`
}

// TogglePayload toggles a surface. A nil Overrides hides it.
type TogglePayload struct {
	Name      string                `json:"name"`
	Overrides *config.SurfaceConfig `json:"overrides,omitempty"`
}

// NamePayload addresses a surface by name only.
type NamePayload struct {
	Name string `json:"name"`
}

// ResizePayload carries unit tokens for the dimensions to change.
type ResizePayload struct {
	Name   string `json:"name"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
}

// MovePayload repositions a floating surface or redirects a split.
type MovePayload struct {
	Name      string `json:"name"`
	Position  string `json:"position,omitempty"`
	Row       string `json:"row,omitempty"`
	Col       string `json:"col,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// CycleData is returned by NEXT and PREV.
type CycleData struct {
	Name string `json:"name"`
}

// ListData is returned by LIST.
type ListData struct {
	Surfaces []surface.Info `json:"surfaces"`
}

// SocketPath returns the daemon socket location under the user's runtime
// directory.
func SocketPath() string {
	dir := xdg.RuntimeDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), fmt.Sprintf("surf-%d", os.Getuid()))
	}
	return filepath.Join(dir, "surf.sock")
}

// NewOKResponse wraps data in a successful response.
func NewOKResponse(data any) (*Response, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal response data: %w", err)
		}
		raw = b
	}
	return &Response{Status: "OK", Data: raw}, nil
}

// NewErrorResponse wraps an error message.
func NewErrorResponse(msg string) *Response {
	return &Response{Status: "ERROR", Error: msg}
}

// ParseRequest decodes one request line.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	return &req, nil
}
