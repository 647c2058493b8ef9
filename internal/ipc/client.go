package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/Gaurav-Gosain/surf/internal/config"
	"github.com/Gaurav-Gosain/surf/internal/surface"
)

// Client issues one-shot commands to a running daemon.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient returns a client for the daemon at socketPath (empty means
// SocketPath()).
func NewClient(socketPath string) *Client {
	if socketPath == "" {
		socketPath = SocketPath()
	}
	return &Client{socketPath: socketPath, timeout: 5 * time.Second}
}

func (c *Client) send(cmd CommandType, payload any) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w (is `surf daemon` running?)", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	req := Request{Command: cmd}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		req.Payload = raw
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	respData, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon: %s", resp.Error)
	}
	return &resp, nil
}

// Open shows a surface; overrides layer on top of the daemon's config.
func (c *Client) Open(name string, overrides config.SurfaceConfig) error {
	_, err := c.send(CommandOpen, OpenPayload{Name: name, Overrides: overrides})
	return err
}

// Toggle shows or refreshes a surface; nil overrides hide it.
func (c *Client) Toggle(name string, overrides *config.SurfaceConfig) error {
	_, err := c.send(CommandToggle, TogglePayload{Name: name, Overrides: overrides})
	return err
}

// Hide removes a surface from view.
func (c *Client) Hide(name string) error {
	_, err := c.send(CommandHide, NamePayload{Name: name})
	return err
}

// Resize changes a surface's dimensions.
func (c *Client) Resize(name, width, height string) error {
	_, err := c.send(CommandResize, ResizePayload{Name: name, Width: width, Height: height})
	return err
}

// Move repositions a surface.
func (c *Client) Move(name string, opts surface.RepositionOpts) error {
	_, err := c.send(CommandMove, MovePayload{
		Name:      name,
		Position:  opts.Position,
		Row:       opts.Row,
		Col:       opts.Col,
		Direction: opts.Direction,
	})
	return err
}

// Next cycles to the next surface and returns its name.
func (c *Client) Next() (string, error) {
	return c.cycle(CommandNext)
}

// Prev cycles to the previous surface and returns its name.
func (c *Client) Prev() (string, error) {
	return c.cycle(CommandPrev)
}

func (c *Client) cycle(cmd CommandType) (string, error) {
	resp, err := c.send(cmd, nil)
	if err != nil {
		return "", err
	}
	var data CycleData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", fmt.Errorf("parse cycle data: %w", err)
	}
	return data.Name, nil
}

// List enumerates all surfaces.
func (c *Client) List() ([]surface.Info, error) {
	resp, err := c.send(CommandList, nil)
	if err != nil {
		return nil, err
	}
	var data ListData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("parse list data: %w", err)
	}
	return data.Surfaces, nil
}

// Shutdown asks the daemon to exit.
func (c *Client) Shutdown() error {
	_, err := c.send(CommandShutdown, nil)
	return err
}
