package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"syscall"
	"time"
)

// DefaultClientTimeout bounds one control call.
const DefaultClientTimeout = 5 * time.Second

// ErrNotRunning is returned when no tminus process answers on the socket.
var ErrNotRunning = errors.New("tminus not running")

// Client makes control calls to a running tminus process.
type Client struct {
	sockPath string
	timeout  time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout bounds each call, including the connect.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a client for the socket at sockPath.
func NewClient(sockPath string, opts ...ClientOption) *Client {
	c := &Client{sockPath: sockPath, timeout: DefaultClientTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SocketPath returns the socket the client talks to.
func (c *Client) SocketPath() string {
	return c.sockPath
}

// call sends one request and decodes the result into out when out is non-nil.
func (c *Client) call(method string, params, out any) error {
	req := Request{Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode %s params: %w", method, err)
		}
		req.Params = data
	}

	conn, err := net.DialTimeout("unix", c.sockPath, c.timeout)
	if err != nil {
		return c.dialError(err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("send %s request: %w", method, err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return fmt.Errorf("%s: no reply within %s", method, c.timeout)
		}
		return fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.Error != "" {
		return fmt.Errorf("%s: %s", method, resp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// dialError reports a missing socket or a socket nobody listens on as
// ErrNotRunning.
func (c *Client) dialError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOENT):
		return fmt.Errorf("%w (no socket at %s)", ErrNotRunning, c.sockPath)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%w (stale socket at %s)", ErrNotRunning, c.sockPath)
	case errors.Is(err, os.ErrDeadlineExceeded):
		return fmt.Errorf("connect to %s: no answer within %s", c.sockPath, c.timeout)
	}
	return fmt.Errorf("connect to %s: %w", c.sockPath, err)
}

// Status returns the countdown status.
func (c *Client) Status() (*StatusResponse, error) {
	var status StatusResponse
	if err := c.call(MethodStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) action(method string, params any) (*ActionResponse, error) {
	var resp ActionResponse
	if err := c.call(method, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetDuration configures a new countdown of seconds.
func (c *Client) SetDuration(seconds int) (*ActionResponse, error) {
	return c.action(MethodSet, SetParams{Seconds: seconds})
}

// Start starts or resumes the countdown.
func (c *Client) Start() (*ActionResponse, error) {
	return c.action(MethodStart, nil)
}

// Pause pauses a running countdown.
func (c *Client) Pause() (*ActionResponse, error) {
	return c.action(MethodPause, nil)
}

// Reset returns the countdown to its configured duration.
func (c *Client) Reset() (*ActionResponse, error) {
	return c.action(MethodReset, nil)
}

// Stop asks the process to stop. With force the socket closes without the
// stop grace.
func (c *Client) Stop(force bool) error {
	return c.call(MethodStop, StopParams{Force: force}, nil)
}

// IsRunning reports whether anything accepts connections on the socket.
func (c *Client) IsRunning() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, c.timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
