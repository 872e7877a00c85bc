package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	// maxRequestSize caps a single request.
	maxRequestSize = 64 * 1024
	// requestTimeout bounds one request/response exchange.
	requestTimeout = 10 * time.Second
	// liveCheckTimeout is how long Serve waits for an existing socket to answer.
	liveCheckTimeout = 200 * time.Millisecond
	// socketPermissions keeps the socket private to the owning user.
	socketPermissions = 0600
)

// ErrSocketInUse is returned by Serve when another process answers on the socket.
var ErrSocketInUse = errors.New("control socket in use")

// Serve listens on the socket and answers requests until ctx is done, Close
// is called, or a stop request shuts it down. Replies already being written
// are finished before Serve returns.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("already serving %s", s.sockPath)
	}
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	listener, err := s.listen()
	if err != nil {
		s.mu.Lock()
		s.done = nil
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.listener = listener
	s.started = time.Now()
	s.mu.Unlock()
	s.logger.Info("control socket listening", "socket", s.sockPath)

	acceptDone := make(chan struct{})
	go func() {
		defer close(acceptDone)
		s.accept(listener)
	}()

	select {
	case <-ctx.Done():
		_ = s.Close()
	case <-done:
	}

	<-acceptDone
	s.conns.Wait()
	return nil
}

// listen claims the socket path. A socket file that nothing answers on is
// left over from a crash and is replaced.
func (s *Server) listen() (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(s.sockPath), 0755); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}

	if conn, err := net.DialTimeout("unix", s.sockPath, liveCheckTimeout); err == nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %s", ErrSocketInUse, s.sockPath)
	}
	if err := os.Remove(s.sockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(s.sockPath, socketPermissions); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("set socket permissions: %w", err)
	}
	return listener, nil
}

// Close stops accepting requests and removes the socket. It is safe to call
// more than once and from a request handler.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	s.listener = nil
	close(s.done)
	s.done = nil

	s.logger.Info("control socket closed", "socket", s.sockPath)
	return err
}

func (s *Server) accept(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("accept control connection", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConn(conn)
		}()
	}
}

// handleConn answers the single request carried by conn.
func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(requestTimeout)); err != nil {
		s.logger.Warn("set control deadline", "error", err)
		return
	}

	var resp Response
	var req Request
	if err := json.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&req); err != nil {
		resp.Error = fmt.Sprintf("decode request: %v", err)
	} else {
		s.logger.Debug("control request", "method", req.Method, "id", req.ID)
		resp = s.dispatch(&req)
		resp.ID = req.ID
	}

	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.logger.Warn("write control response", "method", req.Method, "error", err)
	}
}
