package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/go-logr/logr"

	"github.com/gideros/debug-adapter/internal/config"
)

// Server accepts host connections and runs one isolated Session per
// connection. Sessions share only the read-only settings.
type Server struct {
	settings *config.Settings
	log      logr.Logger

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// NewServer creates a server with the given process-wide settings.
func NewServer(settings *config.Settings, log logr.Logger) *Server {
	return &Server{settings: settings, log: log}
}

// ListenAndServe binds the host listener and accepts connections until the
// context is cancelled or the listener fails. Each accepted connection runs
// an independent, concurrent session; a session failing never affects its
// siblings or the server.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to bind host listener on port %d: %w", port, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.log.Info("listening for host connections", "address", listener.Addr().String())

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				s.wg.Wait()
				s.log.Info("host listener closed")
				return nil
			}
			return fmt.Errorf("host accept failed: %w", err)
		}

		session := NewSession(NewHostTransport(conn), s.settings, s.log)
		s.log.Info("host connected",
			"remote", conn.RemoteAddr().String(), "session", session.ID())

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			session.Run()
		}()
	}
}

// Addr returns the bound listener address, or nil before ListenAndServe has
// bound it.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ServeStdio runs exactly one session over the process's standard
// input/output, synchronously.
func (s *Server) ServeStdio() error {
	session := NewSession(NewStdioTransport(os.Stdin, os.Stdout), s.settings, s.log)
	session.Run()
	return nil
}
