// Package debuggee owns the connection to the script runtime: the per-session
// listen socket the runtime connects back to, and the newline-delimited JSON
// transport running over the accepted connection.
package debuggee

import (
	"fmt"
	"net"
)

// Listener is the per-session listen socket the debuggee connects back to.
// Exactly one connection is accepted per session.
type Listener struct {
	inner net.Listener
}

// Listen binds the debuggee listener, on loopback unless public is set.
// The listener must be open before anything is validated or spawned so the
// debuggee cannot race the adapter to the port.
func Listen(port int, public bool) (*Listener, error) {
	host := "127.0.0.1"
	if public {
		host = ""
	}
	inner, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("failed to bind debuggee listener on port %d: %w", port, err)
	}
	return &Listener{inner: inner}, nil
}

// AcceptOne blocks until the debuggee connects, then stops listening.
// There is deliberately no timeout: the debuggee may only connect once the
// user starts the script.
func (l *Listener) AcceptOne() (net.Conn, error) {
	conn, err := l.inner.Accept()
	closeErr := l.inner.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to accept debuggee connection: %w", err)
	}
	if closeErr != nil {
		return conn, nil
	}
	return conn, nil
}

// Port returns the bound port.
func (l *Listener) Port() int {
	return l.inner.Addr().(*net.TCPAddr).Port
}

// Close stops listening without accepting.
func (l *Listener) Close() error {
	return l.inner.Close()
}
