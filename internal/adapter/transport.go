// Package adapter implements the host-facing side of the bridge: the framed
// transport shared by stdio and TCP, the accept loop that spawns isolated
// sessions, and the Session itself with its dispatch table and launch/attach
// state machine.
package adapter

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/google/go-dap"
)

// HostTransport frames and deframes messages on the byte stream to the host.
// Behavior is identical over standard I/O and TCP. Writes may arrive from the
// request-handling goroutine and the debuggee-relay goroutine concurrently,
// so every write path is serialized through a single mutex.
type HostTransport struct {
	conn   io.ReadWriteCloser
	reader *bufio.Reader
	writer *bufio.Writer

	writeMu sync.Mutex

	seqMu sync.Mutex
	seq   int

	closeOnce sync.Once
}

// NewHostTransport wraps a connected byte stream.
func NewHostTransport(conn io.ReadWriteCloser) *HostTransport {
	return &HostTransport{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
	}
}

// stdioConn combines the process's standard streams into one ReadWriteCloser.
type stdioConn struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (s *stdioConn) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *stdioConn) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s *stdioConn) Close() error {
	inErr := s.in.Close()
	outErr := s.out.Close()
	if inErr != nil {
		return inErr
	}
	return outErr
}

// NewStdioTransport wraps the process's standard input/output.
func NewStdioTransport(in io.ReadCloser, out io.WriteCloser) *HostTransport {
	return NewHostTransport(&stdioConn{in: in, out: out})
}

// ReadRaw reads the next frame and returns its raw body bytes. The raw form
// is kept so pass-through commands can be forwarded to the debuggee verbatim.
func (t *HostTransport) ReadRaw() ([]byte, error) {
	raw, err := dap.ReadBaseMessage(t.reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read host message: %w", err)
	}
	return raw, nil
}

// Write sends one adapter-originated typed message.
func (t *HostTransport) Write(msg dap.Message) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := dap.WriteProtocolMessage(t.writer, msg); err != nil {
		return fmt.Errorf("failed to write host message: %w", err)
	}
	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush host message: %w", err)
	}
	return nil
}

// WriteRaw relays one already-encoded message body unchanged.
func (t *HostTransport) WriteRaw(raw []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := dap.WriteBaseMessage(t.writer, raw); err != nil {
		return fmt.Errorf("failed to relay host message: %w", err)
	}
	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush relayed host message: %w", err)
	}
	return nil
}

// NextSeq returns the next adapter-side sequence number. Host-assigned
// sequence numbers on relayed traffic are never touched.
func (t *HostTransport) NextSeq() int {
	t.seqMu.Lock()
	defer t.seqMu.Unlock()
	t.seq++
	return t.seq
}

// Close closes the underlying stream.
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		err = t.conn.Close()
	})
	return err
}
