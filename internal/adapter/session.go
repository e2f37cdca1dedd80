package adapter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/google/go-dap"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/gideros/debug-adapter/internal/config"
	"github.com/gideros/debug-adapter/internal/debuggee"
	"github.com/gideros/debug-adapter/internal/player"
	"github.com/gideros/debug-adapter/internal/protocol"
)

// sessionState tracks where a session is in its lifecycle.
type sessionState int

const (
	stateUninitialized sessionState = iota
	stateAwaitingDebuggee
	stateConnected
	stateTerminated
)

func (s sessionState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateAwaitingDebuggee:
		return "awaiting-debuggee"
	case stateConnected:
		return "connected"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type handlerFunc func(env protocol.Envelope)

// Session bridges exactly one host connection to at most one debuggee
// connection. Sessions share nothing mutable: each accepted host connection
// gets its own Session, transport and (possibly) child process.
type Session struct {
	id       string
	host     *HostTransport
	settings *config.Settings
	log      logr.Logger

	// exit is the fail-fast hook invoked when a fault escapes a request
	// handler. Production sessions terminate the whole adapter process.
	exit func(code int)

	handlers    map[string]handlerFunc
	passThrough map[string]bool

	// state is only touched from the dispatch goroutine.
	state sessionState

	// closing is set once teardown begins so background goroutines stop
	// emitting events to the host.
	closing atomic.Bool

	mu       sync.Mutex
	child    *exec.Cmd
	debuggee *debuggee.Transport
	channel  *player.Channel

	outputBuf     player.OutputBuffer
	scanErrorLine player.LineScanner
}

// NewSession creates a session over an established host transport.
func NewSession(host *HostTransport, settings *config.Settings, log logr.Logger) *Session {
	s := &Session{
		id:            uuid.New().String(),
		host:          host,
		settings:      settings,
		exit:          os.Exit,
		scanErrorLine: player.ScanErrorLine,
	}
	s.log = log.WithValues("session", s.id)

	s.handlers = map[string]handlerFunc{
		"initialize": s.onInitialize,
		"launch":     s.onLaunch,
		"attach":     s.onAttach,
		"disconnect": s.onDisconnect,
		"source":     s.onSource,
	}
	s.passThrough = map[string]bool{
		"next":              true,
		"stepIn":            true,
		"stepOut":           true,
		"continue":          true,
		"pause":             true,
		"stackTrace":        true,
		"scopes":            true,
		"variables":         true,
		"threads":           true,
		"setBreakpoints":    true,
		"configurationDone": true,
		"evaluate":          true,
	}

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Run reads host messages until the connection closes or the session is
// disconnected. It owns the session's full lifecycle including teardown.
func (s *Session) Run() {
	defer s.cleanup()
	s.log.Info("session started")

	for {
		raw, err := s.host.ReadRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Info("host connection closed")
			} else {
				// A decode failure closes only this connection.
				s.log.Error(err, "host read failed, closing session")
			}
			return
		}

		env := protocol.ParseEnvelope(raw)
		s.log.V(1).Info("host message",
			"type", env.Type, "command", env.Command, "seq", env.Seq)

		s.dispatch(env)

		if s.state == stateTerminated {
			return
		}
	}
}

// dispatch routes one host message. It is the single fault boundary: a panic
// escaping any handler is reported as error 1104 and then terminates the
// entire adapter process, deliberately harsher than every per-connection
// failure path.
func (s *Session) dispatch(env protocol.Envelope) {
	defer func() {
		if cause := recover(); cause != nil {
			info := protocol.InternalException(env.Command, fmt.Sprint(cause))
			s.send(protocol.NewErrorResponse(s.host.NextSeq(), env, info))
			s.log.Error(fmt.Errorf("%v", cause),
				"unhandled fault in request handler, terminating adapter",
				"command", env.Command)
			s.state = stateTerminated
			s.exit(1)
		}
	}()

	if handler, ok := s.handlers[env.Command]; ok {
		handler(env)
		return
	}

	if s.passThrough[env.Command] {
		s.forward(env)
		return
	}

	s.send(protocol.NewErrorResponse(s.host.NextSeq(), env, protocol.UnrecognizedRequest(env.Command)))
}

// onInitialize returns the fixed capability set regardless of the request's
// arguments.
func (s *Session) onInitialize(env protocol.Envelope) {
	s.send(protocol.NewInitializeResponse(s.host.NextSeq(), env))
}

// onSource is deliberately unsupported: the debuggee owns all sources.
func (s *Session) onSource(env protocol.Envelope) {
	s.send(protocol.NewErrorResponse(s.host.NextSeq(), env, protocol.UnsupportedCommand(env.Command)))
}

// forward relays a pass-through command to the debuggee verbatim, original
// request text included. The debuggee answers asynchronously through the
// relay path; no local response is synthesized.
func (s *Session) forward(env protocol.Envelope) {
	s.mu.Lock()
	dbg := s.debuggee
	s.mu.Unlock()

	if dbg == nil {
		s.log.V(1).Info("dropping command, no debuggee connected", "command", env.Command)
		return
	}

	if err := dbg.Send(env.Raw); err != nil {
		s.log.Error(err, "failed to forward command to debuggee", "command", env.Command)
	}
}

// relayToHost forwards one debuggee message to the host unchanged.
func (s *Session) relayToHost(raw []byte) {
	if s.log.V(2).Enabled() {
		s.log.V(2).Info("debuggee message",
			"type", gjson.GetBytes(raw, "type").String(),
			"command", gjson.GetBytes(raw, "command").String(),
			"event", gjson.GetBytes(raw, "event").String())
	}
	if err := s.host.WriteRaw(raw); err != nil {
		s.log.Error(err, "failed to relay debuggee message to host")
	}
}

// onDebuggeeClosed fires when the debuggee connection drops. Outside of an
// orderly disconnect the host is told the session is over.
func (s *Session) onDebuggeeClosed(err error) {
	if s.closing.Load() {
		return
	}
	if err != nil && !errors.Is(err, io.EOF) {
		s.log.Error(err, "debuggee connection lost")
	} else {
		s.log.Info("debuggee connection closed")
	}
	s.send(protocol.NewTerminatedEvent(s.host.NextSeq()))
}

// onDisconnect terminates a locally spawned child if one exists (already
// exited is the normal outcome, so failures are swallowed), replies success,
// and stops the host transport for this connection. With no child it is a
// no-op that still replies success.
func (s *Session) onDisconnect(env protocol.Envelope) {
	s.closing.Store(true)

	s.mu.Lock()
	child := s.child
	s.child = nil
	s.mu.Unlock()

	if child != nil && child.Process != nil {
		if err := child.Process.Kill(); err != nil {
			s.log.V(1).Info("child termination failed", "error", err.Error())
		}
	}

	s.send(protocol.NewAckResponse(s.host.NextSeq(), env))
	s.state = stateTerminated
}

// send writes one adapter-originated message to the host, logging failures.
func (s *Session) send(msg dap.Message) {
	if s.log.V(2).Enabled() {
		s.log.V(2).Info("adapter message", "message", fmt.Sprintf("%T", msg))
	}
	if err := s.host.Write(msg); err != nil {
		s.log.Error(err, "failed to write to host")
	}
}

// cleanup tears the session down exactly once, after Run returns.
func (s *Session) cleanup() {
	s.closing.Store(true)
	s.state = stateTerminated

	s.mu.Lock()
	dbg := s.debuggee
	ch := s.channel
	s.debuggee = nil
	s.channel = nil
	s.mu.Unlock()

	if dbg != nil {
		_ = dbg.Close()
	}
	if ch != nil {
		_ = ch.Close()
	}
	_ = s.host.Close()

	s.log.Info("session ended")
}
