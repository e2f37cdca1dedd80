package adapter

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/gideros/debug-adapter/internal/config"
	"github.com/gideros/debug-adapter/internal/debuggee"
	"github.com/gideros/debug-adapter/internal/player"
	"github.com/gideros/debug-adapter/internal/protocol"
)

func (s *Session) onLaunch(env protocol.Envelope) {
	args, err := config.ParseLaunchArguments(argumentsOf(env))
	if err != nil {
		s.sendError(env, protocol.LaunchFailed(err.Error()))
		return
	}
	s.startDebugging(env, args, true)
}

// onAttach runs the same connection sequence as launch, minus any spawning.
func (s *Session) onAttach(env protocol.Envelope) {
	args, err := config.ParseLaunchArguments(argumentsOf(env))
	if err != nil {
		s.sendError(env, protocol.LaunchFailed(err.Error()))
		return
	}
	s.startDebugging(env, args, false)
}

func argumentsOf(env protocol.Envelope) []byte {
	return []byte(gjson.GetBytes(env.Raw, "arguments").Raw)
}

// startDebugging drives the connection state machine shared by launch and
// attach:
//
//	LAUNCH_START -> LISTENING -> {SPAWNING | CONNECTING} -> AWAITING_DEBUGGEE -> CONNECTED
//
// The debuggee listener is opened before anything is validated or spawned so
// the debuggee cannot attempt to connect before a listener exists. On the
// validation and spawn error paths below the listener stays open; the
// debuggee will never connect to it, but the bound port remains observable.
func (s *Session) startDebugging(env protocol.Envelope, args *config.LaunchArguments, spawn bool) {
	listener, err := debuggee.Listen(args.ResolvedListenPort(s.settings), args.ListenPublicly)
	if err != nil {
		s.sendError(env, protocol.LaunchFailed(err.Error()))
		return
	}
	s.state = stateAwaitingDebuggee
	s.log.V(1).Info("debuggee listener open", "port", listener.Port(), "state", s.state.String())

	if info := args.ValidateWorkingDirectory(); info != nil {
		s.sendError(env, info)
		return
	}
	workingDir := args.ResolvedWorkingDirectory()

	if spawn {
		if args.IsProjectLaunch() {
			if info := s.connectPlayer(args); info != nil {
				s.sendError(env, info)
				return
			}
		} else {
			if info := args.ValidateExecutable(); info != nil {
				s.sendError(env, info)
				return
			}
			if info := s.spawnChild(args, workingDir); info != nil {
				s.sendError(env, info)
				return
			}
		}
	}

	// Exactly one debuggee per session; no timeout on the accept since the
	// debuggee may only connect once the user starts the script.
	conn, err := listener.AcceptOne()
	if err != nil {
		s.sendError(env, protocol.LaunchFailed(err.Error()))
		return
	}

	enc, err := config.ResolveEncoding(args.Encoding)
	if err != nil {
		s.log.Error(err, "falling back to UTF-8 for the debuggee channel")
		enc = nil
	}

	transport := debuggee.NewTransport(conn, enc, s.log)
	if err := transport.SendWelcome(workingDir); err != nil {
		_ = transport.Close()
		s.sendError(env, protocol.LaunchFailed(err.Error()))
		return
	}

	s.mu.Lock()
	s.debuggee = transport
	s.mu.Unlock()
	transport.Start(s.relayToHost, s.onDebuggeeClosed)
	s.state = stateConnected
	s.log.Info("debuggee connected", "state", s.state.String())

	s.send(protocol.NewAckResponse(s.host.NextSeq(), env))
	s.send(protocol.NewInitializedEvent(s.host.NextSeq()))
}

// spawnChild starts the debuggee executable directly and watches for exit.
func (s *Session) spawnChild(args *config.LaunchArguments, workingDir string) *protocol.ErrorInfo {
	cmd := exec.Command(args.Executable, args.Arguments...)
	cmd.Dir = workingDir

	if err := cmd.Start(); err != nil {
		return protocol.LaunchFailed(fmt.Sprintf("failed to start '%s': %s", args.Executable, err))
	}

	s.mu.Lock()
	s.child = cmd
	s.mu.Unlock()
	s.log.Info("debuggee process started", "executable", args.Executable, "pid", cmd.Process.Pid)

	go s.watchChild(cmd)
	return nil
}

// watchChild emits a terminated event when the child exits on its own. The
// handle is cleared so a later disconnect sees no process.
func (s *Session) watchChild(cmd *exec.Cmd) {
	err := cmd.Wait()

	s.mu.Lock()
	if s.child != cmd {
		// Disconnect already claimed the handle.
		s.mu.Unlock()
		return
	}
	s.child = nil
	s.mu.Unlock()

	if s.closing.Load() {
		return
	}

	if err != nil {
		s.log.Info("debuggee process exited", "error", err.Error())
	} else {
		s.log.Info("debuggee process exited")
	}
	s.send(protocol.NewTerminatedEvent(s.host.NextSeq()))
}

// connectPlayer polls the external player's control channel within the
// configured window, spawning the player application once (best effort) if
// the first dial fails. The spawned player is not the session's child: its
// lifetime is independent and it never produces a terminated event.
func (s *Session) connectPlayer(args *config.LaunchArguments) *protocol.ErrorInfo {
	channel := player.NewChannel(s.log)
	address := net.JoinHostPort(s.settings.PlayerHost, strconv.Itoa(s.settings.PlayerPort))

	spawnOnce := func() {
		if args.GiderosPath == "" {
			return
		}
		cmd := exec.Command(args.GiderosPath)
		if err := cmd.Start(); err != nil {
			s.log.Error(err, "best-effort player spawn failed", "path", args.GiderosPath)
			return
		}
		s.log.Info("spawned player application", "path", args.GiderosPath, "pid", cmd.Process.Pid)
		go func() { _ = cmd.Wait() }()
	}

	err := channel.AttemptConnect(context.Background(), address,
		s.settings.PlayerConnectWindow(), args.GprojPath, s.onPlayerRecord, spawnOnce)
	if err != nil {
		return protocol.LaunchFailed(err.Error())
	}

	s.mu.Lock()
	s.channel = channel
	s.mu.Unlock()
	return nil
}

// onPlayerRecord handles one tagged record from the player control channel.
// Output fragments are buffered into whole lines; a line-feed fragment
// flushes the buffer as a single stdout event. A fragment matching the
// runtime's error-line prefix additionally produces a synthetic stopped
// event with reason "error". Genuine breakpoint stops are reported by the
// debuggee over its own channel and never pass through here.
func (s *Session) onPlayerRecord(rec player.Record) {
	if s.closing.Load() {
		return
	}

	switch rec.Tag {
	case player.TagInfo:
		s.log.V(1).Info("player", "message", rec.Text)

	case player.TagWarning:
		s.send(protocol.NewOutputEvent(s.host.NextSeq(), "console", rec.Text))

	case player.TagPlayerOutput:
		if line, flushed := s.outputBuf.Add(rec.Text); flushed {
			s.send(protocol.NewOutputEvent(s.host.NextSeq(), "stdout", line))
		}
		if loc, ok := s.scanErrorLine(rec.Text); ok {
			s.log.V(1).Info("player output matched error pattern", "file", loc.File, "line", loc.Line)
			s.send(protocol.NewStoppedEvent(s.host.NextSeq(), "error", rec.Text))
		}
	}
}

func (s *Session) sendError(env protocol.Envelope, info *protocol.ErrorInfo) {
	s.send(protocol.NewErrorResponse(s.host.NextSeq(), env, info))
}
