// Package protocol implements the host-facing side of the debug-adapter wire:
// the raw-frame envelope used for pass-through dispatch, builders for the
// typed responses and events the adapter originates itself, and the fixed
// error catalog.
//
// Error ids and formats are part of the adapter's contract with the IDE and
// must not change. Formats carry named {placeholder} variables; the rendered
// text is sent as the response message while the structured id, format and
// variables travel in the error body for programmatic consumers.
package protocol

import (
	"strings"

	"github.com/google/go-dap"
)

// Catalog of wire-visible error ids.
const (
	ErrIDUnrecognizedRequest = 1014
	ErrIDUnsupportedCommand  = 1020
	ErrIDInternalException   = 1104
	ErrIDWorkingDirEmpty     = 3003
	ErrIDWorkingDirMissing   = 3004
	ErrIDExecutableEmpty     = 3005
	ErrIDExecutableMissing   = 3006
	ErrIDLaunchFailed        = 3012
)

// ErrorInfo is one catalog entry bound to concrete variables.
type ErrorInfo struct {
	ID            int
	Format        string
	Variables     map[string]string
	ShowUser      bool
	SendTelemetry bool
}

// Render substitutes the named variables into the format template.
func (e *ErrorInfo) Render() string {
	msg := e.Format
	for name, value := range e.Variables {
		msg = strings.ReplaceAll(msg, "{"+name+"}", value)
	}
	return msg
}

// DAPMessage converts the entry into the structured error body carried on the wire.
func (e *ErrorInfo) DAPMessage() *dap.ErrorMessage {
	return &dap.ErrorMessage{
		Id:            e.ID,
		Format:        e.Format,
		Variables:     e.Variables,
		ShowUser:      e.ShowUser,
		SendTelemetry: e.SendTelemetry,
	}
}

// UnrecognizedRequest reports a command the dispatch table does not know.
func UnrecognizedRequest(command string) *ErrorInfo {
	return &ErrorInfo{
		ID:        ErrIDUnrecognizedRequest,
		Format:    "unrecognized request: '{_request}'",
		Variables: map[string]string{"_request": command},
		ShowUser:  true,
	}
}

// UnsupportedCommand reports a known command the adapter deliberately does not implement.
func UnsupportedCommand(command string) *ErrorInfo {
	return &ErrorInfo{
		ID:        ErrIDUnsupportedCommand,
		Format:    "command not supported: '{_command}'",
		Variables: map[string]string{"_command": command},
		ShowUser:  true,
	}
}

// InternalException reports a fault that escaped a request handler. The
// adapter terminates the whole process after sending this response.
func InternalException(command string, cause string) *ErrorInfo {
	return &ErrorInfo{
		ID:     ErrIDInternalException,
		Format: "error while processing request '{_request}' (exception: {_exception})",
		Variables: map[string]string{
			"_request":   command,
			"_exception": cause,
		},
		ShowUser:      true,
		SendTelemetry: true,
	}
}

// WorkingDirEmpty reports a launch/attach request with no working directory.
func WorkingDirEmpty() *ErrorInfo {
	return &ErrorInfo{
		ID:       ErrIDWorkingDirEmpty,
		Format:   "property 'cwd' is empty",
		ShowUser: true,
	}
}

// WorkingDirMissing reports a working directory that does not exist on disk.
func WorkingDirMissing(path string) *ErrorInfo {
	return &ErrorInfo{
		ID:        ErrIDWorkingDirMissing,
		Format:    "working directory '{path}' does not exist",
		Variables: map[string]string{"path": path},
		ShowUser:  true,
	}
}

// ExecutableEmpty reports a launch request with no executable.
func ExecutableEmpty() *ErrorInfo {
	return &ErrorInfo{
		ID:       ErrIDExecutableEmpty,
		Format:   "property 'executable' is empty",
		ShowUser: true,
	}
}

// ExecutableMissing reports an executable path that does not exist on disk.
func ExecutableMissing(path string) *ErrorInfo {
	return &ErrorInfo{
		ID:        ErrIDExecutableMissing,
		Format:    "executable '{path}' does not exist",
		Variables: map[string]string{"path": path},
		ShowUser:  true,
	}
}

// LaunchFailed reports any failure to spawn or reach the debuggee.
func LaunchFailed(reason string) *ErrorInfo {
	return &ErrorInfo{
		ID:        ErrIDLaunchFailed,
		Format:    "cannot launch debuggee ({reason})",
		Variables: map[string]string{"reason": reason},
		ShowUser:  true,
	}
}
