package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gideros/debug-adapter/internal/protocol"
)

// LaunchArguments is the decoded argument payload of a launch or attach
// request. All fields are optional on the wire; absent fields keep their
// zero values and defaults are applied by the accessors below.
type LaunchArguments struct {
	// Executable and Arguments describe a direct debuggee launch.
	Executable string   `json:"executable"`
	Arguments  []string `json:"arguments"`

	// WorkingDirectory is the debuggee working directory; Cwd is the
	// older spelling accepted for compatibility.
	WorkingDirectory string `json:"workingDirectory"`
	Cwd              string `json:"cwd"`

	// GprojPath and GiderosPath describe a project-file launch through the
	// external player. GiderosPath points at the player application to spawn
	// when it is not already running.
	GprojPath   string `json:"gprojPath"`
	GiderosPath string `json:"giderosPath"`

	// ListenPublicly binds the debuggee listener on all interfaces instead
	// of loopback. ListenPort overrides the default listener port.
	ListenPublicly bool `json:"listenPublicly"`
	ListenPort     int  `json:"listenPort"`

	// Encoding selects the debuggee channel text encoding: a numeric
	// codepage, an IANA encoding name, or absent for UTF-8.
	Encoding json.RawMessage `json:"encoding"`
}

// ParseLaunchArguments decodes the arguments object of a launch/attach request.
func ParseLaunchArguments(raw []byte) (*LaunchArguments, error) {
	args := &LaunchArguments{}
	if len(raw) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(raw, args); err != nil {
		return nil, fmt.Errorf("malformed launch arguments: %w", err)
	}
	return args, nil
}

// ResolvedWorkingDirectory returns workingDirectory, falling back to cwd.
func (a *LaunchArguments) ResolvedWorkingDirectory() string {
	if a.WorkingDirectory != "" {
		return a.WorkingDirectory
	}
	return a.Cwd
}

// ResolvedListenPort returns the debuggee listener port, falling back to the
// configured default.
func (a *LaunchArguments) ResolvedListenPort(settings *Settings) int {
	if a.ListenPort > 0 {
		return a.ListenPort
	}
	return settings.DebuggeePort
}

// IsProjectLaunch reports whether the request asks for a project-file launch
// through the external player rather than a direct executable spawn.
func (a *LaunchArguments) IsProjectLaunch() bool {
	return a.Executable == "" && a.GprojPath != ""
}

// ValidateWorkingDirectory checks the working directory: it must be present
// and exist on disk. Returns nil when valid.
func (a *LaunchArguments) ValidateWorkingDirectory() *protocol.ErrorInfo {
	dir := a.ResolvedWorkingDirectory()
	if strings.TrimSpace(dir) == "" {
		return protocol.WorkingDirEmpty()
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return protocol.WorkingDirMissing(dir)
	}
	return nil
}

// ValidateExecutable checks the executable for a direct launch: it must be
// present and exist on disk. Returns nil when valid.
func (a *LaunchArguments) ValidateExecutable() *protocol.ErrorInfo {
	if strings.TrimSpace(a.Executable) == "" {
		return protocol.ExecutableEmpty()
	}
	if _, err := os.Stat(a.Executable); err != nil {
		return protocol.ExecutableMissing(a.Executable)
	}
	return nil
}
