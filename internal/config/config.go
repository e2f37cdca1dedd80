// Package config holds the process-wide adapter settings and the typed
// launch/attach argument structure.
//
// Settings are resolved once at startup (defaults, optionally overridden by a
// JSON file) and are read-only afterwards; sessions share them but never
// mutate them. Launch/attach arguments arrive as loosely-typed JSON on the
// wire and are decoded and validated exactly once at the dispatch boundary.
package config

import (
	"encoding/json"
	"os"
	"time"
)

// TraceMode controls protocol trace logging.
type TraceMode string

const (
	// TraceOff disables protocol tracing.
	TraceOff TraceMode = ""
	// TraceRequests logs host requests as they are dispatched.
	TraceRequests TraceMode = "requests"
	// TraceResponses additionally logs responses, events and relayed
	// debuggee traffic.
	TraceResponses TraceMode = "response"
)

// Verbosity maps the trace mode onto logger V levels.
func (m TraceMode) Verbosity() int {
	switch m {
	case TraceRequests:
		return 1
	case TraceResponses:
		return 2
	default:
		return 0
	}
}

// Settings is the adapter-wide configuration.
type Settings struct {
	// HostPort is the port served in --server mode.
	HostPort int `json:"hostPort"`

	// DebuggeePort is the default port the debuggee connects back to when a
	// launch/attach request carries no listenPort.
	DebuggeePort int `json:"debuggeePort"`

	// PlayerHost and PlayerPort locate the external player's remote-control
	// channel used by project-file launches.
	PlayerHost string `json:"playerHost"`
	PlayerPort int    `json:"playerPort"`

	// PlayerConnectWindowSeconds bounds the total polling window when
	// connecting to (and possibly spawning) the external player.
	PlayerConnectWindowSeconds int `json:"playerConnectWindowSeconds"`

	// Trace is the protocol trace mode; normally set from the command line.
	Trace TraceMode `json:"trace"`
}

// PlayerConnectWindow returns the polling window as a duration.
func (s *Settings) PlayerConnectWindow() time.Duration {
	return time.Duration(s.PlayerConnectWindowSeconds) * time.Second
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() *Settings {
	return &Settings{
		HostPort:                   4711,
		DebuggeePort:               56789,
		PlayerHost:                 "127.0.0.1",
		PlayerPort:                 15000,
		PlayerConnectWindowSeconds: 10,
	}
}

// LoadSettings loads settings from a JSON file, falling back to defaults
// when path is empty. Fields absent from the file keep their defaults.
func LoadSettings(path string) (*Settings, error) {
	settings := DefaultSettings()

	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}
