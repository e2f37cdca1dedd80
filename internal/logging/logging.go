// Package logging builds the process-wide logr.Logger used by every component.
//
// All diagnostic output goes to stderr: in stdio mode stdout carries the host
// protocol and must never receive log lines. Protocol traces are emitted at
// V(1) (host requests) and V(2) (responses and relayed debuggee traffic), so
// the --trace flags map directly onto logger verbosity.
package logging

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger writing human-readable lines to stderr.
// verbosity enables logr V levels up to and including the given value.
func New(verbosity int) logr.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// zapr maps logr V(n) onto zap level -n.
	level := zapcore.Level(-verbosity) //nolint:gosec // verbosity is a small flag value
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(level),
	)

	return zapr.NewLogger(zap.New(core))
}
