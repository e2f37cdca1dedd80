package player

import (
	"regexp"
	"strconv"
	"strings"
)

// OutputBuffer concatenates player-output fragments into whole lines. The
// player delivers newlines as separate fragments; the host-facing convention
// is one output event per completed line, so fragments accumulate until a
// lone line-feed fragment arrives.
type OutputBuffer struct {
	buf strings.Builder
}

// Add appends a fragment. When the fragment is a line feed the accumulated
// content is returned with flushed=true and the buffer is reset; otherwise
// the fragment is buffered.
func (b *OutputBuffer) Add(fragment string) (line string, flushed bool) {
	if fragment == "\n" {
		line = b.buf.String()
		b.buf.Reset()
		return line, true
	}
	b.buf.WriteString(fragment)
	return "", false
}

// Len returns the number of buffered bytes.
func (b *OutputBuffer) Len() int { return b.buf.Len() }

// ErrorLocation is a source position extracted from a player output line.
type ErrorLocation struct {
	File string
	Line int
}

// LineScanner inspects one player-output fragment and reports whether it
// looks like a runtime error line. It exists as a replaceable hook: the
// default implementation is a UX heuristic, not an authoritative debugger
// stop signal.
type LineScanner func(fragment string) (ErrorLocation, bool)

// errorLinePattern matches the runtime's "<file>:<line>: message" prefix.
var errorLinePattern = regexp.MustCompile(`^([^\s:]+):(\d+): `)

// ScanErrorLine is the default LineScanner.
func ScanErrorLine(fragment string) (ErrorLocation, bool) {
	match := errorLinePattern.FindStringSubmatch(fragment)
	if match == nil {
		return ErrorLocation{}, false
	}
	line, err := strconv.Atoi(match[2])
	if err != nil {
		return ErrorLocation{}, false
	}
	return ErrorLocation{File: match[1], Line: line}, true
}
