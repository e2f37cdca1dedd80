package debuggee

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/text/encoding"
)

// Transport is the connection to the debuggee. The wire format is one JSON
// message per line over raw TCP; all traffic beyond the welcome handshake is
// opaque JSON owned by the runtime and relayed without reinterpretation.
type Transport struct {
	conn    net.Conn
	reader  *bufio.Reader
	enc     encoding.Encoding // nil means UTF-8, no transcoding
	log     logr.Logger
	writeMu sync.Mutex

	closeOnce sync.Once
}

// NewTransport wraps an accepted debuggee connection. enc is the resolved
// channel text encoding; nil selects UTF-8 pass-through.
func NewTransport(conn net.Conn, enc encoding.Encoding, log logr.Logger) *Transport {
	return &Transport{
		conn:   conn,
		reader: bufio.NewReader(conn),
		enc:    enc,
		log:    log,
	}
}

// welcomeMessage is the synthetic handshake sent right after the debuggee
// connects, before its receive loop starts.
type welcomeMessage struct {
	Command        string `json:"command"`
	SourceBasePath string `json:"sourceBasePath"`
}

// SendWelcome sends the handshake carrying the session's source base path.
func (t *Transport) SendWelcome(sourceBasePath string) error {
	raw, err := json.Marshal(welcomeMessage{Command: "welcome", SourceBasePath: sourceBasePath})
	if err != nil {
		return fmt.Errorf("failed to encode welcome message: %w", err)
	}
	return t.Send(raw)
}

// Send writes one JSON message to the debuggee. The payload is compacted
// first: host frames may legally contain embedded newlines, but the debuggee
// wire is line-delimited.
func (t *Transport) Send(raw []byte) error {
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return fmt.Errorf("refusing to forward malformed JSON to debuggee: %w", err)
	}
	compact.WriteByte('\n')

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.conn.Write(compact.Bytes()); err != nil {
		return fmt.Errorf("failed to write to debuggee: %w", err)
	}
	return nil
}

// Start launches the background receive loop. Each complete inbound message
// is decoded to UTF-8 and handed to relay verbatim; onClose fires once when
// the loop ends, with the terminating error (nil-wrapped EOF included).
func (t *Transport) Start(relay func(raw []byte), onClose func(err error)) {
	go func() {
		for {
			line, err := t.reader.ReadBytes('\n')
			if err != nil {
				onClose(err)
				return
			}

			line = bytes.TrimRight(line, "\r\n")
			if len(line) == 0 {
				continue
			}

			decoded, decodeErr := t.decode(line)
			if decodeErr != nil {
				t.log.Error(decodeErr, "dropping undecodable debuggee message")
				continue
			}

			relay(decoded)
		}
	}()
}

// decode transcodes one line from the channel encoding to UTF-8.
func (t *Transport) decode(line []byte) ([]byte, error) {
	if t.enc == nil {
		return line, nil
	}
	decoded, err := t.enc.NewDecoder().Bytes(line)
	if err != nil {
		return nil, fmt.Errorf("failed to decode debuggee message: %w", err)
	}
	return decoded, nil
}

// Close tears the connection down; the receive loop ends with an error.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		err = t.conn.Close()
	})
	return err
}
