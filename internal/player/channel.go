// Package player implements the auxiliary remote-control channel to the
// external player application, used only for project-file launches. The
// channel polls the player's fixed control port with bounded retries, asks it
// to play the project, and then streams tagged log records back to a sink.
package player

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-logr/logr"
)

// Record tags on the control channel.
const (
	TagInfo byte = iota
	TagPlayerOutput
	TagWarning
)

// Commands sent to the player.
const (
	cmdStop byte = iota
	cmdPlay
)

// maxRecordSize bounds one control-channel record (1 MiB).
const maxRecordSize = 1 << 20

// Record is one tagged log record received from the player.
type Record struct {
	Tag  byte
	Text string
}

// Sink receives records from the channel's read loop. It is invoked from a
// single background goroutine.
type Sink func(Record)

// Channel is the remote-control connection to the player. Records are
// length-prefixed: 4-byte little-endian length, one tag byte, UTF-8 payload.
type Channel struct {
	log logr.Logger

	mu      sync.Mutex
	conn    net.Conn
	started bool
}

// NewChannel creates an unconnected channel.
func NewChannel(log logr.Logger) *Channel {
	return &Channel{log: log}
}

// AttemptConnect polls the player's control port until it connects or the
// window elapses. onUnavailable is invoked once, after the first failed dial,
// so the caller can spawn the player application best-effort while polling
// continues. On success the channel asks the player to play projectPath and
// starts the background read loop feeding sink.
func (c *Channel) AttemptConnect(ctx context.Context, address string, window time.Duration, projectPath string, sink Sink, onUnavailable func()) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = time.Second
	policy.MaxElapsedTime = window

	dialer := &net.Dialer{Timeout: time.Second}
	notified := false

	dial := func() error {
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			if !notified && onUnavailable != nil {
				notified = true
				onUnavailable()
			}
			return err
		}
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		return nil
	}

	if err := backoff.Retry(dial, backoff.WithContext(policy, ctx)); err != nil {
		return fmt.Errorf("player not reachable at %s within %s: %w", address, window, err)
	}

	c.log.V(1).Info("connected to player control channel", "address", address)

	if err := c.send(cmdPlay, []byte(projectPath)); err != nil {
		c.Close()
		return fmt.Errorf("failed to start project playback: %w", err)
	}

	c.mu.Lock()
	c.started = true
	conn := c.conn
	c.mu.Unlock()
	go c.readLoop(conn, sink)

	return nil
}

// send writes one command record to the player.
func (c *Channel) send(command byte, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("player channel is not connected")
	}

	frame := make([]byte, 4+1+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(1+len(payload))) //nolint:gosec // bounded payload
	frame[4] = command
	copy(frame[5:], payload)

	_, err := c.conn.Write(frame)
	return err
}

// readLoop reads tagged records until the connection drops.
func (c *Channel) readLoop(conn net.Conn, sink Sink) {
	reader := conn
	for {
		var lengthBuf [4]byte
		if _, err := io.ReadFull(reader, lengthBuf[:]); err != nil {
			c.logReadEnd(err)
			return
		}
		length := binary.LittleEndian.Uint32(lengthBuf[:])
		if length == 0 || length > maxRecordSize {
			c.log.Error(fmt.Errorf("record length %d out of range", length), "closing player channel")
			c.Close()
			return
		}

		body := make([]byte, length)
		if _, err := io.ReadFull(reader, body); err != nil {
			c.logReadEnd(err)
			return
		}

		tag := body[0]
		switch tag {
		case TagInfo, TagPlayerOutput, TagWarning:
			sink(Record{Tag: tag, Text: string(body[1:])})
		default:
			c.log.V(1).Info("ignoring unknown player record", "tag", tag)
		}
	}
}

func (c *Channel) logReadEnd(err error) {
	if err == io.EOF {
		c.log.V(1).Info("player control channel closed")
	} else {
		c.log.V(1).Info("player control channel read ended", "error", err.Error())
	}
}

// Close tears the control connection down.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
