package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/wpass/internal/domain/port/driven"
)

// DefaultMaxLineBytes bounds how much of an unterminated line is buffered
// before it is thrown away.
const DefaultMaxLineBytes = 64 * 1024

const readChunk = 512

// CommandChannel frames a byte link into newline-delimited JSON values.
// Poll handles at most one line per call so a burst of commands is spread
// over consecutive ticks in arrival order.
type CommandChannel struct {
	link         driven.Link
	logger       *slog.Logger
	maxLineBytes int

	onLine    func(ctx context.Context, raw json.RawMessage)
	onConnect func()

	attached  string
	announced bool
	pending   []byte
	chunk     [readChunk]byte

	// carry counts leading pending bytes left by a host that has detached.
	carry int
}

// NewCommandChannel wraps link. onLine receives every successfully decoded
// value; onConnect runs once each time a host attaches. Either may be nil.
func NewCommandChannel(link driven.Link, onLine func(context.Context, json.RawMessage), onConnect func(), logger *slog.Logger) *CommandChannel {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandChannel{
		link:         link,
		logger:       logger,
		maxLineBytes: DefaultMaxLineBytes,
		onLine:       onLine,
		onConnect:    onConnect,
	}
}

// SetHandlers replaces the line and connect callbacks.
func (c *CommandChannel) SetHandlers(onLine func(context.Context, json.RawMessage), onConnect func()) {
	c.onLine = onLine
	c.onConnect = onConnect
}

// SetMaxLineBytes overrides DefaultMaxLineBytes.
func (c *CommandChannel) SetMaxLineBytes(n int) {
	if n > 0 {
		c.maxLineBytes = n
	}
}

// Connected reports whether a host was attached at the last Poll.
func (c *CommandChannel) Connected() bool { return c.attached != "" }

// Poll checks for a host change, then decodes at most one buffered line and
// hands it to the line handler with ctx. It returns the decoded value and
// true when a line was accepted.
//
// Complete lines a host sent before detaching are still delivered, in order,
// on later polls; only its trailing unterminated fragment is dropped. A newly
// attached host is announced once those carried-over lines are consumed, so
// the connect handler sees their effect.
func (c *CommandChannel) Poll(ctx context.Context) (json.RawMessage, bool) {
	session := c.link.Session()
	if session != c.attached {
		if c.attached != "" {
			c.logger.Info("host disconnected", "session", c.attached)
			if session == "" {
				c.fill()
			}
			c.dropFragment()
			c.carry = len(c.pending)
		}
		c.attached = session
		c.announced = false
	}

	if c.attached != "" && !c.announced && c.carry == 0 {
		c.announced = true
		c.logger.Info("host connected", "session", c.attached)
		if c.onConnect != nil {
			c.onConnect()
		}
	}

	c.fill()

	line, ok := c.nextLine()
	if !ok {
		return nil, false
	}
	if len(line) == 0 {
		return nil, false
	}

	var raw json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		c.logger.Warn("discarding undecodable line", "bytes", len(line), "error", err)
		return nil, false
	}

	if c.onLine != nil {
		c.onLine(ctx, raw)
	}
	return raw, true
}

// WriteLine sends v as one JSON line. Writes while no host is connected are
// dropped without error.
func (c *CommandChannel) WriteLine(v any) error {
	if !c.link.Connected() {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode line: %w", err)
	}
	data = append(data, '\n')

	if _, err := c.link.Write(data); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

// fill drains whatever the link has buffered into pending.
func (c *CommandChannel) fill() {
	for c.link.Buffered() > 0 {
		n, err := c.link.Read(c.chunk[:])
		if n > 0 {
			c.pending = append(c.pending, c.chunk[:n]...)
		}
		if err != nil {
			c.logger.Warn("link read failed", "error", err)
			return
		}
		if n == 0 {
			return
		}
	}

	if len(c.pending) > c.maxLineBytes && bytes.IndexByte(c.pending, '\n') < 0 {
		c.logger.Warn("discarding oversized partial line", "bytes", len(c.pending), "limit", c.maxLineBytes)
		c.pending = c.pending[:0]
		c.carry = 0
	}
}

// dropFragment discards bytes after the last line terminator.
func (c *CommandChannel) dropFragment() {
	end := bytes.LastIndexByte(c.pending, '\n') + 1
	if n := len(c.pending) - end; n > 0 {
		c.logger.Warn("discarding unterminated input from detached host", "bytes", n)
		c.pending = c.pending[:end]
	}
}

// nextLine removes the first complete line from pending, without its
// terminator.
func (c *CommandChannel) nextLine() ([]byte, bool) {
	i := bytes.IndexByte(c.pending, '\n')
	if i < 0 {
		return nil, false
	}

	line := bytes.TrimRight(c.pending[:i], "\r")
	line = bytes.TrimSpace(line)
	out := make([]byte, len(line))
	copy(out, line)

	c.pending = append(c.pending[:0], c.pending[i+1:]...)
	c.carry = max(0, c.carry-(i+1))
	return out, true
}
