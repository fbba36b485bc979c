// Package hostclient is the host side of the command link. It attaches to
// the device, receives the credential snapshot and sends commands.
package hostclient

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/ericfisherdev/wpass/internal/domain/model"
	"github.com/ericfisherdev/wpass/internal/protocol"
)

// Client is an attached host session.
type Client struct {
	conn     net.Conn
	snapshot []model.Credential
}

// Dial attaches to the device at addr and waits for the credential snapshot.
// The device only answers once it is unlocked, so ctx bounds the wait.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("waiting for credential list (is the device unlocked?): %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	snapshot, err := protocol.DecodeSnapshot(line)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Client{conn: conn, snapshot: snapshot}, nil
}

// Credentials returns the list the device sent when the session started.
func (c *Client) Credentials() []model.Credential {
	return append([]model.Credential(nil), c.snapshot...)
}

// Send writes each command as one line.
func (c *Client) Send(cmds ...model.Command) error {
	for _, cmd := range cmds {
		data, err := protocol.Encode(cmd)
		if err != nil {
			return err
		}
		if _, err := c.conn.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("send %s: %w", cmd.Kind(), err)
		}
	}
	return nil
}

// Close ends the session.
func (c *Client) Close() error {
	return c.conn.Close()
}
