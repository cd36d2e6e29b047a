package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/websocket"
)

// ErrChannelClosed is returned by Channel methods once the underlying
// connection is closed or closing. Callers streaming audio should treat it
// as a signal to stop quietly rather than as a failure.
var ErrChannelClosed = errors.New("relay: channel closed")

// Conn is the subset of [websocket.Conn] the channel needs. It exists so
// tests can substitute an in-memory connection.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// channelState tracks the connection lifecycle.
type channelState int

const (
	channelOpen channelState = iota
	channelClosing
	channelClosed
)

// Channel wraps a websocket connection with state tracking and guarded
// writes. Once the peer disconnects or Close is called, every further send
// returns [ErrChannelClosed] instead of writing to a dead socket.
//
// Channel is safe for concurrent use.
type Channel struct {
	conn Conn

	mu    sync.Mutex
	state channelState
}

// NewChannel wraps conn in a Channel in the open state.
func NewChannel(conn Conn) *Channel {
	return &Channel{conn: conn}
}

// Receive reads the next frame from the peer. A read error marks the
// channel closed and is returned wrapped in [ErrChannelClosed].
func (c *Channel) Receive(ctx context.Context) (websocket.MessageType, []byte, error) {
	if c.Closed() {
		return 0, nil, ErrChannelClosed
	}
	typ, data, err := c.conn.Read(ctx)
	if err != nil {
		c.markClosed()
		return 0, nil, fmt.Errorf("%w: %w", ErrChannelClosed, err)
	}
	return typ, data, nil
}

// Send marshals msg as JSON and writes it as a text frame.
func (c *Channel) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("relay: marshal message: %w", err)
	}
	return c.write(ctx, websocket.MessageText, data)
}

// SendBinary writes data as a binary frame.
func (c *Channel) SendBinary(ctx context.Context, data []byte) error {
	return c.write(ctx, websocket.MessageBinary, data)
}

// write performs a state-guarded write. A write failure marks the channel
// closed so subsequent sends fail fast.
func (c *Channel) write(ctx context.Context, typ websocket.MessageType, data []byte) error {
	c.mu.Lock()
	if c.state != channelOpen {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	c.mu.Unlock()

	if err := c.conn.Write(ctx, typ, data); err != nil {
		c.markClosed()
		return fmt.Errorf("%w: %w", ErrChannelClosed, err)
	}
	return nil
}

// Close performs the websocket close handshake. It is idempotent; only the
// first call reaches the underlying connection.
func (c *Channel) Close(code websocket.StatusCode, reason string) error {
	c.mu.Lock()
	if c.state == channelClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = channelClosing
	c.mu.Unlock()

	err := c.conn.Close(code, reason)
	c.markClosed()
	if err != nil {
		return fmt.Errorf("relay: close channel: %w", err)
	}
	return nil
}

// Closed reports whether the channel can no longer be used for sends.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != channelOpen
}

func (c *Channel) markClosed() {
	c.mu.Lock()
	c.state = channelClosed
	c.mu.Unlock()
}
