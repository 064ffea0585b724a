package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/textrouter/internal/utils"
)

// Client is a connected participant as seen by the core layer.
// Identity is the pointer: two sessions that reuse a nickname are two clients.
type Client struct {
	ID          string
	Name        string
	Peer        string
	ConnectedAt time.Time

	conn     Conn
	outbox   chan string
	done     chan struct{}
	mu       sync.Mutex
	closed   bool
	departed atomic.Bool
	dropped  atomic.Int64
}

// NewClient wraps conn with an outbox holding up to queueSize pending lines.
func NewClient(conn Conn, name string, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Client{
		ID:          utils.NewID(),
		Name:        name,
		Peer:        conn.Peer(),
		ConnectedAt: time.Now(),
		conn:        conn,
		outbox:      make(chan string, queueSize),
		done:        make(chan struct{}),
	}
}

// Deliver queues text for the client without blocking.
// It reports false when the outbox is full or already closed.
func (c *Client) Deliver(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.outbox <- text:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// Departed reports whether the client's session has started teardown.
func (c *Client) Departed() bool {
	return c.departed.Load()
}

// Dropped returns how many lines were discarded because the outbox was full.
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

// writeLoop drains the outbox onto the connection. A failed send closes the
// connection so the owning session tears down; remaining lines are discarded.
func (c *Client) writeLoop(writeTimeout time.Duration, logger *zerolog.Logger) {
	defer close(c.done)

	for text := range c.outbox {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.conn.Send(ctx, text)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Str("client_id", c.ID).Str("nick", c.Name).Msg("send failed, closing connection")
			_ = c.conn.Close()
			for range c.outbox {
			}
			return
		}
	}
}

// closeOutbox stops accepting deliveries and waits up to flush for queued
// lines to be written.
func (c *Client) closeOutbox(flush time.Duration) {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.outbox)
	}
	c.mu.Unlock()

	timer := time.NewTimer(flush)
	defer timer.Stop()
	select {
	case <-c.done:
	case <-timer.C:
	}
}
