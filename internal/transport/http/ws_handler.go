package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/textrouter/internal/core"
)

// WSHandler upgrades HTTP connections and hands them to the hub as line
// streams: every text frame is one line.
type WSHandler struct {
	hub          *core.Hub
	maxLineBytes int64
	log          *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, maxLineBytes int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, maxLineBytes: int64(maxLineBytes), log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	if h.maxLineBytes > 0 {
		conn.SetReadLimit(h.maxLineBytes)
	}

	h.hub.Serve(r.Context(), &wsConn{conn: conn, peer: r.RemoteAddr})
}

// wsConn adapts a WebSocket connection to core.Conn.
type wsConn struct {
	conn *websocket.Conn
	peer string

	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) Peer() string {
	return c.peer
}

func (c *wsConn) Receive(ctx context.Context) (string, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *wsConn) Send(ctx context.Context, text string) error {
	return c.conn.Write(ctx, websocket.MessageText, []byte(text))
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		err := c.conn.Close(websocket.StatusNormalClosure, "closing")
		if err != nil && !isExpectedCloseError(err) {
			c.closeErr = err
		}
	})
	return c.closeErr
}

// isExpectedCloseError reports errors that only mean the peer went first.
func isExpectedCloseError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
