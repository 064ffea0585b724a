package tcp

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/vovakirdan/textrouter/internal/proto"
)

// lineConn frames a net.Conn as newline-delimited text. A trailing \r is
// stripped from inbound lines.
type lineConn struct {
	conn    net.Conn
	scanner *bufio.Scanner

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newLineConn(conn net.Conn, maxLineBytes int) *lineConn {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, min(maxLineBytes, 4096)), maxLineBytes)
	return &lineConn{conn: conn, scanner: scanner}
}

func (c *lineConn) Peer() string {
	return c.conn.RemoteAddr().String()
}

func (c *lineConn) Receive(ctx context.Context) (string, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if !c.scanner.Scan() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return c.scanner.Text(), nil
}

func (c *lineConn) Send(ctx context.Context, text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	buf := make([]byte, 0, len(text)+1)
	buf = append(buf, text...)
	buf = append(buf, proto.LineDelimiter)
	_, err := c.conn.Write(buf)
	return err
}

func (c *lineConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
