package core

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeConn is an in-memory Conn. Lines pushed to in are received by the
// session; lines the session sends land on out.
type fakeConn struct {
	peer  string
	in    chan string
	out   chan string
	stall atomic.Bool

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn(peer string) *fakeConn {
	return &fakeConn{
		peer:   peer,
		in:     make(chan string, 16),
		out:    make(chan string, 256),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) Peer() string { return f.peer }

func (f *fakeConn) Receive(ctx context.Context) (string, error) {
	select {
	case line := <-f.in:
		return line, nil
	case <-f.closed:
		return "", io.EOF
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Send blocks until ctx expires while the conn is stalled.
func (f *fakeConn) Send(ctx context.Context, text string) error {
	if f.stall.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.closed:
			return net.ErrClosed
		}
	}
	select {
	case f.out <- text:
		return nil
	case <-f.closed:
		return net.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeConn) send(line string) {
	f.in <- line
}

func expect(t *testing.T, f *fakeConn, want string) {
	t.Helper()

	select {
	case got := <-f.out:
		if got != want {
			t.Fatalf("%s: expected %q, got %q", f.peer, want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("%s: expected %q, got nothing", f.peer, want)
	}
}

func expectSilence(t *testing.T, f *fakeConn) {
	t.Helper()

	select {
	case got := <-f.out:
		t.Fatalf("%s: expected nothing, got %q", f.peer, got)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newTestHub(t *testing.T, opts Options, recorder SessionRecorder) *Hub {
	t.Helper()

	disabledLogger := zerolog.New(nil)
	hub := NewHub(opts, recorder, &disabledLogger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
	})
	return hub
}

// serve starts a session for a new fake connection and sends nickname.
func serve(t *testing.T, hub *Hub, nickname string) (*fakeConn, <-chan struct{}) {
	t.Helper()

	conn := newFakeConn(nickname)
	done := make(chan struct{})
	go func() {
		hub.Serve(context.Background(), conn)
		close(done)
	}()
	conn.send(nickname)
	return conn, done
}

// connectAll starts sessions one at a time; each newcomer is confirmed by
// every earlier client seeing its join notice.
func connectAll(t *testing.T, hub *Hub, nicknames ...string) []*fakeConn {
	t.Helper()

	conns := make([]*fakeConn, 0, len(nicknames))
	for _, nick := range nicknames {
		conn, _ := serve(t, hub, nick)
		if len(conns) == 0 {
			waitFor(t, func() bool {
				_, ok := hub.Clients().Lookup(nick)
				return ok
			})
		}
		for _, earlier := range conns {
			expect(t, earlier, nick+" has joined the chat.")
		}
		conns = append(conns, conn)
	}
	return conns
}

// newQueuedClient builds a client whose outbox is read directly by tests.
func newQueuedClient(name string, queueSize int) *Client {
	return NewClient(newFakeConn(name), name, queueSize)
}

// drain returns every line currently queued for c.
func drain(c *Client) []string {
	var lines []string
	for {
		select {
		case line := <-c.outbox:
			lines = append(lines, line)
		default:
			return lines
		}
	}
}
