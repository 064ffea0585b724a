package tcp

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/textrouter/internal/config"
	"github.com/vovakirdan/textrouter/internal/core"
)

type testClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func startTestServer(t *testing.T) (*Server, *core.Hub) {
	t.Helper()

	disabledLogger := zerolog.New(nil)
	hub := core.NewHub(core.DefaultOptions(), nil, &disabledLogger)

	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	srv := NewServer(hub, &cfg, &disabledLogger)
	if err := srv.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		if err := <-served; err != nil {
			t.Errorf("serve returned error: %v", err)
		}
		shutdownCtx, done := context.WithTimeout(context.Background(), 3*time.Second)
		defer done()
		_ = hub.Shutdown(shutdownCtx)
	})
	return srv, hub
}

func dial(t *testing.T, srv *Server, nickname string) *testClient {
	t.Helper()

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	c := &testClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
	c.send(nickname)
	return c
}

// connectAll dials clients one at a time. Each newcomer is confirmed by every
// earlier client seeing its join notice, so no client observes a join that
// happened before its own registration.
func connectAll(t *testing.T, srv *Server, hub *core.Hub, nicknames ...string) []*testClient {
	t.Helper()

	clients := make([]*testClient, 0, len(nicknames))
	for _, nick := range nicknames {
		c := dial(t, srv, nick)
		if len(clients) == 0 {
			waitFor(t, func() bool {
				_, ok := hub.Clients().Lookup(nick)
				return ok
			})
		}
		for _, prev := range clients {
			prev.expect(nick + " has joined the chat.")
		}
		clients = append(clients, c)
	}
	return clients
}

func (c *testClient) send(line string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		c.t.Fatalf("write %q: %v", line, err)
	}
}

// expect reads lines until want arrives and returns the lines skipped.
func (c *testClient) expect(want string) []string {
	c.t.Helper()

	var skipped []string
	deadline := time.Now().Add(2 * time.Second)
	for {
		_ = c.conn.SetReadDeadline(deadline)
		line, err := c.reader.ReadString('\n')
		if err != nil {
			c.t.Fatalf("expected %q, read failed after %v: %v", want, skipped, err)
		}
		line = strings.TrimSuffix(line, "\n")
		if line == want {
			return skipped
		}
		skipped = append(skipped, line)
	}
}

func (c *testClient) expectSilence() {
	c.t.Helper()

	_ = c.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	line, err := c.reader.ReadString('\n')
	if err == nil {
		c.t.Fatalf("expected no message, got %q", line)
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		c.t.Fatalf("expected read timeout, got %v", err)
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

func TestEndToEndRouting(t *testing.T) {
	srv, hub := startTestServer(t)

	clients := connectAll(t, srv, hub, "A", "B", "C")
	a, b, c := clients[0], clients[1], clients[2]

	a.send("/create lobby")
	a.expect("Channel 'lobby' created successfully.")
	b.send("/join lobby")
	b.expect("Joined channel 'lobby' successfully.")

	a.send("hello")
	b.expect("A: hello")

	c.send("hi")
	a.expect("C: hi")
	b.expect("C: hi")

	a.send("/private B secret stuff")
	b.expect("(Private) A: secret stuff")

	a.expectSilence()
	c.expectSilence()
}

func TestDisconnectAnnouncesDeparture(t *testing.T) {
	srv, hub := startTestServer(t)

	clients := connectAll(t, srv, hub, "A", "B", "C")
	a, b, c := clients[0], clients[1], clients[2]

	c.send("/create den")
	c.expect("Channel 'den' created successfully.")
	c.conn.Close()

	a.expect("C has left the chat.")
	b.expect("C has left the chat.")
	a.expectSilence()
	b.expectSilence()

	waitFor(t, func() bool {
		_, ok := hub.Clients().Lookup("C")
		return !ok
	})
	members, err := hub.Channels().MembersOf("den")
	if err != nil {
		t.Fatalf("channel should survive its last member: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("departed client still listed in roster: %d members", len(members))
	}
}

func TestShutdownClosesClients(t *testing.T) {
	srv, hub := startTestServer(t)
	a := connectAll(t, srv, hub, "A")[0]

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := hub.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	_ = a.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := a.reader.ReadString('\n'); err == nil {
		t.Fatal("expected connection to be closed after shutdown")
	}
	if hub.Clients().Len() != 0 {
		t.Fatalf("expected empty registry, got %d", hub.Clients().Len())
	}
}
