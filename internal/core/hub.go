package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/textrouter/internal/proto"
	"github.com/vovakirdan/textrouter/internal/store"
)

// Options tunes session behaviour.
type Options struct {
	// SendQueueSize bounds each client's outbox.
	SendQueueSize int
	// WriteTimeout bounds a single send to one destination.
	WriteTimeout time.Duration
	// ExitEndsSession makes a successful /exit terminate the session.
	ExitEndsSession bool
}

// DefaultOptions returns the options used when fields are left zero.
func DefaultOptions() Options {
	return Options{
		SendQueueSize: 64,
		WriteTimeout:  5 * time.Second,
	}
}

const recordTimeout = 2 * time.Second

// Hub owns the client and channel registries and runs one session per
// connection handed to Serve.
type Hub struct {
	clients  *ClientRegistry
	channels *ChannelRegistry
	router   *Router
	recorder SessionRecorder
	opts     Options
	log      *zerolog.Logger

	mu       sync.Mutex
	sessions map[Conn]struct{}
	closing  bool
	wg       sync.WaitGroup
}

// NewHub creates a hub. recorder and logger may be nil.
func NewHub(opts Options, recorder SessionRecorder, logger *zerolog.Logger) *Hub {
	defaults := DefaultOptions()
	if opts.SendQueueSize <= 0 {
		opts.SendQueueSize = defaults.SendQueueSize
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaults.WriteTimeout
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	clients := NewClientRegistry()
	channels := NewChannelRegistry()
	return &Hub{
		clients:  clients,
		channels: channels,
		router:   NewRouter(clients, channels, opts.ExitEndsSession, logger),
		recorder: recorder,
		opts:     opts,
		log:      logger,
		sessions: make(map[Conn]struct{}),
	}
}

// Clients exposes the client registry for read-only reporting.
func (h *Hub) Clients() *ClientRegistry { return h.clients }

// Channels exposes the channel registry for read-only reporting.
func (h *Hub) Channels() *ChannelRegistry { return h.channels }

// Serve runs the session for conn until it disconnects, exits, or the hub
// shuts down. It always closes conn before returning.
func (h *Hub) Serve(ctx context.Context, conn Conn) {
	if !h.track(conn) {
		_ = conn.Close()
		return
	}
	defer h.untrack(conn)

	logger := h.log.With().Str("peer", conn.Peer()).Logger()
	logger.Info().Msg("new connection")

	nickname, err := readNickname(ctx, conn)
	if err != nil {
		logger.Debug().Err(err).Msg("connection closed before nickname")
		_ = conn.Close()
		return
	}

	client := NewClient(conn, nickname, h.opts.SendQueueSize)
	logger = logger.With().Str("client_id", client.ID).Str("nick", nickname).Logger()
	go client.writeLoop(h.opts.WriteTimeout, &logger)

	if prev := h.clients.Register(nickname, client); prev != nil {
		h.supersede(prev, &logger)
	}
	h.openRecord(client, &logger)
	h.router.Broadcast(client, proto.UserJoined(nickname))
	logger.Info().Int("online", h.clients.Len()).Msg("client registered")

	reason := h.session(ctx, client, &logger)
	h.teardown(client, reason, &logger)
}

func readNickname(ctx context.Context, conn Conn) (string, error) {
	for {
		line, err := conn.Receive(ctx)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) != "" {
			return line, nil
		}
	}
}

// session is the Active state: receive, parse, route.
func (h *Hub) session(ctx context.Context, client *Client, logger *zerolog.Logger) EndReason {
	for {
		line, err := client.conn.Receive(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("receive ended")
			return endReasonFor(err, h.isClosing())
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			h.router.Reject(client, err)
			continue
		}
		logger.Debug().Stringer("command", cmd.Kind).Msg("routing")
		if h.router.Route(client, cmd) {
			return EndExit
		}
	}
}

// teardown is the Closed state.
func (h *Hub) teardown(client *Client, reason EndReason, logger *zerolog.Logger) {
	client.departed.Store(true)
	registered := h.clients.UnregisterClient(client)
	left := h.channels.RemoveEverywhere(client)
	// A superseded client's nickname belongs to someone still online.
	if registered {
		h.router.Broadcast(client, proto.UserLeft(client.Name))
	}

	client.closeOutbox(h.opts.WriteTimeout)
	if err := client.conn.Close(); err != nil {
		logger.Debug().Err(err).Msg("close connection")
	}
	h.closeRecord(client, reason, logger)

	logger.Info().
		Str("reason", string(reason)).
		Strs("channels", left).
		Int64("dropped", client.Dropped()).
		Int("online", h.clients.Len()).
		Msg("client disconnected")
}

// supersede evicts a client whose nickname was taken by a new connection.
// Its session then ends through the normal teardown path.
func (h *Hub) supersede(prev *Client, logger *zerolog.Logger) {
	prev.departed.Store(true)
	left := h.channels.RemoveEverywhere(prev)
	if err := prev.conn.Close(); err != nil {
		logger.Debug().Err(err).Msg("close superseded connection")
	}
	logger.Warn().
		Str("previous_client_id", prev.ID).
		Strs("channels", left).
		Msg("nickname taken over by new connection")
}

func (h *Hub) openRecord(client *Client, logger *zerolog.Logger) {
	if h.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	err := h.recorder.OpenSession(ctx, &store.Session{
		ID:          client.ID,
		Nickname:    client.Name,
		Peer:        client.Peer,
		ConnectedAt: client.ConnectedAt,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to record session start")
	}
}

func (h *Hub) closeRecord(client *Client, reason EndReason, logger *zerolog.Logger) {
	if h.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := h.recorder.CloseSession(ctx, client.ID, time.Now(), string(reason)); err != nil {
		logger.Warn().Err(err).Msg("failed to record session end")
	}
}

func (h *Hub) track(conn Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closing {
		return false
	}
	h.sessions[conn] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *Hub) untrack(conn Conn) {
	h.mu.Lock()
	delete(h.sessions, conn)
	h.mu.Unlock()
	h.wg.Done()
}

func (h *Hub) isClosing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closing
}

// Shutdown refuses new sessions, closes every live connection, and waits
// for the sessions to finish or ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	conns := make([]Conn, 0, len(h.sessions))
	for conn := range h.sessions {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	h.log.Info().Int("sessions", len(conns)).Msg("closing client connections")
	for _, conn := range conns {
		go func(c Conn) {
			_ = c.Close()
		}(conn)
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info().Msg("hub shutdown completed")
		return nil
	case <-ctx.Done():
		h.log.Warn().Msg("hub shutdown timed out, some sessions still running")
		return ctx.Err()
	}
}
