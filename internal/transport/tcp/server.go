// Package tcp serves the chat router over plain TCP, one text line per
// message.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/textrouter/internal/config"
	"github.com/vovakirdan/textrouter/internal/core"
)

const defaultMaxLineBytes = 4096

// Server accepts TCP connections and hands each one to the hub.
type Server struct {
	addr         string
	maxLineBytes int
	hub          *core.Hub
	log          *zerolog.Logger

	mu sync.Mutex
	ln net.Listener
}

// NewServer builds a TCP server for cfg.Addr.
func NewServer(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *Server {
	maxLine := cfg.MaxLineBytes
	if maxLine <= 0 {
		maxLine = defaultMaxLineBytes
	}
	return &Server{
		addr:         cfg.Addr,
		maxLineBytes: maxLine,
		hub:          hub,
		log:          logger,
	}
}

// Listen binds the listening socket. Failing to bind is the only fatal
// error of the server.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("tcp server listening")
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until ctx is done or Close is called.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("tcp server: Serve called before Listen")
	}

	stop := context.AfterFunc(ctx, func() {
		_ = s.Close()
	})
	defer stop()

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			backoff = nextBackoff(backoff)
			s.log.Warn().Err(err).Dur("retry_in", backoff).Msg("accept error")
			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		backoff = 0

		go s.hub.Serve(ctx, newLineConn(conn, s.maxLineBytes))
	}
}

// ListenAndServe is Listen followed by Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Close stops accepting connections. Live sessions are left to the hub.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func nextBackoff(d time.Duration) time.Duration {
	const maxDelay = time.Second
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > maxDelay {
		d = maxDelay
	}
	return d
}
