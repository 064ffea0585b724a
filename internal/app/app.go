package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/textrouter/internal/config"
	"github.com/vovakirdan/textrouter/internal/core"
	"github.com/vovakirdan/textrouter/internal/store"
	"github.com/vovakirdan/textrouter/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/textrouter/internal/transport/http"
	"github.com/vovakirdan/textrouter/internal/transport/tcp"
)

// App wires together core, storage, and transport layers.
type App struct {
	tcp             *tcp.Server
	http            *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.SessionStore
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	var (
		st       store.SessionStore
		recorder core.SessionRecorder
	)
	if cfg.DatabasePath != "" {
		s, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		st, recorder = s, s
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("session audit enabled")
	}

	hub := core.NewHub(core.Options{
		SendQueueSize:   cfg.SendQueueSize,
		WriteTimeout:    cfg.WriteTimeout,
		ExitEndsSession: cfg.ExitEndsSession,
	}, recorder, logger)

	a := &App{
		tcp:             tcp.NewServer(hub, cfg, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}
	if cfg.HTTPAddr != "" {
		a.http = transporthttp.NewServer(hub, st, cfg, logger)
	}
	return a, nil
}

// Hub returns the routing hub.
func (a *App) Hub() *core.Hub { return a.hub }

// Run binds the listeners and blocks until ctx is cancelled or a server
// fails. Failing to bind the TCP listener is returned immediately.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	if err := a.tcp.Listen(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.tcp.Serve(gctx)
	})

	if a.http != nil {
		g.Go(func() error {
			a.log.Info().Str("addr", a.http.Addr).Msg("http server listening")
			if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown()
	})

	return g.Wait()
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.log.Info().Msg("shutting down")

	var errs []error
	if err := a.tcp.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close tcp listener: %w", err))
	}
	if a.http != nil {
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}
	if err := a.hub.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown hub: %w", err))
	}
	return errors.Join(errs...)
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
