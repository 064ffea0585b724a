// Package http serves the WebSocket transport and the read-only admin API.
package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/textrouter/internal/config"
	"github.com/vovakirdan/textrouter/internal/core"
	"github.com/vovakirdan/textrouter/internal/store"
)

// NewServer builds an HTTP server with the WebSocket endpoint on a plain mux
// and the admin routes on gin. sessions may be nil.
func NewServer(hub *core.Hub, sessions store.SessionStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	api := NewAPIHandlers(hub, sessions, logger)
	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/clients", api.ListClients)
		apiGroup.GET("/channels", api.ListChannels)
		apiGroup.GET("/sessions", api.ListSessions)
	}

	// gin's writer refuses Hijack once the 101 is written, so /ws stays on
	// the plain mux.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg.MaxLineBytes, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
