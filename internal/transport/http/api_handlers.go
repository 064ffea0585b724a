package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/textrouter/internal/core"
	"github.com/vovakirdan/textrouter/internal/store"
)

// APIHandlers exposes read-only views of the router state.
type APIHandlers struct {
	hub      *core.Hub
	sessions store.SessionStore
	log      *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance. sessions may be nil
// when the audit store is disabled.
func NewAPIHandlers(hub *core.Hub, sessions store.SessionStore, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub:      hub,
		sessions: sessions,
		log:      logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ClientsResponse lists online nicknames.
type ClientsResponse struct {
	Count   int      `json:"count"`
	Clients []string `json:"clients"`
}

// ChannelResponse represents a channel in API responses.
type ChannelResponse struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// ChannelsResponse lists channels in creation order.
type ChannelsResponse struct {
	Channels []ChannelResponse `json:"channels"`
}

// SessionResponse represents one audit record in API responses.
type SessionResponse struct {
	ID             string  `json:"id"`
	Nickname       string  `json:"nickname"`
	Peer           string  `json:"peer"`
	ConnectedAt    string  `json:"connected_at"`
	DisconnectedAt *string `json:"disconnected_at,omitempty"`
	Reason         *string `json:"reason,omitempty"`
}

// SessionsResponse lists recent sessions, newest first.
type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// ListClients returns registered nicknames.
// GET /api/clients
func (h *APIHandlers) ListClients(c *gin.Context) {
	names := h.hub.Clients().Nicknames()
	c.JSON(http.StatusOK, ClientsResponse{Count: len(names), Clients: names})
}

// ListChannels returns every channel with its members.
// GET /api/channels
func (h *APIHandlers) ListChannels(c *gin.Context) {
	snapshot := h.hub.Channels().Snapshot()
	resp := ChannelsResponse{Channels: make([]ChannelResponse, 0, len(snapshot))}
	for _, ch := range snapshot {
		resp.Channels = append(resp.Channels, ChannelResponse{Name: ch.Name, Members: ch.Members})
	}
	c.JSON(http.StatusOK, resp)
}

// ListSessions returns recent session audit records.
// GET /api/sessions?limit=50
func (h *APIHandlers) ListSessions(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be between 1 and 1000"})
			return
		}
		limit = n
	}

	resp := SessionsResponse{Sessions: []SessionResponse{}}
	if h.sessions == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	sessions, err := h.sessions.ListSessions(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list sessions")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(s))
	}
	c.JSON(http.StatusOK, resp)
}

func toSessionResponse(s *store.Session) SessionResponse {
	out := SessionResponse{
		ID:          s.ID,
		Nickname:    s.Nickname,
		Peer:        s.Peer,
		ConnectedAt: s.ConnectedAt.UTC().Format(time.RFC3339),
		Reason:      s.Reason,
	}
	if s.DisconnectedAt != nil {
		ts := s.DisconnectedAt.UTC().Format(time.RFC3339)
		out.DisconnectedAt = &ts
	}
	return out
}
