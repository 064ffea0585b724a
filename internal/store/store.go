package store

import (
	"context"
	"time"
)

// Session is the audit record of one client connection.
type Session struct {
	ID             string
	Nickname       string
	Peer           string
	ConnectedAt    time.Time
	DisconnectedAt *time.Time
	Reason         *string
}

// SessionStore handles session audit persistence.
type SessionStore interface {
	// OpenSession records a newly registered client.
	OpenSession(ctx context.Context, s *Session) error

	// CloseSession stamps the end time and reason on an open session.
	CloseSession(ctx context.Context, id string, endedAt time.Time, reason string) error

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, id string) (*Session, error)

	// ListSessions returns the most recent sessions, newest first.
	ListSessions(ctx context.Context, limit int) ([]*Session, error)

	// Close closes the underlying database connection.
	Close() error
}
