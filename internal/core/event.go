package core

import (
	"context"
	"errors"
	"time"

	"github.com/vovakirdan/textrouter/internal/store"
)

// EndReason is why a session reached the Closed state.
type EndReason string

const (
	// EndDisconnect is an orderly close or a transport error on receive.
	EndDisconnect EndReason = "disconnect"
	// EndExit is a successful /exit while exits end sessions.
	EndExit EndReason = "exit"
	// EndShutdown is administrative shutdown or context cancellation.
	EndShutdown EndReason = "shutdown"
)

func endReasonFor(err error, shuttingDown bool) EndReason {
	if shuttingDown || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return EndShutdown
	}
	return EndDisconnect
}

// SessionRecorder persists session lifecycle records. The hub treats it as
// best effort: failures are logged and never affect routing.
type SessionRecorder interface {
	OpenSession(ctx context.Context, s *store.Session) error
	CloseSession(ctx context.Context, id string, endedAt time.Time, reason string) error
}
