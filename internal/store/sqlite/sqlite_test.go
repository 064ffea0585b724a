package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/textrouter/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Now().Add(-time.Minute)
	if err := s.OpenSession(ctx, &store.Session{
		ID:          "c1",
		Nickname:    "alice",
		Peer:        "127.0.0.1:4000",
		ConnectedAt: start,
	}); err != nil {
		t.Fatalf("open session: %v", err)
	}

	got, err := s.GetSession(ctx, "c1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Nickname != "alice" || got.Peer != "127.0.0.1:4000" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.DisconnectedAt != nil || got.Reason != nil {
		t.Fatalf("open session should have no end: %+v", got)
	}

	if err := s.CloseSession(ctx, "c1", time.Now(), "disconnect"); err != nil {
		t.Fatalf("close session: %v", err)
	}

	got, err = s.GetSession(ctx, "c1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.DisconnectedAt == nil || got.Reason == nil || *got.Reason != "disconnect" {
		t.Fatalf("expected closed session, got %+v", got)
	}

	// A session can only be closed once.
	if err := s.CloseSession(ctx, "c1", time.Now(), "exit"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second close, got %v", err)
	}
}

func TestGetUnknownSession(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetSession(context.Background(), "ghost"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, nick := range []string{"alice", "bob", "carol"} {
		if err := s.OpenSession(ctx, &store.Session{
			ID:          nick,
			Nickname:    nick,
			Peer:        "peer",
			ConnectedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("open session %s: %v", nick, err)
		}
	}

	tests := []struct {
		name     string
		limit    int
		expected []string
	}{
		{name: "all", limit: 10, expected: []string{"carol", "bob", "alice"}},
		{name: "limited", limit: 2, expected: []string{"carol", "bob"}},
		{name: "default limit", limit: 0, expected: []string{"carol", "bob", "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions, err := s.ListSessions(ctx, tt.limit)
			if err != nil {
				t.Fatalf("list sessions: %v", err)
			}
			if len(sessions) != len(tt.expected) {
				t.Fatalf("expected %d sessions, got %d", len(tt.expected), len(sessions))
			}
			for i, sess := range sessions {
				if sess.Nickname != tt.expected[i] {
					t.Errorf("expected %s at index %d, got %s", tt.expected[i], i, sess.Nickname)
				}
			}
		})
	}
}
