package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/textrouter/internal/store"
)

// ErrSessionNotFound is returned when no session matches the given ID.
var ErrSessionNotFound = errors.New("session not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	nickname        TEXT NOT NULL,
	peer            TEXT NOT NULL,
	connected_at    DATETIME NOT NULL,
	disconnected_at DATETIME,
	reason          TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_connected ON sessions(connected_at DESC);
`

// SQLiteStore implements store.SessionStore for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the SQLite database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps one
	// in-memory database alive for the lifetime of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// OpenSession records a newly registered client.
func (s *SQLiteStore) OpenSession(ctx context.Context, sess *store.Session) error {
	query := `
		INSERT INTO sessions (id, nickname, peer, connected_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, sess.ID, sess.Nickname, sess.Peer, sess.ConnectedAt.UTC()); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// CloseSession stamps the end time and reason on an open session.
func (s *SQLiteStore) CloseSession(ctx context.Context, id string, endedAt time.Time, reason string) error {
	query := `
		UPDATE sessions
		SET disconnected_at = ?, reason = ?
		WHERE id = ? AND disconnected_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, endedAt.UTC(), reason, id)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*store.Session, error) {
	query := `
		SELECT id, nickname, peer, connected_at, disconnected_at, reason
		FROM sessions
		WHERE id = ?
	`
	sess, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	return sess, nil
}

// ListSessions returns the most recent sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]*store.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, nickname, peer, connected_at, disconnected_at, reason
		FROM sessions
		ORDER BY connected_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*store.Session, 0, limit)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*store.Session, error) {
	var (
		sess           store.Session
		disconnectedAt sql.NullTime
		reason         sql.NullString
	)
	if err := row.Scan(
		&sess.ID,
		&sess.Nickname,
		&sess.Peer,
		&sess.ConnectedAt,
		&disconnectedAt,
		&reason,
	); err != nil {
		return nil, err
	}
	if disconnectedAt.Valid {
		t := disconnectedAt.Time
		sess.DisconnectedAt = &t
	}
	if reason.Valid {
		r := reason.String
		sess.Reason = &r
	}
	return &sess, nil
}
