// Package localstore keeps sessions and their working item copies in an
// embedded SQLite database, so the collection survives between invocations.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/winnow/pkg/model"

	_ "modernc.org/sqlite"
)

var ErrSessionNotFound = goerr.New("session not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	collection TEXT NOT NULL DEFAULT '',
	analytics  TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS items (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	id         TEXT NOT NULL,
	payload    TEXT NOT NULL,
	dirty      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (session_id, id)
);
`

// Store is the local embedded session store
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at the given path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open local store", goerr.Value("path", path))
	}
	// WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to enable WAL mode")
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to enable foreign keys")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to initialize schema")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// PutSession inserts or replaces a session record
func (s *Store) PutSession(ctx context.Context, session *model.Session) error {
	var analytics sql.NullString
	if session.Analytics != nil {
		raw, err := json.Marshal(session.Analytics)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal analytics snapshot")
		}
		analytics = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, name, collection, analytics, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			collection = excluded.collection,
			analytics = excluded.analytics,
			updated_at = excluded.updated_at`,
		string(session.ID), session.Name, session.Collection, analytics,
		session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to put session", goerr.Value("session_id", session.ID))
	}
	return nil
}

// GetSession retrieves one session by ID
func (s *Store) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, collection, analytics, created_at, updated_at
		FROM sessions WHERE id = ?`, string(id))

	session, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, goerr.Wrap(ErrSessionNotFound, "get session", goerr.Value("session_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get session", goerr.Value("session_id", id))
	}
	return session, nil
}

// ListSessions returns all sessions, most recently updated first
func (s *Store) ListSessions(ctx context.Context) ([]*model.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, collection, analytics, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list sessions")
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan session")
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// UpdateSessionAnalytics persists an analytics snapshot into the session record
func (s *Store) UpdateSessionAnalytics(ctx context.Context, id model.SessionID, snapshot *model.AnalyticsSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal analytics snapshot")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET analytics = ?, updated_at = ? WHERE id = ?`,
		string(raw), time.Now(), string(id))
	if err != nil {
		return goerr.Wrap(err, "failed to update session analytics", goerr.Value("session_id", id))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return goerr.Wrap(ErrSessionNotFound, "update session analytics", goerr.Value("session_id", id))
	}
	return nil
}

// PutItems replaces the session's working item copies in one transaction
func (s *Store) PutItems(ctx context.Context, sessionID model.SessionID, items []*model.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE session_id = ?`, string(sessionID)); err != nil {
		return goerr.Wrap(err, "failed to clear items", goerr.Value("session_id", sessionID))
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO items (session_id, id, payload, dirty) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal item", goerr.Value("item_id", item.ID))
		}
		dirty := 0
		if item.HasUnsavedChanges {
			dirty = 1
		}
		if _, err := stmt.ExecContext(ctx, string(sessionID), string(item.ID), string(payload), dirty); err != nil {
			return goerr.Wrap(err, "failed to insert item", goerr.Value("item_id", item.ID))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit items")
	}
	return nil
}

// GetItems loads the session's working item copies
func (s *Store) GetItems(ctx context.Context, sessionID model.SessionID) ([]*model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload, dirty FROM items WHERE session_id = ? ORDER BY rowid`, string(sessionID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query items", goerr.Value("session_id", sessionID))
	}
	defer rows.Close()

	var items []*model.Item
	for rows.Next() {
		var payload string
		var dirty int
		if err := rows.Scan(&payload, &dirty); err != nil {
			return nil, goerr.Wrap(err, "failed to scan item")
		}
		var item model.Item
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal item")
		}
		item.HasUnsavedChanges = dirty != 0
		item.SaveState = model.SaveStateIdle
		items = append(items, &item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	var session model.Session
	var id string
	var analytics sql.NullString
	if err := row.Scan(&id, &session.Name, &session.Collection, &analytics,
		&session.CreatedAt, &session.UpdatedAt); err != nil {
		return nil, err
	}
	session.ID = model.SessionID(id)

	if analytics.Valid && analytics.String != "" {
		var snapshot model.AnalyticsSnapshot
		if err := json.Unmarshal([]byte(analytics.String), &snapshot); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal analytics snapshot")
		}
		session.Analytics = &snapshot
	}
	return &session, nil
}
