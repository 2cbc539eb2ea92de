// Package sqlite persists conversation state and processed webhook message
// ids in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/example/calendar-secretary/internal/dialogue"
	"github.com/example/calendar-secretary/internal/persistence"
)

const schema = `
CREATE TABLE IF NOT EXISTS dialogue_states (
	user_id    TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS processed_messages (
	message_id  TEXT PRIMARY KEY,
	received_at TEXT NOT NULL
);
`

// Store is the SQLite-backed state store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the database identified by dsn and applies the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open %s: %w", dsn, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to connect: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadState fetches the conversation state for a user. It returns
// persistence.ErrNotFound when the user has no stored conversation.
func (s *Store) LoadState(ctx context.Context, userID string) (dialogue.State, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM dialogue_states WHERE user_id = ?`, userID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return dialogue.State{}, persistence.ErrNotFound
	}
	if err != nil {
		return dialogue.State{}, fmt.Errorf("sqlite: failed to load state for %s: %w", userID, err)
	}

	var state dialogue.State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return dialogue.State{}, fmt.Errorf("sqlite: corrupt state payload for %s: %w", userID, err)
	}
	return state, nil
}

// SaveState upserts the conversation state keyed by its user id.
func (s *Store) SaveState(ctx context.Context, state dialogue.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("sqlite: failed to encode state for %s: %w", state.UserID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dialogue_states (user_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		state.UserID, string(payload), s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to save state for %s: %w", state.UserID, err)
	}
	return nil
}

// RegisterMessageID records a webhook message id if it has not been seen
// before. A redelivered id yields persistence.ErrDuplicateMessage so the
// caller can skip processing.
func (s *Store) RegisterMessageID(ctx context.Context, messageID string) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_messages (message_id, received_at) VALUES (?, ?)`,
		messageID, s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to register message %s: %w", messageID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to inspect message insert: %w", err)
	}
	if affected == 0 {
		return persistence.ErrDuplicateMessage
	}
	return nil
}
